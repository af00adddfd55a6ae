package escrow

import (
	"bytes"
	"testing"

	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/bsplittest"
	"github.com/splitchain/bsplit/bsplittest/assert"
	"github.com/splitchain/bsplit/coin"
	"github.com/splitchain/bsplit/errors"
)

func validCreateMsg() *CreateMsg {
	return &CreateMsg{
		BountyID: bytes.Repeat([]byte{9}, bountyIDLength),
		Ticker:   "BNTY",
		Recipients: []bsplit.Address{
			bsplittest.NewCondition().Address(),
			bsplittest.NewCondition().Address(),
			bsplittest.NewCondition().Address(),
		},
		Splits:                []uint16{5000, 3000, 2000},
		RequiredConfirmations: 2,
	}
}

func TestCreateMsgValidate(t *testing.T) {
	cases := map[string]struct {
		mod       func(*CreateMsg)
		wantField string
		wantErr   *errors.Error
	}{
		"valid": {
			mod: func(*CreateMsg) {},
		},
		"valid with native asset and arbiter": {
			mod: func(m *CreateMsg) {
				m.Ticker = ""
				m.Arbiter = bsplittest.NewCondition().Address()
				m.TimelockExpiry = 1900000000
			},
		},
		"bad bounty id": {
			mod:       func(m *CreateMsg) { m.BountyID = []byte("short") },
			wantField: "BountyID",
			wantErr:   errors.ErrInput,
		},
		"bad ticker": {
			mod:       func(m *CreateMsg) { m.Ticker = "x" },
			wantField: "Ticker",
			wantErr:   errors.ErrAmount,
		},
		"too many recipients": {
			mod: func(m *CreateMsg) {
				for i := 0; i < 9; i++ {
					m.Recipients = append(m.Recipients, bsplittest.NewCondition().Address())
				}
			},
			wantField: "Recipients",
			wantErr:   ErrInvalidRecipientCount,
		},
		"duplicate recipient": {
			mod:       func(m *CreateMsg) { m.Recipients[2] = m.Recipients[0] },
			wantField: "Recipients",
			wantErr:   ErrDuplicateRecipient,
		},
		"zero split": {
			mod:       func(m *CreateMsg) { m.Splits = []uint16{5000, 5000, 0} },
			wantField: "Splits",
			wantErr:   ErrZeroSplit,
		},
		"splits sum too low": {
			mod:       func(m *CreateMsg) { m.Splits = []uint16{5000, 3000, 1999} },
			wantField: "Splits",
			wantErr:   ErrInvalidSplits,
		},
		"splits length mismatch": {
			mod:       func(m *CreateMsg) { m.Splits = []uint16{5000, 5000} },
			wantField: "Splits",
			wantErr:   ErrInvalidSplits,
		},
		"threshold above recipient count": {
			mod:       func(m *CreateMsg) { m.RequiredConfirmations = 4 },
			wantField: "RequiredConfirmations",
			wantErr:   ErrInvalidRecipientCount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			msg := validCreateMsg()
			tc.mod(msg)
			err := msg.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.FieldError(t, err, tc.wantField, tc.wantErr)
		})
	}
}

func TestFundMsgValidate(t *testing.T) {
	msg := &FundMsg{
		EscrowID: bytes.Repeat([]byte{1}, escrowKeyLength),
		Amount:   coin.NewCoin(100, "BNTY"),
	}
	assert.Nil(t, msg.Validate())

	msg.Amount = coin.NewCoin(0, "BNTY")
	assert.FieldError(t, msg.Validate(), "Amount", errors.ErrAmount)

	msg.Amount = coin.NewCoin(1, "bad ticker")
	assert.FieldError(t, msg.Validate(), "Amount", errors.ErrAmount)

	msg = &FundMsg{EscrowID: []byte("too short"), Amount: coin.NewCoin(1, "BNTY")}
	assert.FieldError(t, msg.Validate(), "EscrowID", errors.ErrInput)
}

func TestDistributeMsgValidate(t *testing.T) {
	msg := &DistributeMsg{
		EscrowID: bytes.Repeat([]byte{1}, escrowKeyLength),
		Destinations: []bsplit.Address{
			bsplittest.NewCondition().Address(),
			bsplittest.NewCondition().Address(),
		},
	}
	assert.Nil(t, msg.Validate())

	msg.Destinations = msg.Destinations[:1]
	assert.FieldError(t, msg.Validate(), "Destinations", errors.ErrInput)

	msg.Destinations = []bsplit.Address{{1, 2, 3}, bsplittest.NewCondition().Address()}
	assert.FieldError(t, msg.Validate(), "Destinations", errors.ErrInput)
}

func TestRaiseDisputeMsgValidate(t *testing.T) {
	msg := &RaiseDisputeMsg{
		EscrowID:   bytes.Repeat([]byte{1}, escrowKeyLength),
		ReasonHash: bytes.Repeat([]byte{2}, 32),
	}
	assert.Nil(t, msg.Validate())

	msg.ReasonHash = nil
	assert.FieldError(t, msg.Validate(), "ReasonHash", errors.ErrInput)

	msg.ReasonHash = []byte("not a hash")
	assert.FieldError(t, msg.Validate(), "ReasonHash", errors.ErrInput)
}
