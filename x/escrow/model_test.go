package escrow

import (
	"bytes"
	"testing"

	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/bsplittest"
	"github.com/splitchain/bsplit/bsplittest/assert"
	"github.com/splitchain/bsplit/errors"
	"github.com/splitchain/bsplit/store"
)

func validEscrow() *Escrow {
	funder := bsplittest.NewCondition().Address()
	key := NewEscrowKey(funder, bytes.Repeat([]byte{1}, bountyIDLength))
	return &Escrow{
		Funder:   funder,
		BountyID: bytes.Repeat([]byte{1}, bountyIDLength),
		Ticker:   "BNTY",
		Address:  Condition(key).Address(),
		Recipients: []bsplit.Address{
			bsplittest.NewCondition().Address(),
			bsplittest.NewCondition().Address(),
		},
		Splits:                []uint16{6000, 4000},
		RequiredConfirmations: 1,
		Status:                StatusInitialized,
		CreatedAt:             1234567890,
	}
}

func TestEscrowValidate(t *testing.T) {
	cases := map[string]struct {
		mod       func(*Escrow)
		wantField string
		wantErr   *errors.Error
	}{
		"valid": {
			mod: func(*Escrow) {},
		},
		"short bounty id": {
			mod:       func(e *Escrow) { e.BountyID = []byte{1, 2, 3} },
			wantField: "BountyID",
			wantErr:   errors.ErrInput,
		},
		"bad ticker": {
			mod:       func(e *Escrow) { e.Ticker = "bnty" },
			wantField: "Ticker",
			wantErr:   errors.ErrAmount,
		},
		"no recipients": {
			mod: func(e *Escrow) {
				e.Recipients = nil
				e.Splits = nil
			},
			wantField: "Recipients",
			wantErr:   ErrInvalidRecipientCount,
		},
		"duplicate recipient": {
			mod: func(e *Escrow) {
				e.Recipients[1] = e.Recipients[0]
			},
			wantField: "Recipients",
			wantErr:   ErrDuplicateRecipient,
		},
		"splits length mismatch": {
			mod:       func(e *Escrow) { e.Splits = []uint16{10000} },
			wantField: "Splits",
			wantErr:   ErrInvalidSplits,
		},
		"zero split": {
			mod:       func(e *Escrow) { e.Splits = []uint16{10000, 0} },
			wantField: "Splits",
			wantErr:   ErrZeroSplit,
		},
		"splits do not sum to 10000": {
			mod:       func(e *Escrow) { e.Splits = []uint16{6000, 3999} },
			wantField: "Splits",
			wantErr:   ErrInvalidSplits,
		},
		"threshold too high": {
			mod:       func(e *Escrow) { e.RequiredConfirmations = 3 },
			wantField: "RequiredConfirmations",
			wantErr:   ErrInvalidRecipientCount,
		},
		"threshold zero": {
			mod:       func(e *Escrow) { e.RequiredConfirmations = 0 },
			wantField: "RequiredConfirmations",
			wantErr:   ErrInvalidRecipientCount,
		},
		"arbiter is the funder": {
			mod:       func(e *Escrow) { e.Arbiter = e.Funder },
			wantField: "Arbiter",
			wantErr:   ErrInvalidArbiter,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			esc := validEscrow()
			tc.mod(esc)
			err := esc.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.FieldError(t, err, tc.wantField, tc.wantErr)
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusInitialized, StatusFunded},
		{StatusFunded, StatusPendingRelease},
		{StatusFunded, StatusReleased},
		{StatusFunded, StatusDisputed},
		{StatusFunded, StatusRefunded},
		{StatusPendingRelease, StatusReleased},
		{StatusPendingRelease, StatusDisputed},
		{StatusDisputed, StatusReleased},
		{StatusDisputed, StatusRefunded},
	}
	for _, tc := range legal {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Errorf("%s -> %s must be legal", tc.from, tc.to)
		}
	}

	illegal := []struct{ from, to Status }{
		{StatusInitialized, StatusPendingRelease},
		{StatusInitialized, StatusReleased},
		{StatusReleased, StatusFunded},
		{StatusReleased, StatusRefunded},
		{StatusRefunded, StatusReleased},
		{StatusRefunded, StatusFunded},
		{StatusPendingRelease, StatusFunded},
	}
	for _, tc := range illegal {
		if tc.from.CanTransitionTo(tc.to) {
			t.Errorf("%s -> %s must be illegal", tc.from, tc.to)
		}
	}
}

func TestBitmaskHelpers(t *testing.T) {
	esc := validEscrow()

	assert.Equal(t, 0, esc.ConfirmationCount())
	assert.Equal(t, false, esc.HasConfirmed(0))

	esc.SetConfirmed(1)
	assert.Equal(t, 1, esc.ConfirmationCount())
	assert.Equal(t, false, esc.HasConfirmed(0))
	assert.Equal(t, true, esc.HasConfirmed(1))

	// setting the same bit twice does not change the count
	esc.SetConfirmed(1)
	assert.Equal(t, 1, esc.ConfirmationCount())

	assert.Equal(t, false, esc.AllClaimed())
	esc.SetClaimed(0)
	assert.Equal(t, false, esc.AllClaimed())
	esc.SetClaimed(1)
	assert.Equal(t, true, esc.AllClaimed())
}

func TestEscrowKeyDeterministic(t *testing.T) {
	funder := bsplittest.NewCondition().Address()
	other := bsplittest.NewCondition().Address()
	bountyID := bytes.Repeat([]byte{7}, bountyIDLength)

	key := NewEscrowKey(funder, bountyID)
	assert.Equal(t, escrowKeyLength, len(key))
	assert.Equal(t, key, NewEscrowKey(funder, bountyID))

	if bytes.Equal(key, NewEscrowKey(other, bountyID)) {
		t.Fatal("different funders must produce different keys")
	}
	if bytes.Equal(key, NewEscrowKey(funder, bytes.Repeat([]byte{8}, bountyIDLength))) {
		t.Fatal("different bounty ids must produce different keys")
	}

	// the holding wallet condition is recomputed, not stored
	assert.Equal(t, Condition(key).Address(), Condition(key).Address())
}

func TestEscrowCopy(t *testing.T) {
	esc := validEscrow()
	cpy := esc.Copy().(*Escrow)

	cpy.Recipients[0] = bsplittest.NewCondition().Address()
	cpy.Splits[0] = 1
	cpy.SetConfirmed(0)

	if esc.Recipients[0].Equals(cpy.Recipients[0]) {
		t.Fatal("copy shares the recipient list")
	}
	assert.Equal(t, uint16(6000), esc.Splits[0])
	assert.Equal(t, 0, esc.ConfirmationCount())
}

func TestBucketIndexes(t *testing.T) {
	db := store.MemStore()
	bucket := NewBucket()

	esc := validEscrow()
	esc.Arbiter = bsplittest.NewCondition().Address()
	key := NewEscrowKey(esc.Funder, esc.BountyID)
	assert.Nil(t, bucket.Put(db, key, esc))

	second := validEscrow()
	second.Funder = esc.Funder
	second.BountyID = bytes.Repeat([]byte{2}, bountyIDLength)
	secondKey := NewEscrowKey(second.Funder, second.BountyID)
	assert.Nil(t, bucket.Put(db, secondKey, second))

	var byFunder []*Escrow
	keys, err := bucket.ByIndex(db, "funder", esc.Funder, &byFunder)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(keys))
	assert.Equal(t, 2, len(byFunder))

	var byArbiter []*Escrow
	keys, err = bucket.ByIndex(db, "arbiter", esc.Arbiter, &byArbiter)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(keys))
	assert.Equal(t, key, keys[0])
}
