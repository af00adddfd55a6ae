package escrow

import (
	"encoding/json"

	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/coin"
	"github.com/splitchain/bsplit/errors"
)

const (
	pathCreate         = "escrow/create"
	pathFund           = "escrow/fund"
	pathProposeRelease = "escrow/propose_release"
	pathConfirmRelease = "escrow/confirm_release"
	pathRelease        = "escrow/release"
	pathRaiseDispute   = "escrow/raise_dispute"
	pathResolveDispute = "escrow/resolve_dispute"
	pathDistribute     = "escrow/distribute"
	pathClaim          = "escrow/claim"
	pathReturn         = "escrow/return"
)

var (
	_ bsplit.Msg = (*CreateMsg)(nil)
	_ bsplit.Msg = (*FundMsg)(nil)
	_ bsplit.Msg = (*ProposeReleaseMsg)(nil)
	_ bsplit.Msg = (*ConfirmReleaseMsg)(nil)
	_ bsplit.Msg = (*ReleaseMsg)(nil)
	_ bsplit.Msg = (*RaiseDisputeMsg)(nil)
	_ bsplit.Msg = (*ResolveDisputeMsg)(nil)
	_ bsplit.Msg = (*DistributeMsg)(nil)
	_ bsplit.Msg = (*ClaimMsg)(nil)
	_ bsplit.Msg = (*ReturnMsg)(nil)
)

// escrowKeyLength is the length of the sha256 derived record key.
const escrowKeyLength = 32

func validateEscrowID(id []byte) error {
	if len(id) != escrowKeyLength {
		return errors.Wrapf(errors.ErrInput, "escrow id must be %d bytes", escrowKeyLength)
	}
	return nil
}

// CreateMsg starts a new escrow. The funder is the main signer of the
// transaction. Timelock and arbiter constraints that depend on the block
// context are checked by the handler.
type CreateMsg struct {
	BountyID              []byte           `json:"bounty_id"`
	Ticker                string           `json:"ticker,omitempty"`
	Recipients            []bsplit.Address `json:"recipients"`
	Splits                []uint16         `json:"splits"`
	RequiredConfirmations uint8            `json:"required_confirmations"`
	Arbiter               bsplit.Address   `json:"arbiter,omitempty"`
	TimelockExpiry        bsplit.UnixTime  `json:"timelock_expiry,omitempty"`
}

func (CreateMsg) Path() string {
	return pathCreate
}

func (m *CreateMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *CreateMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *CreateMsg) Validate() error {
	var errs error

	if len(m.BountyID) != bountyIDLength {
		errs = errors.Append(errs,
			errors.Field("BountyID", errors.ErrInput, "must be %d bytes", bountyIDLength))
	}
	if m.Ticker != "" && !coin.IsCC(m.Ticker) {
		errs = errors.Append(errs,
			errors.Field("Ticker", errors.ErrAmount, "invalid currency code"))
	}

	n := len(m.Recipients)
	if n < 1 || n > maxRecipients {
		errs = errors.Append(errs,
			errors.Field("Recipients", ErrInvalidRecipientCount, "%d outside of [1, %d]", n, maxRecipients))
	}
	seen := make(map[string]struct{}, n)
	for _, r := range m.Recipients {
		if err := r.Validate(); err != nil {
			errs = errors.AppendField(errs, "Recipients", err)
			continue
		}
		if _, ok := seen[string(r)]; ok {
			errs = errors.Append(errs,
				errors.Field("Recipients", ErrDuplicateRecipient, "%s", r))
		}
		seen[string(r)] = struct{}{}
	}

	if len(m.Splits) != n {
		errs = errors.Append(errs,
			errors.Field("Splits", ErrInvalidSplits, "want %d entries, got %d", n, len(m.Splits)))
	} else {
		var sum int
		for _, s := range m.Splits {
			if s == 0 {
				errs = errors.Append(errs, errors.Field("Splits", ErrZeroSplit, "zero weight"))
			}
			sum += int(s)
		}
		if sum != totalBasisPoints {
			errs = errors.Append(errs,
				errors.Field("Splits", ErrInvalidSplits, "sum %d, want %d", sum, totalBasisPoints))
		}
	}

	if m.RequiredConfirmations < 1 || int(m.RequiredConfirmations) > n {
		errs = errors.Append(errs,
			errors.Field("RequiredConfirmations", ErrInvalidRecipientCount, "%d outside of [1, %d]", m.RequiredConfirmations, n))
	}
	if m.Arbiter != nil {
		errs = errors.AppendField(errs, "Arbiter", m.Arbiter.Validate())
	}

	return errs
}

// FundMsg moves value from the funder wallet into the escrow's holding
// wallet and increases the tracked balance.
type FundMsg struct {
	EscrowID []byte    `json:"escrow_id"`
	Amount   coin.Coin `json:"amount"`
}

func (FundMsg) Path() string {
	return pathFund
}

func (m *FundMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *FundMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *FundMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "EscrowID", validateEscrowID(m.EscrowID))
	errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	if !m.Amount.IsPositive() {
		errs = errors.Append(errs,
			errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	return errs
}

// ProposeReleaseMsg moves a funded escrow into the pending release status,
// opening the confirmation window.
type ProposeReleaseMsg struct {
	EscrowID []byte `json:"escrow_id"`
}

func (ProposeReleaseMsg) Path() string {
	return pathProposeRelease
}

func (m *ProposeReleaseMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ProposeReleaseMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *ProposeReleaseMsg) Validate() error {
	return errors.AppendField(nil, "EscrowID", validateEscrowID(m.EscrowID))
}

// ConfirmReleaseMsg records one recipient's release approval. Reaching the
// quorum releases the escrow.
type ConfirmReleaseMsg struct {
	EscrowID []byte `json:"escrow_id"`
}

func (ConfirmReleaseMsg) Path() string {
	return pathConfirmRelease
}

func (m *ConfirmReleaseMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ConfirmReleaseMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *ConfirmReleaseMsg) Validate() error {
	return errors.AppendField(nil, "EscrowID", validateEscrowID(m.EscrowID))
}

// ReleaseMsg is the funder's override, releasing without a quorum.
type ReleaseMsg struct {
	EscrowID []byte `json:"escrow_id"`
}

func (ReleaseMsg) Path() string {
	return pathRelease
}

func (m *ReleaseMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ReleaseMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *ReleaseMsg) Validate() error {
	return errors.AppendField(nil, "EscrowID", validateEscrowID(m.EscrowID))
}

// RaiseDisputeMsg freezes a non-terminal escrow until the arbiter rules.
type RaiseDisputeMsg struct {
	EscrowID []byte `json:"escrow_id"`
	// ReasonHash is an opaque 32 byte fingerprint of the dispute reason.
	ReasonHash []byte `json:"reason_hash"`
}

func (RaiseDisputeMsg) Path() string {
	return pathRaiseDispute
}

func (m *RaiseDisputeMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *RaiseDisputeMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *RaiseDisputeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "EscrowID", validateEscrowID(m.EscrowID))
	if len(m.ReasonHash) != 32 {
		errs = errors.Append(errs,
			errors.Field("ReasonHash", errors.ErrInput, "must be 32 bytes"))
	}
	return errs
}

// ResolveDisputeMsg is the arbiter's ruling, releasing a disputed escrow.
type ResolveDisputeMsg struct {
	EscrowID []byte `json:"escrow_id"`
}

func (ResolveDisputeMsg) Path() string {
	return pathResolveDispute
}

func (m *ResolveDisputeMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ResolveDisputeMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *ResolveDisputeMsg) Validate() error {
	return errors.AppendField(nil, "EscrowID", validateEscrowID(m.EscrowID))
}

// DistributeMsg pays out every recipient in one call. Destinations must be
// aligned with the recipient list, plus one trailing destination owned by
// the funder that receives the rounding dust.
type DistributeMsg struct {
	EscrowID     []byte           `json:"escrow_id"`
	Destinations []bsplit.Address `json:"destinations"`
}

func (DistributeMsg) Path() string {
	return pathDistribute
}

func (m *DistributeMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *DistributeMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *DistributeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "EscrowID", validateEscrowID(m.EscrowID))
	if len(m.Destinations) < 2 || len(m.Destinations) > maxRecipients+1 {
		errs = errors.Append(errs,
			errors.Field("Destinations", errors.ErrInput, "want recipient destinations plus one for the funder"))
	}
	for _, d := range m.Destinations {
		errs = errors.AppendField(errs, "Destinations", d.Validate())
	}
	return errs
}

// ClaimMsg withdraws the calling recipient's own share.
type ClaimMsg struct {
	EscrowID []byte `json:"escrow_id"`
}

func (ClaimMsg) Path() string {
	return pathClaim
}

func (m *ClaimMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ClaimMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *ClaimMsg) Validate() error {
	return errors.AppendField(nil, "EscrowID", validateEscrowID(m.EscrowID))
}

// ReturnMsg refunds the full remaining balance to the funder once the
// timelock allows it.
type ReturnMsg struct {
	EscrowID []byte `json:"escrow_id"`
}

func (ReturnMsg) Path() string {
	return pathReturn
}

func (m *ReturnMsg) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ReturnMsg) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, m)
}

func (m *ReturnMsg) Validate() error {
	return errors.AppendField(nil, "EscrowID", validateEscrowID(m.EscrowID))
}
