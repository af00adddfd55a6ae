package escrow

import (
	"crypto/sha256"
	"encoding/json"
	"math/bits"

	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/coin"
	"github.com/splitchain/bsplit/errors"
	"github.com/splitchain/bsplit/orm"
)

const (
	// maxRecipients is the fixed capacity of the recipient list. The
	// confirmation and claim bitmasks are 8 bit wide and depend on it.
	maxRecipients = 8

	// totalBasisPoints is the required sum of all split weights.
	totalBasisPoints = 10000

	// bountyIDLength is the required length of a bounty identifier.
	bountyIDLength = 32
)

// DefaultTicker is the asset used when an escrow does not configure one. An
// empty ticker on the record is the sentinel for the native asset.
const DefaultTicker = "IOV"

// Status describes the lifecycle stage of an escrow.
type Status uint8

const (
	StatusInitialized Status = iota
	StatusFunded
	StatusPendingRelease
	StatusReleased
	StatusDisputed
	StatusRefunded
)

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "initialized"
	case StatusFunded:
		return "funded"
	case StatusPendingRelease:
		return "pending_release"
	case StatusReleased:
		return "released"
	case StatusDisputed:
		return "disputed"
	case StatusRefunded:
		return "refunded"
	}
	return "invalid"
}

// IsTerminal returns true for statuses that permit no further value moving
// operation.
func (s Status) IsTerminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

// validTransitions is the legal status transition table. Every status
// change made by a handler must pass through CanTransitionTo.
var validTransitions = map[Status][]Status{
	StatusInitialized:    {StatusFunded, StatusDisputed, StatusRefunded},
	StatusFunded:         {StatusPendingRelease, StatusReleased, StatusDisputed, StatusRefunded},
	StatusPendingRelease: {StatusReleased, StatusDisputed, StatusRefunded},
	StatusDisputed:       {StatusReleased, StatusRefunded},
}

// CanTransitionTo returns true if moving from this status to the next one
// is a legal state machine edge.
func (s Status) CanTransitionTo(next Status) bool {
	for _, n := range validTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Escrow is the persisted state of one bounty's conditional payment.
type Escrow struct {
	// Funder created the escrow and can unilaterally release or reclaim it.
	Funder bsplit.Address `json:"funder"`
	// BountyID is an opaque 32 byte correlation identifier. Together with
	// the funder it determines the record key.
	BountyID []byte `json:"bounty_id"`
	// Ticker of the accepted asset. Empty means the native asset.
	Ticker string `json:"ticker,omitempty"`
	// Address of the wallet holding the deposited value. Controlled by
	// Condition(key), recomputed, never a stored secret.
	Address bsplit.Address `json:"address"`
	// TotalAmount is the balance currently held. Driven to zero atomically
	// with full distribution or refund.
	TotalAmount uint64 `json:"total_amount"`

	Recipients []bsplit.Address `json:"recipients"`
	// Splits are basis point weights parallel to Recipients. Each is
	// positive and they sum to exactly 10000.
	Splits []uint16 `json:"splits"`

	// Confirmations is a bitmask over recipient indices marking release
	// approvals.
	Confirmations uint8 `json:"confirmations"`
	// Claimed is a bitmask over recipient indices marking completed pull
	// withdrawals.
	Claimed uint8 `json:"claimed"`
	// RequiredConfirmations is the release quorum, in [1, len(Recipients)].
	RequiredConfirmations uint8 `json:"required_confirmations"`

	Status Status `json:"status"`

	// Arbiter may resolve a dispute. Nil means no arbiter is configured
	// and the sentinel never matches a real caller.
	Arbiter bsplit.Address `json:"arbiter,omitempty"`

	CreatedAt bsplit.UnixTime `json:"created_at"`
	// TimelockExpiry is the absolute time after which the funder may
	// reclaim unreleased funds. Zero means no refund deadline.
	TimelockExpiry bsplit.UnixTime `json:"timelock_expiry,omitempty"`
}

var _ orm.Model = (*Escrow)(nil)

func (e *Escrow) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Escrow) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, e)
}

// Validate ensures the record invariants hold. It is run on every bucket
// write, so a handler cannot persist a broken record.
func (e *Escrow) Validate() error {
	var errs error

	errs = errors.AppendField(errs, "Funder", e.Funder.Validate())
	if len(e.BountyID) != bountyIDLength {
		errs = errors.Append(errs,
			errors.Field("BountyID", errors.ErrInput, "must be %d bytes", bountyIDLength))
	}
	if e.Ticker != "" && !coin.IsCC(e.Ticker) {
		errs = errors.Append(errs,
			errors.Field("Ticker", errors.ErrAmount, "invalid currency code"))
	}
	errs = errors.AppendField(errs, "Address", e.Address.Validate())

	n := len(e.Recipients)
	if n < 1 || n > maxRecipients {
		errs = errors.Append(errs,
			errors.Field("Recipients", ErrInvalidRecipientCount, "%d outside of [1, %d]", n, maxRecipients))
	}
	seen := make(map[string]struct{}, n)
	for _, r := range e.Recipients {
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

	if len(e.Splits) != n {
		errs = errors.Append(errs,
			errors.Field("Splits", ErrInvalidSplits, "want %d entries, got %d", n, len(e.Splits)))
	} else {
		var sum int
		for _, s := range e.Splits {
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

	if e.RequiredConfirmations < 1 || int(e.RequiredConfirmations) > n {
		errs = errors.Append(errs,
			errors.Field("RequiredConfirmations", ErrInvalidRecipientCount, "%d outside of [1, %d]", e.RequiredConfirmations, n))
	}
	if e.Status > StatusRefunded {
		errs = errors.Append(errs,
			errors.Field("Status", ErrInvalidStatus, "unknown status %d", e.Status))
	}
	if e.Arbiter != nil {
		errs = errors.AppendField(errs, "Arbiter", e.Arbiter.Validate())
		if e.Arbiter.Equals(e.Funder) {
			errs = errors.Append(errs,
				errors.Field("Arbiter", ErrInvalidArbiter, "arbiter is the funder"))
		}
	}
	errs = errors.AppendField(errs, "CreatedAt", e.CreatedAt.Validate())
	if e.TimelockExpiry != 0 {
		errs = errors.AppendField(errs, "TimelockExpiry", e.TimelockExpiry.Validate())
	}

	return errs
}

// Copy returns a deep copy of the escrow.
func (e *Escrow) Copy() orm.CloneableData {
	cpy := *e
	cpy.Funder = e.Funder.Clone()
	cpy.BountyID = append([]byte(nil), e.BountyID...)
	cpy.Address = e.Address.Clone()
	cpy.Recipients = make([]bsplit.Address, len(e.Recipients))
	for i, r := range e.Recipients {
		cpy.Recipients[i] = r.Clone()
	}
	cpy.Splits = append([]uint16(nil), e.Splits...)
	cpy.Arbiter = e.Arbiter.Clone()
	return &cpy
}

// RecipientIndex returns the position of given address in the recipient
// list, or -1 when absent.
func (e *Escrow) RecipientIndex(addr bsplit.Address) int {
	for i, r := range e.Recipients {
		if r.Equals(addr) {
			return i
		}
	}
	return -1
}

// IsRecipient returns true if given address is one of the recipients.
func (e *Escrow) IsRecipient(addr bsplit.Address) bool {
	return e.RecipientIndex(addr) != -1
}

// HasConfirmed returns true if the recipient at given index already
// approved the release.
func (e *Escrow) HasConfirmed(idx int) bool {
	return e.Confirmations&(1<<uint(idx)) != 0
}

// SetConfirmed marks the recipient at given index as having approved.
func (e *Escrow) SetConfirmed(idx int) {
	e.Confirmations |= 1 << uint(idx)
}

// ConfirmationCount returns the number of recipients that approved.
func (e *Escrow) ConfirmationCount() int {
	return bits.OnesCount8(e.Confirmations)
}

// HasClaimed returns true if the recipient at given index already withdrew
// their share.
func (e *Escrow) HasClaimed(idx int) bool {
	return e.Claimed&(1<<uint(idx)) != 0
}

// SetClaimed marks the recipient at given index as having withdrawn.
func (e *Escrow) SetClaimed(idx int) {
	e.Claimed |= 1 << uint(idx)
}

// AllClaimed returns true once every recipient withdrew their share.
func (e *Escrow) AllClaimed() bool {
	return bits.OnesCount8(e.Claimed) == len(e.Recipients)
}

// EffectiveTicker resolves the configured asset, applying the native asset
// default when the record keeps the empty sentinel.
func (e *Escrow) EffectiveTicker() string {
	if e.Ticker == "" {
		return DefaultTicker
	}
	return e.Ticker
}

// NewEscrowKey derives the record key from the funder address and the
// bounty identifier, giving lookup by composite key without an index.
func NewEscrowKey(funder bsplit.Address, bountyID []byte) []byte {
	h := sha256.New()
	h.Write(funder)
	h.Write(bountyID)
	return h.Sum(nil)
}

// Condition returns the condition controlling the escrow's holding wallet.
// It is recomputed from the key on demand.
func Condition(key []byte) bsplit.Condition {
	return bsplit.NewCondition("escrow", "bounty", key)
}

// NewBucket returns a bucket for storing escrows, with secondary indexes on
// the funder and the arbiter.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("esc", &Escrow{},
		orm.WithIndex("funder", idxFunder, false),
		orm.WithIndex("arbiter", idxArbiter, false),
	)
}

func asEscrow(obj orm.Object) (*Escrow, error) {
	if obj == nil || obj.Value() == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	esc, ok := obj.Value().(*Escrow)
	if !ok {
		return nil, errors.Wrap(errors.ErrType, "can only take index of escrow")
	}
	return esc, nil
}

func idxFunder(obj orm.Object) ([]byte, error) {
	esc, err := asEscrow(obj)
	if err != nil {
		return nil, err
	}
	return esc.Funder, nil
}

func idxArbiter(obj orm.Object) ([]byte, error) {
	esc, err := asEscrow(obj)
	if err != nil {
		return nil, err
	}
	if esc.Arbiter == nil {
		return nil, nil
	}
	return esc.Arbiter, nil
}
