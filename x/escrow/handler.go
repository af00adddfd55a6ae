package escrow

import (
	"encoding/hex"
	"fmt"
	"math/bits"

	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/coin"
	"github.com/splitchain/bsplit/errors"
	"github.com/splitchain/bsplit/orm"
	"github.com/splitchain/bsplit/x"
	"github.com/splitchain/bsplit/x/cash"
)

const (
	// pay escrow cost up-front
	createCost     int64 = 300
	fundCost       int64 = 150
	transitionCost int64 = 50
	payoutCost     int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r bsplit.Registry, auth x.Authenticator, ctrl cash.Controller) {
	bucket := NewBucket()
	r.Handle(&CreateMsg{}, createHandler{auth: auth, bucket: bucket})
	r.Handle(&FundMsg{}, fundHandler{auth: auth, bucket: bucket, ctrl: ctrl})
	r.Handle(&ProposeReleaseMsg{}, proposeReleaseHandler{auth: auth, bucket: bucket})
	r.Handle(&ConfirmReleaseMsg{}, confirmReleaseHandler{auth: auth, bucket: bucket})
	r.Handle(&ReleaseMsg{}, releaseHandler{auth: auth, bucket: bucket})
	r.Handle(&RaiseDisputeMsg{}, raiseDisputeHandler{auth: auth, bucket: bucket})
	r.Handle(&ResolveDisputeMsg{}, resolveDisputeHandler{auth: auth, bucket: bucket})
	r.Handle(&DistributeMsg{}, distributeHandler{auth: auth, bucket: bucket, ctrl: ctrl})
	r.Handle(&ClaimMsg{}, claimHandler{auth: auth, bucket: bucket, ctrl: ctrl})
	r.Handle(&ReturnMsg{}, returnHandler{auth: auth, bucket: bucket, ctrl: ctrl})
}

func loadEscrow(bucket orm.ModelBucket, db bsplit.ReadOnlyKVStore, id []byte) (*Escrow, error) {
	var esc Escrow
	if err := bucket.One(db, id, &esc); err != nil {
		return nil, errors.Wrapf(err, "escrow %X", id)
	}
	return &esc, nil
}

func moveEscrow(e *Escrow, next Status) error {
	if !e.Status.CanTransitionTo(next) {
		return errors.Wrapf(ErrInvalidStatus, "cannot move from %s to %s", e.Status, next)
	}
	e.Status = next
	return nil
}

func eventTags(action string, id []byte) []bsplit.KVPair {
	return []bsplit.KVPair{
		bsplit.NewTag("action", action),
		bsplit.NewTag("escrow-id", fmt.Sprintf("%X", id)),
	}
}

//--------------------- create -------------------------

type createHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ bsplit.Handler = createHandler{}

func (h createHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: createCost}, nil
}

func (h createHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, funder, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	key := NewEscrowKey(funder, msg.BountyID)

	now, err := bsplit.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}

	esc := &Escrow{
		Funder:                funder,
		BountyID:              msg.BountyID,
		Ticker:                msg.Ticker,
		Address:               Condition(key).Address(),
		Recipients:            msg.Recipients,
		Splits:                msg.Splits,
		RequiredConfirmations: msg.RequiredConfirmations,
		Status:                StatusInitialized,
		Arbiter:               msg.Arbiter,
		CreatedAt:             bsplit.AsUnixTime(now),
		TimelockExpiry:        msg.TimelockExpiry,
	}
	if err := h.bucket.Put(db, key, esc); err != nil {
		return nil, err
	}

	return &bsplit.DeliverResult{
		Data: key,
		Log:  fmt.Sprintf("escrow %X created by %s", key, funder),
		Tags: append(eventTags("escrow-created", key),
			bsplit.NewTag("funder", funder.String()),
			bsplit.NewTag("bounty-id", hex.EncodeToString(msg.BountyID)),
		),
	}, nil
}

// validate performs the context dependent checks that the stateless message
// validation cannot.
func (h createHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*CreateMsg, bsplit.Address, error) {
	var msg CreateMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}

	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	funder := signer.Address()

	if msg.TimelockExpiry != 0 && bsplit.IsExpired(ctx, msg.TimelockExpiry) {
		return nil, nil, errors.Wrap(ErrInvalidTimelock, "expiry not in the future")
	}
	if msg.Arbiter != nil && msg.Arbiter.Equals(funder) {
		return nil, nil, errors.Wrap(ErrInvalidArbiter, "arbiter is the funder")
	}

	key := NewEscrowKey(funder, msg.BountyID)
	if err := h.bucket.Has(db, key); err == nil {
		return nil, nil, errors.Wrapf(errors.ErrDuplicate, "escrow %X", key)
	} else if !errors.ErrNotFound.Is(err) {
		return nil, nil, err
	}
	return &msg, funder, nil
}

//--------------------- fund -------------------------

type fundHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ bsplit.Handler = fundHandler{}

func (h fundHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: fundCost}, nil
}

func (h fundHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, esc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if err := h.ctrl.MoveCoins(db, esc.Funder, esc.Address, msg.Amount); err != nil {
		return nil, errors.Wrap(err, "cannot fund escrow")
	}

	total, carry := bits.Add64(esc.TotalAmount, msg.Amount.Amount, 0)
	if carry != 0 {
		return nil, errors.Wrap(errors.ErrOverflow, "total amount")
	}
	esc.TotalAmount = total
	if esc.Status == StatusInitialized {
		if err := moveEscrow(esc, StatusFunded); err != nil {
			return nil, err
		}
	}
	if err := h.bucket.Put(db, msg.EscrowID, esc); err != nil {
		return nil, err
	}

	return &bsplit.DeliverResult{
		Log: fmt.Sprintf("escrow %X funded with %s", msg.EscrowID, msg.Amount),
		Tags: append(eventTags("escrow-funded", msg.EscrowID),
			bsplit.NewTag("amount", msg.Amount.String()),
		),
	}, nil
}

func (h fundHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*FundMsg, *Escrow, error) {
	var msg FundMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	esc, err := loadEscrow(h.bucket, db, msg.EscrowID)
	if err != nil {
		return nil, nil, err
	}
	if esc.Status.IsTerminal() {
		return nil, nil, errors.Wrapf(ErrAlreadyFinalized, "escrow is %s", esc.Status)
	}
	if !h.auth.HasAddress(ctx, esc.Funder) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the funder can fund")
	}
	if msg.Amount.Ticker != esc.EffectiveTicker() {
		return nil, nil, errors.Wrapf(ErrInvalidVault, "escrow holds %s, not %s",
			esc.EffectiveTicker(), msg.Amount.Ticker)
	}
	return &msg, esc, nil
}

//--------------------- propose release -------------------------

type proposeReleaseHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ bsplit.Handler = proposeReleaseHandler{}

func (h proposeReleaseHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: transitionCost}, nil
}

func (h proposeReleaseHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, esc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := moveEscrow(esc, StatusPendingRelease); err != nil {
		return nil, err
	}
	if err := h.bucket.Put(db, msg.EscrowID, esc); err != nil {
		return nil, err
	}
	return &bsplit.DeliverResult{
		Log:  fmt.Sprintf("release of escrow %X proposed", msg.EscrowID),
		Tags: eventTags("release-proposed", msg.EscrowID),
	}, nil
}

func (h proposeReleaseHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*ProposeReleaseMsg, *Escrow, error) {
	var msg ProposeReleaseMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	esc, err := loadEscrow(h.bucket, db, msg.EscrowID)
	if err != nil {
		return nil, nil, err
	}
	if esc.Status != StatusFunded {
		return nil, nil, errors.Wrapf(ErrInvalidStatus, "escrow is %s", esc.Status)
	}
	if err := h.authParty(ctx, esc); err != nil {
		return nil, nil, err
	}
	return &msg, esc, nil
}

func (h proposeReleaseHandler) authParty(ctx bsplit.Context, esc *Escrow) error {
	if h.auth.HasAddress(ctx, esc.Funder) {
		return nil
	}
	for _, r := range esc.Recipients {
		if h.auth.HasAddress(ctx, r) {
			return nil
		}
	}
	return errors.Wrap(errors.ErrUnauthorized, "neither funder nor recipient")
}

//--------------------- confirm release -------------------------

type confirmReleaseHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ bsplit.Handler = confirmReleaseHandler{}

func (h confirmReleaseHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: transitionCost}, nil
}

func (h confirmReleaseHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, esc, idx, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	esc.SetConfirmed(idx)
	count := esc.ConfirmationCount()
	released := count >= int(esc.RequiredConfirmations)
	if released {
		if err := moveEscrow(esc, StatusReleased); err != nil {
			return nil, err
		}
	}
	if err := h.bucket.Put(db, msg.EscrowID, esc); err != nil {
		return nil, err
	}

	tags := append(eventTags("release-confirmed", msg.EscrowID),
		bsplit.NewTag("confirmations", fmt.Sprint(count)),
	)
	if released {
		tags = append(tags, bsplit.NewTag("released", "true"))
	}
	return &bsplit.DeliverResult{
		Log:  fmt.Sprintf("escrow %X confirmed %d of %d", msg.EscrowID, count, esc.RequiredConfirmations),
		Tags: tags,
	}, nil
}

func (h confirmReleaseHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*ConfirmReleaseMsg, *Escrow, int, error) {
	var msg ConfirmReleaseMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, 0, err
	}
	esc, err := loadEscrow(h.bucket, db, msg.EscrowID)
	if err != nil {
		return nil, nil, 0, err
	}
	if esc.Status != StatusPendingRelease {
		return nil, nil, 0, errors.Wrapf(ErrInvalidStatus, "escrow is %s", esc.Status)
	}

	idx := -1
	for i, r := range esc.Recipients {
		if h.auth.HasAddress(ctx, r) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil, 0, errors.Wrap(ErrRecipientNotFound, "caller is not a recipient")
	}
	if esc.HasConfirmed(idx) {
		return nil, nil, 0, errors.Wrapf(ErrAlreadyConfirmed, "recipient %d", idx)
	}
	return &msg, esc, idx, nil
}

//--------------------- release (funder override) -------------------------

type releaseHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ bsplit.Handler = releaseHandler{}

func (h releaseHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: transitionCost}, nil
}

func (h releaseHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, esc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := moveEscrow(esc, StatusReleased); err != nil {
		return nil, err
	}
	if err := h.bucket.Put(db, msg.EscrowID, esc); err != nil {
		return nil, err
	}
	return &bsplit.DeliverResult{
		Log:  fmt.Sprintf("escrow %X released by funder", msg.EscrowID),
		Tags: eventTags("escrow-released", msg.EscrowID),
	}, nil
}

func (h releaseHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*ReleaseMsg, *Escrow, error) {
	var msg ReleaseMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	esc, err := loadEscrow(h.bucket, db, msg.EscrowID)
	if err != nil {
		return nil, nil, err
	}
	if esc.Status != StatusFunded && esc.Status != StatusPendingRelease {
		return nil, nil, errors.Wrapf(ErrInvalidStatus, "escrow is %s", esc.Status)
	}
	if !h.auth.HasAddress(ctx, esc.Funder) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the funder can release directly")
	}
	return &msg, esc, nil
}

//--------------------- raise dispute -------------------------

type raiseDisputeHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ bsplit.Handler = raiseDisputeHandler{}

func (h raiseDisputeHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: transitionCost}, nil
}

func (h raiseDisputeHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, esc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := moveEscrow(esc, StatusDisputed); err != nil {
		return nil, err
	}
	if err := h.bucket.Put(db, msg.EscrowID, esc); err != nil {
		return nil, err
	}
	tags := eventTags("dispute-raised", msg.EscrowID)
	tags = append(tags, bsplit.NewTag("reason", hex.EncodeToString(msg.ReasonHash)))
	return &bsplit.DeliverResult{
		Log:  fmt.Sprintf("dispute raised on escrow %X", msg.EscrowID),
		Tags: tags,
	}, nil
}

func (h raiseDisputeHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*RaiseDisputeMsg, *Escrow, error) {
	var msg RaiseDisputeMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	esc, err := loadEscrow(h.bucket, db, msg.EscrowID)
	if err != nil {
		return nil, nil, err
	}
	if esc.Status.IsTerminal() {
		return nil, nil, errors.Wrapf(ErrAlreadyFinalized, "escrow is %s", esc.Status)
	}
	if !h.auth.HasAddress(ctx, esc.Funder) && !h.anyRecipient(ctx, esc) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "neither funder nor recipient")
	}
	return &msg, esc, nil
}

func (h raiseDisputeHandler) anyRecipient(ctx bsplit.Context, esc *Escrow) bool {
	for _, r := range esc.Recipients {
		if h.auth.HasAddress(ctx, r) {
			return true
		}
	}
	return false
}

//--------------------- resolve dispute -------------------------

type resolveDisputeHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ bsplit.Handler = resolveDisputeHandler{}

func (h resolveDisputeHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: transitionCost}, nil
}

func (h resolveDisputeHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, esc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := moveEscrow(esc, StatusReleased); err != nil {
		return nil, err
	}
	if err := h.bucket.Put(db, msg.EscrowID, esc); err != nil {
		return nil, err
	}
	return &bsplit.DeliverResult{
		Log:  fmt.Sprintf("dispute on escrow %X resolved, released", msg.EscrowID),
		Tags: eventTags("escrow-released", msg.EscrowID),
	}, nil
}

func (h resolveDisputeHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*ResolveDisputeMsg, *Escrow, error) {
	var msg ResolveDisputeMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	esc, err := loadEscrow(h.bucket, db, msg.EscrowID)
	if err != nil {
		return nil, nil, err
	}
	if esc.Status != StatusDisputed {
		return nil, nil, errors.Wrapf(ErrInvalidStatus, "escrow is %s", esc.Status)
	}
	// A nil arbiter never matches any caller.
	if esc.Arbiter == nil || !h.auth.HasAddress(ctx, esc.Arbiter) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the arbiter can resolve")
	}
	return &msg, esc, nil
}

//--------------------- distribute (push path) -------------------------

type distributeHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ bsplit.Handler = distributeHandler{}

func (h distributeHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: payoutCost}, nil
}

func (h distributeHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, esc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	ticker := esc.EffectiveTicker()
	total := esc.TotalAmount

	// The holding wallet must cover the full balance in the configured
	// asset before any payout starts.
	held, err := h.ctrl.Balance(db, esc.Address)
	if err != nil {
		return nil, errors.Wrap(err, "holding wallet")
	}
	if !held.Contains(coin.NewCoin(total, ticker)) {
		return nil, errors.Wrapf(ErrInvalidVault, "holding wallet does not cover %d %s", total, ticker)
	}

	amounts, err := Distributions(total, esc.Splits)
	if err != nil {
		return nil, err
	}

	var distributed uint64
	for i, amount := range amounts {
		if amount == 0 {
			continue
		}
		dest := msg.Destinations[i]
		if !dest.Equals(esc.Recipients[i]) {
			return nil, errors.Wrapf(ErrRecipientNotFound, "destination %d is not recipient %s", i, esc.Recipients[i])
		}
		if err := h.ctrl.MoveCoins(db, esc.Address, dest, coin.NewCoin(amount, ticker)); err != nil {
			return nil, errors.Wrapf(err, "payout to recipient %d", i)
		}
		sum, carry := bits.Add64(distributed, amount, 0)
		if carry != 0 {
			return nil, errors.Wrap(errors.ErrOverflow, "distributed total")
		}
		distributed = sum
	}

	leftover := total - distributed
	if leftover > 0 {
		funderDest := msg.Destinations[len(msg.Destinations)-1]
		if !funderDest.Equals(esc.Funder) {
			return nil, errors.Wrap(ErrInvalidVault, "leftover destination is not the funder")
		}
		if err := h.ctrl.MoveCoins(db, esc.Address, funderDest, coin.NewCoin(leftover, ticker)); err != nil {
			return nil, errors.Wrap(err, "leftover return")
		}
	}

	esc.TotalAmount = 0
	if err := h.bucket.Put(db, msg.EscrowID, esc); err != nil {
		return nil, err
	}

	return &bsplit.DeliverResult{
		Log: fmt.Sprintf("escrow %X distributed %d, leftover %d", msg.EscrowID, distributed, leftover),
		Tags: append(eventTags("escrow-distributed", msg.EscrowID),
			bsplit.NewTag("distributed", fmt.Sprint(distributed)),
			bsplit.NewTag("leftover", fmt.Sprint(leftover)),
		),
	}, nil
}

func (h distributeHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*DistributeMsg, *Escrow, error) {
	var msg DistributeMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	esc, err := loadEscrow(h.bucket, db, msg.EscrowID)
	if err != nil {
		return nil, nil, err
	}
	if esc.Status != StatusReleased {
		return nil, nil, errors.Wrapf(ErrInvalidStatus, "escrow is %s", esc.Status)
	}
	if esc.TotalAmount == 0 {
		return nil, nil, errors.Wrap(errors.ErrInsufficientAmount, "nothing to distribute")
	}
	if len(msg.Destinations) != len(esc.Recipients)+1 {
		return nil, nil, errors.Wrapf(errors.ErrInput, "want %d destinations, got %d",
			len(esc.Recipients)+1, len(msg.Destinations))
	}
	return &msg, esc, nil
}

//--------------------- claim (pull path) -------------------------

type claimHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ bsplit.Handler = claimHandler{}

func (h claimHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: payoutCost}, nil
}

func (h claimHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, esc, idx, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// Shares are computed over the original balance and split table. The
	// balance is not decremented per claim, only zeroed when everyone has
	// withdrawn, so every recipient gets their exact entitlement.
	amounts, err := Distributions(esc.TotalAmount, esc.Splits)
	if err != nil {
		return nil, err
	}
	amount := amounts[idx]
	if amount == 0 {
		return nil, errors.Wrapf(ErrInvalidSplits, "recipient %d share is zero", idx)
	}

	esc.SetClaimed(idx)
	if err := h.ctrl.MoveCoins(db, esc.Address, esc.Recipients[idx],
		coin.NewCoin(amount, esc.EffectiveTicker())); err != nil {
		return nil, errors.Wrap(err, "claim payout")
	}
	if esc.AllClaimed() {
		esc.TotalAmount = 0
	}
	if err := h.bucket.Put(db, msg.EscrowID, esc); err != nil {
		return nil, err
	}

	return &bsplit.DeliverResult{
		Log: fmt.Sprintf("recipient %d claimed %d from escrow %X", idx, amount, msg.EscrowID),
		Tags: append(eventTags("escrow-claimed", msg.EscrowID),
			bsplit.NewTag("amount", fmt.Sprint(amount)),
		),
	}, nil
}

func (h claimHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*ClaimMsg, *Escrow, int, error) {
	var msg ClaimMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, 0, err
	}
	esc, err := loadEscrow(h.bucket, db, msg.EscrowID)
	if err != nil {
		return nil, nil, 0, err
	}
	if esc.Status != StatusReleased {
		return nil, nil, 0, errors.Wrapf(ErrInvalidStatus, "escrow is %s", esc.Status)
	}
	// Guards the pull path against a balance already drained by the push
	// distribution.
	if esc.TotalAmount == 0 {
		return nil, nil, 0, errors.Wrap(errors.ErrInsufficientAmount, "escrow already distributed")
	}

	idx := -1
	for i, r := range esc.Recipients {
		if h.auth.HasAddress(ctx, r) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil, 0, errors.Wrap(ErrRecipientNotFound, "caller is not a recipient")
	}
	if esc.HasClaimed(idx) {
		return nil, nil, 0, errors.Wrapf(ErrAlreadyClaimed, "recipient %d", idx)
	}
	return &msg, esc, idx, nil
}

//--------------------- return (refund) -------------------------

type returnHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ bsplit.Handler = returnHandler{}

func (h returnHandler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bsplit.CheckResult{GasAllocated: payoutCost}, nil
}

func (h returnHandler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, esc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	amount := coin.NewCoin(esc.TotalAmount, esc.EffectiveTicker())
	if err := h.ctrl.MoveCoins(db, esc.Address, esc.Funder, amount); err != nil {
		return nil, errors.Wrap(err, "refund")
	}
	esc.TotalAmount = 0
	if err := moveEscrow(esc, StatusRefunded); err != nil {
		return nil, err
	}
	if err := h.bucket.Put(db, msg.EscrowID, esc); err != nil {
		return nil, err
	}

	return &bsplit.DeliverResult{
		Log: fmt.Sprintf("escrow %X refunded %s to funder", msg.EscrowID, amount),
		Tags: append(eventTags("escrow-refunded", msg.EscrowID),
			bsplit.NewTag("amount", amount.String()),
		),
	}, nil
}

func (h returnHandler) validate(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*ReturnMsg, *Escrow, error) {
	var msg ReturnMsg
	if err := bsplit.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	esc, err := loadEscrow(h.bucket, db, msg.EscrowID)
	if err != nil {
		return nil, nil, err
	}
	if esc.Status.IsTerminal() {
		return nil, nil, errors.Wrapf(ErrAlreadyFinalized, "escrow is %s", esc.Status)
	}
	if !h.auth.HasAddress(ctx, esc.Funder) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the funder can reclaim")
	}
	if esc.TimelockExpiry != 0 && !bsplit.IsExpired(ctx, esc.TimelockExpiry) {
		return nil, nil, errors.Wrapf(ErrTimelockActive, "until %s", esc.TimelockExpiry)
	}
	if esc.TotalAmount == 0 {
		return nil, nil, errors.Wrap(errors.ErrInsufficientAmount, "nothing to refund")
	}
	return &msg, esc, nil
}
