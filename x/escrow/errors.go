package escrow

import (
	"github.com/splitchain/bsplit/errors"
)

var (
	// ErrInvalidRecipientCount is returned when the number of recipients is
	// outside of the [1, 8] range or does not match the splits table.
	ErrInvalidRecipientCount = errors.Register(1200, "invalid recipient count")

	// ErrInvalidSplits is returned when the split table does not sum to
	// 10000 basis points, or when a computed share is unusable.
	ErrInvalidSplits = errors.Register(1201, "invalid splits")

	// ErrZeroSplit is returned when any single split weight is zero.
	ErrZeroSplit = errors.Register(1202, "zero split")

	// ErrDuplicateRecipient is returned when the same address appears twice
	// in the recipient list.
	ErrDuplicateRecipient = errors.Register(1203, "duplicate recipient")

	// ErrInvalidTimelock is returned when a timelock expiry is configured
	// but not in the future.
	ErrInvalidTimelock = errors.Register(1204, "invalid timelock")

	// ErrInvalidArbiter is returned when the arbiter is the funder.
	ErrInvalidArbiter = errors.Register(1205, "invalid arbiter")

	// ErrInvalidStatus is returned when an operation is not legal from the
	// escrow's current status.
	ErrInvalidStatus = errors.Register(1206, "invalid status")

	// ErrTimelockActive is returned on a refund attempt before the
	// configured timelock expired.
	ErrTimelockActive = errors.Register(1207, "timelock active")

	// ErrAlreadyFinalized is returned for any operation on an escrow in a
	// terminal status (released or refunded).
	ErrAlreadyFinalized = errors.Register(1208, "already finalized")

	// ErrRecipientNotFound is returned when the caller or a distribution
	// target is not in the recipient set.
	ErrRecipientNotFound = errors.Register(1209, "recipient not found")

	// ErrAlreadyConfirmed is returned when a recipient confirms a release
	// for the second time.
	ErrAlreadyConfirmed = errors.Register(1210, "already confirmed")

	// ErrAlreadyClaimed is returned when a recipient claims their share for
	// the second time.
	ErrAlreadyClaimed = errors.Register(1211, "already claimed")

	// ErrInvalidVault is returned when the holding wallet or a payout
	// destination does not match the configured asset or owner.
	ErrInvalidVault = errors.Register(1212, "invalid vault")
)
