package escrow

import (
	"math/bits"

	"github.com/splitchain/bsplit/errors"
)

// Distributions converts a total amount and a table of basis point splits
// into per recipient amounts. Each share is floor(total * split / 10000),
// computed with a 128 bit intermediate so a 64 bit total cannot overflow.
//
// The function is pure and deterministic. It is called from both the push
// distribution and the pull claim path and the results must agree.
//
// The leftover total - sum(shares) is never negative and always smaller
// than the number of recipients. The accumulated sum is still checked
// against the total, guarding against a broken split table.
func Distributions(total uint64, splits []uint16) ([]uint64, error) {
	if len(splits) < 1 || len(splits) > maxRecipients {
		return nil, errors.Wrapf(ErrInvalidRecipientCount, "%d splits", len(splits))
	}

	amounts := make([]uint64, len(splits))
	var distributed uint64
	for i, split := range splits {
		if split > totalBasisPoints {
			return nil, errors.Wrapf(ErrInvalidSplits, "split %d exceeds %d basis points", split, totalBasisPoints)
		}
		hi, lo := bits.Mul64(total, uint64(split))
		// hi < 10000 because split <= 10000, so Div64 cannot panic.
		share, _ := bits.Div64(hi, lo, totalBasisPoints)
		amounts[i] = share

		sum, carry := bits.Add64(distributed, share, 0)
		if carry != 0 {
			return nil, errors.Wrap(errors.ErrOverflow, "distributed total")
		}
		distributed = sum
	}

	if distributed > total {
		return nil, errors.Wrapf(errors.ErrOverflow,
			"distributed %d exceeds total %d", distributed, total)
	}
	return amounts, nil
}
