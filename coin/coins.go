package coin

import (
	"sort"

	"github.com/splitchain/bsplit/errors"
)

// Coins represents a set of coins, with at most one amount per ticker,
// sorted by ticker for deterministic serialization.
type Coins []*Coin

// NewCoins creates a canonical set from the given coins, combining amounts
// of the same ticker.
func NewCoins(cs ...Coin) (Coins, error) {
	var set Coins
	var err error
	for _, c := range cs {
		set, err = set.Add(c)
		if err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Clone performs a deep copy of the set.
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make(Coins, len(cs))
	for i, c := range cs {
		clone := *c
		res[i] = &clone
	}
	return res
}

// Add returns a new set with the coin amount included. The input set is not
// modified.
func (cs Coins) Add(c Coin) (Coins, error) {
	if c.Ticker == "" && c.IsZero() {
		return cs, nil
	}
	res := cs.Clone()
	for i, have := range res {
		if have.SameType(c) {
			sum, err := have.Add(c)
			if err != nil {
				return nil, err
			}
			if sum.IsZero() {
				return append(res[:i], res[i+1:]...), nil
			}
			res[i] = &sum
			return res, nil
		}
	}
	if c.IsZero() {
		return res, nil
	}
	res = append(res, &c)
	sort.Slice(res, func(i, j int) bool {
		return res[i].Ticker < res[j].Ticker
	})
	return res, nil
}

// Subtract returns a new set with the coin amount removed. Fails when the
// set does not hold enough of the given currency.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs, nil
	}
	res := cs.Clone()
	for i, have := range res {
		if have.SameType(c) {
			left, err := have.Subtract(c)
			if err != nil {
				return nil, err
			}
			if left.IsZero() {
				return append(res[:i], res[i+1:]...), nil
			}
			res[i] = &left
			return res, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrInsufficientAmount, "no %s in wallet", c.Ticker)
}

// Contains returns true if the set holds at least the given amount.
func (cs Coins) Contains(c Coin) bool {
	if c.IsZero() {
		return true
	}
	for _, have := range cs {
		if have.SameType(c) {
			return have.Amount >= c.Amount
		}
	}
	return false
}

// AmountOf returns the amount held for the given ticker, zero when absent.
func (cs Coins) AmountOf(ticker string) Coin {
	for _, have := range cs {
		if have.Ticker == ticker {
			return *have
		}
	}
	return Coin{Ticker: ticker}
}

// IsEmpty returns true when the set holds no value at all.
func (cs Coins) IsEmpty() bool {
	for _, c := range cs {
		if !c.IsZero() {
			return false
		}
	}
	return true
}

// Validate ensures all coins are valid, sorted, and without duplicates.
func (cs Coins) Validate() error {
	last := ""
	for _, c := range cs {
		if c == nil {
			return errors.Wrap(errors.ErrEmpty, "nil coin")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if c.IsZero() {
			return errors.Wrapf(errors.ErrAmount, "zero %s entry", c.Ticker)
		}
		if c.Ticker <= last {
			return errors.Wrapf(errors.ErrModel, "coins not sorted: %s", c.Ticker)
		}
		last = c.Ticker
	}
	return nil
}
