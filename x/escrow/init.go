package escrow

import (
	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/coin"
	"github.com/splitchain/bsplit/errors"
)

// CoinMinter is the part of the cash controller needed to seed the holding
// wallets of genesis escrows.
type CoinMinter interface {
	CoinMint(bsplit.KVStore, bsplit.Address, coin.Coin) error
}

// Initializer fulfils the bsplit.Initializer interface to load escrows
// declared in the genesis file.
type Initializer struct {
	Minter CoinMinter
}

var _ bsplit.Initializer = (*Initializer)(nil)

// FromGenesis initializes the escrows from the "escrow" application options.
func (i *Initializer) FromGenesis(opts bsplit.Options, db bsplit.KVStore) error {
	var escrows []struct {
		Funder                bsplit.Address   `json:"funder"`
		BountyID              []byte           `json:"bounty_id"`
		Ticker                string           `json:"ticker"`
		Amount                uint64           `json:"amount"`
		Recipients            []bsplit.Address `json:"recipients"`
		Splits                []uint16         `json:"splits"`
		RequiredConfirmations uint8            `json:"required_confirmations"`
		Arbiter               bsplit.Address   `json:"arbiter"`
		CreatedAt             bsplit.UnixTime  `json:"created_at"`
		TimelockExpiry        bsplit.UnixTime  `json:"timelock_expiry"`
	}
	if err := opts.ReadOptions("escrow", &escrows); err != nil {
		return err
	}

	bucket := NewBucket()
	for n, e := range escrows {
		key := NewEscrowKey(e.Funder, e.BountyID)
		status := StatusInitialized
		if e.Amount > 0 {
			status = StatusFunded
		}
		esc := Escrow{
			Funder:                e.Funder,
			BountyID:              e.BountyID,
			Ticker:                e.Ticker,
			Address:               Condition(key).Address(),
			TotalAmount:           e.Amount,
			Recipients:            e.Recipients,
			Splits:                e.Splits,
			RequiredConfirmations: e.RequiredConfirmations,
			Status:                status,
			Arbiter:               e.Arbiter,
			CreatedAt:             e.CreatedAt,
			TimelockExpiry:        e.TimelockExpiry,
		}
		if err := bucket.Put(db, key, &esc); err != nil {
			return errors.Wrapf(err, "escrow #%d", n)
		}
		if e.Amount > 0 {
			if i.Minter == nil {
				return errors.Wrapf(errors.ErrHuman, "escrow #%d is funded but no minter is configured", n)
			}
			mint := coin.NewCoin(e.Amount, esc.EffectiveTicker())
			if err := i.Minter.CoinMint(db, esc.Address, mint); err != nil {
				return errors.Wrapf(err, "escrow #%d holding wallet", n)
			}
		}
	}
	return nil
}
