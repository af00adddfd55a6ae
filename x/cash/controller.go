package cash

import (
	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/coin"
	"github.com/splitchain/bsplit/errors"
)

// Controller is the functionality needed by other handlers to move tokens
// between accounts. BaseController is the standard implementation.
type Controller interface {
	MoveCoins(store bsplit.KVStore, src, dest bsplit.Address, amount coin.Coin) error
	CoinMint(store bsplit.KVStore, dest bsplit.Address, amount coin.Coin) error
	Balance(store bsplit.KVStore, src bsplit.Address) (coin.Coins, error)
}

// BaseController implements Controller over a wallet bucket.
type BaseController struct {
	bucket WalletBucket
}

var _ Controller = BaseController{}

// NewController returns a base controller implementation.
func NewController(bucket WalletBucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the amount of funds stored under given account address.
func (c BaseController) Balance(store bsplit.KVStore, src bsplit.Address) (coin.Coins, error) {
	state, err := c.bucket.Get(store, src)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get account state")
	}
	if state == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "no account")
	}
	return AsCoins(state), nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient coins, it fails.
func (c BaseController) MoveCoins(store bsplit.KVStore,
	src, dest bsplit.Address, amount coin.Coin) error {

	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive transfer: %s", amount)
	}

	sender, err := c.bucket.Get(store, src)
	if err != nil {
		return err
	}
	if sender == nil {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	if !AsCoins(sender).Contains(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "funds %s", amount)
	}
	if err := Subtract(AsCoinage(sender), amount); err != nil {
		return err
	}

	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return err
	}
	if err := Add(AsCoinage(recipient), amount); err != nil {
		return err
	}

	if err := c.bucket.Save(store, sender); err != nil {
		return err
	}
	return c.bucket.Save(store, recipient)
}

// CoinMint attempts to add the given amount of coins to
// the destination address. Used in genesis and tests.
func (c BaseController) CoinMint(store bsplit.KVStore,
	dest bsplit.Address, amount coin.Coin) error {

	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return err
	}
	if err := Add(AsCoinage(recipient), amount); err != nil {
		return err
	}
	return c.bucket.Save(store, recipient)
}
