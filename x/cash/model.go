package cash

import (
	"encoding/json"

	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/coin"
	"github.com/splitchain/bsplit/errors"
	"github.com/splitchain/bsplit/orm"
)

// Set is the model stored per wallet, a set of coins owned by one address.
type Set struct {
	Coins coin.Coins `json:"coins"`
}

var _ orm.CloneableData = (*Set)(nil)

// Marshal implements bsplit.Persistent.
func (s *Set) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal implements bsplit.Persistent.
func (s *Set) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, s)
}

// Validate requires that all coins are in the canonical form.
func (s *Set) Validate() error {
	return s.Coins.Validate()
}

// Copy makes a new set with the same coins.
func (s *Set) Copy() orm.CloneableData {
	return &Set{Coins: s.Coins.Clone()}
}

//--------------------- wallet object wrapper -------------------------

// NewWallet creates an empty wallet with this address.
func NewWallet(key bsplit.Address) orm.Object {
	return orm.NewSimpleObj(key, new(Set))
}

// WalletWith creates a wallet with a set of coins.
func WalletWith(key bsplit.Address, coins ...*coin.Coin) (orm.Object, error) {
	obj := NewWallet(key)
	err := Concat(AsCoinage(obj), coins)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Coinage is anything that has coins that can be modified.
type Coinage interface {
	GetCoins() coin.Coins
	SetCoins(coin.Coins)
}

// GetCoins returns the coins stored in the set.
func (s *Set) GetCoins() coin.Coins {
	return s.Coins
}

// SetCoins overwrites the coins stored in the set.
func (s *Set) SetCoins(coins coin.Coins) {
	s.Coins = coins
}

// AsCoinage safely extracts a Set value from the object.
func AsCoinage(obj orm.Object) Coinage {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Set)
}

// AsCoins extracts the coin set from the object, nil if unset.
func AsCoins(obj orm.Object) coin.Coins {
	c := AsCoinage(obj)
	if c == nil {
		return nil
	}
	return c.GetCoins()
}

// Add modifies the wallet to add the given coin.
func Add(cng Coinage, c coin.Coin) error {
	cs, err := cng.GetCoins().Add(c)
	if err != nil {
		return err
	}
	cng.SetCoins(cs)
	return nil
}

// Subtract modifies the wallet to remove the given coin. Returns an error
// if the wallet does not hold enough.
func Subtract(cng Coinage, c coin.Coin) error {
	cs, err := cng.GetCoins().Subtract(c)
	if err != nil {
		return err
	}
	cng.SetCoins(cs)
	return nil
}

// Concat combines the coins to make sure they are sorted and rounded off,
// with no duplicates or 0 values.
func Concat(cng Coinage, coins coin.Coins) error {
	for _, c := range coins {
		if c == nil {
			return errors.Wrap(errors.ErrEmpty, "nil coin")
		}
		if err := Add(cng, *c); err != nil {
			return err
		}
	}
	return nil
}

//--------------------- bucket -------------------------

// BucketName is the name of the wallet bucket in the store.
const BucketName = "cash"

// Bucket is a type-safe wrapper around orm.Bucket.
type Bucket struct {
	orm.Bucket
}

var _ WalletBucket = Bucket{}

// NewBucket initializes a cash.Bucket with default name.
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName, NewWallet(nil)),
	}
}

// GetOrCreate gets the wallet for the given address, creating an empty one
// if it does not exist.
func (b Bucket) GetOrCreate(db bsplit.KVStore, key bsplit.Address) (orm.Object, error) {
	obj, err := b.Get(db, key)
	if err == nil && obj == nil {
		obj = NewWallet(key)
	}
	return obj, err
}

// WalletBucket is what we expect to be able to do with wallets.
// The object it returns must support AsSet (only checked runtime :()
type WalletBucket interface {
	GetOrCreate(db bsplit.KVStore, key bsplit.Address) (orm.Object, error)
	Get(db bsplit.ReadOnlyKVStore, key []byte) (orm.Object, error)
	Save(db bsplit.KVStore, obj orm.Object) error
}
