package cash

import (
	"testing"

	"github.com/splitchain/bsplit/bsplittest"
	"github.com/splitchain/bsplit/bsplittest/assert"
	"github.com/splitchain/bsplit/coin"
	"github.com/splitchain/bsplit/errors"
	"github.com/splitchain/bsplit/store"
)

func TestMoveCoins(t *testing.T) {
	alice := bsplittest.NewCondition().Address()
	bob := bsplittest.NewCondition().Address()
	charlie := bsplittest.NewCondition().Address()

	db := store.MemStore()
	ctrl := NewController(NewBucket())

	assert.Nil(t, ctrl.CoinMint(db, alice, coin.NewCoin(100, "BNTY")))

	// cannot move from an empty account
	err := ctrl.MoveCoins(db, bob, charlie, coin.NewCoin(5, "BNTY"))
	if !errors.ErrEmpty.Is(err) {
		t.Fatalf("expected empty account error, got %+v", err)
	}

	// cannot move more than the balance
	err = ctrl.MoveCoins(db, alice, bob, coin.NewCoin(101, "BNTY"))
	if !errors.ErrInsufficientAmount.Is(err) {
		t.Fatalf("expected insufficient amount, got %+v", err)
	}

	// a proper move, then check both balances
	assert.Nil(t, ctrl.MoveCoins(db, alice, bob, coin.NewCoin(40, "BNTY")))

	aw, err := ctrl.Balance(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(60, "BNTY"), aw.AmountOf("BNTY"))

	bw, err := ctrl.Balance(db, bob)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(40, "BNTY"), bw.AmountOf("BNTY"))

	// zero transfers are rejected
	err = ctrl.MoveCoins(db, alice, bob, coin.NewCoin(0, "BNTY"))
	if !errors.ErrAmount.Is(err) {
		t.Fatalf("expected amount error, got %+v", err)
	}
}

func TestBalanceMissingAccount(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController(NewBucket())

	nobody := bsplittest.NewCondition().Address()
	if _, err := ctrl.Balance(db, nobody); !errors.ErrNotFound.Is(err) {
		t.Fatalf("expected not found, got %+v", err)
	}
}

func TestWalletWith(t *testing.T) {
	addr := bsplittest.NewCondition().Address()
	obj, err := WalletWith(addr, coin.NewCoinp(7, "IOV"), coin.NewCoinp(3, "IOV"))
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(10, "IOV"), AsCoins(obj).AmountOf("IOV"))
	assert.Nil(t, obj.Validate())
}
