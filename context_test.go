package bsplit

import (
	"context"
	"testing"
	"time"

	"github.com/splitchain/bsplit/bsplittest/assert"
)

func TestContextHeight(t *testing.T) {
	bg := context.Background()
	if _, ok := GetHeight(bg); ok {
		t.Fatal("height must not be set on a fresh context")
	}

	ctx := WithHeight(bg, 123)
	height, ok := GetHeight(ctx)
	assert.Equal(t, true, ok)
	assert.Equal(t, int64(123), height)

	assert.Panics(t, func() {
		WithHeight(ctx, 456)
	})
}

func TestContextChainID(t *testing.T) {
	bg := context.Background()
	assert.Panics(t, func() {
		GetChainID(bg)
	})

	ctx := WithChainID(bg, "bsplit-test-1")
	assert.Equal(t, "bsplit-test-1", GetChainID(ctx))

	assert.Panics(t, func() {
		WithChainID(ctx, "another-chain")
	})
}

func TestInTheFuture(t *testing.T) {
	now := time.Unix(1700000000, 0)
	ctx := WithBlockTime(context.Background(), now)

	if !InTheFuture(ctx, now.Add(time.Second)) {
		t.Fatal("a later time must be in the future")
	}
	// not inclusive of the current block time
	if InTheFuture(ctx, now) {
		t.Fatal("the current block time is not in the future")
	}
	if InTheFuture(ctx, now.Add(-time.Second)) {
		t.Fatal("a past time is not in the future")
	}

	assert.Panics(t, func() {
		InTheFuture(context.Background(), now)
	})
}
