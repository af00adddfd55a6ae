package bsplittest

import (
	"context"
	"crypto/rand"

	"github.com/splitchain/bsplit"
)

// Auth is a test implementation of the x.Authenticator interface. It
// authenticates any of the configured conditions regardless of the context.
type Auth struct {
	// Signer is a single condition. Use this for the single signer case.
	Signer bsplit.Condition

	// Signers are additional conditions. Use this when representing more
	// than one signer.
	Signers []bsplit.Condition
}

func (a *Auth) GetConditions(bsplit.Context) []bsplit.Condition {
	conds := a.Signers
	if a.Signer != nil {
		conds = append(conds, a.Signer)
	}
	return conds
}

func (a *Auth) HasAddress(ctx bsplit.Context, addr bsplit.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// CtxAuth is a test implementation of the x.Authenticator interface that
// reads conditions from the context, stored under a given key.
type CtxAuth struct {
	Key string
}

type ctxAuthKey string

func (a *CtxAuth) SetConditions(ctx bsplit.Context, conds ...bsplit.Condition) bsplit.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), conds)
}

func (a *CtxAuth) GetConditions(ctx bsplit.Context) []bsplit.Condition {
	conds, ok := ctx.Value(ctxAuthKey(a.Key)).([]bsplit.Condition)
	if !ok {
		return nil
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx bsplit.Context, addr bsplit.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// NewCondition returns a newly generated unique condition.
func NewCondition() bsplit.Condition {
	return bsplit.NewCondition("test", "rnd", NewKey())
}

// NewKey returns a random 8 byte key.
func NewKey() []byte {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
