package x

import (
	"github.com/splitchain/bsplit"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of handlers,
// so we can plug in another authentication system rather than hardcoding a
// particular implementation.
type Authenticator interface {
	// GetConditions reveals all conditions fulfilled by the transaction,
	// extracted from the context.
	GetConditions(bsplit.Context) []bsplit.Condition

	// HasAddress checks if any condition matches this address
	HasAddress(bsplit.Context, bsplit.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticators
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all conditions from all sub-authenticators
func (m MultiAuth) GetConditions(ctx bsplit.Context) []bsplit.Condition {
	var res []bsplit.Condition
	for _, impl := range m.impls {
		add := impl.GetConditions(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any sub-authenticator approves
func (m MultiAuth) HasAddress(ctx bsplit.Context, addr bsplit.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the conditions into addresses
func GetAddresses(ctx bsplit.Context, auth Authenticator) []bsplit.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]bsplit.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first permission if any, otherwise nil
func MainSigner(ctx bsplit.Context, auth Authenticator) bsplit.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx bsplit.Context, auth Authenticator, required []bsplit.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}
