/*
Package errors implements custom error interfaces for bsplit.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. Every custom error should be
registered with a unique code so that it can be safely reported over an RPC
boundary without leaking internals.

Use Wrap and Wrapf to add context to an error while preserving the original
root cause. Use the Is method of a registered error to test for a kind:

	if errors.ErrNotFound.Is(err) { ... }
*/
package errors
