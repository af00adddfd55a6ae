/*
Package bsplit defines all common interfaces to weave together the various
subpackages, as well as implementations of some of the simpler components
(when interfaces would be too much overhead).

We pass context through context.Context between the application, middleware,
and handlers. To do so, bsplit defines some common keys to store info, such
as the block time. Each extension may add its own keys to enrich the context
with specific data.

There should exist two functions for every XYZ of type T that we want to
support in Context:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (val T, ok bool)
*/
package bsplit
