package app

import (
	"fmt"
	"regexp"

	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/errors"
)

// isPath ensures we only register valid paths
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/\-]+$`).MatchString

// Router allows us to register many handlers with different paths and then
// direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]bsplit.Handler
}

var _ bsplit.Registry = (*Router)(nil)
var _ bsplit.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]bsplit.Handler),
	}
}

// Handle implements bsplit.Registry interface. All messages of a given type
// are handled by the provided handler. Registering a handler for a message
// type more than once, or for an invalid path, panics.
func (r *Router) Handle(m bsplit.Msg, h bsplit.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("path already registered: %q", path))
	}
	r.routes[path] = h
}

// handler returns the registered Handler for this message path, or a
// notFoundHandler if no route exists.
func (r *Router) handler(m bsplit.Msg) bsplit.Handler {
	if h, ok := r.routes[m.Path()]; ok {
		return h
	}
	return notFoundHandler(m.Path())
}

// Check dispatches to the proper handler based on the message path.
func (r *Router) Check(ctx bsplit.Context, store bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on the message path.
func (r *Router) Deliver(ctx bsplit.Context, store bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg).Deliver(ctx, store, tx)
}

// notFoundHandler always returns ErrNotFound, encoding the offending path.
type notFoundHandler string

func (h notFoundHandler) Check(ctx bsplit.Context, store bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(h))
}

func (h notFoundHandler) Deliver(ctx bsplit.Context, store bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(h))
}
