package bsplittest

import (
	"sync"

	"github.com/splitchain/bsplit"
)

// Handler is a test implementation of the bsplit.Handler interface. It
// records the number of calls and returns configured results.
type Handler struct {
	mu sync.Mutex

	checkCall   int
	CheckResult bsplit.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult bsplit.DeliverResult
	DeliverErr    error
}

var _ bsplit.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.CheckResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.checkCall++
	res := h.CheckResult
	return &res, h.CheckErr
}

func (h *Handler) Deliver(ctx bsplit.Context, db bsplit.KVStore, tx bsplit.Tx) (*bsplit.DeliverResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.deliverCall++
	res := h.DeliverResult
	return &res, h.DeliverErr
}

// CheckCallCount returns the number of times Check was called.
func (h *Handler) CheckCallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checkCall
}

// DeliverCallCount returns the number of times Deliver was called.
func (h *Handler) DeliverCallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deliverCall
}

// CallCount returns the total number of times Check and Deliver were called.
func (h *Handler) CallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checkCall + h.deliverCall
}
