package bsplit

// KVPair is a key-value tag attached to a delivery result. Tags can be used
// by the hosting environment to index and search the transaction history.
type KVPair struct {
	Key   []byte
	Value []byte
}

// NewTag is a convenience constructor for string valued tags.
func NewTag(key, value string) KVPair {
	return KVPair{Key: []byte(key), Value: []byte(value)}
}

// CheckResult captures any non-error abci result
// to make sure people use error for error cases.
type CheckResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// GasAllocated is the maximum units of work we allow this tx to perform
	GasAllocated int64
	// GasPayment is the total fees for this tx (or other source of payment)
	GasPayment int64
}

// DeliverResult captures any non-error abci result
// to make sure people use error for error cases.
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// Tags, if present, can be used to index and search the transaction
	// history
	Tags []KVPair
	// GasUsed is currently unused field until effects are clear
	GasUsed int64
}
