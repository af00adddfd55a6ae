package store

import (
	"github.com/splitchain/bsplit"
)

// Batch groups writes so they can be applied to a backing store all at once,
// or dropped together.
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	// Write applies all batched operations to the backing store, in the
	// order they were issued, and resets the batch.
	Write()
	// Reset drops all batched operations.
	Reset()
}

// EmptyKVStore never holds any data. It is a valid read-only backing for a
// cache wrap that keeps all data in memory.
type EmptyKVStore struct{}

var _ bsplit.ReadOnlyKVStore = EmptyKVStore{}

func (EmptyKVStore) Get(key []byte) []byte { return nil }

func (EmptyKVStore) Has(key []byte) bool { return false }

func (EmptyKVStore) Iterator(start, end []byte) bsplit.Iterator {
	return &sliceIterator{}
}

func (EmptyKVStore) ReverseIterator(start, end []byte) bsplit.Iterator {
	return &sliceIterator{}
}

// NewBatch returns a batch that drops all writes. There is nothing behind an
// EmptyKVStore to write to.
func (EmptyKVStore) NewBatch() Batch {
	return noopBatch{}
}

type noopBatch struct{}

func (noopBatch) Set(key, value []byte) {}
func (noopBatch) Delete(key []byte)     {}
func (noopBatch) Write()                {}
func (noopBatch) Reset()                {}

type op struct {
	delete bool
	key    []byte
	value  []byte
}

// NewNonAtomicBatch buffers operations and applies them to out on Write.
// There is no atomicity guarantee beyond "all in issue order".
func NewNonAtomicBatch(out bsplit.KVStore) Batch {
	return &nonAtomicBatch{out: out}
}

type nonAtomicBatch struct {
	out bsplit.KVStore
	ops []op
}

func (b *nonAtomicBatch) Set(key, value []byte) {
	b.ops = append(b.ops, op{key: key, value: value})
}

func (b *nonAtomicBatch) Delete(key []byte) {
	b.ops = append(b.ops, op{delete: true, key: key})
}

func (b *nonAtomicBatch) Write() {
	for _, o := range b.ops {
		if o.delete {
			b.out.Delete(o.key)
		} else {
			b.out.Set(o.key, o.value)
		}
	}
	b.ops = nil
}

func (b *nonAtomicBatch) Reset() {
	b.ops = nil
}
