// Package store provides in-memory implementations of the bsplit store
// interfaces, built around a btree cache layer. The MemStore is the standard
// backend for tests.
package store

import (
	"bytes"

	"github.com/google/btree"

	"github.com/splitchain/bsplit"
)

// backer is the minimal interface a cache wrap needs from the layer below:
// reads, plus a batch to flush writes into.
type backer interface {
	bsplit.ReadOnlyKVStore
	NewBatch() Batch
}

// MemStore returns a simple implementation useful for tests.
// There is no persistence here....
func MemStore() bsplit.CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e.NewBatch())
}

// BTreeCacheWrap places a btree cache over a read-only store. All writes are
// kept in the btree (and the batch) until Write or Discard is called.
type BTreeCacheWrap struct {
	bt    *btree.BTreeG[treeItem]
	back  backer
	batch Batch
}

var _ bsplit.KVCacheWrap = (*BTreeCacheWrap)(nil)

// NewBTreeCacheWrap initializes a btree to cache around this kvstore. The
// backing store is used read-only; all writes must go through the batch.
func NewBTreeCacheWrap(back backer, batch Batch) *BTreeCacheWrap {
	return &BTreeCacheWrap{
		bt:    btree.NewG(2, lessItem),
		back:  back,
		batch: batch,
	}
}

// CacheWrap layers another btree cache on top of this one.
func (b *BTreeCacheWrap) CacheWrap() bsplit.KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch())
}

// NewBatch returns a batch that writes into this cache layer.
func (b *BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write syncs the cached writes with the underlying store.
func (b *BTreeCacheWrap) Write() {
	b.batch.Write()
	b.bt.Clear(false)
}

// Discard invalidates this CacheWrap and releases all cached data.
func (b *BTreeCacheWrap) Discard() {
	b.batch.Reset()
	b.bt.Clear(false)
}

// Set writes a key in the cache layer.
func (b *BTreeCacheWrap) Set(key, value []byte) {
	assertValidKey(key)
	b.bt.ReplaceOrInsert(setItem(key, value))
	b.batch.Set(key, value)
}

// Delete marks a key as removed in the cache layer.
func (b *BTreeCacheWrap) Delete(key []byte) {
	assertValidKey(key)
	b.bt.ReplaceOrInsert(deleteItem(key))
	b.batch.Delete(key)
}

// Get reads from the cache layer first and falls back to the backing store.
func (b *BTreeCacheWrap) Get(key []byte) []byte {
	assertValidKey(key)
	if item, ok := b.bt.Get(treeItem{key: key}); ok {
		if item.deleted {
			return nil
		}
		return item.value
	}
	return b.back.Get(key)
}

// Has checks existence in the cache layer first, then the backing store.
func (b *BTreeCacheWrap) Has(key []byte) bool {
	assertValidKey(key)
	if item, ok := b.bt.Get(treeItem{key: key}); ok {
		return !item.deleted
	}
	return b.back.Has(key)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (b *BTreeCacheWrap) Iterator(start, end []byte) bsplit.Iterator {
	return newSliceIterator(b.merged(start, end), false)
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (b *BTreeCacheWrap) ReverseIterator(start, end []byte) bsplit.Iterator {
	return newSliceIterator(b.merged(start, end), true)
}

// merged combines the backing store content with this layer's writes for the
// given key range. Deleted keys are dropped and overwrites shadow the backing
// values.
func (b *BTreeCacheWrap) merged(start, end []byte) []keyValue {
	res := make(map[string][]byte)

	it := b.back.Iterator(start, end)
	for ; it.Valid(); it.Next() {
		res[string(it.Key())] = append([]byte(nil), it.Value()...)
	}
	it.Close()

	visit := func(item treeItem) bool {
		if item.deleted {
			delete(res, string(item.key))
		} else {
			res[string(item.key)] = item.value
		}
		return true
	}
	switch {
	case start == nil && end == nil:
		b.bt.Ascend(visit)
	case start == nil:
		b.bt.AscendLessThan(treeItem{key: end}, visit)
	case end == nil:
		b.bt.AscendGreaterOrEqual(treeItem{key: start}, visit)
	default:
		b.bt.AscendRange(treeItem{key: start}, treeItem{key: end}, visit)
	}

	out := make([]keyValue, 0, len(res))
	for k, v := range res {
		out = append(out, keyValue{key: []byte(k), value: v})
	}
	sortKeyValues(out)
	return out
}

type treeItem struct {
	key     []byte
	value   []byte
	deleted bool
}

func lessItem(a, b treeItem) bool {
	return bytes.Compare(a.key, b.key) < 0
}

func setItem(key, value []byte) treeItem {
	return treeItem{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	}
}

func deleteItem(key []byte) treeItem {
	return treeItem{
		key:     append([]byte(nil), key...),
		deleted: true,
	}
}

func assertValidKey(key []byte) {
	if key == nil {
		panic("nil key is not allowed")
	}
}
