package store

import (
	"bytes"
	"sort"
)

type keyValue struct {
	key   []byte
	value []byte
}

func sortKeyValues(kvs []keyValue) {
	sort.Slice(kvs, func(i, j int) bool {
		return bytes.Compare(kvs[i].key, kvs[j].key) < 0
	})
}

// sliceIterator wraps an in-memory snapshot of a key range. A zero value is
// a valid, exhausted iterator.
type sliceIterator struct {
	kvs []keyValue
	idx int
}

func newSliceIterator(kvs []keyValue, reversed bool) *sliceIterator {
	if reversed {
		for i, j := 0, len(kvs)-1; i < j; i, j = i+1, j-1 {
			kvs[i], kvs[j] = kvs[j], kvs[i]
		}
	}
	return &sliceIterator{kvs: kvs}
}

func (s *sliceIterator) Valid() bool {
	return s.idx < len(s.kvs)
}

func (s *sliceIterator) Next() {
	if !s.Valid() {
		panic("Next() called on an invalid iterator")
	}
	s.idx++
}

func (s *sliceIterator) Key() []byte {
	if !s.Valid() {
		panic("Key() called on an invalid iterator")
	}
	return s.kvs[s.idx].key
}

func (s *sliceIterator) Value() []byte {
	if !s.Valid() {
		panic("Value() called on an invalid iterator")
	}
	return s.kvs[s.idx].value
}

func (s *sliceIterator) Close() {
	s.kvs = nil
	s.idx = 0
}
