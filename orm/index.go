package orm

import (
	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/errors"
)

// namedIndex lookup by name. Returns nil when no index with given name was
// configured.
func (mb *modelBucket) namedIndex(name string) *namedIndex {
	for i := range mb.indexes {
		if mb.indexes[i].name == name {
			return &mb.indexes[i]
		}
	}
	return nil
}

// storeIndexes writes a secondary index entry for every configured index.
func (mb *modelBucket) storeIndexes(db bsplit.KVStore, obj Object) error {
	for i := range mb.indexes {
		idx := &mb.indexes[i]
		val, err := idx.indexer(obj)
		if err != nil {
			return errors.Wrapf(err, "cannot compute %q index", idx.name)
		}
		if val == nil {
			continue
		}
		if idx.unique {
			if keys := idx.keys(db, val); len(keys) != 0 {
				return errors.Wrapf(errors.ErrDuplicate, "unique index %q", idx.name)
			}
		}
		key, err := idx.entryKey(val, obj.Key())
		if err != nil {
			return err
		}
		db.Set(key, obj.Key())
	}
	return nil
}

// dropIndexes removes all secondary index entries of given object.
func (mb *modelBucket) dropIndexes(db bsplit.KVStore, obj Object) error {
	for i := range mb.indexes {
		idx := &mb.indexes[i]
		val, err := idx.indexer(obj)
		if err != nil {
			return errors.Wrapf(err, "cannot compute %q index", idx.name)
		}
		if val == nil {
			continue
		}
		key, err := idx.entryKey(val, obj.Key())
		if err != nil {
			return err
		}
		db.Delete(key)
	}
	return nil
}

// entryKey builds the database key of a single index entry. The index value
// is length prefixed so that entries of different values never overlap.
func (idx *namedIndex) entryKey(val, pk []byte) ([]byte, error) {
	if len(val) > 255 {
		return nil, errors.Wrapf(errors.ErrInput, "index %q value too long", idx.name)
	}
	out := make([]byte, 0, len(idx.prefix)+1+len(val)+len(pk))
	out = append(out, idx.prefix...)
	out = append(out, byte(len(val)))
	out = append(out, val...)
	out = append(out, pk...)
	return out, nil
}

// keys returns the primary keys of all entities indexed under given value.
func (idx *namedIndex) keys(db bsplit.ReadOnlyKVStore, val []byte) [][]byte {
	if len(val) > 255 {
		return nil
	}
	start := make([]byte, 0, len(idx.prefix)+1+len(val))
	start = append(start, idx.prefix...)
	start = append(start, byte(len(val)))
	start = append(start, val...)
	end := prefixRangeEnd(start)

	var res [][]byte
	it := db.Iterator(start, end)
	defer it.Close()
	for ; it.Valid(); it.Next() {
		pk := append([]byte(nil), it.Value()...)
		res = append(res, pk)
	}
	return res
}

// prefixRangeEnd returns the smallest key that is greater than every key
// beginning with given prefix. Nil means "no upper bound".
func prefixRangeEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
