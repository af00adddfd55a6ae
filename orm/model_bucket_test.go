package orm

import (
	"encoding/json"
	"testing"

	"github.com/splitchain/bsplit/bsplittest/assert"
	"github.com/splitchain/bsplit/errors"
	"github.com/splitchain/bsplit/store"
)

type cnt struct {
	Count int64  `json:"count"`
	Owner []byte `json:"owner,omitempty"`
}

var _ Model = (*cnt)(nil)

func (c *cnt) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

func (c *cnt) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, c)
}

func (c *cnt) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "negative count")
	}
	return nil
}

func (c *cnt) Copy() CloneableData {
	return &cnt{Count: c.Count, Owner: append([]byte(nil), c.Owner...)}
}

func TestModelBucketPutGetDelete(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &cnt{})

	assert.Nil(t, b.Put(db, []byte("c1"), &cnt{Count: 7}))

	var loaded cnt
	assert.Nil(t, b.One(db, []byte("c1"), &loaded))
	assert.Equal(t, int64(7), loaded.Count)

	assert.Nil(t, b.Has(db, []byte("c1")))
	if err := b.Has(db, []byte("unknown")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}

	assert.Nil(t, b.Delete(db, []byte("c1")))
	if err := b.One(db, []byte("c1"), &loaded); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}
	if err := b.Delete(db, []byte("c1")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}
}

func TestModelBucketRefusesInvalidModel(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &cnt{})

	if err := b.Put(db, []byte("c1"), &cnt{Count: -1}); !errors.ErrState.Is(err) {
		t.Fatalf("want state error, got %+v", err)
	}
	if err := b.Put(db, nil, &cnt{Count: 1}); !errors.ErrEmpty.Is(err) {
		t.Fatalf("want empty key error, got %+v", err)
	}
}

func TestModelBucketByIndex(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &cnt{},
		WithIndex("owner", func(obj Object) ([]byte, error) {
			c, ok := obj.Value().(*cnt)
			if !ok {
				return nil, errors.Wrap(errors.ErrType, "not a counter")
			}
			// nil means this entity is not indexed
			return c.Owner, nil
		}, false),
	)

	assert.Nil(t, b.Put(db, []byte("a"), &cnt{Count: 1, Owner: []byte("alice")}))
	assert.Nil(t, b.Put(db, []byte("b"), &cnt{Count: 2, Owner: []byte("alice")}))
	assert.Nil(t, b.Put(db, []byte("c"), &cnt{Count: 3, Owner: []byte("bob")}))
	assert.Nil(t, b.Put(db, []byte("d"), &cnt{Count: 4}))

	var alices []*cnt
	keys, err := b.ByIndex(db, "owner", []byte("alice"), &alices)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(keys))
	assert.Equal(t, 2, len(alices))

	// reindexing happens on update
	assert.Nil(t, b.Put(db, []byte("b"), &cnt{Count: 2, Owner: []byte("bob")}))
	var bobs []*cnt
	keys, err = b.ByIndex(db, "owner", []byte("bob"), &bobs)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(keys))

	var nobody []*cnt
	keys, err = b.ByIndex(db, "owner", []byte("carl"), &nobody)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(keys))

	if _, err := b.ByIndex(db, "unknown", []byte("alice"), &nobody); !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %+v", err)
	}
}
