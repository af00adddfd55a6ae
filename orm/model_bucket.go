package orm

import (
	"reflect"

	"github.com/splitchain/bsplit"
	"github.com/splitchain/bsplit/errors"
)

// ModelBucket is implemented by buckets that operate on Models rather than
// Objects.
type ModelBucket interface {
	// One queries the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db bsplit.ReadOnlyKVStore, key []byte, dest Model) error

	// ByIndex returns all objects that secondary index with given name and
	// given key points to. Main index keys of all matching entities are
	// returned; matching models are appended to destination, which must be
	// a pointer to a slice of models.
	ByIndex(db bsplit.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error)

	// Put saves given model in the database under given key. The key must
	// not be empty.
	Put(db bsplit.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db bsplit.KVStore, key []byte) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db bsplit.ReadOnlyKVStore, key []byte) error
}

// ModelSlicePtr represents a pointer to a slice of models. Used in queries
// to return a collection of models. Implemented as an interface{} so it
// accepts any type; the concrete type is checked at runtime via reflection.
type ModelSlicePtr interface{}

// Indexer calculates the secondary index key for a given object.
type Indexer func(Object) ([]byte, error)

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures a secondary index on the bucket. All entities
// stored in the bucket are indexed by the value returned by the indexer.
// A nil index value means "do not index this entity".
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.indexes = append(mb.indexes, namedIndex{
			name:    name,
			indexer: indexer,
			unique:  unique,
			prefix:  []byte("_i." + mb.b.Name() + "_" + name + ":"),
		})
	}
}

type namedIndex struct {
	name    string
	indexer Indexer
	unique  bool
	prefix  []byte
}

// NewModelBucket returns a ModelBucket instance. This implementation relies
// on a bucket instance.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	b := NewBucket(name, NewSimpleObj(nil, m))

	tp := reflect.TypeOf(m)
	if tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}

	mb := &modelBucket{
		b:     b,
		model: tp,
	}

	for _, fn := range opts {
		fn(mb)
	}

	return mb
}

type modelBucket struct {
	b       Bucket
	indexes []namedIndex

	// model is referencing the structure type. Event if the structure
	// pointer is implementing Model interface, this variable references
	// the structure directly and not the structure's pointer type.
	model reflect.Type
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) One(db bsplit.ReadOnlyKVStore, key []byte, dest Model) error {
	obj, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if obj == nil || obj.Value() == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	res := obj.Value()

	if !reflect.TypeOf(res).AssignableTo(reflect.TypeOf(dest)) {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %T", res, dest)
	}

	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(res).Elem())
	return nil
}

func (mb *modelBucket) ByIndex(db bsplit.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error) {
	idx := mb.namedIndex(indexName)
	if idx == nil {
		return nil, errors.Wrapf(errors.ErrInput, "no %q index", indexName)
	}

	// Validate the destination before any lookup.
	destRef := reflect.ValueOf(dest)
	if destRef.Kind() != reflect.Ptr {
		return nil, errors.Wrap(errors.ErrType, "destination must be a pointer to slice of models")
	}
	slice := destRef.Elem()
	if slice.Kind() != reflect.Slice {
		return nil, errors.Wrap(errors.ErrType, "destination must be a pointer to slice of models")
	}

	keys := idx.keys(db, key)
	for _, pk := range keys {
		obj, err := mb.b.Get(db, pk)
		if err != nil {
			return nil, err
		}
		if obj == nil || obj.Value() == nil {
			return nil, errors.Wrapf(errors.ErrHuman, "index %q points to a missing entity", indexName)
		}
		val := reflect.ValueOf(obj.Value())
		if val.Type().Elem() != mb.model {
			return nil, errors.Wrapf(errors.ErrType, "this bucket stores %s type", mb.model)
		}
		switch slice.Type().Elem().Kind() {
		case reflect.Ptr:
			slice.Set(reflect.Append(slice, val))
		case reflect.Struct:
			slice.Set(reflect.Append(slice, val.Elem()))
		default:
			return nil, errors.Wrap(errors.ErrType, "only pointer to slice of structs or pointers is supported")
		}
	}
	return keys, nil
}

func (mb *modelBucket) Put(db bsplit.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}

	// Remove previous index entries before the value is overwritten.
	if len(mb.indexes) > 0 {
		prev, err := mb.b.Get(db, key)
		if err != nil {
			return errors.Wrap(err, "cannot load previous value")
		}
		if prev != nil {
			if err := mb.dropIndexes(db, prev); err != nil {
				return err
			}
		}
	}

	obj := NewSimpleObj(key, m)
	if err := mb.b.Save(db, obj); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return mb.storeIndexes(db, obj)
}

func (mb *modelBucket) Delete(db bsplit.KVStore, key []byte) error {
	obj, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if obj == nil || obj.Value() == nil {
		return errors.ErrNotFound
	}
	if err := mb.dropIndexes(db, obj); err != nil {
		return err
	}
	return mb.b.Delete(db, key)
}

func (mb *modelBucket) Has(db bsplit.ReadOnlyKVStore, key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if !mb.b.Has(db, key) {
		return errors.ErrNotFound
	}
	return nil
}
