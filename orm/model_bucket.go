package orm

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"regexp"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
)

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db weave.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db weave.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database. All indexes are updated.
	Put(db weave.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db weave.KVStore, key []byte) error

	// ByIndex returns all models that are referenced by the given index
	// value, ordered by their primary key. Found models are appended to
	// the destination, that must be a pointer to a slice of models.
	// Primary keys of found models are returned.
	ByIndex(db weave.ReadOnlyKVStore, indexName string, value []byte, dest ModelSlicePtr) ([][]byte, error)
}

// Indexer calculates the secondary index value for a given model. Returning
// nil value means the model is not indexed.
type Indexer func(Model) ([]byte, error)

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function. If an index is unique, there can be only one entity
// referenced per index value.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	if !isBucketName(name) {
		panic("invalid index name: " + name)
	}
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic("index " + name + " declared twice")
		}
		mb.indexes[name] = index{
			prefix:  []byte("_i." + mb.name + "_" + name + ":"),
			indexer: indexer,
			unique:  unique,
		}
	}
}

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// NewModelBucket returns a ModelBucket instance. Every model is stored under
// the key <name>:<primary key>. The example model is used to validate the
// type of stored and loaded models.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic("invalid bucket name: " + name)
	}
	mb := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   reflect.TypeOf(m),
		indexes: make(map[string]index),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes map[string]index
}

var _ ModelBucket = (*modelBucket)(nil)

type index struct {
	prefix  []byte
	indexer Indexer
	unique  bool
}

func (mb *modelBucket) dbKey(key []byte) []byte {
	return append(append([]byte(nil), mb.prefix...), key...)
}

func (mb *modelBucket) assertType(m Model) error {
	if reflect.TypeOf(m) != mb.model {
		return errors.Wrapf(errors.ErrType, "bucket %q cannot hold %T", mb.name, m)
	}
	return nil
}

func (mb *modelBucket) One(db weave.ReadOnlyKVStore, key []byte, dest Model) error {
	if err := mb.assertType(dest); err != nil {
		return err
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot get from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.name)
	}
	return decode(raw, dest)
}

func (mb *modelBucket) Has(db weave.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot query the database")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.name)
	}
	return nil
}

func (mb *modelBucket) Put(db weave.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "primary key is required")
	}
	if err := mb.assertType(m); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := encode(m)
	if err != nil {
		return err
	}

	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if err := mb.updateIndexes(db, key, prev, m); err != nil {
		return err
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db weave.KVStore, key []byte) error {
	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.name)
	}
	if err := mb.updateIndexes(db, key, prev, nil); err != nil {
		return err
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

// load returns the model stored under given key or nil if it does not exist.
func (mb *modelBucket) load(db weave.ReadOnlyKVStore, key []byte) (Model, error) {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return nil, errors.Wrap(err, "cannot get from the database")
	}
	if raw == nil {
		return nil, nil
	}
	m := reflect.New(mb.model.Elem()).Interface().(Model)
	if err := decode(raw, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (mb *modelBucket) updateIndexes(db weave.KVStore, key []byte, prev, next Model) error {
	for name, idx := range mb.indexes {
		var prevVal, nextVal []byte
		var err error
		if prev != nil {
			if prevVal, err = idx.indexer(prev); err != nil {
				return errors.Wrapf(err, "index %s", name)
			}
		}
		if next != nil {
			if nextVal, err = idx.indexer(next); err != nil {
				return errors.Wrapf(err, "index %s", name)
			}
		}
		if prev != nil && next != nil && bytes.Equal(prevVal, nextVal) {
			continue
		}
		if prevVal != nil {
			if err := db.Delete(idx.refKey(prevVal, key)); err != nil {
				return errors.Wrapf(err, "index %s", name)
			}
		}
		if nextVal != nil {
			if idx.unique {
				refs, err := idx.refs(db, nextVal)
				if err != nil {
					return errors.Wrapf(err, "index %s", name)
				}
				if len(refs) != 0 {
					return errors.Wrapf(errors.ErrDuplicate, "index %s", name)
				}
			}
			if err := db.Set(idx.refKey(nextVal, key), []byte{}); err != nil {
				return errors.Wrapf(err, "index %s", name)
			}
		}
	}
	return nil
}

// valuePrefix returns the key prefix shared by all references of given
// value. The value length is encoded so that a value is never a prefix of
// another value.
func (idx index) valuePrefix(value []byte) []byte {
	var ln [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(ln[:], uint64(len(value)))
	res := make([]byte, 0, len(idx.prefix)+n+len(value))
	res = append(res, idx.prefix...)
	res = append(res, ln[:n]...)
	return append(res, value...)
}

func (idx index) refKey(value, primaryKey []byte) []byte {
	return append(idx.valuePrefix(value), primaryKey...)
}

// refs returns all primary keys referenced by given value.
func (idx index) refs(db weave.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	prefix := idx.valuePrefix(value)
	it, err := db.Iterator(prefixRange(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var keys [][]byte
	for {
		key, _, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return keys, nil
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, append([]byte(nil), key[len(prefix):]...))
	}
}

func (mb *modelBucket) ByIndex(db weave.ReadOnlyKVStore, indexName string, value []byte, dest ModelSlicePtr) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(errors.ErrHuman, "bucket %q has no index %q", mb.name, indexName)
	}

	slice := reflect.ValueOf(dest)
	if slice.Kind() != reflect.Ptr || slice.Elem().Kind() != reflect.Slice || slice.Type().Elem().Elem() != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "destination must be *[]%s, got %T", mb.model, dest)
	}

	keys, err := idx.refs(db, value)
	if err != nil {
		return nil, err
	}
	res := slice.Elem()
	for _, key := range keys {
		m, err := mb.load(db, key)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "index %s references a missing %s", indexName, mb.name)
		}
		res = reflect.Append(res, reflect.ValueOf(m))
	}
	slice.Elem().Set(res)
	return keys, nil
}

// prefixRange returns the range of keys that start with given prefix.
func prefixRange(prefix []byte) ([]byte, []byte) {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return prefix, end[:i+1]
		}
	}
	// Prefix of only 0xFF bytes has no upper limit.
	return prefix, nil
}
