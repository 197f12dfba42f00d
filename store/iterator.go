package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/tradefin/errors"
)

// sliceIterator wraps an Iterator over a slice of models.
type sliceIterator struct {
	data []Model
}

var _ Iterator = (*sliceIterator)(nil)

// NewSliceIterator creates a new Iterator over this slice.
func NewSliceIterator(data []Model) Iterator {
	return &sliceIterator{data: data}
}

func (s *sliceIterator) Next() (key, value []byte, err error) {
	if len(s.data) == 0 {
		return nil, nil, errors.ErrIteratorDone
	}
	m := s.data[0]
	s.data = s.data[1:]
	return m.Key, m.Value, nil
}

func (s *sliceIterator) Release() {
	s.data = nil
}

// mergeIterator combines items cached in the btree with the results of the
// parent store. A cached item overwrites a parent item with the same key.
// Deleted items hide the parent item.
type mergeIterator struct {
	cache     []btree.Item
	parent    Iterator
	ascending bool

	// Parent item that was read but not returned yet.
	pKey, pValue []byte
	pLoaded      bool
	pDone        bool
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(cache []btree.Item, parent Iterator, ascending bool) *mergeIterator {
	return &mergeIterator{
		cache:     cache,
		parent:    parent,
		ascending: ascending,
	}
}

func (m *mergeIterator) Next() (key, value []byte, err error) {
	for {
		if !m.pLoaded && !m.pDone {
			k, v, err := m.parent.Next()
			switch {
			case errors.ErrIteratorDone.Is(err):
				m.pDone = true
			case err != nil:
				return nil, nil, err
			default:
				m.pKey, m.pValue, m.pLoaded = k, v, true
			}
		}

		if len(m.cache) == 0 {
			if m.pDone {
				return nil, nil, errors.ErrIteratorDone
			}
			m.pLoaded = false
			return m.pKey, m.pValue, nil
		}

		item := m.cache[0]
		ckey := item.(keyer).Key()
		cmp := -1
		if !m.pDone {
			cmp = bytes.Compare(ckey, m.pKey)
			if !m.ascending {
				cmp = -cmp
			}
		}

		if cmp > 0 {
			m.pLoaded = false
			return m.pKey, m.pValue, nil
		}

		m.cache = m.cache[1:]
		if cmp == 0 {
			// Cached value shadows the parent one.
			m.pLoaded = false
		}
		if set, ok := item.(setItem); ok {
			return set.key, set.value, nil
		}
	}
}

func (m *mergeIterator) Release() {
	m.cache = nil
	m.parent.Release()
}

// ReadAll returns all key value pairs the iterator yields and releases it.
func ReadAll(it Iterator) ([]Model, error) {
	defer it.Release()

	var res []Model
	for {
		key, value, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, Model{Key: key, Value: value})
	}
}
