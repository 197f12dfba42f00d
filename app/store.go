package app

import (
	"sync"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/store"
)

// syncedStore guards the committed state, so that many operations can
// read it while another one writes back its changes.
//
// Reads take a shared lock. Iterators are materialized while the lock is
// held. A batch write takes an exclusive lock for its whole duration, so a
// reader never observes a partially written operation.
type syncedStore struct {
	mu    sync.RWMutex
	inner weave.CommitKVStore
}

var _ weave.CommitKVStore = (*syncedStore)(nil)

func newSyncedStore(inner weave.CommitKVStore) *syncedStore {
	return &syncedStore{inner: inner}
}

func (s *syncedStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Get(key)
}

func (s *syncedStore) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Has(key)
}

func (s *syncedStore) Iterator(start, end []byte) (weave.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, err := s.inner.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return snapshot(it)
}

func (s *syncedStore) ReverseIterator(start, end []byte) (weave.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, err := s.inner.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	return snapshot(it)
}

func snapshot(it weave.Iterator) (weave.Iterator, error) {
	models, err := store.ReadAll(it)
	if err != nil {
		return nil, errors.Wrap(err, "iterate")
	}
	return store.NewSliceIterator(models), nil
}

func (s *syncedStore) Set(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Set(key, value)
}

func (s *syncedStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Delete(key)
}

// NewBatch returns a batch that is written to the inner store under the
// exclusive lock.
func (s *syncedStore) NewBatch() weave.Batch {
	return &syncedBatch{NonAtomicBatch: store.NewNonAtomicBatch(s.inner), mu: &s.mu}
}

func (s *syncedStore) CacheWrap() weave.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

func (s *syncedStore) Commit() (weave.CommitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Commit()
}

func (s *syncedStore) LatestVersion() weave.CommitID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.LatestVersion()
}

// view calls fn with a reader of the committed state. No write is applied
// until fn returns.
func (s *syncedStore) view(fn func(weave.ReadOnlyKVStore) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.inner)
}

type syncedBatch struct {
	*store.NonAtomicBatch
	mu *sync.RWMutex
}

func (b *syncedBatch) Write() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.NonAtomicBatch.Write()
}
