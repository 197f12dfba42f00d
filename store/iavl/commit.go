/*
Package iavl provides a persistent, versioned store backed by the tendermint
iavl merkle tree. Every commit creates a new version with a new root hash.
*/
package iavl

import (
	"path/filepath"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// DefaultCacheSize is the number of tree nodes kept in memory.
const DefaultCacheSize = 10000

// CommitStore manages a iavl committed state. It is not safe for concurrent
// use and must be guarded by the owner.
type CommitStore struct {
	tree *iavl.MutableTree
	db   dbm.DB
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore creates a new store with disk backing. Data is kept in a
// level db database called name inside of the dir directory.
func NewCommitStore(dir, name string) (*CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, filepath.Clean(dir))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "cannot open %s database: %s", name, err)
	}
	return newCommitStore(db)
}

// NewMemCommitStore creates a store that keeps all versions in memory.
func NewMemCommitStore() (*CommitStore, error) {
	return newCommitStore(dbm.NewMemDB())
}

func newCommitStore(db dbm.DB) (*CommitStore, error) {
	tree := iavl.NewMutableTree(db, DefaultCacheSize)
	// Load the latest persisted version. If there was a crash during the
	// last commit, it is guaranteed to return a stable state, even if
	// older.
	if _, err := tree.Load(); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "cannot load tree: %s", err)
	}
	return &CommitStore{tree: tree, db: db}, nil
}

// Close releases the underlying database.
func (s *CommitStore) Close() {
	s.db.Close()
}

// Commit the next version to disk, and returns info.
func (s *CommitStore) Commit() (weave.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return weave.CommitID{}, errors.Wrapf(errors.ErrDatabase, "save version: %s", err)
	}
	return weave.CommitID{Version: version, Hash: hash}, nil
}

// LatestVersion returns info on the latest version saved to disk.
func (s *CommitStore) LatestVersion() weave.CommitID {
	return weave.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}
}

// Get returns nil iff key doesn't exist.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	_, val := s.tree.Get(key)
	return val, nil
}

// Has checks if a key exists.
func (s *CommitStore) Has(key []byte) (bool, error) {
	return s.tree.Has(key), nil
}

// Set adds a new value to the working tree.
func (s *CommitStore) Set(key, value []byte) error {
	s.tree.Set(key, value)
	return nil
}

// Delete removes from the working tree.
func (s *CommitStore) Delete(key []byte) error {
	s.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that can write multiple ops to the working tree.
func (s *CommitStore) NewBatch() weave.Batch {
	return store.NewNonAtomicBatch(s)
}

// CacheWrap gives us a savepoint to perform actions.
func (s *CommitStore) CacheWrap() weave.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (s *CommitStore) Iterator(start, end []byte) (weave.Iterator, error) {
	return s.iterate(start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is
// exclusive.
func (s *CommitStore) ReverseIterator(start, end []byte) (weave.Iterator, error) {
	return s.iterate(start, end, false), nil
}

func (s *CommitStore) iterate(start, end []byte, ascending bool) weave.Iterator {
	var res []store.Model
	s.tree.IterateRange(start, end, ascending, func(key, value []byte) bool {
		res = append(res, store.Model{Key: key, Value: value})
		return false
	})
	return store.NewSliceIterator(res)
}
