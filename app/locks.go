package app

import (
	"sync"

	"github.com/iov-one/tradefin"
)

// lockManager grants exclusive access to entities identified by keys. A lock
// entry exists only while someone holds or waits for it.
type lockManager struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	sem  chan struct{}
	refs int
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[string]*entityLock)}
}

func (m *lockManager) acquire(key string) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &entityLock{sem: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.sem <- struct{}{}
}

func (m *lockManager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.locks[key]
	<-l.sem
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// operation returns a locker for a single operation. Locks are reentrant
// within the operation and are held until released all at once.
func (m *lockManager) operation() *opLocker {
	return &opLocker{mgr: m, held: make(map[string]struct{})}
}

// opLocker implements weave.Locker for the duration of one operation.
type opLocker struct {
	mgr *lockManager

	mu    sync.Mutex
	held  map[string]struct{}
	order []string
}

var _ weave.Locker = (*opLocker)(nil)

func (o *opLocker) Lock(key []byte) {
	k := string(key)
	o.mu.Lock()
	_, ok := o.held[k]
	o.mu.Unlock()
	if ok {
		return
	}

	o.mgr.acquire(k)

	o.mu.Lock()
	o.held[k] = struct{}{}
	o.order = append(o.order, k)
	o.mu.Unlock()
}

// releaseAll releases every held lock, in the reverse order of acquisition.
func (o *opLocker) releaseAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.order) - 1; i >= 0; i-- {
		o.mgr.release(o.order[i])
	}
	o.order = nil
	o.held = make(map[string]struct{})
}
