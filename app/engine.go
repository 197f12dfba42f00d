package app

import (
	"context"
	"time"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Observer is notified about the events of every successfully executed
// operation, in the order they were emitted.
//
// Observe is called while the operation still holds its entity locks, so
// the events of a trade are observed in commit order. An observer must
// not block. Slow sinks queue the events and deliver them elsewhere, as
// events.KafkaPublisher does.
type Observer interface {
	Observe(ctx weave.Context, events []weave.Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx weave.Context, events []weave.Event)

func (fn ObserverFunc) Observe(ctx weave.Context, events []weave.Event) {
	fn(ctx, events)
}

// Engine executes operations against the committed state. Any number of
// operations can be executed concurrently and the result is as if they
// were executed one after another.
//
// Every operation runs in its own cache wrap. Handlers declare which
// entities they access with weave.Lock and those locks are held until the
// changes are written back and the events are observed.
type Engine struct {
	root      *syncedStore
	handler   weave.Handler
	locks     *lockManager
	now       func() time.Time
	logger    log.Logger
	observers []Observer
	chainID   string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of the block time. Defaults to the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithEngineLogger sets the logger passed to every operation.
func WithEngineLogger(l log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObservers registers observers of the operation events.
func WithObservers(obs ...Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, obs...) }
}

// NewEngine returns an engine executing operations with given handler,
// usually a router wrapped with decorators.
func NewEngine(db weave.CommitKVStore, handler weave.Handler, opts ...Option) (*Engine, error) {
	e := &Engine{
		root:    newSyncedStore(db),
		handler: handler,
		locks:   newLockManager(),
		now:     time.Now,
		logger:  weave.DefaultLogger,
	}
	for _, fn := range opts {
		fn(e)
	}
	chainID, err := loadChainID(e.root)
	if err != nil {
		return nil, err
	}
	e.chainID = chainID
	return e, nil
}

// ChainID returns the chain id set by the genesis, empty if not
// initialized.
func (e *Engine) ChainID() string {
	return e.chainID
}

// InitChain initializes the state from the genesis. It can be done only
// once.
func (e *Engine) InitChain(gen *Genesis, init weave.Initializer) error {
	if e.chainID != "" {
		return errors.Wrapf(errors.ErrState, "already initialized as %q", e.chainID)
	}
	cache := e.root.CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	if err := init.FromGenesis(gen.AppState, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "genesis")
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write genesis")
	}
	if _, err := e.root.Commit(); err != nil {
		return errors.Wrap(err, "commit genesis")
	}
	e.chainID = gen.ChainID
	e.logger.Info("chain initialized", "chain_id", gen.ChainID)
	return nil
}

// context returns the context of a single operation.
func (e *Engine) context(ctx context.Context, call string) weave.Context {
	if _, ok := weave.GetHeight(ctx); !ok {
		ctx = weave.WithHeight(ctx, e.root.LatestVersion().Version+1)
	}
	if _, ok := weave.BlockTime(ctx); !ok {
		ctx = weave.WithBlockTime(ctx, e.now())
	}
	if e.chainID != "" && weave.GetChainID(ctx) == "" {
		ctx = weave.WithChainID(ctx, e.chainID)
	}
	ctx = weave.WithLogger(ctx, e.logger)
	return weave.WithLogInfo(ctx, "call", call)
}

// Deliver executes the operation carried by the transaction. Changes are
// committed only if the operation succeeds. Returned events were observed
// before Deliver returned.
func (e *Engine) Deliver(ctx context.Context, tx weave.Tx) (*weave.DeliverResult, error) {
	locker := e.locks.operation()
	defer locker.releaseAll()

	ctx = weave.WithLocker(e.context(ctx, "deliver"), locker)

	cache := e.root.CacheWrap()
	res, err := e.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := e.commit(cache); err != nil {
		return nil, err
	}
	for _, o := range e.observers {
		o.Observe(ctx, res.Events)
	}
	return res, nil
}

// Check executes the operation without persisting any change.
func (e *Engine) Check(ctx context.Context, tx weave.Tx) (*weave.CheckResult, error) {
	locker := e.locks.operation()
	defer locker.releaseAll()

	ctx = weave.WithLocker(e.context(ctx, "check"), locker)

	cache := e.root.CacheWrap()
	defer cache.Discard()
	return e.handler.Check(ctx, cache, tx)
}

// Update executes given function as a single atomic operation, the same
// way Deliver executes a handler. No events are emitted.
func (e *Engine) Update(ctx weave.Context, fn func(weave.Context, weave.KVStore) error) error {
	locker := e.locks.operation()
	defer locker.releaseAll()

	ctx = weave.WithLocker(e.context(ctx, "update"), locker)

	cache := e.root.CacheWrap()
	if err := fn(ctx, cache); err != nil {
		cache.Discard()
		return err
	}
	return e.commit(cache)
}

// View calls fn with a consistent read only view of the committed state.
// fn must not execute other operations of this engine.
func (e *Engine) View(ctx context.Context, fn func(weave.Context, weave.ReadOnlyKVStore) error) error {
	ctx = e.context(ctx, "view")
	return e.root.view(func(db weave.ReadOnlyKVStore) error {
		return fn(ctx, db)
	})
}

// LatestVersion returns the last committed version of the state.
func (e *Engine) LatestVersion() weave.CommitID {
	return e.root.LatestVersion()
}

func (e *Engine) commit(cache weave.KVCacheWrap) error {
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write changes")
	}
	if _, err := e.root.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}
