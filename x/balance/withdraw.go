package balance

import (
	"context"
	"sync"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/x"
)

// Transferer is the value transfer service, moving funds out of the system.
// Implementations are not trusted and may call back into the system before
// returning.
//
// When the outcome of a transfer cannot be known, for example because no
// reply arrived in time, it must fail with ErrTransferUnknown. Any other
// error means the funds were not moved. The reference returned by
// TransferRef is the same for every attempt of a single payout and must be
// used to deduplicate them.
type Transferer interface {
	Transfer(ctx weave.Context, dest weave.Address, amount int64) error
}

// TransferFunc adapts a function to the Transferer interface.
type TransferFunc func(ctx weave.Context, dest weave.Address, amount int64) error

func (fn TransferFunc) Transfer(ctx weave.Context, dest weave.Address, amount int64) error {
	return fn(ctx, dest, amount)
}

type contextKey int

const contextKeyTransferRef contextKey = iota

// WithTransferRef sets the reference of the payout a transfer is done for.
func WithTransferRef(ctx weave.Context, ref string) weave.Context {
	return context.WithValue(ctx, contextKeyTransferRef, ref)
}

// TransferRef returns the payout reference set with WithTransferRef.
func TransferRef(ctx weave.Context) (string, bool) {
	ref, ok := ctx.Value(contextKeyTransferRef).(string)
	return ref, ok
}

// Updater executes given function as a single atomic operation. Changes are
// persisted only if the function returns no error. Entity locks acquired by
// the function are released when Update returns.
type Updater interface {
	Update(ctx weave.Context, fn func(weave.Context, weave.KVStore) error) error
}

// Withdrawer pays out pending balances.
type Withdrawer struct {
	auth     x.Authenticator
	updater  Updater
	transfer Transferer
	ctrl     Controller

	mu       sync.Mutex
	inflight map[uint64]struct{}
}

// NewWithdrawer returns a withdrawal service. The caller is identified by
// the authenticator.
func NewWithdrawer(auth x.Authenticator, updater Updater, transfer Transferer) *Withdrawer {
	return &Withdrawer{
		auth:     auth,
		updater:  updater,
		transfer: transfer,
		ctrl:     NewController(),
		inflight: make(map[uint64]struct{}),
	}
}

// Withdraw pays out the whole pending balance of the caller and returns the
// amount transferred.
//
// The balance is moved into a pending withdrawal before the transfer service
// is called and no lock is held during the transfer. A refused transfer
// restores the balance. If the outcome of the transfer is unknown the
// withdrawal stays pending and the next call retries it with the same
// reference instead of taking the balance.
//
// Cancelling ctx does not interrupt a transfer that was started.
func (w *Withdrawer) Withdraw(ctx weave.Context) (int64, error) {
	caller := x.MainSigner(ctx, w.auth)
	if caller == nil {
		return 0, errors.Wrap(errors.ErrUnauthorized, "no caller")
	}
	dest := caller.Address()

	var wd *Withdrawal
	err := w.updater.Update(ctx, func(ctx weave.Context, db weave.KVStore) error {
		p, err := w.ctrl.pending(ctx, db, dest)
		if err != nil {
			return err
		}
		if p == nil {
			if p, err = w.ctrl.drain(ctx, db, dest); err != nil {
				return err
			}
		}
		if !w.claim(p.ID) {
			return errors.Wrapf(ErrNoFunds, "withdrawal %d of %s in progress", p.ID, dest)
		}
		wd = p
		return nil
	})
	if err != nil {
		if wd != nil {
			w.unclaim(wd.ID)
		}
		return 0, err
	}
	defer w.unclaim(wd.ID)

	ctx = context.WithoutCancel(ctx)
	log := weave.GetLogger(ctx).With("address", dest.String(), "amount", wd.Amount, "ref", wd.Ref())

	terr := w.transferOnce(WithTransferRef(ctx, wd.Ref()), dest, wd.Amount)
	switch {
	case terr == nil:
		err := w.updater.Update(ctx, func(ctx weave.Context, db weave.KVStore) error {
			return w.ctrl.complete(ctx, db, dest, wd)
		})
		if err != nil {
			// The funds were moved. A leftover pending withdrawal is only
			// retried, never restored, so it cannot pay out twice.
			log.Error("cannot complete withdrawal", "err", err)
		}
		log.Info("withdrawn")
		return wd.Amount, nil
	case ErrTransferUnknown.Is(terr):
		log.Error("transfer outcome unknown, withdrawal stays pending", "err", terr)
		return 0, terr
	default:
		log.Error("transfer failed", "err", terr)
		rerr := w.updater.Update(ctx, func(ctx weave.Context, db weave.KVStore) error {
			return w.ctrl.restore(ctx, db, dest, wd)
		})
		if rerr != nil {
			log.Error("cannot restore balance", "err", rerr)
			return 0, errors.Append(errors.Wrap(ErrTransfer, terr.Error()), rerr)
		}
		return 0, errors.Wrap(ErrTransfer, terr.Error())
	}
}

// transferOnce calls the transfer service. A panic of the service is a
// refused transfer.
func (w *Withdrawer) transferOnce(ctx weave.Context, dest weave.Address, amount int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrTransfer, "transfer panicked: %v", r)
		}
	}()
	return w.transfer.Transfer(ctx, dest, amount)
}

// claim marks a withdrawal as being transferred. It returns false if it
// already is.
func (w *Withdrawer) claim(id uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.inflight[id]; ok {
		return false
	}
	w.inflight[id] = struct{}{}
	return true
}

func (w *Withdrawer) unclaim(id uint64) {
	w.mu.Lock()
	delete(w.inflight, id)
	w.mu.Unlock()
}
