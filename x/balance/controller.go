package balance

import (
	"math"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/orm"
)

// Controller is the only way to modify balances and the reserve. All
// writing methods acquire the entity lock of what they modify.
type Controller struct {
	balances    orm.ModelBucket
	reserve     orm.ModelBucket
	withdrawals orm.ModelBucket
	withdrawSeq orm.Sequence
}

// NewController returns a controller operating on the balance buckets.
func NewController() Controller {
	return Controller{
		balances:    orm.NewModelBucket(balanceBucket, &Balance{}),
		reserve:     orm.NewModelBucket(reserveBucket, &Reserve{}),
		withdrawals: orm.NewModelBucket(withdrawalBucket, &Withdrawal{}),
		withdrawSeq: orm.NewSequence(withdrawalBucket, "id"),
	}
}

// Balance returns the pending balance of given party. A party that was
// never credited has a zero balance.
func (c Controller) Balance(db weave.ReadOnlyKVStore, addr weave.Address) (int64, error) {
	var b Balance
	switch err := c.balances.One(db, addr, &b); {
	case errors.ErrNotFound.Is(err):
		return 0, nil
	case err != nil:
		return 0, errors.Wrap(err, "load balance")
	}
	return b.Amount, nil
}

// Pending returns the unconfirmed withdrawal of given party, or nil. The
// amount of a pending withdrawal is no longer part of the balance and is
// accounted as withdrawn by the reserve.
func (c Controller) Pending(db weave.ReadOnlyKVStore, addr weave.Address) (*Withdrawal, error) {
	var w Withdrawal
	switch err := c.withdrawals.One(db, addr, &w); {
	case errors.ErrNotFound.Is(err):
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "load withdrawal")
	}
	return &w, nil
}

// Reserve returns the accounting of all funds held by the system.
func (c Controller) Reserve(db weave.ReadOnlyKVStore) (*Reserve, error) {
	var r Reserve
	switch err := c.reserve.One(db, reserveKey, &r); {
	case errors.ErrNotFound.Is(err):
		return &Reserve{}, nil
	case err != nil:
		return nil, errors.Wrap(err, "load reserve")
	}
	return &r, nil
}

// Deposit adds given amount to the funds held by the system.
func (c Controller) Deposit(ctx weave.Context, db weave.KVStore, amount int64) error {
	if amount <= 0 {
		return errors.Wrapf(errors.ErrAmount, "deposit of %d", amount)
	}
	return c.updateReserve(ctx, db, func(r *Reserve) error {
		if r.Deposited > math.MaxInt64-amount {
			return errors.Wrap(errors.ErrOverflow, "reserve deposited")
		}
		r.Held += amount
		r.Deposited += amount
		return nil
	})
}

// Credit adds given amount to the pending balance of the party.
func (c Controller) Credit(ctx weave.Context, db weave.KVStore, addr weave.Address, amount int64) error {
	if amount < 0 {
		return errors.Wrapf(errors.ErrAmount, "credit of %d", amount)
	}
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "credit")
	}
	weave.Lock(ctx, BalanceLockKey(addr))

	current, err := c.Balance(db, addr)
	if err != nil {
		return err
	}
	if current > math.MaxInt64-amount {
		return errors.Wrapf(errors.ErrOverflow, "balance of %s", addr)
	}
	if err := c.balances.Put(db, addr, &Balance{Amount: current + amount}); err != nil {
		return errors.Wrap(err, "save balance")
	}
	return nil
}

// drain sets the balance of given party to zero, moves its amount out of the
// reserve and records it as a pending withdrawal.
func (c Controller) drain(ctx weave.Context, db weave.KVStore, addr weave.Address) (*Withdrawal, error) {
	weave.Lock(ctx, BalanceLockKey(addr))

	amount, err := c.Balance(db, addr)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, errors.Wrapf(ErrNoFunds, "balance of %s", addr)
	}
	if err := c.balances.Delete(db, addr); err != nil {
		return nil, errors.Wrap(err, "clear balance")
	}
	err = c.updateReserve(ctx, db, func(r *Reserve) error {
		r.Held -= amount
		r.Withdrawn += amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	weave.Lock(ctx, c.withdrawSeq.Key())
	id, err := c.withdrawSeq.NextInt(db)
	if err != nil {
		return nil, errors.Wrap(err, "withdrawal id")
	}
	w := &Withdrawal{ID: id, Amount: amount}
	if err := c.withdrawals.Put(db, addr, w); err != nil {
		return nil, errors.Wrap(err, "save withdrawal")
	}
	return w, nil
}

// pending is Pending taking the entity lock of the party balance.
func (c Controller) pending(ctx weave.Context, db weave.KVStore, addr weave.Address) (*Withdrawal, error) {
	weave.Lock(ctx, BalanceLockKey(addr))
	return c.Pending(db, addr)
}

// complete removes the pending withdrawal once the funds were moved.
func (c Controller) complete(ctx weave.Context, db weave.KVStore, addr weave.Address, w *Withdrawal) error {
	p, err := c.pending(ctx, db, addr)
	if err != nil {
		return err
	}
	if p == nil || p.ID != w.ID {
		return errors.Wrapf(errors.ErrState, "withdrawal %d of %s is not pending", w.ID, addr)
	}
	if err := c.withdrawals.Delete(db, addr); err != nil {
		return errors.Wrap(err, "delete withdrawal")
	}
	return nil
}

// restore reverts a pending withdrawal that was refused.
func (c Controller) restore(ctx weave.Context, db weave.KVStore, addr weave.Address, w *Withdrawal) error {
	if err := c.complete(ctx, db, addr, w); err != nil {
		return err
	}
	if err := c.Credit(ctx, db, addr, w.Amount); err != nil {
		return err
	}
	return c.updateReserve(ctx, db, func(r *Reserve) error {
		r.Held += w.Amount
		r.Withdrawn -= w.Amount
		return nil
	})
}

func (c Controller) updateReserve(ctx weave.Context, db weave.KVStore, fn func(*Reserve) error) error {
	weave.Lock(ctx, ReserveLockKey())

	r, err := c.Reserve(db)
	if err != nil {
		return err
	}
	if err := fn(r); err != nil {
		return err
	}
	if err := c.reserve.Put(db, reserveKey, r); err != nil {
		return errors.Wrap(err, "save reserve")
	}
	return nil
}
