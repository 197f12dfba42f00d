package trade

import (
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/orm"
)

// Bank is the balance accounting of the funds held by the system. The
// ledger deposits the value of every created trade and credits it to a
// party when the trade is disposed.
type Bank interface {
	Deposit(ctx weave.Context, db weave.KVStore, amount int64) error
	Credit(ctx weave.Context, db weave.KVStore, party weave.Address, amount int64) error
}

type ledger struct {
	bucket orm.ModelBucket
	bank   Bank
}

func newLedger(bank Bank) ledger {
	return ledger{bucket: NewBucket(), bank: bank}
}

func (l ledger) save(db weave.KVStore, t *Trade) error {
	if err := l.bucket.Put(db, TradeKey(t.ID), t); err != nil {
		return errors.Wrapf(err, "save trade %d", t.ID)
	}
	return nil
}

// release credits the trade value to the seller. The trade is stored in
// its final state.
func (l ledger) release(ctx weave.Context, db weave.KVStore, t *Trade) ([]weave.Event, error) {
	if err := l.dispose(ctx, db, t, StateReleased, t.Seller); err != nil {
		return nil, err
	}
	return []weave.Event{
		PaymentReleased{ID: t.ID, Seller: t.Seller, Amount: t.Value},
	}, nil
}

// refund credits the trade value back to the buyer. The trade is stored in
// its final state.
func (l ledger) refund(ctx weave.Context, db weave.KVStore, t *Trade) ([]weave.Event, error) {
	if err := l.dispose(ctx, db, t, StateRefunded, t.Buyer); err != nil {
		return nil, err
	}
	return []weave.Event{
		Refunded{ID: t.ID, Buyer: t.Buyer, Amount: t.Value},
	}, nil
}

func (l ledger) dispose(ctx weave.Context, db weave.KVStore, t *Trade, final State, party weave.Address) error {
	if t.State.IsTerminal() {
		return errors.Wrapf(errors.ErrState, "trade %d already disposed", t.ID)
	}
	t.State = final
	if err := l.save(db, t); err != nil {
		return err
	}
	if err := l.bank.Credit(ctx, db, party, t.Value); err != nil {
		return errors.Wrapf(err, "credit trade %d value", t.ID)
	}
	return nil
}

// blockTime returns the time of the currently executed operation.
func blockTime(ctx weave.Context) (weave.UnixTime, error) {
	now, ok := weave.BlockTime(ctx)
	if !ok {
		return 0, errors.Wrap(errors.ErrHuman, "block time not present")
	}
	return weave.AsUnixTime(now), nil
}
