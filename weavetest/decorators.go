package weavetest

import (
	"sync/atomic"

	"github.com/iov-one/tradefin"
)

// Decorator is a counting weave.Decorator. It is safe for concurrent use.
//
// When CheckErr or DeliverErr is set, the corresponding method fails with it
// and the wrapped handler is not called.
type Decorator struct {
	CheckErr   error
	DeliverErr error

	checks   int64
	delivers int64
}

var _ weave.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	atomic.AddInt64(&d.checks, 1)
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	atomic.AddInt64(&d.delivers, 1)
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

// CheckCallCount returns the number of Check calls, failed ones included.
func (d *Decorator) CheckCallCount() int {
	return int(atomic.LoadInt64(&d.checks))
}

// DeliverCallCount returns the number of Deliver calls, failed ones included.
func (d *Decorator) DeliverCallCount() int {
	return int(atomic.LoadInt64(&d.delivers))
}
