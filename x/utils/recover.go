package utils

import (
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
)

// Recovery turns a panic of the wrapped handler into an ErrPanic failure of
// the operation. The panic is logged together with the message path.
type Recovery struct{}

var _ weave.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator.
func NewRecovery() Recovery {
	return Recovery{}
}

func (r Recovery) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (_ *weave.CheckResult, err error) {
	defer recoverOperation(ctx, tx, &err)
	return next.Check(ctx, store, tx)
}

func (r Recovery) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (_ *weave.DeliverResult, err error) {
	defer recoverOperation(ctx, tx, &err)
	return next.Deliver(ctx, store, tx)
}

// recoverOperation must be called deferred.
func recoverOperation(ctx weave.Context, tx weave.Tx, err *error) {
	r := recover()
	if r == nil {
		return
	}
	*err = errors.Wrapf(errors.ErrPanic, "%v", r)
	weave.GetLogger(ctx).Error("operation panicked", "path", weave.GetPath(tx), "panic", r)
}
