package app

import (
	"reflect"

	"github.com/iov-one/tradefin"
)

// Decorators is an ordered list of decorators that is not yet bound to a
// handler. The first decorator is the outermost one.
type Decorators struct {
	chain []weave.Decorator
}

// ChainDecorators returns the decorator list. Nil values are ignored, so
// that optional decorators can be passed without a condition.
//
//	handler := app.ChainDecorators(
//		utils.NewLogging(),
//		utils.NewRecovery(),
//		metrics,
//		utils.NewSavepoint().OnDeliver(),
//	).WithHandler(router)
func ChainDecorators(chain ...weave.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain returns a new list extended with given decorators.
func (d Decorators) Chain(chain ...weave.Decorator) Decorators {
	out := make([]weave.Decorator, 0, len(d.chain)+len(chain))
	out = append(out, d.chain...)
	for _, dec := range chain {
		if !isNilDecorator(dec) {
			out = append(out, dec)
		}
	}
	return Decorators{chain: out}
}

func isNilDecorator(d weave.Decorator) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHandler binds the list to the final handler. Each call passes all
// decorators in order before reaching h.
func (d Decorators) WithHandler(h weave.Handler) weave.Handler {
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = decorated{dec: d.chain[i], next: h}
	}
	return h
}

// decorated is a handler that calls the decorator around the next handler.
type decorated struct {
	dec  weave.Decorator
	next weave.Handler
}

var _ weave.Handler = decorated{}

func (s decorated) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return s.dec.Check(ctx, db, tx, s.next)
}

func (s decorated) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return s.dec.Deliver(ctx, db, tx, s.next)
}
