package weavetest

import (
	"context"
	"fmt"

	"github.com/iov-one/tradefin"
)

// CtxAuth is an x.Authenticator reading the caller conditions from the
// context. A single instance serves any number of concurrent callers.
type CtxAuth struct {
	// Key separates conditions of different authenticators.
	Key string
}

// SetConditions returns a context declaring given caller conditions.
func (a *CtxAuth) SetConditions(ctx weave.Context, permissions ...weave.Condition) weave.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), permissions)
}

func (a *CtxAuth) GetConditions(ctx weave.Context) []weave.Condition {
	val := ctx.Value(ctxAuthKey(a.Key))
	if val == nil {
		return nil
	}
	conds, ok := val.([]weave.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []weave.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

type ctxAuthKey string
