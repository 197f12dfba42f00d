package identity

import (
	"context"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/x"
)

type contextKey int

const callerKey contextKey = 0

// WithCaller returns a context that declares given condition as the caller
// of the executed operation.
func WithCaller(ctx weave.Context, caller weave.Condition) weave.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// Caller returns the caller condition set in the context.
func Caller(ctx weave.Context) (weave.Condition, bool) {
	c, ok := ctx.Value(callerKey).(weave.Condition)
	return c, ok && len(c) != 0
}

// Authenticator reveals the caller stored in the context.
type Authenticator struct{}

var _ x.Authenticator = Authenticator{}

// GetConditions returns the caller condition, if any.
func (Authenticator) GetConditions(ctx weave.Context) []weave.Condition {
	c, ok := Caller(ctx)
	if !ok {
		return nil
	}
	return []weave.Condition{c}
}

// HasAddress returns true if the caller is identified by given address.
func (Authenticator) HasAddress(ctx weave.Context, addr weave.Address) bool {
	c, ok := Caller(ctx)
	return ok && c.Address().Equals(addr)
}
