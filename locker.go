package weave

import "context"

// Locker grants exclusive access to an entity identified by a key. A lock is
// held until the operation that acquired it is finished and it is released
// by whoever installed the Locker in the context.
//
// Acquiring the same key again within the same operation must not block.
type Locker interface {
	Lock(key []byte)
}

// WithLocker attaches the entity locker for the currently executed
// operation.
func WithLocker(ctx Context, l Locker) Context {
	return context.WithValue(ctx, contextKeyLocker, l)
}

// Lock acquires an exclusive access to the entity identified by given key,
// for the rest of the currently executed operation. When the context does
// not carry a Locker, the execution is assumed to be serial and this is a
// no-op.
func Lock(ctx Context, key []byte) {
	if l, ok := ctx.Value(contextKeyLocker).(Locker); ok {
		l.Lock(key)
	}
}
