package x

import (
	"github.com/iov-one/tradefin"
)

// Authenticator is the identity oracle. It reveals who is calling the
// executed operation. Handlers get it in their constructor, so that the
// identity source can be replaced without touching them.
type Authenticator interface {
	// GetConditions returns the conditions of the caller. The first one
	// identifies the main caller.
	GetConditions(weave.Context) []weave.Condition
	// HasAddress returns true if any caller condition matches the address.
	HasAddress(weave.Context, weave.Address) bool
}

// MainSigner returns the first caller condition or nil if the operation is
// executed anonymously.
func MainSigner(ctx weave.Context, auth Authenticator) weave.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}
