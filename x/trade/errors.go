package trade

import (
	"github.com/iov-one/tradefin/errors"
)

var (
	// ErrParty is returned when a trade party is missing or is not a
	// valid identity.
	ErrParty = errors.Register(1100, "invalid party")

	// ErrSameParty is returned when the buyer and the seller of a trade
	// are the same.
	ErrSameParty = errors.Register(1101, "same party")

	// ErrHash is returned when the document fingerprint is malformed.
	ErrHash = errors.Register(1102, "invalid document hash")

	// ErrPrecondition is returned when a step that the operation depends
	// on was not done yet.
	ErrPrecondition = errors.Register(1103, "precondition failed")

	// ErrTooEarly is returned when the emergency refund is requested before
	// the deadline.
	ErrTooEarly = errors.Register(1104, "too early")
)
