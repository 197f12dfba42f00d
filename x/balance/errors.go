package balance

import (
	"github.com/iov-one/tradefin/errors"
)

var (
	// ErrNoFunds is returned when a withdrawal is requested by a party
	// whose balance is zero.
	ErrNoFunds = errors.Register(1110, "no funds")

	// ErrTransfer is returned when the value transfer service did not move
	// the funds.
	ErrTransfer = errors.Register(1111, "transfer failed")

	// ErrTransferUnknown is returned when it is not known whether the value
	// transfer service moved the funds.
	ErrTransferUnknown = errors.Register(1112, "transfer outcome unknown")
)
