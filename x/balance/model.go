package balance

import (
	"fmt"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/orm"
)

const (
	balanceBucket    = "bal"
	reserveBucket    = "rsv"
	withdrawalBucket = "wdr"
)

// reserveKey is the primary key of the reserve singleton.
var reserveKey = []byte("total")

var _ orm.Model = (*Balance)(nil)

// Validate ensures the balance is never negative.
func (m *Balance) Validate() error {
	if m.Amount < 0 {
		return errors.Wrap(errors.ErrAmount, "negative balance")
	}
	return nil
}

var _ orm.Model = (*Reserve)(nil)

// Validate ensures the reserve accounting is consistent.
func (m *Reserve) Validate() error {
	var errs error
	if m.Held < 0 {
		errs = errors.AppendField(errs, "Held", errors.ErrAmount)
	}
	if m.Deposited < 0 {
		errs = errors.AppendField(errs, "Deposited", errors.ErrAmount)
	}
	if m.Withdrawn < 0 {
		errs = errors.AppendField(errs, "Withdrawn", errors.ErrAmount)
	}
	if errs == nil && m.Held != m.Deposited-m.Withdrawn {
		errs = errors.Wrapf(errors.ErrState, "held %d, but deposited %d and withdrawn %d", m.Held, m.Deposited, m.Withdrawn)
	}
	return errs
}

var _ orm.Model = (*Withdrawal)(nil)

func (m *Withdrawal) Validate() error {
	var errs error
	if m.ID == 0 {
		errs = errors.AppendField(errs, "ID", errors.ErrEmpty)
	}
	if m.Amount <= 0 {
		errs = errors.AppendField(errs, "Amount", errors.ErrAmount)
	}
	return errs
}

// Ref returns the reference the transfer service receives with every
// attempt of this payout.
func (m *Withdrawal) Ref() string {
	return fmt.Sprintf("withdrawal-%d", m.ID)
}

// BalanceLockKey returns the key of the entity lock protecting the balance
// of given party.
func BalanceLockKey(addr weave.Address) []byte {
	return append([]byte(balanceBucket+":"), addr...)
}

// ReserveLockKey returns the key of the entity lock protecting the reserve.
func ReserveLockKey() []byte {
	return append([]byte(reserveBucket+":"), reserveKey...)
}
