package weavetest

import (
	"sync"

	"github.com/iov-one/tradefin"
)

// Payout is a single value transfer done by the Transferer.
type Payout struct {
	Dest   weave.Address
	Amount int64
}

// Transferer is a mock of a value transfer service. All successful transfers
// are recorded.
type Transferer struct {
	// Err if set is returned by every transfer and nothing is recorded.
	Err error

	// OnTransfer if set is called before the transfer is completed. It
	// allows to test reentrancy of the caller. An error returned fails the
	// transfer.
	OnTransfer func(ctx weave.Context, dest weave.Address, amount int64) error

	mu      sync.Mutex
	payouts []Payout
}

func (t *Transferer) Transfer(ctx weave.Context, dest weave.Address, amount int64) error {
	if t.OnTransfer != nil {
		if err := t.OnTransfer(ctx, dest, amount); err != nil {
			return err
		}
	}
	if t.Err != nil {
		return t.Err
	}
	t.mu.Lock()
	t.payouts = append(t.payouts, Payout{Dest: dest, Amount: amount})
	t.mu.Unlock()
	return nil
}

// Payouts returns all successful transfers.
func (t *Transferer) Payouts() []Payout {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Payout(nil), t.payouts...)
}

// Received returns the total amount transferred to given address.
func (t *Transferer) Received(dest weave.Address) int64 {
	var total int64
	for _, p := range t.Payouts() {
		if p.Dest.Equals(dest) {
			total += p.Amount
		}
	}
	return total
}
