package balance

import (
	"context"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
)

const optKey = "balance"

// GenesisBalance is used to parse the json from genesis file. Address is hex
// encoded.
type GenesisBalance struct {
	Address weave.Address `json:"address"`
	Amount  int64         `json:"amount"`
}

// Initializer fulfils the weave.Initializer interface to load pending
// balances from the genesis file. Every genesis balance is deposited into
// the reserve, so that the reserve accounting holds.
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis will parse initial balances from genesis and save them to the
// database.
func (Initializer) FromGenesis(opts weave.Options, kv weave.KVStore) error {
	var balances []GenesisBalance
	if err := opts.ReadOptions(optKey, &balances); err != nil {
		return errors.Wrapf(errors.ErrInput, "read balances: %s", err)
	}
	ctx := context.Background()
	ctrl := NewController()
	for i, b := range balances {
		if err := b.Address.Validate(); err != nil {
			return errors.Wrapf(err, "balance %d", i)
		}
		if err := ctrl.Deposit(ctx, kv, b.Amount); err != nil {
			return errors.Wrapf(err, "balance %d", i)
		}
		if err := ctrl.Credit(ctx, kv, b.Address, b.Amount); err != nil {
			return errors.Wrapf(err, "balance %d", i)
		}
	}
	return nil
}
