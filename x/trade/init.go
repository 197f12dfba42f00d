package trade

import (
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/gconf"
)

// Initializer fulfils the weave.Initializer interface to load the trade
// configuration from the genesis file. Without a genesis configuration the
// defaults are used.
type Initializer struct{}

var _ weave.Initializer = Initializer{}

func (Initializer) FromGenesis(opts weave.Options, kv weave.KVStore) error {
	var conf Configuration
	switch err := gconf.InitConfig(kv, opts, confPackage, &conf); {
	case errors.ErrNotFound.Is(err):
		return nil
	case err != nil:
		return errors.Wrap(err, "init trade configuration")
	}
	return nil
}
