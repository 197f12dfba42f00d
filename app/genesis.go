package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
)

// Genesis file format. The application state is read by each extension
// initializer, under its own key.
type Genesis struct {
	ChainID  string        `json:"chain_id"`
	AppState weave.Options `json:"app_state"`
}

// LoadGenesis loads the genesis file from given path.
func LoadGenesis(filePath string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "read genesis file: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "unmarshal genesis file: %s", err)
	}
	if !weave.IsValidChainID(gen.ChainID) {
		return nil, errors.Wrapf(errors.ErrInput, "invalid chain id %q", gen.ChainID)
	}
	return &gen, nil
}

// ChainInitializers lets you initialize many extensions with one function.
func ChainInitializers(inits ...weave.Initializer) weave.Initializer {
	return chainInitializer{inits: inits}
}

type chainInitializer struct {
	inits []weave.Initializer
}

// FromGenesis will pass opts to all Initializers in the list, aborting at
// the first error.
func (c chainInitializer) FromGenesis(opts weave.Options, kv weave.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}

const chainIDKey = "_wv:chainID"

// loadChainID returns the chain id stored if any.
func loadChainID(kv weave.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(err, "load chain id")
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store. Returns error if already
// set, or invalid name.
func saveChainID(kv weave.KVStore, chainID string) error {
	if !weave.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	k := []byte(chainIDKey)
	switch exists, err := kv.Has(k); {
	case err != nil:
		return errors.Wrap(err, "chain id")
	case exists:
		return errors.Wrap(errors.ErrState, "chain id already set")
	}
	return kv.Set(k, []byte(chainID))
}
