package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/app"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/gconf"
	"github.com/iov-one/tradefin/store"
	"github.com/iov-one/tradefin/x/balance"
	"github.com/iov-one/tradefin/x/identity"
	"github.com/iov-one/tradefin/x/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestInitCmd(t *testing.T) {
	home, err := ioutil.TempDir("", "tradefind")
	require.NoError(t, err)
	defer os.RemoveAll(home)

	logger := log.NewNopLogger()
	require.NoError(t, InitCmd(logger, home, []string{"-chain-id", "tradefin-test", "-emergency-delay", "48h"}))

	gen, err := app.LoadGenesis(filepath.Join(home, genesisFile))
	require.NoError(t, err)
	assert.Equal(t, "tradefin-test", gen.ChainID)

	// The written configuration is accepted by the initializers.
	db := store.MemStore()
	inits := app.ChainInitializers(trade.Initializer{}, balance.Initializer{})
	require.NoError(t, inits.FromGenesis(gen.AppState, db))

	var conf trade.Configuration
	require.NoError(t, gconf.Load(db, "trade", &conf))
	assert.Equal(t, weave.AsUnixDuration(48*time.Hour), conf.EmergencyRefundDelay)

	err = InitCmd(logger, home, nil)
	assert.True(t, errors.ErrState.Is(err), "%+v", err)
}

func TestNewGenesis(t *testing.T) {
	gen, err := newGenesis("", time.Hour)
	require.NoError(t, err)
	assert.True(t, weave.IsValidChainID(gen.ChainID), gen.ChainID)
	assert.True(t, strings.HasPrefix(gen.ChainID, "tradefin-"))

	_, err = newGenesis("a b", time.Hour)
	assert.True(t, errors.ErrInput.Is(err))

	_, err = newGenesis("tradefin-test", 0)
	assert.True(t, errors.ErrInput.Is(err))
}

func TestTokenCmd(t *testing.T) {
	const secret = "a secret of sufficient length"

	var out bytes.Buffer
	require.NoError(t, TokenCmd(&out, []string{"-jwt-secret", secret, "-jwt-issuer", "test", "alice"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	tokens, err := identity.NewTokens([]byte(secret), "test", time.Hour)
	require.NoError(t, err)
	caller, err := tokens.Verify(lines[0])
	require.NoError(t, err)
	assert.Equal(t, identity.SubjectCondition("alice"), caller)
	assert.Contains(t, lines[1], caller.Address().String())

	err = TokenCmd(&out, []string{"-jwt-secret", secret})
	assert.True(t, errors.ErrInput.Is(err))
	err = TokenCmd(&out, []string{"-jwt-secret", "short", "alice"})
	assert.True(t, errors.ErrInput.Is(err))
}

func TestParseStartFlags(t *testing.T) {
	_, err := parseStartFlags(nil)
	assert.True(t, errors.ErrInput.Is(err))

	conf, err := parseStartFlags([]string{
		"-jwt-secret", "a secret of sufficient length",
		"-kafka", "k1:9092,k2:9092",
	})
	require.NoError(t, err)
	assert.Equal(t, ":8000", conf.HTTP)
	assert.Equal(t, "k1:9092,k2:9092", conf.Kafka)
	assert.Equal(t, "tradefin.events", conf.KafkaTopic)
}

func TestEnv(t *testing.T) {
	const name = "TRADEFIN_TEST_ENV"
	os.Unsetenv(name)
	assert.Equal(t, "fallback", env(name, "fallback"))

	os.Setenv(name, "set")
	defer os.Unsetenv(name)
	assert.Equal(t, "set", env(name, "fallback"))
}
