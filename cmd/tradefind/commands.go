package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/app"
	"github.com/iov-one/tradefin/cmd/tradefind/api"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/events"
	"github.com/iov-one/tradefin/store/iavl"
	"github.com/iov-one/tradefin/x/balance"
	"github.com/iov-one/tradefin/x/balance/natspay"
	"github.com/iov-one/tradefin/x/identity"
	"github.com/iov-one/tradefin/x/trade"
	"github.com/iov-one/tradefin/x/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/sync/errgroup"
)

const (
	genesisFile = "genesis.json"
	dataDir     = "data"
	dbName      = "tradefin"

	shutdownTimeout = 10 * time.Second
)

// InitCmd writes the genesis file into the home directory. An existing
// genesis file is never overwritten.
func InitCmd(logger log.Logger, home string, args []string) error {
	fl := flag.NewFlagSet("init", flag.ExitOnError)
	chainID := fl.String("chain-id", "", "chain id, generated if empty")
	delay := fl.Duration("emergency-delay", 30*24*time.Hour, "time after creation when the buyer can claim an emergency refund")
	if err := fl.Parse(args); err != nil {
		return err
	}

	path := filepath.Join(home, genesisFile)
	if _, err := os.Stat(path); err == nil {
		return errors.Wrapf(errors.ErrState, "genesis file %s already exists", path)
	}

	gen, err := newGenesis(*chainID, *delay)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrHuman, err.Error())
	}
	if err := os.MkdirAll(home, 0700); err != nil {
		return errors.Wrapf(errors.ErrInput, "create home: %s", err)
	}
	if err := ioutil.WriteFile(path, raw, 0600); err != nil {
		return errors.Wrapf(errors.ErrInput, "write genesis: %s", err)
	}
	logger.Info("Generated genesis file", "path", path, "chain_id", gen.ChainID)
	return nil
}

func newGenesis(chainID string, delay time.Duration) (*app.Genesis, error) {
	if chainID == "" {
		chainID = "tradefin-" + strings.Replace(uuid.New().String(), "-", "", -1)[:8]
	}
	if !weave.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "invalid chain id %q", chainID)
	}

	conf := trade.DefaultConfiguration()
	conf.EmergencyRefundDelay = weave.AsUnixDuration(delay)
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "trade configuration")
	}

	confs, err := json.Marshal(map[string]interface{}{"trade": conf})
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	return &app.Genesis{
		ChainID: chainID,
		AppState: weave.Options{
			"conf":    confs,
			"balance": []byte(`[]`),
		},
	}, nil
}

type startConfig struct {
	HTTP        string
	Debug       bool
	JWTSecret   string
	JWTIssuer   string
	NATS        string
	NATSSubject string
	Kafka       string
	KafkaTopic  string
}

func parseStartFlags(args []string) (*startConfig, error) {
	var c startConfig
	fl := flag.NewFlagSet("start", flag.ExitOnError)
	fl.StringVar(&c.HTTP, "http", env("TRADEFIN_HTTP", ":8000"), "address the HTTP API listens on")
	fl.BoolVar(&c.Debug, "debug", false, "full error details returned in responses")
	fl.StringVar(&c.JWTSecret, "jwt-secret", env("TRADEFIN_JWT_SECRET", ""), "HMAC secret of the access tokens")
	fl.StringVar(&c.JWTIssuer, "jwt-issuer", env("TRADEFIN_JWT_ISSUER", "tradefin"), "issuer of the access tokens")
	fl.StringVar(&c.NATS, "nats", env("TRADEFIN_NATS", "nats://localhost:4222"), "NATS server of the payment processor")
	fl.StringVar(&c.NATSSubject, "nats-subject", env("TRADEFIN_NATS_SUBJECT", natspay.DefaultSubject), "subject of the transfer requests")
	fl.StringVar(&c.Kafka, "kafka", env("TRADEFIN_KAFKA", ""), "comma separated Kafka brokers, events are not published if empty")
	fl.StringVar(&c.KafkaTopic, "kafka-topic", env("TRADEFIN_KAFKA_TOPIC", "tradefin.events"), "Kafka topic of the published events")
	if err := fl.Parse(args); err != nil {
		return nil, err
	}
	if len(c.JWTSecret) < identity.MinSecretLength {
		return nil, errors.Wrapf(errors.ErrInput, "jwt secret must be at least %d bytes", identity.MinSecretLength)
	}
	return &c, nil
}

// StartCmd opens the state, connects the external services and serves the
// HTTP API until a termination signal is received.
func StartCmd(logger log.Logger, home string, args []string) error {
	conf, err := parseStartFlags(args)
	if err != nil {
		return err
	}

	gen, err := app.LoadGenesis(filepath.Join(home, genesisFile))
	if err != nil {
		return err
	}

	db, err := iavl.NewCommitStore(filepath.Join(home, dataDir), dbName)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := utils.NewMetrics("tradefin", reg)
	if err != nil {
		return err
	}

	auth := identity.Authenticator{}
	router := app.NewRouter()
	trade.RegisterRoutes(router, auth, balance.NewController())
	handler := app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		metrics,
		utils.NewSavepoint().OnDeliver(),
	).WithHandler(router)

	observers := []app.Observer{events.NewLogObserver(logger.With("module", "events"))}
	if conf.Kafka != "" {
		writer := events.NewKafkaWriter(strings.Split(conf.Kafka, ","), conf.KafkaTopic)
		publisher := events.NewKafkaPublisher(writer, logger.With("module", "kafka"))
		defer publisher.Close()
		observers = append(observers, publisher)
		logger.Info("Publishing events", "brokers", conf.Kafka, "topic", conf.KafkaTopic)
	}

	engine, err := app.NewEngine(db, handler,
		app.WithEngineLogger(logger),
		app.WithObservers(observers...),
	)
	if err != nil {
		return err
	}
	switch chainID := engine.ChainID(); chainID {
	case "":
		inits := app.ChainInitializers(trade.Initializer{}, balance.Initializer{})
		if err := engine.InitChain(gen, inits); err != nil {
			return err
		}
	case gen.ChainID:
	default:
		return errors.Wrapf(errors.ErrState, "state belongs to chain %q, genesis to %q", chainID, gen.ChainID)
	}

	transfer, conn, err := natspay.Connect(natspay.Config{
		URL:           conf.NATS,
		Name:          "tradefind",
		Subject:       conf.NATSSubject,
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
		Timeout:       5 * time.Second,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	tokens, err := identity.NewTokens([]byte(conf.JWTSecret), conf.JWTIssuer, 24*time.Hour)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: conf.HTTP,
		Handler: api.NewHandler(api.Config{
			Engine:     engine,
			Withdrawer: balance.NewWithdrawer(auth, engine, transfer),
			Tokens:     tokens,
			Gatherer:   reg,
			Logger:     logger.With("module", "api"),
			Debug:      conf.Debug,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP API", "bind", conf.HTTP, "chain_id", engine.ChainID())
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return errors.Wrapf(errors.ErrInput, "http server: %s", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// TokenCmd prints an access token of the subject given as the only argument.
func TokenCmd(out io.Writer, args []string) error {
	fl := flag.NewFlagSet("token", flag.ExitOnError)
	secret := fl.String("jwt-secret", env("TRADEFIN_JWT_SECRET", ""), "HMAC secret of the access tokens")
	issuer := fl.String("jwt-issuer", env("TRADEFIN_JWT_ISSUER", "tradefin"), "issuer of the access tokens")
	ttl := fl.Duration("ttl", 24*time.Hour, "validity of the token")
	if err := fl.Parse(args); err != nil {
		return err
	}
	if fl.NArg() != 1 {
		return errors.Wrap(errors.ErrInput, "usage: token [flags] <subject>")
	}

	tokens, err := identity.NewTokens([]byte(*secret), *issuer, *ttl)
	if err != nil {
		return err
	}
	subject := fl.Arg(0)
	token, err := tokens.Issue(subject)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\naddress: %s\n", token, identity.SubjectCondition(subject).Address())
	return err
}
