/*
Package api exposes the trade ledger and the balance accounting over HTTP.

Every state changing request must carry a bearer token issued by the daemon.
The token subject identifies the caller. Responses are JSON encoded, failures
are returned as {"code": <error code>, "error": <message>}.
*/
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/app"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/x/balance"
	"github.com/iov-one/tradefin/x/identity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/libs/log"
)

// Config holds the dependencies of the HTTP API.
type Config struct {
	Engine     *app.Engine
	Withdrawer *balance.Withdrawer
	Tokens     *identity.Tokens
	// Gatherer is exposed at /metrics. Metrics are not served if nil.
	Gatherer prometheus.Gatherer
	Logger   log.Logger
	// Debug disables error redaction.
	Debug bool
}

type server struct {
	engine   *app.Engine
	withdraw *balance.Withdrawer
	tokens   *identity.Tokens
	bank     balance.Controller
	logger   log.Logger
	debug    bool
}

// NewHandler returns the HTTP handler serving all API routes.
func NewHandler(conf Config) http.Handler {
	logger := conf.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &server{
		engine:   conf.Engine,
		withdraw: conf.Withdrawer,
		tokens:   conf.Tokens,
		bank:     balance.NewController(),
		logger:   logger,
		debug:    conf.Debug,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")
	if conf.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(conf.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	r.HandleFunc("/trades", s.listTrades).Methods("GET")
	r.HandleFunc("/trades/{id:[0-9]+}", s.getTrade).Methods("GET")
	r.HandleFunc("/balances/{address}", s.getBalance).Methods("GET")
	r.HandleFunc("/reserve", s.getReserve).Methods("GET")

	r.Handle("/whoami", s.authenticated(s.whoami)).Methods("GET")
	r.Handle("/withdraw", s.authenticated(s.withdrawBalance)).Methods("POST")
	r.Handle("/trades", s.authenticated(s.createTrade)).Methods("POST")
	r.Handle("/trades/{id:[0-9]+}/documents", s.authenticated(s.submitDocuments)).Methods("POST")
	r.Handle("/trades/{id:[0-9]+}/verify", s.authenticated(s.tradeOperation(verifyMsg))).Methods("POST")
	r.Handle("/trades/{id:[0-9]+}/ship", s.authenticated(s.tradeOperation(shipMsg))).Methods("POST")
	r.Handle("/trades/{id:[0-9]+}/deliver", s.authenticated(s.tradeOperation(deliverMsg))).Methods("POST")
	r.Handle("/trades/{id:[0-9]+}/dispute", s.authenticated(s.tradeOperation(disputeMsg))).Methods("POST")
	r.Handle("/trades/{id:[0-9]+}/resolve", s.authenticated(s.resolveDispute)).Methods("POST")
	r.Handle("/trades/{id:[0-9]+}/emergency-refund", s.authenticated(s.tradeOperation(emergencyRefundMsg))).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, errors.Wrapf(errors.ErrNotFound, "no route %s %s", r.Method, r.URL.Path))
	})

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(conf.Debug))(
		handlers.LoggingHandler(os.Stdout, r))
}

// authenticated verifies the bearer token and declares its subject as the
// caller of the wrapped handler.
func (s *server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.tokens.Verify(r.Header.Get("Authorization"))
		if err != nil {
			s.logger.Debug("rejected token", "path", r.URL.Path, "err", err)
			s.respondErr(w, http.StatusUnauthorized, err)
			return
		}
		ctx := identity.WithCaller(r.Context(), caller)
		next(w, r.WithContext(ctx))
	})
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	JSONResp(w, http.StatusOK, struct {
		Status  string `json:"status"`
		ChainID string `json:"chain_id"`
		Version int64  `json:"version"`
		Time    string `json:"time"`
	}{
		Status:  "ok",
		ChainID: s.engine.ChainID(),
		Version: s.engine.LatestVersion().Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *server) whoami(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.Caller(r.Context())
	JSONResp(w, http.StatusOK, struct {
		Condition weave.Condition `json:"condition"`
		Address   weave.Address   `json:"address"`
	}{
		Condition: caller,
		Address:   caller.Address(),
	})
}

func (s *server) getBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := weave.ParseAddress(mux.Vars(r)["address"])
	if err == nil {
		err = addr.Validate()
	}
	if err != nil {
		s.fail(w, errors.Field("address", err, "invalid address"))
		return
	}

	var (
		amount  int64
		pending *balance.Withdrawal
	)
	err = s.engine.View(r.Context(), func(ctx weave.Context, db weave.ReadOnlyKVStore) error {
		var err error
		if amount, err = s.bank.Balance(db, addr); err != nil {
			return err
		}
		pending, err = s.bank.Pending(db, addr)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Address weave.Address       `json:"address"`
		Amount  int64               `json:"amount"`
		Pending *balance.Withdrawal `json:"pending,omitempty"`
	}{
		Address: addr,
		Amount:  amount,
		Pending: pending,
	})
}

func (s *server) getReserve(w http.ResponseWriter, r *http.Request) {
	var reserve *balance.Reserve
	err := s.engine.View(r.Context(), func(ctx weave.Context, db weave.ReadOnlyKVStore) error {
		var err error
		reserve, err = s.bank.Reserve(db)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, reserve)
}

func (s *server) withdrawBalance(w http.ResponseWriter, r *http.Request) {
	amount, err := s.withdraw.Withdraw(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Amount int64 `json:"amount"`
	}{
		Amount: amount,
	})
}

// fail writes the error response with the status matching the error kind.
func (s *server) fail(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.respondErr(w, status, err)
}

func (s *server) respondErr(w http.ResponseWriter, status int, err error) {
	code, msg := errors.Info(err, s.debug)
	JSONErr(w, status, code, msg)
}

// StatusOf returns the HTTP status code that represents given error.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.ErrPanic.Is(err):
		return http.StatusInternalServerError
	case errors.ErrNotFound.Is(err):
		return http.StatusNotFound
	case errors.ErrUnauthorized.Is(err):
		return http.StatusForbidden
	case balance.ErrTransfer.Is(err), balance.ErrTransferUnknown.Is(err):
		return http.StatusBadGateway
	case isConflict(err):
		return http.StatusConflict
	case isBadInput(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// JSONResp writes given content as the JSON encoded response.
func JSONResp(w http.ResponseWriter, code int, content interface{}) {
	b, err := json.MarshalIndent(content, "", "\t")
	if err != nil {
		code = http.StatusInternalServerError
		b = []byte(`{"code":1,"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

// JSONErr writes a single error as the JSON encoded response.
func JSONErr(w http.ResponseWriter, status int, code uint32, msg string) {
	JSONResp(w, status, struct {
		Code  uint32 `json:"code"`
		Error string `json:"error"`
	}{
		Code:  code,
		Error: msg,
	})
}
