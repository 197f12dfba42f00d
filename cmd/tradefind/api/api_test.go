package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/app"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/store/iavl"
	"github.com/iov-one/tradefin/weavetest"
	"github.com/iov-one/tradefin/x/balance"
	"github.com/iov-one/tradefin/x/identity"
	"github.com/iov-one/tradefin/x/trade"
	"github.com/iov-one/tradefin/x/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv      *httptest.Server
	tokens   *identity.Tokens
	transfer *weavetest.Transferer
	clock    *weavetest.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	auth := identity.Authenticator{}
	bank := balance.NewController()
	router := app.NewRouter()
	trade.RegisterRoutes(router, auth, bank)

	reg := prometheus.NewRegistry()
	metrics, err := utils.NewMetrics("tradefin", reg)
	require.NoError(t, err)
	handler := app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		metrics,
	).WithHandler(router)

	clock := weavetest.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	db, err := iavl.NewMemCommitStore()
	require.NoError(t, err)
	engine, err := app.NewEngine(db, handler, app.WithClock(clock.Now))
	require.NoError(t, err)
	gen := &app.Genesis{ChainID: "tradefin-test", AppState: weave.Options{}}
	require.NoError(t, engine.InitChain(gen, app.ChainInitializers(trade.Initializer{}, balance.Initializer{})))

	tokens, err := identity.NewTokens([]byte("a secret of sufficient length"), "tradefin-test", time.Hour)
	require.NoError(t, err)

	transfer := &weavetest.Transferer{}
	srv := httptest.NewServer(NewHandler(Config{
		Engine:     engine,
		Withdrawer: balance.NewWithdrawer(auth, engine, transfer),
		Tokens:     tokens,
		Gatherer:   reg,
	}))
	t.Cleanup(srv.Close)

	return &fixture{
		srv:      srv,
		tokens:   tokens,
		transfer: transfer,
		clock:    clock,
	}
}

// call sends the request as the given subject. An empty subject sends no
// token.
func (f *fixture) call(t *testing.T, method, path, subject string, body interface{}) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	if subject != "" {
		token, err := f.tokens.Issue(subject)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func addr(subject string) string {
	return hex.EncodeToString(identity.SubjectCondition(subject).Address())
}

func createBody(value int64) map[string]interface{} {
	return map[string]interface{}{
		"seller":           addr("seller"),
		"verifier":         addr("verifier"),
		"shipment_details": "40ft container, Rotterdam",
		"value":            value,
	}
}

var validHash = strings.Repeat("ab", trade.HashLength)

func decodeResult(t *testing.T, raw []byte) operationResult {
	t.Helper()
	var res struct {
		Trade  *trade.Trade `json:"trade"`
		Events []struct {
			Name string `json:"name"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(raw, &res), string(raw))
	out := operationResult{Trade: res.Trade}
	for _, e := range res.Events {
		out.Events = append(out.Events, eventView{Name: e.Name})
	}
	return out
}

func names(r operationResult) []string {
	var out []string
	for _, e := range r.Events {
		out = append(out, e.Name)
	}
	return out
}

type errBody struct {
	Code  uint32 `json:"code"`
	Error string `json:"error"`
}

func (f *fixture) create(t *testing.T) uint64 {
	t.Helper()
	status, raw := f.call(t, "POST", "/trades", "buyer", createBody(100))
	require.Equal(t, http.StatusCreated, status, string(raw))
	res := decodeResult(t, raw)
	require.NotNil(t, res.Trade)
	return res.Trade.ID
}

func TestHappyPathOverHTTP(t *testing.T) {
	f := newFixture(t)

	id := f.create(t)
	assert.Equal(t, uint64(1), id)

	steps := []struct {
		path    string
		subject string
		body    interface{}
		events  []string
	}{
		{"/trades/1/documents", "seller", map[string]string{"document_hash": validHash}, []string{"DocumentSubmitted"}},
		{"/trades/1/verify", "verifier", nil, []string{"DocumentVerified"}},
		{"/trades/1/ship", "seller", nil, []string{"MarkedShipped"}},
		{"/trades/1/deliver", "buyer", nil, []string{"DeliveryConfirmed", "PaymentReleased"}},
	}
	for _, s := range steps {
		status, raw := f.call(t, "POST", s.path, s.subject, s.body)
		require.Equal(t, http.StatusOK, status, "%s: %s", s.path, raw)
		assert.Equal(t, s.events, names(decodeResult(t, raw)))
	}

	status, raw := f.call(t, "GET", "/trades/1", "", nil)
	require.Equal(t, http.StatusOK, status)
	var got trade.Trade
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, trade.StateReleased, got.State)
	assert.True(t, got.DocumentVerified)

	status, raw = f.call(t, "GET", "/balances/"+addr("seller"), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"amount": 100`)

	status, raw = f.call(t, "POST", "/withdraw", "seller", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Contains(t, string(raw), `"amount": 100`)
	assert.Equal(t, int64(100), f.transfer.Received(identity.SubjectCondition("seller").Address()))

	status, raw = f.call(t, "GET", "/reserve", "", nil)
	require.Equal(t, http.StatusOK, status)
	var reserve balance.Reserve
	require.NoError(t, json.Unmarshal(raw, &reserve))
	assert.Equal(t, balance.Reserve{Held: 0, Deposited: 100, Withdrawn: 100}, reserve)
}

func TestDocumentHashIsHexEverywhere(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	upper := strings.ToUpper(validHash)
	status, raw := f.call(t, "POST", "/trades/1/documents", "seller", map[string]string{"document_hash": upper})
	require.Equal(t, http.StatusOK, status, string(raw))

	var res struct {
		Trade struct {
			DocumentHash string `json:"document_hash"`
		} `json:"trade"`
		Events []struct {
			Payload struct {
				Hash string `json:"hash"`
			} `json:"payload"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Len(t, res.Events, 1)
	assert.Equal(t, validHash, res.Events[0].Payload.Hash)
	assert.Equal(t, validHash, res.Trade.DocumentHash)

	status, raw = f.call(t, "GET", "/trades/1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"document_hash": "`+validHash+`"`)
}

func TestDisputeOverHTTP(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	require.Equal(t, uint64(1), id)

	status, raw := f.call(t, "POST", "/trades/1/dispute", "seller", nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	body := map[string]interface{}{"refund_to_buyer": true, "reason": "goods never left the port"}
	status, raw = f.call(t, "POST", "/trades/1/resolve", "verifier", body)
	require.Equal(t, http.StatusOK, status, string(raw))
	res := decodeResult(t, raw)
	assert.Equal(t, []string{"Refunded", "DisputeResolved"}, names(res))
	assert.Equal(t, trade.StateRefunded, res.Trade.State)
	assert.Equal(t, "goods never left the port", res.Trade.Resolution)

	status, _ = f.call(t, "GET", "/balances/"+addr("buyer"), "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestEmergencyRefundOverHTTP(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	status, raw := f.call(t, "POST", "/trades/1/emergency-refund", "buyer", nil)
	require.Equal(t, http.StatusConflict, status, string(raw))
	var e errBody
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, trade.ErrTooEarly.Code(), e.Code)

	f.clock.Advance(31 * 24 * time.Hour)
	status, raw = f.call(t, "POST", "/trades/1/emergency-refund", "buyer", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, []string{"Refunded"}, names(decodeResult(t, raw)))
}

func TestListTrades(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)

	status, raw := f.call(t, "GET", "/trades?seller="+addr("seller"), "", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var list struct {
		Objects []*trade.Trade `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Objects, 2)
	assert.Equal(t, uint64(1), list.Objects[0].ID)
	assert.Equal(t, uint64(2), list.Objects[1].ID)

	status, raw = f.call(t, "GET", "/trades?buyer="+addr("stranger"), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"objects": []`)
}

func TestErrorResponses(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	cases := map[string]struct {
		method     string
		path       string
		subject    string
		body       interface{}
		wantStatus int
		wantCode   uint32
	}{
		"missing token": {
			method: "POST", path: "/trades/1/ship",
			wantStatus: http.StatusUnauthorized, wantCode: errors.ErrUnauthorized.Code(),
		},
		"caller without role": {
			method: "POST", path: "/trades/1/ship", subject: "stranger",
			wantStatus: http.StatusForbidden, wantCode: errors.ErrUnauthorized.Code(),
		},
		"unknown trade": {
			method: "POST", path: "/trades/7/verify", subject: "verifier",
			wantStatus: http.StatusNotFound, wantCode: errors.ErrNotFound.Code(),
		},
		"trade zero": {
			method: "GET", path: "/trades/0",
			wantStatus: http.StatusNotFound, wantCode: errors.ErrNotFound.Code(),
		},
		"verify before documents": {
			method: "POST", path: "/trades/1/verify", subject: "verifier",
			wantStatus: http.StatusConflict, wantCode: trade.ErrPrecondition.Code(),
		},
		"deliver in wrong state": {
			method: "POST", path: "/trades/1/deliver", subject: "buyer",
			wantStatus: http.StatusConflict, wantCode: errors.ErrState.Code(),
		},
		"hash not hex": {
			method: "POST", path: "/trades/1/documents", subject: "seller",
			body:       map[string]string{"document_hash": "xyz"},
			wantStatus: http.StatusBadRequest, wantCode: trade.ErrHash.Code(),
		},
		"hash too short": {
			method: "POST", path: "/trades/1/documents", subject: "seller",
			body:       map[string]string{"document_hash": "abcd"},
			wantStatus: http.StatusBadRequest, wantCode: trade.ErrHash.Code(),
		},
		"same party": {
			method: "POST", path: "/trades", subject: "seller",
			body:       createBody(10),
			wantStatus: http.StatusBadRequest, wantCode: trade.ErrSameParty.Code(),
		},
		"zero value": {
			method: "POST", path: "/trades", subject: "buyer",
			body:       createBody(0),
			wantStatus: http.StatusBadRequest, wantCode: errors.ErrAmount.Code(),
		},
		"unknown body field": {
			method: "POST", path: "/trades", subject: "buyer",
			body:       map[string]string{"price": "10"},
			wantStatus: http.StatusBadRequest, wantCode: errors.ErrInput.Code(),
		},
		"nothing to withdraw": {
			method: "POST", path: "/withdraw", subject: "buyer",
			wantStatus: http.StatusConflict, wantCode: balance.ErrNoFunds.Code(),
		},
		"list without filter": {
			method: "GET", path: "/trades",
			wantStatus: http.StatusBadRequest, wantCode: errors.ErrInput.Code(),
		},
		"list with two filters": {
			method: "GET", path: "/trades?buyer=" + addr("buyer") + "&seller=" + addr("seller"),
			wantStatus: http.StatusBadRequest, wantCode: errors.ErrInput.Code(),
		},
		"invalid balance address": {
			method: "GET", path: "/balances/zzz",
			wantStatus: http.StatusBadRequest, wantCode: errors.ErrInput.Code(),
		},
		"unknown route": {
			method: "GET", path: "/nope",
			wantStatus: http.StatusNotFound, wantCode: errors.ErrNotFound.Code(),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			status, raw := f.call(t, tc.method, tc.path, tc.subject, tc.body)
			require.Equal(t, tc.wantStatus, status, string(raw))
			var e errBody
			require.NoError(t, json.Unmarshal(raw, &e), string(raw))
			assert.Equal(t, tc.wantCode, e.Code, e.Error)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestFailedTransferOverHTTP(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.clock.Advance(31 * 24 * time.Hour)
	status, raw := f.call(t, "POST", "/trades/1/emergency-refund", "buyer", nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	f.transfer.Err = errors.Wrap(errors.ErrDatabase, "bank offline")
	status, raw = f.call(t, "POST", "/withdraw", "buyer", nil)
	require.Equal(t, http.StatusBadGateway, status, string(raw))

	// The balance was restored.
	status, raw = f.call(t, "GET", "/balances/"+addr("buyer"), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"amount": 100`)
}

func TestUnknownTransferOverHTTP(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.clock.Advance(31 * 24 * time.Hour)
	status, raw := f.call(t, "POST", "/trades/1/emergency-refund", "buyer", nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	f.transfer.Err = errors.Wrap(balance.ErrTransferUnknown, "no reply")
	status, raw = f.call(t, "POST", "/withdraw", "buyer", nil)
	require.Equal(t, http.StatusBadGateway, status, string(raw))

	// The payout is pending, not returned to the balance.
	status, raw = f.call(t, "GET", "/balances/"+addr("buyer"), "", nil)
	require.Equal(t, http.StatusOK, status)
	var bal struct {
		Amount  int64 `json:"amount"`
		Pending *struct {
			ID     uint64 `json:"id"`
			Amount int64  `json:"amount"`
		} `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(raw, &bal))
	assert.Equal(t, int64(0), bal.Amount)
	require.NotNil(t, bal.Pending)
	assert.Equal(t, int64(100), bal.Pending.Amount)

	f.transfer.Err = nil
	status, raw = f.call(t, "POST", "/withdraw", "buyer", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Contains(t, string(raw), `"amount": 100`)
	assert.Equal(t, int64(100), f.transfer.Received(identity.SubjectCondition("buyer").Address()))

	status, raw = f.call(t, "POST", "/withdraw", "buyer", nil)
	require.Equal(t, http.StatusConflict, status, string(raw))
}

func TestWhoAmI(t *testing.T) {
	f := newFixture(t)

	status, raw := f.call(t, "GET", "/whoami", "alice", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var me struct {
		Address weave.Address `json:"address"`
	}
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.Equal(t, identity.SubjectCondition("alice").Address(), me.Address)

	req, err := http.NewRequest("GET", f.srv.URL+"/whoami", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	status, raw := f.call(t, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"chain_id": "tradefin-test"`)

	f.create(t)

	status, raw = f.call(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `tradefin_operations_total{code="0",path="trade/create"} 1`)
}

func TestStatusOf(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":              {nil, http.StatusOK},
		"not found":        {errors.Wrap(errors.ErrNotFound, "trade 3"), http.StatusNotFound},
		"unauthorized":     {errors.ErrUnauthorized, http.StatusForbidden},
		"state":            {errors.ErrState, http.StatusConflict},
		"precondition":     {trade.ErrPrecondition, http.StatusConflict},
		"too early":        {trade.ErrTooEarly, http.StatusConflict},
		"no funds":         {balance.ErrNoFunds, http.StatusConflict},
		"transfer":         {errors.Wrap(balance.ErrTransfer, "offline"), http.StatusBadGateway},
		"transfer unknown": {errors.Wrap(balance.ErrTransferUnknown, "no reply"), http.StatusBadGateway},
		"field error":      {errors.Field("Seller", trade.ErrParty, "missing"), http.StatusBadRequest},
		"multi error":      {errors.Append(errors.ErrAmount, trade.ErrParty), http.StatusBadRequest},
		"panic":            {errors.Wrap(errors.ErrPanic, "boom"), http.StatusInternalServerError},
		"unregistered":     {io.ErrShortWrite, http.StatusInternalServerError},
		"database":         {errors.ErrDatabase, http.StatusInternalServerError},
		"wrapped input":    {errors.Wrap(errors.ErrInput, "bad"), http.StatusBadRequest},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.err))
		})
	}
}
