package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/orm"
	"github.com/iov-one/tradefin/x/balance"
	"github.com/iov-one/tradefin/x/trade"
)

// maxBodySize limits the size of a request body.
const maxBodySize = 64 << 10

// tx carries a single message to the engine.
type tx struct {
	msg weave.Msg
}

var _ weave.Tx = tx{}

func (t tx) GetMsg() (weave.Msg, error) {
	return t.msg, nil
}

type eventView struct {
	Name    string      `json:"name"`
	Payload weave.Event `json:"payload"`
}

type operationResult struct {
	Trade  *trade.Trade `json:"trade,omitempty"`
	Events []eventView  `json:"events"`
}

func (s *server) getTrade(w http.ResponseWriter, r *http.Request) {
	id, err := tradeID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	t, err := s.loadTrade(r, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, t)
}

func (s *server) listTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		role trade.Role
		enc  string
		n    int
	)
	for _, candidate := range []trade.Role{trade.RoleBuyer, trade.RoleSeller, trade.RoleVerifier} {
		if v := q.Get(string(candidate)); v != "" {
			role, enc = candidate, v
			n++
		}
	}
	if n != 1 {
		s.fail(w, errors.Wrap(errors.ErrInput, "exactly one of buyer, seller or verifier filter is required"))
		return
	}
	addr, err := weave.ParseAddress(enc)
	if err != nil {
		s.fail(w, errors.Field(string(role), err, "invalid address"))
		return
	}

	var trades []*trade.Trade
	err = s.engine.View(r.Context(), func(ctx weave.Context, db weave.ReadOnlyKVStore) error {
		var err error
		trades, err = trade.ListByParty(db, role, addr)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	if trades == nil {
		trades = []*trade.Trade{}
	}
	JSONResp(w, http.StatusOK, struct {
		Objects []*trade.Trade `json:"objects"`
	}{
		Objects: trades,
	})
}

func (s *server) createTrade(w http.ResponseWriter, r *http.Request) {
	var msg trade.CreateMsg
	if err := decodeBody(r, &msg); err != nil {
		s.fail(w, err)
		return
	}
	res, ok := s.deliver(w, r, &msg)
	if !ok {
		return
	}
	id, err := orm.DecodeSequence(res.Data)
	if err != nil {
		s.fail(w, errors.Wrap(err, "created trade id"))
		return
	}
	s.respond(w, r, http.StatusCreated, id, res)
}

func (s *server) submitDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := tradeID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var body struct {
		DocumentHash string `json:"document_hash"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	hash, err := trade.ParseHash(body.DocumentHash)
	if err != nil {
		s.fail(w, errors.Field("document_hash", err, ""))
		return
	}
	res, ok := s.deliver(w, r, &trade.SubmitDocumentsMsg{TradeID: id, DocumentHash: hash})
	if !ok {
		return
	}
	s.respond(w, r, http.StatusOK, id, res)
}

func (s *server) resolveDispute(w http.ResponseWriter, r *http.Request) {
	id, err := tradeID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var body struct {
		RefundToBuyer bool   `json:"refund_to_buyer"`
		Reason        string `json:"reason"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	msg := &trade.ResolveDisputeMsg{
		TradeID:       id,
		RefundToBuyer: body.RefundToBuyer,
		Reason:        body.Reason,
	}
	res, ok := s.deliver(w, r, msg)
	if !ok {
		return
	}
	s.respond(w, r, http.StatusOK, id, res)
}

func verifyMsg(id uint64) weave.Msg          { return &trade.VerifyDocumentsMsg{TradeID: id} }
func shipMsg(id uint64) weave.Msg            { return &trade.MarkShippedMsg{TradeID: id} }
func deliverMsg(id uint64) weave.Msg         { return &trade.ConfirmDeliveryMsg{TradeID: id} }
func disputeMsg(id uint64) weave.Msg         { return &trade.RaiseDisputeMsg{TradeID: id} }
func emergencyRefundMsg(id uint64) weave.Msg { return &trade.EmergencyRefundMsg{TradeID: id} }

// tradeOperation returns a handler of an operation that takes no input
// other than the trade id.
func (s *server) tradeOperation(build func(id uint64) weave.Msg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := tradeID(r)
		if err != nil {
			s.fail(w, err)
			return
		}
		res, ok := s.deliver(w, r, build(id))
		if !ok {
			return
		}
		s.respond(w, r, http.StatusOK, id, res)
	}
}

// deliver executes the message. On failure the error response is written
// and false is returned.
func (s *server) deliver(w http.ResponseWriter, r *http.Request, msg weave.Msg) (*weave.DeliverResult, bool) {
	res, err := s.engine.Deliver(r.Context(), tx{msg: msg})
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return res, true
}

// respond writes the events of the executed operation together with the
// current state of the trade.
func (s *server) respond(w http.ResponseWriter, r *http.Request, status int, id uint64, res *weave.DeliverResult) {
	out := operationResult{Events: make([]eventView, 0, len(res.Events))}
	for _, ev := range res.Events {
		out.Events = append(out.Events, eventView{Name: ev.EventName(), Payload: ev})
	}
	t, err := s.loadTrade(r, id)
	if err != nil {
		// The operation succeeded, only the read failed.
		s.logger.Error("cannot load trade", "id", id, "err", err)
	}
	out.Trade = t
	JSONResp(w, status, out)
}

func (s *server) loadTrade(r *http.Request, id uint64) (*trade.Trade, error) {
	var t *trade.Trade
	err := s.engine.View(r.Context(), func(ctx weave.Context, db weave.ReadOnlyKVStore) error {
		var err error
		t, err = trade.Get(db, id)
		return err
	})
	return t, err
}

func tradeID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Field("id", errors.ErrInput, "invalid trade id %q", raw)
	}
	return id, nil
}

// decodeBody unmarshals the JSON request body. An empty body leaves the
// destination untouched.
func decodeBody(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	switch err := dec.Decode(dest); {
	case err == nil, err == io.EOF:
		return nil
	case errors.Code(err) != 1:
		// Address decoding reports a registered error.
		return err
	default:
		return errors.Wrapf(errors.ErrInput, "invalid JSON body: %s", err)
	}
}

func isConflict(err error) bool {
	return errors.ErrState.Is(err) ||
		trade.ErrPrecondition.Is(err) ||
		trade.ErrTooEarly.Is(err) ||
		balance.ErrNoFunds.Is(err)
}

func isBadInput(err error) bool {
	for _, kind := range []*errors.Error{
		errors.ErrInput,
		errors.ErrAmount,
		errors.ErrMsg,
		errors.ErrEmpty,
		errors.ErrType,
		trade.ErrParty,
		trade.ErrSameParty,
		trade.ErrHash,
	} {
		if kind.Is(err) {
			return true
		}
	}
	return false
}
