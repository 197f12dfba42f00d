package trade

import (
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/x"
)

// RegisterRoutes registers handlers for all trade operations.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, bank Bank) {
	l := newLedger(bank)
	r.Handle(&CreateMsg{}, CreateHandler{auth: auth, ledger: l})
	r.Handle(&SubmitDocumentsMsg{}, SubmitDocumentsHandler{auth: auth, ledger: l})
	r.Handle(&VerifyDocumentsMsg{}, VerifyDocumentsHandler{auth: auth, ledger: l})
	r.Handle(&MarkShippedMsg{}, MarkShippedHandler{auth: auth, ledger: l})
	r.Handle(&ConfirmDeliveryMsg{}, ConfirmDeliveryHandler{auth: auth, ledger: l})
	r.Handle(&RaiseDisputeMsg{}, RaiseDisputeHandler{auth: auth, ledger: l})
	r.Handle(&ResolveDisputeMsg{}, ResolveDisputeHandler{auth: auth, ledger: l})
	r.Handle(&EmergencyRefundMsg{}, EmergencyRefundHandler{auth: auth, ledger: l})
}

func callerAddress(ctx weave.Context, auth x.Authenticator) weave.Address {
	c := x.MainSigner(ctx, auth)
	if c == nil {
		return nil
	}
	return c.Address()
}

// CreateHandler opens a new trade, paid by the caller.
type CreateHandler struct {
	auth   x.Authenticator
	ledger ledger
}

var _ weave.Handler = CreateHandler{}

func (h CreateHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver allocates a new trade id, stores the trade and deposits its
// value.
func (h CreateHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, buyer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := blockTime(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.ledger.bank.Deposit(ctx, db, msg.Value); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}

	weave.Lock(ctx, tradeSeq.Key())
	id, err := tradeSeq.NextInt(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire trade id")
	}
	t := &Trade{
		ID:              id,
		Buyer:           buyer,
		Seller:          msg.Seller,
		Verifier:        msg.Verifier,
		Value:           msg.Value,
		ShipmentDetails: msg.ShipmentDetails,
		State:           StatePaymentHeld,
		CreatedAt:       now,
	}
	if err := h.ledger.save(db, t); err != nil {
		return nil, err
	}

	return &weave.DeliverResult{
		Data: TradeKey(id),
		Events: []weave.Event{
			TradeCreated{ID: id, Buyer: t.Buyer, Seller: t.Seller, Value: t.Value},
		},
	}, nil
}

func (h CreateHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateMsg, weave.Address, error) {
	var msg CreateMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	buyer := callerAddress(ctx, h.auth)
	if buyer == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no caller")
	}
	if buyer.Equals(msg.Seller) {
		return nil, nil, errors.Wrap(ErrSameParty, "buyer cannot be the seller")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if n := len(msg.ShipmentDetails); n > int(conf.MaxDetailsLength) {
		return nil, nil, errors.Field("ShipmentDetails", errors.ErrInput, "%d bytes, maximum is %d", n, conf.MaxDetailsLength)
	}
	return &msg, buyer, nil
}

// SubmitDocumentsHandler stores the documents fingerprint, submitted by
// the seller.
type SubmitDocumentsHandler struct {
	auth   x.Authenticator
	ledger ledger
}

var _ weave.Handler = SubmitDocumentsHandler{}

func (h SubmitDocumentsHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h SubmitDocumentsHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.DocumentHash = msg.DocumentHash
	if err := h.ledger.save(db, t); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{
		Events: []weave.Event{DocumentSubmitted{ID: t.ID, Hash: t.DocumentHash}},
	}, nil
}

func (h SubmitDocumentsHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*SubmitDocumentsMsg, *Trade, error) {
	var msg SubmitDocumentsMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := authorize(ctx, db, msg.Path(), msg.TradeID, callerAddress(ctx, h.auth))
	if err != nil {
		return nil, nil, err
	}
	if len(t.DocumentHash) != 0 {
		return nil, nil, errors.Wrap(errors.ErrState, "documents already submitted")
	}
	if err := validateHash(msg.DocumentHash); err != nil {
		return nil, nil, errors.Field("DocumentHash", err, "")
	}
	return &msg, t, nil
}

// VerifyDocumentsHandler records the verifier attestation of the submitted
// documents.
type VerifyDocumentsHandler struct {
	auth   x.Authenticator
	ledger ledger
}

var _ weave.Handler = VerifyDocumentsHandler{}

func (h VerifyDocumentsHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h VerifyDocumentsHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.DocumentVerified = true
	if err := h.ledger.save(db, t); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{
		Events: []weave.Event{DocumentVerified{ID: t.ID, Verifier: t.Verifier}},
	}, nil
}

func (h VerifyDocumentsHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*Trade, error) {
	var msg VerifyDocumentsMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	t, err := authorize(ctx, db, msg.Path(), msg.TradeID, callerAddress(ctx, h.auth))
	if err != nil {
		return nil, err
	}
	if len(t.DocumentHash) == 0 {
		return nil, errors.Wrap(ErrPrecondition, "documents not submitted")
	}
	return t, nil
}

// MarkShippedHandler moves a trade with verified documents to the shipped
// state.
type MarkShippedHandler struct {
	auth   x.Authenticator
	ledger ledger
}

var _ weave.Handler = MarkShippedHandler{}

func (h MarkShippedHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h MarkShippedHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.State = StateShipped
	if err := h.ledger.save(db, t); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{
		Events: []weave.Event{MarkedShipped{ID: t.ID}},
	}, nil
}

func (h MarkShippedHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*Trade, error) {
	var msg MarkShippedMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	t, err := authorize(ctx, db, msg.Path(), msg.TradeID, callerAddress(ctx, h.auth))
	if err != nil {
		return nil, err
	}
	if !t.DocumentVerified {
		return nil, errors.Wrap(ErrPrecondition, "documents not verified")
	}
	return t, nil
}

// ConfirmDeliveryHandler confirms the delivery of the goods, which
// releases the trade value to the seller.
type ConfirmDeliveryHandler struct {
	auth   x.Authenticator
	ledger ledger
}

var _ weave.Handler = ConfirmDeliveryHandler{}

func (h ConfirmDeliveryHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver passes the trade through the delivered state straight to the
// released state.
func (h ConfirmDeliveryHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.State = StateDelivered
	events := []weave.Event{DeliveryConfirmed{ID: t.ID}}

	released, err := h.ledger.release(ctx, db, t)
	if err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Events: append(events, released...)}, nil
}

func (h ConfirmDeliveryHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*Trade, error) {
	var msg ConfirmDeliveryMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return authorize(ctx, db, msg.Path(), msg.TradeID, callerAddress(ctx, h.auth))
}

// RaiseDisputeHandler puts a trade under arbitration of the verifier.
type RaiseDisputeHandler struct {
	auth   x.Authenticator
	ledger ledger
}

var _ weave.Handler = RaiseDisputeHandler{}

func (h RaiseDisputeHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h RaiseDisputeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.State = StateDisputed
	if err := h.ledger.save(db, t); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{
		Events: []weave.Event{DisputeRaised{ID: t.ID}},
	}, nil
}

func (h RaiseDisputeHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*Trade, error) {
	var msg RaiseDisputeMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return authorize(ctx, db, msg.Path(), msg.TradeID, callerAddress(ctx, h.auth))
}

// ResolveDisputeHandler disposes a disputed trade as decided by the
// verifier.
type ResolveDisputeHandler struct {
	auth   x.Authenticator
	ledger ledger
}

var _ weave.Handler = ResolveDisputeHandler{}

func (h ResolveDisputeHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h ResolveDisputeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.Resolution = msg.Reason

	var events []weave.Event
	if msg.RefundToBuyer {
		events, err = h.ledger.refund(ctx, db, t)
	} else {
		events, err = h.ledger.release(ctx, db, t)
	}
	if err != nil {
		return nil, err
	}
	events = append(events, DisputeResolved{ID: t.ID, Resolver: t.Verifier, Reason: msg.Reason})
	return &weave.DeliverResult{Events: events}, nil
}

func (h ResolveDisputeHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ResolveDisputeMsg, *Trade, error) {
	var msg ResolveDisputeMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := authorize(ctx, db, msg.Path(), msg.TradeID, callerAddress(ctx, h.auth))
	if err != nil {
		return nil, nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	if n := len(msg.Reason); n > int(conf.MaxReasonLength) {
		return nil, nil, errors.Field("Reason", errors.ErrInput, "%d bytes, maximum is %d", n, conf.MaxReasonLength)
	}
	return &msg, t, nil
}

// EmergencyRefundHandler returns the value of a trade that was not shipped
// in time back to the buyer.
type EmergencyRefundHandler struct {
	auth   x.Authenticator
	ledger ledger
}

var _ weave.Handler = EmergencyRefundHandler{}

func (h EmergencyRefundHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h EmergencyRefundHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	events, err := h.ledger.refund(ctx, db, t)
	if err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Events: events}, nil
}

func (h EmergencyRefundHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*Trade, error) {
	var msg EmergencyRefundMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	t, err := authorize(ctx, db, msg.Path(), msg.TradeID, callerAddress(ctx, h.auth))
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if _, err := blockTime(ctx); err != nil {
		return nil, err
	}
	deadline := t.CreatedAt.Add(conf.EmergencyRefundDelay.Duration())
	if !weave.IsExpired(ctx, deadline) {
		return nil, errors.Wrapf(ErrTooEarly, "refund available at %s", deadline)
	}
	return t, nil
}
