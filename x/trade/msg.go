package trade

import (
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
)

const (
	pathCreate          = "trade/create"
	pathSubmitDocuments = "trade/submit_documents"
	pathVerifyDocuments = "trade/verify_documents"
	pathMarkShipped     = "trade/mark_shipped"
	pathConfirmDelivery = "trade/confirm_delivery"
	pathRaiseDispute    = "trade/raise_dispute"
	pathResolveDispute  = "trade/resolve_dispute"
	pathEmergencyRefund = "trade/emergency_refund"
)

var (
	_ weave.Msg = (*CreateMsg)(nil)
	_ weave.Msg = (*SubmitDocumentsMsg)(nil)
	_ weave.Msg = (*VerifyDocumentsMsg)(nil)
	_ weave.Msg = (*MarkShippedMsg)(nil)
	_ weave.Msg = (*ConfirmDeliveryMsg)(nil)
	_ weave.Msg = (*RaiseDisputeMsg)(nil)
	_ weave.Msg = (*ResolveDisputeMsg)(nil)
	_ weave.Msg = (*EmergencyRefundMsg)(nil)
)

func (CreateMsg) Path() string          { return pathCreate }
func (SubmitDocumentsMsg) Path() string { return pathSubmitDocuments }
func (VerifyDocumentsMsg) Path() string { return pathVerifyDocuments }
func (MarkShippedMsg) Path() string     { return pathMarkShipped }
func (ConfirmDeliveryMsg) Path() string { return pathConfirmDelivery }
func (RaiseDisputeMsg) Path() string    { return pathRaiseDispute }
func (ResolveDisputeMsg) Path() string  { return pathResolveDispute }
func (EmergencyRefundMsg) Path() string { return pathEmergencyRefund }

// Validate checks the creation request. Limits that depend on the
// configuration are checked by the handler.
func (m *CreateMsg) Validate() error {
	var errs error
	if m.Value <= 0 {
		errs = errors.AppendField(errs, "Value", errors.Wrapf(errors.ErrAmount, "%d", m.Value))
	}
	errs = errors.AppendField(errs, "Seller", validateParty(m.Seller))
	errs = errors.AppendField(errs, "Verifier", validateParty(m.Verifier))
	return errs
}

// The trade messages below are checked only for the trade id. Everything
// else is checked by the handler, after the caller and the trade state.

func (m *SubmitDocumentsMsg) Validate() error { return validateTradeID(m.TradeID) }
func (m *VerifyDocumentsMsg) Validate() error { return validateTradeID(m.TradeID) }
func (m *MarkShippedMsg) Validate() error     { return validateTradeID(m.TradeID) }
func (m *ConfirmDeliveryMsg) Validate() error { return validateTradeID(m.TradeID) }
func (m *RaiseDisputeMsg) Validate() error    { return validateTradeID(m.TradeID) }
func (m *ResolveDisputeMsg) Validate() error  { return validateTradeID(m.TradeID) }
func (m *EmergencyRefundMsg) Validate() error { return validateTradeID(m.TradeID) }

// validateTradeID rejects the reserved id zero, that never references a
// trade.
func validateTradeID(id uint64) error {
	if id == 0 {
		return errors.Field("TradeID", errors.ErrNotFound, "trade id 0")
	}
	return nil
}
