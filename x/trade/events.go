package trade

import (
	"github.com/iov-one/tradefin"
)

// TradeCreated is emitted when a new trade holds the deposited value.
type TradeCreated struct {
	ID     uint64        `json:"id"`
	Buyer  weave.Address `json:"buyer"`
	Seller weave.Address `json:"seller"`
	Value  int64         `json:"value"`
}

func (TradeCreated) EventName() string { return "TradeCreated" }

type DocumentSubmitted struct {
	ID   uint64 `json:"id"`
	Hash Hash   `json:"hash"`
}

func (DocumentSubmitted) EventName() string { return "DocumentSubmitted" }

type DocumentVerified struct {
	ID       uint64        `json:"id"`
	Verifier weave.Address `json:"verifier"`
}

func (DocumentVerified) EventName() string { return "DocumentVerified" }

type MarkedShipped struct {
	ID uint64 `json:"id"`
}

func (MarkedShipped) EventName() string { return "MarkedShipped" }

type DeliveryConfirmed struct {
	ID uint64 `json:"id"`
}

func (DeliveryConfirmed) EventName() string { return "DeliveryConfirmed" }

// PaymentReleased is emitted when the trade value is credited to the seller.
type PaymentReleased struct {
	ID     uint64        `json:"id"`
	Seller weave.Address `json:"seller"`
	Amount int64         `json:"amount"`
}

func (PaymentReleased) EventName() string { return "PaymentReleased" }

// Refunded is emitted when the trade value is credited back to the buyer.
type Refunded struct {
	ID     uint64        `json:"id"`
	Buyer  weave.Address `json:"buyer"`
	Amount int64         `json:"amount"`
}

func (Refunded) EventName() string { return "Refunded" }

type DisputeRaised struct {
	ID uint64 `json:"id"`
}

func (DisputeRaised) EventName() string { return "DisputeRaised" }

type DisputeResolved struct {
	ID       uint64        `json:"id"`
	Resolver weave.Address `json:"resolver"`
	Reason   string        `json:"reason"`
}

func (DisputeResolved) EventName() string { return "DisputeResolved" }
