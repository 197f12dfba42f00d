package trade

import (
	"strconv"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/tradefin"
)

type State int32

const (
	StateInvalid     State = 0
	StatePaymentHeld State = 1
	StateShipped     State = 2
	StateDelivered   State = 3
	StateDisputed    State = 4
	StateReleased    State = 5
	StateRefunded    State = 6
)

var State_name = map[int32]string{
	0: "STATE_INVALID",
	1: "STATE_PAYMENT_HELD",
	2: "STATE_SHIPPED",
	3: "STATE_DELIVERED",
	4: "STATE_DISPUTED",
	5: "STATE_RELEASED",
	6: "STATE_REFUNDED",
}

var State_value = map[string]int32{
	"STATE_INVALID":      0,
	"STATE_PAYMENT_HELD": 1,
	"STATE_SHIPPED":      2,
	"STATE_DELIVERED":    3,
	"STATE_DISPUTED":     4,
	"STATE_RELEASED":     5,
	"STATE_REFUNDED":     6,
}

func (x State) String() string {
	if s, ok := State_name[int32(x)]; ok {
		return s
	}
	return strconv.Itoa(int(x))
}

func init() {
	proto.RegisterEnum("trade.State", State_name, State_value)
}

type Trade struct {
	ID               uint64         `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	Buyer            weave.Address  `protobuf:"bytes,2,opt,name=buyer,proto3,casttype=github.com/iov-one/tradefin.Address" json:"buyer"`
	Seller           weave.Address  `protobuf:"bytes,3,opt,name=seller,proto3,casttype=github.com/iov-one/tradefin.Address" json:"seller"`
	Verifier         weave.Address  `protobuf:"bytes,4,opt,name=verifier,proto3,casttype=github.com/iov-one/tradefin.Address" json:"verifier"`
	Value            int64          `protobuf:"varint,5,opt,name=value,proto3" json:"value"`
	ShipmentDetails  string         `protobuf:"bytes,6,opt,name=shipment_details,json=shipmentDetails,proto3" json:"shipment_details"`
	DocumentHash     Hash           `protobuf:"bytes,7,opt,name=document_hash,json=documentHash,proto3,casttype=github.com/iov-one/tradefin/x/trade.Hash" json:"document_hash,omitempty"`
	DocumentVerified bool           `protobuf:"varint,8,opt,name=document_verified,json=documentVerified,proto3" json:"document_verified"`
	State            State          `protobuf:"varint,9,opt,name=state,proto3,enum=trade.State" json:"state"`
	CreatedAt        weave.UnixTime `protobuf:"varint,10,opt,name=created_at,json=createdAt,proto3,casttype=github.com/iov-one/tradefin.UnixTime" json:"created_at"`
	Resolution       string         `protobuf:"bytes,11,opt,name=resolution,proto3" json:"resolution,omitempty"`
}

func (m *Trade) Reset()         { *m = Trade{} }
func (m *Trade) String() string { return proto.CompactTextString(m) }
func (*Trade) ProtoMessage()    {}

type Configuration struct {
	EmergencyRefundDelay weave.UnixDuration `protobuf:"varint,1,opt,name=emergency_refund_delay,json=emergencyRefundDelay,proto3,casttype=github.com/iov-one/tradefin.UnixDuration" json:"emergency_refund_delay"`
	MaxDetailsLength     int32              `protobuf:"varint,2,opt,name=max_details_length,json=maxDetailsLength,proto3" json:"max_details_length"`
	MaxReasonLength      int32              `protobuf:"varint,3,opt,name=max_reason_length,json=maxReasonLength,proto3" json:"max_reason_length"`
}

func (m *Configuration) Reset()         { *m = Configuration{} }
func (m *Configuration) String() string { return proto.CompactTextString(m) }
func (*Configuration) ProtoMessage()    {}

type CreateMsg struct {
	Seller          weave.Address `protobuf:"bytes,1,opt,name=seller,proto3,casttype=github.com/iov-one/tradefin.Address" json:"seller"`
	Verifier        weave.Address `protobuf:"bytes,2,opt,name=verifier,proto3,casttype=github.com/iov-one/tradefin.Address" json:"verifier"`
	ShipmentDetails string        `protobuf:"bytes,3,opt,name=shipment_details,json=shipmentDetails,proto3" json:"shipment_details"`
	Value           int64         `protobuf:"varint,4,opt,name=value,proto3" json:"value"`
}

func (m *CreateMsg) Reset()         { *m = CreateMsg{} }
func (m *CreateMsg) String() string { return proto.CompactTextString(m) }
func (*CreateMsg) ProtoMessage()    {}

type SubmitDocumentsMsg struct {
	TradeID      uint64 `protobuf:"varint,1,opt,name=trade_id,json=tradeId,proto3" json:"trade_id"`
	DocumentHash Hash   `protobuf:"bytes,2,opt,name=document_hash,json=documentHash,proto3,casttype=github.com/iov-one/tradefin/x/trade.Hash" json:"document_hash"`
}

func (m *SubmitDocumentsMsg) Reset()         { *m = SubmitDocumentsMsg{} }
func (m *SubmitDocumentsMsg) String() string { return proto.CompactTextString(m) }
func (*SubmitDocumentsMsg) ProtoMessage()    {}

type VerifyDocumentsMsg struct {
	TradeID uint64 `protobuf:"varint,1,opt,name=trade_id,json=tradeId,proto3" json:"trade_id"`
}

func (m *VerifyDocumentsMsg) Reset()         { *m = VerifyDocumentsMsg{} }
func (m *VerifyDocumentsMsg) String() string { return proto.CompactTextString(m) }
func (*VerifyDocumentsMsg) ProtoMessage()    {}

type MarkShippedMsg struct {
	TradeID uint64 `protobuf:"varint,1,opt,name=trade_id,json=tradeId,proto3" json:"trade_id"`
}

func (m *MarkShippedMsg) Reset()         { *m = MarkShippedMsg{} }
func (m *MarkShippedMsg) String() string { return proto.CompactTextString(m) }
func (*MarkShippedMsg) ProtoMessage()    {}

type ConfirmDeliveryMsg struct {
	TradeID uint64 `protobuf:"varint,1,opt,name=trade_id,json=tradeId,proto3" json:"trade_id"`
}

func (m *ConfirmDeliveryMsg) Reset()         { *m = ConfirmDeliveryMsg{} }
func (m *ConfirmDeliveryMsg) String() string { return proto.CompactTextString(m) }
func (*ConfirmDeliveryMsg) ProtoMessage()    {}

type RaiseDisputeMsg struct {
	TradeID uint64 `protobuf:"varint,1,opt,name=trade_id,json=tradeId,proto3" json:"trade_id"`
}

func (m *RaiseDisputeMsg) Reset()         { *m = RaiseDisputeMsg{} }
func (m *RaiseDisputeMsg) String() string { return proto.CompactTextString(m) }
func (*RaiseDisputeMsg) ProtoMessage()    {}

type ResolveDisputeMsg struct {
	TradeID       uint64 `protobuf:"varint,1,opt,name=trade_id,json=tradeId,proto3" json:"trade_id"`
	RefundToBuyer bool   `protobuf:"varint,2,opt,name=refund_to_buyer,json=refundToBuyer,proto3" json:"refund_to_buyer"`
	Reason        string `protobuf:"bytes,3,opt,name=reason,proto3" json:"reason"`
}

func (m *ResolveDisputeMsg) Reset()         { *m = ResolveDisputeMsg{} }
func (m *ResolveDisputeMsg) String() string { return proto.CompactTextString(m) }
func (*ResolveDisputeMsg) ProtoMessage()    {}

type EmergencyRefundMsg struct {
	TradeID uint64 `protobuf:"varint,1,opt,name=trade_id,json=tradeId,proto3" json:"trade_id"`
}

func (m *EmergencyRefundMsg) Reset()         { *m = EmergencyRefundMsg{} }
func (m *EmergencyRefundMsg) String() string { return proto.CompactTextString(m) }
func (*EmergencyRefundMsg) ProtoMessage()    {}
