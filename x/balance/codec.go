package balance

import (
	"github.com/gogo/protobuf/proto"
)

type Balance struct {
	Amount int64 `protobuf:"varint,1,opt,name=amount,proto3" json:"amount"`
}

func (m *Balance) Reset()         { *m = Balance{} }
func (m *Balance) String() string { return proto.CompactTextString(m) }
func (*Balance) ProtoMessage()    {}

type Reserve struct {
	Held      int64 `protobuf:"varint,1,opt,name=held,proto3" json:"held"`
	Deposited int64 `protobuf:"varint,2,opt,name=deposited,proto3" json:"deposited"`
	Withdrawn int64 `protobuf:"varint,3,opt,name=withdrawn,proto3" json:"withdrawn"`
}

func (m *Reserve) Reset()         { *m = Reserve{} }
func (m *Reserve) String() string { return proto.CompactTextString(m) }
func (*Reserve) ProtoMessage()    {}

type Withdrawal struct {
	ID     uint64 `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	Amount int64  `protobuf:"varint,2,opt,name=amount,proto3" json:"amount"`
}

func (m *Withdrawal) Reset()         { *m = Withdrawal{} }
func (m *Withdrawal) String() string { return proto.CompactTextString(m) }
func (*Withdrawal) ProtoMessage()    {}
