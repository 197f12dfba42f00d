package trade

import (
	"encoding/hex"
	"encoding/json"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/orm"
)

// HashLength is the size of the document fingerprint.
const HashLength = 32

// Hash is a document fingerprint. It is hex encoded in JSON, the same way
// it is accepted from clients.
type Hash []byte

// ParseHash decodes a hex encoded fingerprint. The length is not checked.
func ParseHash(enc string) (Hash, error) {
	if enc == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrap(ErrHash, "not hex encoded")
	}
	return raw, nil
}

func (h Hash) String() string {
	return hex.EncodeToString(h)
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode json")
	}
	hash, err := ParseHash(enc)
	if err != nil {
		return err
	}
	*h = hash
	return nil
}

const bucketName = "trade"

var tradeSeq = orm.NewSequence(bucketName, "id")

// IsTerminal returns true for the states that a trade never leaves.
func (s State) IsTerminal() bool {
	return s == StateReleased || s == StateRefunded
}

var _ orm.Model = (*Trade)(nil)

// Validate ensures the trade is valid.
func (t *Trade) Validate() error {
	var errs error
	if t.ID == 0 {
		errs = errors.AppendField(errs, "ID", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Buyer", validateParty(t.Buyer))
	errs = errors.AppendField(errs, "Seller", validateParty(t.Seller))
	errs = errors.AppendField(errs, "Verifier", validateParty(t.Verifier))
	if t.Buyer.Equals(t.Seller) {
		errs = errors.AppendField(errs, "Seller", ErrSameParty)
	}
	if t.Value <= 0 {
		errs = errors.AppendField(errs, "Value", errors.ErrAmount)
	}
	if len(t.DocumentHash) != 0 {
		errs = errors.AppendField(errs, "DocumentHash", validateHash(t.DocumentHash))
	}
	if t.DocumentVerified && len(t.DocumentHash) == 0 {
		errs = errors.AppendField(errs, "DocumentVerified", ErrPrecondition)
	}
	switch t.State {
	case StatePaymentHeld, StateShipped, StateDisputed, StateReleased, StateRefunded:
	default:
		errs = errors.AppendField(errs, "State", errors.ErrState)
	}
	if t.CreatedAt == 0 {
		errs = errors.AppendField(errs, "CreatedAt", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "CreatedAt", t.CreatedAt.Validate())
	}
	return errs
}

func validateParty(a weave.Address) error {
	if a.IsZero() {
		return errors.Wrap(ErrParty, "required")
	}
	if err := a.Validate(); err != nil {
		return errors.Wrap(ErrParty, err.Error())
	}
	return nil
}

func validateHash(h []byte) error {
	if len(h) != HashLength {
		return errors.Wrapf(ErrHash, "must be %d bytes, got %d", HashLength, len(h))
	}
	for _, b := range h {
		if b != 0 {
			return nil
		}
	}
	return errors.Wrap(ErrHash, "empty")
}

// NewBucket returns a bucket that stores trades under their sequence id.
// Trades are indexed by each party.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(bucketName, &Trade{},
		orm.WithIndex("buyer", partyIndexer(func(t *Trade) weave.Address { return t.Buyer }), false),
		orm.WithIndex("seller", partyIndexer(func(t *Trade) weave.Address { return t.Seller }), false),
		orm.WithIndex("verifier", partyIndexer(func(t *Trade) weave.Address { return t.Verifier }), false),
	)
}

func partyIndexer(party func(*Trade) weave.Address) orm.Indexer {
	return func(m orm.Model) ([]byte, error) {
		t, ok := m.(*Trade)
		if !ok {
			return nil, errors.Wrapf(errors.ErrType, "%T", m)
		}
		return party(t), nil
	}
}

// TradeKey returns the primary key of the trade with given id.
func TradeKey(id uint64) []byte {
	return orm.EncodeSequence(id)
}

// LockKey returns the key of the entity lock protecting given trade.
func LockKey(id uint64) []byte {
	return append([]byte(bucketName+":"), TradeKey(id)...)
}

// Get returns the trade with given id. ErrNotFound is returned for the id
// zero and any id that was not allocated.
func Get(db weave.ReadOnlyKVStore, id uint64) (*Trade, error) {
	if id == 0 {
		return nil, errors.Wrap(errors.ErrNotFound, "trade id 0")
	}
	var t Trade
	if err := NewBucket().One(db, TradeKey(id), &t); err != nil {
		return nil, errors.Wrapf(err, "trade %d", id)
	}
	return &t, nil
}

// Role names a trade party, for listing trades by party.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleSeller   Role = "seller"
	RoleVerifier Role = "verifier"
)

// ListByParty returns all trades where given address holds the role,
// ordered by id.
func ListByParty(db weave.ReadOnlyKVStore, role Role, addr weave.Address) ([]*Trade, error) {
	switch role {
	case RoleBuyer, RoleSeller, RoleVerifier:
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown role %q", role)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	var trades []*Trade
	if _, err := NewBucket().ByIndex(db, string(role), addr, &trades); err != nil {
		return nil, errors.Wrapf(err, "trades by %s", role)
	}
	return trades, nil
}

// NextID returns the id that the next created trade is assigned.
func NextID(db weave.ReadOnlyKVStore) (uint64, error) {
	latest, err := tradeSeq.Latest(db)
	if err != nil {
		return 0, err
	}
	return latest + 1, nil
}
