package orm

import (
	"encoding/binary"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
)

// Sequence maintains a counter. Each value is greater than the last and so is
// its EncodeSequence form when compared with bytes.Compare. The first value
// returned is 1.
type Sequence struct {
	id []byte
}

// NewSequence returns a sequence counter. Sequence is using following pattern
// to construct a key:
//    _s.<bucket>:<name>
func NewSequence(bucket, name string) Sequence {
	return Sequence{
		id: []byte("_s." + bucket + ":" + name),
	}
}

// Key returns the database key this sequence is stored under.
func (s Sequence) Key() []byte {
	return s.id
}

// NextInt increments the sequence and returns its state as int.
func (s Sequence) NextInt(db weave.KVStore) (uint64, error) {
	val, err := s.Latest(db)
	if err != nil {
		return 0, err
	}
	if val == ^uint64(0) {
		return 0, errors.Wrap(errors.ErrOverflow, "sequence exhausted")
	}
	val++
	if err := db.Set(s.id, EncodeSequence(val)); err != nil {
		return 0, errors.Wrap(err, "cannot store sequence")
	}
	return val, nil
}

// Latest returns the recently returned value of the sequence, or zero if no
// value was ever allocated. This method does not modify the sequence state.
func (s Sequence) Latest(db weave.ReadOnlyKVStore) (uint64, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, errors.Wrap(err, "cannot load sequence")
	}
	if raw == nil {
		return 0, nil
	}
	return DecodeSequence(raw)
}

// DecodeSequence converts a key created by the sequence back into its
// numeric value.
func DecodeSequence(bz []byte) (uint64, error) {
	if len(bz) != 8 {
		return 0, errors.Wrapf(errors.ErrInput, "sequence value must be 8 bytes, got %d", len(bz))
	}
	return binary.BigEndian.Uint64(bz), nil
}

// EncodeSequence returns the 8 bytes big endian representation of given
// value.
func EncodeSequence(val uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, val)
	return bz
}
