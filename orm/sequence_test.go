package orm

import (
	"bytes"
	"testing"

	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/store"
	"github.com/iov-one/tradefin/weavetest/assert"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()
	seq := NewSequence("trade", "id")

	latest, err := seq.Latest(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), latest)

	var prev []byte
	for want := uint64(1); want <= 300; want++ {
		n, err := seq.NextInt(db)
		assert.Nil(t, err)
		raw := EncodeSequence(n)
		got, err := DecodeSequence(raw)
		assert.Nil(t, err)
		assert.Equal(t, want, got)
		if prev != nil && bytes.Compare(prev, raw) >= 0 {
			t.Fatalf("sequence keys must be increasing: %x >= %x", prev, raw)
		}
		prev = raw
	}

	latest, err = seq.Latest(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(300), latest)

	// Independent sequences do not share state.
	n, err := NewSequence("trade", "other").NextInt(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestSequenceOverflow(t *testing.T) {
	db := store.MemStore()
	seq := NewSequence("trade", "id")
	assert.Nil(t, db.Set(seq.Key(), EncodeSequence(^uint64(0))))
	_, err := seq.NextInt(db)
	assert.IsErr(t, errors.ErrOverflow, err)
}

func TestDecodeSequenceInvalid(t *testing.T) {
	_, err := DecodeSequence([]byte{1, 2})
	assert.IsErr(t, errors.ErrInput, err)
}
