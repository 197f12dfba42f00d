package weavetest

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/iov-one/tradefin"
)

var condSeq uint64

// NewCondition returns a unique condition. Each call returns a different
// condition, and so a different address.
func NewCondition() weave.Condition {
	var data [8]byte
	binary.BigEndian.PutUint64(data[:], atomic.AddUint64(&condSeq, 1))
	return weave.NewCondition("test", "seq", data[:])
}
