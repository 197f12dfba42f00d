/*
Package events delivers the events of executed operations to the outside
world. Observers are registered with the engine and called after every
successful operation.
*/
package events

import (
	"encoding/json"
	"time"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
)

// Envelope is the published form of a single event.
type Envelope struct {
	Name    string          `json:"name"`
	ChainID string          `json:"chain_id,omitempty"`
	Height  int64           `json:"height"`
	Time    time.Time       `json:"time"`
	Seq     int             `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope wraps the event emitted as seq-th by the operation executed
// with given context.
func NewEnvelope(ctx weave.Context, seq int, ev weave.Event) (*Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrType, "marshal %s event: %s", ev.EventName(), err)
	}
	height, _ := weave.GetHeight(ctx)
	now, _ := weave.BlockTime(ctx)
	return &Envelope{
		Name:    ev.EventName(),
		ChainID: weave.GetChainID(ctx),
		Height:  height,
		Time:    now.UTC(),
		Seq:     seq,
		Payload: payload,
	}, nil
}

// TradeID returns the id of the trade the event is about, if any.
func (e *Envelope) TradeID() (uint64, bool) {
	var v struct {
		ID *uint64 `json:"id"`
	}
	if err := json.Unmarshal(e.Payload, &v); err != nil || v.ID == nil {
		return 0, false
	}
	return *v.ID, true
}
