package events

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/weavetest"
	"github.com/iov-one/tradefin/x/trade"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

type recordingWriter struct {
	err error
	// started if set receives a value when a write begins. The write
	// then waits until release is closed.
	started chan struct{}
	release chan struct{}

	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.started != nil {
		w.started <- struct{}{}
		<-w.release
	}
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	w.msgs = append(w.msgs, msgs...)
	w.mu.Unlock()
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

type nameless struct{}

func (nameless) EventName() string { return "Nameless" }

func operationContext() weave.Context {
	ctx := weave.WithHeight(context.Background(), 12)
	ctx = weave.WithChainID(ctx, "tradefin-test")
	return weave.WithBlockTime(ctx, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestKafkaPublisher(t *testing.T) {
	seller := weavetest.NewCondition().Address()
	w := &recordingWriter{}
	p := NewKafkaPublisher(w, log.NewNopLogger())

	p.Observe(operationContext(), []weave.Event{
		trade.DeliveryConfirmed{ID: 7},
		trade.PaymentReleased{ID: 7, Seller: seller, Amount: 40},
		nameless{},
	})
	// Operations without events publish nothing.
	p.Observe(operationContext(), nil)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	require.Equal(t, 3, len(w.msgs))

	assert.Equal(t, "7", string(w.msgs[0].Key))
	assert.Equal(t, "7", string(w.msgs[1].Key))
	assert.Nil(t, w.msgs[2].Key)
	assert.Equal(t, []byte("PaymentReleased"), w.msgs[1].Headers[0].Value)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &env))
	assert.Equal(t, "PaymentReleased", env.Name)
	assert.Equal(t, "tradefin-test", env.ChainID)
	assert.Equal(t, int64(12), env.Height)
	assert.Equal(t, 1, env.Seq)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), env.Time)

	var released trade.PaymentReleased
	require.NoError(t, json.Unmarshal(env.Payload, &released))
	assert.Equal(t, trade.PaymentReleased{ID: 7, Seller: seller, Amount: 40}, released)
}

func TestKafkaPublisherFailure(t *testing.T) {
	w := &recordingWriter{err: errors.ErrDatabase}
	var buf bytes.Buffer
	p := NewKafkaPublisher(w, log.NewTMLogger(&buf))

	err := p.Publish(operationContext(), []weave.Event{trade.MarkedShipped{ID: 1}})
	assert.True(t, errors.ErrDatabase.Is(err))

	// Observe never fails, the error is logged.
	p.Observe(operationContext(), []weave.Event{trade.MarkedShipped{ID: 1}})
	require.NoError(t, p.Close())
	assert.Contains(t, buf.String(), "cannot publish events")
}

func TestKafkaPublisherDoesNotBlock(t *testing.T) {
	w := &recordingWriter{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	var buf bytes.Buffer
	p := newKafkaPublisher(w, log.NewTMLogger(&buf), 1)

	// The first batch is taken by the worker, which then hangs on the
	// broker.
	p.Observe(operationContext(), []weave.Event{trade.MarkedShipped{ID: 1}})
	<-w.started

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		p.Observe(operationContext(), []weave.Event{trade.MarkedShipped{ID: 2}})
		p.Observe(operationContext(), []weave.Event{trade.MarkedShipped{ID: 3}})
	}()
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("observe blocked on a hanging broker")
	}

	close(w.release)
	require.NoError(t, p.Close())

	require.Equal(t, 2, len(w.msgs))
	assert.Equal(t, "1", string(w.msgs[0].Key))
	assert.Equal(t, "2", string(w.msgs[1].Key))
	assert.Contains(t, buf.String(), "events dropped")
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	o := NewLogObserver(log.NewTMLogger(&buf))
	o.Observe(operationContext(), []weave.Event{trade.DisputeRaised{ID: 3}})
	assert.Contains(t, buf.String(), "DisputeRaised")

	// Without a logger, the context logger is used.
	var ctxBuf bytes.Buffer
	ctx := weave.WithLogger(operationContext(), log.NewTMLogger(&ctxBuf))
	NewLogObserver(nil).Observe(ctx, []weave.Event{trade.MarkedShipped{ID: 4}})
	assert.Contains(t, ctxBuf.String(), "MarkedShipped")
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "trade-events")
	assert.Equal(t, "trade-events", w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
}
