package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/segmentio/kafka-go"
	"github.com/tendermint/tendermint/libs/log"
)

// DefaultPublishTimeout bounds publishing the events of one operation.
const DefaultPublishTimeout = 5 * time.Second

// DefaultQueueSize is the number of operations whose events can wait for
// publishing. Events of further operations are dropped.
const DefaultQueueSize = 1024

// MessageWriter is implemented by kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes events to a kafka topic, one message per event.
// Messages of a trade are keyed by the trade id, so that they keep their
// order within a partition.
//
// Observe only queues the messages, they are written by a single background
// worker in the order they were observed.
type KafkaPublisher struct {
	w       MessageWriter
	logger  log.Logger
	timeout time.Duration

	queue     chan []kafka.Message
	done      chan struct{}
	closeOnce sync.Once
}

// NewKafkaWriter returns a writer producing to given topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaPublisher returns a publisher writing with given writer. It must
// be closed to release the worker.
func NewKafkaPublisher(w MessageWriter, logger log.Logger) *KafkaPublisher {
	return newKafkaPublisher(w, logger, DefaultQueueSize)
}

func newKafkaPublisher(w MessageWriter, logger log.Logger, queueSize int) *KafkaPublisher {
	p := &KafkaPublisher{
		w:       w,
		logger:  logger.With("component", "kafka-publisher"),
		timeout: DefaultPublishTimeout,
		queue:   make(chan []kafka.Message, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Observe queues the events for publishing. It never blocks. When the queue
// is full the events are dropped and logged, the operation is already
// committed.
func (p *KafkaPublisher) Observe(ctx weave.Context, events []weave.Event) {
	if len(events) == 0 {
		return
	}
	msgs, err := messages(ctx, events)
	if err != nil {
		p.logger.Error("cannot encode events", "count", len(events), "err", err)
		return
	}
	select {
	case p.queue <- msgs:
	default:
		p.logger.Error("publish queue full, events dropped", "count", len(msgs))
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for msgs := range p.queue {
		if err := p.write(msgs); err != nil {
			p.logger.Error("cannot publish events", "count", len(msgs), "err", err)
		}
	}
}

// Publish writes all events as a single batch and waits for the result. The
// queue is bypassed.
func (p *KafkaPublisher) Publish(ctx weave.Context, events []weave.Event) error {
	msgs, err := messages(ctx, events)
	if err != nil {
		return err
	}
	return p.write(msgs)
}

func (p *KafkaPublisher) write(msgs []kafka.Message) error {
	wctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.w.WriteMessages(wctx, msgs...); err != nil {
		return errors.Wrap(err, "kafka write")
	}
	return nil
}

func messages(ctx weave.Context, events []weave.Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for i, ev := range events {
		env, err := NewEnvelope(ctx, i, ev)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(env)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrType, "marshal envelope: %s", err)
		}
		msg := kafka.Message{
			Value: value,
			Headers: []kafka.Header{
				{Key: "event", Value: []byte(env.Name)},
			},
		}
		if id, ok := env.TradeID(); ok {
			msg.Key = []byte(strconv.FormatUint(id, 10))
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Close publishes the queued events and closes the writer. Observe must not
// be called after Close.
func (p *KafkaPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.queue) })
	<-p.done
	return p.w.Close()
}
