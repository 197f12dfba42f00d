package events

import (
	"github.com/iov-one/tradefin"
	"github.com/tendermint/tendermint/libs/log"
)

// LogObserver writes every event to the logger.
type LogObserver struct {
	logger log.Logger
}

// NewLogObserver returns an observer logging with given logger. When nil,
// the logger of the operation context is used.
func NewLogObserver(logger log.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) Observe(ctx weave.Context, events []weave.Event) {
	logger := o.logger
	if logger == nil {
		logger = weave.GetLogger(ctx)
	}
	for i, ev := range events {
		env, err := NewEnvelope(ctx, i, ev)
		if err != nil {
			logger.Error("cannot encode event", "event", ev.EventName(), "err", err)
			continue
		}
		logger.Info("event", "name", env.Name, "height", env.Height, "seq", env.Seq, "payload", string(env.Payload))
	}
}
