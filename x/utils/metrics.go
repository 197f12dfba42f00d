package utils

import (
	"strconv"
	"time"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a decorator that counts processed operations and measures their
// duration. Only Deliver is measured, Check is a dry run.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ weave.Decorator = (*Metrics)(nil)

// NewMetrics creates a Metrics decorator and registers its collectors with
// given registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Number of executed operations, by message path and result code.",
		}, []string{"path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of the operation execution, by message path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrapf(errors.ErrHuman, "register collector: %s", err)
		}
	}
	return m, nil
}

// Check passes the call through.
func (m *Metrics) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	return next.Check(ctx, store, tx)
}

// Deliver records the result and the duration of the operation.
func (m *Metrics) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)

	path := weave.GetPath(tx)
	m.duration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	m.operations.WithLabelValues(path, strconv.FormatUint(uint64(errors.Code(err)), 10)).Inc()
	return res, err
}
