package docdb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/kvdoc/internal/status"
)

// Metrics observes docdb operations.
type Metrics interface {
	// Observe records one finished operation.
	Observe(op string, elapsed time.Duration, err error)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) Observe(string, time.Duration, error) {}

// Default histogram buckets for operation latency (in seconds).
var defaultBuckets = []float64{
	.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1,
}

type promMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewPrometheusMetrics creates and registers the docdb collectors on reg.
// It panics if they are already registered there.
func NewPrometheusMetrics(reg prometheus.Registerer) Metrics {
	m := &promMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kvdoc_docdb_operations_total",
			Help: "Total number of document database operations",
		}, []string{"op", "result"}),

		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kvdoc_docdb_operation_duration_seconds",
			Help:    "Document database operation latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(m.operationsTotal, m.operationDuration)

	return m
}

func (m *promMetrics) Observe(op string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = string(status.CodeOf(err))
	}
	m.operationsTotal.WithLabelValues(op, result).Inc()
	m.operationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// observe is deferred at the top of each public operation:
//
//	defer d.observe("find_one", time.Now(), &err)
func (d *DB) observe(op string, start time.Time, errp *error) {
	d.metrics.Observe(op, time.Since(start), *errp)
}
