package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for engine operations.
const (
	OutcomeSuccess = "success"
)

// EngineMetrics records counts and latency for engine operations, plus the
// stock units moved by checkouts, voids and restocks.
type EngineMetrics struct {
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	stockUnits *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "venueops",
		Name:      "operation_duration_seconds",
		Help:      "Duration of engine operations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venueops",
		Name:      "operations_total",
		Help:      "Engine operations by outcome; failures are labelled with the error code.",
	}, []string{"operation", "outcome"})
	stockUnits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venueops",
		Name:      "stock_units_total",
		Help:      "Concession units moved by stock adjustments.",
	}, []string{"kind"})
	reg.MustRegister(duration, operations, stockUnits)
	return &EngineMetrics{
		duration:   duration,
		operations: operations,
		stockUnits: stockUnits,
	}
}

// Observe records one finished operation.
func (m *EngineMetrics) Observe(operation, outcome string, elapsed time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	op := normalizeLabel(operation)
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.operations.WithLabelValues(op, normalizeLabel(outcome)).Inc()
}

// AddStockUnits adds the absolute number of units moved for a movement kind.
func (m *EngineMetrics) AddStockUnits(kind string, units int) {
	if m == nil || m.stockUnits == nil || units == 0 {
		return
	}
	if units < 0 {
		units = -units
	}
	m.stockUnits.WithLabelValues(normalizeLabel(kind)).Add(float64(units))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
