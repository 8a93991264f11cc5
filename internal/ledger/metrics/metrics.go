// Package metrics provides Prometheus metrics for ledger operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the ledger operation metrics.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec   // Operations by name and outcome (applied, rejected)
	RejectionsTotal   *prometheus.CounterVec   // Rejections by operation and reason code
	OperationDuration *prometheus.HistogramVec // Operation latency by name
	EventsEmitted     *prometheus.CounterVec   // Ledger events by type
	FeeVolume         prometheus.Counter       // Sum of storage and renewal fees collected
}

// New creates a Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doceo_ledger_operations_total",
			Help: "Total number of ledger operations by name and outcome",
		}, []string{"operation", "outcome"}),

		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doceo_ledger_rejections_total",
			Help: "Total number of rejected ledger operations by reason code",
		}, []string{"operation", "reason"}),

		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doceo_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doceo_ledger_events_emitted_total",
			Help: "Total number of ledger events recorded by type",
		}, []string{"type"}),

		FeeVolume: promauto.NewCounter(prometheus.CounterOpts{
			Name: "doceo_ledger_fee_volume_total",
			Help: "Total amount of storage and renewal fees collected",
		}),
	}
}

// RecordApplied records a successfully applied operation.
func (m *Metrics) RecordApplied(operation string) {
	m.OperationsTotal.WithLabelValues(operation, "applied").Inc()
}

// RecordRejected records a rejected operation with its reason code.
func (m *Metrics) RecordRejected(operation, reason string) {
	m.OperationsTotal.WithLabelValues(operation, "rejected").Inc()
	m.RejectionsTotal.WithLabelValues(operation, reason).Inc()
}

// ObserveDuration records how long an operation took.
func (m *Metrics) ObserveDuration(operation string, seconds float64) {
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordEvent counts one emitted ledger event.
func (m *Metrics) RecordEvent(eventType string) {
	m.EventsEmitted.WithLabelValues(eventType).Inc()
}

// RecordFee adds a collected fee to the running volume.
func (m *Metrics) RecordFee(amount uint64) {
	m.FeeVolume.Add(float64(amount))
}
