package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for domain integrity maintenance.
// Tracks counter adjustments, rejected saves and blocked deletions.
type Metrics struct {
	CounterAdjustments *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	DeletionsBlocked   *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CounterAdjustments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostdb_counter_adjustments_total",
			Help: "Denormalized domain counter adjustments by counter and direction",
		}, []string{"counter", "direction"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostdb_validation_failures_total",
			Help: "Rejected saves by entity and failure kind",
		}, []string{"entity", "kind"}),
		DeletionsBlocked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostdb_deletions_blocked_total",
			Help: "Deletions refused because the record is still in use",
		}, []string{"entity"}),
	}
}

// ObserveAdjustment records a counter change of delta on the named counter.
func (m *Metrics) ObserveAdjustment(counter string, delta int64) {
	if m == nil || delta == 0 {
		return
	}
	direction := "increment"
	if delta < 0 {
		direction = "decrement"
		delta = -delta
	}
	m.CounterAdjustments.WithLabelValues(counter, direction).Add(float64(delta))
}

// IncrementValidationFailure records a rejected save.
func (m *Metrics) IncrementValidationFailure(entity, kind string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(entity, kind).Inc()
}

// IncrementDeletionBlocked records a deletion refused by the in-use guard.
func (m *Metrics) IncrementDeletionBlocked(entity string) {
	if m == nil {
		return
	}
	m.DeletionsBlocked.WithLabelValues(entity).Inc()
}
