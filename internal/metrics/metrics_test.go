package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAdjustment(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAdjustment("total_hosts", 1)
	m.ObserveAdjustment("total_hosts", 1)
	m.ObserveAdjustment("total_hosts", -1)
	m.ObserveAdjustment("hostgroups_count", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterAdjustments.WithLabelValues("total_hosts", "increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterAdjustments.WithLabelValues("total_hosts", "decrement")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CounterAdjustments.WithLabelValues("hostgroups_count", "increment")))
}

func TestIncrementFailures(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementValidationFailure("domain", "uniqueness")
	m.IncrementDeletionBlocked("domain")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("domain", "uniqueness")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeletionsBlocked.WithLabelValues("domain")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAdjustment("total_hosts", 1)
		m.IncrementValidationFailure("domain", "presence")
		m.IncrementDeletionBlocked("domain")
	})
}
