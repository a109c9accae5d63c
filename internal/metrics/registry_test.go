package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_Records(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	r.ObserveAssessment(OutcomeFlagged, "medium", 9, 20*time.Millisecond)
	r.ObserveAssessment(OutcomeClean, "medium", 1, time.Millisecond)
	r.AlertsDelivered(2, 1)
	r.Degraded("reference_tables")
	r.Decision("banned")
	r.CacheLookup(true)
	r.CacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.AssessmentsTotal.WithLabelValues(OutcomeFlagged, "medium")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.AlertsTotal.WithLabelValues("delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.AlertsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DegradedLoadsTotal.WithLabelValues("reference_tables")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DecisionsTotal.WithLabelValues("banned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ReferenceCacheLookup.WithLabelValues("hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.RiskScore))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveAssessment(OutcomeClean, "low", 0, time.Millisecond)
		r.AlertsDelivered(1, 0)
		r.Degraded("sensitivity")
		r.Decision("deleted")
		r.SensitivityChanged("high")
		r.CacheLookup(true)
		r.ObserveHTTP("GET", "/healthz", 200, time.Millisecond)
	})
}

func TestRegistry_ObserveHTTP(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	r.ObserveHTTP("GET", "GET /v1/moderation/stats", 200, 3*time.Millisecond)
	r.ObserveHTTP("GET", "GET /v1/moderation/stats", 400, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "GET /v1/moderation/stats", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "GET /v1/moderation/stats", "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.HTTPRequestDuration))
}
