package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "laborboard"

// Assessment outcomes
const (
	OutcomeFlagged = "flagged"
	OutcomeClean   = "clean"
)

// Registry holds the moderation metrics. A nil *Registry is valid and
// records nothing.
type Registry struct {
	AssessmentsTotal     *prometheus.CounterVec
	RiskScore            prometheus.Histogram
	EvaluationDuration   prometheus.Histogram
	AlertsTotal          *prometheus.CounterVec
	DegradedLoadsTotal   *prometheus.CounterVec
	DecisionsTotal       *prometheus.CounterVec
	SensitivityChanges   *prometheus.CounterVec
	ReferenceCacheLookup *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
}

// NewRegistry registers all moderation metrics with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	f := promauto.With(reg)

	return &Registry{
		AssessmentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "moderation",
				Name:      "assessments_total",
				Help:      "Orders scored, by outcome",
			},
			[]string{"outcome", "sensitivity"},
		),
		RiskScore: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "moderation",
				Name:      "risk_score",
				Help:      "Distribution of order risk scores",
				Buckets:   []float64{0, 1, 2, 4, 6, 8, 12, 16, 24},
			},
		),
		EvaluationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "moderation",
				Name:      "evaluation_duration_seconds",
				Help:      "Time to evaluate one published order including I/O",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
		AlertsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "moderation",
				Name:      "alerts_total",
				Help:      "Admin alert deliveries, by result",
			},
			[]string{"result"},
		),
		DegradedLoadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "moderation",
				Name:      "degraded_loads_total",
				Help:      "Evaluations that fell back to defaults because a dependency failed",
			},
			[]string{"dependency"},
		),
		DecisionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "moderation",
				Name:      "admin_decisions_total",
				Help:      "Administrator decisions on flagged orders",
			},
			[]string{"decision"},
		),
		SensitivityChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settings",
				Name:      "sensitivity_changes_total",
				Help:      "Sensitivity updates, by new level",
			},
			[]string{"level"},
		),
		ReferenceCacheLookup: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "reference_lookups_total",
				Help:      "Reference snapshot cache lookups, by result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"method", "route"},
		),
	}
}

func (r *Registry) ObserveAssessment(outcome, sensitivity string, score int, took time.Duration) {
	if r == nil {
		return
	}
	r.AssessmentsTotal.WithLabelValues(outcome, sensitivity).Inc()
	r.RiskScore.Observe(float64(score))
	r.EvaluationDuration.Observe(took.Seconds())
}

func (r *Registry) AlertsDelivered(delivered, failed int) {
	if r == nil {
		return
	}
	r.AlertsTotal.WithLabelValues("delivered").Add(float64(delivered))
	r.AlertsTotal.WithLabelValues("failed").Add(float64(failed))
}

func (r *Registry) Degraded(dependency string) {
	if r == nil {
		return
	}
	r.DegradedLoadsTotal.WithLabelValues(dependency).Inc()
}

func (r *Registry) Decision(decision string) {
	if r == nil {
		return
	}
	r.DecisionsTotal.WithLabelValues(decision).Inc()
}

func (r *Registry) SensitivityChanged(level string) {
	if r == nil {
		return
	}
	r.SensitivityChanges.WithLabelValues(level).Inc()
}

func (r *Registry) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.ReferenceCacheLookup.WithLabelValues(result).Inc()
}

func (r *Registry) ObserveHTTP(method, route string, status int, took time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
