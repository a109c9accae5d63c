package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HealthChecker checks the health of a dependency
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) HealthCheckResult
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       HealthStatus  `json:"status"`
	Error        string        `json:"error,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	LastChecked  time.Time     `json:"last_checked"`
}

// HealthStatus represents the health status
type HealthStatus string

const (
	HealthStatusPass HealthStatus = "pass"
	HealthStatusFail HealthStatus = "fail"
)

// HealthConfig configures the health service
type HealthConfig struct {
	// CacheDuration is how long a check result is reused
	CacheDuration time.Duration
	// Timeout bounds a single check
	Timeout        time.Duration
	ServiceName    string
	ServiceVersion string
}

// DefaultHealthConfig returns default configuration
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		CacheDuration:  5 * time.Second,
		Timeout:        2 * time.Second,
		ServiceName:    "laborboard-moderator",
		ServiceVersion: "dev",
	}
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status        HealthStatus                 `json:"status"`
	ServiceName   string                       `json:"service_name"`
	Version       string                       `json:"version"`
	UptimeSeconds float64                      `json:"uptime_seconds"`
	Checks        map[string]HealthCheckResult `json:"checks,omitempty"`
}

// HealthService runs the registered checks
type HealthService struct {
	checkers  []HealthChecker
	cache     sync.Map
	config    HealthConfig
	tracer    trace.Tracer
	startTime time.Time
	now       func() time.Time
}

// NewHealthService creates a new health service
func NewHealthService(config HealthConfig, checkers ...HealthChecker) *HealthService {
	return &HealthService{
		checkers:  checkers,
		config:    config,
		tracer:    otel.Tracer("api.rest.health"),
		startTime: time.Now(),
		now:       time.Now,
	}
}

// LivenessHandler reports that the process is serving requests
func (h *HealthService) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{
			Status:        HealthStatusPass,
			ServiceName:   h.config.ServiceName,
			Version:       h.config.ServiceVersion,
			UptimeSeconds: h.now().Sub(h.startTime).Seconds(),
		})
	}
}

// ReadinessHandler fails when any dependency check fails
func (h *HealthService) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "health.readiness")
		defer span.End()

		checks := h.runChecks(ctx)

		status := HealthStatusPass
		code := http.StatusOK
		for _, result := range checks {
			if result.Status == HealthStatusFail {
				status = HealthStatusFail
				code = http.StatusServiceUnavailable
				break
			}
		}

		span.SetAttributes(
			attribute.String("health.status", string(status)),
			attribute.Int("health.checks_count", len(checks)),
		)

		writeHealth(w, code, HealthResponse{
			Status:        status,
			ServiceName:   h.config.ServiceName,
			Version:       h.config.ServiceVersion,
			UptimeSeconds: h.now().Sub(h.startTime).Seconds(),
			Checks:        checks,
		})
	}
}

func (h *HealthService) runChecks(ctx context.Context) map[string]HealthCheckResult {
	results := make(map[string]HealthCheckResult, len(h.checkers))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, checker := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()

			result, ok := h.getCachedResult(c.Name())
			if !ok {
				checkCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
				result = c.Check(checkCtx)
				cancel()
				result.LastChecked = h.now()
				if result.Status == HealthStatusPass {
					h.cache.Store(c.Name(), result)
				}
			}

			mu.Lock()
			results[c.Name()] = result
			mu.Unlock()
		}(checker)
	}

	wg.Wait()
	return results
}

// getCachedResult returns a passing result younger than CacheDuration.
// Failures are never cached so recovery is visible on the next probe.
func (h *HealthService) getCachedResult(name string) (HealthCheckResult, bool) {
	val, ok := h.cache.Load(name)
	if !ok {
		return HealthCheckResult{}, false
	}
	cached := val.(HealthCheckResult)
	if h.now().Sub(cached.LastChecked) >= h.config.CacheDuration {
		return HealthCheckResult{}, false
	}
	return cached, true
}

func writeHealth(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/health+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// PingFunc is a dependency liveness probe.
type PingFunc func(ctx context.Context) error

// PingChecker adapts a PingFunc to HealthChecker.
type PingChecker struct {
	name string
	ping PingFunc
}

// NewPingChecker creates a checker named name.
func NewPingChecker(name string, ping PingFunc) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (p *PingChecker) Name() string {
	return p.name
}

func (p *PingChecker) Check(ctx context.Context) HealthCheckResult {
	start := time.Now()
	err := p.ping(ctx)
	result := HealthCheckResult{
		Status:       HealthStatusPass,
		ResponseTime: time.Since(start),
	}
	if err != nil {
		result.Status = HealthStatusFail
		result.Error = err.Error()
	}
	return result
}
