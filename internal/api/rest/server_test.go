package rest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
	"github.com/davidleathers/laborboard/internal/metrics"
)

type mockModeration struct {
	mock.Mock
}

func (m *mockModeration) DryRun(ctx context.Context, input moderation.AssessmentInput) (moderation.RiskAssessment, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(moderation.RiskAssessment), args.Error(1)
}

func (m *mockModeration) Stats(ctx context.Context, window time.Duration) (*moderation.Stats, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*moderation.Stats), args.Error(1)
}

func (m *mockModeration) SuspiciousOrders(ctx context.Context, minScore, limit int) ([]moderation.SuspiciousOrder, error) {
	args := m.Called(ctx, minScore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]moderation.SuspiciousOrder), args.Error(1)
}

func newTestRouter(t *testing.T, m ModerationReader, checkers ...HealthChecker) http.Handler {
	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	return NewRouter(NewHealthService(DefaultHealthConfig(), checkers...), NewHandlers(m, logger), reg, metrics.NewRegistry(reg), logger)
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Run("liveness always passes", func(t *testing.T) {
		h := newTestRouter(t, new(mockModeration), NewPingChecker("database", func(context.Context) error {
			return stderrors.New("down")
		}))
		rec := serve(h, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/health+json", rec.Header().Get("Content-Type"))
	})

	t.Run("readiness fails with a failing dependency", func(t *testing.T) {
		h := newTestRouter(t, new(mockModeration),
			NewPingChecker("database", func(context.Context) error { return nil }),
			NewPingChecker("redis", func(context.Context) error { return stderrors.New("connection refused") }),
		)
		rec := serve(h, http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, HealthStatusFail, resp.Status)
		assert.Equal(t, HealthStatusPass, resp.Checks["database"].Status)
		assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
	})

	t.Run("passing results are cached", func(t *testing.T) {
		calls := 0
		h := newTestRouter(t, new(mockModeration), NewPingChecker("database", func(context.Context) error {
			calls++
			return nil
		}))
		serve(h, http.MethodGet, "/readyz", "")
		rec := serve(h, http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, calls)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, new(mockModeration))
	serve(h, http.MethodGet, "/healthz", "")

	rec := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "laborboard_moderation_risk_score")
	assert.Contains(t, rec.Body.String(), `laborboard_http_requests_total{method="GET",route="GET /healthz",status="200"} 1`)
}

func TestDryRun(t *testing.T) {
	m := new(mockModeration)
	m.On("DryRun", mock.Anything, mock.MatchedBy(func(in moderation.AssessmentInput) bool {
		return in.Text == "Курьер, анонимно" &&
			in.Address == "Москва" &&
			in.Price.Equal(decimal.NewFromInt(5000)) &&
			in.AccountAge == 48*time.Hour
	})).Return(moderation.RiskAssessment{
		Score:           5,
		MatchedPatterns: []string{"курьер (+2)", "анонимно (+3)"},
		Threshold:       4,
	}, nil)

	h := newTestRouter(t, m)
	rec := serve(h, http.MethodPost, "/v1/moderation/dry-run",
		`{"text":"Курьер, анонимно","address":"Москва","price":"5000","account_age_days":2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got moderation.RiskAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 5, got.Score)
	assert.Equal(t, []string{"курьер (+2)", "анонимно (+3)"}, got.MatchedPatterns)
	m.AssertExpectations(t)

	t.Run("missing text", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/v1/moderation/dry-run", `{"address":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
	})

	t.Run("account age beyond range", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/v1/moderation/dry-run",
			`{"text":"Курьер, анонимно","address":"Москва","price":"5000","account_age_days":200000}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
		m.AssertNumberOfCalls(t, "DryRun", 1)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/v1/moderation/dry-run", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_JSON")
	})
}

func TestStats(t *testing.T) {
	m := new(mockModeration)
	m.On("Stats", mock.Anything, 30*24*time.Hour).Return(&moderation.Stats{
		Window:       30 * 24 * time.Hour,
		TotalChecks:  5,
		FlaggedCount: 1,
		AvgRiskScore: decimal.RequireFromString("2.4"),
	}, nil)
	h := newTestRouter(t, m)

	rec := serve(h, http.MethodGet, "/v1/moderation/stats?days=30", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 30, body["window_days"])
	assert.EqualValues(t, 5, body["total_checks"])
	assert.Equal(t, "20", body["flagged_rate"])

	rec = serve(h, http.MethodGet, "/v1/moderation/stats?days=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuspicious(t *testing.T) {
	m := new(mockModeration)
	m.On("SuspiciousOrders", mock.Anything, 6, 20).Return(nil, nil).Once()
	m.On("SuspiciousOrders", mock.Anything, 0, 0).Return(nil, errors.NewInternalError("db down")).Once()
	h := newTestRouter(t, m)

	rec := serve(h, http.MethodGet, "/v1/moderation/suspicious?min_score=6&limit=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/v1/moderation/suspicious", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")

	rec = serve(h, http.MethodGet, "/v1/moderation/suspicious?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.AssertExpectations(t)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), recoveryMiddleware(zaptest.NewLogger(t)))

	rec := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
