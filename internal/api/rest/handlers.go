package rest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

// ModerationReader is the read side of the moderation service exposed over HTTP
type ModerationReader interface {
	DryRun(ctx context.Context, input moderation.AssessmentInput) (moderation.RiskAssessment, error)
	Stats(ctx context.Context, window time.Duration) (*moderation.Stats, error)
	SuspiciousOrders(ctx context.Context, minScore, limit int) ([]moderation.SuspiciousOrder, error)
}

// Handlers serves the moderation endpoints
type Handlers struct {
	moderation ModerationReader
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewHandlers creates the moderation handlers
func NewHandlers(m ModerationReader, logger *zap.Logger) *Handlers {
	return &Handlers{
		moderation: m,
		validate:   validator.New(),
		logger:     logger,
	}
}

// DryRunRequest is the body of POST /v1/moderation/dry-run
type DryRunRequest struct {
	Text           string          `json:"text" validate:"required,max=4096"`
	Address        string          `json:"address" validate:"max=512"`
	Price          decimal.Decimal `json:"price"`
	AccountAgeDays int             `json:"account_age_days" validate:"min=0,max=36500"`
}

// StatsResponse adds the derived flagged rate to the raw counters
type StatsResponse struct {
	*moderation.Stats
	WindowDays  int             `json:"window_days"`
	FlaggedRate decimal.Decimal `json:"flagged_rate"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handlers) dryRun(w http.ResponseWriter, r *http.Request) {
	var req DryRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.NewValidationError("INVALID_JSON", "request body is not valid JSON"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, errors.NewValidationError("INVALID_REQUEST", err.Error()))
		return
	}

	assessment, err := h.moderation.DryRun(r.Context(), moderation.AssessmentInput{
		Text:       req.Text,
		Address:    req.Address,
		Price:      req.Price,
		AccountAge: moderation.AccountAgeFromDays(req.AccountAgeDays),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", 30)
	if err != nil || days < 1 || days > 365 {
		h.writeError(w, errors.NewValidationError("INVALID_DAYS", "days must be between 1 and 365"))
		return
	}

	stats, err := h.moderation.Stats(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Stats:       stats,
		WindowDays:  days,
		FlaggedRate: stats.FlaggedRate(),
	})
}

func (h *Handlers) suspicious(w http.ResponseWriter, r *http.Request) {
	minScore, err := intParam(r, "min_score", 0)
	if err != nil || minScore < 0 {
		h.writeError(w, errors.NewValidationError("INVALID_MIN_SCORE", "min_score must be a non-negative integer"))
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil || limit < 0 || limit > 500 {
		h.writeError(w, errors.NewValidationError("INVALID_LIMIT", "limit must be between 0 and 500"))
		return
	}

	orders, err := h.moderation.SuspiciousOrders(r.Context(), minScore, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if orders == nil {
		orders = []moderation.SuspiciousOrder{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := errors.GetStatusCode(err)
	body := errorBody{Code: "INTERNAL_ERROR", Message: "An internal error occurred"}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && status < http.StatusInternalServerError {
		body = errorBody{Code: appErr.Code, Message: appErr.Message}
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
