package moderation

import (
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

// Outcome is what EvaluateOrder observed and did for one order.
type Outcome struct {
	AssessmentID    uuid.UUID                   `json:"assessment_id"`
	OrderID         int64                       `json:"order_id"`
	Assessment      moderation.RiskAssessment   `json:"assessment"`
	Sensitivity     moderation.SensitivityLevel `json:"sensitivity"`
	Alerted         bool                        `json:"alerted"`
	AlertID         uuid.UUID                   `json:"alert_id,omitempty"`
	AlertsDelivered int                         `json:"alerts_delivered"`
	AlertsFailed    int                         `json:"alerts_failed"`
	// Degraded names the dependencies that failed and were replaced by
	// defaults during this evaluation.
	Degraded    []string  `json:"degraded,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Evaluation is the event published after every evaluation.
type Evaluation struct {
	AssessmentID    uuid.UUID `json:"assessment_id"`
	OrderID         int64     `json:"order_id"`
	CustomerID      int64     `json:"customer_id"`
	Score           int       `json:"score"`
	Threshold       int       `json:"threshold"`
	Sensitivity     string    `json:"sensitivity"`
	Flagged         bool      `json:"flagged"`
	MatchedPatterns []string  `json:"matched_patterns"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// DecisionRequest identifies the flagged order either by the alert the
// administrator acted on or directly by order ID.
type DecisionRequest struct {
	AlertID  uuid.UUID
	OrderID  int64
	AdminID  int64
	Decision moderation.Decision
}

// DecisionResult reports the effects of an applied decision.
type DecisionResult struct {
	OrderID       int64               `json:"order_id"`
	CustomerID    int64               `json:"customer_id"`
	Decision      moderation.Decision `json:"decision"`
	OrdersDeleted int64               `json:"orders_deleted"`
	UserBanned    bool                `json:"user_banned"`
}

// Degradation labels
const (
	DegradedAccount     = "account"
	DegradedSensitivity = "sensitivity"
	DegradedReference   = "reference_tables"
)

// recentOrdersWindow bounds the fallback listing when no check is logged.
const recentOrdersWindow = 7 * 24 * time.Hour
