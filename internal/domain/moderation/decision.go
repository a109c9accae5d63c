package moderation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/laborboard/internal/domain/errors"
)

// LogEntry is the persisted trace of one evaluation. It is written for every
// evaluated order, flagged or not.
type LogEntry struct {
	ID              int64     `json:"id"`
	OrderID         int64     `json:"order_id"`
	RiskScore       int       `json:"risk_score"`
	MatchedPatterns string    `json:"matched_patterns"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewLogEntry builds the log row for an assessment.
func NewLogEntry(orderID int64, a RiskAssessment, at time.Time) *LogEntry {
	return &LogEntry{
		OrderID:         orderID,
		RiskScore:       a.Score,
		MatchedPatterns: a.PatternsText(),
		CreatedAt:       at,
	}
}

// Decision is the action an administrator took on an alert.
type Decision int

const (
	DecisionDismissed Decision = iota
	DecisionDeleted
	DecisionBanned
)

func (d Decision) String() string {
	switch d {
	case DecisionDismissed:
		return "dismissed"
	case DecisionDeleted:
		return "deleted"
	case DecisionBanned:
		return "banned"
	default:
		return "unknown"
	}
}

func ParseDecision(raw string) (Decision, error) {
	switch raw {
	case "dismissed", "dismiss":
		return DecisionDismissed, nil
	case "deleted", "delete":
		return DecisionDeleted, nil
	case "banned", "ban":
		return DecisionBanned, nil
	default:
		return DecisionDismissed, errors.NewValidationError("INVALID_DECISION",
			"decision must be one of ban, delete, dismiss")
	}
}

// AdminDecision records an administrator's verdict together with the text
// and score that were shown to them.
type AdminDecision struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	AdminID   int64     `json:"admin_id"`
	Decision  Decision  `json:"decision"`
	OrderText string    `json:"order_text"`
	RiskScore int       `json:"risk_score"`
	CreatedAt time.Time `json:"created_at"`
}

// FlaggedScore is the score from which a logged check counts as flagged in
// statistics and in the suspicious-order listing, independent of the current
// sensitivity.
const FlaggedScore = 4

// Stats summarizes moderation activity over a time window.
type Stats struct {
	Window            time.Duration   `json:"window"`
	TotalChecks       int64           `json:"total_checks"`
	FlaggedCount      int64           `json:"flagged_count"`
	AvgRiskScore      decimal.Decimal `json:"avg_risk_score"`
	BannedByAdmins    int64           `json:"banned_by_admins"`
	DeletedByAdmins   int64           `json:"deleted_by_admins"`
	DismissedByAdmins int64           `json:"dismissed_by_admins"`
}

// FlaggedRate is the share of checks that were flagged, in percent.
func (s Stats) FlaggedRate() decimal.Decimal {
	if s.TotalChecks == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(s.FlaggedCount).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(s.TotalChecks)).
		Round(1)
}

// SuspiciousOrder pairs an order summary with its latest logged check.
type SuspiciousOrder struct {
	OrderID         int64           `json:"order_id"`
	CustomerID      int64           `json:"customer_id"`
	Comment         string          `json:"comment"`
	Address         string          `json:"address"`
	Price           decimal.Decimal `json:"price"`
	RiskScore       int             `json:"risk_score"`
	MatchedPatterns []string        `json:"matched_patterns"`
	CheckedAt       time.Time       `json:"checked_at"`
}
