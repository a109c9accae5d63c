package moderation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/laborboard/internal/domain/moderation"
	"github.com/davidleathers/laborboard/internal/domain/order"
	"github.com/davidleathers/laborboard/internal/domain/user"
	"github.com/davidleathers/laborboard/internal/service/notification"
)

// Service defines the interface for order moderation
type Service interface {
	// EvaluateOrder scores a freshly published order, logs the result and
	// alerts administrators when the score reaches the threshold. It never
	// blocks publication; errors only report what could not be recorded.
	EvaluateOrder(ctx context.Context, orderID int64) (*Outcome, error)

	// DryRun scores arbitrary input with the current sensitivity and
	// reference tables without logging or alerting.
	DryRun(ctx context.Context, input moderation.AssessmentInput) (moderation.RiskAssessment, error)

	// ApplyDecision carries out an administrator's verdict on a flagged order.
	ApplyDecision(ctx context.Context, req DecisionRequest) (*DecisionResult, error)

	// Stats summarizes checks and decisions over the trailing window.
	Stats(ctx context.Context, window time.Duration) (*moderation.Stats, error)

	// SuspiciousOrders lists live orders whose logged score is at least
	// minScore, newest first.
	SuspiciousOrders(ctx context.Context, minScore, limit int) ([]moderation.SuspiciousOrder, error)
}

// OrderRepository is the slice of order storage moderation needs
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*order.Order, error)
	SoftDelete(ctx context.Context, id int64) error
	SoftDeleteActiveByCustomer(ctx context.Context, customerID int64) (int64, error)
	ListRecent(ctx context.Context, since time.Time, limit int) ([]order.Order, error)
}

// UserRepository is the slice of user storage moderation needs
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	Ban(ctx context.Context, id int64, reason string, at time.Time) error
}

// SensitivityReader reads the global sensitivity level
type SensitivityReader interface {
	Get(ctx context.Context) (moderation.SensitivityLevel, error)
}

// AlertDispatcher fans an alert out to administrators
type AlertDispatcher interface {
	Dispatch(ctx context.Context, alert *notification.Alert) (notification.Report, error)
}

// AlertLookup resolves an alert ID carried by an action button
type AlertLookup interface {
	GetAlert(ctx context.Context, id uuid.UUID) (*notification.Alert, error)
}

// EventPublisher announces evaluation results to other services
type EventPublisher interface {
	PublishEvaluation(ctx context.Context, e *Evaluation) error
}
