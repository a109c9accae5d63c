package moderation

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
	"github.com/davidleathers/laborboard/internal/domain/user"
	"github.com/davidleathers/laborboard/internal/infrastructure/telemetry"
	"github.com/davidleathers/laborboard/internal/metrics"
	"github.com/davidleathers/laborboard/internal/service/notification"
)

// Ensure service implements the interface
var _ Service = (*service)(nil)

// unknownAccountAge is used when the submitter cannot be loaded, so that no
// account-age signal is added.
const unknownAccountAge = time.Duration(math.MaxInt64)

// Dependencies groups the collaborators of the moderation service.
// Dispatcher, Alerts, Publisher and Metrics are optional.
type Dependencies struct {
	Orders      OrderRepository
	Users       UserRepository
	Sensitivity SensitivityReader
	Reference   moderation.ReferenceSource
	Logs        moderation.LogRepository
	Decisions   moderation.DecisionRepository
	Dispatcher  AlertDispatcher
	Alerts      AlertLookup
	Publisher   EventPublisher
	Metrics     *metrics.Registry
	Clock       moderation.Clock
	Logger      *zap.Logger
}

// service implements the Service interface
type service struct {
	orders      OrderRepository
	users       UserRepository
	sensitivity SensitivityReader
	reference   moderation.ReferenceSource
	logs        moderation.LogRepository
	decisions   moderation.DecisionRepository
	dispatcher  AlertDispatcher
	alerts      AlertLookup
	publisher   EventPublisher
	metrics     *metrics.Registry
	clock       moderation.Clock
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewService creates a new moderation service
func NewService(deps Dependencies) (Service, error) {
	if deps.Orders == nil || deps.Users == nil || deps.Sensitivity == nil ||
		deps.Reference == nil || deps.Logs == nil || deps.Decisions == nil {
		return nil, errors.NewValidationError("MISSING_DEPENDENCY",
			"orders, users, sensitivity, reference, logs and decisions are required")
	}
	if deps.Clock == nil {
		deps.Clock = moderation.RealClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &service{
		orders:      deps.Orders,
		users:       deps.Users,
		sensitivity: deps.Sensitivity,
		reference:   deps.Reference,
		logs:        deps.Logs,
		decisions:   deps.Decisions,
		dispatcher:  deps.Dispatcher,
		alerts:      deps.Alerts,
		publisher:   deps.Publisher,
		metrics:     deps.Metrics,
		clock:       deps.Clock,
		logger:      deps.Logger,
		tracer:      otel.Tracer("moderation"),
	}, nil
}

// EvaluateOrder validates an order's content against the current reference
// tables and sensitivity
func (s *service) EvaluateOrder(ctx context.Context, orderID int64) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "moderation.EvaluateOrder",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	start := time.Now()
	now := s.clock.Now()
	logger := telemetry.WithTrace(ctx, s.logger).With(zap.Int64("order_id", orderID))

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, errors.Wrap(err, "failed to load order for moderation")
	}

	outcome := &Outcome{
		AssessmentID: uuid.New(),
		OrderID:      orderID,
		EvaluatedAt:  now,
	}

	input := moderation.AssessmentInput{
		Text:       o.ModerationText(),
		Address:    o.Address,
		Price:      o.Price,
		AccountAge: unknownAccountAge,
	}

	author, err := s.users.GetByID(ctx, o.CustomerID)
	if err != nil {
		logger.Warn("submitter not available, skipping account age signal",
			zap.Int64("customer_id", o.CustomerID), zap.Error(err))
		outcome.Degraded = append(outcome.Degraded, DegradedAccount)
		s.metrics.Degraded(DegradedAccount)
		author = nil
	} else {
		input.AccountAge = author.AccountAge(now)
	}

	level, err := s.sensitivity.Get(ctx)
	if err != nil {
		logger.Warn("sensitivity not available, using default",
			zap.Stringer("default", moderation.DefaultSensitivity), zap.Error(err))
		outcome.Degraded = append(outcome.Degraded, DegradedSensitivity)
		s.metrics.Degraded(DegradedSensitivity)
		level = moderation.DefaultSensitivity
	}
	outcome.Sensitivity = level

	snapshot, err := s.reference.LoadSnapshot(ctx)
	if err != nil {
		logger.Warn("reference tables not available, scoring without patterns", zap.Error(err))
		outcome.Degraded = append(outcome.Degraded, DegradedReference)
		s.metrics.Degraded(DegradedReference)
		snapshot = moderation.ReferenceSnapshot{}
	}

	assessment := moderation.Assess(input, level, snapshot)
	outcome.Assessment = assessment

	span.SetAttributes(
		attribute.Int("moderation.score", assessment.Score),
		attribute.Int("moderation.threshold", assessment.Threshold),
		attribute.String("moderation.sensitivity", level.String()),
	)

	logErr := s.logs.Save(ctx, moderation.NewLogEntry(orderID, assessment, now))
	if logErr != nil {
		logger.Error("failed to save moderation log", zap.Error(logErr))
	}

	if assessment.ShouldAlert() {
		s.alert(ctx, logger, outcome, o.CustomerID, author, input, now)
	}

	if s.publisher != nil {
		event := &Evaluation{
			AssessmentID:    outcome.AssessmentID,
			OrderID:         orderID,
			CustomerID:      o.CustomerID,
			Score:           assessment.Score,
			Threshold:       assessment.Threshold,
			Sensitivity:     level.String(),
			Flagged:         assessment.ShouldAlert(),
			MatchedPatterns: assessment.MatchedPatterns,
			EvaluatedAt:     now,
		}
		if err := s.publisher.PublishEvaluation(ctx, event); err != nil {
			logger.Warn("failed to publish moderation event", zap.Error(err))
		}
	}

	result := metrics.OutcomeClean
	if assessment.ShouldAlert() {
		result = metrics.OutcomeFlagged
	}
	s.metrics.ObserveAssessment(result, level.String(), assessment.Score, time.Since(start))

	logger.Info("order moderated",
		zap.Int("score", assessment.Score),
		zap.Int("threshold", assessment.Threshold),
		zap.Int("patterns", len(assessment.MatchedPatterns)),
		zap.Bool("alerted", outcome.Alerted))

	if logErr != nil {
		telemetry.RecordError(span, logErr)
		return outcome, errors.NewInternalError("failed to record moderation log").WithCause(logErr)
	}
	return outcome, nil
}

func (s *service) alert(ctx context.Context, logger *zap.Logger, outcome *Outcome, customerID int64, author *user.User, input moderation.AssessmentInput, now time.Time) {
	outcome.Alerted = true
	if s.dispatcher == nil {
		logger.Warn("order flagged but no alert dispatcher is configured")
		return
	}

	alert := &notification.Alert{
		AlertID:         uuid.New(),
		OrderID:         outcome.OrderID,
		CustomerID:      customerID,
		Score:           outcome.Assessment.Score,
		Threshold:       outcome.Assessment.Threshold,
		MatchedPatterns: outcome.Assessment.MatchedPatterns,
		OrderText:       input.Text,
		Price:           input.Price,
		Address:         input.Address,
		CreatedAt:       now,
	}
	if author != nil {
		alert.CustomerName = author.DisplayName()
		alert.AccountAge = input.AccountAge
		alert.AccountKnown = true
	}
	outcome.AlertID = alert.AlertID

	report, err := s.dispatcher.Dispatch(ctx, alert)
	if err != nil {
		logger.Error("failed to alert administrators", zap.Error(err))
	}
	outcome.AlertsDelivered = report.Delivered
	outcome.AlertsFailed = report.Failed
	s.metrics.AlertsDelivered(report.Delivered, report.Failed)
}

func (s *service) DryRun(ctx context.Context, input moderation.AssessmentInput) (moderation.RiskAssessment, error) {
	level, err := s.sensitivity.Get(ctx)
	if err != nil {
		return moderation.RiskAssessment{}, err
	}
	snapshot, err := s.reference.LoadSnapshot(ctx)
	if err != nil {
		return moderation.RiskAssessment{}, errors.NewInternalError("failed to load reference tables").WithCause(err)
	}
	return moderation.Assess(input, level, snapshot), nil
}

func (s *service) ApplyDecision(ctx context.Context, req DecisionRequest) (*DecisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "moderation.ApplyDecision",
		trace.WithAttributes(
			attribute.Int64("admin.id", req.AdminID),
			attribute.String("decision", req.Decision.String()),
		))
	defer span.End()

	actor, err := s.users.GetByID(ctx, req.AdminID)
	switch {
	case errors.IsType(err, errors.ErrorTypeNotFound):
		return nil, errors.ErrNotAdmin
	case err != nil:
		telemetry.RecordError(span, err)
		return nil, errors.NewInternalError("failed to load acting administrator").WithCause(err)
	case !actor.IsAdmin:
		return nil, errors.ErrNotAdmin
	}

	target, err := s.resolveTarget(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := s.clock.Now()
	result := &DecisionResult{
		OrderID:    target.orderID,
		CustomerID: target.customerID,
		Decision:   req.Decision,
	}

	switch req.Decision {
	case moderation.DecisionBanned:
		if err := s.users.Ban(ctx, target.customerID, user.AutoBanReason, now); err != nil {
			return nil, errors.NewInternalError("failed to ban user").WithCause(err)
		}
		result.UserBanned = true
		deleted, err := s.orders.SoftDeleteActiveByCustomer(ctx, target.customerID)
		if err != nil {
			return nil, errors.NewInternalError("failed to delete orders of banned user").WithCause(err)
		}
		result.OrdersDeleted = deleted
	case moderation.DecisionDeleted:
		if err := s.orders.SoftDelete(ctx, target.orderID); err != nil {
			return nil, errors.NewInternalError("failed to delete order").WithCause(err)
		}
		result.OrdersDeleted = 1
	case moderation.DecisionDismissed:
	default:
		return nil, errors.NewValidationError("INVALID_DECISION", "unknown decision")
	}

	record := &moderation.AdminDecision{
		OrderID:   target.orderID,
		AdminID:   req.AdminID,
		Decision:  req.Decision,
		OrderText: target.text,
		RiskScore: target.score,
		CreatedAt: now,
	}
	s.metrics.Decision(req.Decision.String())

	s.logger.Info("moderation decision applied",
		zap.Int64("order_id", target.orderID),
		zap.Int64("customer_id", target.customerID),
		zap.Int64("admin_id", req.AdminID),
		zap.Stringer("decision", req.Decision),
		zap.Int64("orders_deleted", result.OrdersDeleted))

	if err := s.decisions.Save(ctx, record); err != nil {
		s.logger.Error("failed to record admin decision", zap.Int64("order_id", target.orderID), zap.Error(err))
		return result, errors.NewInternalError("decision applied but not recorded").WithCause(err)
	}
	return result, nil
}

type decisionTarget struct {
	orderID    int64
	customerID int64
	text       string
	score      int
}

func (s *service) resolveTarget(ctx context.Context, req DecisionRequest) (*decisionTarget, error) {
	if req.AlertID != uuid.Nil {
		if s.alerts == nil {
			return nil, errors.ErrAlertNotFound
		}
		alert, err := s.alerts.GetAlert(ctx, req.AlertID)
		if err != nil {
			return nil, err
		}
		return &decisionTarget{
			orderID:    alert.OrderID,
			customerID: alert.CustomerID,
			text:       alert.OrderText,
			score:      alert.Score,
		}, nil
	}

	if req.OrderID <= 0 {
		return nil, errors.NewValidationError("MISSING_TARGET", "an alert ID or an order ID is required")
	}
	o, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	target := &decisionTarget{
		orderID:    o.ID,
		customerID: o.CustomerID,
		text:       o.Comment,
	}

	latest, err := s.logs.LatestForOrder(ctx, o.ID)
	switch {
	case err == nil:
		target.score = latest.RiskScore
	case errors.IsType(err, errors.ErrorTypeNotFound):
	default:
		s.logger.Warn("decision recorded without risk score",
			zap.Int64("order_id", o.ID), zap.Error(err))
	}
	return target, nil
}

func (s *service) Stats(ctx context.Context, window time.Duration) (*moderation.Stats, error) {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	stats, err := s.logs.Stats(ctx, s.clock.Now().Add(-window))
	if err != nil {
		return nil, errors.NewInternalError("failed to compute moderation stats").WithCause(err)
	}
	stats.Window = window
	return stats, nil
}

func (s *service) SuspiciousOrders(ctx context.Context, minScore, limit int) ([]moderation.SuspiciousOrder, error) {
	if minScore <= 0 {
		minScore = moderation.FlaggedScore
	}
	if limit <= 0 {
		limit = 50
	}

	found, err := s.logs.Suspicious(ctx, minScore, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to list suspicious orders").WithCause(err)
	}
	if len(found) > 0 {
		return found, nil
	}

	// Nothing was logged yet, so show the latest live orders for manual review.
	recent, err := s.orders.ListRecent(ctx, s.clock.Now().Add(-recentOrdersWindow), limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to list recent orders").WithCause(err)
	}
	out := make([]moderation.SuspiciousOrder, 0, len(recent))
	for _, o := range recent {
		out = append(out, moderation.SuspiciousOrder{
			OrderID:         o.ID,
			CustomerID:      o.CustomerID,
			Comment:         o.Comment,
			Address:         o.Address,
			Price:           o.Price,
			MatchedPatterns: []string{},
			CheckedAt:       o.CreatedAt,
		})
	}
	return out, nil
}
