package notification

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/user"
)

// Message is one rendered alert ready for delivery.
type Message struct {
	Alert *Alert
	Text  string
}

// Sender delivers a rendered alert to one chat.
type Sender interface {
	SendAlert(ctx context.Context, chatID int64, msg Message) error
}

// AdminDirectory lists administrators who may receive alerts.
type AdminDirectory interface {
	ListAlertRecipients(ctx context.Context) ([]user.User, error)
}

// AlertStore keeps alert context so that action buttons can be resolved
// after the message was sent.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert *Alert) error
}

// Report summarizes one fan-out.
type Report struct {
	Recipients int
	Delivered  int
	Failed     int
}

// Dispatcher fans an alert out to every administrator who wants it. A
// failed delivery to one administrator never stops the others.
type Dispatcher struct {
	directory     AdminDirectory
	sender        Sender
	store         AlertStore
	limiter       *rate.Limiter
	previewLength int
	logger        *zap.Logger
	tracer        trace.Tracer
}

// NewDispatcher creates a dispatcher. store and limiter may be nil.
func NewDispatcher(directory AdminDirectory, sender Sender, store AlertStore, limiter *rate.Limiter, previewLength int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Dispatcher{
		directory:     directory,
		sender:        sender,
		store:         store,
		limiter:       limiter,
		previewLength: previewLength,
		logger:        logger,
		tracer:        otel.Tracer("notification"),
	}
}

// Dispatch renders the alert once and sends it to each recipient. It fails
// only when the recipient list or the rendering is unavailable.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *Alert) (Report, error) {
	ctx, span := d.tracer.Start(ctx, "notification.Dispatch",
		trace.WithAttributes(attribute.Int64("order.id", alert.OrderID)))
	defer span.End()

	var report Report

	admins, err := d.directory.ListAlertRecipients(ctx)
	if err != nil {
		return report, errors.NewInternalError("failed to list alert recipients").WithCause(err)
	}

	text, err := RenderAlert(alert, d.previewLength)
	if err != nil {
		return report, errors.NewInternalError("failed to render alert").WithCause(err)
	}

	if d.store != nil {
		if err := d.store.SaveAlert(ctx, alert); err != nil {
			// Buttons will not resolve, but admins still learn about the order.
			d.logger.Warn("failed to store alert context",
				zap.String("alert_id", alert.AlertID.String()),
				zap.Int64("order_id", alert.OrderID),
				zap.Error(err))
		}
	}

	recipients := make([]user.User, 0, len(admins))
	for _, admin := range admins {
		if admin.WantsSuspiciousAlerts() {
			recipients = append(recipients, admin)
		}
	}
	report.Recipients = len(recipients)

	msg := Message{Alert: alert, Text: text}
	for i, admin := range recipients {
		if err := d.limiter.Wait(ctx); err != nil {
			report.Failed += len(recipients) - i
			d.logger.Warn("alert fan-out interrupted", zap.Int64("order_id", alert.OrderID), zap.Error(err))
			break
		}

		if err := d.sender.SendAlert(ctx, admin.ID, msg); err != nil {
			report.Failed++
			d.logger.Error("failed to send suspicious order alert",
				zap.Int64("admin_id", admin.ID),
				zap.Int64("order_id", alert.OrderID),
				zap.Error(err))
			continue
		}
		report.Delivered++
	}

	span.SetAttributes(
		attribute.Int("alert.recipients", report.Recipients),
		attribute.Int("alert.delivered", report.Delivered),
		attribute.Int("alert.failed", report.Failed),
	)
	return report, nil
}
