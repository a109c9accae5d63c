package telegram

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
	moderationsvc "github.com/davidleathers/laborboard/internal/service/moderation"
)

// DecisionApplier carries out an administrator's verdict.
type DecisionApplier interface {
	ApplyDecision(ctx context.Context, req moderationsvc.DecisionRequest) (*moderationsvc.DecisionResult, error)
}

// Router turns alert button presses into moderation decisions. Every other
// update is ignored.
type Router struct {
	api         botAPI
	decisions   DecisionApplier
	pollTimeout int
	logger      *zap.Logger
}

// NewRouter creates a router on the client's bot connection.
func NewRouter(c *Client, decisions DecisionApplier, pollTimeout int, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		api:         c.api,
		decisions:   decisions,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Run long-polls updates until ctx is cancelled.
func (r *Router) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = r.pollTimeout
	u.AllowedUpdates = []string{"callback_query"}
	updates := r.api.GetUpdatesChan(u)
	defer r.api.StopReceivingUpdates()

	r.logger.Info("telegram router started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("telegram router stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.CallbackQuery != nil {
				r.HandleCallback(ctx, upd.CallbackQuery)
			}
		}
	}
}

// HandleCallback processes one button press and always answers it.
func (r *Router) HandleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	cb, err := ParseCallback(q.Data)
	if err != nil {
		r.answer(q.ID, "Некорректная кнопка")
		return
	}

	result, err := r.decisions.ApplyDecision(ctx, moderationsvc.DecisionRequest{
		AlertID:  cb.AlertID,
		AdminID:  q.From.ID,
		Decision: cb.Decision,
	})
	if err != nil {
		r.logger.Warn("decision failed",
			zap.Int64("admin_id", q.From.ID),
			zap.String("alert_id", cb.AlertID.String()),
			zap.Error(err))
		r.answer(q.ID, errorAnswer(err))
		return
	}

	r.answer(q.ID, "Готово")
	if q.Message == nil {
		return
	}

	// Editing drops the keyboard so the alert cannot be actioned twice.
	text := html.EscapeString(q.Message.Text) + "\n\n" + resolutionLine(result)
	edit := tgbotapi.NewEditMessageText(q.Message.Chat.ID, q.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := r.api.Request(edit); err != nil {
		r.logger.Warn("failed to update alert message", zap.Error(err))
	}
}

func (r *Router) answer(callbackID, text string) {
	if _, err := r.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		r.logger.Warn("failed to answer callback", zap.Error(err))
	}
}

func errorAnswer(err error) string {
	switch {
	case errors.IsType(err, errors.ErrorTypeForbidden):
		return "Недостаточно прав"
	case errors.IsType(err, errors.ErrorTypeNotFound):
		return "Уведомление устарело"
	default:
		return "Ошибка, попробуйте позже"
	}
}

func resolutionLine(res *moderationsvc.DecisionResult) string {
	switch res.Decision {
	case moderation.DecisionBanned:
		return fmt.Sprintf("✅ <b>Пользователь забанен и объявление удалено</b> (снято объявлений: %d)", res.OrdersDeleted)
	case moderation.DecisionDeleted:
		return "✅ <b>Объявление удалено</b>"
	default:
		return "✅ <b>Объявление оставлено</b>"
	}
}
