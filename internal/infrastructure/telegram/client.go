package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
	"github.com/davidleathers/laborboard/internal/infrastructure/config"
	"github.com/davidleathers/laborboard/internal/service/notification"
)

var _ notification.Sender = (*Client)(nil)

// botAPI is the subset of tgbotapi.BotAPI used here.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client sends moderation alerts to administrators.
type Client struct {
	api    botAPI
	logger *zap.Logger
}

// NewClient authenticates the bot token.
func NewClient(cfg config.TelegramConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.NewValidationError("MISSING_BOT_TOKEN", "telegram token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, errors.NewExternalError("telegram", "failed to create bot").WithCause(err)
	}
	bot.Debug = cfg.Debug

	logger.Info("telegram bot authorized", zap.String("username", bot.Self.UserName))
	return newClient(bot, logger), nil
}

func newClient(api botAPI, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, logger: logger}
}

// SendAlert posts the rendered alert with ban, delete and dismiss buttons.
func (c *Client) SendAlert(ctx context.Context, chatID int64, msg notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	if msg.Alert != nil {
		out.ReplyMarkup = AlertKeyboard(msg.Alert)
	}

	if _, err := c.api.Send(out); err != nil {
		return errors.NewExternalError("telegram", fmt.Sprintf("failed to send alert to chat %d", chatID)).WithCause(err)
	}
	return nil
}

// AlertKeyboard holds the action buttons attached to every alert.
func AlertKeyboard(a *notification.Alert) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔨 Забанить", CallbackData(moderation.DecisionBanned, a.AlertID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Удалить", CallbackData(moderation.DecisionDeleted, a.AlertID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Пропустить", CallbackData(moderation.DecisionDismissed, a.AlertID)),
		),
	)
}
