package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/infrastructure/config"
)

// messageReader is the subset of kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPublished announces a new order to moderate.
type OrderPublished struct {
	OrderID int64 `json:"order_id"`
}

// OrderHandler moderates one published order.
type OrderHandler func(ctx context.Context, orderID int64) error

// OrderConsumer feeds published orders to a handler. Moderation is advisory,
// so a failed evaluation is logged and the message is still committed.
type OrderConsumer struct {
	reader  messageReader
	handler OrderHandler
	logger  *zap.Logger
	timeout time.Duration
}

// NewOrderConsumer joins the configured consumer group on the orders topic.
func NewOrderConsumer(cfg config.KafkaConfig, handler OrderHandler, timeout time.Duration, logger *zap.Logger) *OrderConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.OrdersTopic,
		GroupID:        cfg.GroupID,
		StartOffset:    kafka.LastOffset,
		MinBytes:       1,
		MaxBytes:       1e6,
		SessionTimeout: 30 * time.Second,
	})

	logger.Info("kafka order consumer created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.OrdersTopic),
		zap.String("group_id", cfg.GroupID))

	return newOrderConsumer(reader, handler, timeout, logger)
}

func newOrderConsumer(r messageReader, handler OrderHandler, timeout time.Duration, logger *zap.Logger) *OrderConsumer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderConsumer{reader: r, handler: handler, logger: logger, timeout: timeout}
}

// Run consumes until ctx is cancelled. It returns nil on cancellation and
// the reader error otherwise.
func (c *OrderConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit order message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

func (c *OrderConsumer) handle(ctx context.Context, msg kafka.Message) {
	orderID, err := decodeOrderPublished(msg.Value)
	if err != nil {
		c.logger.Warn("skipping malformed order message",
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return
	}

	evalCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.handler(evalCtx, orderID); err != nil {
		c.logger.Error("order moderation failed",
			zap.Int64("order_id", orderID),
			zap.Error(err))
	}
}

// decodeOrderPublished accepts an enveloped event or a bare payload.
func decodeOrderPublished(value []byte) (int64, error) {
	var event OrderPublished
	if _, err := Decode(value, EventTypeOrderPublished, &event); err != nil {
		if jsonErr := json.Unmarshal(value, &event); jsonErr != nil {
			return 0, err
		}
	}
	if event.OrderID <= 0 {
		return 0, errors.New("order_id is missing")
	}
	return event.OrderID, nil
}

// Close leaves the consumer group.
func (c *OrderConsumer) Close() error {
	return c.reader.Close()
}
