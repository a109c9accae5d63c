package events

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/infrastructure/config"
	moderationsvc "github.com/davidleathers/laborboard/internal/service/moderation"
)

var (
	_ moderationsvc.EventPublisher = (*KafkaPublisher)(nil)
	_ moderationsvc.EventPublisher = NoopPublisher{}
)

// messageWriter is the subset of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ModerationEvaluated is published after every evaluation, flagged or not.
type ModerationEvaluated struct {
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

// KafkaPublisher publishes moderation results keyed by order ID, so that all
// evaluations of one order land on the same partition.
type KafkaPublisher struct {
	writer  messageWriter
	logger  *zap.Logger
	timeout time.Duration
}

// NewKafkaPublisher creates a publisher writing to the moderation topic.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.ModerationTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}

	logger.Info("kafka publisher created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.ModerationTopic))

	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, logger: logger, timeout: 5 * time.Second}
}

func (p *KafkaPublisher) PublishEvaluation(ctx context.Context, e *moderationsvc.Evaluation) error {
	key := strconv.FormatInt(e.OrderID, 10)
	value, err := Encode(EventTypeModerationEvaluated, "order", key, e.EvaluatedAt, ModerationEvaluated{
		AssessmentID:    e.AssessmentID,
		OrderID:         e.OrderID,
		CustomerID:      e.CustomerID,
		Score:           e.Score,
		Threshold:       e.Threshold,
		Sensitivity:     e.Sensitivity,
		Flagged:         e.Flagged,
		MatchedPatterns: e.MatchedPatterns,
		EvaluatedAt:     e.EvaluatedAt,
	})
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(sendCtx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeModerationEvaluated)},
			{Key: "assessment_id", Value: []byte(e.AssessmentID.String())},
		},
	})
	if err != nil {
		p.logger.Error("failed to publish moderation event",
			zap.Int64("order_id", e.OrderID),
			zap.Error(err))
		return err
	}

	p.logger.Debug("moderation event published",
		zap.Int64("order_id", e.OrderID),
		zap.Bool("flagged", e.Flagged))
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvaluation(context.Context, *moderationsvc.Evaluation) error {
	return nil
}
