package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/laborboard/internal/domain/errors"
)

// Event types carried on the bus
const (
	EventTypeOrderPublished      = "order.published"
	EventTypeModerationEvaluated = "moderation.evaluated"
)

const envelopeVersion = "1"

// Envelope wraps every event with metadata for serialization
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Data          json.RawMessage `json:"data"`
}

// Encode serializes data into a new envelope
func Encode(eventType, aggregateType, aggregateID string, at time.Time, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.NewInternalError("failed to serialize event data").WithCause(err)
	}

	out, err := json.Marshal(Envelope{
		EventID:       uuid.New(),
		EventType:     eventType,
		Version:       envelopeVersion,
		Timestamp:     at.UTC(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Data:          raw,
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to serialize event").WithCause(err)
	}
	return out, nil
}

// Decode reads an envelope and unmarshals its data into dest after checking
// the event type.
func Decode(payload []byte, eventType string, dest interface{}) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.NewValidationError("INVALID_EVENT_ENVELOPE",
			"failed to unmarshal event envelope").WithCause(err)
	}
	if env.EventType != eventType {
		return nil, errors.NewValidationError("UNEXPECTED_EVENT_TYPE",
			"expected "+eventType+", got "+env.EventType)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return nil, errors.NewValidationError("DESERIALIZATION_FAILED",
			"failed to deserialize event data").WithCause(err)
	}
	return &env, nil
}
