package telegram

import (
	"strings"

	"github.com/google/uuid"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

// MaxCallbackDataLength is the chat platform's limit for button payloads.
const MaxCallbackDataLength = 64

const callbackPrefix = "mod"

var decisionActions = map[moderation.Decision]string{
	moderation.DecisionBanned:    "ban",
	moderation.DecisionDeleted:   "delete",
	moderation.DecisionDismissed: "dismiss",
}

// Callback is a parsed alert button payload.
type Callback struct {
	Decision moderation.Decision
	AlertID  uuid.UUID
}

// CallbackData encodes an alert action as "mod:<action>:<alertID>".
func CallbackData(d moderation.Decision, alertID uuid.UUID) string {
	return callbackPrefix + ":" + decisionActions[d] + ":" + alertID.String()
}

// ParseCallback decodes payloads produced by CallbackData.
func ParseCallback(data string) (Callback, error) {
	if len(data) > MaxCallbackDataLength {
		return Callback{}, invalidCallback("callback data too long")
	}

	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return Callback{}, invalidCallback("unknown callback")
	}

	decision, err := moderation.ParseDecision(parts[1])
	if err != nil {
		return Callback{}, err
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return Callback{}, invalidCallback("invalid alert id")
	}
	return Callback{Decision: decision, AlertID: id}, nil
}

func invalidCallback(msg string) error {
	return errors.NewValidationError("INVALID_CALLBACK", msg)
}
