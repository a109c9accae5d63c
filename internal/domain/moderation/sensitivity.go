package moderation

import (
	"math"
	"strings"

	"github.com/davidleathers/laborboard/internal/domain/errors"
)

// SensitivityLevel controls how low a risk score must be before
// administrators are alerted. It is a single process-wide setting.
type SensitivityLevel int

const (
	SensitivityOff SensitivityLevel = iota
	SensitivityLow
	SensitivityMedium
	SensitivityHigh
)

// DefaultSensitivity is used whenever the setting was never stored or
// cannot be read.
const DefaultSensitivity = SensitivityMedium

// ThresholdUnreachable is the threshold reported for SensitivityOff. No
// finite sum of weights reaches it.
const ThresholdUnreachable = math.MaxInt

func (s SensitivityLevel) String() string {
	switch s {
	case SensitivityOff:
		return "off"
	case SensitivityLow:
		return "low"
	case SensitivityMedium:
		return "medium"
	case SensitivityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Threshold maps the level to the score at or above which an order is flagged.
func (s SensitivityLevel) Threshold() int {
	switch s {
	case SensitivityOff:
		return ThresholdUnreachable
	case SensitivityLow:
		return 6
	case SensitivityHigh:
		return 2
	default:
		return 4
	}
}

// IsValid reports whether s is one of the four enumerated levels.
func (s SensitivityLevel) IsValid() bool {
	return s >= SensitivityOff && s <= SensitivityHigh
}

// AllSensitivityLevels lists the levels from least to most strict.
func AllSensitivityLevels() []SensitivityLevel {
	return []SensitivityLevel{SensitivityOff, SensitivityLow, SensitivityMedium, SensitivityHigh}
}

// ParseSensitivity converts the stored or user-supplied name of a level.
func ParseSensitivity(raw string) (SensitivityLevel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "off":
		return SensitivityOff, nil
	case "low":
		return SensitivityLow, nil
	case "medium":
		return SensitivityMedium, nil
	case "high":
		return SensitivityHigh, nil
	default:
		return DefaultSensitivity, errors.NewValidationError("INVALID_SENSITIVITY",
			"sensitivity must be one of off, low, medium, high").
			WithDetails(map[string]any{"value": raw})
	}
}

func (s SensitivityLevel) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SensitivityLevel) UnmarshalText(text []byte) error {
	level, err := ParseSensitivity(string(text))
	if err != nil {
		return err
	}
	*s = level
	return nil
}
