package settings

import (
	"context"

	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
	"github.com/davidleathers/laborboard/internal/metrics"
)

// Service holds the process-wide moderation sensitivity.
type Service interface {
	// Get returns the current level. It returns DefaultSensitivity when the
	// setting was never written or holds an unknown value. A storage error
	// is returned together with DefaultSensitivity.
	Get(ctx context.Context) (moderation.SensitivityLevel, error)

	// Set overwrites the level and records who changed it and when.
	// Concurrent writers are resolved last-write-wins by the store.
	Set(ctx context.Context, level moderation.SensitivityLevel, changedBy int64) error

	// SetFromString parses raw and stores it.
	SetFromString(ctx context.Context, raw string, changedBy int64) (moderation.SensitivityLevel, error)
}

type service struct {
	repo    moderation.SettingsRepository
	clock   moderation.Clock
	logger  *zap.Logger
	metrics *metrics.Registry
}

// NewService creates the sensitivity configuration service
func NewService(repo moderation.SettingsRepository, clock moderation.Clock, logger *zap.Logger, m *metrics.Registry) Service {
	if clock == nil {
		clock = moderation.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:    repo,
		clock:   clock,
		logger:  logger,
		metrics: m,
	}
}

func (s *service) Get(ctx context.Context) (moderation.SensitivityLevel, error) {
	raw, ok, err := s.repo.GetSensitivity(ctx)
	if err != nil {
		return moderation.DefaultSensitivity, errors.NewInternalError("failed to read sensitivity").WithCause(err)
	}
	if !ok {
		return moderation.DefaultSensitivity, nil
	}

	level, err := moderation.ParseSensitivity(raw)
	if err != nil {
		s.logger.Warn("stored sensitivity is not recognised, using default",
			zap.String("stored", raw),
			zap.Stringer("default", moderation.DefaultSensitivity))
		return moderation.DefaultSensitivity, nil
	}
	return level, nil
}

func (s *service) Set(ctx context.Context, level moderation.SensitivityLevel, changedBy int64) error {
	if !level.IsValid() {
		return errors.NewValidationError("INVALID_SENSITIVITY", "sensitivity must be one of off, low, medium, high")
	}

	if err := s.repo.SetSensitivity(ctx, level.String(), changedBy, s.clock.Now().UTC()); err != nil {
		return errors.NewInternalError("failed to store sensitivity").WithCause(err)
	}

	s.metrics.SensitivityChanged(level.String())
	s.logger.Info("moderation sensitivity changed",
		zap.Stringer("level", level),
		zap.Int("threshold", level.Threshold()),
		zap.Int64("changed_by", changedBy))
	return nil
}

func (s *service) SetFromString(ctx context.Context, raw string, changedBy int64) (moderation.SensitivityLevel, error) {
	level, err := moderation.ParseSensitivity(raw)
	if err != nil {
		return moderation.DefaultSensitivity, err
	}
	if err := s.Set(ctx, level, changedBy); err != nil {
		return moderation.DefaultSensitivity, err
	}
	return level, nil
}
