package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/service/notification"
)

// AlertStore keeps the context of sent alerts so that a callback button only
// has to carry the alert ID.
type AlertStore struct {
	cache Cache
	ttl   time.Duration
}

func NewAlertStore(c Cache, ttl time.Duration) *AlertStore {
	if ttl <= 0 {
		ttl = AlertTTL
	}
	return &AlertStore{cache: c, ttl: ttl}
}

func alertKey(id uuid.UUID) string {
	return AlertPrefix + id.String()
}

func (s *AlertStore) SaveAlert(ctx context.Context, alert *notification.Alert) error {
	if alert.AlertID == uuid.Nil {
		return domainerrors.NewValidationError("MISSING_ALERT_ID", "alert id is required")
	}
	return s.cache.SetJSON(ctx, alertKey(alert.AlertID), alert, s.ttl)
}

// GetAlert returns errors.ErrAlertNotFound once the alert has expired.
func (s *AlertStore) GetAlert(ctx context.Context, id uuid.UUID) (*notification.Alert, error) {
	var alert notification.Alert
	if err := s.cache.GetJSON(ctx, alertKey(id), &alert); err != nil {
		var notFound ErrCacheKeyNotFound
		if errors.As(err, &notFound) {
			return nil, domainerrors.ErrAlertNotFound
		}
		return nil, domainerrors.NewInternalError("failed to load alert").WithCause(err)
	}
	return &alert, nil
}
