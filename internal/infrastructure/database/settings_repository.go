package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

const sensitivityKey = "moderation_sensitivity"

var _ moderation.SettingsRepository = (*SettingsRepository)(nil)

// SettingsRepository reads and writes the system_settings key-value table.
type SettingsRepository struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) GetSensitivity(ctx context.Context) (string, bool, error) {
	var value string
	err := r.db.QueryRow(ctx, `
		SELECT setting_value FROM system_settings WHERE setting_key = $1
	`, sensitivityKey).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewInternalError("failed to read sensitivity setting").WithCause(err)
	}
	return value, true, nil
}

// SetSensitivity upserts the setting. A changedBy of zero is stored as NULL
// and marks a change made from the command line.
func (r *SettingsRepository) SetSensitivity(ctx context.Context, value string, changedBy int64, at time.Time) error {
	var updatedBy *int64
	if changedBy != 0 {
		updatedBy = &changedBy
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO system_settings (setting_key, setting_value, updated_at, updated_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (setting_key) DO UPDATE SET
			setting_value = EXCLUDED.setting_value,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`, sensitivityKey, value, at, updatedBy)
	if err != nil {
		return errors.NewInternalError("failed to write sensitivity setting").WithCause(err)
	}
	return nil
}
