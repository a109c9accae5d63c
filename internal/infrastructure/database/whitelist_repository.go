package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

var _ moderation.WhitelistRepository = (*WhitelistRepository)(nil)

// WhitelistRepository implements moderation.WhitelistRepository on PostgreSQL.
type WhitelistRepository struct {
	db *pgxpool.Pool
}

// NewWhitelistRepository creates a new PostgreSQL whitelist repository
func NewWhitelistRepository(db *pgxpool.Pool) *WhitelistRepository {
	return &WhitelistRepository{db: db}
}

func (r *WhitelistRepository) ListActive(ctx context.Context) ([]moderation.WhitelistPhrase, error) {
	return r.list(ctx, `
		SELECT phrase_id, phrase, category, is_active, created_at
		FROM whitelist_phrases
		WHERE is_active
		ORDER BY phrase_id
	`)
}

func (r *WhitelistRepository) List(ctx context.Context) ([]moderation.WhitelistPhrase, error) {
	return r.list(ctx, `
		SELECT phrase_id, phrase, category, is_active, created_at
		FROM whitelist_phrases
		ORDER BY category, phrase_id
	`)
}

func (r *WhitelistRepository) list(ctx context.Context, query string) ([]moderation.WhitelistPhrase, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.NewInternalError("failed to query whitelist phrases").WithCause(err)
	}

	phrases, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (moderation.WhitelistPhrase, error) {
		var w moderation.WhitelistPhrase
		err := row.Scan(&w.ID, &w.Phrase, &w.Category, &w.IsActive, &w.CreatedAt)
		return w, err
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to scan whitelist phrases").WithCause(err)
	}
	return phrases, nil
}

func (r *WhitelistRepository) Upsert(ctx context.Context, w *moderation.WhitelistPhrase) error {
	if err := w.Validate(); err != nil {
		return err
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO whitelist_phrases (phrase, category, is_active, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (phrase) DO UPDATE SET
			category = EXCLUDED.category,
			is_active = EXCLUDED.is_active
		RETURNING phrase_id
	`, w.Phrase, w.Category, w.IsActive, w.CreatedAt).Scan(&w.ID)
	if err != nil {
		return errors.NewInternalError("failed to save whitelist phrase").WithCause(err)
	}
	return nil
}

func (r *WhitelistRepository) SetActive(ctx context.Context, phrase string, active bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE whitelist_phrases SET is_active = $2 WHERE phrase = $1
	`, phrase, active)
	if err != nil {
		return errors.NewInternalError("failed to update whitelist phrase").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("whitelist phrase")
	}
	return nil
}

// SeedDefaults inserts the built-in whitelist, leaving existing phrases
// untouched.
func (r *WhitelistRepository) SeedDefaults(ctx context.Context) (int64, error) {
	batch := &pgx.Batch{}
	for _, w := range moderation.DefaultWhitelist() {
		batch.Queue(`
			INSERT INTO whitelist_phrases (phrase, category, is_active)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (phrase) DO NOTHING
		`, w.Phrase, w.Category)
	}
	return execBatch(ctx, r.db, batch, "failed to seed whitelist phrases")
}
