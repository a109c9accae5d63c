package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

var _ moderation.PatternRepository = (*PatternRepository)(nil)

// PatternRepository implements moderation.PatternRepository on PostgreSQL.
// Rows are returned in insertion order, which is the order keywords are
// matched and reported in.
type PatternRepository struct {
	db *pgxpool.Pool
}

// NewPatternRepository creates a new PostgreSQL pattern repository
func NewPatternRepository(db *pgxpool.Pool) *PatternRepository {
	return &PatternRepository{db: db}
}

func (r *PatternRepository) ListActive(ctx context.Context) ([]moderation.ModerationPattern, error) {
	return r.list(ctx, `
		SELECT pattern_id, keyword, category, risk_weight, is_active, created_at
		FROM moderation_patterns
		WHERE is_active
		ORDER BY pattern_id
	`)
}

func (r *PatternRepository) List(ctx context.Context) ([]moderation.ModerationPattern, error) {
	return r.list(ctx, `
		SELECT pattern_id, keyword, category, risk_weight, is_active, created_at
		FROM moderation_patterns
		ORDER BY category, pattern_id
	`)
}

func (r *PatternRepository) list(ctx context.Context, query string) ([]moderation.ModerationPattern, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.NewInternalError("failed to query moderation patterns").WithCause(err)
	}

	patterns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (moderation.ModerationPattern, error) {
		var p moderation.ModerationPattern
		err := row.Scan(&p.ID, &p.Keyword, &p.Category, &p.RiskWeight, &p.IsActive, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to scan moderation patterns").WithCause(err)
	}
	return patterns, nil
}

// Upsert inserts the pattern or updates the row with the same keyword.
func (r *PatternRepository) Upsert(ctx context.Context, p *moderation.ModerationPattern) error {
	if err := p.Validate(); err != nil {
		return err
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO moderation_patterns (keyword, category, risk_weight, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (keyword) DO UPDATE SET
			category = EXCLUDED.category,
			risk_weight = EXCLUDED.risk_weight,
			is_active = EXCLUDED.is_active
		RETURNING pattern_id
	`, p.Keyword, p.Category, p.RiskWeight, p.IsActive, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		return errors.NewInternalError("failed to save moderation pattern").WithCause(err)
	}
	return nil
}

func (r *PatternRepository) SetActive(ctx context.Context, keyword string, active bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE moderation_patterns SET is_active = $2 WHERE keyword = $1
	`, keyword, active)
	if err != nil {
		return errors.NewInternalError("failed to update moderation pattern").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("moderation pattern")
	}
	return nil
}

// SeedDefaults inserts the built-in keyword table, leaving existing keywords
// untouched. It returns how many rows were added.
func (r *PatternRepository) SeedDefaults(ctx context.Context) (int64, error) {
	batch := &pgx.Batch{}
	for _, p := range moderation.DefaultPatterns() {
		batch.Queue(`
			INSERT INTO moderation_patterns (keyword, category, risk_weight, is_active)
			VALUES ($1, $2, $3, TRUE)
			ON CONFLICT (keyword) DO NOTHING
		`, p.Keyword, p.Category, p.RiskWeight)
	}
	return execBatch(ctx, r.db, batch, "failed to seed moderation patterns")
}

func execBatch(ctx context.Context, db *pgxpool.Pool, batch *pgx.Batch, msg string) (int64, error) {
	results := db.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return inserted, errors.NewInternalError(msg).WithCause(err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
