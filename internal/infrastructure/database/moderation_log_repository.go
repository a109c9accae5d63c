package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

var _ moderation.LogRepository = (*ModerationLogRepository)(nil)

// ModerationLogRepository stores one row per evaluation and answers the
// operator statistics queries.
type ModerationLogRepository struct {
	db *pgxpool.Pool
}

// NewModerationLogRepository creates a new PostgreSQL moderation log repository
func NewModerationLogRepository(db *pgxpool.Pool) *ModerationLogRepository {
	return &ModerationLogRepository{db: db}
}

func (r *ModerationLogRepository) Save(ctx context.Context, entry *moderation.LogEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO moderation_logs (order_id, risk_score, matched_patterns, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING log_id
	`, entry.OrderID, entry.RiskScore, entry.MatchedPatterns, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return errors.NewInternalError("failed to save moderation log").WithCause(err)
	}
	return nil
}

func (r *ModerationLogRepository) LatestForOrder(ctx context.Context, orderID int64) (*moderation.LogEntry, error) {
	var e moderation.LogEntry
	err := r.db.QueryRow(ctx, `
		SELECT log_id, order_id, risk_score, COALESCE(matched_patterns, ''), created_at
		FROM moderation_logs
		WHERE order_id = $1
		ORDER BY created_at DESC, log_id DESC
		LIMIT 1
	`, orderID).Scan(&e.ID, &e.OrderID, &e.RiskScore, &e.MatchedPatterns, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NewNotFoundError("moderation log")
		}
		return nil, errors.NewInternalError("failed to get moderation log").WithCause(err)
	}
	return &e, nil
}

// Stats aggregates checks and administrator decisions made since the given
// time. A check counts as flagged from moderation.FlaggedScore.
func (r *ModerationLogRepository) Stats(ctx context.Context, since time.Time) (*moderation.Stats, error) {
	var (
		stats moderation.Stats
		avg   string
	)

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE risk_score >= $2),
			COALESCE(ROUND(AVG(risk_score), 2), 0)::text
		FROM moderation_logs
		WHERE created_at >= $1
	`, since, moderation.FlaggedScore).Scan(&stats.TotalChecks, &stats.FlaggedCount, &avg)
	if err != nil {
		return nil, errors.NewInternalError("failed to aggregate moderation logs").WithCause(err)
	}

	stats.AvgRiskScore, err = decimal.NewFromString(avg)
	if err != nil {
		return nil, errors.NewInternalError("invalid average risk score").WithCause(err)
	}

	err = r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE decision = 'banned'),
			COUNT(*) FILTER (WHERE decision = 'deleted'),
			COUNT(*) FILTER (WHERE decision = 'dismissed')
		FROM admin_moderation_decisions
		WHERE created_at >= $1
	`, since).Scan(&stats.BannedByAdmins, &stats.DeletedByAdmins, &stats.DismissedByAdmins)
	if err != nil {
		return nil, errors.NewInternalError("failed to aggregate admin decisions").WithCause(err)
	}

	return &stats, nil
}

// Suspicious lists live orders whose latest check scored at least minScore,
// newest check first.
func (r *ModerationLogRepository) Suspicious(ctx context.Context, minScore, limit int) ([]moderation.SuspiciousOrder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT o.order_id, o.customer_id, o.comment, o.address, o.price::text,
		       l.risk_score, l.matched_patterns, l.created_at
		FROM (
			SELECT DISTINCT ON (order_id) order_id, risk_score, matched_patterns, created_at
			FROM moderation_logs
			ORDER BY order_id, created_at DESC, log_id DESC
		) l
		JOIN orders o ON o.order_id = l.order_id
		WHERE l.risk_score >= $1 AND NOT o.is_deleted
		ORDER BY l.created_at DESC
		LIMIT $2
	`, minScore, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to query suspicious orders").WithCause(err)
	}

	found, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (moderation.SuspiciousOrder, error) {
		var (
			s        moderation.SuspiciousOrder
			price    string
			patterns string
		)
		if err := row.Scan(&s.OrderID, &s.CustomerID, &s.Comment, &s.Address, &price,
			&s.RiskScore, &patterns, &s.CheckedAt); err != nil {
			return s, err
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return s, err
		}
		s.Price = p
		s.MatchedPatterns = moderation.SplitPatternsText(patterns)
		return s, nil
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to scan suspicious orders").WithCause(err)
	}
	return found, nil
}
