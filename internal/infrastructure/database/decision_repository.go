package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

var _ moderation.DecisionRepository = (*DecisionRepository)(nil)

// DecisionRepository records administrator verdicts on flagged orders.
type DecisionRepository struct {
	db *pgxpool.Pool
}

func NewDecisionRepository(db *pgxpool.Pool) *DecisionRepository {
	return &DecisionRepository{db: db}
}

func (r *DecisionRepository) Save(ctx context.Context, d *moderation.AdminDecision) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO admin_moderation_decisions (order_id, admin_id, decision, order_text, risk_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING decision_id
	`, d.OrderID, d.AdminID, d.Decision.String(), d.OrderText, d.RiskScore, d.CreatedAt).Scan(&d.ID)
	if err != nil {
		return errors.NewInternalError("failed to save admin decision").WithCause(err)
	}
	return nil
}
