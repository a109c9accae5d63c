package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/user"
)

const userColumns = `
	user_id, username, first_name, created_at, is_admin, is_banned, ban_reason, banned_at,
	suspicious_orders_notifications, complaints_notifications, quiet_mode`

// UserRepository reads chat users and updates moderation-related flags.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u                              user.User
		username, firstName, banReason *string
	)
	err := row.Scan(&u.ID, &username, &firstName, &u.CreatedAt, &u.IsAdmin, &u.IsBanned,
		&banReason, &u.BannedAt, &u.SuspiciousOrdersNotifications, &u.ComplaintsNotifications, &u.QuietMode)
	if err != nil {
		return nil, err
	}
	if username != nil {
		u.Username = *username
	}
	if firstName != nil {
		u.FirstName = *firstName
	}
	if banReason != nil {
		u.BanReason = *banReason
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.NewInternalError("failed to get user").WithCause(err)
	}
	return u, nil
}

// Save inserts or updates the profile fields and flags of a user.
func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (user_id, username, first_name, created_at, is_admin,
			suspicious_orders_notifications, complaints_notifications, quiet_mode)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			is_admin = EXCLUDED.is_admin,
			suspicious_orders_notifications = EXCLUDED.suspicious_orders_notifications,
			complaints_notifications = EXCLUDED.complaints_notifications,
			quiet_mode = EXCLUDED.quiet_mode
	`, u.ID, u.Username, u.FirstName, createdAt, u.IsAdmin,
		u.SuspiciousOrdersNotifications, u.ComplaintsNotifications, u.QuietMode)
	if err != nil {
		return errors.NewInternalError("failed to save user").WithCause(err)
	}
	return nil
}

// ListAlertRecipients returns administrators who have suspicious-order
// alerts enabled and quiet mode off.
func (r *UserRepository) ListAlertRecipients(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE is_admin AND suspicious_orders_notifications AND NOT quiet_mode AND NOT is_banned
		ORDER BY user_id
	`)
	if err != nil {
		return nil, errors.NewInternalError("failed to list alert recipients").WithCause(err)
	}

	admins, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return user.User{}, err
		}
		return *u, nil
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to scan alert recipients").WithCause(err)
	}
	return admins, nil
}

func (r *UserRepository) Ban(ctx context.Context, id int64, reason string, at time.Time) error {
	return r.update(ctx, `
		UPDATE users SET is_banned = TRUE, ban_reason = $2, banned_at = $3 WHERE user_id = $1
	`, id, reason, at)
}

// ToggleQuietMode flips quiet mode for an administrator and returns the new
// value.
func (r *UserRepository) ToggleQuietMode(ctx context.Context, id int64) (bool, error) {
	var quiet bool
	err := r.db.QueryRow(ctx, `
		UPDATE users SET quiet_mode = NOT quiet_mode WHERE user_id = $1 RETURNING quiet_mode
	`, id).Scan(&quiet)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, errors.ErrUserNotFound
		}
		return false, errors.NewInternalError("failed to toggle quiet mode").WithCause(err)
	}
	return quiet, nil
}

func (r *UserRepository) SetSuspiciousNotifications(ctx context.Context, id int64, enabled bool) error {
	return r.update(ctx, `
		UPDATE users SET suspicious_orders_notifications = $2 WHERE user_id = $1
	`, id, enabled)
}

func (r *UserRepository) update(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return errors.NewInternalError("failed to update user").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}
