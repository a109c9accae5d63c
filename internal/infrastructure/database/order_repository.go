package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/order"
)

const orderColumns = `
	order_id, customer_id, executor_id, price::text, start_time, address, workers_count,
	comment, phone_number, work_type, status, is_deleted, created_at`

// OrderRepository reads published orders and applies moderation removals.
type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o               order.Order
		price           string
		phone, workType *string
		status          string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.ExecutorID, &price, &o.StartTime, &o.Address,
		&o.WorkersCount, &o.Comment, &phone, &workType, &status, &o.IsDeleted, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if o.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if phone != nil {
		o.PhoneNumber = *phone
	}
	if workType != nil {
		o.WorkType = *workType
	}
	o.Status = order.Status(status)
	return &o, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.NewInternalError("failed to get order").WithCause(err)
	}
	return o, nil
}

// Create inserts a new order and fills in its ID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if o.Status == "" {
		o.Status = order.StatusOpen
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.WorkersCount == 0 {
		o.WorkersCount = 1
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (customer_id, price, start_time, address, workers_count, comment,
			phone_number, work_type, status, created_at)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10)
		RETURNING order_id
	`, o.CustomerID, o.Price.String(), o.StartTime, o.Address, o.WorkersCount, o.Comment,
		o.PhoneNumber, o.WorkType, string(o.Status), o.CreatedAt).Scan(&o.ID)
	if err != nil {
		return errors.NewInternalError("failed to create order").WithCause(err)
	}
	return nil
}

func (r *OrderRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET is_deleted = TRUE WHERE order_id = $1`, id)
	if err != nil {
		return errors.NewInternalError("failed to delete order").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrOrderNotFound
	}
	return nil
}

// SoftDeleteActiveByCustomer removes every order of the customer that is not
// completed or cancelled and returns how many were removed.
func (r *OrderRepository) SoftDeleteActiveByCustomer(ctx context.Context, customerID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET is_deleted = TRUE
		WHERE customer_id = $1 AND NOT is_deleted AND status IN ('open', 'in_progress')
	`, customerID)
	if err != nil {
		return 0, errors.NewInternalError("failed to delete customer orders").WithCause(err)
	}
	return tag.RowsAffected(), nil
}

// ListRecent returns live orders created since the given time, newest first.
func (r *OrderRepository) ListRecent(ctx context.Context, since time.Time, limit int) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE created_at >= $1 AND NOT is_deleted
		ORDER BY created_at DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to list recent orders").WithCause(err)
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return order.Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to scan recent orders").WithCause(err)
	}
	return orders, nil
}
