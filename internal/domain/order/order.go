package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Order is a published job posting. Moderation reads it and never changes
// anything except the soft-delete flag.
type Order struct {
	ID           int64           `json:"id"`
	CustomerID   int64           `json:"customer_id"`
	ExecutorID   *int64          `json:"executor_id,omitempty"`
	Price        decimal.Decimal `json:"price"`
	StartTime    string          `json:"start_time"`
	Address      string          `json:"address"`
	WorkersCount int             `json:"workers_count"`
	Comment      string          `json:"comment"`
	PhoneNumber  string          `json:"phone_number,omitempty"`
	WorkType     string          `json:"work_type,omitempty"`
	Status       Status          `json:"status"`
	IsDeleted    bool            `json:"is_deleted"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ModerationText is the free text that is scored.
func (o *Order) ModerationText() string {
	return o.Comment
}

// Preview shortens the description to at most n characters, appending an
// ellipsis when it was cut.
func (o *Order) Preview(n int) string {
	runes := []rune(o.Comment)
	if n <= 0 || len(runes) <= n {
		return o.Comment
	}
	return string(runes[:n]) + "..."
}
