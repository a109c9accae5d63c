package user

import (
	"strconv"
	"time"
)

// User is a chat participant. IDs are the chat platform's numeric user IDs.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	IsAdmin   bool       `json:"is_admin"`
	IsBanned  bool       `json:"is_banned"`
	BanReason string     `json:"ban_reason,omitempty"`
	BannedAt  *time.Time `json:"banned_at,omitempty"`

	// Notification preferences (admins only)
	SuspiciousOrdersNotifications bool `json:"suspicious_orders_notifications"`
	ComplaintsNotifications       bool `json:"complaints_notifications"`
	QuietMode                     bool `json:"quiet_mode"`
}

// AutoBanReason is recorded when an administrator bans the author of a
// flagged order from an alert.
const AutoBanReason = "Подозрительное объявление (автобан)"

// AccountAge is the time since registration as seen at now. A zero
// CreatedAt yields zero.
func (u *User) AccountAge(now time.Time) time.Duration {
	if u.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(u.CreatedAt)
}

// WantsSuspiciousAlerts reports whether the user is an administrator who
// has not muted suspicious-order alerts.
func (u *User) WantsSuspiciousAlerts() bool {
	return u.IsAdmin && u.SuspiciousOrdersNotifications && !u.QuietMode
}

// DisplayName renders "@username" when known, otherwise "ID <id>".
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return "ID " + strconv.FormatInt(u.ID, 10)
}

// Ban marks the user banned with a reason.
func (u *User) Ban(reason string, at time.Time) {
	u.IsBanned = true
	u.BanReason = reason
	u.BannedAt = &at
}
