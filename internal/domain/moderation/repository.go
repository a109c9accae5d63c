package moderation

import (
	"context"
	"time"
)

// PatternRepository stores the weighted keyword table.
type PatternRepository interface {
	ListActive(ctx context.Context) ([]ModerationPattern, error)
	List(ctx context.Context) ([]ModerationPattern, error)
	// Upsert inserts the pattern or updates category, weight and activity of
	// the row with the same keyword.
	Upsert(ctx context.Context, p *ModerationPattern) error
	SetActive(ctx context.Context, keyword string, active bool) error
}

// WhitelistRepository stores the legitimate-job phrase table.
type WhitelistRepository interface {
	ListActive(ctx context.Context) ([]WhitelistPhrase, error)
	List(ctx context.Context) ([]WhitelistPhrase, error)
	Upsert(ctx context.Context, w *WhitelistPhrase) error
	SetActive(ctx context.Context, phrase string, active bool) error
}

// LogRepository stores one row per evaluated order.
type LogRepository interface {
	Save(ctx context.Context, entry *LogEntry) error
	// LatestForOrder returns the most recent row for the order, or a not
	// found error when the order was never evaluated.
	LatestForOrder(ctx context.Context, orderID int64) (*LogEntry, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
	Suspicious(ctx context.Context, minScore, limit int) ([]SuspiciousOrder, error)
}

// DecisionRepository stores administrator verdicts.
type DecisionRepository interface {
	Save(ctx context.Context, d *AdminDecision) error
}

// SettingsRepository persists the global sensitivity level.
type SettingsRepository interface {
	// GetSensitivity returns the stored raw value and false when the setting
	// was never written.
	GetSensitivity(ctx context.Context) (string, bool, error)
	SetSensitivity(ctx context.Context, value string, changedBy int64, at time.Time) error
}

// ReferenceSource loads a snapshot of both active reference tables.
type ReferenceSource interface {
	LoadSnapshot(ctx context.Context) (ReferenceSnapshot, error)
}
