package moderation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/davidleathers/laborboard/internal/domain/errors"
)

var validate = validator.New()

// ModerationPattern is an operator-managed weighted keyword. Keyword is the
// unique key and is matched as a case-insensitive substring of order text.
type ModerationPattern struct {
	ID         int64     `json:"id"`
	Keyword    string    `json:"keyword" validate:"required,max=255"`
	Category   string    `json:"category" validate:"required,max=50"`
	RiskWeight int       `json:"risk_weight" validate:"min=1"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPattern builds an active pattern and validates it.
func NewPattern(keyword, category string, weight int) (*ModerationPattern, error) {
	p := &ModerationPattern{
		Keyword:    strings.TrimSpace(keyword),
		Category:   strings.TrimSpace(category),
		RiskWeight: weight,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the pattern invariants: a non-empty keyword and category
// and a weight of at least one. The keyword must not contain the label
// separator used by the moderation log.
func (p *ModerationPattern) Validate() error {
	if err := validate.Struct(p); err != nil {
		return errors.NewValidationError("INVALID_PATTERN", "moderation pattern is invalid").WithCause(err)
	}
	if strings.Contains(p.Keyword, patternsSeparator) {
		return errors.NewValidationError("INVALID_PATTERN",
			fmt.Sprintf("keyword must not contain %q", patternsSeparator))
	}
	return nil
}

// WhitelistPhrase marks text as a legitimate job posting. Any active phrase
// found in order text bypasses every other moderation check.
type WhitelistPhrase struct {
	ID        int64     `json:"id"`
	Phrase    string    `json:"phrase" validate:"required,max=255"`
	Category  string    `json:"category" validate:"required,max=50"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWhitelistPhrase builds an active phrase and validates it.
func NewWhitelistPhrase(phrase, category string) (*WhitelistPhrase, error) {
	w := &WhitelistPhrase{
		Phrase:    strings.TrimSpace(phrase),
		Category:  strings.TrimSpace(category),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *WhitelistPhrase) Validate() error {
	if err := validate.Struct(w); err != nil {
		return errors.NewValidationError("INVALID_WHITELIST_PHRASE", "whitelist phrase is invalid").WithCause(err)
	}
	return nil
}

// ReferenceSnapshot is an in-memory copy of both reference tables taken once
// per evaluation.
type ReferenceSnapshot struct {
	Patterns  []ModerationPattern `json:"patterns"`
	Whitelist []WhitelistPhrase   `json:"whitelist"`
}

// Active returns a copy holding only active rows, preserving order.
func (s ReferenceSnapshot) Active() ReferenceSnapshot {
	out := ReferenceSnapshot{
		Patterns:  make([]ModerationPattern, 0, len(s.Patterns)),
		Whitelist: make([]WhitelistPhrase, 0, len(s.Whitelist)),
	}
	for _, p := range s.Patterns {
		if p.IsActive {
			out.Patterns = append(out.Patterns, p)
		}
	}
	for _, w := range s.Whitelist {
		if w.IsActive {
			out.Whitelist = append(out.Whitelist, w)
		}
	}
	return out
}

// IsEmpty reports whether neither table has any rows.
func (s ReferenceSnapshot) IsEmpty() bool {
	return len(s.Patterns) == 0 && len(s.Whitelist) == 0
}
