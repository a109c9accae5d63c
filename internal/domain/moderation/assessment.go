package moderation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxAccountAgeDays caps account ages given as a day count. Older accounts
// score the same as any long-standing one.
const MaxAccountAgeDays = 36500

// AccountAgeFromDays converts a day count into an account age clamped to
// [0, MaxAccountAgeDays] days, so large inputs cannot overflow time.Duration.
func AccountAgeFromDays(days int) time.Duration {
	days = max(0, min(days, MaxAccountAgeDays))
	return time.Duration(days) * 24 * time.Hour
}

// AssessmentInput carries the already-fetched facts about one order.
type AssessmentInput struct {
	// Text is the order description. It is case-folded for matching only.
	Text    string
	Address string
	// Price is compared against the high-price limit. Zero or negative
	// prices never trigger price rules.
	Price decimal.Decimal
	// AccountAge is the time elapsed since the submitter registered.
	AccountAge time.Duration
}

// RiskAssessment is the outcome of scoring one order.
type RiskAssessment struct {
	Score           int      `json:"score"`
	MatchedPatterns []string `json:"matched_patterns"`
	Threshold       int      `json:"threshold"`
}

// ShouldAlert reports whether administrators must be notified.
func (a RiskAssessment) ShouldAlert() bool {
	return a.Score >= a.Threshold
}

const patternsSeparator = ", "

// PatternsText joins the evidence labels the way they are stored in the
// moderation log.
func (a RiskAssessment) PatternsText() string {
	return strings.Join(a.MatchedPatterns, patternsSeparator)
}

// SplitPatternsText reverses PatternsText for rows read back from storage.
func SplitPatternsText(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return strings.Split(s, patternsSeparator)
}
