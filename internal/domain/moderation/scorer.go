package moderation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	NewAccountAge   = 48 * time.Hour
	YoungAccountAge = 7 * 24 * time.Hour

	minTextLength       = 10
	minCoherentLength   = 20
	minAddressLength    = 5
	repeatedRunLength   = 5
	maxEmojiCount       = 5
	emojiRangeThreshold = 0x1F1E6
)

// HighPriceLimit is the price above which courier and delivery offers
// become suspicious.
var HighPriceLimit = decimal.NewFromInt(4000)

var (
	courierTerms  = []string{"курьер", "courier"}
	deliveryTerms = []string{"доставка", "delivery"}

	// jobMarkerWords are words a genuine job posting almost always contains.
	jobMarkerWords = []string{
		"работа", "нужно", "требуется", "ищу", "надо", "заказ", "услуга",
		"work", "need", "required", "looking for", "order", "service",
	}
)

// Assess scores an order against a reference snapshot. It performs no I/O
// and returns the same result for the same arguments.
func Assess(in AssessmentInput, sensitivity SensitivityLevel, snapshot ReferenceSnapshot) RiskAssessment {
	result := RiskAssessment{
		MatchedPatterns: []string{},
		Threshold:       sensitivity.Threshold(),
	}

	folded := strings.ToLower(in.Text)

	if isWhitelisted(folded, snapshot.Whitelist) {
		return result
	}

	add := func(label string, weight int) {
		result.Score += weight
		result.MatchedPatterns = append(result.MatchedPatterns, fmt.Sprintf("%s (+%d)", label, weight))
	}

	switch {
	case in.AccountAge < NewAccountAge:
		add("new_account", 2)
	case in.AccountAge < YoungAccountAge:
		add("young_account", 1)
	}

	for _, p := range snapshot.Patterns {
		if !p.IsActive || p.RiskWeight < 1 {
			continue
		}
		keyword := strings.ToLower(strings.TrimSpace(p.Keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(folded, keyword) {
			add(p.Keyword, p.RiskWeight)
		}
	}

	if in.Price.GreaterThan(HighPriceLimit) {
		if containsAny(folded, courierTerms) {
			add("courier+high_price", 3)
		}
		if containsAny(folded, deliveryTerms) {
			add("delivery+high_price", 2)
		}
	}

	trimmed := strings.TrimSpace(in.Text)
	textLen := utf8.RuneCountInString(trimmed)

	if textLen < minTextLength {
		add("too_short_text", 2)
	}
	if hasRepeatedRun(in.Text, repeatedRunLength) {
		add("repeated_characters", 3)
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Address)) < minAddressLength {
		add("suspicious_address", 2)
	}
	if textLen < minCoherentLength && !containsAny(folded, jobMarkerWords) {
		add("incoherent_text", 2)
	}
	if countEmoji(in.Text) > maxEmojiCount {
		add("excessive_emoji", 1)
	}

	return result
}

func isWhitelisted(folded string, whitelist []WhitelistPhrase) bool {
	for _, w := range whitelist {
		if !w.IsActive {
			continue
		}
		phrase := strings.ToLower(strings.TrimSpace(w.Phrase))
		if phrase != "" && strings.Contains(folded, phrase) {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// hasRepeatedRun reports whether any character other than a newline occurs
// n or more times in a row.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == '\n' {
			run = 0
			continue
		}
		if run > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		prev = r
		if run >= n {
			return true
		}
	}
	return false
}

func countEmoji(s string) int {
	n := 0
	for _, r := range s {
		if r > emojiRangeThreshold {
			n++
		}
	}
	return n
}
