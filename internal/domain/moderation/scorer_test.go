package moderation

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	day        = 24 * time.Hour
	oldAccount = 100 * day
)

func pattern(keyword string, weight int) ModerationPattern {
	return ModerationPattern{Keyword: keyword, Category: "test", RiskWeight: weight, IsActive: true}
}

func phrase(p string) WhitelistPhrase {
	return WhitelistPhrase{Phrase: p, Category: CategoryLegalWork, IsActive: true}
}

func TestAssess_Scenarios(t *testing.T) {
	courierText := "Курьер для доставки посылок, анонимно, оплата наличные сразу"

	tests := []struct {
		name            string
		input           AssessmentInput
		sensitivity     SensitivityLevel
		snapshot        ReferenceSnapshot
		expectedScore   int
		expectedLabels  []string
		expectedCutoff  int
		expectedAlerted bool
	}{
		{
			name: "whitelisted legitimate job",
			input: AssessmentInput{
				Text:       "Нужен разнорабочий для переезда, оплата после работы",
				Price:      decimal.NewFromInt(2000),
				Address:    "ул. Ленина 10",
				AccountAge: 30 * day,
			},
			sensitivity: SensitivityMedium,
			snapshot: ReferenceSnapshot{
				Whitelist: []WhitelistPhrase{phrase("разнорабочий"), phrase("переезд")},
			},
			expectedScore:   0,
			expectedLabels:  []string{},
			expectedCutoff:  4,
			expectedAlerted: false,
		},
		{
			name: "courier drop offer from a new account",
			input: AssessmentInput{
				Text:       courierText,
				Price:      decimal.NewFromInt(5000),
				Address:    "Москва, центр",
				AccountAge: 10 * time.Hour,
			},
			sensitivity: SensitivityMedium,
			snapshot: ReferenceSnapshot{
				Patterns: []ModerationPattern{
					pattern("курьер", 2),
					pattern("доставки посылок", 2),
					pattern("анонимно", 3),
					pattern("наличные сразу", 2),
				},
			},
			expectedScore: 14,
			expectedLabels: []string{
				"new_account (+2)",
				"курьер (+2)",
				"доставки посылок (+2)",
				"анонимно (+3)",
				"наличные сразу (+2)",
				"courier+high_price (+3)",
			},
			expectedCutoff:  4,
			expectedAlerted: true,
		},
		{
			name: "gibberish from an old account at high sensitivity",
			input: AssessmentInput{
				Text:       "ааааа",
				Price:      decimal.NewFromInt(1000),
				Address:    "x",
				AccountAge: oldAccount,
			},
			sensitivity:   SensitivityHigh,
			snapshot:      DefaultSnapshot(),
			expectedScore: 9,
			expectedLabels: []string{
				"too_short_text (+2)",
				"repeated_characters (+3)",
				"suspicious_address (+2)",
				"incoherent_text (+2)",
			},
			expectedCutoff:  2,
			expectedAlerted: true,
		},
		{
			name: "moderation switched off",
			input: AssessmentInput{
				Text:       courierText,
				Price:      decimal.NewFromInt(5000),
				Address:    "Москва, центр",
				AccountAge: 10 * time.Hour,
			},
			sensitivity: SensitivityOff,
			snapshot: ReferenceSnapshot{
				Patterns: []ModerationPattern{
					pattern("курьер", 2),
					pattern("доставки посылок", 2),
					pattern("анонимно", 3),
					pattern("наличные сразу", 2),
				},
			},
			expectedScore: 14,
			expectedLabels: []string{
				"new_account (+2)",
				"курьер (+2)",
				"доставки посылок (+2)",
				"анонимно (+3)",
				"наличные сразу (+2)",
				"courier+high_price (+3)",
			},
			expectedCutoff:  ThresholdUnreachable,
			expectedAlerted: false,
		},
		{
			name: "whitelist wins over blacklisted keyword",
			input: AssessmentInput{
				Text:       "Уборка в казино после банкета",
				Price:      decimal.NewFromInt(3000),
				Address:    "ул. Пушкина 1",
				AccountAge: time.Hour,
			},
			sensitivity:     SensitivityHigh,
			snapshot:        DefaultSnapshot(),
			expectedScore:   0,
			expectedLabels:  []string{},
			expectedCutoff:  2,
			expectedAlerted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Assess(tt.input, tt.sensitivity, tt.snapshot)

			assert.Equal(t, tt.expectedScore, result.Score)
			assert.Equal(t, tt.expectedLabels, result.MatchedPatterns)
			assert.Equal(t, tt.expectedCutoff, result.Threshold)
			assert.Equal(t, tt.expectedAlerted, result.ShouldAlert())
		})
	}
}

func TestAssess_CourierOfferAgainstSeedTables(t *testing.T) {
	// "ставки" is a substring of "доставки", so the gambling keyword fires too.
	input := AssessmentInput{
		Text:       "Курьер для доставки посылок, анонимно, оплата наличные сразу",
		Price:      decimal.NewFromInt(5000),
		Address:    "Москва, центр",
		AccountAge: 10 * time.Hour,
	}

	result := Assess(input, SensitivityMedium, DefaultSnapshot())

	assert.Equal(t, 16, result.Score)
	assert.Equal(t, []string{
		"new_account (+2)",
		"курьер (+2)",
		"анонимно (+3)",
		"наличные сразу (+2)",
		"ставки (+4)",
		"courier+high_price (+3)",
	}, result.MatchedPatterns)
	assert.True(t, result.ShouldAlert())
}

func TestAssess_AccountAgeBands(t *testing.T) {
	snapshot := ReferenceSnapshot{}
	base := AssessmentInput{
		Text:    "Требуется помощь с вывозом мусора со двора",
		Address: "ул. Садовая 5",
	}

	tests := []struct {
		name     string
		age      time.Duration
		expected []string
	}{
		{"just registered", 0, []string{"new_account (+2)"}},
		{"47 hours", 47 * time.Hour, []string{"new_account (+2)"}},
		{"exactly 48 hours", 48 * time.Hour, []string{"young_account (+1)"}},
		{"6 days 23 hours", 6*day + 23*time.Hour, []string{"young_account (+1)"}},
		{"exactly 7 days", 7 * day, []string{}},
		{"one year", 365 * day, []string{}},
		{"day count beyond duration range", AccountAgeFromDays(200000), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.AccountAge = tt.age
			result := Assess(in, SensitivityMedium, snapshot)
			assert.Equal(t, tt.expected, result.MatchedPatterns)
		})
	}
}

func TestAccountAgeFromDays(t *testing.T) {
	assert.Equal(t, 2*day, AccountAgeFromDays(2))
	assert.Equal(t, time.Duration(0), AccountAgeFromDays(-5))
	assert.Equal(t, MaxAccountAgeDays*day, AccountAgeFromDays(MaxAccountAgeDays))
	assert.Equal(t, MaxAccountAgeDays*day, AccountAgeFromDays(200000))
	assert.Positive(t, AccountAgeFromDays(200000))
}

func TestAssess_PriceHeuristics(t *testing.T) {
	snapshot := ReferenceSnapshot{}
	address := "ул. Садовая 5"

	tests := []struct {
		name     string
		text     string
		price    decimal.Decimal
		expected []string
	}{
		{
			name:     "courier above limit",
			text:     "Ищу курьера на весь день по городу",
			price:    decimal.NewFromInt(4001),
			expected: []string{"courier+high_price (+3)"},
		},
		{
			name:     "courier at the limit",
			text:     "Ищу курьера на весь день по городу",
			price:    decimal.NewFromInt(4000),
			expected: []string{},
		},
		{
			name:     "delivery above limit",
			text:     "Нужна доставка мебели на дачу в субботу",
			price:    decimal.RequireFromString("4000.01"),
			expected: []string{"delivery+high_price (+2)"},
		},
		{
			name:     "both terms fire independently",
			text:     "Нужен курьер, доставка документов по офисам",
			price:    decimal.NewFromInt(9000),
			expected: []string{"courier+high_price (+3)", "delivery+high_price (+2)"},
		},
		{
			name:     "english terms",
			text:     "Need a courier for parcel delivery downtown",
			price:    decimal.NewFromInt(5000),
			expected: []string{"courier+high_price (+3)", "delivery+high_price (+2)"},
		},
		{
			name:     "zero price never fires",
			text:     "Нужен курьер, доставка документов по офисам",
			price:    decimal.Zero,
			expected: []string{},
		},
		{
			name:     "negative price never fires",
			text:     "Нужен курьер, доставка документов по офисам",
			price:    decimal.NewFromInt(-10000),
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := AssessmentInput{Text: tt.text, Address: address, Price: tt.price, AccountAge: oldAccount}
			result := Assess(in, SensitivityMedium, snapshot)
			assert.Equal(t, tt.expected, result.MatchedPatterns)
		})
	}
}

func TestAssess_Anomalies(t *testing.T) {
	snapshot := ReferenceSnapshot{}

	tests := []struct {
		name     string
		text     string
		address  string
		expected []string
	}{
		{
			name:     "short text with marker word",
			text:     "  работа  ",
			address:  "ул. Садовая 5",
			expected: []string{"too_short_text (+2)"},
		},
		{
			name:     "short incoherent text",
			text:     "привет как дела",
			address:  "ул. Садовая 5",
			expected: []string{"incoherent_text (+2)"},
		},
		{
			name:     "marker word check is case-insensitive",
			text:     "НУЖНО вскопать",
			address:  "ул. Садовая 5",
			expected: []string{},
		},
		{
			name:     "repeated characters in a long text",
			text:     "Требуется помощь, оплата сразу!!!!!",
			address:  "ул. Садовая 5",
			expected: []string{"repeated_characters (+3)"},
		},
		{
			name:     "four repeats are fine",
			text:     "Требуется помощь, оплата сразу!!!!",
			address:  "ул. Садовая 5",
			expected: []string{},
		},
		{
			name:     "short address after trimming",
			text:     "Требуется помощь с огородом на выходных",
			address:  "  д.1  ",
			expected: []string{"suspicious_address (+2)"},
		},
		{
			name:     "empty address",
			text:     "Требуется помощь с огородом на выходных",
			address:  "",
			expected: []string{"suspicious_address (+2)"},
		},
		{
			name:     "six emoji",
			text:     "Требуется помощь с огородом 🌱🌱🌻🌻🍅🍅",
			address:  "ул. Садовая 5",
			expected: []string{"excessive_emoji (+1)"},
		},
		{
			name:     "five emoji are fine",
			text:     "Требуется помощь с огородом 🌱🌱🌻🌻🍅",
			address:  "ул. Садовая 5",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := AssessmentInput{Text: tt.text, Address: tt.address, AccountAge: oldAccount}
			result := Assess(in, SensitivityMedium, snapshot)
			assert.Equal(t, tt.expected, result.MatchedPatterns)
		})
	}
}

func TestAssess_KeywordMatching(t *testing.T) {
	in := AssessmentInput{
		Text:       "ЛЁГКИЙ ЗАРАБОТОК, высокий доход, свободный график",
		Address:    "удалённо",
		AccountAge: oldAccount,
	}

	t.Run("case-insensitive for cyrillic", func(t *testing.T) {
		result := Assess(in, SensitivityMedium, ReferenceSnapshot{
			Patterns: []ModerationPattern{pattern("лёгкий заработок", 4)},
		})
		assert.Equal(t, 4, result.Score)
		assert.Equal(t, []string{"лёгкий заработок (+4)"}, result.MatchedPatterns)
	})

	t.Run("labels keep the stored keyword spelling", func(t *testing.T) {
		result := Assess(in, SensitivityMedium, ReferenceSnapshot{
			Patterns: []ModerationPattern{pattern("Высокий Доход", 3)},
		})
		assert.Equal(t, []string{"Высокий Доход (+3)"}, result.MatchedPatterns)
	})

	t.Run("hits in the same category all count", func(t *testing.T) {
		result := Assess(in, SensitivityMedium, DefaultSnapshot())
		assert.Equal(t, 4+3+1, result.Score)
		assert.Equal(t, []string{
			"лёгкий заработок (+4)",
			"высокий доход (+3)",
			"свободный график (+1)",
		}, result.MatchedPatterns)
	})

	t.Run("inactive pattern is ignored", func(t *testing.T) {
		p := pattern("высокий доход", 3)
		p.IsActive = false
		result := Assess(in, SensitivityMedium, ReferenceSnapshot{Patterns: []ModerationPattern{p}})
		assert.Zero(t, result.Score)
	})

	t.Run("inactive whitelist phrase does not short-circuit", func(t *testing.T) {
		w := phrase("свободный график")
		w.IsActive = false
		result := Assess(in, SensitivityMedium, ReferenceSnapshot{
			Patterns:  []ModerationPattern{pattern("высокий доход", 3)},
			Whitelist: []WhitelistPhrase{w},
		})
		assert.Equal(t, 3, result.Score)
	})

	t.Run("blank rows never match everything", func(t *testing.T) {
		result := Assess(in, SensitivityMedium, ReferenceSnapshot{
			Patterns:  []ModerationPattern{pattern("   ", 5)},
			Whitelist: []WhitelistPhrase{phrase("")},
		})
		assert.Zero(t, result.Score)
	})
}

func TestAssess_DoesNotMutateSnapshot(t *testing.T) {
	snapshot := DefaultSnapshot()
	before := DefaultSnapshot()

	in := AssessmentInput{Text: "Казино, ставки, быстрые деньги", Address: "x", AccountAge: time.Hour}
	_ = Assess(in, SensitivityHigh, snapshot)

	require.Equal(t, before, snapshot)
}

func TestRiskAssessment_PatternsText(t *testing.T) {
	assert.Equal(t, "", RiskAssessment{MatchedPatterns: []string{}}.PatternsText())

	a := RiskAssessment{MatchedPatterns: []string{"new_account (+2)", "казино (+5)"}}
	assert.Equal(t, "new_account (+2), казино (+5)", a.PatternsText())
	assert.Equal(t, a.MatchedPatterns, SplitPatternsText(a.PatternsText()))
	assert.Empty(t, SplitPatternsText(""))
}

func TestDefaultTables(t *testing.T) {
	patterns := DefaultPatterns()
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		require.NoError(t, p.Validate(), p.Keyword)
		assert.True(t, p.IsActive)
		assert.False(t, seen[p.Keyword], "duplicate keyword %q", p.Keyword)
		seen[p.Keyword] = true
		assert.Equal(t, strings.TrimSpace(p.Keyword), p.Keyword)
	}

	for _, w := range DefaultWhitelist() {
		require.NoError(t, w.Validate(), w.Phrase)
		assert.Equal(t, CategoryLegalWork, w.Category)
	}
}
