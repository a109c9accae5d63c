package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/laborboard/internal/domain/moderation"
	"github.com/davidleathers/laborboard/internal/domain/user"
	"github.com/davidleathers/laborboard/internal/infrastructure/database"
	"github.com/davidleathers/laborboard/internal/testutil"
)

func TestFormatLevel(t *testing.T) {
	assert.Equal(t, "off (alerts disabled)", formatLevel(moderation.SensitivityOff))
	assert.Equal(t, "medium (threshold 4)", formatLevel(moderation.SensitivityMedium))
	assert.Equal(t, "high (threshold 2)", formatLevel(moderation.SensitivityHigh))
}

func TestWriteAssessment(t *testing.T) {
	var buf bytes.Buffer
	writeAssessment(&buf, moderation.RiskAssessment{
		Score:           5,
		MatchedPatterns: []string{"курьер (+2)", "анонимно (+3)"},
		Threshold:       4,
	})
	assert.Equal(t, "score 5 / threshold 4: FLAGGED\n  курьер (+2)\n  анонимно (+3)\n", buf.String())

	buf.Reset()
	writeAssessment(&buf, moderation.RiskAssessment{Score: 9, Threshold: moderation.ThresholdUnreachable})
	assert.Equal(t, "score 9 / threshold off: ok\n", buf.String())
}

func TestWriteSuspicious(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSuspicious(&buf, nil))
	assert.Equal(t, "no suspicious orders\n", buf.String())

	buf.Reset()
	require.NoError(t, writeSuspicious(&buf, []moderation.SuspiciousOrder{{
		OrderID:         7,
		CustomerID:      555,
		RiskScore:       9,
		Price:           decimal.NewFromInt(5000),
		MatchedPatterns: []string{"ставки (+4)"},
		CheckedAt:       time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC),
	}}))
	assert.Contains(t, buf.String(), "5000.00")
	assert.Contains(t, buf.String(), "2025-04-02T10:00:00Z")
	assert.Contains(t, buf.String(), "ставки (+4)")
}

func TestRootCmd_RejectsBadArgumentsBeforeConnecting(t *testing.T) {
	a := newApp()
	root := newRootCmd(a)
	root.SetArgs([]string{"sensitivity", "set"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
	assert.Nil(t, a.pool)
}

func execute(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	a.configPath = ""
	defer a.close()

	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"--database-url", url, "--no-cache"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestModctl_AgainstDatabase(t *testing.T) {
	db := testutil.NewTestDB(t)

	out, err := execute(t, db.URL, "seed")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("seeded %d patterns and %d whitelist phrases\n",
		len(moderation.DefaultPatterns()), len(moderation.DefaultWhitelist())), out)

	out, err = execute(t, db.URL, "seed")
	require.NoError(t, err)
	assert.Equal(t, "seeded 0 patterns and 0 whitelist phrases\n", out)

	t.Run("sensitivity", func(t *testing.T) {
		out, err := execute(t, db.URL, "sensitivity", "get")
		require.NoError(t, err)
		assert.Equal(t, "medium (threshold 4)\n", out)

		out, err = execute(t, db.URL, "sensitivity", "set", "HIGH", "--by", "42")
		require.NoError(t, err)
		assert.Equal(t, "sensitivity set to high (threshold 2)\n", out)

		_, err = execute(t, db.URL, "sensitivity", "set", "extreme")
		require.Error(t, err)

		out, err = execute(t, db.URL, "sensitivity", "set", "medium")
		require.NoError(t, err)
		assert.Equal(t, "sensitivity set to medium (threshold 4)\n", out)
	})

	t.Run("patterns", func(t *testing.T) {
		out, err := execute(t, db.URL, "patterns", "add", "предоплата", "3", "--category", "fraud")
		require.NoError(t, err)
		assert.Equal(t, "pattern \"предоплата\" saved with weight 3\n", out)

		_, err = execute(t, db.URL, "patterns", "add", "пусто", "0")
		require.Error(t, err)

		out, err = execute(t, db.URL, "patterns", "disable", "предоплата")
		require.NoError(t, err)
		assert.Equal(t, "pattern \"предоплата\" disabled\n", out)

		_, err = execute(t, db.URL, "patterns", "enable", "нет-такого")
		require.Error(t, err)

		out, err = execute(t, db.URL, "patterns", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "KEYWORD")
		assert.Regexp(t, `предоплата\s+fraud\s+3\s+false`, out)
	})

	t.Run("check uses stored tables", func(t *testing.T) {
		out, err := execute(t, db.URL, "check", "Переезд квартиры, нужны грузчики")
		require.NoError(t, err)
		assert.Equal(t, "score 0 / threshold 4: ok\n", out)

		out, err = execute(t, db.URL, "check", "Ставки на спорт, анонимно", "--age-days", "400")
		require.NoError(t, err)
		assert.Contains(t, out, "FLAGGED")
		assert.Contains(t, out, "ставки (+4)")
	})

	t.Run("stats on empty log", func(t *testing.T) {
		out, err := execute(t, db.URL, "stats", "--days", "7")
		require.NoError(t, err)
		assert.Regexp(t, `checks\s+0`, out)
	})

	t.Run("admin preferences", func(t *testing.T) {
		users := database.NewUserRepository(db.Pool)
		require.NoError(t, users.Save(context.Background(), &user.User{
			ID:                            42,
			IsAdmin:                       true,
			SuspiciousOrdersNotifications: true,
		}))

		out, err := execute(t, db.URL, "admin", "quiet", "42")
		require.NoError(t, err)
		assert.Equal(t, "user 42: quiet mode on\n", out)

		out, err = execute(t, db.URL, "admin", "notify", "42", "off")
		require.NoError(t, err)
		assert.Equal(t, "user 42: suspicious alerts off\n", out)

		recipients, err := users.ListAlertRecipients(context.Background())
		require.NoError(t, err)
		assert.Empty(t, recipients)

		_, err = execute(t, db.URL, "admin", "notify", "42", "maybe")
		require.Error(t, err)

		_, err = execute(t, db.URL, "admin", "quiet", "999")
		require.Error(t, err)
	})
}
