package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/laborboard/internal/domain/user"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ListAlertRecipients(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendAlert(ctx context.Context, chatID int64, msg Message) error {
	args := m.Called(ctx, chatID, msg)
	return args.Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveAlert(ctx context.Context, alert *Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func admin(id int64) user.User {
	return user.User{ID: id, IsAdmin: true, SuspiciousOrdersNotifications: true}
}

func testAlert() *Alert {
	return &Alert{
		AlertID:         uuid.New(),
		OrderID:         42,
		CustomerID:      555,
		CustomerName:    "@dropper",
		AccountAge:      10 * time.Hour,
		AccountKnown:    true,
		Score:           14,
		Threshold:       4,
		MatchedPatterns: []string{"new_account (+2)", "курьер (+2)"},
		OrderText:       "Курьер для доставки посылок",
		Price:           decimal.NewFromInt(5000),
		CreatedAt:       time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("one failing admin does not stop the others", func(t *testing.T) {
		dir := new(mockDirectory)
		sender := new(mockSender)
		store := new(mockStore)

		quiet := admin(4)
		quiet.QuietMode = true
		muted := admin(5)
		muted.SuspiciousOrdersNotifications = false

		dir.On("ListAlertRecipients", mock.Anything).Return([]user.User{admin(1), admin(2), admin(3), quiet, muted}, nil)
		store.On("SaveAlert", mock.Anything, mock.Anything).Return(nil)
		sender.On("SendAlert", mock.Anything, int64(1), mock.Anything).Return(nil)
		sender.On("SendAlert", mock.Anything, int64(2), mock.Anything).Return(errors.New("Forbidden: bot was blocked by the user"))
		sender.On("SendAlert", mock.Anything, int64(3), mock.Anything).Return(nil)

		d := NewDispatcher(dir, sender, store, nil, 0, zaptest.NewLogger(t))
		report, err := d.Dispatch(ctx, testAlert())

		require.NoError(t, err)
		assert.Equal(t, Report{Recipients: 3, Delivered: 2, Failed: 1}, report)
		sender.AssertNumberOfCalls(t, "SendAlert", 3)
		sender.AssertNotCalled(t, "SendAlert", mock.Anything, int64(4), mock.Anything)
		sender.AssertNotCalled(t, "SendAlert", mock.Anything, int64(5), mock.Anything)
	})

	t.Run("store failure still delivers", func(t *testing.T) {
		dir := new(mockDirectory)
		sender := new(mockSender)
		store := new(mockStore)

		dir.On("ListAlertRecipients", mock.Anything).Return([]user.User{admin(1)}, nil)
		store.On("SaveAlert", mock.Anything, mock.Anything).Return(errors.New("redis down"))
		sender.On("SendAlert", mock.Anything, int64(1), mock.MatchedBy(func(m Message) bool {
			return strings.Contains(m.Text, "#42") && m.Alert.OrderID == 42
		})).Return(nil)

		report, err := NewDispatcher(dir, sender, store, nil, 0, zaptest.NewLogger(t)).Dispatch(ctx, testAlert())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Delivered)
		sender.AssertExpectations(t)
	})

	t.Run("directory failure is returned", func(t *testing.T) {
		dir := new(mockDirectory)
		dir.On("ListAlertRecipients", mock.Anything).Return(nil, errors.New("db down"))

		_, err := NewDispatcher(dir, new(mockSender), nil, nil, 0, zaptest.NewLogger(t)).Dispatch(ctx, testAlert())
		assert.Error(t, err)
	})

	t.Run("cancelled context counts remaining recipients as failed", func(t *testing.T) {
		dir := new(mockDirectory)
		sender := new(mockSender)
		dir.On("ListAlertRecipients", mock.Anything).Return([]user.User{admin(1), admin(2)}, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		report, err := NewDispatcher(dir, sender, nil, nil, 0, zaptest.NewLogger(t)).Dispatch(cancelled, testAlert())
		require.NoError(t, err)
		assert.Equal(t, Report{Recipients: 2, Failed: 2}, report)
		sender.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRenderAlert(t *testing.T) {
	alert := testAlert()
	alert.OrderText = strings.Repeat("я", 250) + "<script>"

	text, err := RenderAlert(alert, 200)
	require.NoError(t, err)

	assert.Contains(t, text, "ПОДОЗРИТЕЛЬНОЕ ОБЪЯВЛЕНИЕ #42")
	assert.Contains(t, text, "14 баллов")
	assert.Contains(t, text, "@dropper <b>🆕 НОВЫЙ ПОЛЬЗОВАТЕЛЬ (менее 48 часов)</b>")
	assert.Contains(t, text, "01.03.2025 12:00 МСК")
	assert.Contains(t, text, "  • new_account (+2)\n")
	assert.Contains(t, text, strings.Repeat("я", 200)+"...")
	assert.NotContains(t, text, strings.Repeat("я", 201))
	assert.NotContains(t, text, "<script>")
}

func TestRenderAlert_EscapesAndFallbacks(t *testing.T) {
	alert := testAlert()
	alert.CustomerName = ""
	alert.AccountKnown = false
	alert.MatchedPatterns = nil
	alert.OrderText = "Tom & Jerry <b>"

	text, err := RenderAlert(alert, 0)
	require.NoError(t, err)

	assert.Contains(t, text, "ID 555")
	assert.NotContains(t, text, "НОВЫЙ")
	assert.NotContains(t, text, "Найденные паттерны")
	assert.Contains(t, text, "Tom &amp; Jerry &lt;b&gt;")
}

func TestAlert_AccountBadge(t *testing.T) {
	a := &Alert{AccountKnown: true, AccountAge: 3 * 24 * time.Hour}
	assert.Contains(t, a.AccountBadge(), "Молодой аккаунт")

	a.AccountAge = 30 * 24 * time.Hour
	assert.Empty(t, a.AccountBadge())
}
