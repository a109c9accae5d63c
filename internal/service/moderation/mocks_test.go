package moderation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/laborboard/internal/domain/moderation"
	"github.com/davidleathers/laborboard/internal/domain/order"
	"github.com/davidleathers/laborboard/internal/domain/user"
	"github.com/davidleathers/laborboard/internal/service/notification"
)

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrders) SoftDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrders) SoftDeleteActiveByCustomer(ctx context.Context, customerID int64) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrders) ListRecent(ctx context.Context, since time.Time, limit int) ([]order.Order, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUsers) Ban(ctx context.Context, id int64, reason string, at time.Time) error {
	return m.Called(ctx, id, reason, at).Error(0)
}

type mockSensitivity struct {
	mock.Mock
}

func (m *mockSensitivity) Get(ctx context.Context) (moderation.SensitivityLevel, error) {
	args := m.Called(ctx)
	return args.Get(0).(moderation.SensitivityLevel), args.Error(1)
}

type mockReference struct {
	mock.Mock
}

func (m *mockReference) LoadSnapshot(ctx context.Context) (moderation.ReferenceSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(moderation.ReferenceSnapshot), args.Error(1)
}

type mockLogs struct {
	mock.Mock
}

func (m *mockLogs) Save(ctx context.Context, entry *moderation.LogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockLogs) LatestForOrder(ctx context.Context, orderID int64) (*moderation.LogEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*moderation.LogEntry), args.Error(1)
}

func (m *mockLogs) Stats(ctx context.Context, since time.Time) (*moderation.Stats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*moderation.Stats), args.Error(1)
}

func (m *mockLogs) Suspicious(ctx context.Context, minScore, limit int) ([]moderation.SuspiciousOrder, error) {
	args := m.Called(ctx, minScore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]moderation.SuspiciousOrder), args.Error(1)
}

type mockDecisions struct {
	mock.Mock
}

func (m *mockDecisions) Save(ctx context.Context, d *moderation.AdminDecision) error {
	return m.Called(ctx, d).Error(0)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, alert *notification.Alert) (notification.Report, error) {
	args := m.Called(ctx, alert)
	return args.Get(0).(notification.Report), args.Error(1)
}

type mockAlerts struct {
	mock.Mock
}

func (m *mockAlerts) GetAlert(ctx context.Context, id uuid.UUID) (*notification.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Alert), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvaluation(ctx context.Context, e *Evaluation) error {
	return m.Called(ctx, e).Error(0)
}
