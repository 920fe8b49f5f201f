package jobs_test

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/monitoring"
	"dispatch/internal/core/domain/model/notification"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockDeliveryRepository struct{ mock.Mock }

func (m *MockDeliveryRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDeliveryRepository) CountByStatus(ctx context.Context) (map[delivery.Status]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[delivery.Status]int64), args.Error(1)
}

func (m *MockDeliveryRepository) FindOverdue(ctx context.Context, asOf time.Time) ([]*delivery.Delivery, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, aggregate *delivery.Delivery) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockDeliveryRepository) FindArchivable(ctx context.Context, cutoff time.Time) ([]*delivery.Delivery, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDeliveryRepository) FindDueForReminder(ctx context.Context, from, until time.Time) ([]*delivery.Delivery, error) {
	args := m.Called(ctx, from, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

type MockCourierRepository struct{ mock.Mock }

func (m *MockCourierRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCourierRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) FindInactive(ctx context.Context, cutoff time.Time) ([]ports.InactiveAccount, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.InactiveAccount), args.Error(1)
}

type MockNotificationStore struct{ mock.Mock }

func (m *MockNotificationStore) Append(ctx context.Context, records ...notification.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockNotificationStore) Pending(ctx context.Context) ([]notification.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Record), args.Error(1)
}

func (m *MockNotificationStore) Drain(ctx context.Context) ([]notification.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Record), args.Error(1)
}

func (m *MockNotificationStore) Archive(ctx context.Context, day time.Time, records ...notification.Record) error {
	args := m.Called(ctx, day, records)
	return args.Error(0)
}

func (m *MockNotificationStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

type MockStoreStatsProvider struct{ mock.Mock }

func (m *MockStoreStatsProvider) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStoreStatsProvider) Stats(ctx context.Context) (ports.StoreStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(ports.StoreStats), args.Error(1)
}

func (m *MockStoreStatsProvider) Optimize(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockMetricsStore struct{ mock.Mock }

func (m *MockMetricsStore) Append(ctx context.Context, snapshot monitoring.MetricsSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockMetricsStore) Latest(ctx context.Context) (*monitoring.MetricsSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monitoring.MetricsSnapshot), args.Error(1)
}

func (m *MockMetricsStore) Summary(ctx context.Context) (monitoring.RollingSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(monitoring.RollingSummary), args.Error(1)
}

type MockHealthStore struct{ mock.Mock }

func (m *MockHealthStore) Append(ctx context.Context, snapshot monitoring.HealthSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockHealthStore) Current(ctx context.Context) (*monitoring.HealthSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monitoring.HealthSnapshot), args.Error(1)
}

type MockArchiveWriter struct{ mock.Mock }

func (m *MockArchiveWriter) Write(ctx context.Context, prefix string, stamp time.Time, value any) (string, error) {
	args := m.Called(ctx, prefix, stamp, value)
	return args.String(0), args.Error(1)
}

type MockDispatcher struct{ mock.Mock }

func (m *MockDispatcher) Dispatch(ctx context.Context, rec notification.Record) (jobs.DispatchResult, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(jobs.DispatchResult), args.Error(1)
}
