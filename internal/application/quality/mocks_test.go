package quality

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

// ============================================================================
// Mocks
// ============================================================================

// MockCrudRepository is a mock implementation of quality.CrudRepository
type MockCrudRepository[T any] struct {
	mock.Mock
}

func (m *MockCrudRepository[T]) FindAll(ctx context.Context, filter shared.Filter) ([]T, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]T), args.Get(1).(int64), args.Error(2)
}

func (m *MockCrudRepository[T]) FindByKey(ctx context.Context, key shared.Key) (*T, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockCrudRepository[T]) Create(ctx context.Context, entity *T) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockCrudRepository[T]) CreateBatch(ctx context.Context, entities []T) error {
	args := m.Called(ctx, entities)
	return args.Error(0)
}

func (m *MockCrudRepository[T]) Update(ctx context.Context, key shared.Key, changes map[string]any) (*T, error) {
	args := m.Called(ctx, key, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockCrudRepository[T]) Delete(ctx context.Context, key shared.Key) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCrudRepository[T]) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDefectRepository is a mock implementation of quality.DefectRepository
type MockDefectRepository struct {
	MockCrudRepository[quality.Defect]
}

func (m *MockDefectRepository) Statistics(ctx context.Context) (*quality.DefectStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quality.DefectStatistics), args.Error(1)
}

// MockCheckinRepository is a mock implementation of quality.CheckinRepository
type MockCheckinRepository struct {
	MockCrudRepository[quality.InfCheckin]
}

func (m *MockCheckinRepository) UpsertBatch(ctx context.Context, rows []quality.InfCheckin, batchSize int) (int64, error) {
	args := m.Called(ctx, rows, batchSize)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCheckinRepository) LineStatistics(ctx context.Context, from, to *time.Time) ([]quality.CheckinLineStat, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quality.CheckinLineStat), args.Error(1)
}

// MockIqaRepository is a mock implementation of quality.IqaRepository
type MockIqaRepository struct {
	MockCrudRepository[quality.IqaData]
}

func (m *MockIqaRepository) SupplierStatistics(ctx context.Context, from, to *time.Time) ([]quality.SupplierQualityStat, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quality.SupplierQualityStat), args.Error(1)
}

// MockCheckinSource is a mock implementation of quality.CheckinSource
type MockCheckinSource struct {
	mock.Mock
}

func (m *MockCheckinSource) FetchCheckins(ctx context.Context, from, to time.Time) ([]quality.InfCheckin, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quality.InfCheckin), args.Error(1)
}

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStorage) DownloadURL(ctx context.Context, key string) (string, time.Time, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

var (
	_ quality.DefectRepository  = (*MockDefectRepository)(nil)
	_ quality.CheckinRepository = (*MockCheckinRepository)(nil)
	_ quality.IqaRepository     = (*MockIqaRepository)(nil)
	_ ObjectStorage             = (*MockObjectStorage)(nil)
)
