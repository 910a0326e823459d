package quality

import (
	"context"
	"time"

	"github.com/qcms/backend/internal/domain/shared"
)

// CrudRepository is the storage contract shared by every entity
type CrudRepository[T any] interface {
	FindAll(ctx context.Context, filter shared.Filter) ([]T, int64, error)
	FindByKey(ctx context.Context, key shared.Key) (*T, error)
	Create(ctx context.Context, entity *T) error
	// CreateBatch inserts all rows in one transaction or none of them.
	CreateBatch(ctx context.Context, entities []T) error
	Update(ctx context.Context, key shared.Key, changes map[string]any) (*T, error)
	Delete(ctx context.Context, key shared.Key) error
	Ping(ctx context.Context) error
}

// DefectRepository adds catalogue statistics
type DefectRepository interface {
	CrudRepository[Defect]
	Statistics(ctx context.Context) (*DefectStatistics, error)
}

// CheckinRepository adds natural-key upserts for the MES mirror
type CheckinRepository interface {
	CrudRepository[InfCheckin]
	// UpsertBatch inserts or updates rows on (lot_no, station) and returns
	// the number of rows written.
	UpsertBatch(ctx context.Context, rows []InfCheckin, batchSize int) (int64, error)
	LineStatistics(ctx context.Context, from, to *time.Time) ([]CheckinLineStat, error)
}

// IqaRepository adds per-supplier result statistics
type IqaRepository interface {
	CrudRepository[IqaData]
	SupplierStatistics(ctx context.Context, from, to *time.Time) ([]SupplierQualityStat, error)
}

// CheckinSource reads check-ins from the system of record
type CheckinSource interface {
	FetchCheckins(ctx context.Context, from, to time.Time) ([]InfCheckin, error)
}
