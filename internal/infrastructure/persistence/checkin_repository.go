package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

// checkinSyncedColumns are overwritten when a mirrored check-in already exists
var checkinSyncedColumns = []string{
	"mo_number", "part_no", "model_name", "line_name", "quantity", "operator", "checkin_date", "synced_at", "updated_at",
}

// GormCheckinRepository stores the MES check-in mirror
type GormCheckinRepository struct {
	*CrudRepository[quality.InfCheckin]
}

// NewGormCheckinRepository creates a check-in repository for cfg
func NewGormCheckinRepository(db *gorm.DB, cfg shared.EntityConfig) *GormCheckinRepository {
	return &GormCheckinRepository{CrudRepository: NewCrudRepository[quality.InfCheckin](db, cfg)}
}

// UpsertBatch writes rows in batches inside one transaction, updating rows
// whose (lot_no, station) already exists
func (r *GormCheckinRepository) UpsertBatch(ctx context.Context, rows []quality.InfCheckin, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = len(rows)
	}

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "lot_no"}, {Name: "station"}},
		DoUpdates: clause.AssignmentColumns(checkinSyncedColumns),
	}

	var written int64
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += batchSize {
			end := min(start+batchSize, len(rows))
			result := tx.Clauses(conflict).Create(rows[start:end])
			if result.Error != nil {
				return fmt.Errorf("upsert inf_checkin rows %d-%d: %w", start+1, end, result.Error)
			}
			written += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// LineStatistics aggregates check-ins per line within the optional range
func (r *GormCheckinRepository) LineStatistics(ctx context.Context, from, to *time.Time) ([]quality.CheckinLineStat, error) {
	query := r.DB(ctx).Model(&quality.InfCheckin{}).
		Select("line_name, COUNT(*) AS records, COALESCE(SUM(quantity), 0) AS total_quantity")
	if from != nil {
		query = query.Where("checkin_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("checkin_date < ?", *to)
	}

	stats := make([]quality.CheckinLineStat, 0)
	if err := query.Group("line_name").Order("line_name").Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("aggregate inf_checkin by line: %w", err)
	}
	return stats, nil
}

var _ quality.CheckinRepository = (*GormCheckinRepository)(nil)
