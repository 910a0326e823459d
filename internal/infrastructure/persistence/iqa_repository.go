package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

// GormIqaRepository adds supplier statistics to the generic repository
type GormIqaRepository struct {
	*CrudRepository[quality.IqaData]
}

// NewGormIqaRepository creates an IQA repository for cfg
func NewGormIqaRepository(db *gorm.DB, cfg shared.EntityConfig) *GormIqaRepository {
	return &GormIqaRepository{CrudRepository: NewCrudRepository[quality.IqaData](db, cfg)}
}

// SupplierStatistics counts inspections and results per supplier
func (r *GormIqaRepository) SupplierStatistics(ctx context.Context, from, to *time.Time) ([]quality.SupplierQualityStat, error) {
	query := r.DB(ctx).Model(&quality.IqaData{}).
		Select("supplier_code, COUNT(*) AS inspections, "+
			"SUM(CASE WHEN result = ? THEN 1 ELSE 0 END) AS passed, "+
			"SUM(CASE WHEN result = ? THEN 1 ELSE 0 END) AS failed",
			quality.ResultPass, quality.ResultFail)
	if from != nil {
		query = query.Where("inspection_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("inspection_date < ?", *to)
	}

	stats := make([]quality.SupplierQualityStat, 0)
	if err := query.Group("supplier_code").Order("supplier_code").Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("aggregate iqadata by supplier: %w", err)
	}
	for i := range stats {
		stats[i].ComputePassRate()
	}
	return stats, nil
}

var _ quality.IqaRepository = (*GormIqaRepository)(nil)
