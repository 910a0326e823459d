package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

// GormDefectRepository adds catalogue statistics to the generic repository
type GormDefectRepository struct {
	*CrudRepository[quality.Defect]
}

// NewGormDefectRepository creates a defect repository for cfg
func NewGormDefectRepository(db *gorm.DB, cfg shared.EntityConfig) *GormDefectRepository {
	return &GormDefectRepository{CrudRepository: NewCrudRepository[quality.Defect](db, cfg)}
}

// Statistics counts active defects by type and by severity
func (r *GormDefectRepository) Statistics(ctx context.Context) (*quality.DefectStatistics, error) {
	stats := &quality.DefectStatistics{ByType: []quality.CountBucket{}, BySeverity: []quality.CountBucket{}}
	active := func() *gorm.DB {
		return r.DB(ctx).Model(&quality.Defect{}).Where("is_active = ?", true)
	}

	if err := active().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("count defects: %w", err)
	}
	if err := active().
		Select("defect_type AS bucket, COUNT(*) AS count").
		Group("defect_type").
		Order("defect_type").
		Scan(&stats.ByType).Error; err != nil {
		return nil, fmt.Errorf("group defects by type: %w", err)
	}
	if err := active().
		Select("severity AS bucket, COUNT(*) AS count").
		Group("severity").
		Order("severity").
		Scan(&stats.BySeverity).Error; err != nil {
		return nil, fmt.Errorf("group defects by severity: %w", err)
	}
	return stats, nil
}

var _ quality.DefectRepository = (*GormDefectRepository)(nil)
