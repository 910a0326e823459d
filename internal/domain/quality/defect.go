package quality

import (
	"slices"
	"time"
)

// Defect severities
const (
	SeverityMinor    = "minor"
	SeverityMajor    = "major"
	SeverityCritical = "critical"
)

// Defect types
const (
	DefectTypeCosmetic    = "cosmetic"
	DefectTypeFunctional  = "functional"
	DefectTypeDimensional = "dimensional"
	DefectTypeMaterial    = "material"
	DefectTypePackaging   = "packaging"
)

var (
	severities  = []string{SeverityMinor, SeverityMajor, SeverityCritical}
	defectTypes = []string{DefectTypeCosmetic, DefectTypeFunctional, DefectTypeDimensional, DefectTypeMaterial, DefectTypePackaging}
)

// ValidSeverity reports whether s is a known severity
func ValidSeverity(s string) bool { return slices.Contains(severities, s) }

// ValidDefectType reports whether s is a known defect type
func ValidDefectType(s string) bool { return slices.Contains(defectTypes, s) }

// Defect is a catalogued defect that inspections reference
type Defect struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DefectCode  string    `gorm:"column:defect_code;type:varchar(30);uniqueIndex;not null" json:"defect_code"`
	DefectName  string    `gorm:"column:defect_name;type:varchar(200);not null" json:"defect_name"`
	DefectType  string    `gorm:"column:defect_type;type:varchar(20);not null" json:"defect_type"`
	Severity    string    `gorm:"column:severity;type:varchar(10);not null" json:"severity"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	IsActive    bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedBy   string    `gorm:"column:created_by;type:varchar(50)" json:"created_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (Defect) TableName() string { return "defects" }

// CountBucket is one group of a grouped count
type CountBucket struct {
	Key   string `gorm:"column:bucket" json:"key"`
	Count int64  `gorm:"column:count" json:"count"`
}

// DefectStatistics summarises the active defect catalogue
type DefectStatistics struct {
	Total      int64         `json:"total"`
	ByType     []CountBucket `json:"by_type"`
	BySeverity []CountBucket `json:"by_severity"`
}
