package quality

import "time"

// InspectionCheckpoint is a station on a production line where lots are inspected
type InspectionCheckpoint struct {
	CheckpointCode string    `gorm:"column:checkpoint_code;primaryKey;type:varchar(30)" json:"checkpoint_code"`
	CheckpointName string    `gorm:"column:checkpoint_name;type:varchar(200);not null" json:"checkpoint_name"`
	LineName       string    `gorm:"column:line_name;type:varchar(50);index" json:"line_name"`
	Station        string    `gorm:"column:station;type:varchar(50)" json:"station"`
	Sequence       int       `gorm:"column:sequence;not null" json:"sequence"`
	Description    string    `gorm:"column:description;type:text" json:"description"`
	IsActive       bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (InspectionCheckpoint) TableName() string { return "inspection_checkpoints" }
