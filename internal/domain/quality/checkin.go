package quality

import "time"

// InfCheckin is a lot checked in at a station, mirrored from the MES
// database. (lot_no, station) is the natural key used for upserts.
type InfCheckin struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LotNo       string     `gorm:"column:lot_no;type:varchar(50);not null;uniqueIndex:uq_inf_checkin_lot_station" json:"lot_no"`
	Station     string     `gorm:"column:station;type:varchar(50);not null;uniqueIndex:uq_inf_checkin_lot_station" json:"station"`
	MONumber    string     `gorm:"column:mo_number;type:varchar(50)" json:"mo_number"`
	PartNo      string     `gorm:"column:part_no;type:varchar(50);index" json:"part_no"`
	ModelName   string     `gorm:"column:model_name;type:varchar(100)" json:"model_name"`
	LineName    string     `gorm:"column:line_name;type:varchar(50);index" json:"line_name"`
	Quantity    int        `gorm:"column:quantity;not null" json:"quantity"`
	Operator    string     `gorm:"column:operator;type:varchar(50)" json:"operator"`
	CheckinDate time.Time  `gorm:"column:checkin_date;not null;index" json:"checkin_date"`
	SyncedAt    *time.Time `gorm:"column:synced_at" json:"synced_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (InfCheckin) TableName() string { return "inf_checkin" }

// CheckinNaturalKey lists the columns identifying a check-in across systems
var CheckinNaturalKey = []string{"lot_no", "station"}

// CheckinLineStat aggregates check-ins per production line
type CheckinLineStat struct {
	LineName      string `gorm:"column:line_name" json:"line_name"`
	Records       int64  `gorm:"column:records" json:"records"`
	TotalQuantity int64  `gorm:"column:total_quantity" json:"total_quantity"`
}
