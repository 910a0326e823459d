package quality

import (
	"slices"
	"time"
)

// Lot input statuses
const (
	LotStatusPending  = "pending"
	LotStatusAccepted = "accepted"
	LotStatusRejected = "rejected"
)

// ValidLotStatus reports whether s is a known lot status
func ValidLotStatus(s string) bool {
	return slices.Contains([]string{LotStatusPending, LotStatusAccepted, LotStatusRejected}, s)
}

// LotInput is a supplier lot received for incoming inspection
type LotInput struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LotNo        string    `gorm:"column:lot_no;type:varchar(50);not null;index" json:"lot_no"`
	PartNo       string    `gorm:"column:part_no;type:varchar(50);not null" json:"part_no"`
	SupplierCode string    `gorm:"column:supplier_code;type:varchar(30);not null;index" json:"supplier_code"`
	InputQty     int       `gorm:"column:input_qty;not null" json:"input_qty"`
	InputDate    time.Time `gorm:"column:input_date;not null" json:"input_date"`
	Inspector    string    `gorm:"column:inspector;type:varchar(50)" json:"inspector"`
	Status       string    `gorm:"column:status;type:varchar(10);not null" json:"status"`
	Remark       string    `gorm:"column:remark;type:text" json:"remark"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (LotInput) TableName() string { return "inf_lotinput" }
