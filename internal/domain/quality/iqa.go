package quality

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/qcms/backend/internal/domain/shared"
)

// IQA inspection results
const (
	ResultPass = "pass"
	ResultFail = "fail"
)

// IqaData is one incoming quality assurance inspection of a supplier lot
type IqaData struct {
	ID             int64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LotNo          string           `gorm:"column:lot_no;type:varchar(50);not null;index" json:"lot_no"`
	PartNo         string           `gorm:"column:part_no;type:varchar(50);not null" json:"part_no"`
	SupplierCode   string           `gorm:"column:supplier_code;type:varchar(30);not null;index" json:"supplier_code"`
	InspectionDate time.Time        `gorm:"column:inspection_date;not null;index" json:"inspection_date"`
	SampleSize     int              `gorm:"column:sample_size;not null" json:"sample_size"`
	DefectQty      int              `gorm:"column:defect_qty;not null" json:"defect_qty"`
	DefectID       *int64           `gorm:"column:defect_id" json:"defect_id,omitempty"`
	MeasuredValue  *decimal.Decimal `gorm:"column:measured_value;type:numeric(14,4)" json:"measured_value,omitempty"`
	LSL            *decimal.Decimal `gorm:"column:lsl;type:numeric(14,4)" json:"lsl,omitempty"`
	USL            *decimal.Decimal `gorm:"column:usl;type:numeric(14,4)" json:"usl,omitempty"`
	Result         string           `gorm:"column:result;type:varchar(10);not null" json:"result"`
	Inspector      string           `gorm:"column:inspector;type:varchar(50)" json:"inspector"`
	Remark         string           `gorm:"column:remark;type:text" json:"remark"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (IqaData) TableName() string { return "iqadata" }

// WithinLimits reports whether MeasuredValue lies inside [LSL, USL].
// Missing bounds are open; a missing measurement is within limits.
func (d *IqaData) WithinLimits() bool {
	if d.MeasuredValue == nil {
		return true
	}
	if d.LSL != nil && d.MeasuredValue.LessThan(*d.LSL) {
		return false
	}
	if d.USL != nil && d.MeasuredValue.GreaterThan(*d.USL) {
		return false
	}
	return true
}

// Validate checks the cross-field rules and fills Result when it is empty
func (d *IqaData) Validate() error {
	var fields []shared.FieldError
	if d.LSL != nil && d.USL != nil && d.LSL.GreaterThan(*d.USL) {
		fields = append(fields, shared.FieldError{Field: "lsl", Message: "must not exceed usl"})
	}
	if d.SampleSize <= 0 {
		fields = append(fields, shared.FieldError{Field: "sample_size", Message: "must be positive"})
	}
	if d.DefectQty < 0 || d.DefectQty > d.SampleSize {
		fields = append(fields, shared.FieldError{Field: "defect_qty", Message: "must be between 0 and sample_size"})
	}
	switch d.Result {
	case "":
		if d.DefectQty == 0 && d.WithinLimits() {
			d.Result = ResultPass
		} else {
			d.Result = ResultFail
		}
	case ResultPass, ResultFail:
	default:
		fields = append(fields, shared.FieldError{Field: "result", Message: "must be pass or fail"})
	}
	if len(fields) > 0 {
		return shared.NewValidationError("Invalid IQA record: "+fields[0].Field+" "+fields[0].Message, fields...)
	}
	return nil
}

// SupplierQualityStat aggregates IQA results per supplier
type SupplierQualityStat struct {
	SupplierCode string  `gorm:"column:supplier_code" json:"supplier_code"`
	Inspections  int64   `gorm:"column:inspections" json:"inspections"`
	Passed       int64   `gorm:"column:passed" json:"passed"`
	Failed       int64   `gorm:"column:failed" json:"failed"`
	PassRate     float64 `gorm:"-" json:"pass_rate"`
}

// ComputePassRate fills PassRate as a percentage rounded to two decimals
func (s *SupplierQualityStat) ComputePassRate() {
	if s.Inspections == 0 {
		s.PassRate = 0
		return
	}
	rate := decimal.NewFromInt(s.Passed).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(s.Inspections)).
		Round(2)
	s.PassRate = rate.InexactFloat64()
}
