package quality

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

func setIf[V any](changes map[string]any, column string, v *V) {
	if v != nil {
		changes[column] = *v
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// =============================================================================
// Defects
// =============================================================================

// CreateDefectRequest represents a request to create a defect
type CreateDefectRequest struct {
	DefectCode  string `json:"defect_code" binding:"required,min=1,max=30"`
	DefectName  string `json:"defect_name" binding:"required,min=1,max=200"`
	DefectType  string `json:"defect_type" binding:"required,oneof=cosmetic functional dimensional material packaging"`
	Severity    string `json:"severity" binding:"required,oneof=minor major critical"`
	Description string `json:"description" binding:"max=2000"`
	IsActive    *bool  `json:"is_active"`
}

// ToModel implements CreateRequest
func (r CreateDefectRequest) ToModel(actor string) (*quality.Defect, error) {
	return &quality.Defect{
		DefectCode:  strings.ToUpper(strings.TrimSpace(r.DefectCode)),
		DefectName:  strings.TrimSpace(r.DefectName),
		DefectType:  r.DefectType,
		Severity:    r.Severity,
		Description: r.Description,
		IsActive:    boolOr(r.IsActive, true),
		CreatedBy:   actor,
	}, nil
}

// UpdateDefectRequest represents a request to update a defect
type UpdateDefectRequest struct {
	DefectName  *string `json:"defect_name" binding:"omitempty,min=1,max=200"`
	DefectType  *string `json:"defect_type" binding:"omitempty,oneof=cosmetic functional dimensional material packaging"`
	Severity    *string `json:"severity" binding:"omitempty,oneof=minor major critical"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active"`
}

// Changes implements UpdateRequest
func (r UpdateDefectRequest) Changes() (map[string]any, error) {
	c := map[string]any{}
	setIf(c, "defect_name", trimmed(r.DefectName))
	setIf(c, "defect_type", r.DefectType)
	setIf(c, "severity", r.Severity)
	setIf(c, "description", r.Description)
	setIf(c, "is_active", r.IsActive)
	return c, nil
}

// =============================================================================
// Inspection checkpoints
// =============================================================================

// CreateCheckpointRequest represents a request to create an inspection checkpoint
type CreateCheckpointRequest struct {
	CheckpointCode string `json:"checkpoint_code" binding:"required,min=1,max=30"`
	CheckpointName string `json:"checkpoint_name" binding:"required,min=1,max=200"`
	LineName       string `json:"line_name" binding:"max=50"`
	Station        string `json:"station" binding:"max=50"`
	Sequence       int    `json:"sequence" binding:"gte=0"`
	Description    string `json:"description" binding:"max=2000"`
	IsActive       *bool  `json:"is_active"`
}

// ToModel implements CreateRequest
func (r CreateCheckpointRequest) ToModel(string) (*quality.InspectionCheckpoint, error) {
	return &quality.InspectionCheckpoint{
		CheckpointCode: strings.ToUpper(strings.TrimSpace(r.CheckpointCode)),
		CheckpointName: strings.TrimSpace(r.CheckpointName),
		LineName:       r.LineName,
		Station:        r.Station,
		Sequence:       r.Sequence,
		Description:    r.Description,
		IsActive:       boolOr(r.IsActive, true),
	}, nil
}

// UpdateCheckpointRequest represents a request to update a checkpoint
type UpdateCheckpointRequest struct {
	CheckpointName *string `json:"checkpoint_name" binding:"omitempty,min=1,max=200"`
	LineName       *string `json:"line_name" binding:"omitempty,max=50"`
	Station        *string `json:"station" binding:"omitempty,max=50"`
	Sequence       *int    `json:"sequence" binding:"omitempty,gte=0"`
	Description    *string `json:"description" binding:"omitempty,max=2000"`
	IsActive       *bool   `json:"is_active"`
}

// Changes implements UpdateRequest
func (r UpdateCheckpointRequest) Changes() (map[string]any, error) {
	c := map[string]any{}
	setIf(c, "checkpoint_name", trimmed(r.CheckpointName))
	setIf(c, "line_name", r.LineName)
	setIf(c, "station", r.Station)
	setIf(c, "sequence", r.Sequence)
	setIf(c, "description", r.Description)
	setIf(c, "is_active", r.IsActive)
	return c, nil
}

// =============================================================================
// MES check-ins
// =============================================================================

// CreateCheckinRequest represents a manually entered check-in
type CreateCheckinRequest struct {
	LotNo       string            `json:"lot_no" binding:"required,min=1,max=50"`
	Station     string            `json:"station" binding:"required,min=1,max=50"`
	MONumber    string            `json:"mo_number" binding:"max=50"`
	PartNo      string            `json:"part_no" binding:"max=50"`
	ModelName   string            `json:"model_name" binding:"max=100"`
	LineName    string            `json:"line_name" binding:"max=50"`
	Quantity    int               `json:"quantity" binding:"gte=0"`
	Operator    string            `json:"operator" binding:"max=50"`
	CheckinDate *shared.Timestamp `json:"checkin_date" binding:"required"`
}

// ToModel implements CreateRequest
func (r CreateCheckinRequest) ToModel(string) (*quality.InfCheckin, error) {
	return &quality.InfCheckin{
		LotNo:       strings.TrimSpace(r.LotNo),
		Station:     strings.TrimSpace(r.Station),
		MONumber:    r.MONumber,
		PartNo:      r.PartNo,
		ModelName:   r.ModelName,
		LineName:    r.LineName,
		Quantity:    r.Quantity,
		Operator:    r.Operator,
		CheckinDate: r.CheckinDate.Time,
	}, nil
}

// UpdateCheckinRequest represents a request to correct a check-in
type UpdateCheckinRequest struct {
	MONumber    *string           `json:"mo_number" binding:"omitempty,max=50"`
	PartNo      *string           `json:"part_no" binding:"omitempty,max=50"`
	ModelName   *string           `json:"model_name" binding:"omitempty,max=100"`
	LineName    *string           `json:"line_name" binding:"omitempty,max=50"`
	Quantity    *int              `json:"quantity" binding:"omitempty,gte=0"`
	Operator    *string           `json:"operator" binding:"omitempty,max=50"`
	CheckinDate *shared.Timestamp `json:"checkin_date"`
}

// Changes implements UpdateRequest
func (r UpdateCheckinRequest) Changes() (map[string]any, error) {
	c := map[string]any{}
	setIf(c, "mo_number", r.MONumber)
	setIf(c, "part_no", r.PartNo)
	setIf(c, "model_name", r.ModelName)
	setIf(c, "line_name", r.LineName)
	setIf(c, "quantity", r.Quantity)
	setIf(c, "operator", r.Operator)
	if r.CheckinDate != nil {
		c["checkin_date"] = r.CheckinDate.Time
	}
	return c, nil
}

// SyncCheckinRequest selects the MES window to mirror
type SyncCheckinRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// =============================================================================
// Lot inputs
// =============================================================================

// CreateLotInputRequest represents a supplier lot received for inspection
type CreateLotInputRequest struct {
	LotNo        string            `json:"lot_no" binding:"required,min=1,max=50"`
	PartNo       string            `json:"part_no" binding:"required,min=1,max=50"`
	SupplierCode string            `json:"supplier_code" binding:"required,min=1,max=30"`
	InputQty     int               `json:"input_qty" binding:"gt=0"`
	InputDate    *shared.Timestamp `json:"input_date" binding:"required"`
	Inspector    string            `json:"inspector" binding:"max=50"`
	Status       string            `json:"status" binding:"omitempty,oneof=pending accepted rejected"`
	Remark       string            `json:"remark" binding:"max=2000"`
}

// ToModel implements CreateRequest
func (r CreateLotInputRequest) ToModel(string) (*quality.LotInput, error) {
	status := r.Status
	if status == "" {
		status = quality.LotStatusPending
	}
	return &quality.LotInput{
		LotNo:        strings.TrimSpace(r.LotNo),
		PartNo:       strings.TrimSpace(r.PartNo),
		SupplierCode: strings.ToUpper(strings.TrimSpace(r.SupplierCode)),
		InputQty:     r.InputQty,
		InputDate:    r.InputDate.Time,
		Inspector:    r.Inspector,
		Status:       status,
		Remark:       r.Remark,
	}, nil
}

// UpdateLotInputRequest represents a request to update a lot input
type UpdateLotInputRequest struct {
	InputQty  *int              `json:"input_qty" binding:"omitempty,gt=0"`
	InputDate *shared.Timestamp `json:"input_date"`
	Inspector *string           `json:"inspector" binding:"omitempty,max=50"`
	Status    *string           `json:"status" binding:"omitempty,oneof=pending accepted rejected"`
	Remark    *string           `json:"remark" binding:"omitempty,max=2000"`
}

// Changes implements UpdateRequest
func (r UpdateLotInputRequest) Changes() (map[string]any, error) {
	c := map[string]any{}
	setIf(c, "input_qty", r.InputQty)
	if r.InputDate != nil {
		c["input_date"] = r.InputDate.Time
	}
	setIf(c, "inspector", r.Inspector)
	setIf(c, "status", r.Status)
	setIf(c, "remark", r.Remark)
	return c, nil
}

// =============================================================================
// IQA data
// =============================================================================

// CreateIqaDataRequest represents one incoming inspection result
type CreateIqaDataRequest struct {
	LotNo          string            `json:"lot_no" binding:"required,min=1,max=50"`
	PartNo         string            `json:"part_no" binding:"required,min=1,max=50"`
	SupplierCode   string            `json:"supplier_code" binding:"required,min=1,max=30"`
	InspectionDate *shared.Timestamp `json:"inspection_date" binding:"required"`
	SampleSize     int               `json:"sample_size" binding:"required,gt=0"`
	DefectQty      int               `json:"defect_qty" binding:"gte=0"`
	DefectID       *int64            `json:"defect_id" binding:"omitempty,gt=0"`
	MeasuredValue  *decimal.Decimal  `json:"measured_value"`
	LSL            *decimal.Decimal  `json:"lsl"`
	USL            *decimal.Decimal  `json:"usl"`
	Result         string            `json:"result" binding:"omitempty,oneof=pass fail"`
	Inspector      string            `json:"inspector" binding:"max=50"`
	Remark         string            `json:"remark" binding:"max=2000"`
}

// ToModel implements CreateRequest; an empty result is derived from the
// defect quantity and the specification limits
func (r CreateIqaDataRequest) ToModel(actor string) (*quality.IqaData, error) {
	inspector := r.Inspector
	if inspector == "" {
		inspector = actor
	}
	d := &quality.IqaData{
		LotNo:         strings.TrimSpace(r.LotNo),
		PartNo:        strings.TrimSpace(r.PartNo),
		SupplierCode:  strings.ToUpper(strings.TrimSpace(r.SupplierCode)),
		SampleSize:    r.SampleSize,
		DefectQty:     r.DefectQty,
		DefectID:      r.DefectID,
		MeasuredValue: r.MeasuredValue,
		LSL:           r.LSL,
		USL:           r.USL,
		Result:        r.Result,
		Inspector:     inspector,
		Remark:        r.Remark,
	}
	if r.InspectionDate != nil {
		d.InspectionDate = r.InspectionDate.Time
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateIqaDataRequest represents a correction to an inspection
type UpdateIqaDataRequest struct {
	SampleSize    *int             `json:"sample_size" binding:"omitempty,gt=0"`
	DefectQty     *int             `json:"defect_qty" binding:"omitempty,gte=0"`
	DefectID      *int64           `json:"defect_id" binding:"omitempty,gt=0"`
	MeasuredValue *decimal.Decimal `json:"measured_value"`
	LSL           *decimal.Decimal `json:"lsl"`
	USL           *decimal.Decimal `json:"usl"`
	Result        *string          `json:"result" binding:"omitempty,oneof=pass fail"`
	Inspector     *string          `json:"inspector" binding:"omitempty,max=50"`
	Remark        *string          `json:"remark" binding:"omitempty,max=2000"`
}

// Changes implements UpdateRequest
func (r UpdateIqaDataRequest) Changes() (map[string]any, error) {
	c := map[string]any{}
	setIf(c, "sample_size", r.SampleSize)
	setIf(c, "defect_qty", r.DefectQty)
	setIf(c, "defect_id", r.DefectID)
	setIf(c, "measured_value", r.MeasuredValue)
	setIf(c, "lsl", r.LSL)
	setIf(c, "usl", r.USL)
	setIf(c, "result", r.Result)
	setIf(c, "inspector", r.Inspector)
	setIf(c, "remark", r.Remark)
	return c, nil
}

// Apply copies the set fields onto d
func (r UpdateIqaDataRequest) Apply(d *quality.IqaData) {
	if r.SampleSize != nil {
		d.SampleSize = *r.SampleSize
	}
	if r.DefectQty != nil {
		d.DefectQty = *r.DefectQty
	}
	if r.DefectID != nil {
		d.DefectID = r.DefectID
	}
	if r.MeasuredValue != nil {
		d.MeasuredValue = r.MeasuredValue
	}
	if r.LSL != nil {
		d.LSL = r.LSL
	}
	if r.USL != nil {
		d.USL = r.USL
	}
	if r.Result != nil {
		d.Result = *r.Result
	}
}

// =============================================================================
// IQA images
// =============================================================================

// CreateIqaImageRequest registers an image already present in object storage
type CreateIqaImageRequest struct {
	IqaID       int64  `json:"iqa_id" binding:"required,gt=0"`
	FileName    string `json:"file_name" binding:"required,max=255"`
	StorageKey  string `json:"storage_key" binding:"required,max=500"`
	ContentType string `json:"content_type" binding:"required,max=100"`
	SizeBytes   int64  `json:"size_bytes" binding:"gte=0"`
}

// ToModel implements CreateRequest
func (r CreateIqaImageRequest) ToModel(actor string) (*quality.IqaImage, error) {
	return &quality.IqaImage{
		IqaID:       r.IqaID,
		FileName:    r.FileName,
		StorageKey:  r.StorageKey,
		ContentType: r.ContentType,
		SizeBytes:   r.SizeBytes,
		UploadedBy:  actor,
	}, nil
}

// UpdateIqaImageRequest renames an image
type UpdateIqaImageRequest struct {
	FileName *string `json:"file_name" binding:"omitempty,min=1,max=255"`
}

// Changes implements UpdateRequest
func (r UpdateIqaImageRequest) Changes() (map[string]any, error) {
	c := map[string]any{}
	setIf(c, "file_name", trimmed(r.FileName))
	return c, nil
}

// =============================================================================
// Customers and sites
// =============================================================================

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	CustomerCode string `json:"customer_code" binding:"required,min=1,max=30"`
	CustomerName string `json:"customer_name" binding:"required,min=1,max=200"`
	ContactName  string `json:"contact_name" binding:"max=100"`
	Phone        string `json:"phone" binding:"max=50"`
	Email        string `json:"email" binding:"omitempty,email,max=200"`
	IsActive     *bool  `json:"is_active"`
}

// ToModel implements CreateRequest
func (r CreateCustomerRequest) ToModel(string) (*quality.Customer, error) {
	return &quality.Customer{
		CustomerCode: strings.ToUpper(strings.TrimSpace(r.CustomerCode)),
		CustomerName: strings.TrimSpace(r.CustomerName),
		ContactName:  r.ContactName,
		Phone:        r.Phone,
		Email:        r.Email,
		IsActive:     boolOr(r.IsActive, true),
	}, nil
}

// UpdateCustomerRequest represents a request to update a customer
type UpdateCustomerRequest struct {
	CustomerName *string `json:"customer_name" binding:"omitempty,min=1,max=200"`
	ContactName  *string `json:"contact_name" binding:"omitempty,max=100"`
	Phone        *string `json:"phone" binding:"omitempty,max=50"`
	Email        *string `json:"email" binding:"omitempty,email,max=200"`
	IsActive     *bool   `json:"is_active"`
}

// Changes implements UpdateRequest
func (r UpdateCustomerRequest) Changes() (map[string]any, error) {
	c := map[string]any{}
	setIf(c, "customer_name", trimmed(r.CustomerName))
	setIf(c, "contact_name", r.ContactName)
	setIf(c, "phone", r.Phone)
	setIf(c, "email", r.Email)
	setIf(c, "is_active", r.IsActive)
	return c, nil
}

// CreateSiteRequest represents a request to create a site
type CreateSiteRequest struct {
	SiteCode string `json:"site_code" binding:"required,min=1,max=30"`
	SiteName string `json:"site_name" binding:"required,min=1,max=200"`
	Location string `json:"location" binding:"max=300"`
	IsActive *bool  `json:"is_active"`
}

// ToModel implements CreateRequest
func (r CreateSiteRequest) ToModel(string) (*quality.Site, error) {
	return &quality.Site{
		SiteCode: strings.ToUpper(strings.TrimSpace(r.SiteCode)),
		SiteName: strings.TrimSpace(r.SiteName),
		Location: r.Location,
		IsActive: boolOr(r.IsActive, true),
	}, nil
}

// UpdateSiteRequest represents a request to update a site
type UpdateSiteRequest struct {
	SiteName *string `json:"site_name" binding:"omitempty,min=1,max=200"`
	Location *string `json:"location" binding:"omitempty,max=300"`
	IsActive *bool   `json:"is_active"`
}

// Changes implements UpdateRequest
func (r UpdateSiteRequest) Changes() (map[string]any, error) {
	c := map[string]any{}
	setIf(c, "site_name", trimmed(r.SiteName))
	setIf(c, "location", r.Location)
	setIf(c, "is_active", r.IsActive)
	return c, nil
}

// CreateCustomerSiteRequest links a customer to a site
type CreateCustomerSiteRequest struct {
	CustomerCode string `json:"customer_code" binding:"required,min=1,max=30"`
	SiteCode     string `json:"site_code" binding:"required,min=1,max=30"`
	IsPrimary    bool   `json:"is_primary"`
	Remark       string `json:"remark" binding:"max=2000"`
}

// ToModel implements CreateRequest
func (r CreateCustomerSiteRequest) ToModel(string) (*quality.CustomerSite, error) {
	return &quality.CustomerSite{
		CustomerCode: strings.ToUpper(strings.TrimSpace(r.CustomerCode)),
		SiteCode:     strings.ToUpper(strings.TrimSpace(r.SiteCode)),
		IsPrimary:    r.IsPrimary,
		Remark:       r.Remark,
	}, nil
}

// UpdateCustomerSiteRequest represents a request to update a link
type UpdateCustomerSiteRequest struct {
	IsPrimary *bool   `json:"is_primary"`
	Remark    *string `json:"remark" binding:"omitempty,max=2000"`
}

// Changes implements UpdateRequest
func (r UpdateCustomerSiteRequest) Changes() (map[string]any, error) {
	c := map[string]any{}
	setIf(c, "is_primary", r.IsPrimary)
	setIf(c, "remark", r.Remark)
	return c, nil
}
