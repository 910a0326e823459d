package quality

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
	csvimport "github.com/qcms/backend/internal/infrastructure/import"
)

// DefectService manages the defect catalogue
type DefectService struct {
	*CrudService[quality.Defect, CreateDefectRequest, UpdateDefectRequest]
	repo          quality.DefectRepository
	maxImportRows int
}

// NewDefectService creates a new DefectService
func NewDefectService(repo quality.DefectRepository, cfg shared.EntityConfig, maxImportRows int) *DefectService {
	return &DefectService{
		CrudService:   NewCrudService[quality.Defect, CreateDefectRequest, UpdateDefectRequest](repo, cfg),
		repo:          repo,
		maxImportRows: maxImportRows,
	}
}

// Statistics counts active defects by type and severity
func (s *DefectService) Statistics(ctx context.Context) (*quality.DefectStatistics, error) {
	return s.repo.Statistics(ctx)
}

// DefectImportRules returns the column rules for defect CSV imports
func DefectImportRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("defect_code").Required().MaxLength(30).Unique().Build(),
		csvimport.Field("defect_name").Required().MaxLength(200).Build(),
		csvimport.Field("defect_type").Required().OneOf(
			quality.DefectTypeCosmetic,
			quality.DefectTypeFunctional,
			quality.DefectTypeDimensional,
			quality.DefectTypeMaterial,
			quality.DefectTypePackaging,
		).Build(),
		csvimport.Field("severity").Required().OneOf(quality.SeverityMinor, quality.SeverityMajor, quality.SeverityCritical).Build(),
		csvimport.Field("description").MaxLength(2000).Build(),
		csvimport.Field("is_active").Bool().Build(),
	}
}

// Import loads defects from a CSV upload
func (s *DefectService) Import(ctx context.Context, r io.Reader, dryRun bool, actor string) (*csvimport.Result, error) {
	build := func(row *csvimport.Row, _ *csvimport.Validator) (quality.Defect, bool) {
		active := true
		if raw := row.Get("is_active"); raw != "" {
			active, _ = csvimport.ParseBool(raw)
		}
		return quality.Defect{
			DefectCode:  strings.ToUpper(row.Get("defect_code")),
			DefectName:  row.Get("defect_name"),
			DefectType:  strings.ToLower(row.Get("defect_type")),
			Severity:    strings.ToLower(row.Get("severity")),
			Description: row.Get("description"),
			IsActive:    active,
			CreatedBy:   actor,
		}, true
	}
	return runImport(ctx, r, DefectImportRules(), s.maxImportRows, dryRun, build, s.repo.CreateBatch)
}

// LotInputService manages received supplier lots
type LotInputService struct {
	*CrudService[quality.LotInput, CreateLotInputRequest, UpdateLotInputRequest]
	repo          quality.CrudRepository[quality.LotInput]
	maxImportRows int
}

// NewLotInputService creates a new LotInputService
func NewLotInputService(repo quality.CrudRepository[quality.LotInput], cfg shared.EntityConfig, maxImportRows int) *LotInputService {
	return &LotInputService{
		CrudService:   NewCrudService[quality.LotInput, CreateLotInputRequest, UpdateLotInputRequest](repo, cfg),
		repo:          repo,
		maxImportRows: maxImportRows,
	}
}

// LotInputImportRules returns the column rules for lot input CSV imports
func LotInputImportRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("lot_no").Required().MaxLength(50).Build(),
		csvimport.Field("part_no").Required().MaxLength(50).Build(),
		csvimport.Field("supplier_code").Required().MaxLength(30).Build(),
		csvimport.Field("input_qty").Required().Int().Build(),
		csvimport.Field("input_date").Required().Date().Build(),
		csvimport.Field("inspector").MaxLength(50).Build(),
		csvimport.Field("status").OneOf(quality.LotStatusPending, quality.LotStatusAccepted, quality.LotStatusRejected).Build(),
		csvimport.Field("remark").MaxLength(2000).Build(),
	}
}

// Import loads lot inputs from a CSV upload
func (s *LotInputService) Import(ctx context.Context, r io.Reader, dryRun bool, _ string) (*csvimport.Result, error) {
	build := func(row *csvimport.Row, v *csvimport.Validator) (quality.LotInput, bool) {
		qty, _ := strconv.Atoi(row.Get("input_qty"))
		if qty <= 0 {
			v.AddRowError(row.Line, "input_qty", "must be greater than 0")
			return quality.LotInput{}, false
		}
		date, _ := csvimport.ParseDate(row.Get("input_date"))
		status := strings.ToLower(row.Get("status"))
		if status == "" {
			status = quality.LotStatusPending
		}
		return quality.LotInput{
			LotNo:        row.Get("lot_no"),
			PartNo:       row.Get("part_no"),
			SupplierCode: strings.ToUpper(row.Get("supplier_code")),
			InputQty:     qty,
			InputDate:    date,
			Inspector:    row.Get("inspector"),
			Status:       status,
			Remark:       row.Get("remark"),
		}, true
	}
	return runImport(ctx, r, LotInputImportRules(), s.maxImportRows, dryRun, build, s.repo.CreateBatch)
}
