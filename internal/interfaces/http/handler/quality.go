package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appquality "github.com/qcms/backend/internal/application/quality"
	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
	csvimport "github.com/qcms/backend/internal/infrastructure/import"
	"github.com/qcms/backend/internal/interfaces/http/middleware"
)

type importFunc func(ctx context.Context, r io.Reader, dryRun bool, actor string) (*csvimport.Result, error)

// importCSV reads the multipart "file" field and hands it to run.
// dry_run may come from the query string or the form.
func (h *BaseHandler) importCSV(c *gin.Context, op string, run importFunc) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.HandleError(c, shared.NewValidationError("A CSV file is required",
			shared.FieldError{Field: "file", Message: "required"}), op)
		return
	}
	dryRun, err := strconv.ParseBool(firstNonEmpty(c.Query("dry_run"), c.PostForm("dry_run"), "false"))
	if err != nil {
		h.HandleError(c, shared.NewValidationError("Invalid dry_run",
			shared.FieldError{Field: "dry_run", Message: "Must be a boolean"}), op)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.HandleError(c, err, op)
		return
	}
	defer f.Close()

	result, err := run(c.Request.Context(), f, dryRun, middleware.GetSessionUsername(c))
	if err != nil {
		h.HandleError(c, err, op)
		return
	}
	h.Success(c, result)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// =============================================================================
// Defects
// =============================================================================

// DefectHandler adds statistics and CSV import to the defect catalogue
type DefectHandler struct {
	*EntityHandler[quality.Defect, appquality.CreateDefectRequest, appquality.UpdateDefectRequest]
	svc *appquality.DefectService
}

// NewDefectHandler creates a new DefectHandler
func NewDefectHandler(svc *appquality.DefectService) *DefectHandler {
	return &DefectHandler{
		EntityHandler: NewEntityHandler[quality.Defect, appquality.CreateDefectRequest, appquality.UpdateDefectRequest](svc),
		svc:           svc,
	}
}

// Routes implements Module
func (h *DefectHandler) Routes() []Route {
	return append(h.EntityHandler.Routes(),
		Route{Method: http.MethodGet, Path: "/statistics", Handler: h.Statistics, Summary: "Count active defects by type and severity"},
		Route{Method: http.MethodPost, Path: "/import", Handler: h.Import, Summary: "Import defects from CSV"},
	)
}

// Statistics returns active defect counts by type and severity
func (h *DefectHandler) Statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		h.HandleError(c, err, "get defect statistics")
		return
	}
	h.Success(c, stats)
}

// Import loads defects from an uploaded CSV file
func (h *DefectHandler) Import(c *gin.Context) {
	h.importCSV(c, "import defects", h.svc.Import)
}

// =============================================================================
// Lot inputs
// =============================================================================

// LotInputHandler adds CSV import to lot inputs
type LotInputHandler struct {
	*EntityHandler[quality.LotInput, appquality.CreateLotInputRequest, appquality.UpdateLotInputRequest]
	svc *appquality.LotInputService
}

// NewLotInputHandler creates a new LotInputHandler
func NewLotInputHandler(svc *appquality.LotInputService) *LotInputHandler {
	return &LotInputHandler{
		EntityHandler: NewEntityHandler[quality.LotInput, appquality.CreateLotInputRequest, appquality.UpdateLotInputRequest](svc),
		svc:           svc,
	}
}

// Routes implements Module
func (h *LotInputHandler) Routes() []Route {
	return append(h.EntityHandler.Routes(),
		Route{Method: http.MethodPost, Path: "/import", Handler: h.Import, Summary: "Import lot inputs from CSV"},
	)
}

// Import loads lot inputs from an uploaded CSV file
func (h *LotInputHandler) Import(c *gin.Context) {
	h.importCSV(c, "import lot inputs", h.svc.Import)
}

// =============================================================================
// MES check-ins
// =============================================================================

// CheckinHandler adds MES synchronisation and line statistics
type CheckinHandler struct {
	*EntityHandler[quality.InfCheckin, appquality.CreateCheckinRequest, appquality.UpdateCheckinRequest]
	svc *appquality.CheckinService
}

// NewCheckinHandler creates a new CheckinHandler
func NewCheckinHandler(svc *appquality.CheckinService) *CheckinHandler {
	return &CheckinHandler{
		EntityHandler: NewEntityHandler[quality.InfCheckin, appquality.CreateCheckinRequest, appquality.UpdateCheckinRequest](svc),
		svc:           svc,
	}
}

// Routes implements Module
func (h *CheckinHandler) Routes() []Route {
	return append(h.EntityHandler.Routes(),
		Route{Method: http.MethodPost, Path: "/sync", Handler: h.Sync, Summary: "Mirror check-ins from the MES database"},
		Route{Method: http.MethodGet, Path: "/statistics", Handler: h.Statistics, Summary: "Check-in totals per line"},
	)
}

// Sync mirrors the requested window from the MES source
func (h *CheckinHandler) Sync(c *gin.Context) {
	var req appquality.SyncCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, middleware.BindingError(err), "sync check-ins")
		return
	}
	from, to, err := appquality.ParseSyncWindow(req)
	if err != nil {
		h.HandleError(c, err, "sync check-ins")
		return
	}
	result, err := h.svc.Sync(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err, "sync check-ins")
		return
	}
	h.Success(c, result)
}

// Statistics returns per-line check-in totals
func (h *CheckinHandler) Statistics(c *gin.Context) {
	from, to, err := statsRange(c)
	if err != nil {
		h.HandleError(c, err, "get check-in statistics")
		return
	}
	stats, err := h.svc.Statistics(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err, "get check-in statistics")
		return
	}
	h.Success(c, stats)
}

// =============================================================================
// IQA inspections
// =============================================================================

// IqaHandler adds bulk insert and supplier statistics
type IqaHandler struct {
	*EntityHandler[quality.IqaData, appquality.CreateIqaDataRequest, appquality.UpdateIqaDataRequest]
	svc *appquality.IqaService
}

// NewIqaHandler creates a new IqaHandler
func NewIqaHandler(svc *appquality.IqaService) *IqaHandler {
	return &IqaHandler{
		EntityHandler: NewEntityHandler[quality.IqaData, appquality.CreateIqaDataRequest, appquality.UpdateIqaDataRequest](svc),
		svc:           svc,
	}
}

// Routes implements Module
func (h *IqaHandler) Routes() []Route {
	return append(h.EntityHandler.Routes(),
		Route{Method: http.MethodPost, Path: "/bulk", Handler: h.Bulk, Summary: "Insert inspection records in one transaction"},
		Route{Method: http.MethodGet, Path: "/statistics", Handler: h.Statistics, Summary: "Pass rate per supplier"},
	)
}

// Bulk inserts a JSON array of inspection records, all or nothing
func (h *IqaHandler) Bulk(c *gin.Context) {
	var reqs []appquality.CreateIqaDataRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		h.HandleError(c, middleware.SliceBindingError(err, reqs), "insert iqa-data")
		return
	}
	rows, err := h.svc.Bulk(c.Request.Context(), reqs, middleware.GetSessionUsername(c))
	if err != nil {
		h.HandleError(c, err, "insert iqa-data")
		return
	}
	h.Created(c, gin.H{"inserted": len(rows), "items": rows})
}

// Statistics returns inspection results per supplier
func (h *IqaHandler) Statistics(c *gin.Context) {
	from, to, err := statsRange(c)
	if err != nil {
		h.HandleError(c, err, "get iqa statistics")
		return
	}
	stats, err := h.svc.Statistics(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err, "get iqa statistics")
		return
	}
	h.Success(c, stats)
}

// =============================================================================
// IQA images
// =============================================================================

// ImageHandler adds multipart upload and download links
type ImageHandler struct {
	*EntityHandler[quality.IqaImage, appquality.CreateIqaImageRequest, appquality.UpdateIqaImageRequest]
	svc *appquality.ImageService
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(svc *appquality.ImageService) *ImageHandler {
	return &ImageHandler{
		EntityHandler: NewEntityHandler[quality.IqaImage, appquality.CreateIqaImageRequest, appquality.UpdateIqaImageRequest](svc),
		svc:           svc,
	}
}

// Routes implements Module
func (h *ImageHandler) Routes() []Route {
	return append(h.EntityHandler.Routes(),
		Route{Method: http.MethodPost, Path: "/bulk", Handler: h.BulkUpload, Summary: "Upload inspection photos"},
		Route{Method: http.MethodGet, Path: h.cfg.KeyPath() + "/url", Handler: h.DownloadURL, Summary: "Get a download link"},
	)
}

// BulkUpload stores the multipart "files" against the inspection "iqa_id"
func (h *ImageHandler) BulkUpload(c *gin.Context) {
	const op = "upload iqa-images"

	form, err := c.MultipartForm()
	if err != nil {
		h.HandleError(c, shared.NewValidationError("Expected a multipart form with iqa_id and files"), op)
		return
	}
	iqaID, err := strconv.ParseInt(strings.TrimSpace(firstValue(form.Value["iqa_id"])), 10, 64)
	if err != nil {
		h.HandleError(c, shared.NewValidationError("Invalid iqa_id: must be a positive integer",
			shared.FieldError{Field: "iqa_id", Message: "must be a positive integer"}), op)
		return
	}

	headers := form.File["files"]
	if len(headers) > quality.MaxImagesPerUpload {
		// One past the cap is enough for BulkUpload to reject the request.
		headers = headers[:quality.MaxImagesPerUpload+1]
	}
	files := make([]appquality.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			h.HandleError(c, err, op)
			return
		}
		files = append(files, appquality.UploadFile{Name: fh.Filename, Data: data})
	}

	images, err := h.svc.BulkUpload(c.Request.Context(), iqaID, files, middleware.GetSessionUsername(c))
	if err != nil {
		h.HandleError(c, err, op)
		return
	}
	h.Created(c, gin.H{"uploaded": len(images), "items": images})
}

// DownloadURL returns a time-limited link to the stored image
func (h *ImageHandler) DownloadURL(c *gin.Context) {
	key, ok := h.key(c, "get download url for")
	if !ok {
		return
	}
	url, err := h.svc.DownloadURL(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err, "get download url for iqa-images")
		return
	}
	h.Success(c, url)
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
