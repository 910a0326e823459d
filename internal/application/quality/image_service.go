package quality

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

// ObjectStorage stores uploaded image bytes
type ObjectStorage interface {
	// Put writes body under key
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// DownloadURL returns a URL the client can fetch key from and its expiry
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// UploadFile is one file of a multipart upload
type UploadFile struct {
	Name string
	Data []byte
}

// UploadOptions bounds image uploads
type UploadOptions struct {
	MaxFileSize      int64
	AllowedMIMETypes []string
}

// ImageURL is a time-limited download link
type ImageURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImageService manages IQA inspection photos
type ImageService struct {
	*CrudService[quality.IqaImage, CreateIqaImageRequest, UpdateIqaImageRequest]
	repo    quality.CrudRepository[quality.IqaImage]
	iqa     quality.CrudRepository[quality.IqaData]
	storage ObjectStorage
	opts    UploadOptions
	logger  *zap.Logger
}

// NewImageService creates a new ImageService
func NewImageService(
	repo quality.CrudRepository[quality.IqaImage],
	cfg shared.EntityConfig,
	iqa quality.CrudRepository[quality.IqaData],
	storage ObjectStorage,
	opts UploadOptions,
	logger *zap.Logger,
) *ImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{
		CrudService: NewCrudService[quality.IqaImage, CreateIqaImageRequest, UpdateIqaImageRequest](repo, cfg),
		repo:        repo,
		iqa:         iqa,
		storage:     storage,
		opts:        opts,
		logger:      logger,
	}
}

type checkedFile struct {
	name        string
	data        []byte
	contentType string
	ext         string
}

// BulkUpload stores files and records them against the IQA inspection iqaID.
// Validation happens before anything is written; stored objects are removed
// again if the database insert fails.
func (s *ImageService) BulkUpload(ctx context.Context, iqaID int64, files []UploadFile, actor string) ([]quality.IqaImage, error) {
	if len(files) == 0 {
		return nil, shared.NewValidationError("At least one file is required",
			shared.FieldError{Field: "files", Message: "required"})
	}
	if len(files) > quality.MaxImagesPerUpload {
		return nil, shared.NewValidationError(
			fmt.Sprintf("Too many files: at most %d images per upload", quality.MaxImagesPerUpload),
			shared.FieldError{Field: "files", Message: fmt.Sprintf("at most %d files", quality.MaxImagesPerUpload)})
	}
	if iqaID <= 0 {
		return nil, shared.NewValidationError("Invalid iqa_id: must be a positive integer",
			shared.FieldError{Field: "iqa_id", Message: "must be a positive integer"})
	}

	checked, err := s.checkFiles(files)
	if err != nil {
		return nil, err
	}

	if _, err := s.iqa.FindByKey(ctx, shared.Key{{Column: "id", Value: iqaID}}); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("IQA record %d not found", iqaID))
		}
		return nil, err
	}

	rows := make([]quality.IqaImage, 0, len(checked))
	stored := make([]string, 0, len(checked))
	for _, f := range checked {
		key := fmt.Sprintf("iqa/%d/%s%s", iqaID, uuid.NewString(), f.ext)
		if err := s.storage.Put(ctx, key, bytes.NewReader(f.data), int64(len(f.data)), f.contentType); err != nil {
			s.removeObjects(ctx, stored)
			return nil, fmt.Errorf("store %s: %w", f.name, err)
		}
		stored = append(stored, key)
		rows = append(rows, quality.IqaImage{
			IqaID:       iqaID,
			FileName:    f.name,
			StorageKey:  key,
			ContentType: f.contentType,
			SizeBytes:   int64(len(f.data)),
			UploadedBy:  actor,
		})
	}

	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		s.removeObjects(ctx, stored)
		return nil, err
	}
	return rows, nil
}

func (s *ImageService) checkFiles(files []UploadFile) ([]checkedFile, error) {
	checked := make([]checkedFile, 0, len(files))
	var fields []shared.FieldError
	for i, f := range files {
		field := fmt.Sprintf("files[%d]", i)
		size := int64(len(f.Data))
		if size == 0 {
			fields = append(fields, shared.FieldError{Field: field, Message: "file is empty"})
			continue
		}
		if s.opts.MaxFileSize > 0 && size > s.opts.MaxFileSize {
			fields = append(fields, shared.FieldError{Field: field,
				Message: fmt.Sprintf("file exceeds the maximum size of %d bytes", s.opts.MaxFileSize)})
			continue
		}
		mime := mimetype.Detect(f.Data)
		if !s.allowed(mime) {
			fields = append(fields, shared.FieldError{Field: field,
				Message: fmt.Sprintf("content type %s is not allowed", mime.String())})
			continue
		}
		checked = append(checked, checkedFile{
			name:        cleanFileName(f.Name, i),
			data:        f.Data,
			contentType: baseMIME(mime.String()),
			ext:         mime.Extension(),
		})
	}
	if len(fields) > 0 {
		return nil, shared.NewValidationError("Invalid upload: "+fields[0].Field+" "+fields[0].Message, fields...)
	}
	return checked, nil
}

func (s *ImageService) allowed(m *mimetype.MIME) bool {
	for _, t := range s.opts.AllowedMIMETypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}

func (s *ImageService) removeObjects(ctx context.Context, keys []string) {
	// the request context may already be cancelled
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to remove orphaned image object",
				zap.String("storage_key", key),
				zap.Error(err),
			)
		}
	}
}

// DownloadURL returns a download link for the image addressed by key
func (s *ImageService) DownloadURL(ctx context.Context, key shared.Key) (*ImageURL, error) {
	img, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	url, expires, err := s.storage.DownloadURL(ctx, img.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("download url for %s: %w", img.StorageKey, err)
	}
	return &ImageURL{URL: url, ExpiresAt: expires}, nil
}

// Delete removes the image record and then its stored object
func (s *ImageService) Delete(ctx context.Context, key shared.Key) error {
	img, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.removeObjects(ctx, []string{img.StorageKey})
	return nil
}

func cleanFileName(name string, index int) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, `\`, "/")))
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("image-%d", index+1)
	}
	if r := []rune(name); len(r) > 255 {
		name = string(r[len(r)-255:])
	}
	return name
}

func baseMIME(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
