package quality

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

// IqaService manages incoming inspection records
type IqaService struct {
	*CrudService[quality.IqaData, CreateIqaDataRequest, UpdateIqaDataRequest]
	repo       quality.IqaRepository
	maxRecords int
}

// NewIqaService creates a new IqaService
func NewIqaService(repo quality.IqaRepository, cfg shared.EntityConfig, maxRecords int) *IqaService {
	if maxRecords <= 0 {
		maxRecords = 500
	}
	return &IqaService{
		CrudService: NewCrudService[quality.IqaData, CreateIqaDataRequest, UpdateIqaDataRequest](repo, cfg),
		repo:        repo,
		maxRecords:  maxRecords,
	}
}

// MaxRecords returns the bulk insert limit
func (s *IqaService) MaxRecords() int {
	return s.maxRecords
}

// Update re-validates the merged record. The result is recomputed unless the
// request sets one.
func (s *IqaService) Update(ctx context.Context, key shared.Key, req UpdateIqaDataRequest) (*quality.IqaData, error) {
	changes, err := req.Changes()
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, shared.NewValidationError("No fields to update")
	}

	current, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if req.Result == nil {
		current.Result = ""
	}
	req.Apply(current)
	if err := current.Validate(); err != nil {
		return nil, err
	}
	changes["result"] = current.Result
	return s.repo.Update(ctx, key, changes)
}

// Bulk validates every record and inserts them all in one transaction.
// Nothing is written when any record is invalid.
func (s *IqaService) Bulk(ctx context.Context, reqs []CreateIqaDataRequest, actor string) ([]quality.IqaData, error) {
	if len(reqs) == 0 {
		return nil, shared.NewValidationError("At least one record is required")
	}
	if len(reqs) > s.maxRecords {
		return nil, shared.NewValidationError(fmt.Sprintf("Too many records: %d exceeds the limit of %d", len(reqs), s.maxRecords))
	}

	rows := make([]quality.IqaData, 0, len(reqs))
	var fields []shared.FieldError
	for i, req := range reqs {
		d, err := req.ToModel(actor)
		if err != nil {
			var de *shared.DomainError
			if !errors.As(err, &de) {
				return nil, err
			}
			for _, f := range de.Fields {
				fields = append(fields, shared.FieldError{
					Field:   fmt.Sprintf("[%d].%s", i, f.Field),
					Message: f.Message,
				})
			}
			continue
		}
		rows = append(rows, *d)
	}
	if len(fields) > 0 {
		return nil, shared.NewValidationError(fmt.Sprintf("%d of %d records are invalid", len(reqs)-len(rows), len(reqs)), fields...)
	}

	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Statistics reports pass/fail counts per supplier in the optional window
func (s *IqaService) Statistics(ctx context.Context, from, to *time.Time) ([]quality.SupplierQualityStat, error) {
	return s.repo.SupplierStatistics(ctx, from, to)
}
