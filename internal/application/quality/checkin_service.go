package quality

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

// SyncOptions bounds a check-in synchronisation run
type SyncOptions struct {
	MaxRange  time.Duration
	BatchSize int
}

// SyncResult reports one synchronisation run
type SyncResult struct {
	Fetched    int       `json:"fetched"`
	Upserted   int64     `json:"upserted"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	DurationMs int64     `json:"duration_ms"`
}

// CheckinService manages the MES check-in mirror
type CheckinService struct {
	*CrudService[quality.InfCheckin, CreateCheckinRequest, UpdateCheckinRequest]
	repo   quality.CheckinRepository
	source quality.CheckinSource
	opts   SyncOptions
	logger *zap.Logger
	now    func() time.Time
}

// NewCheckinService creates a new CheckinService. source may be nil when no
// MES database is configured; Sync then reports the service as unavailable.
func NewCheckinService(
	repo quality.CheckinRepository,
	cfg shared.EntityConfig,
	source quality.CheckinSource,
	opts SyncOptions,
	logger *zap.Logger,
) *CheckinService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckinService{
		CrudService: NewCrudService[quality.InfCheckin, CreateCheckinRequest, UpdateCheckinRequest](repo, cfg),
		repo:        repo,
		source:      source,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// SourceConfigured reports whether an MES source is available
func (s *CheckinService) SourceConfigured() bool {
	return s.source != nil
}

// ParseSyncWindow parses a sync request. A date-only "to" covers that whole day.
func ParseSyncWindow(req SyncCheckinRequest) (from, to time.Time, err error) {
	from, _, err = shared.ParseTime(req.From)
	if err != nil {
		return from, to, shared.NewValidationError("Invalid from: "+err.Error(),
			shared.FieldError{Field: "from", Message: "must be RFC3339 or YYYY-MM-DD"})
	}
	var dateOnly bool
	to, dateOnly, err = shared.ParseTime(req.To)
	if err != nil {
		return from, to, shared.NewValidationError("Invalid to: "+err.Error(),
			shared.FieldError{Field: "to", Message: "must be RFC3339 or YYYY-MM-DD"})
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// Sync copies check-ins in [from, to) from the MES source and upserts them
// on (lot_no, station)
func (s *CheckinService) Sync(ctx context.Context, from, to time.Time) (*SyncResult, error) {
	if !to.After(from) {
		return nil, shared.NewValidationError("Sync range is empty: to must be after from",
			shared.FieldError{Field: "to", Message: "must be after from"})
	}
	if s.opts.MaxRange > 0 && to.Sub(from) > s.opts.MaxRange {
		return nil, shared.NewValidationError(
			fmt.Sprintf("Sync range exceeds the maximum of %s", s.opts.MaxRange),
			shared.FieldError{Field: "to", Message: "range too large"})
	}
	if s.source == nil {
		return nil, shared.NewDomainError(shared.ErrUnavailable.Code, "MES check-in source is not configured")
	}

	start := s.now()
	rows, err := s.source.FetchCheckins(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch checkins: %w", err)
	}
	syncedAt := start.UTC()
	for i := range rows {
		rows[i].SyncedAt = &syncedAt
	}

	written, err := s.repo.UpsertBatch(ctx, rows, s.opts.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Fetched:    len(rows),
		Upserted:   written,
		From:       from,
		To:         to,
		DurationMs: s.now().Sub(start).Milliseconds(),
	}
	s.logger.Info("Check-in sync completed",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("fetched", result.Fetched),
		zap.Int64("upserted", result.Upserted),
		zap.Int64("duration_ms", result.DurationMs),
	)
	return result, nil
}

// SyncRecent syncs the trailing lookback window ending now
func (s *CheckinService) SyncRecent(ctx context.Context, lookback time.Duration) (*SyncResult, error) {
	to := s.now()
	return s.Sync(ctx, to.Add(-lookback), to)
}

// Statistics aggregates check-ins per line in the optional window
func (s *CheckinService) Statistics(ctx context.Context, from, to *time.Time) ([]quality.CheckinLineStat, error) {
	return s.repo.LineStatistics(ctx, from, to)
}
