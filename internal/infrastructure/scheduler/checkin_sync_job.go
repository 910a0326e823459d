package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	qualityapp "github.com/qcms/backend/internal/application/quality"
)

// CheckinSyncJobName is the registered name of the MES check-in sync
const CheckinSyncJobName = "inf-checkin-sync"

// CheckinSyncer pulls recent check-ins from the MES
type CheckinSyncer interface {
	SyncRecent(ctx context.Context, lookback time.Duration) (*qualityapp.SyncResult, error)
}

// NewCheckinSyncJob returns a job that syncs the trailing lookback window
func NewCheckinSyncJob(syncer CheckinSyncer, lookback time.Duration, logger *zap.Logger) JobFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) error {
		result, err := syncer.SyncRecent(ctx, lookback)
		if err != nil {
			return err
		}
		logger.Info("Scheduled check-in sync finished",
			zap.Int("fetched", result.Fetched),
			zap.Int64("upserted", result.Upserted),
			zap.Int64("duration_ms", result.DurationMs),
		)
		return nil
	}
}

var _ CheckinSyncer = (*qualityapp.CheckinService)(nil)
