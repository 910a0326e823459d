package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	qualityapp "github.com/qcms/backend/internal/application/quality"
	"github.com/qcms/backend/internal/infrastructure/config"
)

// New builds the object storage selected by cfg.Driver
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (qualityapp.ObjectStorage, error) {
	switch cfg.Driver {
	case "", "local":
		s, err := NewLocalObjectStorage(cfg.LocalDir, cfg.PublicBaseURL, cfg.PresignExpiry)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		s, err := NewS3ObjectStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Using S3 object storage", zap.String("bucket", s.Bucket()))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
