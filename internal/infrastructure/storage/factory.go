package storage

import (
	"context"
	"fmt"

	"github.com/rms/backend/internal/domain/attachment"
	"github.com/rms/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewObjectStorage selects the attachment storage by cfg.Driver.
// For s3 the bucket is created when missing; a failure there is logged,
// not fatal, since presigning itself needs no connection.
func NewObjectStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (attachment.ObjectStorage, error) {
	switch cfg.Driver {
	case "", "stub":
		logger.Info("Using stub attachment storage", zap.String("base_url", cfg.StubBaseURL))
		return NewStubAttachmentStorage(cfg.StubBaseURL), nil
	case "s3":
		s, err := NewS3AttachmentStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			logger.Warn("Attachment bucket check failed", zap.String("bucket", s.Bucket()), zap.Error(err))
		}
		logger.Info("Using S3 attachment storage",
			zap.String("bucket", s.Bucket()),
			zap.String("endpoint", cfg.Endpoint),
		)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
