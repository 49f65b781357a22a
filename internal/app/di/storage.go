// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"log/slog"

	"foodlog_backend/internal/app/config"
	"foodlog_backend/internal/feature/image/adapters/local"
	"foodlog_backend/internal/feature/image/adapters/s3store"
	"foodlog_backend/internal/feature/image/usecase"
)

// NewImageStorage returns the storage strategy selected by STORAGE_BACKEND.
// The reader is nil for remote storage, whose records carry absolute URLs.
func NewImageStorage(ctx context.Context, cfg config.StorageConfig) (usecase.ImageStorage, usecase.ImageReader, error) {
	switch cfg.Backend {
	case config.StorageS3:
		opts := s3store.Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicRead:      cfg.S3PublicACL,
		}
		client, err := s3store.NewClient(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		store, err := s3store.NewStorage(client, opts)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("image storage: s3", "bucket", cfg.S3Bucket, "endpoint", cfg.S3Endpoint)
		return store, nil, nil
	case config.StorageLocal, "":
		store, err := local.NewStorage(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("image storage: local", "dir", cfg.UploadDir)
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
