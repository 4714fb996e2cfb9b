package storage

import (
	"Next_Express/config"
	"Next_Express/internal/metrics"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// InitStore builds Default from config.StorageConfigInstance.
func InitStore(ctx context.Context, logger *zap.Logger, m *metrics.Registry) error {
	cfg := config.StorageConfigInstance
	if cfg == nil {
		return fmt.Errorf("storage config not initialized")
	}
	var store Store
	switch cfg.Driver {
	case config.StoreDriverMinio:
		minioStore, err := NewMinioFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		store = minioStore
	case config.StoreDriverS3:
		s3Store, err := NewS3FromConfig(ctx, config.AppConfig)
		if err != nil {
			return err
		}
		store = s3Store
	default:
		store = NewMemoryStore(config.AppConfig.SessionSecret, cfg.PublicBaseURL)
		logger.Warn("object store not configured, keeping blobs in memory",
			zap.String("base_url", cfg.PublicBaseURL))
	}
	logger.Info("init object store success",
		zap.String("driver", cfg.Driver),
		zap.String("bucket", cfg.Bucket))
	Default = Instrument(store, m)
	return nil
}
