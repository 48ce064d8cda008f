package storage

import (
	"context"
	"log/slog"

	"showcase/internal/config"
)

// FromConfig builds the gateway selected by STORAGE_DRIVER.
func FromConfig(ctx context.Context, cfg *config.Config) (Gateway, error) {
	if cfg.StorageDriver == "memory" {
		slog.WarnContext(ctx, "using in-memory object storage; uploads are not persisted")
		return NewMemoryGateway(cfg.S3PublicBaseURL), nil
	}
	return NewS3Gateway(ctx, S3Options{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		PublicBaseURL:   cfg.S3PublicBaseURL,
		ForcePathStyle:  cfg.S3ForcePathStyle,
	})
}
