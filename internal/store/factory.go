package store

import (
	"context"
	"fmt"

	"journal/internal/config"
	"journal/internal/database"
	"journal/internal/journal"
)

// NewStoreFromConfig creates a journal.Store implementation based on the store config type.
// Stores holding resources (sqlite) also implement io.Closer.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig) (journal.Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem", "":
		if cfg.ProjectsDir == "" {
			return nil, fmt.Errorf("filesystem store requires projects_dir to be set")
		}
		s, err := NewFileSystemStore(cfg.ProjectsDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := database.NewSQLiteStoreFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		s, err := NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
