package database

import (
	"fmt"

	"journal/internal/config"
)

// NewSQLiteStoreFromConfig opens the sqlite store named by cfg.
func NewSQLiteStoreFromConfig(cfg config.StoreConfig) (*SQLiteStore, error) {
	if cfg.Type != "sqlite" {
		return nil, fmt.Errorf("not a sqlite store config: %s", cfg.Type)
	}
	if cfg.SQLitePath == "" {
		return nil, fmt.Errorf("sqlite_path required for sqlite store")
	}
	return NewSQLiteStore(cfg.SQLitePath)
}
