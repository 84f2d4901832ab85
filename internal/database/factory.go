package database

import (
	"fmt"
	"os"
	"path/filepath"

	"fo-go/internal/config"
)

// CatalogPath is where a host's sqlite catalog lives under dataDir. Each
// host keeps its own catalog so several machines can share one data dir.
func CatalogPath(dataDir, hostID string) string {
	return filepath.Join(dataDir, hostID+".db")
}

// NewCatalogFromConfig opens the catalog described by cfg. For sqlite the
// data directory is created on first use.
func NewCatalogFromConfig(cfg config.DatabaseConfig, hostID string) (*SQLiteCatalog, error) {
	switch cfg.Type {
	case "memory":
		return NewSQLiteCatalog(":memory:")
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("database.data_dir is required for sqlite")
		}
		if hostID == "" {
			return nil, fmt.Errorf("host id is required for sqlite")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return NewSQLiteCatalog(CatalogPath(cfg.DataDir, hostID))
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Type)
	}
}
