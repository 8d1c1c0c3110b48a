// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pitchside/tacticsboard/internal/config"
	"github.com/pitchside/tacticsboard/internal/database"
	"github.com/pitchside/tacticsboard/internal/storage/gormdb"
	"github.com/pitchside/tacticsboard/internal/storage/memory"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres", "sqlite":
		mgr := database.NewManager(log)
		// the dump target when the connection ends up in memory
		mgr.SqliteFilePath = cfg.SQLite.Path
		if cfg.Type == "sqlite" {
			// skip the postgres attempt entirely
			mgr.ShouldSaveLocal = true
		}
		return gormdb.New(mgr), nil
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
