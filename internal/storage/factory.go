package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pwatools/urdfc/internal/cache"
	"github.com/pwatools/urdfc/internal/config"
	"github.com/pwatools/urdfc/internal/logging"
	"github.com/pwatools/urdfc/internal/storage/memory"
	postgresstorage "github.com/pwatools/urdfc/internal/storage/postgres"
	sqlitestorage "github.com/pwatools/urdfc/internal/storage/sqlite"
)

// Dependencies holds what the database-backed backends need beyond
// configuration. Zero value is usable; missing pieces get defaults.
type Dependencies struct {
	LogManager *logging.SlogManager
	ModelCache *cache.ModelCache
	DBLog      zerolog.Logger
}

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgresstorage.New(postgresstorage.Config{
			FallbackPath: cfg.Sqlite.Path,
		}, deps.ModelCache, deps.LogManager, deps.DBLog)
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			Path:     cfg.Sqlite.Path,
			InMemory: cfg.Sqlite.InMemory,
		}, deps.ModelCache, deps.LogManager)
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
