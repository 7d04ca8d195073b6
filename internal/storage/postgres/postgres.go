// Package postgresstorage implements the catalog on Postgres through
// the managed database connection. When Postgres is unreachable the
// manager falls back to a local in-memory SQLite catalog that is dumped
// to disk on close, so a compile never loses its artifact.
package postgresstorage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pwatools/urdfc/internal/cache"
	"github.com/pwatools/urdfc/internal/database"
	"github.com/pwatools/urdfc/internal/logging"
	gormstorage "github.com/pwatools/urdfc/internal/storage/gorm"
)

// Config holds configuration for the Postgres storage backend.
type Config struct {
	// FallbackPath is where the local catalog is dumped when the
	// backend had to fall back to SQLite. Empty disables the dump.
	FallbackPath string
}

// Backend wraps the GORM backend over a managed Postgres connection.
type Backend struct {
	*gormstorage.Backend
	mgr *database.Manager
	cfg Config
}

// New connects, migrates the schema, and returns the backend.
func New(cfg Config, modelCache *cache.ModelCache, logManager *logging.SlogManager, dbLog zerolog.Logger) (*Backend, error) {
	mgr := database.NewManager(dbLog)
	mgr.SqliteFilePath = cfg.FallbackPath

	if err := mgr.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect catalog database: %w", err)
	}
	if err := mgr.Setup(); err != nil {
		return nil, fmt.Errorf("failed to set up catalog database: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:         mgr.DB,
			ModelCache: modelCache,
			LogManager: logManager,
		}),
		mgr: mgr,
		cfg: cfg,
	}, nil
}

// FellBack reports whether the backend is running on the local SQLite
// fallback instead of Postgres.
func (b *Backend) FellBack() bool {
	return b.mgr.ShouldSaveLocal
}

// Close dumps the fallback catalog to disk if one is in use, then
// releases the connection.
func (b *Backend) Close() error {
	if b.mgr.ShouldSaveLocal && b.cfg.FallbackPath != "" {
		if err := b.mgr.DumpMemoryToDisk(); err != nil {
			return err
		}
	}
	return b.Backend.Close()
}
