// Package sqlitestorage implements the catalog on a SQLite database.
// It wraps the GORM backend via composition; the only SQLite-specific
// concerns are opening the file or in-memory DB and, for the in-memory
// variant, dumping to disk with VACUUM INTO on close.
package sqlitestorage

import (
	"fmt"

	"github.com/pwatools/urdfc/internal/cache"
	"github.com/pwatools/urdfc/internal/database"
	"github.com/pwatools/urdfc/internal/logging"
	gormstorage "github.com/pwatools/urdfc/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path     string // catalog file, also the dump target when InMemory
	InMemory bool
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg Config
}

// New creates a new SQLite storage backend and migrates the schema.
func New(cfg Config, modelCache *cache.ModelCache, logManager *logging.SlogManager) (*Backend, error) {
	path := cfg.Path
	if cfg.InMemory {
		path = ""
	}
	if path == "" && cfg.Path == "" {
		return nil, fmt.Errorf("sqlite catalog path not set")
	}

	db, err := database.GetSqliteDBStandalone(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
	}

	b := &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:         db,
			ModelCache: modelCache,
			LogManager: logManager,
		}),
		cfg: cfg,
	}
	if err := b.Init(); err != nil {
		return nil, err
	}
	return b, nil
}

// Close dumps the in-memory catalog to disk, then releases the
// connection.
func (b *Backend) Close() error {
	if b.cfg.InMemory && b.cfg.Path != "" {
		if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.Path); err != nil {
			return err
		}
	}
	return b.Backend.Close()
}
