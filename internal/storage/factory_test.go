package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwatools/urdfc/internal/config"
	"github.com/pwatools/urdfc/internal/storage"
	"github.com/pwatools/urdfc/internal/storage/memory"
	postgresstorage "github.com/pwatools/urdfc/internal/storage/postgres"
	sqlitestorage "github.com/pwatools/urdfc/internal/storage/sqlite"
)

// compile-time interface checks for every backend
var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Uploadable = (*memory.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Backend    = (*postgresstorage.Backend)(nil)
)

func TestNewBackend_Memory(t *testing.T) {
	b, err := storage.NewBackend(config.StorageConfig{
		Type:   "memory",
		Memory: config.MemoryConfig{OutputDir: t.TempDir()},
	}, storage.Dependencies{})
	require.NoError(t, err)
	require.NotNil(t, b)
	defer b.Close()

	_, ok := b.(*memory.Backend)
	assert.True(t, ok)
}

func TestNewBackend_Sqlite(t *testing.T) {
	b, err := storage.NewBackend(config.StorageConfig{
		Type:   "sqlite",
		Sqlite: config.SqliteConfig{Path: filepath.Join(t.TempDir(), "catalog.db")},
	}, storage.Dependencies{})
	require.NoError(t, err)
	require.NotNil(t, b)
	defer b.Close()

	_, ok := b.(*sqlitestorage.Backend)
	assert.True(t, ok)
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "redis"}, storage.Dependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}
