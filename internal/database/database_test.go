package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwatools/urdfc/internal/model"
)

func TestGetSqliteDBStandalone_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := GetSqliteDBStandalone(path)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, sqlDB.Ping())

	_, err = os.Stat(path)
	assert.NoError(t, err, "file-backed DB should exist on disk")
}

func TestManagerSetupMigratesSchema(t *testing.T) {
	m := NewManager(zerolog.Nop())

	var err error
	m.DB, err = m.GetSqliteDB(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	m.IsValid = true

	require.NoError(t, m.Setup())

	assert.True(t, m.DB.Migrator().HasTable(&model.ModelRecord{}))
	assert.True(t, m.DB.Migrator().HasTable(&model.ModeRecord{}))
	assert.True(t, m.DB.Migrator().HasTable(&model.CompileRun{}))

	// info row seeded exactly once
	var count int64
	require.NoError(t, m.DB.Model(&model.CatalogInfo{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var info model.CatalogInfo
	require.NoError(t, m.DB.First(&info).Error)
	assert.Equal(t, "urdfc", info.ToolName)
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	m := NewManager(zerolog.Nop())

	var err error
	m.DB, err = m.GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, m.Setup())

	require.NoError(t, m.DB.Create(&model.ModelRecord{Name: "cartpole", Modes: 2}).Error)

	m.SqliteFilePath = filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, m.DumpMemoryToDisk())

	// the dump is a standalone DB with the data in it
	db2, err := GetSqliteDBStandalone(m.SqliteFilePath)
	require.NoError(t, err)
	sqlDB, err := db2.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var rec model.ModelRecord
	require.NoError(t, db2.Where("name = ?", "cartpole").First(&rec).Error)
	assert.Equal(t, 2, rec.Modes)
}

func TestDumpMemoryToDisk_NoPath(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.Error(t, m.DumpMemoryToDisk())
}

func TestGetBackupDBPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.db"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0644))

	paths, err := GetBackupDBPaths(dir)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Contains(t, paths[0], "a.db")
}
