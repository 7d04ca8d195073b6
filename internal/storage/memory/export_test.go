package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwatools/urdfc/internal/config"
)

func TestExportPlainJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: false})

	require.NoError(t, b.SaveModel(sampleModel("cartpole")))

	path := b.GetExportedFilePath()
	require.NotEmpty(t, path)
	assert.Equal(t, "cartpole_20260826_093000.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var export ModelExport
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, 1, export.FormatVersion)
	assert.Equal(t, "cartpole", export.Name)
	assert.Equal(t, []string{"free", "tip/wall"}, export.ModeNames)
	assert.Equal(t, "cartpole", export.Model.Name)
}

func TestExportGzipJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})

	require.NoError(t, b.SaveModel(sampleModel("cartpole")))

	path := b.GetExportedFilePath()
	assert.Equal(t, "cartpole_20260826_093000.json.gz", filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var export ModelExport
	require.NoError(t, json.NewDecoder(gz).Decode(&export))
	assert.Equal(t, "deadbeef", export.DocSHA256)
	assert.Equal(t, 2, export.Model.PWA.NM)
}

func TestExportMetadata(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir(), CompressOutput: true})

	require.NoError(t, b.SaveModel(sampleModel("cartpole")))

	meta := b.GetExportMetadata()
	assert.Equal(t, "cartpole", meta.ModelName)
	assert.Equal(t, "deadbeef", meta.DocSHA256)
	assert.Equal(t, "urdfc/test", meta.Tool)
	assert.Equal(t, 2, meta.Modes)
}

func TestExportSanitizesFilename(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir(), CompressOutput: false})

	m := sampleModel("cart pole:v2")
	require.NoError(t, b.SaveModel(m))

	base := filepath.Base(b.GetExportedFilePath())
	assert.Equal(t, "cart_pole_v2_20260826_093000.json", base)
}

func TestExportCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: false})

	require.NoError(t, b.SaveModel(sampleModel("cartpole")))

	_, err := os.Stat(b.GetExportedFilePath())
	assert.NoError(t, err)
}
