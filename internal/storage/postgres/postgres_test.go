package postgresstorage

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwatools/urdfc/pkg/core"
)

// Tests run without a Postgres server; the backend must fall back to
// the local SQLite catalog and still satisfy the full contract.

func newFallbackBackend(t *testing.T) *Backend {
	t.Helper()
	t.Cleanup(viper.Reset)

	// unroutable port forces the fallback path
	viper.Set("storage.db.host", "127.0.0.1")
	viper.Set("storage.db.port", "1")
	viper.Set("storage.db.username", "urdfc")
	viper.Set("storage.db.password", "urdfc")
	viper.Set("storage.db.database", "urdfc")

	b, err := New(Config{FallbackPath: filepath.Join(t.TempDir(), "fallback.db")}, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	return b
}

func TestFallbackToSqlite(t *testing.T) {
	b := newFallbackBackend(t)
	defer b.Close()

	assert.True(t, b.FellBack())
}

func TestFallbackSaveAndGet(t *testing.T) {
	b := newFallbackBackend(t)
	defer b.Close()

	m := &core.CompiledModel{
		Name:      "cartpole",
		DocSHA256: "deadbeef",
		PWA: core.PWASystem{
			NX: 2, NU: 1, NM: 1,
			Modes: []core.PWAMode{{
				Mode:     core.ContactMode{Name: "free"},
				Dynamics: core.AffineSystem{A: core.NewMatrix(2, 2), B: core.NewMatrix(2, 1), C: []float64{0, 0}},
			}},
		},
		Tool: "urdfc/test",
	}
	require.NoError(t, b.SaveModel(m))

	got, err := b.GetModel("cartpole")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", got.DocSHA256)
}
