// Package memory stores compiled models in process memory and exports
// each one to a JSON file on save. It is the zero-infrastructure
// catalog used for one-shot compiles and tests.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pwatools/urdfc/internal/config"
	"github.com/pwatools/urdfc/pkg/core"
)

// Backend keeps models in a map keyed by name.
type Backend struct {
	cfg config.MemoryConfig

	models map[string]*core.CompiledModel

	lastExportPath string
	lastExportMeta core.UploadMetadata

	mu sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:    cfg,
		models: make(map[string]*core.CompiledModel),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// SaveModel stores the model and writes its JSON export.
func (b *Backend) SaveModel(m *core.CompiledModel) error {
	if m == nil {
		return fmt.Errorf("nil model")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cp := *m
	b.models[m.Name] = &cp

	return b.exportJSON(&cp)
}

// GetModel returns the stored model by name.
func (b *Backend) GetModel(name string) (*core.CompiledModel, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, ok := b.models[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, core.ErrModelNotFound)
	}
	cp := *m
	return &cp, nil
}

// ListModels returns summaries of all stored models ordered by name.
func (b *Backend) ListModels() ([]core.ModelInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.models))
	for name := range b.models {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]core.ModelInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, b.models[name].Info())
	}
	return infos, nil
}

// DeleteModel removes the stored model by name.
func (b *Backend) DeleteModel(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.models[name]; !ok {
		return fmt.Errorf("%q: %w", name, core.ErrModelNotFound)
	}
	delete(b.models, name)
	return nil
}

// GetExportedFilePath returns the path of the most recent export.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata returns registry metadata for the most recent export.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMeta
}
