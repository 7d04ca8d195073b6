package storage

import "github.com/pwatools/urdfc/pkg/core"

// Backend is the interface all catalog implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Catalog operations. SaveModel replaces any existing model with
	// the same name. GetModel returns core.ErrModelNotFound on a miss.
	SaveModel(m *core.CompiledModel) error
	GetModel(name string) (*core.CompiledModel, error)
	ListModels() ([]core.ModelInfo, error)
	DeleteModel(name string) error
}

// Uploadable is an optional interface for backends that produce files
// suitable for upload to a model registry.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
