// Package gormstorage implements the catalog against any GORM-backed
// database. The SQLite and Postgres backends wrap it; they differ only
// in how the *gorm.DB is opened and closed.
package gormstorage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/pwatools/urdfc/internal/cache"
	"github.com/pwatools/urdfc/internal/logging"
	"github.com/pwatools/urdfc/internal/model"
	"github.com/pwatools/urdfc/pkg/core"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	ModelCache *cache.ModelCache
	LogManager *logging.SlogManager
}

// Backend persists compiled models as catalog rows.
type Backend struct {
	db    *gorm.DB
	cache *cache.ModelCache
	log   *slog.Logger
	saves cache.SafeCounter
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	mc := deps.ModelCache
	if mc == nil {
		mc = cache.NewModelCache()
	}
	var log *slog.Logger
	if deps.LogManager != nil {
		log = deps.LogManager.Component("storage")
	} else {
		log = slog.Default()
	}
	return &Backend{
		db:    deps.DB,
		cache: mc,
		log:   log,
	}
}

// Init migrates the catalog schema.
func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("no database connection")
	}
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate catalog schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveModel inserts or replaces the model row and its per-mode summary
// rows in one transaction.
func (b *Backend) SaveModel(m *core.CompiledModel) error {
	if m == nil {
		return fmt.Errorf("nil model")
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model %q: %w", m.Name, err)
	}
	warnings, err := json.Marshal(m.Warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings for %q: %w", m.Name, err)
	}

	rec := model.ModelRecord{
		Name:       m.Name,
		DocSHA256:  m.DocSHA256,
		Tool:       m.Tool,
		NX:         m.PWA.NX,
		NU:         m.PWA.NU,
		Modes:      m.PWA.NM,
		CompiledAt: m.CompiledAt,
		Warnings:   warnings,
		Payload:    payload,
	}

	err = b.db.Transaction(func(tx *gorm.DB) error {
		id, ok := b.cache.GetID(m.Name)
		if !ok {
			var existing model.ModelRecord
			switch err := tx.Select("id").Where("name = ?", m.Name).First(&existing).Error; {
			case err == nil:
				id, ok = existing.ID, true
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return err
			}
		}

		if ok {
			rec.ID = id
			if err := tx.Where("model_id = ?", id).Delete(&model.ModeRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Save(&rec).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}

		modes := make([]model.ModeRecord, 0, len(m.PWA.Modes))
		for i := range m.PWA.Modes {
			pm := &m.PWA.Modes[i]
			active, err := json.Marshal(pm.Mode.Active)
			if err != nil {
				return err
			}
			modes = append(modes, model.ModeRecord{
				ModelID:  rec.ID,
				Name:     pm.Mode.Name,
				Active:   active,
				Guards:   len(pm.Guard.H),
				HasReset: pm.Reset != nil,
			})
		}
		if len(modes) > 0 {
			if err := tx.Create(&modes).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save model %q: %w", m.Name, err)
	}

	b.cache.SetID(m.Name, rec.ID)
	b.saves.Inc()
	b.log.Debug("model saved", "name", m.Name, "modes", m.PWA.NM)
	return nil
}

// GetModel loads and decodes the full artifact by name.
func (b *Backend) GetModel(name string) (*core.CompiledModel, error) {
	var rec model.ModelRecord
	err := b.db.Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%q: %w", name, core.ErrModelNotFound)
	}
	if err != nil {
		return nil, err
	}

	var m core.CompiledModel
	if err := json.Unmarshal(rec.Payload, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model %q: %w", name, err)
	}
	b.cache.SetID(name, rec.ID)
	return &m, nil
}

// ListModels returns summaries of all stored models ordered by name.
func (b *Backend) ListModels() ([]core.ModelInfo, error) {
	var recs []model.ModelRecord
	err := b.db.
		Select("name", "doc_sha256", "tool", "nx", "nu", "modes", "compiled_at").
		Order("name").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	infos := make([]core.ModelInfo, 0, len(recs))
	for _, r := range recs {
		infos = append(infos, core.ModelInfo{
			Name:       r.Name,
			DocSHA256:  r.DocSHA256,
			NX:         r.NX,
			NU:         r.NU,
			Modes:      r.Modes,
			CompiledAt: r.CompiledAt,
			Tool:       r.Tool,
		})
	}
	return infos, nil
}

// DeleteModel removes the model row and its mode rows.
func (b *Backend) DeleteModel(name string) error {
	var rec model.ModelRecord
	err := b.db.Select("id").Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%q: %w", name, core.ErrModelNotFound)
	}
	if err != nil {
		return err
	}

	err = b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("model_id = ?", rec.ID).Delete(&model.ModeRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ModelRecord{}, rec.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete model %q: %w", name, err)
	}

	b.cache.Delete(name)
	return nil
}

// RecordRun appends a compile-run audit row.
func (b *Backend) RecordRun(run *model.CompileRun) error {
	return b.db.Create(run).Error
}

// SaveCount reports how many models this backend has written.
func (b *Backend) SaveCount() int {
	return b.saves.Value()
}

// DB exposes the underlying handle for wrapping backends.
func (b *Backend) DB() *gorm.DB {
	return b.db
}
