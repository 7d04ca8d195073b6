package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pwatools/urdfc/pkg/core"
)

// exportFormatVersion is bumped whenever ModelExport changes shape.
const exportFormatVersion = 1

// ModelExport is the root JSON structure written to disk. The summary
// fields are duplicated outside the artifact so downstream tooling can
// inspect an export without decoding the full model.
type ModelExport struct {
	FormatVersion int                `json:"formatVersion"`
	Tool          string             `json:"tool"`
	Name          string             `json:"name"`
	DocSHA256     string             `json:"docSha256"`
	CompiledAt    time.Time          `json:"compiledAt"`
	ModeNames     []string           `json:"modeNames"`
	Warnings      []core.Warning     `json:"warnings,omitempty"`
	Model         core.CompiledModel `json:"model"`
}

// exportJSON writes the model to a (optionally gzipped) JSON file.
// Caller holds the lock.
func (b *Backend) exportJSON(m *core.CompiledModel) error {
	export := buildExport(m)

	name := strings.ReplaceAll(m.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	stamp := m.CompiledAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	timestamp := stamp.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	b.lastExportMeta = core.UploadMetadata{
		ModelName: m.Name,
		DocSHA256: m.DocSHA256,
		Tool:      m.Tool,
		Modes:     m.PWA.NM,
	}
	return nil
}

func buildExport(m *core.CompiledModel) ModelExport {
	modeNames := make([]string, 0, len(m.PWA.Modes))
	for i := range m.PWA.Modes {
		modeNames = append(modeNames, m.PWA.Modes[i].Mode.Name)
	}

	return ModelExport{
		FormatVersion: exportFormatVersion,
		Tool:          m.Tool,
		Name:          m.Name,
		DocSHA256:     m.DocSHA256,
		CompiledAt:    m.CompiledAt,
		ModeNames:     modeNames,
		Warnings:      m.Warnings,
		Model:         *m,
	}
}

func writeJSON(path string, data ModelExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data ModelExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
