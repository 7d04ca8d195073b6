// Package compiler chains the pipeline stages into a single compile
// pass: description text in, hybrid piecewise-affine model out.
package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/pwatools/urdfc/internal/contact"
	"github.com/pwatools/urdfc/internal/dynamics"
	"github.com/pwatools/urdfc/internal/parser"
	"github.com/pwatools/urdfc/internal/pipeline"
	"github.com/pwatools/urdfc/internal/pwa"
	"github.com/pwatools/urdfc/internal/tree"
	"github.com/pwatools/urdfc/pkg/core"
)

// Version is stamped into compiled artifacts. Overridable at build time
// via ldflags.
var Version = "0.1.0"

// Options tune one compile pass.
type Options struct {
	// Gravity in world frame. Zero means standard gravity along -z.
	Gravity core.Vec3

	// FDStep is the central-difference step for linearization.
	FDStep float64

	// Restitution is the Newton impact coefficient for reset maps.
	Restitution float64

	// Parallel enables fork-join subtree accumulation and concurrent
	// mode linearization. Results are bit-identical either way.
	Parallel bool

	// References are linearization points keyed by mode name.
	References map[string]core.Reference
}

// Result is a successful compile: the artifact plus the data a caller
// needs for reporting.
type Result struct {
	Model    *core.CompiledModel
	Warnings []core.Warning
	Timings  []pipeline.Timing
}

// Compiler runs compile passes. Safe for sequential reuse; each pass
// builds its own pipeline.
type Compiler struct {
	logger *slog.Logger
	plog   pipeline.Logger
}

// New creates a compiler. plog feeds the pipeline runner; pass a
// logging.PipelineLogger or any other pipeline.Logger.
func New(logger *slog.Logger, plog pipeline.Logger) *Compiler {
	return &Compiler{logger: logger, plog: plog}
}

// Compile runs all stages over one description document. Parse and
// structural errors abort the pass with no partial artifact; warnings
// accumulate and travel with the model.
func (c *Compiler) Compile(ctx context.Context, doc []byte, opts Options) (*Result, error) {
	run, err := pipeline.New(c.plog)
	if err != nil {
		return nil, err
	}

	var (
		desc     *core.Description
		kt       *core.KinematicTree
		inertias []tree.Inertia
		warnings []core.Warning
		model    *dynamics.Model
		pairs    []core.ContactPair
		system   *core.PWASystem
	)

	det := contact.New(c.logger)

	run.Stage("parse", func(ctx context.Context) error {
		var err error
		desc, err = parser.New(c.logger).Parse(doc)
		return err
	})
	run.Stage("tree", func(ctx context.Context) error {
		var err error
		kt, err = tree.New(c.logger).Build(desc)
		return err
	})
	run.Stage("inertia", func(ctx context.Context) error {
		inertias, warnings = tree.ResolveInertias(kt)
		return nil
	})
	run.Stage("dynamics", func(ctx context.Context) error {
		var err error
		model, err = dynamics.New(c.logger, kt, inertias, desc.Transmissions, dynamics.Options{
			Gravity:  opts.Gravity,
			Parallel: opts.Parallel,
		})
		return err
	})
	run.Stage("contact", func(ctx context.Context) error {
		var err error
		pairs, err = det.Enumerate(kt)
		return err
	})
	run.Stage("modes", func(ctx context.Context) error {
		var err error
		system, err = pwa.New(c.logger, model, det).Build(pairs, pwa.Options{
			References:  opts.References,
			Restitution: opts.Restitution,
			FDStep:      opts.FDStep,
			Parallel:    opts.Parallel,
		})
		return err
	})

	timings, err := run.Run(ctx)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(doc)
	compiled := &core.CompiledModel{
		Name:       desc.Name,
		DocSHA256:  hex.EncodeToString(sum[:]),
		Tree:       *kt,
		PWA:        *system,
		Warnings:   warnings,
		CompiledAt: time.Now().UTC(),
		Tool:       "urdfc/" + Version,
	}

	c.logger.Info("compiled model",
		"name", compiled.Name,
		"links", len(kt.Links),
		"nq", kt.NQ,
		"modes", system.NM,
		"warnings", len(warnings))

	return &Result{Model: compiled, Warnings: warnings, Timings: timings}, nil
}

// Compile is the pure one-shot form: no logging setup, no metrics
// sinks beyond the global no-op providers.
func Compile(doc []byte, opts Options) (*core.CompiledModel, []core.Warning, error) {
	c := New(slog.Default(), nopLogger{})
	res, err := c.Compile(context.Background(), doc, opts)
	if err != nil {
		return nil, nil, err
	}
	return res.Model, res.Warnings, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
