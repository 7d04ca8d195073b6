// Package pwa builds the piecewise-affine hybrid automaton: one affine
// system per contact mode, each with a polyhedral activation guard and,
// for modes entered through an impact, an impulsive velocity reset.
package pwa

import (
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pwatools/urdfc/internal/contact"
	"github.com/pwatools/urdfc/internal/dynamics"
	"github.com/pwatools/urdfc/pkg/core"
)

// Options tune mode construction.
type Options struct {
	// References supplies the linearization point per mode, keyed by
	// canonical mode name. The entry under "default" covers modes
	// without their own point; absent both, the origin is used.
	References map[string]core.Reference

	// Restitution is the Newton impact coefficient applied in reset
	// maps. Zero (plastic impact) if unset.
	Restitution float64

	// FDStep is the central-difference step for numeric Jacobians.
	FDStep float64

	// Parallel linearizes independent modes concurrently. Each mode
	// writes only its own output slot; a join barrier precedes
	// assembly.
	Parallel bool
}

const defaultFDStep = 1e-6

// Constructor builds PWA systems from a dynamics model and its contact
// pairs.
type Constructor struct {
	logger   *slog.Logger
	model    *dynamics.Model
	detector *contact.Detector
}

// New creates a constructor.
func New(logger *slog.Logger, model *dynamics.Model, detector *contact.Detector) *Constructor {
	return &Constructor{logger: logger, model: model, detector: detector}
}

// Build enumerates every contact mode (each subset of the pair set; the
// empty subset is free motion), linearizes the dynamics about the mode's
// reference, and assembles guards and resets. Guards are built from one
// shared hyperplane per pair with opposite signs across modes, so they
// partition the state space by construction; duplicate mode sign
// patterns are rejected as ambiguous.
func (c *Constructor) Build(pairs []core.ContactPair, opts Options) (*core.PWASystem, error) {
	if opts.FDStep == 0 {
		opts.FDStep = defaultFDStep
	}

	nq := c.model.NQ()
	sys := &core.PWASystem{
		NX:    2 * nq,
		NU:    c.model.NU(),
		Pairs: pairs,
	}

	phis := make([]contact.DistanceFunc, len(pairs))
	for i, p := range pairs {
		phi, err := c.detector.Distance(c.model, p)
		if err != nil {
			return nil, err
		}
		phis[i] = phi
	}

	modes := enumerateModes(pairs)
	if err := checkUnambiguous(modes); err != nil {
		return nil, err
	}
	sys.NM = len(modes)
	sys.Modes = make([]core.PWAMode, len(modes))

	buildOne := func(i int) error {
		mode := modes[i]
		ref := c.reference(opts, mode.Name)

		dynSys, err := c.linearizeDynamics(ref, opts.FDStep)
		if err != nil {
			return fmt.Errorf("mode %q: %w", mode.Name, err)
		}

		guard := c.buildGuard(phis, mode, ref, opts.FDStep)

		var reset *core.ResetMap
		if len(mode.Active) > 0 {
			reset, err = c.buildReset(phis, mode, ref, opts)
			if err != nil {
				return fmt.Errorf("mode %q: %w", mode.Name, err)
			}
		}

		sys.Modes[i] = core.PWAMode{
			Mode:      mode,
			Dynamics:  dynSys,
			Guard:     guard,
			Reset:     reset,
			Reference: ref,
		}
		return nil
	}

	if opts.Parallel && len(modes) > 1 {
		var g errgroup.Group
		for i := range modes {
			i := i
			g.Go(func() error { return buildOne(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range modes {
			if err := buildOne(i); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Debug("constructed hybrid model",
		"modes", sys.NM,
		"pairs", len(pairs),
		"nx", sys.NX,
		"nu", sys.NU)

	return sys, nil
}

// enumerateModes lists the subsets of the pair set in ascending bitmask
// order, so the free mode is always first and the ordering is
// deterministic.
func enumerateModes(pairs []core.ContactPair) []core.ContactMode {
	n := len(pairs)
	modes := make([]core.ContactMode, 0, 1<<uint(n))
	for mask := 0; mask < 1<<uint(n); mask++ {
		var active []int
		for b := 0; b < n; b++ {
			if mask&(1<<uint(b)) != 0 {
				active = append(active, b)
			}
		}
		modes = append(modes, core.ContactMode{
			Name:   core.ModeName(pairs, active),
			Active: active,
		})
	}
	return modes
}

// checkUnambiguous rejects mode lists whose guard sign patterns collide:
// two modes activating the same pair subset would claim the same region
// of state space.
func checkUnambiguous(modes []core.ContactMode) error {
	seen := make(map[string]string, len(modes))
	for _, m := range modes {
		key := signPattern(m.Active)
		if other, dup := seen[key]; dup {
			return fmt.Errorf("modes %q and %q: %w", other, m.Name, core.ErrAmbiguousMode)
		}
		seen[key] = m.Name
	}
	return nil
}

func signPattern(active []int) string {
	s := append([]int(nil), active...)
	sort.Ints(s)
	return fmt.Sprint(s)
}

func (c *Constructor) reference(opts Options, mode string) core.Reference {
	if ref, ok := opts.References[mode]; ok {
		return normalizeRef(ref, 2*c.model.NQ(), c.model.NU())
	}
	if ref, ok := opts.References["default"]; ok {
		return normalizeRef(ref, 2*c.model.NQ(), c.model.NU())
	}
	return core.Reference{
		X: make([]float64, 2*c.model.NQ()),
		U: make([]float64, c.model.NU()),
	}
}

func normalizeRef(ref core.Reference, nx, nu int) core.Reference {
	out := core.Reference{X: make([]float64, nx), U: make([]float64, nu)}
	copy(out.X, ref.X)
	copy(out.U, ref.U)
	return out
}

// buildGuard stacks one row per pair: separation (phi >= 0) for pairs
// the mode leaves free, contact (phi <= 0) for its active pairs. All
// rows of all modes come from the same linearized hyperplanes, only the
// signs differ, which is what makes the guards partition.
func (c *Constructor) buildGuard(phis []contact.DistanceFunc, mode core.ContactMode, ref core.Reference, h float64) core.GuardPolyhedron {
	nx := 2 * c.model.NQ()
	guard := core.GuardPolyhedron{
		G: core.NewMatrix(len(phis), nx),
	}

	activeSet := make(map[int]bool, len(mode.Active))
	for _, a := range mode.Active {
		activeSet[a] = true
	}

	for p, phi := range phis {
		row, offset := c.linearizeDistance(phi, ref, h)
		active := activeSet[p]
		// phi(x) ~ row.x + offset. Separation: -row.x <= offset.
		// Contact: row.x <= -offset.
		s := -1.0
		rhs := offset
		if active {
			s = 1.0
			rhs = -offset
		}
		for j := 0; j < nx; j++ {
			guard.G.Set(p, j, s*row[j])
		}
		guard.H = append(guard.H, rhs)
		guard.Rows = append(guard.Rows, core.GuardRow{Pair: p, Active: active})
	}

	return guard
}
