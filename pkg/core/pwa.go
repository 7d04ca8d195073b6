package core

import (
	"sort"
	"strings"
	"time"
)

// ContactPair is an ordered pair of collision geometries that can
// produce a discrete mode switch. LinkA/LinkB index the tree's link
// arena; CollisionA/CollisionB index the Collisions slice of each link.
type ContactPair struct {
	LinkA      int    `json:"linkA"`
	LinkB      int    `json:"linkB"`
	CollisionA int    `json:"collisionA"`
	CollisionB int    `json:"collisionB"`
	NameA      string `json:"nameA"`
	NameB      string `json:"nameB"`

	// Predicate names the geometry-kind combination used for the
	// signed distance test, e.g. "sphere-box".
	Predicate string `json:"predicate"`
}

// Label is the pair's stable display name.
func (p ContactPair) Label() string {
	return p.NameA + "/" + p.NameB
}

// ContactMode is a subset of contact pairs currently active. The empty
// subset is the nominal free-motion mode.
type ContactMode struct {
	Name   string `json:"name"`
	Active []int  `json:"active,omitempty"` // indices into PWASystem.Pairs
}

// ModeName derives the canonical mode name from the active pair labels:
// "free" for the empty set, otherwise sorted labels joined with "+".
func ModeName(pairs []ContactPair, active []int) string {
	if len(active) == 0 {
		return "free"
	}
	labels := make([]string, len(active))
	for i, idx := range active {
		labels[i] = pairs[idx].Label()
	}
	sort.Strings(labels)
	return strings.Join(labels, "+")
}

// Reference is a caller-supplied linearization point in state and input
// space. X stacks (q, qdot).
type Reference struct {
	X []float64 `json:"x"`
	U []float64 `json:"u"`
}

// AffineSystem is the first-order model xdot = A x + B u + c, valid
// inside one mode's guard region.
type AffineSystem struct {
	A Matrix    `json:"a"`
	B Matrix    `json:"b"`
	C []float64 `json:"c"`
}

// GuardPolyhedron is the activation region {x : G x <= h}.
type GuardPolyhedron struct {
	G Matrix    `json:"g"`
	H []float64 `json:"h"`

	// Rows annotates each row with the contact pair it came from.
	Rows []GuardRow `json:"rows,omitempty"`
}

// GuardRow ties one polyhedron row to its originating pair and sign:
// true when the row enforces contact (phi <= 0), false for separation.
type GuardRow struct {
	Pair   int  `json:"pair"`
	Active bool `json:"active"`
}

// ResetMap is the impulsive state transformation x+ = R x + d applied on
// entry into a mode. It is edge data of the automaton, not part of the
// mode's affine dynamics.
type ResetMap struct {
	R Matrix    `json:"r"`
	D []float64 `json:"d,omitempty"`
}

// PWAMode bundles one mode's dynamics, guard, and entry reset.
type PWAMode struct {
	Mode      ContactMode     `json:"mode"`
	Dynamics  AffineSystem    `json:"dynamics"`
	Guard     GuardPolyhedron `json:"guard"`
	Reset     *ResetMap       `json:"reset,omitempty"`
	Reference Reference       `json:"reference"`
}

// PWASystem is the hybrid automaton: the final artifact of a compile.
// Mode guards partition the state space; exactly one mode is active at
// any state.
type PWASystem struct {
	NX    int           `json:"nx"` // state dimension, 2*NQ
	NU    int           `json:"nu"` // input dimension
	NM    int           `json:"nm"` // mode count
	Pairs []ContactPair `json:"pairs"`
	Modes []PWAMode     `json:"modes"`
}

// ModeByName returns the mode with the given canonical name, or nil.
func (s *PWASystem) ModeByName(name string) *PWAMode {
	for i := range s.Modes {
		if s.Modes[i].Mode.Name == name {
			return &s.Modes[i]
		}
	}
	return nil
}

// CompiledModel is everything a caller gets back from a compile pass:
// the resolved tree, the hybrid model, and provenance. It is fully
// reconstructable from serialized form.
type CompiledModel struct {
	Name       string        `json:"name"`
	DocSHA256  string        `json:"docSha256"`
	Tree       KinematicTree `json:"tree"`
	PWA        PWASystem     `json:"pwa"`
	Warnings   []Warning     `json:"warnings,omitempty"`
	CompiledAt time.Time     `json:"compiledAt"`
	Tool       string        `json:"tool"`
}

// Info summarizes the model for catalog listings.
func (m *CompiledModel) Info() ModelInfo {
	return ModelInfo{
		Name:       m.Name,
		DocSHA256:  m.DocSHA256,
		NX:         m.PWA.NX,
		NU:         m.PWA.NU,
		Modes:      m.PWA.NM,
		CompiledAt: m.CompiledAt,
		Tool:       m.Tool,
	}
}

// ModelInfo is a catalog listing entry. It carries only summary fields
// so backends never have to deserialize the full artifact to list it.
type ModelInfo struct {
	Name       string    `json:"name"`
	DocSHA256  string    `json:"docSha256"`
	NX         int       `json:"nx"`
	NU         int       `json:"nu"`
	Modes      int       `json:"modes"`
	CompiledAt time.Time `json:"compiledAt"`
	Tool       string    `json:"tool"`
}

// UploadMetadata accompanies a model file pushed to a registry.
type UploadMetadata struct {
	ModelName string
	DocSHA256 string
	Tool      string
	Modes     int
}
