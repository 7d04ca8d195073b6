// Package contact enumerates the collision-geometry pairs of a tree
// that can trigger a discrete mode switch, and derives a scalar signed
// distance function per pair (negative means penetrating). It is a pure
// geometric derivation: nothing here mutates the tree.
package contact

import (
	"fmt"
	"log/slog"

	"github.com/pwatools/urdfc/internal/dynamics"
	"github.com/pwatools/urdfc/pkg/core"
)

// Detector enumerates contact pairs.
type Detector struct {
	logger *slog.Logger
}

// New creates a detector.
func New(logger *slog.Logger) *Detector {
	return &Detector{logger: logger}
}

// Enumerate lists every candidate pair: all combinations of collision
// geometries on distinct links, except links directly connected by a
// joint, since contact at the joint itself is not a mode switch. Pairs are
// ordered by link declaration, so the enumeration is deterministic.
func (d *Detector) Enumerate(t *core.KinematicTree) ([]core.ContactPair, error) {
	var pairs []core.ContactPair

	for a := 0; a < len(t.Links); a++ {
		if len(t.Links[a].Collisions) == 0 {
			continue
		}
		for b := a + 1; b < len(t.Links); b++ {
			if len(t.Links[b].Collisions) == 0 {
				continue
			}
			if t.JointAdjacent(a, b) {
				continue
			}
			for ca := range t.Links[a].Collisions {
				for cb := range t.Links[b].Collisions {
					pred, ok := predicate(
						t.Links[a].Collisions[ca].Geometry.Kind,
						t.Links[b].Collisions[cb].Geometry.Kind,
					)
					if !ok {
						return nil, fmt.Errorf("links %q and %q (%s, %s): %w",
							t.Links[a].Name, t.Links[b].Name,
							t.Links[a].Collisions[ca].Geometry.Kind,
							t.Links[b].Collisions[cb].Geometry.Kind,
							core.ErrUnsupportedContact)
					}
					pairs = append(pairs, core.ContactPair{
						LinkA:      a,
						LinkB:      b,
						CollisionA: ca,
						CollisionB: cb,
						NameA:      t.Links[a].Name,
						NameB:      t.Links[b].Name,
						Predicate:  pred,
					})
				}
			}
		}
	}

	d.logger.Debug("enumerated contact pairs", "count", len(pairs))
	return pairs, nil
}

// predicate names the distance test for a kind combination, normalized
// with the sphere first. Only combinations with an implemented signed
// distance are accepted.
func predicate(a, b core.GeometryKind) (string, bool) {
	switch {
	case a == core.GeomSphere && b == core.GeomSphere:
		return "sphere-sphere", true
	case a == core.GeomSphere && b == core.GeomBox,
		a == core.GeomBox && b == core.GeomSphere:
		return "sphere-box", true
	case a == core.GeomSphere && b == core.GeomPlane,
		a == core.GeomPlane && b == core.GeomSphere:
		return "sphere-plane", true
	case a == core.GeomBox && b == core.GeomPlane,
		a == core.GeomPlane && b == core.GeomBox:
		return "box-plane", true
	default:
		return "", false
	}
}

// DistanceFunc is a signed distance over configurations. Negative means
// the pair penetrates.
type DistanceFunc func(q []float64) float64

// Distance builds the signed distance function for one enumerated pair,
// using the model's forward kinematics to place both geometries.
func (d *Detector) Distance(m *dynamics.Model, pair core.ContactPair) (DistanceFunc, error) {
	t := m.Tree
	colA := t.Links[pair.LinkA].Collisions[pair.CollisionA]
	colB := t.Links[pair.LinkB].Collisions[pair.CollisionB]

	// Normalize the ordering: plane last, sphere before box.
	swap := colA.Geometry.Kind == core.GeomPlane ||
		(colA.Geometry.Kind == core.GeomBox && colB.Geometry.Kind == core.GeomSphere)
	if swap {
		pair.LinkA, pair.LinkB = pair.LinkB, pair.LinkA
		colA, colB = colB, colA
	}

	switch pair.Predicate {
	case "sphere-sphere":
		return func(q []float64) float64 {
			poses := m.FK(q)
			ca := worldOrigin(poses[pair.LinkA], colA.Origin)
			cb := worldOrigin(poses[pair.LinkB], colB.Origin)
			return ca.Sub(cb).Norm() - colA.Geometry.Radius - colB.Geometry.Radius
		}, nil
	case "sphere-box":
		return func(q []float64) float64 {
			poses := m.FK(q)
			center := worldOrigin(poses[pair.LinkA], colA.Origin)
			boxPose := composePose(poses[pair.LinkB], colB.Origin)
			return boxDistance(boxPose, colB.Geometry.Size, center) - colA.Geometry.Radius
		}, nil
	case "sphere-plane":
		return func(q []float64) float64 {
			poses := m.FK(q)
			center := worldOrigin(poses[pair.LinkA], colA.Origin)
			plane := composePose(poses[pair.LinkB], colB.Origin)
			return planeDistance(plane, colB.Geometry.Normal, center) - colA.Geometry.Radius
		}, nil
	case "box-plane":
		return func(q []float64) float64 {
			poses := m.FK(q)
			boxPose := composePose(poses[pair.LinkA], colA.Origin)
			plane := composePose(poses[pair.LinkB], colB.Origin)
			return boxPlaneDistance(boxPose, colA.Geometry.Size, plane, colB.Geometry.Normal)
		}, nil
	default:
		return nil, fmt.Errorf("predicate %q: %w", pair.Predicate, core.ErrUnsupportedContact)
	}
}

func worldOrigin(link dynamics.Pose, origin core.Transform) core.Vec3 {
	return link.ApplyPoint(origin.XYZ)
}

func composePose(link dynamics.Pose, origin core.Transform) dynamics.Pose {
	return link.Mul(dynamics.Pose{R: origin.Rotation(), P: origin.XYZ})
}
