package contact

import (
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwatools/urdfc/internal/dynamics"
	"github.com/pwatools/urdfc/internal/tree"
	"github.com/pwatools/urdfc/pkg/core"
)

// cartPoleDesc carries the collision geometry of the benchmark: a tip
// sphere on the pole and a box wall fixed to the ground. Only the
// (pole, wall) pair is a candidate: everything else either has no
// collision geometry or is joint-adjacent.
func cartPoleDesc() *core.Description {
	return &core.Description{
		Name: "cartpole",
		Links: []core.Link{
			{Name: "ground"},
			{Name: "rail"},
			{Name: "cart", Inertial: &core.Inertial{Mass: 1}},
			{Name: "pole",
				Inertial: &core.Inertial{Origin: core.Transform{XYZ: core.Vec3{0, 0, 0.5}}, Mass: 0.2},
				Collisions: []core.Collision{{
					Origin:   core.Transform{XYZ: core.Vec3{0, 0, 1}},
					Geometry: core.Geometry{Kind: core.GeomSphere, Radius: 0.05},
				}},
			},
			{Name: "wall",
				Collisions: []core.Collision{{
					Geometry: core.Geometry{Kind: core.GeomBox, Size: core.Vec3{0.1, 1, 1}},
				}},
			},
		},
		Joints: []core.Joint{
			{Name: "rail_mount", Type: core.JointFixed, Parent: "ground", Child: "rail", Origin: core.Transform{XYZ: core.Vec3{0, 0, 0.2}}},
			{Name: "track", Type: core.JointPrismatic, Parent: "rail", Child: "cart", Axis: core.Vec3{1, 0, 0}, Origin: core.Transform{XYZ: core.Vec3{0, 0, 0.05}}},
			{Name: "shoulder", Type: core.JointContinuous, Parent: "cart", Child: "pole", Axis: core.Vec3{0, 1, 0}},
			{Name: "wall_mount", Type: core.JointFixed, Parent: "ground", Child: "wall", Origin: core.Transform{XYZ: core.Vec3{0.4, 0, 1.0}}},
		},
	}
}

func buildFixture(t *testing.T) (*core.KinematicTree, *dynamics.Model) {
	t.Helper()
	kt, err := tree.New(slog.Default()).Build(cartPoleDesc())
	require.NoError(t, err)
	inertias, _ := tree.ResolveInertias(kt)
	m, err := dynamics.New(slog.Default(), kt, inertias, nil, dynamics.Options{})
	require.NoError(t, err)
	return kt, m
}

func TestEnumerateCartPole(t *testing.T) {
	kt, _ := buildFixture(t)
	d := New(slog.Default())

	pairs, err := d.Enumerate(kt)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "pole", pairs[0].NameA)
	assert.Equal(t, "wall", pairs[0].NameB)
	assert.Equal(t, "sphere-box", pairs[0].Predicate)
}

func TestEnumerateExcludesAdjacent(t *testing.T) {
	desc := cartPoleDesc()
	// Give the ground a collision plane; ground-wall is joint-adjacent
	// and must not appear, ground-pole must.
	desc.Links[0].Collisions = []core.Collision{{
		Geometry: core.Geometry{Kind: core.GeomBox, Size: core.Vec3{10, 10, 0.1}},
	}}
	kt, err := tree.New(slog.Default()).Build(desc)
	require.NoError(t, err)

	pairs, err := New(slog.Default()).Enumerate(kt)
	require.NoError(t, err)

	labels := map[string]bool{}
	for _, p := range pairs {
		labels[p.Label()] = true
	}
	assert.True(t, labels["ground/pole"])
	assert.True(t, labels["pole/wall"])
	assert.False(t, labels["ground/wall"], "joint-adjacent pair must be excluded")
}

func TestEnumerateUnsupportedKind(t *testing.T) {
	desc := cartPoleDesc()
	desc.Links[4].Collisions[0].Geometry = core.Geometry{Kind: core.GeomCylinder, Radius: 0.1, Length: 1}
	kt, err := tree.New(slog.Default()).Build(desc)
	require.NoError(t, err)

	_, err = New(slog.Default()).Enumerate(kt)
	assert.ErrorIs(t, err, core.ErrUnsupportedContact)
}

func TestSphereBoxDistance(t *testing.T) {
	kt, m := buildFixture(t)
	d := New(slog.Default())
	pairs, err := d.Enumerate(kt)
	require.NoError(t, err)

	phi, err := d.Distance(m, pairs[0])
	require.NoError(t, err)

	// Cart at origin, pole upright: tip at (0,0,1.25), wall face at
	// x = 0.35, sphere radius 0.05.
	assert.InDelta(t, 0.30, phi([]float64{0, 0}), 1e-12)

	// Touching.
	assert.InDelta(t, 0, phi([]float64{0.3, 0}), 1e-12)

	// Penetrating: tip inside the wall box.
	assert.Less(t, phi([]float64{0.4, 0}), 0.0)

	// Tilting the pole toward the wall closes the gap.
	gapUpright := phi([]float64{0, 0})
	gapTilted := phi([]float64{0, 0.2})
	assert.Less(t, gapTilted, gapUpright)

	// Exact: tip x = sin(th), distance to face minus radius.
	th := 0.2
	want := (0.35 - math.Sin(th)) - 0.05
	// The tip also drops as cos(th); it stays within the wall's z
	// span, so x alone sets the distance.
	assert.InDelta(t, want, phi([]float64{0, th}), 1e-12)
}

func TestSphereSphereDistance(t *testing.T) {
	desc := &core.Description{
		Links: []core.Link{
			{Name: "base", Collisions: []core.Collision{{
				Geometry: core.Geometry{Kind: core.GeomSphere, Radius: 0.1},
			}}},
			{Name: "mid"},
			{Name: "bob", Collisions: []core.Collision{{
				Geometry: core.Geometry{Kind: core.GeomSphere, Radius: 0.2},
			}}},
		},
		Joints: []core.Joint{
			{Name: "a", Type: core.JointFixed, Parent: "base", Child: "mid"},
			{Name: "b", Type: core.JointPrismatic, Parent: "mid", Child: "bob", Axis: core.Vec3{1, 0, 0}},
		},
	}
	kt, err := tree.New(slog.Default()).Build(desc)
	require.NoError(t, err)
	inertias, _ := tree.ResolveInertias(kt)
	m, err := dynamics.New(slog.Default(), kt, inertias, nil, dynamics.Options{})
	require.NoError(t, err)

	d := New(slog.Default())
	pairs, err := d.Enumerate(kt)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	phi, err := d.Distance(m, pairs[0])
	require.NoError(t, err)
	assert.InDelta(t, 1.0-0.3, phi([]float64{1}), 1e-12)
	assert.InDelta(t, -0.3, phi([]float64{0}), 1e-12)
}

func TestBoxDistanceInside(t *testing.T) {
	box := dynamics.IdentityPose()
	// Unit cube: center distance -0.5 at the middle.
	assert.InDelta(t, -0.5, boxDistance(box, core.Vec3{1, 1, 1}, core.Vec3{0, 0, 0}), 1e-15)
	// Just inside a face.
	assert.InDelta(t, -0.1, boxDistance(box, core.Vec3{1, 1, 1}, core.Vec3{0.4, 0, 0}), 1e-12)
	// Outside a corner: Euclidean excess.
	want := math.Sqrt(3 * 0.5 * 0.5)
	assert.InDelta(t, want, boxDistance(box, core.Vec3{1, 1, 1}, core.Vec3{1, 1, 1}), 1e-12)
}

func TestSpherePlaneDistance(t *testing.T) {
	desc := cartPoleDesc()
	// Floor plane under the whole mechanism. Ground-pole is the only
	// plane pair; ground-wall is joint-adjacent.
	desc.Links[0].Collisions = []core.Collision{{
		Geometry: core.Geometry{Kind: core.GeomPlane, Normal: core.Vec3{0, 0, 1}},
	}}
	kt, err := tree.New(slog.Default()).Build(desc)
	require.NoError(t, err)
	inertias, _ := tree.ResolveInertias(kt)
	m, err := dynamics.New(slog.Default(), kt, inertias, nil, dynamics.Options{})
	require.NoError(t, err)

	d := New(slog.Default())
	pairs, err := d.Enumerate(kt)
	require.NoError(t, err)

	var pp core.ContactPair
	found := false
	for _, p := range pairs {
		if p.Predicate == "sphere-plane" {
			pp, found = p, true
		}
	}
	require.True(t, found)

	phi, err := d.Distance(m, pp)
	require.NoError(t, err)

	// Tip height minus radius: upright 1.25 - 0.05.
	assert.InDelta(t, 1.20, phi([]float64{0, 0}), 1e-12)
	// Swung by pi/2 the tip sits at pivot height 0.25.
	assert.InDelta(t, 0.20, phi([]float64{0, math.Pi / 2}), 1e-12)
	// Swung past horizontal the tip goes below the floor.
	assert.Less(t, phi([]float64{0, math.Pi}), 0.0)
}

func TestBoxPlaneDistance(t *testing.T) {
	plane := dynamics.IdentityPose()
	n := core.Vec3{0, 0, 1}

	box := dynamics.IdentityPose()
	box.P = core.Vec3{0, 0, 1}
	// Unit cube centered 1 above the floor: lowest corner at 0.5.
	assert.InDelta(t, 0.5, boxPlaneDistance(box, core.Vec3{1, 1, 1}, plane, n), 1e-12)

	// Resting on the floor.
	box.P = core.Vec3{0, 0, 0.5}
	assert.InDelta(t, 0, boxPlaneDistance(box, core.Vec3{1, 1, 1}, plane, n), 1e-12)

	// Centered on the plane: half the cube below.
	box.P = core.Vec3{}
	assert.InDelta(t, -0.5, boxPlaneDistance(box, core.Vec3{1, 1, 1}, plane, n), 1e-12)
}
