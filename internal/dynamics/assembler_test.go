package dynamics

import (
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pwatools/urdfc/internal/tree"
	"github.com/pwatools/urdfc/pkg/core"
)

func buildModel(t *testing.T, desc *core.Description, opts Options) *Model {
	t.Helper()
	kt, err := tree.New(slog.Default()).Build(desc)
	require.NoError(t, err)
	inertias, _ := tree.ResolveInertias(kt)
	m, err := New(slog.Default(), kt, inertias, desc.Transmissions, opts)
	require.NoError(t, err)
	return m
}

// pendulumDesc is a point mass m on a massless rod of length l, swinging
// about the world y axis. Closed forms: M = m l^2, gravity bias
// h = m g l sin(q) with q measured from hanging straight down.
func pendulumDesc(m, l float64) *core.Description {
	return &core.Description{
		Name: "pendulum",
		Links: []core.Link{
			{Name: "base"},
			{Name: "arm", Inertial: &core.Inertial{
				Origin: core.Transform{XYZ: core.Vec3{0, 0, -l}},
				Mass:   m,
			}},
		},
		Joints: []core.Joint{
			{Name: "pivot", Type: core.JointContinuous, Parent: "base", Child: "arm", Axis: core.Vec3{0, 1, 0}},
		},
	}
}

// cartPoleDesc mirrors the canonical benchmark: cart (mass mc) on a
// prismatic track along x, pole pivoting about y with a point mass mp at
// distance l above the pivot.
func cartPoleDesc(mc, mp, l float64) *core.Description {
	return &core.Description{
		Name: "cartpole",
		Links: []core.Link{
			{Name: "ground"},
			{Name: "rail"},
			{Name: "cart", Inertial: &core.Inertial{Mass: mc}},
			{Name: "pole", Inertial: &core.Inertial{
				Origin: core.Transform{XYZ: core.Vec3{0, 0, l}},
				Mass:   mp,
			}},
		},
		Joints: []core.Joint{
			{Name: "rail_mount", Type: core.JointFixed, Parent: "ground", Child: "rail", Origin: core.Transform{XYZ: core.Vec3{0, 0, 0.25}}},
			{Name: "track", Type: core.JointPrismatic, Parent: "rail", Child: "cart", Axis: core.Vec3{1, 0, 0}},
			{Name: "shoulder", Type: core.JointContinuous, Parent: "cart", Child: "pole", Axis: core.Vec3{0, 1, 0}},
		},
		Transmissions: []core.Transmission{
			{Name: "track_trans", Joints: []string{"track"}, Actuators: []core.Actuator{{Name: "track_motor"}}, MechanicalReduction: 1.0},
		},
	}
}

func TestPendulumClosedForm(t *testing.T) {
	const mass, l, g = 0.7, 0.4, 9.81
	m := buildModel(t, pendulumDesc(mass, l), Options{})

	mm := m.MassMatrix([]float64{0.3})
	require.NotNil(t, mm)
	assert.InDelta(t, mass*l*l, mm.At(0, 0), 1e-12)

	for _, q := range []float64{0, 0.5, math.Pi / 2, -1.2} {
		h := m.Bias([]float64{q}, []float64{0})
		assert.InDelta(t, mass*g*l*math.Sin(q), h[0], 1e-10, "q=%v", q)
	}
}

func TestPendulumDampingEntersBias(t *testing.T) {
	desc := pendulumDesc(1, 1)
	desc.Joints[0].Dynamics = &core.JointDynamics{Damping: 0.5}
	m := buildModel(t, desc, Options{})

	// A single pendulum has no Coriolis coupling, so the only
	// qd-dependence of the bias is the damping term.
	h0 := m.Bias([]float64{0}, []float64{0})
	h1 := m.Bias([]float64{0}, []float64{2})
	assert.InDelta(t, 0.5*2, h1[0]-h0[0], 1e-10)
}

func TestCartPoleMassMatrix(t *testing.T) {
	const mc, mp, l = 1.0, 0.2, 0.5
	m := buildModel(t, cartPoleDesc(mc, mp, l), Options{})

	require.Equal(t, 2, m.NQ())

	for _, th := range []float64{0, 0.4, -1.1, math.Pi / 2} {
		mm := m.MassMatrix([]float64{0.3, th})
		assert.InDelta(t, mc+mp, mm.At(0, 0), 1e-12)
		assert.InDelta(t, mp*l*math.Cos(th), mm.At(0, 1), 1e-12)
		assert.InDelta(t, mm.At(0, 1), mm.At(1, 0), 1e-15)
		assert.InDelta(t, mp*l*l, mm.At(1, 1), 1e-12)

		// Symmetric, non-negative diagonal, positive definite away
		// from the degenerate axis.
		var chol mat.Cholesky
		assert.True(t, chol.Factorize(mm), "theta=%v", th)
	}
}

func TestCartPoleGravityBias(t *testing.T) {
	const mc, mp, l, g = 1.0, 0.2, 0.5, 9.81
	m := buildModel(t, cartPoleDesc(mc, mp, l), Options{})

	for _, th := range []float64{0, math.Pi / 4, -0.6} {
		h := m.Bias([]float64{0, th}, []float64{0, 0})
		assert.InDelta(t, 0, h[0], 1e-10)
		// Inverted pendulum: potential mp*g*l*cos(theta) gives
		// -mp*g*l*sin(theta) on the shoulder coordinate.
		assert.InDelta(t, -mp*g*l*math.Sin(th), h[1], 1e-10, "theta=%v", th)
	}
}

func TestCartPoleCoriolis(t *testing.T) {
	const mc, mp, l = 1.0, 0.2, 0.5
	m := buildModel(t, cartPoleDesc(mc, mp, l), Options{})

	// Gravity is vertical and never enters the track coordinate; the
	// only bias there is the centrifugal term -mp*l*sin(th)*thdot^2.
	th, thd := 0.7, 1.3
	h := m.Bias([]float64{0, th}, []float64{0.4, thd})
	assert.InDelta(t, -mp*l*math.Sin(th)*thd*thd, h[0], 1e-9)
}

func TestActuationMap(t *testing.T) {
	m := buildModel(t, cartPoleDesc(1, 0.2, 0.5), Options{})

	tm := m.ActuationMap()
	require.NotNil(t, tm)
	r, c := tm.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, []string{"track_motor"}, m.Inputs())

	// Only the track DOF is actuated; the shoulder row is zero.
	assert.Equal(t, 1.0, tm.At(0, 0))
	assert.Equal(t, 0.0, tm.At(1, 0))
}

func TestForwardDynamicsNewton(t *testing.T) {
	// Pole massless in rotation is excluded here: plain cart with no
	// pole angle involvement at theta=0, u pushes the cart.
	const mc, mp, l = 1.0, 0.2, 0.5
	m := buildModel(t, cartPoleDesc(mc, mp, l), Options{})

	qdd, err := m.ForwardDynamics([]float64{0, 0}, []float64{0, 0}, []float64{1.0})
	require.NoError(t, err)
	// At the upright equilibrium gravity is vertical; force u=1 on the
	// coupled system: M qdd = (1, 0).
	mm := m.MassMatrix([]float64{0, 0})
	var back mat.VecDense
	back.MulVec(mm, mat.NewVecDense(2, qdd))
	assert.InDelta(t, 1.0, back.AtVec(0), 1e-9)
	assert.InDelta(t, 0.0, back.AtVec(1), 1e-9)
}

func TestSingularMassMatrix(t *testing.T) {
	// A pole with zero mass and zero tensor on a rotational DOF has no
	// generalized inertia at all: M is singular.
	desc := pendulumDesc(0, 0.5)
	m := buildModel(t, desc, Options{})

	_, err := m.ForwardDynamics([]float64{0}, []float64{0}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSingularMassMatrix)
}

func TestParallelMatchesSequential(t *testing.T) {
	// Two pendulums hanging off one base exercise the fork-join path.
	desc := &core.Description{
		Name: "twins",
		Links: []core.Link{
			{Name: "base"},
			{Name: "left", Inertial: &core.Inertial{Origin: core.Transform{XYZ: core.Vec3{0, 0, -0.3}}, Mass: 0.5}},
			{Name: "right", Inertial: &core.Inertial{Origin: core.Transform{XYZ: core.Vec3{0, 0, -0.7}}, Mass: 0.9}},
		},
		Joints: []core.Joint{
			{Name: "jl", Type: core.JointContinuous, Parent: "base", Child: "left", Axis: core.Vec3{0, 1, 0}, Origin: core.Transform{XYZ: core.Vec3{-1, 0, 0}}},
			{Name: "jr", Type: core.JointContinuous, Parent: "base", Child: "right", Axis: core.Vec3{0, 1, 0}, Origin: core.Transform{XYZ: core.Vec3{1, 0, 0}}},
		},
	}

	seq := buildModel(t, desc, Options{Parallel: false})
	par := buildModel(t, desc, Options{Parallel: true})

	q := []float64{0.35, -1.2}
	a := seq.MassMatrix(q)
	b := par.MassMatrix(q)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.Equal(t, a.At(i, j), b.At(i, j), "entry %d,%d must be bit-identical", i, j)
		}
	}
}

func TestTransmissionErrors(t *testing.T) {
	desc := cartPoleDesc(1, 0.2, 0.5)
	desc.Transmissions[0].Joints = []string{"nope"}
	kt, err := tree.New(slog.Default()).Build(desc)
	require.NoError(t, err)
	inertias, _ := tree.ResolveInertias(kt)
	_, err = New(slog.Default(), kt, inertias, desc.Transmissions, Options{})
	assert.ErrorIs(t, err, core.ErrUnknownJoint)

	desc = cartPoleDesc(1, 0.2, 0.5)
	desc.Transmissions[0].Joints = []string{"rail_mount"}
	kt, err = tree.New(slog.Default()).Build(desc)
	require.NoError(t, err)
	inertias, _ = tree.ResolveInertias(kt)
	_, err = New(slog.Default(), kt, inertias, desc.Transmissions, Options{})
	assert.ErrorIs(t, err, core.ErrActuatedFixedJoint)
}

func TestMultiDOFRejectedByAssembler(t *testing.T) {
	desc := &core.Description{
		Links: []core.Link{{Name: "world"}, {Name: "body"}},
		Joints: []core.Joint{
			{Name: "free", Type: core.JointFloating, Parent: "world", Child: "body"},
		},
	}
	kt, err := tree.New(slog.Default()).Build(desc)
	require.NoError(t, err)
	inertias, _ := tree.ResolveInertias(kt)
	_, err = New(slog.Default(), kt, inertias, nil, Options{})
	assert.ErrorIs(t, err, core.ErrUnsupportedJointType)
}
