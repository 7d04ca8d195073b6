package dynamics

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/pwatools/urdfc/internal/tree"
	"github.com/pwatools/urdfc/pkg/core"
)

// Options tune the assembler.
type Options struct {
	// Gravity is the world-frame gravity vector.
	Gravity core.Vec3

	// Parallel enables fork-join accumulation of independent subtrees.
	// Results are bit-identical to the sequential walk: contributions
	// are always combined in declaration order.
	Parallel bool
}

// DefaultGravity is standard gravity along -z.
var DefaultGravity = core.Vec3{0, 0, -9.81}

// Model holds everything needed to evaluate the equations of motion of
// one kinematic tree. Immutable after New.
type Model struct {
	Tree *core.KinematicTree

	logger   *slog.Logger
	gravity  core.Vec3
	parallel bool

	// Per-link 6x6 spatial inertia about the link frame.
	inertia []*mat.Dense

	// Per-joint motion subspace in the child frame; nil for fixed.
	s []*mat.VecDense

	// Per-link child joint indices, in declaration order.
	children [][]int

	// Actuation map tau = T u and its input labels.
	t      *mat.Dense
	inputs []string
}

// New builds a Model from a validated tree, its resolved inertias, and
// the transmission records. Multi-DOF joint kinds are representable in
// the tree but not assembled here; they are rejected with a structural
// error rather than mishandled.
func New(logger *slog.Logger, t *core.KinematicTree, inertias []tree.Inertia, transmissions []core.Transmission, opts Options) (*Model, error) {
	if opts.Gravity == (core.Vec3{}) {
		opts.Gravity = DefaultGravity
	}

	m := &Model{
		Tree:     t,
		logger:   logger,
		gravity:  opts.Gravity,
		parallel: opts.Parallel,
		inertia:  make([]*mat.Dense, len(t.Links)),
		s:        make([]*mat.VecDense, len(t.Joints)),
		children: make([][]int, len(t.Links)),
	}

	for i := range t.Links {
		m.inertia[i] = spatialInertia(inertias[i].Mass, inertias[i].COM, inertias[i].I)
	}

	for i := range t.Joints {
		j := &t.Joints[i]
		m.children[j.ParentLink] = append(m.children[j.ParentLink], i)

		axis := j.Axis
		if n := axis.Norm(); n > 0 {
			axis = core.Vec3{axis[0] / n, axis[1] / n, axis[2] / n}
		}
		switch j.Type {
		case core.JointFixed:
			// no subspace
		case core.JointRevolute, core.JointContinuous:
			m.s[i] = mat.NewVecDense(6, []float64{axis[0], axis[1], axis[2], 0, 0, 0})
		case core.JointPrismatic:
			m.s[i] = mat.NewVecDense(6, []float64{0, 0, 0, axis[0], axis[1], axis[2]})
		default:
			return nil, core.NewStructuralError(core.ErrUnsupportedJointType, j.Name)
		}
	}

	if err := m.buildActuationMap(transmissions); err != nil {
		return nil, err
	}

	logger.Debug("assembled dynamics model",
		"nq", t.NQ,
		"nu", len(m.inputs),
		"gravity", opts.Gravity,
		"parallel", opts.Parallel)

	return m, nil
}

// NQ returns the generalized coordinate count.
func (m *Model) NQ() int { return m.Tree.NQ }

// NU returns the input dimension: one per actuator, in transmission
// declaration order.
func (m *Model) NU() int { return len(m.inputs) }

// Inputs returns the actuator names labeling the input vector.
func (m *Model) Inputs() []string { return m.inputs }

// ActuationMap returns tau = T u as an NQ x NU matrix. Joints with no
// transmission have all-zero rows: they are passive. Returns nil when
// the model has no coordinates or no actuators.
func (m *Model) ActuationMap() *mat.Dense {
	if m.t == nil {
		return nil
	}
	return mat.DenseCopyOf(m.t)
}

func (m *Model) buildActuationMap(transmissions []core.Transmission) error {
	nu := 0
	for i := range transmissions {
		nu += len(transmissions[i].Actuators)
	}
	if m.Tree.NQ > 0 && nu > 0 {
		m.t = mat.NewDense(m.Tree.NQ, nu, nil)
	}

	col := 0
	for i := range transmissions {
		tr := &transmissions[i]
		dofs := make([]int, 0, len(tr.Joints))
		for _, name := range tr.Joints {
			ji := m.Tree.JointIndex(name)
			if ji < 0 {
				return core.NewStructuralError(core.ErrUnknownJoint, name)
			}
			j := &m.Tree.Joints[ji]
			if j.DOFCount == 0 {
				return core.NewStructuralError(core.ErrActuatedFixedJoint, name)
			}
			dofs = append(dofs, j.DOFIndex)
		}
		for range tr.Actuators {
			for _, d := range dofs {
				m.t.Set(d, col, tr.MechanicalReduction)
			}
			col++
		}
		for _, a := range tr.Actuators {
			m.inputs = append(m.inputs, a.Name)
		}
	}
	return nil
}

// jointPose returns the child pose in the parent frame: the fixed origin
// offset composed with the joint motion at coordinate value qj.
func (m *Model) jointPose(i int, q []float64) Pose {
	j := &m.Tree.Joints[i]
	origin := Pose{R: j.Origin.Rotation(), P: j.Origin.XYZ}

	var qj float64
	if j.DOFIndex >= 0 {
		qj = q[j.DOFIndex]
	}
	switch j.Type {
	case core.JointRevolute, core.JointContinuous:
		return origin.Mul(Pose{R: axisRotation(j.Axis, qj), P: core.Vec3{}})
	case core.JointPrismatic:
		n := j.Axis.Norm()
		a := j.Axis
		if n > 0 {
			a = core.Vec3{a[0] / n * qj, a[1] / n * qj, a[2] / n * qj}
		}
		return origin.Mul(Pose{R: eye3(), P: a})
	default:
		return origin
	}
}

// FK computes world poses for every link at configuration q. The root
// frame is the world frame.
func (m *Model) FK(q []float64) []Pose {
	poses := make([]Pose, len(m.Tree.Links))
	poses[m.Tree.Root] = IdentityPose()
	for i := range m.Tree.Joints {
		j := &m.Tree.Joints[i]
		poses[j.ChildLink] = poses[j.ParentLink].Mul(m.jointPose(i, q))
	}
	return poses
}

// localTransforms computes each joint's Plücker motion transform
// (parent coordinates to child coordinates) at q.
func (m *Model) localTransforms(q []float64) []*mat.Dense {
	xs := make([]*mat.Dense, len(m.Tree.Joints))
	for i := range m.Tree.Joints {
		xs[i] = motionTransform(m.jointPose(i, q))
	}
	return xs
}

