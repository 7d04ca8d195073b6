package dynamics

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/pwatools/urdfc/pkg/core"
)

// MassMatrix evaluates the generalized mass matrix M(q) by composite
// rigid body accumulation over the tree. The result is symmetric by
// construction; positive definiteness is checked where the matrix is
// consumed (ForwardDynamics), not here, because singularity depends on
// the state and on which axes carry inertia. Returns nil for a tree
// with no degrees of freedom.
func (m *Model) MassMatrix(q []float64) *mat.SymDense {
	nq := m.Tree.NQ
	if nq == 0 {
		return nil
	}
	out := mat.NewSymDense(nq, nil)

	xs := m.localTransforms(q)
	ic := m.compositeInertias(xs)

	for i := range m.Tree.Joints {
		si := m.s[i]
		if si == nil {
			continue
		}
		j := &m.Tree.Joints[i]
		qi := j.DOFIndex

		f := mat.NewVecDense(6, nil)
		f.MulVec(ic[j.ChildLink], si)
		out.SetSym(qi, qi, mat.Dot(si, f))

		// Climb toward the root, moving the force into each ancestor
		// frame and projecting on that ancestor's motion subspace.
		cur := i
		for {
			var ft mat.VecDense
			ft.MulVec(xs[cur].T(), f)
			f = &ft

			link := m.Tree.Joints[cur].ParentLink
			pj := m.Tree.ParentJoint[link]
			if pj < 0 {
				break
			}
			cur = pj
			if sj := m.s[cur]; sj != nil {
				out.SetSym(qi, m.Tree.Joints[cur].DOFIndex, mat.Dot(f, sj))
			}
		}
	}

	return out
}

// compositeInertias returns, per link, the spatial inertia of the whole
// subtree rooted there, expressed in the link's own frame. Independent
// subtrees may be accumulated in parallel; the combination at each link
// always runs in declaration order so floating-point results match the
// sequential walk exactly.
func (m *Model) compositeInertias(xs []*mat.Dense) []*mat.Dense {
	ics := make([]*mat.Dense, len(m.Tree.Links))
	m.composite(m.Tree.Root, xs, ics)
	return ics
}

func (m *Model) composite(link int, xs []*mat.Dense, ics []*mat.Dense) {
	children := m.children[link]

	if m.parallel && len(children) > 1 {
		var g errgroup.Group
		for _, ji := range children {
			ji := ji
			g.Go(func() error {
				m.composite(m.Tree.Joints[ji].ChildLink, xs, ics)
				return nil
			})
		}
		// Subtree walks only error by panic; Wait is a join barrier.
		_ = g.Wait()
	} else {
		for _, ji := range children {
			m.composite(m.Tree.Joints[ji].ChildLink, xs, ics)
		}
	}

	ic := mat.DenseCopyOf(m.inertia[link])
	for _, ji := range children {
		child := m.Tree.Joints[ji].ChildLink
		// X^T Ic X moves the child composite into this frame.
		var tmp, shifted mat.Dense
		tmp.Mul(ics[child], xs[ji])
		shifted.Mul(xs[ji].T(), &tmp)
		ic.Add(ic, &shifted)
	}
	ics[link] = ic
}

// Bias evaluates h(q,qdot): Coriolis and centrifugal terms, gravity, and
// joint damping/friction, via a recursive Newton-Euler sweep with zero
// joint accelerations.
func (m *Model) Bias(q, qd []float64) []float64 {
	nq := m.Tree.NQ
	tau := make([]float64, nq)
	if nq == 0 && len(m.Tree.Joints) == 0 {
		return tau
	}

	xs := m.localTransforms(q)

	nLinks := len(m.Tree.Links)
	v := make([]*mat.VecDense, nLinks)
	a := make([]*mat.VecDense, nLinks)
	f := make([]*mat.VecDense, nLinks)
	for i := 0; i < nLinks; i++ {
		f[i] = mat.NewVecDense(6, nil)
	}

	// Gravity enters as a fictitious base acceleration of -g.
	v[m.Tree.Root] = mat.NewVecDense(6, nil)
	a[m.Tree.Root] = mat.NewVecDense(6, []float64{
		0, 0, 0, -m.gravity[0], -m.gravity[1], -m.gravity[2],
	})

	for i := range m.Tree.Joints {
		j := &m.Tree.Joints[i]
		vc := mat.NewVecDense(6, nil)
		ac := mat.NewVecDense(6, nil)
		vc.MulVec(xs[i], v[j.ParentLink])
		ac.MulVec(xs[i], a[j.ParentLink])

		if si := m.s[i]; si != nil {
			qdi := qd[j.DOFIndex]
			vj := mat.NewVecDense(6, nil)
			vj.ScaleVec(qdi, si)
			vc.AddVec(vc, vj)

			var zeta mat.VecDense
			zeta.MulVec(crossMotion(vc), vj)
			ac.AddVec(ac, &zeta)
		}

		v[j.ChildLink] = vc
		a[j.ChildLink] = ac

		// f = I a + v x* I v
		var ia, iv, bias mat.VecDense
		ia.MulVec(m.inertia[j.ChildLink], ac)
		iv.MulVec(m.inertia[j.ChildLink], vc)
		bias.MulVec(crossForce(vc), &iv)
		f[j.ChildLink].AddVec(&ia, &bias)
	}

	for i := len(m.Tree.Joints) - 1; i >= 0; i-- {
		j := &m.Tree.Joints[i]
		if si := m.s[i]; si != nil {
			t := mat.Dot(si, f[j.ChildLink])
			if j.Dynamics != nil {
				qdi := qd[j.DOFIndex]
				t += j.Dynamics.Damping * qdi
				if qdi != 0 {
					t += j.Dynamics.Friction * sign(qdi)
				}
			}
			tau[j.DOFIndex] = t
		}
		var up mat.VecDense
		up.MulVec(xs[i].T(), f[j.ChildLink])
		f[j.ParentLink].AddVec(f[j.ParentLink], &up)
	}

	return tau
}

// ForwardDynamics solves M(q) qdd = T u - h(q,qdot) for qdd. The mass
// matrix is required to be positive definite here; a failed Cholesky
// factorization reports ErrSingularMassMatrix so the caller can pick a
// different reference state.
func (m *Model) ForwardDynamics(q, qd, u []float64) ([]float64, error) {
	nq := m.Tree.NQ
	if nq == 0 {
		return nil, nil
	}

	h := m.Bias(q, qd)
	rhs := mat.NewVecDense(nq, nil)
	for i := 0; i < nq; i++ {
		rhs.SetVec(i, -h[i])
	}
	if m.t != nil && len(u) > 0 {
		var tu mat.VecDense
		tu.MulVec(m.t, mat.NewVecDense(len(u), u))
		rhs.AddVec(rhs, &tu)
	}

	mm := m.MassMatrix(q)
	var chol mat.Cholesky
	if ok := chol.Factorize(mm); !ok {
		return nil, fmt.Errorf("mass matrix at q=%v: %w", q, core.ErrSingularMassMatrix)
	}

	var qdd mat.VecDense
	if err := chol.SolveVecTo(&qdd, rhs); err != nil {
		return nil, fmt.Errorf("mass matrix solve: %w", core.ErrSingularMassMatrix)
	}

	out := make([]float64, nq)
	for i := 0; i < nq; i++ {
		out[i] = qdd.AtVec(i)
	}
	return out, nil
}

// XDot evaluates the full state derivative of x = (q, qdot) under input
// u: xdot = (qdot, qdd).
func (m *Model) XDot(x, u []float64) ([]float64, error) {
	nq := m.Tree.NQ
	if len(x) != 2*nq {
		return nil, fmt.Errorf("state dimension %d, want %d", len(x), 2*nq)
	}
	q, qd := x[:nq], x[nq:]
	qdd, err := m.ForwardDynamics(q, qd, u)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 2*nq)
	copy(out[:nq], qd)
	copy(out[nq:], qdd)
	return out, nil
}

func sign(v float64) float64 {
	if math.Signbit(v) {
		return -1
	}
	return 1
}
