// Package dynamics assembles the generalized equations of motion of a
// kinematic tree: the mass matrix M(q), the Coriolis/gravity bias
// h(q,qdot), and the actuation map tau = T u. It works in 6-D spatial
// vector algebra (angular components first) so revolute and prismatic
// joints fall out of one formulation.
package dynamics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pwatools/urdfc/pkg/core"
)

// Pose is a rigid transform: R maps child-frame coordinates into the
// parent frame, P is the child origin in the parent frame.
type Pose struct {
	R *mat.Dense
	P core.Vec3
}

// IdentityPose returns the identity transform.
func IdentityPose() Pose {
	return Pose{R: eye3(), P: core.Vec3{}}
}

// Mul composes p with q: the result maps q's child frame through p.
func (p Pose) Mul(q Pose) Pose {
	var r mat.Dense
	r.Mul(p.R, q.R)
	return Pose{R: &r, P: p.ApplyPoint(q.P)}
}

// ApplyPoint maps a point from the child frame to the parent frame.
func (p Pose) ApplyPoint(v core.Vec3) core.Vec3 {
	var out core.Vec3
	for i := 0; i < 3; i++ {
		out[i] = p.R.At(i, 0)*v[0] + p.R.At(i, 1)*v[1] + p.R.At(i, 2)*v[2] + p.P[i]
	}
	return out
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// skew returns the cross-product matrix of v.
func skew(v core.Vec3) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v[2], v[1],
		v[2], 0, -v[0],
		-v[1], v[0], 0,
	})
}

// axisRotation returns the rotation of angle about a unit axis
// (Rodrigues form).
func axisRotation(axis core.Vec3, angle float64) *mat.Dense {
	n := axis.Norm()
	if n == 0 {
		return eye3()
	}
	x, y, z := axis[0]/n, axis[1]/n, axis[2]/n
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	return mat.NewDense(3, 3, []float64{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	})
}

// motionTransform builds the 6x6 Plücker transform taking motion vectors
// from parent coordinates to child coordinates, given the child pose in
// the parent frame: X = [[E, 0], [-E rx, E]] with E = R^T.
func motionTransform(p Pose) *mat.Dense {
	e := mat.DenseCopyOf(p.R.T())
	var bl mat.Dense
	bl.Mul(e, skew(p.P))
	bl.Scale(-1, &bl)

	x := mat.NewDense(6, 6, nil)
	setBlock(x, 0, 0, e)
	setBlock(x, 3, 0, &bl)
	setBlock(x, 3, 3, e)
	return x
}

// spatialInertia builds the 6x6 spatial inertia of a body about its link
// frame from mass, center of mass, and the rotational tensor about the
// center of mass.
func spatialInertia(mass float64, com core.Vec3, ic *mat.SymDense) *mat.Dense {
	h := core.Vec3{mass * com[0], mass * com[1], mass * com[2]}
	hs := skew(h)

	// Tensor about the frame origin by the parallel axis theorem.
	cs := skew(com)
	var shift mat.Dense
	shift.Mul(cs, cs.T())
	shift.Scale(mass, &shift)

	io := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			io.Set(i, j, ic.At(i, j)+shift.At(i, j))
		}
	}

	out := mat.NewDense(6, 6, nil)
	setBlock(out, 0, 0, io)
	setBlock(out, 0, 3, hs)
	neg := mat.DenseCopyOf(hs)
	neg.Scale(-1, neg)
	setBlock(out, 3, 0, neg)
	for i := 3; i < 6; i++ {
		out.Set(i, i, mass)
	}
	return out
}

// crossMotion returns the 6x6 motion-vector cross operator of v.
func crossMotion(v *mat.VecDense) *mat.Dense {
	w := core.Vec3{v.AtVec(0), v.AtVec(1), v.AtVec(2)}
	l := core.Vec3{v.AtVec(3), v.AtVec(4), v.AtVec(5)}
	out := mat.NewDense(6, 6, nil)
	setBlock(out, 0, 0, skew(w))
	setBlock(out, 3, 0, skew(l))
	setBlock(out, 3, 3, skew(w))
	return out
}

// crossForce returns the 6x6 force-vector cross operator of v, equal to
// -crossMotion(v)^T.
func crossForce(v *mat.VecDense) *mat.Dense {
	w := core.Vec3{v.AtVec(0), v.AtVec(1), v.AtVec(2)}
	l := core.Vec3{v.AtVec(3), v.AtVec(4), v.AtVec(5)}
	out := mat.NewDense(6, 6, nil)
	setBlock(out, 0, 0, skew(w))
	setBlock(out, 0, 3, skew(l))
	setBlock(out, 3, 3, skew(w))
	return out
}

func setBlock(dst *mat.Dense, r, c int, src mat.Matrix) {
	br, bc := src.Dims()
	for i := 0; i < br; i++ {
		for j := 0; j < bc; j++ {
			dst.Set(r+i, c+j, src.At(i, j))
		}
	}
}
