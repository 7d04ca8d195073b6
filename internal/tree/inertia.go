package tree

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/pwatools/urdfc/pkg/core"
)

// Inertia is a link's resolved mass properties in the link frame: scalar
// mass, center of mass, and the symmetric rotational tensor about the
// center of mass (rotated out of the inertial-origin frame).
type Inertia struct {
	Mass float64
	COM  core.Vec3
	I    *mat.SymDense
}

// ResolveInertias applies the default-value policy: links without an
// <inertial> element get zero mass and zero tensor (massless, purely
// kinematic, legal for visual-only links such as a ground plane). An
// all-zero tensor on a link that is moved by a rotational DOF is
// accepted but surfaced as a degenerate-inertia warning, because the
// generalized inertia about that axis may come out singular unless other
// links in the chain supply it.
func ResolveInertias(t *core.KinematicTree) ([]Inertia, []core.Warning) {
	out := make([]Inertia, len(t.Links))
	var warnings []core.Warning

	for i := range t.Links {
		link := &t.Links[i]
		if link.Inertial == nil {
			out[i] = Inertia{I: mat.NewSymDense(3, nil)}
			continue
		}
		in := link.Inertial

		// Rotate the tensor from the inertial-origin frame into the
		// link frame: I_link = R * I * R^T.
		ic := mat.NewDense(3, 3, []float64{
			in.IXX, in.IXY, in.IXZ,
			in.IXY, in.IYY, in.IYZ,
			in.IXZ, in.IYZ, in.IZZ,
		})
		r := in.Origin.Rotation()
		var tmp, rot mat.Dense
		tmp.Mul(r, ic)
		rot.Mul(&tmp, r.T())

		sym := mat.NewSymDense(3, nil)
		for a := 0; a < 3; a++ {
			for b := a; b < 3; b++ {
				sym.SetSym(a, b, (rot.At(a, b)+rot.At(b, a))/2)
			}
		}

		out[i] = Inertia{Mass: in.Mass, COM: in.Origin.XYZ, I: sym}

		if in.Degenerate() && in.Mass > 0 && movedByRotation(t, i) {
			warnings = append(warnings, core.Warning{
				Code:    core.WarnDegenerateInertia,
				Subject: link.Name,
				Message: fmt.Sprintf("link %q has an all-zero inertia tensor but is moved by a rotational joint", link.Name),
			})
		}
	}

	return out, warnings
}

// movedByRotation reports whether any joint on the chain from the root
// to link i contributes a rotational DOF.
func movedByRotation(t *core.KinematicTree, i int) bool {
	for cur := i; t.ParentJoint[cur] >= 0; {
		j := &t.Joints[t.ParentJoint[cur]]
		switch j.Type {
		case core.JointRevolute, core.JointContinuous, core.JointPlanar, core.JointFloating:
			return true
		}
		cur = j.ParentLink
	}
	return false
}
