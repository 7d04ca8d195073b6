package pwa

import (
	"github.com/pwatools/urdfc/internal/contact"
	"github.com/pwatools/urdfc/pkg/core"
)

// linearizeDynamics computes the first-order expansion of xdot = f(x,u)
// about the reference by central differences:
//
//	xdot ~ A(x - x*) + B(u - u*) + f(x*,u*) = Ax + Bu + c
func (c *Constructor) linearizeDynamics(ref core.Reference, h float64) (core.AffineSystem, error) {
	nx := len(ref.X)
	nu := len(ref.U)

	f0, err := c.model.XDot(ref.X, ref.U)
	if err != nil {
		return core.AffineSystem{}, err
	}

	a := core.NewMatrix(nx, nx)
	for j := 0; j < nx; j++ {
		xp := perturb(ref.X, j, h)
		xm := perturb(ref.X, j, -h)
		fp, err := c.model.XDot(xp, ref.U)
		if err != nil {
			return core.AffineSystem{}, err
		}
		fm, err := c.model.XDot(xm, ref.U)
		if err != nil {
			return core.AffineSystem{}, err
		}
		for i := 0; i < nx; i++ {
			a.Set(i, j, (fp[i]-fm[i])/(2*h))
		}
	}

	b := core.NewMatrix(nx, nu)
	for j := 0; j < nu; j++ {
		up := perturb(ref.U, j, h)
		um := perturb(ref.U, j, -h)
		fp, err := c.model.XDot(ref.X, up)
		if err != nil {
			return core.AffineSystem{}, err
		}
		fm, err := c.model.XDot(ref.X, um)
		if err != nil {
			return core.AffineSystem{}, err
		}
		for i := 0; i < nx; i++ {
			b.Set(i, j, (fp[i]-fm[i])/(2*h))
		}
	}

	// c = f(x*,u*) - A x* - B u*
	off := make([]float64, nx)
	for i := 0; i < nx; i++ {
		v := f0[i]
		for j := 0; j < nx; j++ {
			v -= a.At(i, j) * ref.X[j]
		}
		for j := 0; j < nu; j++ {
			v -= b.At(i, j) * ref.U[j]
		}
		off[i] = v
	}

	return core.AffineSystem{A: a, B: b, C: off}, nil
}

// linearizeDistance expands a signed distance about the reference
// configuration. Distances depend only on the position coordinates, so
// the velocity half of the row is zero.
//
// Returns the gradient row over the full state and the affine offset d
// such that phi(x) ~ row.x + d.
func (c *Constructor) linearizeDistance(phi contact.DistanceFunc, ref core.Reference, h float64) ([]float64, float64) {
	nq := c.model.NQ()
	nx := 2 * nq
	q := ref.X[:nq]

	row := make([]float64, nx)
	for j := 0; j < nq; j++ {
		qp := perturb(q, j, h)
		qm := perturb(q, j, -h)
		row[j] = (phi(qp) - phi(qm)) / (2 * h)
	}

	d := phi(q)
	for j := 0; j < nq; j++ {
		d -= row[j] * q[j]
	}
	return row, d
}

// distanceJacobian is the configuration-space gradient alone, used by
// reset maps.
func (c *Constructor) distanceJacobian(phi contact.DistanceFunc, q []float64, h float64) []float64 {
	jac := make([]float64, len(q))
	for j := range q {
		qp := perturb(q, j, h)
		qm := perturb(q, j, -h)
		jac[j] = (phi(qp) - phi(qm)) / (2 * h)
	}
	return jac
}

func perturb(v []float64, j int, h float64) []float64 {
	out := append([]float64(nil), v...)
	out[j] += h
	return out
}
