package pwa

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/pwatools/urdfc/internal/contact"
	"github.com/pwatools/urdfc/pkg/core"
)

// buildReset assembles the impulsive velocity map applied on entry into
// a contacting mode. Positions pass through; velocities follow the
// Newton restitution model over the stacked active-pair Jacobian J:
//
//	qd+ = (I - (1+e) Minv Jt (J Minv Jt)^-1 J) qd-
func (c *Constructor) buildReset(phis []contact.DistanceFunc, mode core.ContactMode, ref core.Reference, opts Options) (*core.ResetMap, error) {
	nq := c.model.NQ()
	nx := 2 * nq
	k := len(mode.Active)

	q := ref.X[:nq]
	jac := mat.NewDense(k, nq, nil)
	for r, p := range mode.Active {
		jac.SetRow(r, c.distanceJacobian(phis[p], q, opts.FDStep))
	}

	massMat := c.model.MassMatrix(q)
	var chol mat.Cholesky
	if ok := chol.Factorize(massMat); !ok {
		return nil, fmt.Errorf("reset map at reference: %w", core.ErrSingularMassMatrix)
	}

	// Minv Jt, one triangular solve per contact row.
	minvJt := mat.NewDense(nq, k, nil)
	col := mat.NewVecDense(nq, nil)
	for r := 0; r < k; r++ {
		if err := chol.SolveVecTo(col, jac.RowView(r)); err != nil {
			return nil, fmt.Errorf("reset map at reference: %w", core.ErrSingularMassMatrix)
		}
		for i := 0; i < nq; i++ {
			minvJt.Set(i, r, col.AtVec(i))
		}
	}

	// Delassus operator J Minv Jt. Singular when the active contact
	// normals are linearly dependent in joint space.
	delassus := mat.NewDense(k, k, nil)
	delassus.Mul(jac, minvJt)

	impulse := mat.NewDense(k, nq, nil)
	if err := impulse.Solve(delassus, jac); err != nil {
		return nil, fmt.Errorf("degenerate contact geometry in mode %q: %w", mode.Name, err)
	}

	vmap := mat.NewDense(nq, nq, nil)
	vmap.Mul(minvJt, impulse)
	vmap.Scale(-(1 + opts.Restitution), vmap)
	for i := 0; i < nq; i++ {
		vmap.Set(i, i, vmap.At(i, i)+1)
	}

	r := core.NewMatrix(nx, nx)
	for i := 0; i < nq; i++ {
		r.Set(i, i, 1)
		for j := 0; j < nq; j++ {
			r.Set(nq+i, nq+j, vmap.At(i, j))
		}
	}

	return &core.ResetMap{R: r, D: make([]float64, nx)}, nil
}
