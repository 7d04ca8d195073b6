package pwa

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/pwatools/urdfc/pkg/core"
)

// SliceBounds is the axis-aligned window a guard slice is clipped to.
type SliceBounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// GuardSlice cuts a two dimensional section through a mode's guard
// polyhedron. The state coordinates dims[0] and dims[1] span the slice
// plane; every other coordinate is pinned to its value in fixed. The
// result is the guard region intersected with the bounding window, as a
// polygon suitable for WKT export and plotting.
//
// An empty polygon means the mode is infeasible on the chosen plane.
func GuardSlice(guard core.GuardPolyhedron, dims [2]int, fixed []float64, bounds SliceBounds) (geom.Polygon, error) {
	if dims[0] == dims[1] {
		return geom.Polygon{}, fmt.Errorf("slice dimensions must differ, got %d twice", dims[0])
	}
	nx := guard.G.Cols
	if dims[0] < 0 || dims[0] >= nx || dims[1] < 0 || dims[1] >= nx {
		return geom.Polygon{}, fmt.Errorf("slice dimensions %v out of range for %d states", dims, nx)
	}
	if len(fixed) != nx {
		return geom.Polygon{}, fmt.Errorf("fixed point has %d entries, want %d", len(fixed), nx)
	}

	// Start from the window and clip by each half plane, substituting
	// the pinned coordinates into the right hand side.
	poly := [][2]float64{
		{bounds.MinX, bounds.MinY},
		{bounds.MaxX, bounds.MinY},
		{bounds.MaxX, bounds.MaxY},
		{bounds.MinX, bounds.MaxY},
	}
	for r := 0; r < guard.G.Rows; r++ {
		gx := guard.G.At(r, dims[0])
		gy := guard.G.At(r, dims[1])
		rhs := guard.H[r]
		for j := 0; j < nx; j++ {
			if j != dims[0] && j != dims[1] {
				rhs -= guard.G.At(r, j) * fixed[j]
			}
		}
		poly = clipHalfPlane(poly, gx, gy, rhs)
		if len(poly) == 0 {
			return geom.Polygon{}, nil
		}
	}
	if len(poly) < 3 {
		return geom.Polygon{}, nil
	}

	// Closed CCW ring.
	if signedArea(poly) < 0 {
		for i, j := 0, len(poly)-1; i < j; i, j = i+1, j-1 {
			poly[i], poly[j] = poly[j], poly[i]
		}
	}
	flat := make([]float64, 0, (len(poly)+1)*2)
	for _, v := range poly {
		flat = append(flat, v[0], v[1])
	}
	flat = append(flat, poly[0][0], poly[0][1])

	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("guard slice ring: %w", err)
	}
	out, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("guard slice polygon: %w", err)
	}
	return out, nil
}

// clipHalfPlane keeps the part of a convex polygon satisfying
// a*x + b*y <= rhs (Sutherland-Hodgman against a single edge).
func clipHalfPlane(poly [][2]float64, a, b, rhs float64) [][2]float64 {
	if len(poly) == 0 {
		return nil
	}
	var out [][2]float64
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		next := poly[(i+1)%n]
		curIn := a*cur[0]+b*cur[1] <= rhs
		nextIn := a*next[0]+b*next[1] <= rhs
		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			if p, ok := edgeCross(cur, next, a, b, rhs); ok {
				out = append(out, p)
			}
		}
	}
	return dedupe(out)
}

func edgeCross(p, q [2]float64, a, b, rhs float64) ([2]float64, bool) {
	fp := a*p[0] + b*p[1] - rhs
	fq := a*q[0] + b*q[1] - rhs
	den := fp - fq
	if den == 0 {
		return [2]float64{}, false
	}
	t := fp / den
	return [2]float64{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])}, true
}

func dedupe(poly [][2]float64) [][2]float64 {
	var out [][2]float64
	for _, v := range poly {
		if len(out) > 0 {
			last := out[len(out)-1]
			if math.Abs(v[0]-last[0]) < 1e-12 && math.Abs(v[1]-last[1]) < 1e-12 {
				continue
			}
		}
		out = append(out, v)
	}
	if len(out) > 1 {
		first, last := out[0], out[len(out)-1]
		if math.Abs(first[0]-last[0]) < 1e-12 && math.Abs(first[1]-last[1]) < 1e-12 {
			out = out[:len(out)-1]
		}
	}
	return out
}

func signedArea(poly [][2]float64) float64 {
	var s float64
	n := len(poly)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s += poly[i][0]*poly[j][1] - poly[j][0]*poly[i][1]
	}
	return s / 2
}
