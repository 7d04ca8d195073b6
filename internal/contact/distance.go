package contact

import (
	"math"

	"github.com/pwatools/urdfc/internal/dynamics"
	"github.com/pwatools/urdfc/pkg/core"
)

// boxDistance is the signed distance from a point to a box given the box
// pose in the world and its full extents. Negative inside the box.
func boxDistance(box dynamics.Pose, size core.Vec3, point core.Vec3) float64 {
	// Express the point in the box frame: R^T (p - c).
	d := point.Sub(box.P)
	var local core.Vec3
	for i := 0; i < 3; i++ {
		local[i] = box.R.At(0, i)*d[0] + box.R.At(1, i)*d[1] + box.R.At(2, i)*d[2]
	}

	var excess core.Vec3
	maxInside := math.Inf(-1)
	for i := 0; i < 3; i++ {
		di := math.Abs(local[i]) - size[i]/2
		if di > 0 {
			excess[i] = di
		}
		if di > maxInside {
			maxInside = di
		}
	}

	outside := excess.Norm()
	if outside > 0 {
		return outside
	}
	return maxInside
}

// planeDistance is the signed distance from a point to a half space
// bounded by a plane. The plane passes through the pose origin; its
// outward normal is given in the plane's local frame.
func planeDistance(plane dynamics.Pose, normal core.Vec3, point core.Vec3) float64 {
	n := rotated(plane, normal)
	nn := n.Norm()
	if nn == 0 {
		n = core.Vec3{0, 0, 1}
		nn = 1
	}
	d := point.Sub(plane.P)
	return (n[0]*d[0] + n[1]*d[1] + n[2]*d[2]) / nn
}

// boxPlaneDistance is the deepest corner's distance to the plane, so it
// goes negative as soon as any part of the box crosses.
func boxPlaneDistance(box dynamics.Pose, size core.Vec3, plane dynamics.Pose, normal core.Vec3) float64 {
	half := core.Vec3{size[0] / 2, size[1] / 2, size[2] / 2}
	min := math.Inf(1)
	for sx := -1.0; sx <= 1; sx += 2 {
		for sy := -1.0; sy <= 1; sy += 2 {
			for sz := -1.0; sz <= 1; sz += 2 {
				corner := box.ApplyPoint(core.Vec3{sx * half[0], sy * half[1], sz * half[2]})
				if d := planeDistance(plane, normal, corner); d < min {
					min = d
				}
			}
		}
	}
	return min
}

// rotated maps a local direction into the world frame.
func rotated(p dynamics.Pose, v core.Vec3) core.Vec3 {
	var out core.Vec3
	for i := 0; i < 3; i++ {
		out[i] = p.R.At(i, 0)*v[0] + p.R.At(i, 1)*v[1] + p.R.At(i, 2)*v[2]
	}
	return out
}
