package core

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Rotation returns the 3x3 rotation matrix of the fixed-axis RPY
// convention: R = Rz(yaw) * Ry(pitch) * Rx(roll).
func (t Transform) Rotation() *mat.Dense {
	cr, sr := math.Cos(t.RPY[0]), math.Sin(t.RPY[0])
	cp, sp := math.Cos(t.RPY[1]), math.Sin(t.RPY[1])
	cy, sy := math.Cos(t.RPY[2]), math.Sin(t.RPY[2])

	return mat.NewDense(3, 3, []float64{
		cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr,
		sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr,
		-sp, cp * sr, cp * cr,
	})
}

// ApplyPoint maps a point through the transform: R*p + xyz.
func (t Transform) ApplyPoint(p Vec3) Vec3 {
	r := t.Rotation()
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = r.At(i, 0)*p[0] + r.At(i, 1)*p[1] + r.At(i, 2)*p[2] + t.XYZ[i]
	}
	return out
}

// IsIdentity reports whether the transform is exactly the identity.
func (t Transform) IsIdentity() bool {
	return t.XYZ == Vec3{} && t.RPY == Vec3{}
}
