// Package core defines the public data model of the compiler: the flat
// description records produced by the parser, the resolved kinematic tree,
// and the piecewise-affine hybrid model that is the final artifact.
// Everything here is plain data, JSON-serializable, and immutable once a
// compile pass has returned it.
package core

import "math"

// Vec3 is a fixed-size xyz triple.
type Vec3 [3]float64

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Transform is an origin offset: translation followed by a fixed-axis
// roll/pitch/yaw rotation, as written in a description's <origin> element.
type Transform struct {
	XYZ Vec3 `json:"xyz"`
	RPY Vec3 `json:"rpy"`
}

// JointType enumerates the closed set of supported joint kinds.
type JointType string

const (
	JointFixed      JointType = "fixed"
	JointRevolute   JointType = "revolute"
	JointContinuous JointType = "continuous"
	JointPrismatic  JointType = "prismatic"
	JointPlanar     JointType = "planar"
	JointFloating   JointType = "floating"
)

// DOF returns the number of generalized coordinates the joint kind
// contributes, and false if the kind is not a known joint type.
func (t JointType) DOF() (int, bool) {
	switch t {
	case JointFixed:
		return 0, true
	case JointRevolute, JointContinuous, JointPrismatic:
		return 1, true
	case JointPlanar:
		return 3, true
	case JointFloating:
		return 6, true
	default:
		return 0, false
	}
}

// GeometryKind enumerates collision/visual shape kinds.
type GeometryKind string

const (
	GeomSphere   GeometryKind = "sphere"
	GeomBox      GeometryKind = "box"
	GeomCylinder GeometryKind = "cylinder"
	GeomPlane    GeometryKind = "plane"
	GeomMesh     GeometryKind = "mesh"
)

// Geometry is one shape. Only the fields matching Kind are meaningful.
type Geometry struct {
	Kind     GeometryKind `json:"kind"`
	Radius   float64      `json:"radius,omitempty"`   // sphere, cylinder
	Length   float64      `json:"length,omitempty"`   // cylinder
	Size     Vec3         `json:"size,omitempty"`     // box: full extents
	Normal   Vec3         `json:"normal,omitempty"`   // plane: outward unit normal
	Filename string       `json:"filename,omitempty"` // mesh
}

// Material carries cosmetic color data for visuals.
type Material struct {
	Name string     `json:"name"`
	RGBA [4]float64 `json:"rgba"`
}

// Visual is cosmetic geometry attached to a link. The compiler carries it
// through untouched; nothing downstream of the parser reads it.
type Visual struct {
	Name     string    `json:"name,omitempty"`
	Origin   Transform `json:"origin"`
	Geometry Geometry  `json:"geometry"`
	Material *Material `json:"material,omitempty"`
}

// Collision is contact geometry attached to a link, expressed in the
// link frame via Origin.
type Collision struct {
	Name     string    `json:"name,omitempty"`
	Origin   Transform `json:"origin"`
	Geometry Geometry  `json:"geometry"`
}

// Inertial holds a link's mass properties: the center-of-mass frame and
// the symmetric rotational inertia tensor about it. An all-zero tensor is
// legal input (a point-mass approximation) and is surfaced downstream as
// a degenerate-inertia warning rather than rejected.
type Inertial struct {
	Origin Transform `json:"origin"`
	Mass   float64   `json:"mass"`
	IXX    float64   `json:"ixx"`
	IYY    float64   `json:"iyy"`
	IZZ    float64   `json:"izz"`
	IXY    float64   `json:"ixy"`
	IXZ    float64   `json:"ixz"`
	IYZ    float64   `json:"iyz"`
}

// Degenerate reports whether the rotational tensor is all zeros.
func (in *Inertial) Degenerate() bool {
	return in.IXX == 0 && in.IYY == 0 && in.IZZ == 0 &&
		in.IXY == 0 && in.IXZ == 0 && in.IYZ == 0
}

// Link is one rigid body of the description.
type Link struct {
	Name       string      `json:"name"`
	Inertial   *Inertial   `json:"inertial,omitempty"`
	Visuals    []Visual    `json:"visuals,omitempty"`
	Collisions []Collision `json:"collisions,omitempty"`
}

// JointDynamics holds scalar viscous damping and Coulomb friction
// coefficients applied on the joint's coordinate.
type JointDynamics struct {
	Damping  float64 `json:"damping"`
	Friction float64 `json:"friction"`
}

// JointLimit carries position/effort/velocity limits where the
// description provides them.
type JointLimit struct {
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Effort   float64 `json:"effort"`
	Velocity float64 `json:"velocity"`
}

// Joint connects a parent link to exactly one child link. Parent and
// Child are unresolved names at parse time; the tree builder resolves
// them to arena indices.
type Joint struct {
	Name     string         `json:"name"`
	Type     JointType      `json:"type"`
	Parent   string         `json:"parent"`
	Child    string         `json:"child"`
	Origin   Transform      `json:"origin"`
	Axis     Vec3           `json:"axis"`
	Dynamics *JointDynamics `json:"dynamics,omitempty"`
	Limit    *JointLimit    `json:"limit,omitempty"`
}

// Actuator is a motor referenced by a transmission.
type Actuator struct {
	Name string `json:"name"`
}

// Transmission maps actuator effort onto joint coordinates through a
// mechanical reduction. Joints without a transmission are passive.
type Transmission struct {
	Name                string     `json:"name"`
	Type                string     `json:"type,omitempty"`
	Joints              []string   `json:"joints"`
	Actuators           []Actuator `json:"actuators"`
	MechanicalReduction float64    `json:"mechanicalReduction"`
}

// Description is the parser's output: flat record lists with no
// cross-references resolved.
type Description struct {
	Name          string         `json:"name"`
	Links         []Link         `json:"links"`
	Joints        []Joint        `json:"joints"`
	Transmissions []Transmission `json:"transmissions,omitempty"`
}
