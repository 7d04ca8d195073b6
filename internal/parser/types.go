package parser

import "encoding/xml"

// Raw markup element structs. All numeric content stays string-typed
// here; conversion with strict float semantics happens in parser.go so
// every failure can name its element and attribute.

type xmlRobot struct {
	XMLName       xml.Name          `xml:"robot"`
	Name          string            `xml:"name,attr"`
	Links         []xmlLink         `xml:"link"`
	Joints        []xmlJoint        `xml:"joint"`
	Transmissions []xmlTransmission `xml:"transmission"`
}

type xmlOrigin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type xmlMass struct {
	Value string `xml:"value,attr"`
}

type xmlInertia struct {
	IXX string `xml:"ixx,attr"`
	IYY string `xml:"iyy,attr"`
	IZZ string `xml:"izz,attr"`
	IXY string `xml:"ixy,attr"`
	IXZ string `xml:"ixz,attr"`
	IYZ string `xml:"iyz,attr"`
}

type xmlInertial struct {
	Origin  *xmlOrigin  `xml:"origin"`
	Mass    *xmlMass    `xml:"mass"`
	Inertia *xmlInertia `xml:"inertia"`
}

type xmlSphere struct {
	Radius string `xml:"radius,attr"`
}

type xmlBox struct {
	Size string `xml:"size,attr"`
}

type xmlCylinder struct {
	Radius string `xml:"radius,attr"`
	Length string `xml:"length,attr"`
}

type xmlPlane struct {
	Normal string `xml:"normal,attr"`
}

type xmlMesh struct {
	Filename string `xml:"filename,attr"`
}

type xmlGeometry struct {
	Sphere   *xmlSphere   `xml:"sphere"`
	Box      *xmlBox      `xml:"box"`
	Cylinder *xmlCylinder `xml:"cylinder"`
	Plane    *xmlPlane    `xml:"plane"`
	Mesh     *xmlMesh     `xml:"mesh"`
}

type xmlColor struct {
	RGBA string `xml:"rgba,attr"`
}

type xmlMaterial struct {
	Name  string    `xml:"name,attr"`
	Color *xmlColor `xml:"color"`
}

type xmlVisual struct {
	Name     string       `xml:"name,attr"`
	Origin   *xmlOrigin   `xml:"origin"`
	Geometry *xmlGeometry `xml:"geometry"`
	Material *xmlMaterial `xml:"material"`
}

type xmlCollision struct {
	Name     string       `xml:"name,attr"`
	Origin   *xmlOrigin   `xml:"origin"`
	Geometry *xmlGeometry `xml:"geometry"`
}

type xmlLink struct {
	Name       string         `xml:"name,attr"`
	Inertial   *xmlInertial   `xml:"inertial"`
	Visuals    []xmlVisual    `xml:"visual"`
	Collisions []xmlCollision `xml:"collision"`
}

type xmlLinkRef struct {
	Link string `xml:"link,attr"`
}

type xmlAxis struct {
	XYZ string `xml:"xyz,attr"`
}

type xmlJointDynamics struct {
	Damping  string `xml:"damping,attr"`
	Friction string `xml:"friction,attr"`
}

type xmlJointLimit struct {
	Lower    string `xml:"lower,attr"`
	Upper    string `xml:"upper,attr"`
	Effort   string `xml:"effort,attr"`
	Velocity string `xml:"velocity,attr"`
}

type xmlJoint struct {
	Name     string            `xml:"name,attr"`
	Type     string            `xml:"type,attr"`
	Parent   *xmlLinkRef       `xml:"parent"`
	Child    *xmlLinkRef       `xml:"child"`
	Origin   *xmlOrigin        `xml:"origin"`
	Axis     *xmlAxis          `xml:"axis"`
	Dynamics *xmlJointDynamics `xml:"dynamics"`
	Limit    *xmlJointLimit    `xml:"limit"`
}

type xmlActuatorRef struct {
	Name                string `xml:"name,attr"`
	MechanicalReduction string `xml:"mechanicalReduction"`
}

type xmlJointRef struct {
	Name string `xml:"name,attr"`
}

type xmlTransmission struct {
	Name                string           `xml:"name,attr"`
	Type                string           `xml:"type"`
	Joints              []xmlJointRef    `xml:"joint"`
	Actuators           []xmlActuatorRef `xml:"actuator"`
	MechanicalReduction string           `xml:"mechanicalReduction"`
}
