// Package parser turns a robot description document into flat record
// lists. It is a pure transform: no cross-reference resolution, no
// semantic validation; a joint may reference a link name the parser has
// never seen. Everything structural is the tree builder's job.
package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pwatools/urdfc/pkg/core"
)

// Parser converts raw markup into core.Description records. It carries
// only a logger.
type Parser struct {
	logger *slog.Logger
}

// New creates a parser with only a logger dependency.
func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse decodes a description document. Malformed markup, a missing
// required attribute, or non-numeric numeric content fail with a
// ParseError; no partial record set is returned.
func (p *Parser) Parse(doc []byte) (*core.Description, error) {
	var raw xmlRobot
	if err := xml.Unmarshal(doc, &raw); err != nil {
		return nil, &core.ParseError{Element: "robot", Err: err}
	}

	desc := &core.Description{Name: raw.Name}

	for i := range raw.Links {
		link, err := p.convertLink(&raw.Links[i])
		if err != nil {
			return nil, err
		}
		desc.Links = append(desc.Links, link)
	}

	for i := range raw.Joints {
		joint, err := p.convertJoint(&raw.Joints[i])
		if err != nil {
			return nil, err
		}
		desc.Joints = append(desc.Joints, joint)
	}

	for i := range raw.Transmissions {
		tr, err := p.convertTransmission(&raw.Transmissions[i])
		if err != nil {
			return nil, err
		}
		desc.Transmissions = append(desc.Transmissions, tr)
	}

	p.logger.Debug("parsed description",
		"name", desc.Name,
		"links", len(desc.Links),
		"joints", len(desc.Joints),
		"transmissions", len(desc.Transmissions))

	return desc, nil
}

func (p *Parser) convertOrigin(element string, o *xmlOrigin) (core.Transform, error) {
	var t core.Transform
	if o == nil {
		return t, nil
	}
	var err error
	if t.XYZ, err = parseTripleDefault(element, "xyz", o.XYZ, core.Vec3{}); err != nil {
		return t, err
	}
	if t.RPY, err = parseTripleDefault(element, "rpy", o.RPY, core.Vec3{}); err != nil {
		return t, err
	}
	return t, nil
}

func (p *Parser) convertGeometry(element string, g *xmlGeometry) (core.Geometry, error) {
	switch {
	case g == nil:
		return core.Geometry{}, &core.ParseError{Element: element, Err: errors.New("missing <geometry>")}
	case g.Sphere != nil:
		r, err := parseScalar("sphere", "radius", g.Sphere.Radius)
		if err != nil {
			return core.Geometry{}, err
		}
		return core.Geometry{Kind: core.GeomSphere, Radius: r}, nil
	case g.Box != nil:
		size, err := parseTriple("box", "size", g.Box.Size)
		if err != nil {
			return core.Geometry{}, err
		}
		return core.Geometry{Kind: core.GeomBox, Size: size}, nil
	case g.Cylinder != nil:
		r, err := parseScalar("cylinder", "radius", g.Cylinder.Radius)
		if err != nil {
			return core.Geometry{}, err
		}
		l, err := parseScalar("cylinder", "length", g.Cylinder.Length)
		if err != nil {
			return core.Geometry{}, err
		}
		return core.Geometry{Kind: core.GeomCylinder, Radius: r, Length: l}, nil
	case g.Plane != nil:
		n, err := parseTripleDefault("plane", "normal", g.Plane.Normal, core.Vec3{0, 0, 1})
		if err != nil {
			return core.Geometry{}, err
		}
		return core.Geometry{Kind: core.GeomPlane, Normal: n}, nil
	case g.Mesh != nil:
		return core.Geometry{Kind: core.GeomMesh, Filename: g.Mesh.Filename}, nil
	default:
		return core.Geometry{}, &core.ParseError{Element: element, Err: errors.New("empty <geometry>: expected sphere, box, cylinder, plane or mesh")}
	}
}

func (p *Parser) convertLink(raw *xmlLink) (core.Link, error) {
	var link core.Link
	if raw.Name == "" {
		return link, &core.ParseError{Element: "link", Attr: "name", Err: errors.New("missing")}
	}
	link.Name = raw.Name

	if raw.Inertial != nil {
		in, err := p.convertInertial(raw.Name, raw.Inertial)
		if err != nil {
			return link, err
		}
		link.Inertial = in
	}

	for i := range raw.Visuals {
		v, err := p.convertVisual(&raw.Visuals[i])
		if err != nil {
			return link, err
		}
		link.Visuals = append(link.Visuals, v)
	}

	for i := range raw.Collisions {
		c, err := p.convertCollision(&raw.Collisions[i])
		if err != nil {
			return link, err
		}
		link.Collisions = append(link.Collisions, c)
	}

	return link, nil
}

func (p *Parser) convertInertial(linkName string, raw *xmlInertial) (*core.Inertial, error) {
	in := &core.Inertial{}
	var err error

	if in.Origin, err = p.convertOrigin("inertial", raw.Origin); err != nil {
		return nil, err
	}
	if raw.Mass == nil {
		return nil, &core.ParseError{Element: "inertial", Err: fmt.Errorf("link %q: missing <mass>", linkName)}
	}
	if in.Mass, err = parseScalar("mass", "value", raw.Mass.Value); err != nil {
		return nil, err
	}
	if raw.Inertia == nil {
		return nil, &core.ParseError{Element: "inertial", Err: fmt.Errorf("link %q: missing <inertia>", linkName)}
	}
	for _, f := range []struct {
		attr string
		dst  *float64
		src  string
	}{
		{"ixx", &in.IXX, raw.Inertia.IXX},
		{"iyy", &in.IYY, raw.Inertia.IYY},
		{"izz", &in.IZZ, raw.Inertia.IZZ},
		{"ixy", &in.IXY, raw.Inertia.IXY},
		{"ixz", &in.IXZ, raw.Inertia.IXZ},
		{"iyz", &in.IYZ, raw.Inertia.IYZ},
	} {
		if *f.dst, err = parseScalarDefault("inertia", f.attr, f.src, 0); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (p *Parser) convertVisual(raw *xmlVisual) (core.Visual, error) {
	var v core.Visual
	v.Name = raw.Name
	var err error
	if v.Origin, err = p.convertOrigin("visual", raw.Origin); err != nil {
		return v, err
	}
	if v.Geometry, err = p.convertGeometry("visual", raw.Geometry); err != nil {
		return v, err
	}
	if raw.Material != nil {
		m := &core.Material{Name: raw.Material.Name}
		if raw.Material.Color != nil {
			if m.RGBA, err = parseRGBA("color", "rgba", raw.Material.Color.RGBA); err != nil {
				return v, err
			}
		}
		v.Material = m
	}
	return v, nil
}

func (p *Parser) convertCollision(raw *xmlCollision) (core.Collision, error) {
	var c core.Collision
	c.Name = raw.Name
	var err error
	if c.Origin, err = p.convertOrigin("collision", raw.Origin); err != nil {
		return c, err
	}
	if c.Geometry, err = p.convertGeometry("collision", raw.Geometry); err != nil {
		return c, err
	}
	return c, nil
}

func (p *Parser) convertJoint(raw *xmlJoint) (core.Joint, error) {
	var j core.Joint
	if raw.Name == "" {
		return j, &core.ParseError{Element: "joint", Attr: "name", Err: errors.New("missing")}
	}
	j.Name = raw.Name
	if raw.Type == "" {
		return j, &core.ParseError{Element: "joint", Attr: "type", Err: fmt.Errorf("joint %q: missing", raw.Name)}
	}
	j.Type = core.JointType(raw.Type)

	if raw.Parent == nil || raw.Parent.Link == "" {
		return j, &core.ParseError{Element: "joint", Attr: "parent", Err: fmt.Errorf("joint %q: missing", raw.Name)}
	}
	j.Parent = raw.Parent.Link
	if raw.Child == nil || raw.Child.Link == "" {
		return j, &core.ParseError{Element: "joint", Attr: "child", Err: fmt.Errorf("joint %q: missing", raw.Name)}
	}
	j.Child = raw.Child.Link

	var err error
	if j.Origin, err = p.convertOrigin("joint", raw.Origin); err != nil {
		return j, err
	}

	// Default motion axis is +x, the URDF convention.
	j.Axis = core.Vec3{1, 0, 0}
	if raw.Axis != nil {
		if j.Axis, err = parseTriple("axis", "xyz", raw.Axis.XYZ); err != nil {
			return j, err
		}
	}

	if raw.Dynamics != nil {
		d := &core.JointDynamics{}
		if d.Damping, err = parseScalarDefault("dynamics", "damping", raw.Dynamics.Damping, 0); err != nil {
			return j, err
		}
		if d.Friction, err = parseScalarDefault("dynamics", "friction", raw.Dynamics.Friction, 0); err != nil {
			return j, err
		}
		j.Dynamics = d
	}

	if raw.Limit != nil {
		l := &core.JointLimit{}
		if l.Lower, err = parseScalarDefault("limit", "lower", raw.Limit.Lower, 0); err != nil {
			return j, err
		}
		if l.Upper, err = parseScalarDefault("limit", "upper", raw.Limit.Upper, 0); err != nil {
			return j, err
		}
		if l.Effort, err = parseScalarDefault("limit", "effort", raw.Limit.Effort, 0); err != nil {
			return j, err
		}
		if l.Velocity, err = parseScalarDefault("limit", "velocity", raw.Limit.Velocity, 0); err != nil {
			return j, err
		}
		j.Limit = l
	}

	return j, nil
}

func (p *Parser) convertTransmission(raw *xmlTransmission) (core.Transmission, error) {
	var tr core.Transmission
	if raw.Name == "" {
		return tr, &core.ParseError{Element: "transmission", Attr: "name", Err: errors.New("missing")}
	}
	tr.Name = raw.Name
	tr.Type = raw.Type

	if len(raw.Joints) == 0 {
		return tr, &core.ParseError{Element: "transmission", Err: fmt.Errorf("transmission %q: missing <joint>", raw.Name)}
	}
	for _, j := range raw.Joints {
		if j.Name == "" {
			return tr, &core.ParseError{Element: "transmission", Attr: "joint", Err: fmt.Errorf("transmission %q: joint missing name", raw.Name)}
		}
		tr.Joints = append(tr.Joints, j.Name)
	}

	if len(raw.Actuators) == 0 {
		return tr, &core.ParseError{Element: "transmission", Err: fmt.Errorf("transmission %q: missing <actuator>", raw.Name)}
	}

	// The reduction may sit on the actuator (newer layouts) or directly
	// on the transmission. Actuator-level wins; absent both, 1.0.
	tr.MechanicalReduction = 1.0
	var err error
	if raw.MechanicalReduction != "" {
		if tr.MechanicalReduction, err = parseScalar("transmission", "mechanicalReduction", raw.MechanicalReduction); err != nil {
			return tr, err
		}
	}
	for _, a := range raw.Actuators {
		if a.Name == "" {
			return tr, &core.ParseError{Element: "actuator", Attr: "name", Err: fmt.Errorf("transmission %q: actuator missing name", raw.Name)}
		}
		tr.Actuators = append(tr.Actuators, core.Actuator{Name: a.Name})
		if a.MechanicalReduction != "" {
			if tr.MechanicalReduction, err = parseScalar("actuator", "mechanicalReduction", a.MechanicalReduction); err != nil {
				return tr, err
			}
		}
	}

	return tr, nil
}
