package host

import (
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// EntityID identifies an entity owned by the simulation host.
type EntityID string

// Vec3 is a point or direction in world or local space.
type Vec3 = mgl64.Vec3

// Point is the {x, y, z} mapping form of a Vec3 used in content files.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec3 returns p as a vector.
func (p Point) Vec3() Vec3 { return Vec3{p.X, p.Y, p.Z} }

// Pose is a position plus Euler rotation in degrees.
type Pose struct {
	Position Vec3
	Rotation Vec3
}

// Anchor is a named transform on a prop: a pose plus its local basis vectors
// expressed in world space.
type Anchor struct {
	Position Vec3
	Rotation Vec3
	Forward  Vec3
	Right    Vec3
	Up       Vec3
}

// UnmarshalYAML decodes an anchor whose vectors are {x, y, z} mappings.
// Omitted vectors are zero.
func (a *Anchor) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Position Point `yaml:"position"`
		Rotation Point `yaml:"rotation"`
		Forward  Point `yaml:"forward"`
		Right    Point `yaml:"right"`
		Up       Point `yaml:"up"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*a = Anchor{
		Position: raw.Position.Vec3(),
		Rotation: raw.Rotation.Vec3(),
		Forward:  raw.Forward.Vec3(),
		Right:    raw.Right.Vec3(),
		Up:       raw.Up.Vec3(),
	}
	return nil
}

// Pose returns the anchor's position and rotation.
func (a Anchor) Pose() Pose {
	return Pose{Position: a.Position, Rotation: a.Rotation}
}

// Frame converts world-space points into a component's local space.
type Frame interface {
	InverseTransformPoint(world Vec3) Vec3
}

// AxisFrame is a rigid frame defined by an origin and an orthonormal basis.
type AxisFrame struct {
	Origin  Vec3
	Right   Vec3
	Up      Vec3
	Forward Vec3
}

// UnmarshalYAML decodes a frame whose vectors are {x, y, z} mappings.
func (f *AxisFrame) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Origin  Point `yaml:"origin"`
		Right   Point `yaml:"right"`
		Up      Point `yaml:"up"`
		Forward Point `yaml:"forward"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*f = AxisFrame{
		Origin:  raw.Origin.Vec3(),
		Right:   raw.Right.Vec3(),
		Up:      raw.Up.Vec3(),
		Forward: raw.Forward.Vec3(),
	}
	return nil
}

// InverseTransformPoint projects world onto the frame's axes.
//
// Precondition: Right, Up, and Forward are orthonormal.
// Postcondition: the result's Z is the signed distance along Forward from Origin.
func (f AxisFrame) InverseTransformPoint(world Vec3) Vec3 {
	return mgl64.Mat3FromRows(f.Right, f.Up, f.Forward).Mul3x1(world.Sub(f.Origin))
}

// IdentityFrame returns an AxisFrame at the world origin aligned with world axes.
func IdentityFrame() AxisFrame {
	return AxisFrame{
		Right:   Vec3{1, 0, 0},
		Up:      Vec3{0, 1, 0},
		Forward: Vec3{0, 0, 1},
	}
}
