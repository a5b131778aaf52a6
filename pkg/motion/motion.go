// Package motion defines the abstract machine-motion commands produced by
// path generators and routines. Commands are plain values; a Program is
// the ordered list handed to an emitter.
package motion

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
)

// Axis is a linear machine axis.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

var axisNames = [...]string{"X", "Y", "Z"}

func (a Axis) String() string {
	if a >= X && a <= Z {
		return axisNames[a]
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis converts "x", "y" or "z" (any case) to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return X, nil
	case "y":
		return Y, nil
	case "z":
		return Z, nil
	}
	return 0, camerr.Param("axis", "unknown axis %q, expected x, y or z", s)
}

func (a Axis) MarshalText() ([]byte, error) {
	if a < X || a > Z {
		return nil, camerr.Param("axis", "cannot encode %s", a)
	}
	return []byte(strings.ToLower(a.String())), nil
}

func (a *Axis) UnmarshalText(text []byte) error {
	v, err := ParseAxis(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Axes is a partial assignment of axis values. Unset axes keep their
// current machine position when the command runs.
type Axes struct {
	vals [3]float64
	set  [3]bool
}

// XY returns Axes with X and Y set.
func XY(x, y float64) Axes {
	return Axes{}.With(X, x).With(Y, y)
}

// XYZ returns Axes with all three axes set.
func XYZ(x, y, z float64) Axes {
	return XY(x, y).With(Z, z)
}

// ZOnly returns Axes with only Z set.
func ZOnly(z float64) Axes {
	return Axes{}.With(Z, z)
}

// With returns a copy of a with axis set to v.
func (a Axes) With(axis Axis, v float64) Axes {
	a.vals[axis] = v
	a.set[axis] = true
	return a
}

// Get returns the value of axis and whether it is set.
func (a Axes) Get(axis Axis) (float64, bool) {
	return a.vals[axis], a.set[axis]
}

// Has reports whether axis is set.
func (a Axes) Has(axis Axis) bool {
	return a.set[axis]
}

// Empty reports whether no axis is set.
func (a Axes) Empty() bool {
	return !a.set[X] && !a.set[Y] && !a.set[Z]
}

// Merge returns a with every axis set in b overwritten.
func (a Axes) Merge(b Axes) Axes {
	for i := X; i <= Z; i++ {
		if b.set[i] {
			a = a.With(i, b.vals[i])
		}
	}
	return a
}

func (a Axes) String() string {
	var parts []string
	for i := X; i <= Z; i++ {
		if a.set[i] {
			parts = append(parts, fmt.Sprintf("%s%g", i, a.vals[i]))
		}
	}
	return strings.Join(parts, " ")
}

// Plane selects the two in-plane axes of a path and the normal (depth) axis.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "xy"
	case PlaneXZ:
		return "xz"
	case PlaneYZ:
		return "yz"
	default:
		return fmt.Sprintf("Plane(%d)", int(p))
	}
}

// ParsePlane converts "xy", "xz" or "yz" (any case) to a Plane.
func ParsePlane(s string) (Plane, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xy", "":
		return PlaneXY, nil
	case "xz":
		return PlaneXZ, nil
	case "yz":
		return PlaneYZ, nil
	}
	return 0, camerr.Param("plane", "unknown plane %q, expected xy, xz or yz", s)
}

func (p Plane) MarshalText() ([]byte, error) {
	if p < PlaneXY || p > PlaneYZ {
		return nil, camerr.Param("plane", "cannot encode %s", p)
	}
	return []byte(p.String()), nil
}

func (p *Plane) UnmarshalText(text []byte) error {
	v, err := ParsePlane(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// InPlane returns the two axes spanning the plane, in (u, v) order.
func (p Plane) InPlane() (Axis, Axis) {
	switch p {
	case PlaneXZ:
		return X, Z
	case PlaneYZ:
		return Y, Z
	default:
		return X, Y
	}
}

// Normal returns the axis perpendicular to the plane.
func (p Plane) Normal() Axis {
	switch p {
	case PlaneXZ:
		return Y
	case PlaneYZ:
		return X
	default:
		return Z
	}
}

// OffsetLetters returns the arc-center offset words for the plane.
func (p Plane) OffsetLetters() (string, string) {
	switch p {
	case PlaneXZ:
		return "I", "K"
	case PlaneYZ:
		return "J", "K"
	default:
		return "I", "J"
	}
}

// Point returns Axes with the plane's two in-plane axes set to (u, v).
func (p Plane) Point(u, v float64) Axes {
	a0, a1 := p.InPlane()
	return Axes{}.With(a0, u).With(a1, v)
}

// Point3 is Point with the normal axis set to w.
func (p Plane) Point3(u, v, w float64) Axes {
	return p.Point(u, v).With(p.Normal(), w)
}

// Side is the physical side of the programmed path the tool is offset to.
type Side int

const (
	Left Side = iota + 1
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// ParseSide converts "left" or "right" (any case) to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, camerr.Param("side", "unknown side %q, expected left or right", s)
}

func (s Side) MarshalText() ([]byte, error) {
	if s != Left && s != Right {
		return nil, camerr.Param("side", "cannot encode %s", s)
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Direction re-exports the geometric traversal sense used by arcs.
type Direction = geom.Direction
