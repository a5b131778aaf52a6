// Package geom provides the 2D primitives used by path generation and
// boundary resolution: points, line and arc segments, arc tessellation,
// and the orientation predicates behind self-intersection and winding
// tests.
//
// Points are sdfx vectors so callers can mix kerf geometry with the rest
// of the sdfx toolkit without conversion.
package geom

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/camerr"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Vec is a 2D point or vector.
type Vec = v2.Vec

// DefaultTol is the default point-equivalence tolerance.
const DefaultTol = 1.0e-5

// MinRadius is the smallest arc radius that is not treated as degenerate.
const MinRadius = 1.0e-8

// Pt is shorthand for Vec{X: x, Y: y}.
func Pt(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

// Dist returns the euclidean distance between p and q.
func Dist(p, q Vec) float64 {
	return q.Sub(p).Length()
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Vec) Vec {
	return p.Add(q).MulScalar(0.5)
}

// Equiv reports whether p and q are closer than tol.
func Equiv(p, q Vec, tol float64) bool {
	return Dist(p, q) < tol
}

// Cross returns the z component of the cross product v x w.
func Cross(v, w Vec) float64 {
	return v.X*w.Y - w.X*v.Y
}

// Unit returns v scaled to unit length. The zero vector is returned unchanged.
func Unit(v Vec) Vec {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.MulScalar(1 / l)
}

// Direction is the traversal sense of a closed path or arc.
type Direction int

const (
	CW Direction = iota + 1
	CCW
)

func (d Direction) String() string {
	switch d {
	case CW:
		return "cw"
	case CCW:
		return "ccw"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valid reports whether d is CW or CCW.
func (d Direction) Valid() bool {
	return d == CW || d == CCW
}

// Opposite returns the reversed direction.
func (d Direction) Opposite() Direction {
	switch d {
	case CW:
		return CCW
	case CCW:
		return CW
	}
	return d
}

// ParseDirection converts "cw" or "ccw" (any case) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cw":
		return CW, nil
	case "ccw":
		return CCW, nil
	}
	return 0, camerr.Param("direction", "unknown direction %q, expected cw or ccw", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, camerr.Param("direction", "cannot encode %s", d)
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DirFromPoints returns the turn direction of the path p0 -> p1 -> p2.
// Collinear points report CW.
func DirFromPoints(p0, p1, p2 Vec) Direction {
	if Cross(p1.Sub(p0), p2.Sub(p0)) > 0 {
		return CCW
	}
	return CW
}
