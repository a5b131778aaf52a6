// Package cad holds the 2D drawing entities that boundary resolution and
// the DXF feature operations consume. Readers for concrete file formats
// live in subpackages and produce a Drawing.
package cad

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/samber/lo"
)

// Type is the kind of a drawing entity.
type Type int

const (
	Line Type = iota + 1
	Arc
	Circle
	Point
)

var typeNames = map[Type]string{
	Line:   "LINE",
	Arc:    "ARC",
	Circle: "CIRCLE",
	Point:  "POINT",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType converts a DXF entity name (any case).
func ParseType(s string) (Type, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == s {
			return t, nil
		}
	}
	return 0, camerr.Param("dxfTypes", "unknown entity type %q, expected LINE, ARC, CIRCLE or POINT", s)
}

func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, camerr.Param("dxfTypes", "cannot encode %s", t)
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Entity is one drawing record. Lines use Start and End. Arcs, circles
// and points use Center; arcs and circles add Radius. Arc angles are in
// degrees and always run counter-clockwise from StartAngle to EndAngle.
type Entity struct {
	Type       Type
	Layer      string
	Start      geom.Vec
	End        geom.Vec
	Center     geom.Vec
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

// NewLine returns a LINE entity on layer.
func NewLine(layer string, x0, y0, x1, y1 float64) Entity {
	return Entity{Type: Line, Layer: layer, Start: geom.Pt(x0, y0), End: geom.Pt(x1, y1)}
}

// NewArc returns an ARC entity on layer with angles in degrees.
func NewArc(layer string, cx, cy, r, startDeg, endDeg float64) Entity {
	return Entity{Type: Arc, Layer: layer, Center: geom.Pt(cx, cy), Radius: r, StartAngle: startDeg, EndAngle: endDeg}
}

// NewCircle returns a CIRCLE entity on layer.
func NewCircle(layer string, cx, cy, r float64) Entity {
	return Entity{Type: Circle, Layer: layer, Center: geom.Pt(cx, cy), Radius: r}
}

// NewPoint returns a POINT entity on layer.
func NewPoint(layer string, x, y float64) Entity {
	return Entity{Type: Point, Layer: layer, Center: geom.Pt(x, y)}
}

// Radians returns the arc's start and end angle in radians with the end
// raised by a full turn when it lies below the start.
func (e Entity) Radians() (float64, float64) {
	a0 := e.StartAngle * math.Pi / 180
	a1 := e.EndAngle * math.Pi / 180
	if a1 < a0 {
		a1 += 2 * math.Pi
	}
	return a0, a1
}

// Segment converts a LINE, ARC or CIRCLE into geometry. A circle becomes
// a full counter-clockwise arc starting at angle 0. An arc whose angles
// coincide has no sweep and is a GeometryError.
func (e Entity) Segment() (geom.Segment, error) {
	switch e.Type {
	case Line:
		return geom.Line{Start: e.Start, End: e.End}, nil
	case Arc:
		a0, a1 := e.Radians()
		if a1 == a0 {
			return nil, camerr.Geometry("arc on layer %q at (%g, %g) has zero sweep", e.Layer, e.Center.X, e.Center.Y)
		}
		return geom.NewArc(e.Center, e.Radius, a0, a1, geom.CCW)
	case Circle:
		return geom.NewArc(e.Center, e.Radius, 0, 2*math.Pi, geom.CCW)
	}
	return nil, camerr.Geometry("%s entity has no segment form", e.Type)
}

// Drawing is the entity list of one file plus its layer names in file
// order.
type Drawing struct {
	Name     string
	Layers   []string
	Entities []Entity
}

// Select returns the entities on one of layers whose type is one of
// types. An empty layers list means every layer; an empty types list
// means every type.
func Select(entities []Entity, layers []string, types []Type) []Entity {
	return lo.Filter(entities, func(e Entity, _ int) bool {
		if len(layers) > 0 && !lo.Contains(layers, e.Layer) {
			return false
		}
		return len(types) == 0 || lo.Contains(types, e.Type)
	})
}

// Select filters the drawing's entities like the package-level Select.
func (d *Drawing) Select(layers []string, types []Type) []Entity {
	return Select(d.Entities, layers, types)
}

// CheckTypes fails when a requested type is outside allowed.
func CheckTypes(requested, allowed []Type) error {
	if bad, ok := lo.Find(requested, func(t Type) bool { return !lo.Contains(allowed, t) }); ok {
		names := lo.Map(allowed, func(t Type, _ int) string { return t.String() })
		return camerr.Param("dxfTypes", "%s not allowed here, expected one of %s", bad, strings.Join(names, ", "))
	}
	return nil
}
