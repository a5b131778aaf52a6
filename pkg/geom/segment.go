package geom

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
)

// Segment is a Line or an Arc. The set is closed: only this package
// defines segment types.
type Segment interface {
	StartPoint() Vec
	EndPoint() Vec
	Length() float64
	Reverse() Segment
	// Tessellate approximates the segment by lines no longer than
	// maxChordLen (measured along the curve). Consecutive lines share
	// endpoints exactly.
	Tessellate(maxChordLen float64) ([]Line, error)
	segment()
}

// Line is a straight segment.
type Line struct {
	Start Vec
	End   Vec
}

func (Line) segment() {}

func (l Line) StartPoint() Vec  { return l.Start }
func (l Line) EndPoint() Vec    { return l.End }
func (l Line) Length() float64  { return Dist(l.Start, l.End) }
func (l Line) Reverse() Segment { return Line{Start: l.End, End: l.Start} }

func (l Line) Tessellate(maxChordLen float64) ([]Line, error) {
	if maxChordLen <= 0 {
		return nil, camerr.Param("maxArcLen", "must be > 0, got %g", maxChordLen)
	}
	return []Line{l}, nil
}

// Arc is a circular arc traversed from StartAngle to EndAngle in
// direction Dir. Angles are in radians. For CCW arcs the end angle is
// taken a whole number of turns above the start (equal angles mean a full
// circle); CW arcs go the other way.
type Arc struct {
	Center     Vec
	Radius     float64
	StartAngle float64
	EndAngle   float64
	Dir        Direction
}

func (Arc) segment() {}

// NewArc builds an arc and rejects degenerate radii.
func NewArc(center Vec, radius, startAngle, endAngle float64, dir Direction) (Arc, error) {
	a := Arc{Center: center, Radius: radius, StartAngle: startAngle, EndAngle: endAngle, Dir: dir}
	if err := a.check(); err != nil {
		return Arc{}, err
	}
	return a, nil
}

func (a Arc) check() error {
	if math.IsNaN(a.Radius) || a.Radius < MinRadius {
		return camerr.Geometry("arc radius %g is degenerate", a.Radius)
	}
	if !a.Dir.Valid() {
		return camerr.Param("direction", "arc direction %s is not cw or ccw", a.Dir)
	}
	return nil
}

// Sweep returns the unsigned angle swept by the arc, in (0, 2π].
func (a Arc) Sweep() float64 {
	var s float64
	if a.Dir == CW {
		s = a.StartAngle - a.EndAngle
	} else {
		s = a.EndAngle - a.StartAngle
	}
	s = math.Mod(s, 2*math.Pi)
	if s <= 0 {
		s += 2 * math.Pi
	}
	return s
}

// PointAt returns the point on the arc's circle at angle theta.
func (a Arc) PointAt(theta float64) Vec {
	return Vec{
		X: a.Center.X + a.Radius*math.Cos(theta),
		Y: a.Center.Y + a.Radius*math.Sin(theta),
	}
}

func (a Arc) StartPoint() Vec { return a.PointAt(a.StartAngle) }
func (a Arc) EndPoint() Vec   { return a.PointAt(a.EndAngle) }
func (a Arc) Length() float64 { return a.Radius * a.Sweep() }

func (a Arc) Reverse() Segment {
	return Arc{
		Center:     a.Center,
		Radius:     a.Radius,
		StartAngle: a.EndAngle,
		EndAngle:   a.StartAngle,
		Dir:        a.Dir.Opposite(),
	}
}

// Tessellate splits the arc into N = ceil(sweep / (maxChordLen/radius))
// equal angular steps.
func (a Arc) Tessellate(maxChordLen float64) ([]Line, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	if maxChordLen <= 0 {
		return nil, camerr.Param("maxArcLen", "must be > 0, got %g", maxChordLen)
	}
	sweep := a.Sweep()
	n := int(math.Ceil(sweep / (maxChordLen / a.Radius)))
	if n < 1 {
		n = 1
	}
	step := sweep / float64(n)
	if a.Dir == CW {
		step = -step
	}

	lines := make([]Line, n)
	prev := a.StartPoint()
	for i := 0; i < n; i++ {
		var next Vec
		if i == n-1 {
			next = a.PointAt(a.StartAngle + step*float64(n))
		} else {
			next = a.PointAt(a.StartAngle + step*float64(i+1))
		}
		lines[i] = Line{Start: prev, End: next}
		prev = next
	}
	return lines, nil
}

// Polyline flattens a chain of segments into a point list. The first
// point of each segment after the first is dropped, so a chain whose
// segments meet end to start yields no duplicate points.
func Polyline(segs []Segment, maxChordLen float64) ([]Vec, error) {
	var pts []Vec
	for i, s := range segs {
		lines, err := s.Tessellate(maxChordLen)
		if err != nil {
			return nil, err
		}
		if i == 0 && len(lines) > 0 {
			pts = append(pts, lines[0].Start)
		}
		for _, l := range lines {
			pts = append(pts, l.End)
		}
	}
	return pts, nil
}
