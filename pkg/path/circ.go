package path

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
)

// CircOptions are the optional parameters of circular paths. A zero Dir
// means CW.
type CircOptions struct {
	Plane motion.Plane
	Dir   geom.Direction
	Helix *Helix
}

// CircArc is a circular arc from StartDeg to EndDeg (degrees, EndDeg >
// StartDeg, possibly several turns apart). CW arcs measure angles
// clockwise. The path is a linear move to the start point followed by a
// single helical command.
type CircArc struct {
	Center   geom.Vec
	Radius   float64
	StartDeg float64
	EndDeg   float64
	CircOptions

	cmds []motion.Command
}

func (*CircArc) path() {}

// NewCircArc builds the arc.
func NewCircArc(center geom.Vec, radius, startDeg, endDeg float64, opts CircOptions) (*CircArc, error) {
	if math.IsNaN(radius) || radius < geom.MinRadius {
		return nil, camerr.Geometry("arc radius %g is degenerate", radius)
	}
	if !(startDeg < endDeg) {
		return nil, camerr.Geometry("arc end angle %g must exceed start angle %g", endDeg, startDeg)
	}
	if opts.Dir == 0 {
		opts.Dir = geom.CW
	}
	if !opts.Dir.Valid() {
		return nil, camerr.Param("direction", "unknown direction %s", opts.Dir)
	}
	a := &CircArc{Center: center, Radius: radius, StartDeg: startDeg, EndDeg: endDeg, CircOptions: opts}
	a.build()
	return a, nil
}

func (a *CircArc) angles() (float64, float64) {
	a0 := a.StartDeg * math.Pi / 180
	a1 := a.EndDeg * math.Pi / 180
	if a.Dir == geom.CW {
		return -a0, -a1
	}
	return a0, a1
}

func (a *CircArc) pointAt(theta float64) geom.Vec {
	return geom.Pt(a.Center.X+a.Radius*math.Cos(theta), a.Center.Y+a.Radius*math.Sin(theta))
}

// StartPoint returns the in-plane start of the arc.
func (a *CircArc) StartPoint() geom.Vec {
	a0, _ := a.angles()
	return a.pointAt(a0)
}

// EndPoint returns the in-plane end of the arc.
func (a *CircArc) EndPoint() geom.Vec {
	_, a1 := a.angles()
	return a.pointAt(a1)
}

// Turns returns the revolution count passed to the helical command: the
// number of times the arc crosses its start angle, at least 1.
func (a *CircArc) Turns() int {
	n := int(math.Ceil((a.EndDeg-a.StartDeg)/360 - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// Length returns the in-plane distance travelled along the arc.
func (a *CircArc) Length() float64 {
	return a.Radius * (a.EndDeg - a.StartDeg) * math.Pi / 180
}

func (a *CircArc) build() {
	p0 := a.StartPoint()
	p1 := a.EndPoint()
	var z0, z1 *float64
	if a.Helix != nil {
		z0, z1 = &a.Helix.Start, &a.Helix.End
	}
	target := a.Plane.Point(p1.X, p1.Y)
	if z1 != nil {
		target = target.With(a.Plane.Normal(), *z1)
	}
	turns := a.Turns()
	if turns == 1 {
		turns = 0
	}
	a.cmds = []motion.Command{
		feedTo(a.Plane, p0, z0),
		motion.Helical{
			Target: target,
			Offset: [2]float64{a.Center.X - p0.X, a.Center.Y - p0.Y},
			Dir:    a.Dir,
			Plane:  a.Plane,
			Turns:  turns,
		},
	}
}

func (a *CircArc) Commands() []motion.Command { return a.cmds }
func (a *CircArc) Points() []geom.Vec         { return []geom.Vec{a.StartPoint(), a.EndPoint()} }

// NewCirc builds a full circle of the given number of turns starting at
// startDeg.
func NewCirc(center geom.Vec, radius, startDeg float64, turns int, opts CircOptions) (*CircArc, error) {
	if turns < 1 {
		return nil, camerr.Param("turns", "must be >= 1, got %d", turns)
	}
	return NewCircArc(center, radius, startDeg, startDeg+360*float64(turns), opts)
}
