package path

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
)

// Ring is one rectangle of a filled rectangle.
type Ring struct {
	P0, P1 geom.Vec
}

// HalfExtent returns the half-width and half-height of the ring.
func (r Ring) HalfExtent() (float64, float64) {
	return 0.5 * math.Abs(r.P1.X-r.P0.X), 0.5 * math.Abs(r.P1.Y-r.P0.Y)
}

// FilledRect is a spiral of concentric rectangles, each shrunk by Step on
// every side, for at most Number rings. When a ring would invert along
// one axis the spiral ends with a rectangle collapsed onto that axis'
// midline.
type FilledRect struct {
	P0, P1 geom.Vec
	Step   float64
	Number int
	Radius float64
	Plane  motion.Plane

	rings []Ring
	cmds  []motion.Command
	pts   []geom.Vec
}

func (*FilledRect) path() {}

// CheckRectStep fails unless 0 < step < both half-dimensions of the
// rectangle p0-p1.
func CheckRectStep(p0, p1 geom.Vec, step float64) error {
	if step <= 0 {
		return camerr.Param("step", "must be > 0, got %g", step)
	}
	hx := 0.5 * math.Abs(p1.X-p0.X)
	hy := 0.5 * math.Abs(p1.Y-p0.Y)
	if step >= hx || step >= hy {
		return camerr.Param("step", "step %g must be less than both half-dimensions (%g, %g)", step, hx, hy)
	}
	return nil
}

// NewFilledRect builds a filled rectangle. A positive radius rounds the
// outer ring; inner rings scale it by how much they have shrunk.
func NewFilledRect(p0, p1 geom.Vec, step float64, number int, radius float64, plane motion.Plane) (*FilledRect, error) {
	if err := CheckRectStep(p0, p1, step); err != nil {
		return nil, err
	}
	if number < 1 {
		return nil, camerr.Param("number", "must be >= 1, got %d", number)
	}
	f := &FilledRect{P0: p0, P1: p1, Step: step, Number: number, Radius: radius, Plane: plane}
	if err := f.build(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FilledRect) build() error {
	sx, sy := sign(f.P1.X-f.P0.X), sign(f.P1.Y-f.P0.Y)
	hx0 := 0.5 * math.Abs(f.P1.X-f.P0.X)
	hy0 := 0.5 * math.Abs(f.P1.Y-f.P0.Y)
	mid := geom.Midpoint(f.P0, f.P1)
	ring := func(hx, hy float64) Ring {
		return Ring{
			P0: geom.Pt(mid.X-sx*hx, mid.Y-sy*hy),
			P1: geom.Pt(mid.X+sx*hx, mid.Y+sy*hy),
		}
	}

	for i := 0; i < f.Number; i++ {
		hx := hx0 - float64(i)*f.Step
		hy := hy0 - float64(i)*f.Step
		var radius float64
		if f.Radius > 0 {
			if shrink := math.Min(hx/hx0, hy/hy0); shrink > 0 {
				radius = math.Min(f.Radius*shrink, math.Min(hx, hy))
			}
		}
		if err := f.add(ring(hx, hy), radius); err != nil {
			return err
		}

		nx := hx - f.Step
		ny := hy - f.Step
		switch {
		case nx < 0 && ny < 0:
			return nil
		case nx < 0:
			return f.add(ring(0, ny), 0)
		case ny < 0:
			return f.add(ring(nx, 0), 0)
		}
	}
	return nil
}

func (f *FilledRect) add(r Ring, radius float64) error {
	rect, err := NewRect(r.P0, r.P1, RectOptions{Radius: radius, Plane: f.Plane})
	if err != nil {
		return err
	}
	f.rings = append(f.rings, r)
	f.cmds = append(f.cmds, rect.Commands()...)
	f.pts = append(f.pts, rect.Points()...)
	return nil
}

// Rings returns the rectangles of the spiral, outermost first.
func (f *FilledRect) Rings() []Ring               { return f.rings }
func (f *FilledRect) Commands() []motion.Command { return f.cmds }
func (f *FilledRect) Points() []geom.Vec         { return f.pts }

// FilledRectCornerCut is a FilledRect whose outer ring carries corner
// cuts.
type FilledRectCornerCut struct {
	*FilledRect
	Outer *RectCornerCut

	cmds []motion.Command
	pts  []geom.Vec
}

func NewFilledRectCornerCut(p0, p1 geom.Vec, step float64, number int, cutLen float64, corners CornerSet, plane motion.Plane) (*FilledRectCornerCut, error) {
	filled, err := NewFilledRect(p0, p1, step, number, 0, plane)
	if err != nil {
		return nil, err
	}
	outer, err := NewRectCornerCut(p0, p1, cutLen, corners, plane)
	if err != nil {
		return nil, err
	}
	fc := &FilledRectCornerCut{FilledRect: filled, Outer: outer}
	// the outer square ring is the first 5 moves of the filled path
	fc.cmds = append(append([]motion.Command{}, outer.Commands()...), filled.Commands()[5:]...)
	fc.pts = append(append([]geom.Vec{}, outer.Points()...), filled.Points()[5:]...)
	return fc, nil
}

func (fc *FilledRectCornerCut) path()                      {}
func (fc *FilledRectCornerCut) Commands() []motion.Command { return fc.cmds }
func (fc *FilledRectCornerCut) Points() []geom.Vec         { return fc.pts }

// FilledCirc is a set of concentric full circles, each Step smaller than
// the last, stopping after Number rings or once the radius reaches zero.
type FilledCirc struct {
	Center   geom.Vec
	Radius   float64
	Step     float64
	Number   int
	StartDeg float64
	Plane    motion.Plane
	Dir      geom.Direction
	Turns    int

	radii []float64
	cmds  []motion.Command
	pts   []geom.Vec
}

func (*FilledCirc) path() {}

// NewFilledCirc builds the rings. Step must be positive and no larger
// than the radius.
func NewFilledCirc(center geom.Vec, radius, step float64, number int, startDeg float64, plane motion.Plane, dir geom.Direction, turns int) (*FilledCirc, error) {
	if step <= 0 {
		return nil, camerr.Param("step", "must be > 0, got %g", step)
	}
	if step > radius {
		return nil, camerr.Param("step", "step %g exceeds radius %g", step, radius)
	}
	if number < 1 {
		return nil, camerr.Param("number", "must be >= 1, got %d", number)
	}
	f := &FilledCirc{
		Center: center, Radius: radius, Step: step, Number: number,
		StartDeg: startDeg, Plane: plane, Dir: dir, Turns: turns,
	}
	for i := 0; i < number; i++ {
		r := radius - float64(i)*step
		if r <= geom.MinRadius {
			break
		}
		c, err := NewCirc(center, r, startDeg, turns, CircOptions{Plane: plane, Dir: dir})
		if err != nil {
			return nil, err
		}
		f.radii = append(f.radii, r)
		f.cmds = append(f.cmds, c.Commands()...)
		f.pts = append(f.pts, c.Points()...)
	}
	return f, nil
}

// Radii returns the ring radii, outermost first.
func (f *FilledCirc) Radii() []float64             { return f.radii }
func (f *FilledCirc) Commands() []motion.Command { return f.cmds }
func (f *FilledCirc) Points() []geom.Vec         { return f.pts }
