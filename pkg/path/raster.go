package path

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
)

const rasterTol = 1.0e-9

// rasterFrame maps raster coordinates (a along the sweep axis, b across
// it) onto machine axes.
type rasterFrame struct {
	ka, kb, kn motion.Axis
	p0, p1     geom.Vec
	swapped    bool
}

func newRasterFrame(p0, p1 geom.Vec, step float64, plane motion.Plane, along motion.Axis) (rasterFrame, error) {
	u, v := plane.InPlane()
	f := rasterFrame{ka: u, kb: v, kn: plane.Normal(), p0: p0, p1: p1}
	switch along {
	case u:
	case v:
		f.ka, f.kb = v, u
		f.swapped = true
		f.p0 = geom.Pt(p0.Y, p0.X)
		f.p1 = geom.Pt(p1.Y, p1.X)
	default:
		return f, camerr.Param("along", "axis %s is not in plane %s", along, plane)
	}
	if step <= 0 {
		return f, camerr.Param("step", "must be > 0, got %g", step)
	}
	if span := math.Abs(f.p1.Y - f.p0.Y); span > 0 && step > span {
		return f, camerr.Param("step", "step %g exceeds raster span %g", step, span)
	}
	return f, nil
}

func (f rasterFrame) at(a, b float64) motion.Axes {
	return motion.Axes{}.With(f.ka, a).With(f.kb, b)
}

// point returns the in-plane point for raster coordinates.
func (f rasterFrame) point(a, b float64) geom.Vec {
	if f.swapped {
		return geom.Pt(b, a)
	}
	return geom.Pt(a, b)
}

// BiDirRaster sweeps back and forth along one in-plane axis, stepping
// across by Step between rows, from P0 toward P1. The last row always
// lies on P1's cross coordinate.
type BiDirRaster struct {
	P0, P1 geom.Vec
	Step   float64
	Plane  motion.Plane
	Along  motion.Axis

	cmds []motion.Command
	pts  []geom.Vec
}

func (*BiDirRaster) path() {}

func NewBiDirRaster(p0, p1 geom.Vec, step float64, plane motion.Plane, along motion.Axis) (*BiDirRaster, error) {
	f, err := newRasterFrame(p0, p1, step, plane, along)
	if err != nil {
		return nil, err
	}
	r := &BiDirRaster{P0: p0, P1: p1, Step: step, Plane: plane, Along: along}
	x0, y0 := f.p0.X, f.p0.Y
	x1, y1 := f.p1.X, f.p1.Y
	dy := step
	if y1 < y0 {
		dy = -step
	}
	done := func(y float64) bool {
		if dy > 0 {
			return y+dy > y1+rasterTol
		}
		return y+dy < y1-rasterTol
	}
	emit := func(a, b float64) {
		r.cmds = append(r.cmds, motion.Linear{Target: f.at(a, b)})
		r.pts = append(r.pts, f.point(a, b))
	}

	x, y := x0, y0
	atStart := true
	emit(x, y)
	for {
		atStart = !atStart
		x = pick(atStart, x0, x1)
		emit(x, y)
		if done(y) {
			break
		}
		y += dy
		if math.Abs(y-y1) <= rasterTol {
			y = y1
		}
		emit(x, y)
	}
	if math.Abs(y-y1) > rasterTol {
		y = y1
		emit(x, y)
		atStart = !atStart
		emit(pick(atStart, x0, x1), y)
	}
	return r, nil
}

func pick(first bool, a, b float64) float64 {
	if first {
		return a
	}
	return b
}

func (r *BiDirRaster) Commands() []motion.Command { return r.cmds }
func (r *BiDirRaster) Points() []geom.Vec         { return r.pts }

// UniDirRaster cuts every row in the same direction, from P0's sweep
// coordinate to P1's. Between rows the tool lifts to RetLevel along the
// plane normal, traverses back, returns to CutLevel and steps across.
type UniDirRaster struct {
	P0, P1   geom.Vec
	Step     float64
	CutLevel float64
	RetLevel float64
	Plane    motion.Plane
	Along    motion.Axis

	cmds []motion.Command
	pts  []geom.Vec
}

func (*UniDirRaster) path() {}

func NewUniDirRaster(p0, p1 geom.Vec, step, cutLevel, retLevel float64, plane motion.Plane, along motion.Axis) (*UniDirRaster, error) {
	f, err := newRasterFrame(p0, p1, step, plane, along)
	if err != nil {
		return nil, err
	}
	r := &UniDirRaster{P0: p0, P1: p1, Step: step, CutLevel: cutLevel, RetLevel: retLevel, Plane: plane, Along: along}
	x0, y0 := f.p0.X, f.p0.Y
	x1, y1 := f.p1.X, f.p1.Y
	dy := step
	if y1 < y0 {
		dy = -step
	}
	reached := func(y float64) bool {
		if dy > 0 {
			return y >= y1-rasterTol
		}
		return y <= y1+rasterTol
	}
	feed := func(t motion.Axes) {
		r.cmds = append(r.cmds, motion.Linear{Target: t})
	}

	y := y0
	last := math.Abs(y1-y0) <= rasterTol
	feed(f.at(x0, y).With(f.kn, cutLevel))
	r.pts = append(r.pts, f.point(x0, y))
	for {
		feed(f.at(x1, y))
		r.pts = append(r.pts, f.point(x1, y))
		if last {
			break
		}
		feed(motion.Axes{}.With(f.kn, retLevel))
		r.cmds = append(r.cmds, motion.Rapid{Target: f.at(x0, y)})
		feed(motion.Axes{}.With(f.kn, cutLevel))
		y += dy
		if reached(y) {
			y = y1
			last = true
		}
		feed(motion.Axes{}.With(f.kb, y))
		r.pts = append(r.pts, f.point(x0, y))
	}
	return r, nil
}

func (r *UniDirRaster) Commands() []motion.Command { return r.cmds }
func (r *UniDirRaster) Points() []geom.Vec         { return r.pts }
