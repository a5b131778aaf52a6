package path

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
)

// RectOptions are the optional parameters of a rectangle path.
type RectOptions struct {
	// Radius rounds the corners. Radii below MinCornerRadius cut square.
	Radius float64
	Plane  motion.Plane
	Helix  *Helix
}

// Rect is a closed rectangular loop starting and ending at P0. The
// traversal direction follows from which corner comes first: the loop
// visits (x0,y0), (x0,y1), (x1,y1), (x1,y0) and back.
type Rect struct {
	P0, P1 geom.Vec
	RectOptions

	pts  []geom.Vec
	cmds []motion.Command
}

func (*Rect) path() {}

// NewRect builds the rectangle with corners p0 and p1.
func NewRect(p0, p1 geom.Vec, opts RectOptions) (*Rect, error) {
	if opts.Radius < 0 {
		return nil, camerr.Param("radius", "must be >= 0, got %g", opts.Radius)
	}
	dx := math.Abs(p1.X - p0.X)
	dy := math.Abs(p1.Y - p0.Y)
	if opts.Radius > 0.5*math.Min(dx, dy) {
		return nil, camerr.Param("radius", "corner radius %g too large for %gx%g rectangle", opts.Radius, dx, dy)
	}
	if opts.Radius < MinCornerRadius {
		opts.Radius = 0
	}
	r := &Rect{P0: p0, P1: p1, RectOptions: opts}
	r.build()
	return r, nil
}

// RectCorners returns the corner pair for a rectangle centered on center.
// CW loops start bottom-left and go to top-right; CCW loops start
// top-left and go to bottom-right.
func RectCorners(center geom.Vec, width, height float64, dir geom.Direction) (geom.Vec, geom.Vec, error) {
	hw, hh := 0.5*width, 0.5*height
	switch dir {
	case geom.CW:
		return geom.Pt(center.X-hw, center.Y-hh), geom.Pt(center.X+hw, center.Y+hh), nil
	case geom.CCW:
		return geom.Pt(center.X-hw, center.Y+hh), geom.Pt(center.X+hw, center.Y-hh), nil
	}
	return geom.Vec{}, geom.Vec{}, camerr.Param("direction", "unknown direction %s", dir)
}

// NewRectFromCenter builds a rectangle from its center and size.
func NewRectFromCenter(center geom.Vec, width, height float64, dir geom.Direction, opts RectOptions) (*Rect, error) {
	p0, p1, err := RectCorners(center, width, height, dir)
	if err != nil {
		return nil, err
	}
	return NewRect(p0, p1, opts)
}

// Outline returns the rectangle's vertices. Square rectangles give the
// 5-point loop; rounded ones give the 9 tangent points between edges and
// corner arcs.
func (r *Rect) Outline() []geom.Vec {
	x0, y0 := r.P0.X, r.P0.Y
	x1, y1 := r.P1.X, r.P1.Y
	if r.Radius == 0 {
		return []geom.Vec{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}, {X: x0, Y: y0}}
	}
	sx, sy := sign(x1-x0), sign(y1-y0)
	rad := r.Radius
	return []geom.Vec{
		{X: x0, Y: y0 + sy*rad},
		{X: x0, Y: y1 - sy*rad},
		{X: x0 + sx*rad, Y: y1},
		{X: x1 - sx*rad, Y: y1},
		{X: x1, Y: y1 - sy*rad},
		{X: x1, Y: y0 + sy*rad},
		{X: x1 - sx*rad, Y: y0},
		{X: x0 + sx*rad, Y: y0},
		{X: x0, Y: y0 + sy*rad},
	}
}

func (r *Rect) build() {
	r.pts = r.Outline()
	var zs []float64
	if r.Helix != nil {
		legs := legLengths(r.pts)
		if r.Radius > 0 {
			// legs ending on an even vertex are quarter-circle corners
			for i := 2; i < len(legs); i += 2 {
				legs[i] = r.Radius * math.Pi / 2
			}
		}
		zs = r.Helix.depths(legs)
	}
	zAt := func(i int) *float64 {
		if zs == nil {
			return nil
		}
		return &zs[i]
	}

	if r.Radius == 0 {
		for i, p := range r.pts {
			r.cmds = append(r.cmds, feedTo(r.Plane, p, zAt(i)))
		}
		return
	}

	arcDir := geom.DirFromPoints(r.pts[0], r.pts[1], r.pts[2])
	for i := 0; i < len(r.pts)-1; i++ {
		p0 := r.pts[i]
		r.cmds = append(r.cmds, feedTo(r.Plane, p0, zAt(i)))
		if i%2 == 0 {
			continue
		}
		p1 := r.pts[i+1]
		var c geom.Vec
		if arcDir == geom.CCW {
			c = geom.Pt(0.5*(p0.Y-p1.Y+p0.X+p1.X), 0.5*(p0.Y+p1.Y-p0.X+p1.X))
		} else {
			c = geom.Pt(0.5*(-p0.Y+p1.Y+p0.X+p1.X), 0.5*(p0.Y+p1.Y+p0.X-p1.X))
		}
		target := r.Plane.Point(p1.X, p1.Y)
		if z := zAt(i + 1); z != nil {
			target = target.With(r.Plane.Normal(), *z)
		}
		r.cmds = append(r.cmds, motion.Helical{
			Target: target,
			Offset: [2]float64{c.X - p0.X, c.Y - p0.Y},
			Dir:    arcDir,
			Plane:  r.Plane,
		})
	}
}

func (r *Rect) Commands() []motion.Command { return r.cmds }
func (r *Rect) Points() []geom.Vec         { return r.pts }

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// CornerSet selects which rectangle corners receive a corner cut. Corners
// are named by which of the two defining points supplies x and y: C01 is
// (x0, y1).
type CornerSet struct {
	C00 bool `yaml:"c00" toml:"c00"`
	C01 bool `yaml:"c01" toml:"c01"`
	C11 bool `yaml:"c11" toml:"c11"`
	C10 bool `yaml:"c10" toml:"c10"`
}

// AllCorners selects every corner.
func AllCorners() CornerSet {
	return CornerSet{C00: true, C01: true, C11: true, C10: true}
}

// None reports whether no corner is selected.
func (c CornerSet) None() bool {
	return !c.C00 && !c.C01 && !c.C11 && !c.C10
}

// at returns the selection for the i-th vertex of the 5-point loop.
func (c CornerSet) at(i int) bool {
	switch i {
	case 1:
		return c.C01
	case 2:
		return c.C11
	case 3:
		return c.C10
	case 4:
		return c.C00
	}
	return false
}

// RectCornerCut is a square rectangle with a 45 degree outward notch of
// length CutLen at each selected corner. The notches remove the material
// a round tool leaves in an internal corner.
type RectCornerCut struct {
	P0, P1  geom.Vec
	CutLen  float64
	Corners CornerSet
	Plane   motion.Plane

	cmds []motion.Command
	pts  []geom.Vec
}

func (*RectCornerCut) path() {}

// NewRectCornerCut builds the corner-cut rectangle. A zero CornerSet
// selects every corner.
func NewRectCornerCut(p0, p1 geom.Vec, cutLen float64, corners CornerSet, plane motion.Plane) (*RectCornerCut, error) {
	if cutLen < 0 {
		return nil, camerr.Param("cornerCutLen", "must be >= 0, got %g", cutLen)
	}
	if corners.None() {
		corners = AllCorners()
	}
	rect, err := NewRect(p0, p1, RectOptions{Plane: plane})
	if err != nil {
		return nil, err
	}
	rc := &RectCornerCut{P0: p0, P1: p1, CutLen: cutLen, Corners: corners, Plane: plane}
	mid := geom.Midpoint(p0, p1)
	d := cutLen / math.Sqrt2
	for i, p := range rect.Points() {
		rc.cmds = append(rc.cmds, feedTo(plane, p, nil))
		rc.pts = append(rc.pts, p)
		if i == 0 || !corners.at(i) {
			continue
		}
		notch := geom.Pt(p.X+d*unitSign(p.X-mid.X), p.Y+d*unitSign(p.Y-mid.Y))
		rc.cmds = append(rc.cmds, feedTo(plane, notch, nil), feedTo(plane, p, nil))
		rc.pts = append(rc.pts, notch, p)
	}
	return rc, nil
}

func unitSign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func (rc *RectCornerCut) Commands() []motion.Command { return rc.cmds }
func (rc *RectCornerCut) Points() []geom.Vec         { return rc.pts }
