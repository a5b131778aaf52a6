package routine

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/path"
	"github.com/chazu/kerf/pkg/zpass"
)

// RectBoundaryConfig describes a rectangular outline cut.
type RectBoundaryConfig struct {
	Common `yaml:",inline"`

	CenterX float64 `yaml:"centerX" toml:"centerX"`
	CenterY float64 `yaml:"centerY" toml:"centerY"`
	Width   float64 `yaml:"width" toml:"width"`
	Height  float64 `yaml:"height" toml:"height"`
	// Radius rounds the outline corners.
	Radius     float64    `yaml:"radius,omitempty" toml:"radius,omitempty"`
	ToolOffset ToolOffset `yaml:"toolOffset,omitempty" toml:"toolOffset,omitempty"`
}

func (c RectBoundaryConfig) Validate() error {
	if err := c.Common.validate(true); err != nil {
		return err
	}
	if !(c.Width > 0) || !(c.Height > 0) {
		return camerr.Param("width", "width and height must be > 0, got %gx%g", c.Width, c.Height)
	}
	if c.Radius < 0 {
		return camerr.Param("radius", "must be >= 0, got %g", c.Radius)
	}
	if c.ToolOffset == OffsetInside && (!(c.Width > c.ToolDiam) || !(c.Height > c.ToolDiam)) {
		return camerr.Param("toolDiam", "tool diameter %g leaves nothing inside %gx%g", c.ToolDiam, c.Width, c.Height)
	}
	return nil
}

// toolPath returns the tool-center size and corner radius.
func (c RectBoundaryConfig) toolPath() (w, h, r float64) {
	switch c.ToolOffset {
	case OffsetInside:
		return c.Width - c.ToolDiam, c.Height - c.ToolDiam, math.Max(c.Radius-0.5*c.ToolDiam, 0)
	case OffsetOutside:
		return c.Width + c.ToolDiam, c.Height + c.ToolDiam, c.Radius + 0.5*c.ToolDiam
	}
	return c.Width, c.Height, c.Radius
}

// RectBoundary cuts around a rectangle, descending along the outline
// each lap and finishing with a lap at full depth.
type RectBoundary struct {
	cfg   RectBoundaryConfig
	sched zpass.Schedule
	cmds  []motion.Command
}

func NewRectBoundary(cfg RectBoundaryConfig) (*RectBoundary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sched, err := zpass.New(cfg.StartZ, cfg.Depth, cfg.MaxCutDepth)
	if err != nil {
		return nil, err
	}
	rb := &RectBoundary{cfg: cfg, sched: sched}
	if err := rb.build(); err != nil {
		return nil, err
	}
	return rb, nil
}

func (rb *RectBoundary) Name() string               { return "RectBoundary" }
func (rb *RectBoundary) Config() RectBoundaryConfig { return rb.cfg }
func (rb *RectBoundary) Schedule() zpass.Schedule   { return rb.sched }
func (rb *RectBoundary) Commands() []motion.Command { return rb.cmds }

func (rb *RectBoundary) build() error {
	c := rb.cfg
	center := geom.Pt(c.CenterX, c.CenterY)
	w, h, r := c.toolPath()
	var laps []path.Path
	for _, pair := range rb.sched.Pairs() {
		rect, err := path.NewRectFromCenter(center, w, h, c.Direction, path.RectOptions{
			Radius: r,
			Helix:  &path.Helix{Start: pair.Prev, End: pair.Curr},
		})
		if err != nil {
			return err
		}
		laps = append(laps, rect)
	}
	rb.cmds = outline(rb.Name(), c, c.Common, laps)
	return nil
}

// outline wraps boundary laps in the standard start and end sequence.
func outline(name string, cfg any, c Common, laps []path.Path) []motion.Command {
	b := newBuilder(name)
	b.begin(cfg)
	b.enter(c, laps[0].Points()[0])
	b.add(path.Concat(laps...)...)
	b.leave(c.SafeZ)
	return b.cmds
}

// CircBoundaryConfig describes a circular outline cut.
type CircBoundaryConfig struct {
	Common `yaml:",inline"`

	CenterX float64 `yaml:"centerX" toml:"centerX"`
	CenterY float64 `yaml:"centerY" toml:"centerY"`
	Radius  float64 `yaml:"radius" toml:"radius"`
	// StartAngle is the angle in degrees, measured in the cut direction,
	// where each lap begins.
	StartAngle float64    `yaml:"startAngle,omitempty" toml:"startAngle,omitempty"`
	ToolOffset ToolOffset `yaml:"toolOffset,omitempty" toml:"toolOffset,omitempty"`
}

func (c CircBoundaryConfig) Validate() error {
	if err := c.Common.validate(true); err != nil {
		return err
	}
	if !(c.Radius > 0) {
		return camerr.Param("radius", "must be > 0, got %g", c.Radius)
	}
	if c.ToolOffset == OffsetInside && !(c.toolRadius() > geom.MinRadius) {
		return camerr.Param("toolDiam", "tool diameter %g leaves nothing inside radius %g", c.ToolDiam, c.Radius)
	}
	return nil
}

func (c CircBoundaryConfig) toolRadius() float64 {
	switch c.ToolOffset {
	case OffsetInside:
		return c.Radius - 0.5*c.ToolDiam
	case OffsetOutside:
		return c.Radius + 0.5*c.ToolDiam
	}
	return c.Radius
}

// CircBoundary cuts around a circle in helical laps.
type CircBoundary struct {
	cfg   CircBoundaryConfig
	sched zpass.Schedule
	cmds  []motion.Command
}

func NewCircBoundary(cfg CircBoundaryConfig) (*CircBoundary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sched, err := zpass.New(cfg.StartZ, cfg.Depth, cfg.MaxCutDepth)
	if err != nil {
		return nil, err
	}
	cb := &CircBoundary{cfg: cfg, sched: sched}
	if err := cb.build(); err != nil {
		return nil, err
	}
	return cb, nil
}

func (cb *CircBoundary) Name() string               { return "CircBoundary" }
func (cb *CircBoundary) Config() CircBoundaryConfig { return cb.cfg }
func (cb *CircBoundary) Schedule() zpass.Schedule   { return cb.sched }
func (cb *CircBoundary) Commands() []motion.Command { return cb.cmds }

func (cb *CircBoundary) build() error {
	c := cb.cfg
	center := geom.Pt(c.CenterX, c.CenterY)
	var laps []path.Path
	for _, pair := range cb.sched.Pairs() {
		circ, err := path.NewCirc(center, c.toolRadius(), c.StartAngle, 1, path.CircOptions{
			Dir:   c.Direction,
			Helix: &path.Helix{Start: pair.Prev, End: pair.Curr},
		})
		if err != nil {
			return err
		}
		laps = append(laps, circ)
	}
	cb.cmds = outline(cb.Name(), c, c.Common, laps)
	return nil
}

// LineSegBoundaryConfig describes an outline through a list of points.
// Direction, when set, reorients a closed loop to run that way.
type LineSegBoundaryConfig struct {
	Common `yaml:",inline"`

	Points     [][2]float64 `yaml:"points,flow" toml:"points"`
	Closed     bool         `yaml:"closed,omitempty" toml:"closed,omitempty"`
	CutterComp CompMode     `yaml:"cutterComp,omitempty" toml:"cutterComp,omitempty"`
}

func (c LineSegBoundaryConfig) Validate() error {
	if err := c.Common.validate(false); err != nil {
		return err
	}
	if c.Direction != 0 && !c.Direction.Valid() {
		return camerr.Param("direction", "unknown direction %s", c.Direction)
	}
	if c.CutterComp < CompNone || c.CutterComp > CompOutside {
		return camerr.Param("cutterComp", "unknown mode %s", c.CutterComp)
	}
	pts := c.vecs()
	if len(pts) < 2 {
		return camerr.Param("points", "need at least 2 points, got %d", len(pts))
	}
	if _, ok := nextDistinct(pts); !ok {
		return camerr.Geometry("point list has no two distinct points")
	}
	if c.CutterComp == CompInside || c.CutterComp == CompOutside {
		if !c.closed() {
			return camerr.Param("cutterComp", "%s compensation needs a closed path", c.CutterComp)
		}
		loop := c.loop()
		if !geom.IsSimple(loop, geom.DefaultTol) {
			return camerr.Param("cutterComp", "path is self-intersecting")
		}
	}
	return nil
}

func (c LineSegBoundaryConfig) vecs() []geom.Vec {
	pts := make([]geom.Vec, len(c.Points))
	for i, p := range c.Points {
		pts[i] = geom.Pt(p[0], p[1])
	}
	return pts
}

func (c LineSegBoundaryConfig) closed() bool {
	return c.Closed || (len(c.Points) > 2 && geom.IsClosed(c.vecs(), geom.DefaultTol))
}

// loop returns the visited points with the closing point appended for
// closed paths, oriented to Direction when one is set.
func (c LineSegBoundaryConfig) loop() []geom.Vec {
	pts := c.vecs()
	if !c.closed() {
		return pts
	}
	if !geom.IsClosed(pts, geom.DefaultTol) {
		pts = append(pts, pts[0])
	}
	if c.Direction.Valid() && geom.Winding(pts) != c.Direction {
		pts = geom.Reversed(pts)
	}
	return pts
}

// nextDistinct returns the first point after pts[0] that differs from it.
func nextDistinct(pts []geom.Vec) (geom.Vec, bool) {
	for _, p := range pts[1:] {
		if !geom.Equiv(p, pts[0], geom.DefaultTol) {
			return p, true
		}
	}
	return geom.Vec{}, false
}

// LineSegBoundary cuts along a polyline, optionally under controller
// cutter compensation. Open paths retract and return to the start
// between passes; closed paths run lap after lap.
type LineSegBoundary struct {
	cfg   LineSegBoundaryConfig
	sched zpass.Schedule
	side  motion.Side
	cmds  []motion.Command
}

func NewLineSegBoundary(cfg LineSegBoundaryConfig) (*LineSegBoundary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Points = append([][2]float64(nil), cfg.Points...)
	sched, err := zpass.New(cfg.StartZ, cfg.Depth, cfg.MaxCutDepth)
	if err != nil {
		return nil, err
	}
	lb := &LineSegBoundary{cfg: cfg, sched: sched}
	if err := lb.build(); err != nil {
		return nil, err
	}
	return lb, nil
}

func (lb *LineSegBoundary) Name() string                  { return "LineSegBoundary" }
func (lb *LineSegBoundary) Config() LineSegBoundaryConfig { return lb.cfg }
func (lb *LineSegBoundary) Schedule() zpass.Schedule      { return lb.sched }
func (lb *LineSegBoundary) Commands() []motion.Command    { return lb.cmds }

// Side returns the compensation side used, or 0 without compensation.
func (lb *LineSegBoundary) Side() motion.Side { return lb.side }

func (lb *LineSegBoundary) build() error {
	c := lb.cfg
	pts := c.loop()
	closed := c.closed()
	comp := c.CutterComp != CompNone
	if comp {
		side, err := ResolveSide(c.CutterComp, geom.Winding(pts))
		if err != nil {
			return err
		}
		lb.side = side
	}

	p0 := pts[0]
	next, _ := nextDistinct(pts)
	d := c.ToolDiam
	b := newBuilder(lb.Name())
	b.begin(c)
	b.rapidSafe(c.SafeZ)
	if comp {
		b.rapidXY(p0.Sub(geom.Unit(next.Sub(p0)).MulScalar(d)))
		b.comment("%s: cutter compensation %s", lb.Name(), lb.side)
		b.add(motion.CutterComp{Side: lb.side, Diameter: d})
		b.add(motion.Rapid{Target: motion.XY(p0.X, p0.Y)})
	} else {
		b.rapidXY(p0)
	}
	b.dwell(c.StartDwell)
	b.feedStartZ(c.StartZ)

	pairs := lb.sched.Pairs()
	var visited []geom.Vec
	for i, pair := range pairs {
		final := i == len(pairs)-1
		verts := make([]path.Vertex, len(pts))
		for k, p := range pts {
			verts[k] = path.Vertex{Pos: p}
		}
		if comp && closed && final {
			f := math.Min(0.5, d/geom.Dist(p0, next))
			verts = append(verts, path.Vertex{Pos: p0.Add(next.Sub(p0).MulScalar(f))})
		}
		ls, err := path.NewLineSeg(verts, false, motion.PlaneXY, &path.Helix{Start: pair.Prev, End: pair.Curr})
		if err != nil {
			return err
		}
		b.add(ls.Commands()...)
		visited = ls.Points()
		if !closed && !final {
			b.add(
				motion.Rapid{Target: motion.ZOnly(c.SafeZ)},
				motion.Rapid{Target: motion.XY(p0.X, p0.Y)},
				motion.Rapid{Target: motion.ZOnly(c.StartZ)},
				motion.Linear{Target: motion.ZOnly(pair.Curr)},
			)
		}
	}

	b.rapidSafe(c.SafeZ)
	if comp {
		b.add(motion.CancelCutterComp{})
		end, dir := exitDirection(visited)
		out := end.Add(dir.MulScalar(d))
		b.add(motion.Rapid{Target: motion.XY(out.X, out.Y)})
	}
	b.end()
	lb.cmds = b.cmds
	return nil
}

// exitDirection returns the last point of pts and the unit direction of
// travel into it.
func exitDirection(pts []geom.Vec) (geom.Vec, geom.Vec) {
	end := pts[len(pts)-1]
	for i := len(pts) - 2; i >= 0; i-- {
		if !geom.Equiv(pts[i], end, geom.DefaultTol) {
			return end, geom.Unit(end.Sub(pts[i]))
		}
	}
	return end, geom.Vec{}
}
