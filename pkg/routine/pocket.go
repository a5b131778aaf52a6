package routine

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/path"
	"github.com/chazu/kerf/pkg/zpass"
)

// MinRectOverlap is the smallest step-over overlap that leaves no cusp
// between the corners of adjacent square rings.
const MinRectOverlap = 1 - 1/math.Sqrt2

// RectPocketConfig describes a rectangular pocket.
type RectPocketConfig struct {
	Common `yaml:",inline"`

	CenterX float64 `yaml:"centerX" toml:"centerX"`
	CenterY float64 `yaml:"centerY" toml:"centerY"`
	Width   float64 `yaml:"width" toml:"width"`
	Height  float64 `yaml:"height" toml:"height"`

	// Overlap is the roughing overlap. OverlapFinish applies to the bottom
	// pass and defaults to Overlap.
	Overlap       float64  `yaml:"overlap" toml:"overlap"`
	OverlapFinish *float64 `yaml:"overlapFinish,omitempty" toml:"overlapFinish,omitempty"`

	CornerCut    bool            `yaml:"cornerCut,omitempty" toml:"cornerCut,omitempty"`
	CornerMargin float64         `yaml:"cornerMargin,omitempty" toml:"cornerMargin,omitempty"`
	Corners      *path.CornerSet `yaml:"corners,omitempty" toml:"corners,omitempty"`
}

func (c RectPocketConfig) finish() float64 {
	if c.OverlapFinish != nil {
		return *c.OverlapFinish
	}
	return c.Overlap
}

func (c RectPocketConfig) Validate() error {
	if err := c.Common.validate(true); err != nil {
		return err
	}
	if !(c.Width > c.ToolDiam) || !(c.Height > c.ToolDiam) {
		return camerr.Param("toolDiam", "tool diameter %g must be smaller than pocket %gx%g", c.ToolDiam, c.Width, c.Height)
	}
	if err := checkOverlap("overlap", c.Overlap, MinRectOverlap); err != nil {
		return err
	}
	if err := checkOverlap("overlapFinish", c.finish(), MinRectOverlap); err != nil {
		return err
	}
	if c.CornerMargin < 0 {
		return camerr.Param("cornerMargin", "must be >= 0, got %g", c.CornerMargin)
	}
	return nil
}

// RectPocket clears a rectangle with a spiral of shrinking rings on each
// Z level, entering every level down a small rectangular ramp at the
// first corner.
type RectPocket struct {
	cfg   RectPocketConfig
	sched zpass.Schedule
	cmds  []motion.Command
}

func NewRectPocket(cfg RectPocketConfig) (*RectPocket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Corners != nil {
		corners := *cfg.Corners
		cfg.Corners = &corners
	}
	sched, err := zpass.New(cfg.StartZ, cfg.Depth, cfg.MaxCutDepth)
	if err != nil {
		return nil, err
	}
	p := &RectPocket{cfg: cfg, sched: sched}
	if err := p.build(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *RectPocket) Name() string               { return "RectPocket" }
func (p *RectPocket) Config() RectPocketConfig   { return p.cfg }
func (p *RectPocket) Schedule() zpass.Schedule   { return p.sched }
func (p *RectPocket) Commands() []motion.Command { return p.cmds }

func (p *RectPocket) build() error {
	c := p.cfg
	center := geom.Pt(c.CenterX, c.CenterY)
	p0, p1, err := path.RectCorners(center, c.Width-c.ToolDiam, c.Height-c.ToolDiam, c.Direction)
	if err != nil {
		return err
	}
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	leadEnd := geom.Pt(
		p0.X+signOf(dx)*math.Min(c.MaxCutDepth, math.Abs(dx)),
		p0.Y+signOf(dy)*math.Min(c.MaxCutDepth, math.Abs(dy)),
	)

	b := newBuilder(p.Name())
	b.begin(c)
	b.enter(c.Common, p0)
	pairs := p.sched.CutPairs()
	for i, pair := range pairs {
		b.comment("%s: pass %d of %d", p.Name(), i+1, len(pairs))
		ramp, err := path.NewRect(p0, leadEnd, path.RectOptions{Helix: &path.Helix{Start: pair.Prev, End: pair.Curr}})
		if err != nil {
			return err
		}
		b.add(ramp.Commands()...)

		overlap := c.Overlap
		if i == len(pairs)-1 {
			overlap = c.finish()
		}
		fill, err := p.fill(p0, p1, c.ToolDiam*(1-overlap))
		if err != nil {
			return err
		}
		b.add(fill...)
	}
	b.leave(c.SafeZ)
	p.cmds = b.cmds
	return nil
}

func (p *RectPocket) corners() path.CornerSet {
	if p.cfg.Corners == nil {
		return path.AllCorners()
	}
	return *p.cfg.Corners
}

func (p *RectPocket) cornerCutLen() float64 {
	return 0.5*p.cfg.ToolDiam*(math.Sqrt2-1) + p.cfg.CornerMargin
}

// fill returns one level of step-over rings between the tool-center
// corners p0 and p1.
func (p *RectPocket) fill(p0, p1 geom.Vec, step float64) ([]motion.Command, error) {
	c := p.cfg
	hx, hy := 0.5*math.Abs(p1.X-p0.X), 0.5*math.Abs(p1.Y-p0.Y)
	if step >= math.Min(hx, hy) {
		return p.narrowFill(p0, p1, step)
	}
	number := int(math.Min(math.Ceil(0.5*c.Width/step), math.Ceil(0.5*c.Height/step)))
	if c.CornerCut {
		f, err := path.NewFilledRectCornerCut(p0, p1, step, number, p.cornerCutLen(), p.corners(), motion.PlaneXY)
		if err != nil {
			return nil, err
		}
		return f.Commands(), nil
	}
	f, err := path.NewFilledRect(p0, p1, step, number, 0, motion.PlaneXY)
	if err != nil {
		return nil, err
	}
	return f.Commands(), nil
}

// narrowFill handles pockets whose half-size is within one step: the
// outer ring followed by a ring collapsed onto the midline of the short
// side.
func (p *RectPocket) narrowFill(p0, p1 geom.Vec, step float64) ([]motion.Command, error) {
	var outer path.Path
	var err error
	if p.cfg.CornerCut {
		outer, err = path.NewRectCornerCut(p0, p1, p.cornerCutLen(), p.corners(), motion.PlaneXY)
	} else {
		outer, err = path.NewRect(p0, p1, path.RectOptions{})
	}
	if err != nil {
		return nil, err
	}

	mid := geom.Midpoint(p0, p1)
	sx, sy := signOf(p1.X-p0.X), signOf(p1.Y-p0.Y)
	hx, hy := 0.5*math.Abs(p1.X-p0.X), 0.5*math.Abs(p1.Y-p0.Y)
	var q0, q1 geom.Vec
	if hy <= hx {
		s := math.Max(hx-step, 0)
		q0, q1 = geom.Pt(mid.X-sx*s, mid.Y), geom.Pt(mid.X+sx*s, mid.Y)
	} else {
		s := math.Max(hy-step, 0)
		q0, q1 = geom.Pt(mid.X, mid.Y-sy*s), geom.Pt(mid.X, mid.Y+sy*s)
	}
	inner, err := path.NewRect(q0, q1, path.RectOptions{})
	if err != nil {
		return nil, err
	}
	return path.Concat(outer, inner), nil
}

func signOf(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// CircPocketConfig describes a circular pocket.
type CircPocketConfig struct {
	Common `yaml:",inline"`

	CenterX float64 `yaml:"centerX" toml:"centerX"`
	CenterY float64 `yaml:"centerY" toml:"centerY"`
	Radius  float64 `yaml:"radius" toml:"radius"`

	Overlap       float64  `yaml:"overlap" toml:"overlap"`
	OverlapFinish *float64 `yaml:"overlapFinish,omitempty" toml:"overlapFinish,omitempty"`
}

func (c CircPocketConfig) finish() float64 {
	if c.OverlapFinish != nil {
		return *c.OverlapFinish
	}
	return c.Overlap
}

func (c CircPocketConfig) Validate() error {
	if err := c.Common.validate(true); err != nil {
		return err
	}
	if !(c.Radius > c.ToolDiam) {
		return camerr.Param("toolDiam", "pocket radius %g must exceed tool diameter %g", c.Radius, c.ToolDiam)
	}
	if err := checkOverlap("overlap", c.Overlap, 0); err != nil {
		return err
	}
	return checkOverlap("overlapFinish", c.finish(), 0)
}

// CircPocket clears a disc with concentric rings on each Z level. Every
// level is entered by one helical turn on the outer ring and finished
// with a move to the center.
type CircPocket struct {
	cfg   CircPocketConfig
	sched zpass.Schedule
	cmds  []motion.Command
}

func NewCircPocket(cfg CircPocketConfig) (*CircPocket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sched, err := zpass.New(cfg.StartZ, cfg.Depth, cfg.MaxCutDepth)
	if err != nil {
		return nil, err
	}
	p := &CircPocket{cfg: cfg, sched: sched}
	if err := p.build(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CircPocket) Name() string               { return "CircPocket" }
func (p *CircPocket) Config() CircPocketConfig   { return p.cfg }
func (p *CircPocket) Schedule() zpass.Schedule   { return p.sched }
func (p *CircPocket) Commands() []motion.Command { return p.cmds }

func (p *CircPocket) build() error {
	c := p.cfg
	center := geom.Pt(c.CenterX, c.CenterY)
	r := c.Radius - 0.5*c.ToolDiam
	opts := path.CircOptions{Dir: c.Direction}

	b := newBuilder(p.Name())
	b.begin(c)
	b.enter(c.Common, geom.Pt(center.X+r, center.Y))
	pairs := p.sched.CutPairs()
	for i, pair := range pairs {
		b.comment("%s: pass %d of %d", p.Name(), i+1, len(pairs))
		lead := opts
		lead.Helix = &path.Helix{Start: pair.Prev, End: pair.Curr}
		ramp, err := path.NewCirc(center, r, 0, 1, lead)
		if err != nil {
			return err
		}
		b.add(ramp.Commands()...)

		overlap := c.Overlap
		if i == len(pairs)-1 {
			overlap = c.finish()
		}
		step := math.Min(c.ToolDiam*(1-overlap), r)
		fill, err := path.NewFilledCirc(center, r, step, int(math.Ceil(r/step))+1, 0, motion.PlaneXY, c.Direction, 1)
		if err != nil {
			return err
		}
		b.add(fill.Commands()...)
		b.add(motion.Linear{Target: motion.XY(center.X, center.Y)})
	}
	b.leave(c.SafeZ)
	p.cmds = b.cmds
	return nil
}

// AnnulusPocketConfig describes a ring-shaped pocket of outer radius
// Radius and radial width Thickness.
type AnnulusPocketConfig struct {
	Common `yaml:",inline"`

	CenterX   float64 `yaml:"centerX" toml:"centerX"`
	CenterY   float64 `yaml:"centerY" toml:"centerY"`
	Radius    float64 `yaml:"radius" toml:"radius"`
	Thickness float64 `yaml:"thickness" toml:"thickness"`

	Overlap       float64  `yaml:"overlap" toml:"overlap"`
	OverlapFinish *float64 `yaml:"overlapFinish,omitempty" toml:"overlapFinish,omitempty"`
}

func (c AnnulusPocketConfig) finish() float64 {
	if c.OverlapFinish != nil {
		return *c.OverlapFinish
	}
	return c.Overlap
}

func (c AnnulusPocketConfig) Validate() error {
	if err := c.Common.validate(true); err != nil {
		return err
	}
	if !(c.Thickness > 0) || c.Thickness > c.Radius {
		return camerr.Param("thickness", "must be in (0, radius %g], got %g", c.Radius, c.Thickness)
	}
	if c.ToolDiam > c.Thickness {
		return camerr.Param("toolDiam", "tool diameter %g exceeds annulus thickness %g", c.ToolDiam, c.Thickness)
	}
	if err := checkOverlap("overlap", c.Overlap, 0); err != nil {
		return err
	}
	return checkOverlap("overlapFinish", c.finish(), 0)
}

// AnnulusPocket clears a ring with concentric circles from the outer
// wall inward to the inner wall.
type AnnulusPocket struct {
	cfg   AnnulusPocketConfig
	sched zpass.Schedule
	cmds  []motion.Command
}

func NewAnnulusPocket(cfg AnnulusPocketConfig) (*AnnulusPocket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sched, err := zpass.New(cfg.StartZ, cfg.Depth, cfg.MaxCutDepth)
	if err != nil {
		return nil, err
	}
	p := &AnnulusPocket{cfg: cfg, sched: sched}
	if err := p.build(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AnnulusPocket) Name() string                { return "AnnulusPocket" }
func (p *AnnulusPocket) Config() AnnulusPocketConfig { return p.cfg }
func (p *AnnulusPocket) Schedule() zpass.Schedule    { return p.sched }
func (p *AnnulusPocket) Commands() []motion.Command  { return p.cmds }

// Radii returns the tool-center ring radii cut on one level with the
// given overlap, outermost first.
func (p *AnnulusPocket) Radii(overlap float64) []float64 {
	c := p.cfg
	rOut := c.Radius - 0.5*c.ToolDiam
	rIn := c.Radius - c.Thickness + 0.5*c.ToolDiam
	step := c.ToolDiam * (1 - overlap)
	radii := []float64{rOut}
	for k := 1; ; k++ {
		r := rOut - float64(k)*step
		if r <= rIn+1e-9 {
			break
		}
		radii = append(radii, r)
	}
	if rOut-rIn > 1e-9 {
		radii = append(radii, rIn)
	}
	return radii
}

func (p *AnnulusPocket) build() error {
	c := p.cfg
	center := geom.Pt(c.CenterX, c.CenterY)
	opts := path.CircOptions{Dir: c.Direction}

	b := newBuilder(p.Name())
	b.begin(c)
	b.enter(c.Common, geom.Pt(center.X+c.Radius-0.5*c.ToolDiam, center.Y))
	pairs := p.sched.CutPairs()
	for i, pair := range pairs {
		b.comment("%s: pass %d of %d", p.Name(), i+1, len(pairs))
		overlap := c.Overlap
		if i == len(pairs)-1 {
			overlap = c.finish()
		}
		for k, r := range p.Radii(overlap) {
			o := opts
			if k == 0 {
				o.Helix = &path.Helix{Start: pair.Prev, End: pair.Curr}
			}
			ring, err := path.NewCirc(center, r, 0, 1, o)
			if err != nil {
				return err
			}
			b.add(ring.Commands()...)
		}
	}
	b.leave(c.SafeZ)
	p.cmds = b.cmds
	return nil
}
