package routine

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/path"
	"github.com/chazu/kerf/pkg/zpass"
)

// FaceSurfaceConfig describes facing a rectangular area of the top
// surface. Rows run along Along and overhang the area by half a tool.
type FaceSurfaceConfig struct {
	Common `yaml:",inline"`

	MinX    float64     `yaml:"minX" toml:"minX"`
	MinY    float64     `yaml:"minY" toml:"minY"`
	MaxX    float64     `yaml:"maxX" toml:"maxX"`
	MaxY    float64     `yaml:"maxY" toml:"maxY"`
	Overlap float64     `yaml:"overlap" toml:"overlap"`
	Along   motion.Axis `yaml:"along,omitempty" toml:"along,omitempty"`
}

func (c FaceSurfaceConfig) Validate() error {
	if err := c.Common.validate(false); err != nil {
		return err
	}
	if !(c.MaxX > c.MinX) || !(c.MaxY > c.MinY) {
		return camerr.Param("maxX", "area (%g,%g)-(%g,%g) is empty", c.MinX, c.MinY, c.MaxX, c.MaxY)
	}
	if c.Along != motion.X && c.Along != motion.Y {
		return camerr.Param("along", "must be x or y, got %s", c.Along)
	}
	return checkOverlap("overlap", c.Overlap, 0)
}

// FaceSurface mills a flat area with a back-and-forth raster on every Z
// level.
type FaceSurface struct {
	cfg   FaceSurfaceConfig
	sched zpass.Schedule
	cmds  []motion.Command
}

func NewFaceSurface(cfg FaceSurfaceConfig) (*FaceSurface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sched, err := zpass.New(cfg.StartZ, cfg.Depth, cfg.MaxCutDepth)
	if err != nil {
		return nil, err
	}
	f := &FaceSurface{cfg: cfg, sched: sched}
	if err := f.build(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FaceSurface) Name() string               { return "FaceSurface" }
func (f *FaceSurface) Config() FaceSurfaceConfig  { return f.cfg }
func (f *FaceSurface) Schedule() zpass.Schedule   { return f.sched }
func (f *FaceSurface) Commands() []motion.Command { return f.cmds }

func (f *FaceSurface) build() error {
	c := f.cfg
	r := 0.5 * c.ToolDiam
	p0, p1 := geom.Pt(c.MinX-r, c.MinY), geom.Pt(c.MaxX+r, c.MaxY)
	span := c.MaxY - c.MinY
	if c.Along == motion.Y {
		p0, p1 = geom.Pt(c.MinX, c.MinY-r), geom.Pt(c.MaxX, c.MaxY+r)
		span = c.MaxX - c.MinX
	}
	step := math.Min(c.ToolDiam*(1-c.Overlap), span)
	raster, err := path.NewBiDirRaster(p0, p1, step, motion.PlaneXY, c.Along)
	if err != nil {
		return err
	}

	b := newBuilder(f.Name())
	b.begin(c)
	b.enter(c.Common, p0)
	pairs := f.sched.CutPairs()
	for i, pair := range pairs {
		if i > 0 {
			b.rapidSafe(c.SafeZ)
			b.rapidXY(p0)
			b.add(motion.Rapid{Target: motion.ZOnly(c.StartZ)})
		}
		b.comment("%s: pass %d of %d", f.Name(), i+1, len(pairs))
		b.add(motion.Linear{Target: motion.ZOnly(pair.Curr)})
		b.add(raster.Commands()...)
	}
	b.leave(c.SafeZ)
	f.cmds = b.cmds
	return nil
}

// SideSurfaceConfig describes milling a vertical face in the XZ or YZ
// plane. Position is the face location on the plane's normal axis and
// Side the direction from the face toward the tool. Rows run between
// Minimum and Maximum along the plane's horizontal axis in CutDirection,
// stepping down by MaxCutDepth.
type SideSurfaceConfig struct {
	Common `yaml:",inline"`

	Plane        motion.Plane `yaml:"plane" toml:"plane"`
	Side         Sense        `yaml:"side" toml:"side"`
	CutDirection Sense        `yaml:"cutDirection" toml:"cutDirection"`
	Position     float64      `yaml:"position" toml:"position"`
	Minimum      float64      `yaml:"minimum" toml:"minimum"`
	Maximum      float64      `yaml:"maximum" toml:"maximum"`
	ReturnDist   float64      `yaml:"returnDist" toml:"returnDist"`
}

func (c SideSurfaceConfig) Validate() error {
	if err := c.Common.validate(false); err != nil {
		return err
	}
	if c.Plane != motion.PlaneXZ && c.Plane != motion.PlaneYZ {
		return camerr.Param("plane", "must be xz or yz, got %s", c.Plane)
	}
	if !(c.Maximum > c.Minimum) {
		return camerr.Param("maximum", "maximum %g must exceed minimum %g", c.Maximum, c.Minimum)
	}
	if !(c.ReturnDist > 0) {
		return camerr.Param("returnDist", "must be > 0, got %g", c.ReturnDist)
	}
	return nil
}

// SideSurface mills a vertical face with one-way rows. The tool backs off
// by ReturnDist for every return stroke.
type SideSurface struct {
	cfg  SideSurfaceConfig
	cmds []motion.Command
}

func NewSideSurface(cfg SideSurfaceConfig) (*SideSurface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &SideSurface{cfg: cfg}
	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SideSurface) Name() string               { return "SideSurface" }
func (s *SideSurface) Config() SideSurfaceConfig  { return s.cfg }
func (s *SideSurface) Commands() []motion.Command { return s.cmds }

func (s *SideSurface) build() error {
	c := s.cfg
	sgn := c.Side.sign()
	cut := c.Position + sgn*0.5*c.ToolDiam
	ret := cut + sgn*c.ReturnDist
	a0, a1 := c.Minimum, c.Maximum
	if c.CutDirection == Minus {
		a0, a1 = a1, a0
	}
	depth := c.Depth
	along, _ := c.Plane.InPlane()
	raster, err := path.NewUniDirRaster(
		geom.Pt(a0, c.StartZ), geom.Pt(a1, c.StartZ-depth),
		math.Min(c.MaxCutDepth, depth), cut, ret, c.Plane, along,
	)
	if err != nil {
		return err
	}

	b := newBuilder(s.Name())
	b.begin(c)
	b.rapidSafe(c.SafeZ)
	b.comment("%s: rapid move to start", s.Name())
	b.add(motion.Rapid{Target: motion.Axes{}.With(along, a0).With(c.Plane.Normal(), ret)})
	b.dwell(c.StartDwell)
	b.feedStartZ(c.StartZ)
	b.add(raster.Commands()...)
	b.leave(c.SafeZ)
	s.cmds = b.cmds
	return nil
}
