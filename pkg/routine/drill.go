package routine

import (
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
)

// DrillConfig describes one drilled hole. A PeckStep selects a peck
// cycle and a BottomDwell a dwell cycle; neither gives a plain drill.
type DrillConfig struct {
	CenterX     float64 `yaml:"centerX" toml:"centerX"`
	CenterY     float64 `yaml:"centerY" toml:"centerY"`
	StartZ      float64 `yaml:"startZ" toml:"startZ"`
	StopZ       float64 `yaml:"stopZ" toml:"stopZ"`
	SafeZ       float64 `yaml:"safeZ" toml:"safeZ"`
	StartDwell  float64 `yaml:"startDwell,omitempty" toml:"startDwell,omitempty"`
	PeckStep    float64 `yaml:"peckStep,omitempty" toml:"peckStep,omitempty"`
	BottomDwell float64 `yaml:"bottomDwell,omitempty" toml:"bottomDwell,omitempty"`
}

func (c DrillConfig) Validate() error {
	if !(c.SafeZ > c.StartZ) {
		return camerr.Param("safeZ", "safeZ %g must be above startZ %g", c.SafeZ, c.StartZ)
	}
	if !(c.StopZ < c.StartZ) {
		return camerr.Param("stopZ", "stopZ %g must be below startZ %g", c.StopZ, c.StartZ)
	}
	if c.StartDwell < 0 {
		return camerr.Param("startDwell", "must be >= 0, got %g", c.StartDwell)
	}
	if c.PeckStep < 0 {
		return camerr.Param("peckStep", "must be >= 0, got %g", c.PeckStep)
	}
	if c.BottomDwell < 0 {
		return camerr.Param("bottomDwell", "must be >= 0, got %g", c.BottomDwell)
	}
	if c.PeckStep > 0 && c.BottomDwell > 0 {
		return camerr.Param("bottomDwell", "cannot be combined with peckStep")
	}
	return nil
}

// Drill positions over a hole and runs a single canned drill cycle with
// the retract plane at StartZ.
type Drill struct {
	cfg  DrillConfig
	cmds []motion.Command
}

func NewDrill(cfg DrillConfig) (*Drill, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Drill{cfg: cfg}
	d.build()
	return d, nil
}

func (d *Drill) Name() string               { return "Drill" }
func (d *Drill) Config() DrillConfig        { return d.cfg }
func (d *Drill) Commands() []motion.Command { return d.cmds }

func (d *Drill) build() {
	c := d.cfg
	b := newBuilder(d.Name())
	b.begin(c)
	b.rapidSafe(c.SafeZ)
	b.rapidXY(geom.Pt(c.CenterX, c.CenterY))
	b.dwell(c.StartDwell)
	b.feedStartZ(c.StartZ)
	b.comment("%s: drill cycle", d.Name())
	b.add(motion.DrillCycle{
		X: c.CenterX, Y: c.CenterY,
		Z: c.StopZ, R: c.StartZ,
		Peck: c.PeckStep, Dwell: c.BottomDwell,
	})
	b.leave(c.SafeZ)
	d.cmds = b.cmds
}
