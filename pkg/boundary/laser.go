package boundary

import (
	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/path"
	"go.uber.org/zap"
)

// Laser defaults.
const (
	DefaultLaserPower     = 300
	DefaultLaserFeed      = 20
	DefaultLaserPin       = 1
	DefaultLaserMaxArcLen = 0.01
	// laser blending tolerance for PathBlend P and Q
	laserBlendTol = 0.001
)

// DefaultLaserHome is where the head parks after a job.
var DefaultLaserHome = [2]float64{35, 23}

// LaserVectorCutConfig describes a vector cut. Zero values take the
// defaults above; Home nil parks at DefaultLaserHome.
type LaserVectorCutConfig struct {
	Source `yaml:",inline"`

	LaserPower float64         `yaml:"laserPower,omitempty" toml:"laserPower,omitempty"`
	FeedRate   float64         `yaml:"feedRate,omitempty" toml:"feedRate,omitempty"`
	Pin        int             `yaml:"laserPin,omitempty" toml:"laserPin,omitempty"`
	Home       *[2]float64     `yaml:"laserHome,omitempty,flow" toml:"laserHome,omitempty"`
	PtEquivTol float64         `yaml:"ptEquivTol,omitempty" toml:"ptEquivTol,omitempty"`
	MaxArcLen  float64         `yaml:"maxArcLen,omitempty" toml:"maxArcLen,omitempty"`
	StartCond  graph.StartCond `yaml:"startCond,omitempty" toml:"startCond,omitempty"`
	Direction  geom.Direction  `yaml:"direction,omitempty" toml:"direction,omitempty"`
}

func (c LaserVectorCutConfig) withDefaults() LaserVectorCutConfig {
	if c.LaserPower == 0 {
		c.LaserPower = DefaultLaserPower
	}
	if c.FeedRate == 0 {
		c.FeedRate = DefaultLaserFeed
	}
	if c.Pin == 0 {
		c.Pin = DefaultLaserPin
	}
	if c.Home == nil {
		h := DefaultLaserHome
		c.Home = &h
	}
	if c.PtEquivTol == 0 {
		c.PtEquivTol = geom.DefaultTol
	}
	if c.MaxArcLen == 0 {
		c.MaxArcLen = DefaultLaserMaxArcLen
	}
	return c
}

func (c LaserVectorCutConfig) Validate() error {
	if c.LaserPower < 0 {
		return camerr.Param("laserPower", "must be >= 0, got %g", c.LaserPower)
	}
	if !(c.FeedRate > 0) {
		return camerr.Param("feedRate", "must be > 0, got %g", c.FeedRate)
	}
	if c.Pin < 0 {
		return camerr.Param("laserPin", "must be >= 0, got %d", c.Pin)
	}
	return nil
}

var laserTypes = []cad.Type{cad.Line, cad.Arc}

// LaserVectorCut traces resolved drawing paths with a laser gated by a
// digital output. Each path runs in path-blend mode with the output switched on
// in sync with the first move.
type LaserVectorCut struct {
	cfg   LaserVectorCutConfig
	paths []Resolved
	cmds  []motion.Command
}

func NewLaserVectorCut(d *cad.Drawing, cfg LaserVectorCutConfig, logger *zap.Logger) (*LaserVectorCut, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	entities, err := cfg.entities(d, []cad.Type{cad.Line}, laserTypes)
	if err != nil {
		return nil, err
	}
	paths, err := Resolve(entities, Options{
		PtEquivTol: cfg.PtEquivTol,
		MaxArcLen:  cfg.MaxArcLen,
		StartCond:  cfg.StartCond,
		Direction:  cfg.Direction,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	lc := &LaserVectorCut{cfg: cfg, paths: paths}
	if err := lc.build(); err != nil {
		return nil, err
	}
	return lc, nil
}

func (lc *LaserVectorCut) Name() string                 { return "LaserVectorCut" }
func (lc *LaserVectorCut) Config() LaserVectorCutConfig { return lc.cfg }
func (lc *LaserVectorCut) Paths() []Resolved            { return lc.paths }
func (lc *LaserVectorCut) Commands() []motion.Command   { return lc.cmds }

func (lc *LaserVectorCut) add(cmds ...motion.Command) {
	lc.cmds = append(lc.cmds, cmds...)
}

func (lc *LaserVectorCut) comment(text string) {
	lc.add(motion.Comment{Text: text})
}

func (lc *LaserVectorCut) laser(on, sync bool) motion.Command {
	return motion.DigitalOutput{Pin: lc.cfg.Pin, On: on, Synchronized: sync}
}

func (lc *LaserVectorCut) build() error {
	c := lc.cfg
	lc.comment("Setup laser")
	lc.add(
		motion.FeedRate{Rate: c.FeedRate},
		lc.laser(false, false),
		motion.SpindleSpeed{Speed: c.LaserPower},
		motion.StartSpindle{},
	)

	for i, p := range lc.paths {
		verts := make([]path.Vertex, len(p.Points))
		for k, pt := range p.Points {
			verts[k] = path.Vertex{Pos: pt}
		}
		ls, err := path.NewLineSeg(verts, false, motion.PlaneXY, nil)
		if err != nil {
			return err
		}
		start := p.Points[0]
		lc.comment(pathComment(lc.Name(), i, len(lc.paths), p))
		lc.comment(lc.Name() + ": rapid move to start x,y")
		lc.add(
			motion.Rapid{Target: motion.XY(start.X, start.Y)},
			motion.PathBlend{P: laserBlendTol, Q: laserBlendTol},
		)
		lc.comment("Laser on")
		lc.add(lc.laser(true, true))
		lc.add(ls.Commands()...)
		lc.comment("Laser off")
		lc.add(lc.laser(false, false), motion.ExactPath{})
	}

	lc.comment("Shutdown laser")
	lc.add(
		lc.laser(false, false),
		motion.StopSpindle{},
		motion.SpindleSpeed{Speed: 0},
	)
	lc.comment(lc.Name() + ": rapid move to home")
	lc.add(motion.Rapid{Target: motion.XY(c.Home[0], c.Home[1])})
	return nil
}
