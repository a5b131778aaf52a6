package boundary

import (
	"fmt"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/routine"
	"go.uber.org/zap"
)

// Source selects the drawing entities an operation works on. Empty
// Layers means every layer; empty Types means the operation's defaults.
type Source struct {
	File   string     `yaml:"file,omitempty" toml:"file,omitempty"`
	Layers []string   `yaml:"layers,omitempty,flow" toml:"layers,omitempty"`
	Types  []cad.Type `yaml:"dxfTypes,omitempty,flow" toml:"dxfTypes,omitempty"`
}

func (s Source) types(defaults, allowed []cad.Type) ([]cad.Type, error) {
	if len(s.Types) == 0 {
		return defaults, nil
	}
	return s.Types, cad.CheckTypes(s.Types, allowed)
}

func (s Source) entities(d *cad.Drawing, defaults, allowed []cad.Type) ([]cad.Entity, error) {
	if d == nil {
		return nil, camerr.Param("file", "no drawing given")
	}
	types, err := s.types(defaults, allowed)
	if err != nil {
		return nil, err
	}
	return d.Select(s.Layers, types), nil
}

// DxfBoundaryConfig cuts every path resolved from a drawing with the
// line-segment boundary routine.
type DxfBoundaryConfig struct {
	routine.Common `yaml:",inline"`
	Source         `yaml:",inline"`

	PtEquivTol float64          `yaml:"ptEquivTol,omitempty" toml:"ptEquivTol,omitempty"`
	MaxArcLen  float64          `yaml:"maxArcLen,omitempty" toml:"maxArcLen,omitempty"`
	StartCond  graph.StartCond  `yaml:"startCond,omitempty" toml:"startCond,omitempty"`
	CutterComp routine.CompMode `yaml:"cutterComp,omitempty" toml:"cutterComp,omitempty"`
}

var boundaryTypes = []cad.Type{cad.Line, cad.Arc, cad.Circle}

// DxfBoundary is a sequence of line-segment boundaries, one per resolved
// path.
type DxfBoundary struct {
	cfg   DxfBoundaryConfig
	paths []Resolved
	cmds  []motion.Command
}

func NewDxfBoundary(d *cad.Drawing, cfg DxfBoundaryConfig, logger *zap.Logger) (*DxfBoundary, error) {
	if err := cfg.Common.Validate(); err != nil {
		return nil, err
	}
	entities, err := cfg.entities(d, boundaryTypes, boundaryTypes)
	if err != nil {
		return nil, err
	}
	paths, err := Resolve(entities, Options{
		PtEquivTol: cfg.PtEquivTol,
		MaxArcLen:  cfg.MaxArcLen,
		StartCond:  cfg.StartCond,
		Direction:  cfg.Direction,
		CutterComp: cfg.CutterComp,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	db := &DxfBoundary{cfg: cfg, paths: paths}
	for i, p := range paths {
		common := cfg.Common
		// paths are already oriented
		common.Direction = 0
		lb, err := routine.NewLineSegBoundary(routine.LineSegBoundaryConfig{
			Common:     common,
			Points:     pairs(p),
			Closed:     p.Closed,
			CutterComp: p.Comp(),
		})
		if err != nil {
			return nil, err
		}
		db.cmds = append(db.cmds, motion.Comment{Text: pathComment(db.Name(), i, len(paths), p)})
		db.cmds = append(db.cmds, lb.Commands()...)
	}
	return db, nil
}

func (db *DxfBoundary) Name() string               { return "DxfBoundary" }
func (db *DxfBoundary) Config() DxfBoundaryConfig  { return db.cfg }
func (db *DxfBoundary) Paths() []Resolved          { return db.paths }
func (db *DxfBoundary) Commands() []motion.Command { return db.cmds }

// DxfDrillConfig drills at the center of every selected POINT, CIRCLE
// and ARC. The drill's own centerX and centerY are ignored.
type DxfDrillConfig struct {
	routine.DrillConfig `yaml:",inline"`
	Source              `yaml:",inline"`
}

var drillTypes = []cad.Type{cad.Point, cad.Circle, cad.Arc}

type DxfDrill struct {
	cfg   DxfDrillConfig
	holes int
	cmds  []motion.Command
}

func NewDxfDrill(d *cad.Drawing, cfg DxfDrillConfig) (*DxfDrill, error) {
	if err := cfg.DrillConfig.Validate(); err != nil {
		return nil, err
	}
	entities, err := cfg.entities(d, drillTypes, drillTypes)
	if err != nil {
		return nil, err
	}
	dd := &DxfDrill{cfg: cfg, holes: len(entities)}
	for _, e := range entities {
		hole := cfg.DrillConfig
		hole.CenterX, hole.CenterY = e.Center.X, e.Center.Y
		r, err := routine.NewDrill(hole)
		if err != nil {
			return nil, err
		}
		dd.cmds = append(dd.cmds, r.Commands()...)
	}
	return dd, nil
}

func (dd *DxfDrill) Name() string               { return "DxfDrill" }
func (dd *DxfDrill) Config() DxfDrillConfig     { return dd.cfg }
func (dd *DxfDrill) Holes() int                 { return dd.holes }
func (dd *DxfDrill) Commands() []motion.Command { return dd.cmds }

// DxfCircPocketConfig pockets every selected CIRCLE at its own radius.
// The pocket's own center and radius are ignored.
type DxfCircPocketConfig struct {
	routine.CircPocketConfig `yaml:",inline"`
	Source                   `yaml:",inline"`
}

var pocketTypes = []cad.Type{cad.Circle}

type DxfCircPocket struct {
	cfg     DxfCircPocketConfig
	pockets int
	cmds    []motion.Command
}

func NewDxfCircPocket(d *cad.Drawing, cfg DxfCircPocketConfig) (*DxfCircPocket, error) {
	if err := cfg.Common.Validate(); err != nil {
		return nil, err
	}
	entities, err := cfg.entities(d, pocketTypes, pocketTypes)
	if err != nil {
		return nil, err
	}
	dp := &DxfCircPocket{cfg: cfg, pockets: len(entities)}
	for _, e := range entities {
		pc := cfg.CircPocketConfig
		pc.CenterX, pc.CenterY, pc.Radius = e.Center.X, e.Center.Y, e.Radius
		r, err := routine.NewCircPocket(pc)
		if err != nil {
			return nil, err
		}
		dp.cmds = append(dp.cmds, r.Commands()...)
	}
	return dp, nil
}

func (dp *DxfCircPocket) Name() string                { return "DxfCircPocket" }
func (dp *DxfCircPocket) Config() DxfCircPocketConfig { return dp.cfg }
func (dp *DxfCircPocket) Pockets() int                { return dp.pockets }
func (dp *DxfCircPocket) Commands() []motion.Command  { return dp.cmds }

func pairs(r Resolved) [][2]float64 {
	out := make([][2]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

func pathComment(name string, i, n int, p Resolved) string {
	return fmt.Sprintf("%s: path %d of %d, %s, %d points", name, i+1, n, p.Kind, len(p.Points))
}
