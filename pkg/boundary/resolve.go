// Package boundary resolves unordered drawing entities into ordered,
// oriented cutting paths and builds the DXF-driven machining operations
// on top of them.
package boundary

import (
	"math"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/routine"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DefaultMaxArcLen is the default chord length used to flatten arcs.
const DefaultMaxArcLen = 0.05

// Options control entity selection, merging, tracing and orientation.
type Options struct {
	// Layers and Types filter the entities; empty means all.
	Layers []string
	Types  []cad.Type

	PtEquivTol float64
	MaxArcLen  float64
	StartCond  graph.StartCond
	// Direction reorients simple closed loops. Zero keeps the traced
	// orientation.
	Direction  geom.Direction
	CutterComp routine.CompMode
	Logger     *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.PtEquivTol == 0 {
		o.PtEquivTol = geom.DefaultTol
	}
	if o.MaxArcLen == 0 {
		o.MaxArcLen = DefaultMaxArcLen
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Options) validate() error {
	if o.Direction != 0 && !o.Direction.Valid() {
		return camerr.Param("direction", "unknown direction %s", o.Direction)
	}
	if o.StartCond < graph.MinX || o.StartCond > graph.MaxY {
		return camerr.Param("startCond", "unknown start condition %s", o.StartCond)
	}
	if o.CutterComp < routine.CompNone || o.CutterComp > routine.CompOutside {
		return camerr.Param("cutterComp", "unknown mode %s", o.CutterComp)
	}
	if math.IsNaN(o.MaxArcLen) || o.MaxArcLen <= 0 {
		return camerr.Param("maxArcLen", "must be > 0, got %g", o.MaxArcLen)
	}
	return nil
}

// Resolved is one cutting path. Closed paths end on their first point.
// Side is set only when compensation was requested.
type Resolved struct {
	Points []geom.Vec
	Closed bool
	Kind   graph.Kind
	Simple bool
	Side   motion.Side
}

// Comp returns the compensation mode that reproduces Side, for handing
// the path to a boundary routine.
func (r Resolved) Comp() routine.CompMode {
	switch r.Side {
	case motion.Left:
		return routine.CompLeft
	case motion.Right:
		return routine.CompRight
	}
	return routine.CompNone
}

// Resolve turns entities into cutting paths. LINE and ARC entities are
// merged into a graph and each connected component is traced; closed
// loops start at the node picked by StartCond and run in Direction when
// they are simple, open chains run from the end picked by StartCond, and
// branching components are cut edge by edge. Each CIRCLE becomes its own
// closed loop. Graph paths come first in component order, then circles in
// entity order.
func Resolve(entities []cad.Entity, opts Options) ([]Resolved, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	selected := cad.Select(entities, opts.Layers, opts.Types)
	edges := lo.Filter(selected, func(e cad.Entity, _ int) bool { return e.Type == cad.Line || e.Type == cad.Arc })
	circles := lo.Filter(selected, func(e cad.Entity, _ int) bool { return e.Type == cad.Circle })

	segs := make([]geom.Segment, len(edges))
	for i, e := range edges {
		s, err := e.Segment()
		if err != nil {
			return nil, err
		}
		segs[i] = s
	}
	g, err := graph.Build(segs, opts.PtEquivTol)
	if err != nil {
		return nil, err
	}
	check := graph.Validate(g)
	for _, w := range check.Warnings {
		log.Warn("drawing check", zap.String("finding", w.Error()))
	}
	if err := check.Err(); err != nil {
		return nil, err
	}
	comps := g.Components()

	var out []Resolved
	for i, c := range comps {
		log.Debug("component",
			zap.Int("index", i),
			zap.Stringer("kind", c.Kind),
			zap.Int("nodes", len(c.Nodes)),
			zap.Int("edges", len(c.Edges)),
		)
		var rs []Resolved
		switch c.Kind {
		case graph.ClosedLoop:
			r, err := resolveLoop(g, c, opts)
			if err != nil {
				return nil, err
			}
			rs = []Resolved{r}
		case graph.OpenChain:
			r, err := resolveChain(g, c, opts)
			if err != nil {
				return nil, err
			}
			rs = []Resolved{r}
		case graph.Complex:
			rs, err = resolveComplex(g, c, opts)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, rs...)
	}
	for _, e := range circles {
		r, err := resolveCircle(e, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	log.Info("boundary resolved",
		zap.Int("entities", len(selected)),
		zap.Int("components", len(comps)),
		zap.Int("circles", len(circles)),
		zap.Int("paths", len(out)),
		zap.Int("dropped", g.Dropped),
	)
	return out, nil
}

func resolveLoop(g *graph.EntityGraph, c graph.Component, opts Options) (Resolved, error) {
	steps, err := g.TraceClosed(c, opts.StartCond)
	if err != nil {
		return Resolved{}, err
	}
	pts, err := graph.Points(steps, opts.MaxArcLen)
	if err != nil {
		return Resolved{}, err
	}
	r := Resolved{Closed: true, Kind: graph.ClosedLoop, Simple: geom.IsSimple(pts, opts.PtEquivTol)}
	if r.Simple && opts.Direction.Valid() && geom.Winding(pts) != opts.Direction {
		if pts, err = graph.Points(graph.Reverse(steps), opts.MaxArcLen); err != nil {
			return Resolved{}, err
		}
	}
	r.Points = pts
	if opts.CutterComp == routine.CompNone {
		return r, nil
	}
	if !r.Simple {
		return Resolved{}, camerr.Param("cutterComp", "closed loop starting at (%g, %g) is self-intersecting", pts[0].X, pts[0].Y)
	}
	r.Side, err = routine.ResolveSide(opts.CutterComp, geom.Winding(pts))
	return r, err
}

func resolveChain(g *graph.EntityGraph, c graph.Component, opts Options) (Resolved, error) {
	steps, err := g.TraceOpen(c, opts.StartCond)
	if err != nil {
		return Resolved{}, err
	}
	return chain(steps, graph.OpenChain, opts)
}

func chain(steps []graph.Step, kind graph.Kind, opts Options) (Resolved, error) {
	pts, err := graph.Points(steps, opts.MaxArcLen)
	if err != nil {
		return Resolved{}, err
	}
	if opts.CutterComp != routine.CompNone {
		return Resolved{}, camerr.Param("cutterComp", "must be unset for line strings; open chain starts at (%g, %g)", pts[0].X, pts[0].Y)
	}
	return Resolved{Points: pts, Kind: kind, Simple: geom.IsSimple(pts, opts.PtEquivTol)}, nil
}

func resolveComplex(g *graph.EntityGraph, c graph.Component, opts Options) ([]Resolved, error) {
	if opts.CutterComp != routine.CompNone {
		n := g.Node(c.Nodes[0])
		return nil, camerr.Param("cutterComp", "branching geometry near (%g, %g) cannot be compensated", n.Pos.X, n.Pos.Y)
	}
	var out []Resolved
	for _, steps := range g.Decompose(c, opts.StartCond) {
		r, err := chain(steps, graph.Complex, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// circleStart is the angle of the point on a circle picked by each start
// condition.
var circleStart = map[graph.StartCond]float64{
	graph.MinX: math.Pi,
	graph.MaxX: 0,
	graph.MinY: 1.5 * math.Pi,
	graph.MaxY: 0.5 * math.Pi,
}

func resolveCircle(e cad.Entity, opts Options) (Resolved, error) {
	a0 := circleStart[opts.StartCond]
	arc, err := geom.NewArc(e.Center, e.Radius, a0, a0+2*math.Pi, geom.CCW)
	if err != nil {
		return Resolved{}, err
	}
	pts, err := geom.Polyline([]geom.Segment{arc}, opts.MaxArcLen)
	if err != nil {
		return Resolved{}, err
	}
	pts[len(pts)-1] = pts[0]
	if opts.Direction == geom.CW {
		pts = geom.Reversed(pts)
	}
	r := Resolved{Points: pts, Closed: true, Kind: graph.ClosedLoop, Simple: true}
	if opts.CutterComp != routine.CompNone {
		r.Side, err = routine.ResolveSide(opts.CutterComp, geom.Winding(pts))
	}
	return r, err
}
