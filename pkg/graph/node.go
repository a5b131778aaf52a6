package graph

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/samber/lo"
)

// Kind classifies a connected component by its node degrees.
type Kind int

const (
	ClosedLoop Kind = iota // every node has degree 2
	OpenChain              // two degree-1 ends, the rest degree 2
	Complex                // some node has degree > 2
)

func (k Kind) String() string {
	switch k {
	case ClosedLoop:
		return "closed"
	case OpenChain:
		return "open"
	case Complex:
		return "complex"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Component is one connected component.
type Component struct {
	Nodes []NodeID
	Edges []EdgeID
	Kind  Kind
}

// StartCond picks the start node of a trace by an extreme coordinate.
type StartCond int

const (
	MinX StartCond = iota
	MaxX
	MinY
	MaxY
)

var startCondNames = [...]string{"minX", "maxX", "minY", "maxY"}

func (s StartCond) String() string {
	if s >= MinX && s <= MaxY {
		return startCondNames[s]
	}
	return fmt.Sprintf("StartCond(%d)", int(s))
}

// ParseStartCond converts minX, maxX, minY or maxY (any case).
func ParseStartCond(s string) (StartCond, error) {
	for i, n := range startCondNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return StartCond(i), nil
		}
	}
	return 0, camerr.Param("startCond", "unknown start condition %q, expected minX, maxX, minY or maxY", s)
}

func (s StartCond) MarshalText() ([]byte, error) {
	if s < MinX || s > MaxY {
		return nil, camerr.Param("startCond", "cannot encode %s", s)
	}
	return []byte(s.String()), nil
}

func (s *StartCond) UnmarshalText(text []byte) error {
	v, err := ParseStartCond(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Pick returns the node of nodes with the extreme coordinate. Ties go to
// the earliest node in the slice.
func (s StartCond) Pick(g *EntityGraph, nodes []NodeID) NodeID {
	key := func(id NodeID) float64 {
		p := g.Nodes[id].Pos
		if s == MinY || s == MaxY {
			return p.Y
		}
		return p.X
	}
	if s == MinX || s == MinY {
		return lo.MinBy(nodes, func(a, b NodeID) bool { return key(a) < key(b) })
	}
	return lo.MaxBy(nodes, func(a, b NodeID) bool { return key(a) > key(b) })
}

// Step is one edge of a trace, with Seg oriented From -> To.
type Step struct {
	Edge EdgeID
	From NodeID
	To   NodeID
	Seg  geom.Segment
}

func (g *EntityGraph) step(eid EdgeID, from NodeID) Step {
	e := g.Edges[eid]
	s := Step{Edge: eid, From: from, To: e.Other(from), Seg: e.Seg}
	if e.From != from {
		s.Seg = e.Seg.Reverse()
	}
	return s
}

// TraceOpen walks an open chain from the end chosen by cond to the other
// end.
func (g *EntityGraph) TraceOpen(c Component, cond StartCond) ([]Step, error) {
	if c.Kind != OpenChain {
		return nil, camerr.Param("startCond", "cannot trace a %s component as an open chain", c.Kind)
	}
	ends := lo.Filter(c.Nodes, func(id NodeID, _ int) bool { return g.Nodes[id].Degree() == 1 })
	if len(ends) != 2 {
		return nil, camerr.Geometry("open chain has %d ends", len(ends))
	}
	start := cond.Pick(g, ends)
	return g.walk(start, g.Nodes[start].Edges[0], len(c.Edges)), nil
}

// TraceClosed walks a closed loop once around from the node chosen by
// cond, leaving along its lowest-numbered edge.
func (g *EntityGraph) TraceClosed(c Component, cond StartCond) ([]Step, error) {
	if c.Kind != ClosedLoop {
		return nil, camerr.Param("startCond", "cannot trace a %s component as a closed loop", c.Kind)
	}
	start := cond.Pick(g, c.Nodes)
	first := lo.Min(g.Nodes[start].Edges)
	return g.walk(start, first, len(c.Edges)), nil
}

// walk follows edges without reusing the edge just arrived on, for at
// most n steps or until a dead end.
func (g *EntityGraph) walk(start NodeID, first EdgeID, n int) []Step {
	steps := make([]Step, 0, n)
	at, via := start, first
	for len(steps) < n {
		s := g.step(via, at)
		steps = append(steps, s)
		at = s.To
		next, ok := lo.Find(g.Nodes[at].Edges, func(e EdgeID) bool { return e != via })
		if !ok {
			break
		}
		via = next
	}
	return steps
}

// Decompose returns every edge of c as a single-step chain, the way
// branching components are cut. Each edge starts at the end chosen by
// cond.
func (g *EntityGraph) Decompose(c Component, cond StartCond) [][]Step {
	return lo.Map(c.Edges, func(eid EdgeID, _ int) []Step {
		e := g.Edges[eid]
		return []Step{g.step(eid, cond.Pick(g, []NodeID{e.From, e.To}))}
	})
}

// Reverse returns the trace walked backwards.
func Reverse(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[len(steps)-1-i] = Step{Edge: s.Edge, From: s.To, To: s.From, Seg: s.Seg.Reverse()}
	}
	return out
}

// Points flattens a trace into a point list, tessellating arcs into
// chords no longer than maxArcLen.
func Points(steps []Step, maxArcLen float64) ([]geom.Vec, error) {
	return geom.Polyline(lo.Map(steps, func(s Step, _ int) geom.Segment { return s.Seg }), maxArcLen)
}
