package graph

import (
	"math"
	"sort"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/dhconnelly/rtreego"
)

// bucketThreshold is the endpoint count above which merging uses an
// R-tree instead of pairwise comparison.
const bucketThreshold = 2048

// NodeID indexes EntityGraph.Nodes.
type NodeID int

// EdgeID indexes EntityGraph.Edges.
type EdgeID int

// Node is a merged endpoint.
type Node struct {
	ID NodeID
	// Pos is the first endpoint merged into the node.
	Pos   geom.Vec
	Edges []EdgeID
}

// Degree returns the number of edge ends at the node.
func (n *Node) Degree() int {
	return len(n.Edges)
}

// Edge is one drawing segment between two nodes. Seg runs From -> To.
type Edge struct {
	ID   EdgeID
	Seg  geom.Segment
	From NodeID
	To   NodeID
	// Ref is the index of the segment in the slice passed to Build.
	Ref int
}

// Other returns the end of e opposite n.
func (e *Edge) Other(n NodeID) NodeID {
	if e.From == n {
		return e.To
	}
	return e.From
}

// EntityGraph is an undirected multigraph of segments. Parallel edges are
// kept, so two arcs forming a circle make a two-node loop.
type EntityGraph struct {
	Nodes []*Node
	Edges []*Edge
	Tol   float64
	// Dropped counts segments discarded because both ends merged into the
	// same node.
	Dropped int
}

// New returns an empty graph with the given merge tolerance.
func New(tol float64) *EntityGraph {
	return &EntityGraph{Tol: tol}
}

// AddNode appends a node at pos.
func (g *EntityGraph) AddNode(pos geom.Vec) NodeID {
	id := NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, &Node{ID: id, Pos: pos})
	return id
}

// AddEdge appends an edge between existing nodes. Self-loops are dropped
// and reported with ok false.
func (g *EntityGraph) AddEdge(seg geom.Segment, from, to NodeID, ref int) (EdgeID, bool) {
	if from == to {
		g.Dropped++
		return -1, false
	}
	id := EdgeID(len(g.Edges))
	g.Edges = append(g.Edges, &Edge{ID: id, Seg: seg, From: from, To: to, Ref: ref})
	g.Nodes[from].Edges = append(g.Nodes[from].Edges, id)
	g.Nodes[to].Edges = append(g.Nodes[to].Edges, id)
	return id, true
}

// Node returns the node with the given id.
func (g *EntityGraph) Node(id NodeID) *Node { return g.Nodes[id] }

// Edge returns the edge with the given id.
func (g *EntityGraph) Edge(id EdgeID) *Edge { return g.Edges[id] }

// Build merges segment endpoints and adds one edge per segment. A point
// joins the node of the earliest previously seen point closer than tol;
// otherwise it starts a new node.
func Build(segs []geom.Segment, tol float64) (*EntityGraph, error) {
	return build(segs, tol, 2*len(segs) > bucketThreshold)
}

func build(segs []geom.Segment, tol float64, bucketed bool) (*EntityGraph, error) {
	if math.IsNaN(tol) || tol <= 0 {
		return nil, camerr.Param("ptEquivTol", "must be > 0, got %g", tol)
	}
	g := New(tol)
	var m merger = &linearMerger{tol: tol}
	if bucketed {
		m = newTreeMerger(tol)
	}
	nodeFor := func(p geom.Vec) NodeID {
		if id, ok := m.find(p); ok {
			m.add(p, id)
			return id
		}
		id := g.AddNode(p)
		m.add(p, id)
		return id
	}
	for i, s := range segs {
		if s == nil {
			return nil, camerr.Geometry("segment %d is nil", i)
		}
		from := nodeFor(s.StartPoint())
		to := nodeFor(s.EndPoint())
		g.AddEdge(s, from, to, i)
	}
	return g, nil
}

// merger remembers every endpoint seen so far and finds the earliest one
// within tolerance of a new point.
type merger interface {
	find(p geom.Vec) (NodeID, bool)
	add(p geom.Vec, id NodeID)
}

type seenPoint struct {
	idx  int
	pos  geom.Vec
	node NodeID
	box  rtreego.Rect
}

func (s *seenPoint) Bounds() rtreego.Rect { return s.box }

type linearMerger struct {
	tol  float64
	seen []seenPoint
}

func (m *linearMerger) find(p geom.Vec) (NodeID, bool) {
	for _, q := range m.seen {
		if geom.Dist(p, q.pos) < m.tol {
			return q.node, true
		}
	}
	return 0, false
}

func (m *linearMerger) add(p geom.Vec, id NodeID) {
	m.seen = append(m.seen, seenPoint{idx: len(m.seen), pos: p, node: id})
}

type treeMerger struct {
	tol  float64
	n    int
	tree *rtreego.Rtree
}

func newTreeMerger(tol float64) *treeMerger {
	return &treeMerger{tol: tol, tree: rtreego.NewTree(2, 25, 50)}
}

func (m *treeMerger) find(p geom.Vec) (NodeID, bool) {
	hits := m.tree.SearchIntersect(rtreego.Point{p.X, p.Y}.ToRect(m.tol))
	var best *seenPoint
	for _, h := range hits {
		q := h.(*seenPoint)
		if geom.Dist(p, q.pos) < m.tol && (best == nil || q.idx < best.idx) {
			best = q
		}
	}
	if best == nil {
		return 0, false
	}
	return best.node, true
}

func (m *treeMerger) add(p geom.Vec, id NodeID) {
	m.tree.Insert(&seenPoint{idx: m.n, pos: p, node: id, box: rtreego.Point{p.X, p.Y}.ToRect(m.tol)})
	m.n++
}

// Components partitions the graph into connected components, ordered by
// their lowest node id, and classifies each. A node with no edges belongs
// to no component; Validate reports it.
func (g *EntityGraph) Components() []Component {
	seen := make([]bool, len(g.Nodes))
	var comps []Component
	for _, start := range g.Nodes {
		if seen[start.ID] {
			continue
		}
		if start.Degree() == 0 {
			continue
		}
		var c Component
		edgeSeen := map[EdgeID]bool{}
		queue := []NodeID{start.ID}
		seen[start.ID] = true
		for len(queue) > 0 {
			n := g.Nodes[queue[0]]
			queue = queue[1:]
			c.Nodes = append(c.Nodes, n.ID)
			for _, eid := range n.Edges {
				if !edgeSeen[eid] {
					edgeSeen[eid] = true
					c.Edges = append(c.Edges, eid)
				}
				o := g.Edges[eid].Other(n.ID)
				if !seen[o] {
					seen[o] = true
					queue = append(queue, o)
				}
			}
		}
		sort.Slice(c.Nodes, func(i, j int) bool { return c.Nodes[i] < c.Nodes[j] })
		sort.Slice(c.Edges, func(i, j int) bool { return c.Edges[i] < c.Edges[j] })
		c.Kind = g.classify(c.Nodes)
		comps = append(comps, c)
	}
	return comps
}

func (g *EntityGraph) classify(nodes []NodeID) Kind {
	lo, hi := math.MaxInt, 0
	for _, id := range nodes {
		d := g.Nodes[id].Degree()
		lo = min(lo, d)
		hi = max(hi, d)
	}
	switch {
	case hi > 2:
		return Complex
	case lo == 2:
		return ClosedLoop
	default:
		return OpenChain
	}
}
