package path

import (
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
)

// Vertex is one point of a polyline. Depth, when set, is the value of the
// plane's normal axis at the vertex. Rapid vertices are reached with a
// non-cutting move.
type Vertex struct {
	Pos   geom.Vec
	Depth *float64
	Rapid bool
}

// V is shorthand for a plain 2D vertex.
func V(x, y float64) Vertex {
	return Vertex{Pos: geom.Pt(x, y)}
}

// VZ is shorthand for a vertex with a depth.
func VZ(x, y, z float64) Vertex {
	return Vertex{Pos: geom.Pt(x, y), Depth: &z}
}

// LineSeg is a polyline path with one move per vertex. Closed polylines
// return to the first vertex. With a Helix, depth is interpolated by
// cumulative in-plane travel across the whole polyline.
type LineSeg struct {
	Vertices []Vertex
	Closed   bool
	Plane    motion.Plane
	Helix    *Helix

	verts []Vertex
	cmds  []motion.Command
}

func (*LineSeg) path() {}

// NewLineSeg builds the polyline. Vertices must either all carry a depth
// or none do, and a helix cannot be combined with per-vertex depths.
func NewLineSeg(vertices []Vertex, closed bool, plane motion.Plane, helix *Helix) (*LineSeg, error) {
	if len(vertices) == 0 {
		return nil, camerr.Param("pointList", "no points")
	}
	withDepth := 0
	for _, v := range vertices {
		if v.Depth != nil {
			withDepth++
		}
	}
	if withDepth != 0 && withDepth != len(vertices) {
		return nil, camerr.Param("pointList", "points must be all 2D or all 3D")
	}
	if helix != nil && withDepth > 0 {
		return nil, camerr.Param("helix", "points must be 2D when a helix is given")
	}
	ls := &LineSeg{Vertices: vertices, Closed: closed, Plane: plane, Helix: helix}
	ls.build()
	return ls, nil
}

func (ls *LineSeg) build() {
	verts := append([]Vertex{}, ls.Vertices...)
	if ls.Closed {
		first := verts[0]
		first.Rapid = false
		verts = append(verts, first)
	}
	if ls.Helix != nil {
		zs := ls.Helix.depths(legLengths(vertexPoints(verts)))
		for i := range verts {
			verts[i].Depth = &zs[i]
		}
	}
	ls.verts = verts
	for _, v := range verts {
		if v.Rapid {
			ls.cmds = append(ls.cmds, rapidTo(ls.Plane, v.Pos, v.Depth))
		} else {
			ls.cmds = append(ls.cmds, feedTo(ls.Plane, v.Pos, v.Depth))
		}
	}
}

func vertexPoints(vs []Vertex) []geom.Vec {
	pts := make([]geom.Vec, len(vs))
	for i, v := range vs {
		pts[i] = v.Pos
	}
	return pts
}

// Resolved returns the vertices actually visited, including the closing
// vertex and helix depths.
func (ls *LineSeg) Resolved() []Vertex       { return ls.verts }
func (ls *LineSeg) Commands() []motion.Command { return ls.cmds }
func (ls *LineSeg) Points() []geom.Vec         { return vertexPoints(ls.verts) }

// StartPoint returns the first vertex visited.
func (ls *LineSeg) StartPoint() Vertex { return ls.verts[0] }

// EndPoint returns the last vertex visited.
func (ls *LineSeg) EndPoint() Vertex { return ls.verts[len(ls.verts)-1] }
