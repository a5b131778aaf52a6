// Package path generates single-pass toolpaths from a handful of numeric
// parameters: rectangles (square, rounded or corner-cut), spiral-filled
// rectangles and circles, circular arcs and helices, raster scans and
// polylines.
//
// Every generator works in the two in-plane coordinates of its Plane and
// emits motion commands; no generator moves to a safe height or plunges on
// its own, that is left to the routine composing it.
package path

import (
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/samber/lo"
)

// MinCornerRadius is the corner radius below which rectangle corners are
// cut square.
const MinCornerRadius = 1.0e-4

// Path is a generated single-pass toolpath. The set is closed: only this
// package defines paths.
type Path interface {
	// Commands returns the motion commands of the path.
	Commands() []motion.Command
	// Points returns the in-plane vertices visited, in order.
	Points() []geom.Vec
	path()
}

// Helix interpolates depth along a path from Start to End, in proportion
// to the distance travelled.
type Helix struct {
	Start float64
	End   float64
}

// depths returns the helix depth at each vertex given the length of the
// leg arriving at it. legs[0] is the zero-length leg to the first vertex.
// A path with no travel is placed entirely at End.
func (h Helix) depths(legs []float64) []float64 {
	total := lo.Sum(legs)
	zs := make([]float64, len(legs))
	var cum float64
	for i, d := range legs {
		cum += d
		frac := 1.0
		if total > 0 {
			frac = cum / total
		}
		zs[i] = h.Start + (h.End-h.Start)*frac
	}
	return zs
}

// legLengths returns the straight-line leg lengths of pts with a leading
// zero for the first vertex.
func legLengths(pts []geom.Vec) []float64 {
	return append([]float64{0}, lo.Map(pts[1:], func(p geom.Vec, i int) float64 {
		return geom.Dist(pts[i], p)
	})...)
}

// feedTo returns a linear move to p in plane, with the normal axis set
// when z is non-nil.
func feedTo(plane motion.Plane, p geom.Vec, z *float64) motion.Linear {
	if z != nil {
		return motion.Linear{Target: plane.Point3(p.X, p.Y, *z)}
	}
	return motion.Linear{Target: plane.Point(p.X, p.Y)}
}

func rapidTo(plane motion.Plane, p geom.Vec, z *float64) motion.Rapid {
	if z != nil {
		return motion.Rapid{Target: plane.Point3(p.X, p.Y, *z)}
	}
	return motion.Rapid{Target: plane.Point(p.X, p.Y)}
}

// Concat joins the commands of several paths.
func Concat(paths ...Path) []motion.Command {
	var cmds []motion.Command
	for _, p := range paths {
		cmds = append(cmds, p.Commands()...)
	}
	return cmds
}
