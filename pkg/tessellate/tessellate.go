// Package tessellate flattens motion programs into 3D polylines. Arcs and
// helices become chords no longer than MaxArcLen, and canned drill cycles
// expand into the plunge and retract they stand for. Previews and length
// estimates read the resulting strokes.
package tessellate

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

// DefaultMaxArcLen is the chord length used when Options leaves it zero.
const DefaultMaxArcLen = 0.01

// Kind separates non-cutting traverses from cutting moves.
type Kind int

const (
	Rapid Kind = iota
	Feed
)

func (k Kind) String() string {
	if k == Rapid {
		return "rapid"
	}
	return "feed"
}

// Stroke is a run of consecutive moves of one kind. Points[0] is where
// the run starts.
type Stroke struct {
	Kind   Kind
	Points []v3.Vec
}

// Length returns the travelled distance along the stroke.
func (s Stroke) Length() float64 {
	var n float64
	for i := 1; i < len(s.Points); i++ {
		n += s.Points[i].Sub(s.Points[i-1]).Length()
	}
	return n
}

type Options struct {
	MaxArcLen float64
	// Start is the tool position before the first command.
	Start v3.Vec
}

// tracker holds the tool position while a program is replayed.
type tracker struct {
	pos     v3.Vec
	maxLen  float64
	strokes []Stroke
}

func get(p v3.Vec, a motion.Axis) float64 {
	switch a {
	case motion.X:
		return p.X
	case motion.Y:
		return p.Y
	}
	return p.Z
}

func set(p v3.Vec, a motion.Axis, v float64) v3.Vec {
	switch a {
	case motion.X:
		p.X = v
	case motion.Y:
		p.Y = v
	default:
		p.Z = v
	}
	return p
}

func (t *tracker) target(a motion.Axes) v3.Vec {
	p := t.pos
	for ax := motion.X; ax <= motion.Z; ax++ {
		if v, ok := a.Get(ax); ok {
			p = set(p, ax, v)
		}
	}
	return p
}

func (t *tracker) moveTo(k Kind, p v3.Vec) {
	n := len(t.strokes)
	if n == 0 || t.strokes[n-1].Kind != k {
		t.strokes = append(t.strokes, Stroke{Kind: k, Points: []v3.Vec{t.pos}})
		n++
	}
	t.strokes[n-1].Points = append(t.strokes[n-1].Points, p)
	t.pos = p
}

// helical flattens an arc in the plane's (u, v) frame. Direction is read
// in that frame, the way the path generators write it. The normal axis
// moves linearly with swept angle.
func (t *tracker) helical(h motion.Helical) error {
	ua, va := h.Plane.InPlane()
	wa := h.Plane.Normal()
	end := t.target(h.Target)
	s := geom.Pt(get(t.pos, ua), get(t.pos, va))
	e := geom.Pt(get(end, ua), get(end, va))
	c := geom.Pt(s.X+h.Offset[0], s.Y+h.Offset[1])
	arc, err := geom.NewArc(c, geom.Dist(s, c),
		math.Atan2(s.Y-c.Y, s.X-c.X),
		math.Atan2(e.Y-c.Y, e.X-c.X),
		h.Dir)
	if err != nil {
		return err
	}
	sweep := arc.Sweep()
	if geom.Equiv(s, e, geom.DefaultTol) {
		sweep = 2 * math.Pi
	}
	if h.Turns > 1 {
		sweep += 2 * math.Pi * float64(h.Turns-1)
	}
	if h.Dir == geom.CW {
		sweep = -sweep
	}
	n := int(math.Ceil(math.Abs(sweep) * arc.Radius / t.maxLen))
	if n < 1 {
		n = 1
	}
	w0, w1 := get(t.pos, wa), get(end, wa)
	for i := 1; i < n; i++ {
		f := float64(i) / float64(n)
		q := arc.PointAt(arc.StartAngle + sweep*f)
		p := set(set(set(t.pos, ua, q.X), va, q.Y), wa, w0+(w1-w0)*f)
		t.moveTo(Feed, p)
	}
	t.moveTo(Feed, end)
	return nil
}

// drill expands a canned cycle: rapid over the hole, rapid down to R,
// feed to Z, then rapid back to the higher of R and the starting height.
func (t *tracker) drill(d motion.DrillCycle) {
	z0 := t.pos.Z
	t.moveTo(Rapid, v3.Vec{X: d.X, Y: d.Y, Z: z0})
	t.moveTo(Rapid, v3.Vec{X: d.X, Y: d.Y, Z: d.R})
	t.moveTo(Feed, v3.Vec{X: d.X, Y: d.Y, Z: d.Z})
	t.moveTo(Rapid, v3.Vec{X: d.X, Y: d.Y, Z: math.Max(z0, d.R)})
}

// Program replays prog and returns its strokes. Commands that do not move
// the tool are skipped.
func Program(prog motion.Program, opts Options) ([]Stroke, error) {
	if opts.MaxArcLen == 0 {
		opts.MaxArcLen = DefaultMaxArcLen
	}
	if !(opts.MaxArcLen > 0) {
		return nil, camerr.Param("maxArcLen", "must be > 0, got %g", opts.MaxArcLen)
	}
	t := &tracker{pos: opts.Start, maxLen: opts.MaxArcLen}
	for i, cmd := range prog.Commands {
		switch c := cmd.(type) {
		case motion.Rapid:
			t.moveTo(Rapid, t.target(c.Target))
		case motion.Linear:
			t.moveTo(Feed, t.target(c.Target))
		case motion.Helical:
			if err := t.helical(c); err != nil {
				return nil, errors.Wrapf(err, "tessellate: command %d", i)
			}
		case motion.DrillCycle:
			t.drill(c)
		}
	}
	return t.strokes, nil
}

// Chain flattens a segment chain at height z.
func Chain(segs []geom.Segment, z, maxArcLen float64) ([]v3.Vec, error) {
	pts, err := geom.Polyline(segs, maxArcLen)
	if err != nil {
		return nil, err
	}
	out := make([]v3.Vec, len(pts))
	for i, p := range pts {
		out[i] = v3.Vec{X: p.X, Y: p.Y, Z: z}
	}
	return out, nil
}

// Bounds returns the corners of the box holding every stroke point. ok is
// false when there are no points.
func Bounds(strokes []Stroke) (lo, hi v3.Vec, ok bool) {
	for _, s := range strokes {
		for _, p := range s.Points {
			if !ok {
				lo, hi, ok = p, p, true
				continue
			}
			lo = v3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
			hi = v3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
		}
	}
	return lo, hi, ok
}

// Length sums the length of strokes of kind k.
func Length(strokes []Stroke, k Kind) float64 {
	var n float64
	for _, s := range strokes {
		if s.Kind == k {
			n += s.Length()
		}
	}
	return n
}
