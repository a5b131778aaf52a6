// Package preview plots the XY projection of a motion program as SVG.
// Rapids are dashed and feeds are solid; the plot is scaled so the
// program's extent fills the requested width.
package preview

import (
	"io"

	svg "github.com/ajstarks/svgo/float"
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/tessellate"
	"github.com/pkg/errors"
)

// Defaults for Options fields left zero.
const (
	DefaultWidth  = 800
	DefaultMargin = 20
)

const (
	rapidStyle = "fill:none;stroke:#d62728;stroke-width:1;stroke-dasharray:4,3"
	feedStyle  = "fill:none;stroke:#1f77b4;stroke-width:1.5"
	startStyle = "fill:#2ca02c;stroke:none"
)

type Options struct {
	Width  float64
	Margin float64
	// HideRapids leaves traverses out of the plot.
	HideRapids bool
	Title      string
	MaxArcLen  float64
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	return o
}

// errWriter remembers the first write error, since svgo discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// Render writes the SVG plot of prog to w.
func Render(w io.Writer, prog motion.Program, opts Options) error {
	opts = opts.withDefaults()
	if opts.Width <= 2*opts.Margin || opts.Margin < 0 {
		return camerr.Param("width", "width %g leaves no room inside margin %g", opts.Width, opts.Margin)
	}
	strokes, err := tessellate.Program(prog, tessellate.Options{MaxArcLen: opts.MaxArcLen})
	if err != nil {
		return err
	}
	if opts.HideRapids {
		var feeds []tessellate.Stroke
		for _, s := range strokes {
			if s.Kind == tessellate.Feed {
				feeds = append(feeds, s)
			}
		}
		strokes = feeds
	}

	lo, hi, _ := tessellate.Bounds(strokes)
	dx, dy := hi.X-lo.X, hi.Y-lo.Y
	inner := opts.Width - 2*opts.Margin
	scale := 1.0
	switch {
	case dx > 0:
		scale = inner / dx
	case dy > 0:
		scale = inner / dy
	}
	height := dy*scale + 2*opts.Margin
	px := func(x float64) float64 { return opts.Margin + (x-lo.X)*scale }
	py := func(y float64) float64 { return height - opts.Margin - (y-lo.Y)*scale }

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(opts.Width, height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	for _, s := range strokes {
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i], ys[i] = px(p.X), py(p.Y)
		}
		style := feedStyle
		if s.Kind == tessellate.Rapid {
			style = rapidStyle
		}
		canvas.Polyline(xs, ys, style)
	}
	if len(strokes) > 0 {
		p := strokes[0].Points[0]
		canvas.Circle(px(p.X), py(p.Y), 3, startStyle)
	}
	canvas.End()
	return errors.Wrap(ew.err, "preview: write")
}
