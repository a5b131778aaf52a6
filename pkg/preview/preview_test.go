package preview

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareProgram() motion.Program {
	var p motion.Program
	p.Append(
		motion.Rapid{Target: motion.ZOnly(0.5)},
		motion.Rapid{Target: motion.XY(0, 0)},
		motion.Linear{Target: motion.ZOnly(-0.1)},
		motion.Linear{Target: motion.XY(2, 0)},
		motion.Linear{Target: motion.XY(2, 1)},
		motion.Helical{Target: motion.XY(0, 1), Offset: [2]float64{-1, 0}, Dir: geom.CCW},
		motion.Linear{Target: motion.XY(0, 0)},
		motion.Rapid{Target: motion.ZOnly(0.5)},
	)
	return p
}

func TestRenderStyles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, squareProgram(), Options{Title: "square"}))
	out := buf.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "<?xml"))
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "<title>square</title>")
	assert.Equal(t, 3, strings.Count(out, "<polyline"))
	assert.Equal(t, 2, strings.Count(out, "stroke-dasharray"))
	assert.Equal(t, 1, strings.Count(out, "<circle"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestRenderHideRapids(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, squareProgram(), Options{HideRapids: true}))
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "<polyline"))
	assert.NotContains(t, out, "stroke-dasharray")
}

func TestRenderEmptyProgram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, motion.Program{}, Options{}))
	assert.NotContains(t, buf.String(), "<polyline")
	assert.Contains(t, buf.String(), "</svg>")
}

func TestRenderErrors(t *testing.T) {
	err := Render(&bytes.Buffer{}, squareProgram(), Options{Width: 30, Margin: 20})
	assert.Equal(t, "width", camerr.Key(err))

	var bad motion.Program
	bad.Append(motion.Helical{Target: motion.XY(0, 0), Dir: geom.CW})
	err = Render(&bytes.Buffer{}, bad, Options{})
	assert.True(t, camerr.IsGeometry(err))

	err = Render(failWriter{}, squareProgram(), Options{})
	assert.ErrorContains(t, err, "disk full")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }
