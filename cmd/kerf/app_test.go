package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/kerf/pkg/boundary"
	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/gcode"
	"github.com/chazu/kerf/pkg/job"
	"github.com/chazu/kerf/pkg/preview"
	"github.com/chazu/kerf/pkg/routine"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const plateYAML = `
units: mm
feedRate: 120
operations:
  - type: drill
    centerX: 3
    centerY: 0.5
    startZ: 0
    stopZ: -0.5
    safeZ: 0.2
    peckStep: 0.1
`

const plateScript = `
;; one pecked hole
(job "plate" :units :mm :feed-rate 120
  (drill :center-x 3 :center-y 0.5 :start-z 0 :stop-z -0.5 :safe-z 0.2 :peck-step 0.1))
`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func TestRunJobFileAndScriptAgree(t *testing.T) {
	app := NewApp(zaptest.NewLogger(t))

	var fromFile, fromScript bytes.Buffer
	require.NoError(t, app.Run(&fromFile, writeFile(t, "plate.yaml", plateYAML), nil))
	require.NoError(t, app.Run(&fromScript, writeFile(t, "plate.kerf", plateScript), nil))

	got := fromFile.String()
	assert.Contains(t, got, "(Generic start)")
	assert.Contains(t, got, "G21")
	assert.Contains(t, got, "G83")
	assert.Contains(t, got, "M2")
	assert.Equal(t, got, fromScript.String())
}

// TestE2EExamples runs every sample job through the full pipeline:
// load or evaluate, build, emit.
func TestE2EExamples(t *testing.T) {
	app := NewApp(zaptest.NewLogger(t))
	for _, name := range []string{"plate.yaml", "washer.toml", "bracket.kerf"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, app.Run(&buf, filepath.Join("..", "..", "examples", name), nil))
			out := buf.String()
			assert.Contains(t, out, "(Operation 1 of ")
			assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "M2"), "program should end with M2")
		})
	}
}

func TestRunOptionsOverride(t *testing.T) {
	app := NewApp(nil)
	var buf bytes.Buffer
	err := app.Run(&buf, writeFile(t, "plate.yaml", plateYAML), func(o *gcode.Options) {
		o.Bare = true
		o.LineNumbers = true
	})
	require.NoError(t, err)
	out := buf.String()
	assert.NotContains(t, out, "Generic start")
	assert.NotContains(t, out, "M2")
	assert.True(t, strings.HasPrefix(out, "N0 "), out)
}

func TestEvaluateNamesJob(t *testing.T) {
	app := NewApp(nil)
	j, err := app.Evaluate("/tmp/bracket.kerf", `(drill :center-x 0 :center-y 0 :start-z 0 :stop-z -0.1 :safe-z 0.1)`)
	require.NoError(t, err)
	assert.Equal(t, "bracket", j.Name)
	assert.Len(t, j.Operations, 1)
}

func TestEvaluateReportsErrors(t *testing.T) {
	app := NewApp(nil)

	_, err := app.Evaluate("broken.kerf", "(+ 1 2)\n(drill :stop-z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.kerf")

	_, err = app.Evaluate("bad.kerf", `(drill :bogus 1)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestEvaluateTimeoutOption(t *testing.T) {
	app := NewApp(nil, engine.WithTimeout(time.Nanosecond))
	_, err := app.Evaluate("slow.kerf", plateScript)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrTimeout)
	assert.Contains(t, err.Error(), "slow.kerf")

	app = NewApp(nil, engine.WithTimeout(0))
	j, err := app.Evaluate("plate.kerf", plateScript)
	require.NoError(t, err)
	assert.Equal(t, "plate", j.Name)
}

func TestLoadJobPicksByExtension(t *testing.T) {
	app := NewApp(nil)
	assert.True(t, IsScript("a/b.KERF"))
	assert.False(t, IsScript("a/b.yaml"))

	j, err := app.LoadJob(writeFile(t, "holes.yaml", plateYAML))
	require.NoError(t, err)
	assert.Equal(t, "holes", j.Name)

	_, err = app.LoadJob(filepath.Join(t.TempDir(), "missing.kerf"))
	assert.ErrorContains(t, err, "missing.kerf")
}

func TestBuildFailureNamesJob(t *testing.T) {
	app := NewApp(nil)
	bad := strings.Replace(plateYAML, "safeZ: 0.2", "safeZ: -1", 1)
	err := app.Run(io.Discard, writeFile(t, "bad.yaml", bad), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job bad")
	assert.Contains(t, err.Error(), "safeZ")
}

func TestPreview(t *testing.T) {
	app := NewApp(nil)
	var buf bytes.Buffer
	require.NoError(t, app.Preview(&buf, writeFile(t, "plate.yaml", plateYAML), preview.Options{}))
	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "<title>plate</title>")
}

func square() *cad.Drawing {
	return &cad.Drawing{Name: "part", Layers: []string{"cut"}, Entities: []cad.Entity{
		cad.NewLine("cut", 0, 0, 1, 0),
		cad.NewLine("cut", 1, 0, 1, 1),
		cad.NewLine("cut", 1, 1, 0, 1),
		cad.NewLine("cut", 0, 1, 0, 0),
	}}
}

func TestDxfJob(t *testing.T) {
	var loaded []string
	app := NewApp(zaptest.NewLogger(t))
	app.loadDrawing = func(path string, _ *zap.Logger) (*cad.Drawing, error) {
		loaded = append(loaded, path)
		return square(), nil
	}

	bcfg := boundary.DxfBoundaryConfig{
		Common:     routine.Common{SafeZ: 0.1, Depth: 0.1, MaxCutDepth: 0.05, ToolDiam: 0.125},
		CutterComp: routine.CompOutside,
	}
	j := DxfJob("/parts/square.dxf", gcode.Inches, bcfg, boundary.LaserVectorCutConfig{}, false)
	assert.Equal(t, "square", j.Name)
	require.Len(t, j.Operations, 1)
	assert.Equal(t, job.DxfBoundary, j.Operations[0].Kind)

	var buf bytes.Buffer
	require.NoError(t, app.Emit(&buf, j, "/parts", nil))
	assert.Equal(t, []string{filepath.Join("/parts", "square.dxf")}, loaded)
	assert.Contains(t, buf.String(), "G20")
	assert.Contains(t, buf.String(), "G1 ")

	laser := DxfJob("/parts/square.dxf", gcode.Millimeters, bcfg, boundary.LaserVectorCutConfig{}, true)
	assert.Equal(t, job.LaserVectorCut, laser.Operations[0].Kind)
	buf.Reset()
	require.NoError(t, app.Emit(&buf, laser, "/parts", nil))
	assert.Contains(t, buf.String(), "M62")
}

func TestDxfJobFlags(t *testing.T) {
	saved := dxfFlags
	t.Cleanup(func() { dxfFlags = saved })

	dxfFlags.units = "mm"
	dxfFlags.direction = "cw"
	dxfFlags.comp = "inside"
	dxfFlags.startCond = "maxY"
	dxfFlags.types = []string{"line", "arc"}
	dxfFlags.layers = []string{"outline"}
	j, err := dxfJob("part.dxf")
	require.NoError(t, err)
	assert.Equal(t, gcode.Millimeters, j.Units)
	cfg := j.Operations[0].Config.(*boundary.DxfBoundaryConfig)
	assert.Equal(t, routine.CompInside, cfg.CutterComp)
	assert.Equal(t, []cad.Type{cad.Line, cad.Arc}, cfg.Types)
	assert.Equal(t, []string{"outline"}, cfg.Layers)
	assert.Equal(t, "part.dxf", cfg.File)

	dxfFlags.comp = "sideways"
	_, err = dxfJob("part.dxf")
	assert.Error(t, err)
}

func TestWithOutput(t *testing.T) {
	saved := output
	t.Cleanup(func() { output = saved })

	cmd := &cobra.Command{}
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	output = ""
	require.NoError(t, withOutput(cmd, func(w io.Writer) error {
		_, err := io.WriteString(w, "G0 X0\n")
		return err
	}))
	assert.Equal(t, "G0 X0\n", stdout.String())

	output = filepath.Join(t.TempDir(), "out.ngc")
	require.NoError(t, withOutput(cmd, func(w io.Writer) error {
		_, err := io.WriteString(w, "M2\n")
		return err
	}))
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "M2\n", string(data))

	boom := errors.New("boom")
	err = withOutput(cmd, func(w io.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteJob(t *testing.T) {
	j := &job.Job{Name: "x", Units: gcode.Millimeters}
	var buf bytes.Buffer
	require.NoError(t, writeJob(&buf, j, "toml"))
	assert.Contains(t, buf.String(), "units = ")
	assert.Contains(t, buf.String(), "mm")
	assert.Error(t, writeJob(&buf, j, "json"))
}
