package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/kerf/pkg/boundary"
	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/gcode"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/routine"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const yamlJob = `
name: plate
units: mm
feedRate: 120
operations:
  - type: rectPocket
    startZ: 0
    safeZ: 0.1
    depth: 0.2
    maxCutDepth: 0.05
    toolDiam: 0.25
    direction: cw
    centerX: 1
    centerY: 1
    width: 2
    height: 2
    overlap: 0.3
  - type: drill
    centerX: 3
    centerY: 0.5
    startZ: 0
    stopZ: -0.5
    safeZ: 0.2
    peckStep: 0.1
`

const tomlJob = `
name = "plate"
units = "mm"
feedRate = 120.0

[[operations]]
type = "rectPocket"
startZ = 0.0
safeZ = 0.1
depth = 0.2
maxCutDepth = 0.05
toolDiam = 0.25
direction = "cw"
centerX = 1.0
centerY = 1.0
width = 2.0
height = 2.0
overlap = 0.3

[[operations]]
type = "drill"
centerX = 3.0
centerY = 0.5
startZ = 0.0
stopZ = -0.5
safeZ = 0.2
peckStep = 0.1
`

func wantPlate() *Job {
	return &Job{
		Name:     "plate",
		Units:    gcode.Millimeters,
		FeedRate: 120,
		Operations: []Operation{
			{Kind: RectPocket, Config: &routine.RectPocketConfig{
				Common: routine.Common{
					StartZ: 0, SafeZ: 0.1, Depth: 0.2, MaxCutDepth: 0.05,
					ToolDiam: 0.25, Direction: geom.CW,
				},
				CenterX: 1, CenterY: 1, Width: 2, Height: 2, Overlap: 0.3,
			}},
			{Kind: Drill, Config: &routine.DrillConfig{
				CenterX: 3, CenterY: 0.5, StartZ: 0, StopZ: -0.5, SafeZ: 0.2, PeckStep: 0.1,
			}},
		},
	}
}

func TestParseFormats(t *testing.T) {
	for _, tt := range []struct {
		format Format
		data   string
	}{
		{YAML, yamlJob},
		{TOML, tomlJob},
	} {
		t.Run(tt.format.String(), func(t *testing.T) {
			j, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			if diff := cmp.Diff(wantPlate(), j); diff != "" {
				t.Errorf("job mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("operations:\n  - type: teleport\n"), YAML)
	assert.Equal(t, "type", camerr.Key(err))
	assert.ErrorContains(t, err, "operation 1")

	_, err = Parse([]byte("operations:\n  - type: drill\n    stopz: -1\n"), YAML)
	assert.ErrorContains(t, err, "stopz")

	noDepth := strings.Replace(yamlJob, "    depth: 0.2\n", "", 1)
	_, err = Parse([]byte(noDepth), YAML)
	require.Error(t, err)
	assert.True(t, camerr.IsParameter(err))
	assert.Equal(t, "depth", camerr.Key(err))
	assert.ErrorContains(t, err, "operation 1")

	noStart := strings.Replace(tomlJob, "startZ = 0.0\nstopZ", "stopZ", 1)
	_, err = Parse([]byte(noStart), TOML)
	assert.Equal(t, "startZ", camerr.Key(err))
	assert.ErrorContains(t, err, "operation 2")

	_, err = Parse([]byte("operations:\n  - type: drill\n    centerX: 0\n    centerY:\n    startZ: 0\n    stopZ: -1\n    safeZ: 1\n"), YAML)
	assert.Equal(t, "centerY", camerr.Key(err))

	_, err = Parse([]byte("units: furlongs\n"), YAML)
	assert.Error(t, err)

	_, err = Parse([]byte("name = \"x\"\nbogus = 1\n"), TOML)
	assert.Error(t, err)

	_, err = Parse([]byte("operations: [\n"), YAML)
	assert.ErrorContains(t, err, "yaml")
}

func TestMarshalRoundTrip(t *testing.T) {
	src := wantPlate()
	src.LineNumbers = true
	src.Operations = append(src.Operations, Operation{Kind: LineSegBoundary, Config: &routine.LineSegBoundaryConfig{
		Common:     routine.Common{SafeZ: 0.1, Depth: 0.1, MaxCutDepth: 0.1, ToolDiam: 0.125},
		Points:     [][2]float64{{0, 0}, {1, 0}, {1, 1}},
		Closed:     true,
		CutterComp: routine.CompInside,
	}})
	for _, format := range []Format{YAML, TOML} {
		t.Run(format.String(), func(t *testing.T) {
			data, err := src.Marshal(format)
			require.NoError(t, err)
			got, err := Parse(data, format)
			require.NoError(t, err, string(data))
			if diff := cmp.Diff(src, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadNamesJobAfterFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bracket.toml")
	data := strings.Replace(tomlJob, `name = "plate"`, "", 1)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	j, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "bracket", j.Name)
	assert.Len(t, j.Operations, 2)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "missing.yaml")
}

func TestBuild(t *testing.T) {
	j, err := Parse([]byte(yamlJob), YAML)
	require.NoError(t, err)
	prog, err := j.Build(BuildContext{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	var comments []string
	for _, c := range prog.Commands {
		if cm, ok := c.(motion.Comment); ok && strings.HasPrefix(cm.Text, "Operation") {
			comments = append(comments, cm.Text)
		}
	}
	assert.Equal(t, []string{"Operation 1 of 2: RectPocket", "Operation 2 of 2: Drill"}, comments)
	assert.Contains(t, prog.Commands, motion.Command(motion.DrillCycle{X: 3, Y: 0.5, Z: -0.5, R: 0, Peck: 0.1}))
	assert.Equal(t, gcode.Options{Units: gcode.Millimeters, FeedRate: 120}, j.GcodeOptions())
}

func TestBuildKeepsErrorKind(t *testing.T) {
	j := wantPlate()
	j.Operations[0].Config.(*routine.RectPocketConfig).SafeZ = -1
	_, err := j.Build(BuildContext{})
	assert.True(t, camerr.IsParameter(err))
	assert.Equal(t, "safeZ", camerr.Key(err))
	assert.ErrorContains(t, err, "operation 1 (rectPocket)")

	_, err = (&Job{Name: "empty"}).Build(BuildContext{})
	assert.Equal(t, "operations", camerr.Key(err))
}

func TestBuildLoadsDrawingsOnce(t *testing.T) {
	square := &cad.Drawing{Name: "part", Layers: []string{"cut"}, Entities: []cad.Entity{
		cad.NewLine("cut", 0, 0, 1, 0),
		cad.NewLine("cut", 1, 0, 1, 1),
		cad.NewLine("cut", 1, 1, 0, 1),
		cad.NewLine("cut", 0, 1, 0, 0),
		cad.NewCircle("holes", 0.5, 0.5, 0.1),
	}}
	var loaded []string
	ctx := BuildContext{
		Logger:  zaptest.NewLogger(t),
		BaseDir: "/jobs",
		LoadDrawing: func(path string, _ *zap.Logger) (*cad.Drawing, error) {
			loaded = append(loaded, path)
			return square, nil
		},
	}
	common := routine.Common{SafeZ: 0.1, Depth: 0.1, MaxCutDepth: 0.05, ToolDiam: 0.125, Direction: geom.CCW}
	j := &Job{Name: "dxf", Operations: []Operation{
		{Kind: DxfDrill, Config: &boundary.DxfDrillConfig{
			DrillConfig: routine.DrillConfig{StopZ: -0.2, SafeZ: 0.1},
			Source:      boundary.Source{File: "part.dxf", Layers: []string{"holes"}},
		}},
		{Kind: DxfBoundary, Config: &boundary.DxfBoundaryConfig{
			Common:     common,
			Source:     boundary.Source{File: "part.dxf", Layers: []string{"cut"}},
			CutterComp: routine.CompOutside,
		}},
	}}
	prog, err := j.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("/jobs", "part.dxf")}, loaded)
	assert.Contains(t, prog.Commands, motion.Command(motion.DrillCycle{X: 0.5, Y: 0.5, Z: -0.2, R: 0}))

	j.Operations[1].Config.(*boundary.DxfBoundaryConfig).File = ""
	_, err = j.Build(ctx)
	assert.Equal(t, "file", camerr.Key(err))
}

func TestNewOperation(t *testing.T) {
	op, err := NewOperation(CircBoundary, map[string]any{
		"startZ": 0.0, "safeZ": 0.1, "depth": 0.1, "maxCutDepth": 0.05, "toolDiam": 0.25,
		"centerX": 0.0, "centerY": 0.0, "direction": "ccw", "radius": 1.0, "toolOffset": "outside",
	})
	require.NoError(t, err)
	cfg := op.Config.(*routine.CircBoundaryConfig)
	assert.Equal(t, geom.CCW, cfg.Direction)
	assert.Equal(t, routine.OffsetOutside, cfg.ToolOffset)
	_, err = op.Routine(&BuildContext{})
	assert.NoError(t, err)

	_, err = NewOperation(CircBoundary, map[string]any{
		"startZ": 0.0, "safeZ": 0.1, "maxCutDepth": 0.05, "toolDiam": 0.25,
		"centerX": 0.0, "centerY": 0.0, "direction": "ccw", "radius": 1.0,
	})
	assert.True(t, camerr.IsParameter(err))
	assert.Equal(t, "depth", camerr.Key(err))

	_, err = NewOperation("rect-pocket", nil)
	assert.Equal(t, "type", camerr.Key(err))
}
