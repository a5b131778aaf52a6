package engine

import (
	"strings"
	"testing"

	"github.com/chazu/kerf/pkg/boundary"
	"github.com/chazu/kerf/pkg/gcode"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/job"
	"github.com/chazu/kerf/pkg/path"
	"github.com/chazu/kerf/pkg/routine"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(job "plate" :units :mm)`,
			expect: `(job "plate" "__kw_units" "__kw_mm")`,
		},
		{
			name:   "multiple keywords",
			input:  `(drill :stop-z -0.5 :safe-z 0.1)`,
			expect: `(drill "__kw_stop-z" -0.5 "__kw_safe-z" 0.1)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(rect-pocket :center-x cx)`,
			expect: `(rect_pocket "__kw_center-x" cx)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(pt -1 -2.5)`,
			expect: `(pt -1 -2.5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:max-cut-depth`,
			expect: `"__kw_max-cut-depth"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestCamelKey(t *testing.T) {
	for in, want := range map[string]string{
		"depth":         "depth",
		"center-x":      "centerX",
		"max-cut-depth": "maxCutDepth",
		"dxf-types":     "dxfTypes",
		"trailing-":     "trailing",
	} {
		if got := camelKey(in); got != want {
			t.Errorf("camelKey(%q) = %q, want %q", in, got, want)
		}
	}
}

// evalJob evaluates source and fails the test on any error.
func evalJob(t *testing.T, source string) *job.Job {
	t.Helper()
	j, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if j == nil {
		t.Fatal("expected non-nil job")
	}
	return j
}

// evalFails evaluates source and returns the first eval error message.
func evalFails(t *testing.T, source string) string {
	t.Helper()
	j, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if j != nil {
		t.Fatal("expected nil job on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return evalErrs[0].Message
}

// ---------------------------------------------------------------------------
// Job form
// ---------------------------------------------------------------------------

func TestJobForm(t *testing.T) {
	source := `
;; a pocketed plate with one hole
(job "plate" :units :mm :feed-rate 120 :line-numbers true
  (rect-pocket :center-x 1 :center-y 1 :width 2 :height 2
               :start-z 0 :safe-z 0.1 :depth 0.2 :max-cut-depth 0.05
               :tool-diam 0.25 :direction :cw :overlap 0.3)
  (drill :center-x 3 :center-y 0.5 :start-z 0 :stop-z -0.5 :safe-z 0.2 :peck-step 0.1))
`
	j := evalJob(t, source)

	if j.Name != "plate" {
		t.Errorf("name = %q, want plate", j.Name)
	}
	if j.Units != gcode.Millimeters {
		t.Errorf("units = %v, want mm", j.Units)
	}
	if j.FeedRate != 120 {
		t.Errorf("feed rate = %g, want 120", j.FeedRate)
	}
	if !j.LineNumbers {
		t.Error("expected line numbers on")
	}
	if len(j.Operations) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(j.Operations))
	}

	rp, ok := j.Operations[0].Config.(*routine.RectPocketConfig)
	if !ok {
		t.Fatalf("expected RectPocketConfig, got %T", j.Operations[0].Config)
	}
	if j.Operations[0].Kind != job.RectPocket {
		t.Errorf("kind = %q, want %q", j.Operations[0].Kind, job.RectPocket)
	}
	if rp.Width != 2 || rp.CenterX != 1 || rp.MaxCutDepth != 0.05 {
		t.Errorf("unexpected pocket config: %+v", rp)
	}
	if rp.Direction != geom.CW {
		t.Errorf("direction = %v, want cw", rp.Direction)
	}

	dr, ok := j.Operations[1].Config.(*routine.DrillConfig)
	if !ok {
		t.Fatalf("expected DrillConfig, got %T", j.Operations[1].Config)
	}
	if dr.StopZ != -0.5 || dr.PeckStep != 0.1 {
		t.Errorf("unexpected drill config: %+v", dr)
	}
}

func TestJobBuilds(t *testing.T) {
	j := evalJob(t, `
(job "ring"
  (circ-boundary :center-x 0 :center-y 0 :radius 1 :start-z 0 :safe-z 0.1 :depth 0.1 :max-cut-depth 0.05
                 :tool-diam 0.125 :direction :cw :tool-offset :outside))
`)
	prog, err := j.Build(job.BuildContext{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if prog.Moves() == 0 {
		t.Error("expected moves in built program")
	}
	if j.Units != gcode.Inches {
		t.Errorf("units default = %v, want inches", j.Units)
	}
}

func TestOperationsWithoutJobForm(t *testing.T) {
	j := evalJob(t, `
(drill :center-x 0 :center-y 0 :start-z 0 :stop-z -0.2 :safe-z 0.1)
(drill :center-x 1 :center-y 0 :start-z 0 :stop-z -0.2 :safe-z 0.1)
`)
	if j.Name != "" {
		t.Errorf("expected unnamed job, got %q", j.Name)
	}
	if len(j.Operations) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(j.Operations))
	}
	if x := j.Operations[1].Config.(*routine.DrillConfig).CenterX; x != 1 {
		t.Errorf("second drill x = %g, want 1", x)
	}
}

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

func TestVariableReference(t *testing.T) {
	j := evalJob(t, `
(def tool 0.25)
(def depth 0.3)
(job "vars"
  (circ-pocket :center-x 2 :center-y 2 :radius 1 :overlap 0.5
               :start-z 0 :safe-z 0.1 :depth depth :max-cut-depth (/ depth 3)
               :tool-diam tool))
`)
	cp := j.Operations[0].Config.(*routine.CircPocketConfig)
	if cp.ToolDiam != 0.25 {
		t.Errorf("tool diam = %g, want 0.25 (from variable)", cp.ToolDiam)
	}
	if cp.MaxCutDepth < 0.0999 || cp.MaxCutDepth > 0.1001 {
		t.Errorf("max cut depth = %g, want 0.1", cp.MaxCutDepth)
	}
}

func TestPointsAndLists(t *testing.T) {
	j := evalJob(t, `
(job "tri"
  (line-boundary :points [(pt 0 0) (pt 2 0) (pt 1 1.5)] :closed true
                 :cutter-comp :inside
                 :start-z 0 :safe-z 0.1 :depth 0.1 :max-cut-depth 0.1 :tool-diam 0.125))
`)
	lb, ok := j.Operations[0].Config.(*routine.LineSegBoundaryConfig)
	if !ok {
		t.Fatalf("expected LineSegBoundaryConfig, got %T", j.Operations[0].Config)
	}
	want := [][2]float64{{0, 0}, {2, 0}, {1, 1.5}}
	if len(lb.Points) != len(want) {
		t.Fatalf("points = %v, want %v", lb.Points, want)
	}
	for i := range want {
		if lb.Points[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, lb.Points[i], want[i])
		}
	}
	if !lb.Closed {
		t.Error("expected closed boundary")
	}
	if lb.CutterComp != routine.CompInside {
		t.Errorf("cutter comp = %v, want inside", lb.CutterComp)
	}
}

func TestCornerList(t *testing.T) {
	j := evalJob(t, `
(rect-pocket :center-x 0 :center-y 0 :width 2 :height 1 :overlap 0.3 :corner-cut true :corners [:c00 :c11]
             :start-z 0 :safe-z 0.1 :depth 0.1 :max-cut-depth 0.1 :tool-diam 0.25)
`)
	rp := j.Operations[0].Config.(*routine.RectPocketConfig)
	if rp.Corners == nil {
		t.Fatal("expected corners to be set")
	}
	want := path.CornerSet{C00: true, C11: true}
	if *rp.Corners != want {
		t.Errorf("corners = %+v, want %+v", *rp.Corners, want)
	}
}

func TestDxfOperation(t *testing.T) {
	j := evalJob(t, `
(dxf-boundary :file "part.dxf" :layers ["outline"] :dxf-types [:line :arc]
              :cutter-comp :outside
              :start-z 0 :safe-z 0.1 :depth 0.1 :max-cut-depth 0.05 :tool-diam 0.125)
`)
	cfg, ok := j.Operations[0].Config.(*boundary.DxfBoundaryConfig)
	if !ok {
		t.Fatalf("expected DxfBoundaryConfig, got %T", j.Operations[0].Config)
	}
	if cfg.File != "part.dxf" {
		t.Errorf("file = %q, want part.dxf", cfg.File)
	}
	if len(cfg.Layers) != 1 || cfg.Layers[0] != "outline" {
		t.Errorf("layers = %v, want [outline]", cfg.Layers)
	}
	if len(cfg.Types) != 2 {
		t.Errorf("types = %v, want 2 entries", cfg.Types)
	}
	if j.Operations[0].Kind != job.DxfBoundary {
		t.Errorf("kind = %q, want %q", j.Operations[0].Kind, job.DxfBoundary)
	}
}

func TestLaserCut(t *testing.T) {
	j := evalJob(t, `(laser-cut :file "sign.dxf" :laser-power 40 :laser-home (pt 0 0))`)
	cfg, ok := j.Operations[0].Config.(*boundary.LaserVectorCutConfig)
	if !ok {
		t.Fatalf("expected LaserVectorCutConfig, got %T", j.Operations[0].Config)
	}
	if cfg.LaserPower != 40 {
		t.Errorf("laser power = %g, want 40", cfg.LaserPower)
	}
	if cfg.Home == nil || *cfg.Home != [2]float64{0, 0} {
		t.Errorf("home = %v, want [0 0]", cfg.Home)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown parameter", `(drill :stop-z -1 :bogus 1)`, "bogus"},
		{"positional argument", `(drill 1 2)`, "positional"},
		{"bad units", `(job "x" :units :furlongs)`, "furlongs"},
		{"job without name", `(job :units :mm)`, "name"},
		{"job child not an operation", `(job "x" 42)`, "expected operation"},
		{"second job", `(job "a") (job "b")`, "already defined"},
		{"pt arity", `(pt 1)`, "pt requires exactly 2"},
		{"pt type", `(pt "a" 1)`, "expected number"},
		{"missing required key", `(drill :center-x 0 :center-y 0 :stop-z -1 :safe-z 0.1)`, "startZ"},
		{"unknown corner", `(rect-pocket :corners [:c22])`, "unknown corner"},
		{"bad feed rate", `(job "x" :feed-rate "fast")`, "feed-rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not mention %q", msg, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Regression: non-DSL code still works
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	j := evalJob(t, "(+ 1 2)")
	if len(j.Operations) != 0 {
		t.Errorf("expected empty job, got %d operations", len(j.Operations))
	}
}
