package boundary

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/routine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func lines(layer string, pts ...[2]float64) []cad.Entity {
	var out []cad.Entity
	for i := 1; i < len(pts); i++ {
		out = append(out, cad.NewLine(layer, pts[i-1][0], pts[i-1][1], pts[i][0], pts[i][1]))
	}
	return out
}

func squareCCW() []cad.Entity {
	return lines("cut", [2]float64{0, 0}, [2]float64{1, 0}, [2]float64{1, 1}, [2]float64{0, 1}, [2]float64{0, 0})
}

func squareCW() []cad.Entity {
	return lines("cut", [2]float64{0, 0}, [2]float64{0, 1}, [2]float64{1, 1}, [2]float64{1, 0}, [2]float64{0, 0})
}

func resolveOne(t *testing.T, ents []cad.Entity, opts Options) Resolved {
	t.Helper()
	opts.Logger = zaptest.NewLogger(t)
	rs, err := Resolve(ents, opts)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	return rs[0]
}

func TestClosedLoopOrientation(t *testing.T) {
	drawings := map[string][]cad.Entity{"drawn ccw": squareCCW(), "drawn cw": squareCW()}
	for name, ents := range drawings {
		t.Run(name, func(t *testing.T) {
			for _, dir := range []geom.Direction{geom.CW, geom.CCW} {
				want := resolveOne(t, ents, Options{Direction: dir})
				other := resolveOne(t, ents, Options{Direction: dir.Opposite()})
				assert.True(t, want.Closed)
				assert.True(t, want.Simple)
				assert.Equal(t, graph.ClosedLoop, want.Kind)
				assert.Equal(t, dir, geom.Winding(want.Points))
				assert.Equal(t, geom.Reversed(other.Points), want.Points)
				assert.Equal(t, geom.Pt(0, 0), want.Points[0])
				assert.Equal(t, want.Points[0], want.Points[len(want.Points)-1])
			}
		})
	}
}

func TestKeepsTracedOrientationWithoutDirection(t *testing.T) {
	r := resolveOne(t, squareCW(), Options{})
	assert.Equal(t, geom.CW, geom.Winding(r.Points))
	r = resolveOne(t, squareCCW(), Options{})
	assert.Equal(t, geom.CCW, geom.Winding(r.Points))
}

func TestCompSideForSquare(t *testing.T) {
	tests := []struct {
		comp routine.CompMode
		dir  geom.Direction
		want motion.Side
	}{
		{routine.CompInside, geom.CCW, motion.Left},
		{routine.CompInside, geom.CW, motion.Right},
		{routine.CompOutside, geom.CCW, motion.Right},
		{routine.CompOutside, geom.CW, motion.Left},
		{routine.CompLeft, geom.CW, motion.Left},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%s", tt.comp, tt.dir), func(t *testing.T) {
			r := resolveOne(t, squareCW(), Options{CutterComp: tt.comp, Direction: tt.dir})
			assert.Equal(t, tt.want, r.Side)
		})
	}
}

func TestOpenChainStartsAtMinX(t *testing.T) {
	// drawn from the far end
	ents := lines("cut", [2]float64{2, 2}, [2]float64{2, 0}, [2]float64{0, 0})
	r := resolveOne(t, ents, Options{StartCond: graph.MinX})
	assert.False(t, r.Closed)
	assert.Equal(t, graph.OpenChain, r.Kind)
	assert.Equal(t, []geom.Vec{geom.Pt(0, 0), geom.Pt(2, 0), geom.Pt(2, 2)}, r.Points)

	r = resolveOne(t, ents, Options{StartCond: graph.MaxY})
	assert.Equal(t, geom.Pt(2, 2), r.Points[0])
}

func TestOpenChainComp(t *testing.T) {
	ents := lines("cut", [2]float64{0, 0}, [2]float64{2, 0}, [2]float64{2, 2})
	for _, comp := range []routine.CompMode{routine.CompInside, routine.CompOutside, routine.CompLeft, routine.CompRight} {
		t.Run(comp.String(), func(t *testing.T) {
			_, err := Resolve(ents, Options{CutterComp: comp})
			require.Error(t, err)
			assert.True(t, camerr.IsParameter(err))
			assert.Equal(t, "cutterComp", camerr.Key(err))
		})
	}

	r := resolveOne(t, ents, Options{})
	assert.False(t, r.Closed)
	assert.Equal(t, routine.CompNone, r.Comp())
}

func TestSelfIntersectingLoop(t *testing.T) {
	bowtie := lines("cut", [2]float64{0, 0}, [2]float64{1, 1}, [2]float64{1, 0}, [2]float64{0, 1}, [2]float64{0, 0})
	traced := resolveOne(t, bowtie, Options{})
	assert.True(t, traced.Closed)
	assert.False(t, traced.Simple)

	// direction is ignored for a self-intersecting loop
	r := resolveOne(t, bowtie, Options{Direction: geom.CW})
	assert.Equal(t, traced.Points, r.Points)
	r = resolveOne(t, bowtie, Options{Direction: geom.CCW})
	assert.Equal(t, traced.Points, r.Points)

	_, err := Resolve(bowtie, Options{CutterComp: routine.CompInside, Direction: geom.CCW})
	require.Error(t, err)
	assert.True(t, camerr.IsParameter(err))
	assert.Equal(t, "cutterComp", camerr.Key(err))
}

func TestBranchingGeometryIsCutPerEdge(t *testing.T) {
	tee := []cad.Entity{
		cad.NewLine("cut", 0, 0, 1, 0),
		cad.NewLine("cut", 1, 0, 2, 0),
		cad.NewLine("cut", 1, 0, 1, 1),
	}
	rs, err := Resolve(tee, Options{})
	require.NoError(t, err)
	require.Len(t, rs, 3)
	for _, r := range rs {
		assert.Equal(t, graph.Complex, r.Kind)
		assert.False(t, r.Closed)
		assert.Len(t, r.Points, 2)
	}

	_, err = Resolve(tee, Options{CutterComp: routine.CompLeft})
	assert.Equal(t, "cutterComp", camerr.Key(err))
}

func TestCircleIsStandaloneLoop(t *testing.T) {
	ents := []cad.Entity{cad.NewCircle("cut", 2, 1, 0.5)}
	r := resolveOne(t, ents, Options{MaxArcLen: 0.1})
	assert.True(t, r.Closed)
	assert.True(t, r.Simple)
	assert.InDelta(t, 1.5, r.Points[0].X, 1e-12)
	assert.InDelta(t, 1, r.Points[0].Y, 1e-12)
	assert.Equal(t, r.Points[0], r.Points[len(r.Points)-1])
	assert.Equal(t, geom.CCW, geom.Winding(r.Points))
	for _, p := range r.Points {
		assert.InDelta(t, 0.5, geom.Dist(p, geom.Pt(2, 1)), 1e-9)
	}

	r = resolveOne(t, ents, Options{Direction: geom.CW, StartCond: graph.MaxY})
	assert.Equal(t, geom.CW, geom.Winding(r.Points))
	assert.InDelta(t, 1.5, r.Points[0].Y, 1e-12)

	r = resolveOne(t, ents, Options{CutterComp: routine.CompOutside, Direction: geom.CCW})
	assert.Equal(t, motion.Right, r.Side)
}

func TestSlotWithArcs(t *testing.T) {
	slot := []cad.Entity{
		cad.NewLine("cut", 0, 0, 2, 0),
		cad.NewArc("cut", 2, 0.5, 0.5, 270, 90),
		cad.NewLine("cut", 2, 1, 0, 1),
		cad.NewArc("cut", 0, 0.5, 0.5, 90, 270),
	}
	for _, dir := range []geom.Direction{geom.CW, geom.CCW} {
		r := resolveOne(t, slot, Options{Direction: dir, MaxArcLen: 0.05})
		assert.True(t, r.Closed)
		assert.True(t, r.Simple)
		assert.Equal(t, dir, geom.Winding(r.Points))
		assert.Greater(t, len(r.Points), 20)
		assert.True(t, geom.Equiv(r.Points[0], geom.Pt(0, 0), 1e-9))
		for i := 1; i < len(r.Points); i++ {
			assert.LessOrEqual(t, geom.Dist(r.Points[i-1], r.Points[i]), 2+1e-9)
		}
	}
}

func TestFiltersAndErrors(t *testing.T) {
	ents := append(squareCCW(), cad.NewLine("other", 5, 5, 6, 6))
	rs, err := Resolve(ents, Options{Layers: []string{"cut"}})
	require.NoError(t, err)
	assert.Len(t, rs, 1)

	rs, err = Resolve(ents, Options{})
	require.NoError(t, err)
	assert.Len(t, rs, 2)

	rs, err = Resolve(ents, Options{Layers: []string{"missing"}})
	require.NoError(t, err)
	assert.Empty(t, rs)

	_, err = Resolve([]cad.Entity{cad.NewLine("cut", 1, 1, 1, 1)}, Options{})
	assert.True(t, camerr.IsGeometry(err))
	assert.ErrorContains(t, err, "isolated point at (1, 1)")

	_, err = Resolve(append(squareCCW(), cad.NewLine("cut", 5, 5, 5, 5)), Options{})
	assert.True(t, camerr.IsGeometry(err))

	_, err = Resolve(squareCCW(), Options{MaxArcLen: -1})
	assert.Equal(t, "maxArcLen", camerr.Key(err))

	_, err = Resolve(squareCCW(), Options{PtEquivTol: -1})
	assert.Equal(t, "ptEquivTol", camerr.Key(err))

	_, err = Resolve(squareCCW(), Options{Direction: geom.Direction(7)})
	assert.Equal(t, "direction", camerr.Key(err))
}

func common() routine.Common {
	return routine.Common{
		StartZ: 0, SafeZ: 0.1, Depth: 0.1, MaxCutDepth: 0.05,
		ToolDiam: 0.25, Direction: geom.CCW,
	}
}

func commentsWith(cmds []motion.Command, prefix string) int {
	n := 0
	for _, c := range cmds {
		if cm, ok := c.(motion.Comment); ok && strings.HasPrefix(cm.Text, prefix) {
			n++
		}
	}
	return n
}

func TestDxfBoundary(t *testing.T) {
	d := &cad.Drawing{Entities: append(squareCW(),
		cad.NewCircle("cut", 5, 5, 1),
		cad.NewLine("construction", -5, -5, 5, 5),
	)}
	cfg := DxfBoundaryConfig{
		Common:     common(),
		Source:     Source{Layers: []string{"cut"}},
		CutterComp: routine.CompInside,
	}
	db, err := NewDxfBoundary(d, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, db.Paths(), 2)
	assert.Equal(t, "DxfBoundary", db.Name())

	cmds := db.Commands()
	assert.Equal(t, 2, commentsWith(cmds, "Begin LineSegBoundary"))
	assert.Equal(t, 2, commentsWith(cmds, "DxfBoundary: path"))
	var comps []motion.CutterComp
	for _, c := range cmds {
		if cc, ok := c.(motion.CutterComp); ok {
			comps = append(comps, cc)
		}
	}
	require.Len(t, comps, 2)
	for _, cc := range comps {
		assert.Equal(t, motion.CutterComp{Side: motion.Left, Diameter: 0.25}, cc)
	}
	for _, p := range db.Paths() {
		assert.Equal(t, geom.CCW, geom.Winding(p.Points))
	}
}

func TestDxfBoundaryErrors(t *testing.T) {
	cfg := DxfBoundaryConfig{Common: common()}
	_, err := NewDxfBoundary(nil, cfg, nil)
	assert.Equal(t, "file", camerr.Key(err))

	d := &cad.Drawing{Entities: squareCCW()}
	cfg.Types = []cad.Type{cad.Point}
	_, err = NewDxfBoundary(d, cfg, nil)
	assert.Equal(t, "dxfTypes", camerr.Key(err))

	cfg = DxfBoundaryConfig{Common: common()}
	cfg.SafeZ = -1
	_, err = NewDxfBoundary(d, cfg, nil)
	assert.Equal(t, "safeZ", camerr.Key(err))
}

func TestDxfDrill(t *testing.T) {
	d := &cad.Drawing{Entities: []cad.Entity{
		cad.NewCircle("holes", 1, 1, 0.1),
		cad.NewPoint("holes", 2, 2),
		cad.NewArc("holes", 3, 3, 0.2, 0, 90),
		cad.NewLine("holes", 0, 0, 1, 0),
	}}
	cfg := DxfDrillConfig{DrillConfig: routine.DrillConfig{StartZ: 0, StopZ: -0.5, SafeZ: 0.5, PeckStep: 0.05}}
	dd, err := NewDxfDrill(d, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, dd.Holes())

	var cycles []motion.DrillCycle
	for _, c := range dd.Commands() {
		if dc, ok := c.(motion.DrillCycle); ok {
			cycles = append(cycles, dc)
		}
	}
	require.Len(t, cycles, 3)
	assert.Equal(t, motion.DrillCycle{X: 1, Y: 1, Z: -0.5, R: 0, Peck: 0.05}, cycles[0])
	assert.Equal(t, 2.0, cycles[1].X)
	assert.Equal(t, 3.0, cycles[2].Y)

	cfg.Types = []cad.Type{cad.Circle}
	dd, err = NewDxfDrill(d, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, dd.Holes())

	cfg.Types = []cad.Type{cad.Line}
	_, err = NewDxfDrill(d, cfg)
	assert.Equal(t, "dxfTypes", camerr.Key(err))
}

func TestDxfCircPocket(t *testing.T) {
	d := &cad.Drawing{Entities: []cad.Entity{
		cad.NewCircle("pockets", 0, 0, 0.5),
		cad.NewCircle("pockets", 3, 0, 0.75),
	}}
	cfg := DxfCircPocketConfig{CircPocketConfig: routine.CircPocketConfig{Common: common(), Overlap: 0.3}}
	dp, err := NewDxfCircPocket(d, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, dp.Pockets())
	assert.Equal(t, 2, commentsWith(dp.Commands(), "Begin CircPocket"))

	d.Entities = append(d.Entities, cad.NewCircle("pockets", 6, 0, 0.2))
	_, err = NewDxfCircPocket(d, cfg)
	assert.Equal(t, "toolDiam", camerr.Key(err))
}

func TestLaserVectorCut(t *testing.T) {
	d := &cad.Drawing{Entities: append(squareCCW(),
		cad.NewLine("cut", 3, 0, 4, 0),
		cad.NewCircle("cut", 9, 9, 1),
	)}
	lc, err := NewLaserVectorCut(d, LaserVectorCutConfig{Direction: geom.CW}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, lc.Paths(), 2)
	assert.Equal(t, DefaultLaserHome, *lc.Config().Home)

	cmds := lc.Commands()
	assert.Equal(t, []motion.Command{
		motion.Comment{Text: "Setup laser"},
		motion.FeedRate{Rate: 20},
		motion.DigitalOutput{Pin: 1},
		motion.SpindleSpeed{Speed: 300},
		motion.StartSpindle{},
	}, cmds[:5])
	assert.Equal(t, motion.Rapid{Target: motion.XY(35, 23)}, cmds[len(cmds)-1])

	var on, blend, exact int
	for _, c := range cmds {
		switch c := c.(type) {
		case motion.DigitalOutput:
			if c.On {
				on++
				assert.True(t, c.Synchronized)
			}
		case motion.PathBlend:
			blend++
			assert.Equal(t, motion.PathBlend{P: 0.001, Q: 0.001}, c)
		case motion.ExactPath:
			exact++
		}
	}
	assert.Equal(t, 2, on)
	assert.Equal(t, 2, blend)
	assert.Equal(t, 2, exact)

	_, err = NewLaserVectorCut(d, LaserVectorCutConfig{Source: Source{Types: []cad.Type{cad.Circle}}}, nil)
	assert.Equal(t, "dxfTypes", camerr.Key(err))

	_, err = NewLaserVectorCut(d, LaserVectorCutConfig{FeedRate: -1}, nil)
	assert.Equal(t, "feedRate", camerr.Key(err))
}
