package zpass

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquarePocketScenario(t *testing.T) {
	s, err := New(0, 0.2, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Passes())
	assert.Equal(t, -0.2, s.StopZ())
	levels := s.Levels()
	require.Len(t, levels, 5)
	assert.Equal(t, 0.0, levels[0])
	assert.InDelta(t, -0.15, levels[3], 1e-12)
}

func TestMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 500; n++ {
		startZ := rng.Float64()*2 - 1
		depth := rng.Float64()*3 + 1e-3
		maxCut := rng.Float64()*0.5 + 1e-3
		t.Run(fmt.Sprintf("%d", n), func(t *testing.T) {
			levels, err := Levels(startZ, depth, maxCut)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(levels), 2)
			assert.Equal(t, startZ, levels[0])
			assert.Equal(t, startZ-depth, levels[len(levels)-1])
			for i := 1; i < len(levels); i++ {
				gap := levels[i-1] - levels[i]
				assert.Greater(t, gap, 0.0, "levels must strictly decrease")
				assert.LessOrEqual(t, gap, maxCut+1e-8)
			}
		})
	}
}

func TestPairs(t *testing.T) {
	pairs := Pairs([]float64{0, -0.1, -0.15})
	assert.Equal(t, []Pair{{0, -0.1}, {-0.1, -0.15}, {-0.15, -0.15}}, pairs)
	assert.True(t, pairs[2].Terminal())
	assert.False(t, pairs[0].Terminal())
	assert.Nil(t, Pairs(nil))

	s, err := New(0.1, 0.1, 0.05)
	require.NoError(t, err)
	assert.Len(t, s.Pairs(), 3)
	assert.Len(t, s.CutPairs(), 2)
}

func TestZeroDepth(t *testing.T) {
	s, err := New(0, 0, 0.1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, s.Levels())
	assert.Equal(t, []Pair{{0, 0}}, s.CutPairs())
}

func TestNegativeDepthIsMagnitude(t *testing.T) {
	levels, err := Levels(0, -0.3, 0.1)
	require.NoError(t, err)
	assert.Len(t, levels, 4)
	assert.Equal(t, -0.3, levels[3])
}

func TestBadMaxCut(t *testing.T) {
	for _, mc := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Levels(0, 1, mc)
		assert.True(t, camerr.IsParameter(err))
		assert.Equal(t, "maxCutDepth", camerr.Key(err))
	}
}

func TestNonFiniteLevels(t *testing.T) {
	tests := []struct {
		name          string
		startZ, depth float64
		key           string
	}{
		{"infinite depth", 0, math.Inf(1), "depth"},
		{"negative infinite depth", 0, math.Inf(-1), "depth"},
		{"nan depth", 0, math.NaN(), "depth"},
		{"infinite start", math.Inf(1), 1, "startZ"},
		{"nan start", math.NaN(), 1, "startZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			levels, err := Levels(tt.startZ, tt.depth, 0.1)
			require.Error(t, err)
			assert.Nil(t, levels)
			assert.True(t, camerr.IsParameter(err))
			assert.Equal(t, tt.key, camerr.Key(err))
		})
	}
}
