// Package zpass schedules the depth levels of a multi-pass cut.
package zpass

import (
	"math"

	"github.com/chazu/kerf/pkg/camerr"
)

// snapTol is the relative distance within which a level is taken to have
// reached the stop level.
const snapTol = 1.0e-9

// Pair is a consecutive pair of levels. A pass ramps from Prev to Curr.
type Pair struct {
	Prev float64
	Curr float64
}

// Terminal reports whether the pair is the repeated final level.
func (p Pair) Terminal() bool {
	return p.Prev == p.Curr
}

// Levels returns the depth levels from startZ down to startZ-|depth| in
// steps of at most maxCutDepth. Level k is computed as
// startZ - k*maxCutDepth and the last level is exactly startZ-|depth|.
func Levels(startZ, depth, maxCutDepth float64) ([]float64, error) {
	if !finite(maxCutDepth) || maxCutDepth <= 0 {
		return nil, camerr.Param("maxCutDepth", "must be finite and > 0, got %g", maxCutDepth)
	}
	if !finite(startZ) {
		return nil, camerr.Param("startZ", "must be finite, got %g", startZ)
	}
	if !finite(depth) {
		return nil, camerr.Param("depth", "must be finite, got %g", depth)
	}
	depth = math.Abs(depth)
	stopZ := startZ - depth
	tol := snapTol * math.Max(1, depth)

	levels := []float64{startZ}
	for k := 1; levels[len(levels)-1] > stopZ; k++ {
		z := startZ - float64(k)*maxCutDepth
		if z-stopZ <= tol {
			z = stopZ
		}
		levels = append(levels, z)
	}
	return levels, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Pairs returns consecutive pairs of levels followed by the terminal pair
// (last, last).
func Pairs(levels []float64) []Pair {
	if len(levels) == 0 {
		return nil
	}
	pairs := make([]Pair, 0, len(levels))
	for i := 1; i < len(levels); i++ {
		pairs = append(pairs, Pair{Prev: levels[i-1], Curr: levels[i]})
	}
	last := levels[len(levels)-1]
	return append(pairs, Pair{Prev: last, Curr: last})
}

// Schedule is the pass plan of one routine.
type Schedule struct {
	StartZ      float64
	Depth       float64
	MaxCutDepth float64

	levels []float64
}

// New computes the schedule.
func New(startZ, depth, maxCutDepth float64) (Schedule, error) {
	levels, err := Levels(startZ, depth, maxCutDepth)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{StartZ: startZ, Depth: math.Abs(depth), MaxCutDepth: maxCutDepth, levels: levels}, nil
}

// Levels returns a copy of the level list.
func (s Schedule) Levels() []float64 {
	return append([]float64(nil), s.levels...)
}

// StopZ returns the final level.
func (s Schedule) StopZ() float64 {
	return s.levels[len(s.levels)-1]
}

// Pairs returns every pair including the terminal one.
func (s Schedule) Pairs() []Pair {
	return Pairs(s.levels)
}

// CutPairs returns the pairs that descend, one per cutting pass. A zero
// depth yields a single pass at startZ.
func (s Schedule) CutPairs() []Pair {
	pairs := s.Pairs()
	if len(pairs) == 1 {
		return pairs
	}
	return pairs[:len(pairs)-1]
}

// Passes returns the number of cutting passes.
func (s Schedule) Passes() int {
	return len(s.CutPairs())
}
