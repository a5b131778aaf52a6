package motion

import "github.com/chazu/kerf/pkg/geom"

// Command is one abstract machine instruction. The set is closed: only
// this package defines commands.
type Command interface {
	command()
}

// Rapid is a non-cutting traverse.
type Rapid struct {
	Target Axes
}

// Linear is a straight cutting move at the current feed rate.
type Linear struct {
	Target Axes
}

// Helical is a circular or helical arc in Plane. Offset holds the
// center relative to the start point along the plane's two axes. Turns
// above 1 request extra full revolutions before reaching Target.
type Helical struct {
	Target Axes
	Offset [2]float64
	Dir    geom.Direction
	Plane  Plane
	Turns  int
}

// Dwell pauses motion for Seconds.
type Dwell struct {
	Seconds float64
}

// DrillCycle is a canned drilling cycle at (X, Y) from retract plane R
// down to Z. A positive Peck selects pecking; a positive Dwell pauses
// at the bottom.
type DrillCycle struct {
	X, Y  float64
	Z     float64
	R     float64
	Peck  float64
	Dwell float64
}

// CutterComp enables tool-radius compensation. A zero Diameter uses the
// tool table.
type CutterComp struct {
	Side     Side
	Diameter float64
}

// CancelCutterComp disables tool-radius compensation.
type CancelCutterComp struct{}

type Comment struct {
	Text string
}

// DigitalOutput switches an output pin, either synchronized with the next
// motion or immediately.
type DigitalOutput struct {
	Pin          int
	On           bool
	Synchronized bool
}

// PathBlend allows the controller to round corners within tolerance P,
// with naive-cam tolerance Q.
type PathBlend struct {
	P, Q float64
}

// ExactPath disables blending.
type ExactPath struct{}

type FeedRate struct {
	Rate float64
}

type SpindleSpeed struct {
	Speed float64
}

type StartSpindle struct {
	CCW bool
}

type StopSpindle struct{}

// Units selects inches or millimetres.
type Units struct {
	Inches bool
}

type AbsoluteMode struct{}

type ProgramEnd struct{}

func (Rapid) command()            {}
func (Linear) command()           {}
func (Helical) command()          {}
func (Dwell) command()            {}
func (DrillCycle) command()       {}
func (CutterComp) command()       {}
func (CancelCutterComp) command() {}
func (Comment) command()          {}
func (DigitalOutput) command()    {}
func (PathBlend) command()        {}
func (ExactPath) command()        {}
func (FeedRate) command()         {}
func (SpindleSpeed) command()     {}
func (StartSpindle) command()     {}
func (StopSpindle) command()      {}
func (Units) command()            {}
func (AbsoluteMode) command()     {}
func (ProgramEnd) command()       {}

// Target returns the axis values a motion command moves to.
func Target(c Command) (Axes, bool) {
	switch c := c.(type) {
	case Rapid:
		return c.Target, true
	case Linear:
		return c.Target, true
	case Helical:
		return c.Target, true
	case DrillCycle:
		return XY(c.X, c.Y), true
	}
	return Axes{}, false
}

// Program is an ordered command list.
type Program struct {
	Commands []Command
}

// Append adds cmds to the end of the program.
func (p *Program) Append(cmds ...Command) {
	p.Commands = append(p.Commands, cmds...)
}

func (p *Program) Len() int {
	return len(p.Commands)
}

// Moves returns the number of motion commands in the program.
func (p *Program) Moves() int {
	n := 0
	for _, c := range p.Commands {
		if _, ok := Target(c); ok {
			n++
		}
	}
	return n
}
