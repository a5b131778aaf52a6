// Package routine turns machining parameters into complete motion
// programs. Every routine follows the same sequence: retract to safe
// height, position over the start point, feed to the start depth, then
// one lead-in and cutting pass per Z level, and a final retract.
package routine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
	"gopkg.in/yaml.v3"
)

// Routine is a fully generated machining feature.
type Routine interface {
	Name() string
	Commands() []motion.Command
}

// Common holds the parameters shared by pocket and boundary routines.
type Common struct {
	StartZ      float64        `yaml:"startZ" toml:"startZ"`
	SafeZ       float64        `yaml:"safeZ" toml:"safeZ"`
	Depth       float64        `yaml:"depth" toml:"depth"`
	MaxCutDepth float64        `yaml:"maxCutDepth" toml:"maxCutDepth"`
	ToolDiam    float64        `yaml:"toolDiam" toml:"toolDiam"`
	StartDwell  float64        `yaml:"startDwell,omitempty" toml:"startDwell,omitempty"`
	Direction   geom.Direction `yaml:"direction,omitempty" toml:"direction,omitempty"`
}

// Validate checks the shared parameters without requiring a direction.
func (c Common) Validate() error {
	if c.Direction != 0 && !c.Direction.Valid() {
		return camerr.Param("direction", "unknown direction %s", c.Direction)
	}
	return c.validate(false)
}

func (c Common) validate(needDir bool) error {
	if !(c.SafeZ > c.StartZ) {
		return camerr.Param("safeZ", "safeZ %g must be above startZ %g", c.SafeZ, c.StartZ)
	}
	if !(c.Depth > 0) {
		return camerr.Param("depth", "must be > 0, got %g", c.Depth)
	}
	if !(c.MaxCutDepth > 0) {
		return camerr.Param("maxCutDepth", "must be > 0, got %g", c.MaxCutDepth)
	}
	if !(c.ToolDiam > 0) {
		return camerr.Param("toolDiam", "must be > 0, got %g", c.ToolDiam)
	}
	if c.StartDwell < 0 {
		return camerr.Param("startDwell", "must be >= 0, got %g", c.StartDwell)
	}
	if needDir && !c.Direction.Valid() {
		return camerr.Param("direction", "missing or unknown direction, expected cw or ccw")
	}
	return nil
}

func checkOverlap(key string, v, lo float64) error {
	if math.IsNaN(v) || v < lo || v >= 1 {
		return camerr.Param(key, "must be in [%.6f, 1), got %g", lo, v)
	}
	return nil
}

// maxParamComment is the longest parameter comment written verbatim.
const maxParamComment = 50

// builder accumulates the commands of one routine.
type builder struct {
	name string
	cmds []motion.Command
}

func newBuilder(name string) *builder {
	return &builder{name: name}
}

func (b *builder) add(cmds ...motion.Command) {
	b.cmds = append(b.cmds, cmds...)
}

func (b *builder) comment(format string, args ...any) {
	b.add(motion.Comment{Text: fmt.Sprintf(format, args...)})
}

// begin writes the opening comment and one comment per parameter line of
// cfg rendered as YAML. A config that cannot be rendered gets a single
// placeholder comment.
func (b *builder) begin(cfg any) {
	b.comment("Begin %s", b.name)
	out, err := yaml.Marshal(cfg)
	if err != nil {
		b.comment("%s: parameters unavailable: %v", b.name, err)
		return
	}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		if len(line) > maxParamComment {
			key, _, _ := strings.Cut(line, ":")
			line = key + ": too big"
		}
		b.comment("%s", line)
	}
}

func (b *builder) end() {
	b.comment("End %s", b.name)
}

func (b *builder) rapidSafe(safeZ float64) {
	b.comment("%s: rapid move to safe z", b.name)
	b.add(motion.Rapid{Target: motion.ZOnly(safeZ)})
}

func (b *builder) rapidXY(p geom.Vec) {
	b.comment("%s: rapid move to start x,y", b.name)
	b.add(motion.Rapid{Target: motion.XY(p.X, p.Y)})
}

func (b *builder) dwell(seconds float64) {
	if seconds <= 0 {
		return
	}
	b.comment("%s: dwell", b.name)
	b.add(motion.Dwell{Seconds: seconds})
}

func (b *builder) feedStartZ(startZ float64) {
	b.comment("%s: move to start z", b.name)
	b.add(motion.Linear{Target: motion.ZOnly(startZ)})
}

// enter runs the shared start sequence: safe height, start point, dwell
// and start depth.
func (b *builder) enter(c Common, start geom.Vec) {
	b.rapidSafe(c.SafeZ)
	b.rapidXY(start)
	b.dwell(c.StartDwell)
	b.feedStartZ(c.StartZ)
}

// leave retracts and closes the routine.
func (b *builder) leave(safeZ float64) {
	b.rapidSafe(safeZ)
	b.end()
}

// CompMode selects cutter compensation for a boundary.
type CompMode int

const (
	CompNone CompMode = iota
	CompLeft
	CompRight
	CompInside
	CompOutside
)

var compNames = [...]string{"none", "left", "right", "inside", "outside"}

func (m CompMode) String() string {
	if m >= CompNone && m <= CompOutside {
		return compNames[m]
	}
	return fmt.Sprintf("CompMode(%d)", int(m))
}

// ParseCompMode converts a compensation name. The empty string is none.
func ParseCompMode(s string) (CompMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CompNone, nil
	}
	for i, n := range compNames {
		if n == s {
			return CompMode(i), nil
		}
	}
	return 0, camerr.Param("cutterComp", "unknown mode %q, expected inside, outside, left or right", s)
}

func (m CompMode) MarshalText() ([]byte, error) {
	if m < CompNone || m > CompOutside {
		return nil, camerr.Param("cutterComp", "cannot encode %s", m)
	}
	return []byte(m.String()), nil
}

func (m *CompMode) UnmarshalText(text []byte) error {
	v, err := ParseCompMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ResolveSide maps a compensation mode and the path's traversal direction
// to the side of the path the tool runs on. Left and right pass through.
func ResolveSide(mode CompMode, dir geom.Direction) (motion.Side, error) {
	switch mode {
	case CompLeft:
		return motion.Left, nil
	case CompRight:
		return motion.Right, nil
	case CompInside, CompOutside:
	default:
		return 0, camerr.Param("cutterComp", "no side for mode %s", mode)
	}
	if !dir.Valid() {
		return 0, camerr.Param("direction", "mode %s needs cw or ccw, got %s", mode, dir)
	}
	inside := mode == CompInside
	if (dir == geom.CCW) == inside {
		return motion.Left, nil
	}
	return motion.Right, nil
}

// ToolOffset moves a rectangle or circle boundary so the tool edge,
// rather than its center, follows the outline.
type ToolOffset int

const (
	OffsetNone ToolOffset = iota
	OffsetInside
	OffsetOutside
)

func (o ToolOffset) String() string {
	switch o {
	case OffsetNone:
		return "none"
	case OffsetInside:
		return "inside"
	case OffsetOutside:
		return "outside"
	default:
		return fmt.Sprintf("ToolOffset(%d)", int(o))
	}
}

func (o ToolOffset) MarshalText() ([]byte, error) {
	if o < OffsetNone || o > OffsetOutside {
		return nil, camerr.Param("toolOffset", "cannot encode %s", o)
	}
	return []byte(o.String()), nil
}

func (o *ToolOffset) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "none":
		*o = OffsetNone
	case "inside":
		*o = OffsetInside
	case "outside":
		*o = OffsetOutside
	default:
		return camerr.Param("toolOffset", "unknown offset %q, expected inside, outside or none", text)
	}
	return nil
}

// Sense is a signed direction along an axis, written "+" or "-".
type Sense int

const (
	Plus Sense = iota
	Minus
)

func (s Sense) String() string {
	if s == Minus {
		return "-"
	}
	return "+"
}

// sign returns +1 or -1.
func (s Sense) sign() float64 {
	if s == Minus {
		return -1
	}
	return 1
}

func (s Sense) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Sense) UnmarshalText(text []byte) error {
	switch strings.TrimSpace(string(text)) {
	case "+", "":
		*s = Plus
	case "-":
		*s = Minus
	default:
		return camerr.Param("side", "unknown sense %q, expected + or -", text)
	}
	return nil
}
