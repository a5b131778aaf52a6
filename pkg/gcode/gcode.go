// Package gcode renders motion programs as RS274 text, one command per
// line, in the dialect LinuxCNC accepts.
package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/pkg/errors"
)

// DefaultLineStep is the increment between N words.
const DefaultLineStep = 2

// Units is the program's length unit.
type Units int

const (
	Inches Units = iota
	Millimeters
)

func (u Units) String() string {
	switch u {
	case Inches:
		return "in"
	case Millimeters:
		return "mm"
	}
	return fmt.Sprintf("Units(%d)", int(u))
}

// ParseUnits accepts "in" or "mm".
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "inch", "inches", "":
		return Inches, nil
	case "mm", "millimeters", "millimetres":
		return Millimeters, nil
	}
	return 0, camerr.Param("units", "unknown units %q, expected in or mm", s)
}

func (u Units) MarshalText() ([]byte, error) {
	if u != Inches && u != Millimeters {
		return nil, camerr.Param("units", "cannot encode %s", u)
	}
	return []byte(u.String()), nil
}

func (u *Units) UnmarshalText(text []byte) error {
	v, err := ParseUnits(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Options control the program wrapper around the commands.
type Options struct {
	Units Units
	// FeedRate is written in the header when positive.
	FeedRate float64
	// Bare skips the header and footer.
	Bare bool
	// LineNumbers prefixes each line with N words spaced LineStep apart.
	LineNumbers bool
	LineStep    int
}

// Header returns the commands that put the controller in a known state.
func Header(opts Options) []motion.Command {
	cmds := []motion.Command{
		motion.Comment{Text: "Generic start"},
		motion.CancelCutterComp{},
		motion.AbsoluteMode{},
		motion.Units{Inches: opts.Units == Inches},
		motion.ExactPath{},
	}
	if opts.FeedRate > 0 {
		cmds = append(cmds, motion.FeedRate{Rate: opts.FeedRate})
	}
	return cmds
}

// Footer ends the program.
func Footer() []motion.Command {
	return []motion.Command{motion.ProgramEnd{}}
}

func axis(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func axes(words []string, a motion.Axes) []string {
	for ax := motion.X; ax <= motion.Z; ax++ {
		if v, ok := a.Get(ax); ok {
			words = append(words, ax.String()+axis(v))
		}
	}
	return words
}

var commentEscaper = strings.NewReplacer("(", "[", ")", "]", "\n", " ", "\r", " ")

// Format renders one command. It returns "" for a nil command.
func Format(cmd motion.Command) string {
	var w []string
	switch c := cmd.(type) {
	case motion.Rapid:
		w = axes([]string{"G0"}, c.Target)
	case motion.Linear:
		w = axes([]string{"G1"}, c.Target)
	case motion.Helical:
		code := "G3"
		if c.Dir == geom.CW {
			code = "G2"
		}
		w = axes([]string{code}, c.Target)
		i, j := c.Plane.OffsetLetters()
		w = append(w, i+axis(c.Offset[0]), j+axis(c.Offset[1]))
		if c.Turns > 1 {
			w = append(w, "P"+strconv.Itoa(c.Turns))
		}
	case motion.Dwell:
		w = []string{"G4", "P" + num(c.Seconds)}
	case motion.DrillCycle:
		code := "G81"
		switch {
		case c.Peck > 0:
			code = "G83"
		case c.Dwell > 0:
			code = "G82"
		}
		w = []string{code, "X" + axis(c.X), "Y" + axis(c.Y), "Z" + axis(c.Z), "R" + axis(c.R)}
		switch code {
		case "G83":
			w = append(w, "Q"+num(c.Peck))
		case "G82":
			w = append(w, "P"+num(c.Dwell))
		}
	case motion.CutterComp:
		code := "G41"
		if c.Side == motion.Right {
			code = "G42"
		}
		if c.Diameter > 0 {
			w = []string{code + ".1", "D" + num(c.Diameter)}
		} else {
			w = []string{code}
		}
	case motion.CancelCutterComp:
		w = []string{"G40"}
	case motion.Comment:
		return "(" + commentEscaper.Replace(c.Text) + ")"
	case motion.DigitalOutput:
		code := "M65"
		switch {
		case c.Synchronized && c.On:
			code = "M62"
		case c.Synchronized:
			code = "M63"
		case c.On:
			code = "M64"
		}
		w = []string{code, "P" + strconv.Itoa(c.Pin)}
	case motion.PathBlend:
		w = []string{"G64"}
		if c.P > 0 {
			w = append(w, "P"+num(c.P))
			if c.Q > 0 {
				w = append(w, "Q"+num(c.Q))
			}
		}
	case motion.ExactPath:
		w = []string{"G61"}
	case motion.FeedRate:
		w = []string{"F" + num(c.Rate)}
	case motion.SpindleSpeed:
		w = []string{"S" + num(c.Speed)}
	case motion.StartSpindle:
		w = []string{"M3"}
		if c.CCW {
			w[0] = "M4"
		}
	case motion.StopSpindle:
		w = []string{"M5"}
	case motion.Units:
		w = []string{"G21"}
		if c.Inches {
			w[0] = "G20"
		}
	case motion.AbsoluteMode:
		w = []string{"G90"}
	case motion.ProgramEnd:
		w = []string{"M2"}
	}
	return strings.Join(w, " ")
}

var planeCodes = map[motion.Plane]string{
	motion.PlaneXY: "G17",
	motion.PlaneXZ: "G18",
	motion.PlaneYZ: "G19",
}

// emitter tracks the modal state Write needs between lines.
type emitter struct {
	w       *bufio.Writer
	opts    Options
	line    int
	plane   motion.Plane
	planeOK bool
	inCycle bool
}

func (e *emitter) put(text string) error {
	if e.opts.LineNumbers {
		fmt.Fprintf(e.w, "N%d ", e.line*e.opts.LineStep)
	}
	e.line++
	_, err := e.w.WriteString(text + "\n")
	return err
}

func (e *emitter) emit(cmd motion.Command) error {
	_, isMove := motion.Target(cmd)
	_, isCycle := cmd.(motion.DrillCycle)
	_, isEnd := cmd.(motion.ProgramEnd)
	if e.inCycle && (isMove && !isCycle || isEnd) {
		if err := e.put("G80"); err != nil {
			return err
		}
		e.inCycle = false
	}
	if isCycle {
		e.inCycle = true
	}
	if h, ok := cmd.(motion.Helical); ok && (!e.planeOK || h.Plane != e.plane) {
		code, ok := planeCodes[h.Plane]
		if !ok {
			return camerr.Param("plane", "unknown plane %s", h.Plane)
		}
		if err := e.put(code); err != nil {
			return err
		}
		e.plane, e.planeOK = h.Plane, true
	}
	text := Format(cmd)
	if text == "" {
		return errors.Errorf("gcode: cannot format %T", cmd)
	}
	return e.put(text)
}

// Write renders prog to w, wrapped in Header and Footer unless Bare is
// set. G17, G18 or G19 is written before the first arc in each new plane,
// and G80 closes a run of drill cycles before the next other move.
func Write(w io.Writer, prog motion.Program, opts Options) error {
	if opts.LineStep <= 0 {
		opts.LineStep = DefaultLineStep
	}
	e := &emitter{w: bufio.NewWriter(w), opts: opts}
	var cmds []motion.Command
	if !opts.Bare {
		cmds = append(cmds, Header(opts)...)
	}
	cmds = append(cmds, prog.Commands...)
	if !opts.Bare {
		cmds = append(cmds, Footer()...)
	}
	for i, c := range cmds {
		if err := e.emit(c); err != nil {
			return errors.Wrapf(err, "gcode: command %d", i)
		}
	}
	return errors.Wrap(e.w.Flush(), "gcode: flush")
}

// String renders prog like Write and returns the text.
func String(prog motion.Program, opts Options) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, prog, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}
