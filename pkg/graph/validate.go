package graph

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/samber/lo"
)

// gapFactor scales the merge tolerance to the distance under which two
// loose ends are reported as a likely drawing gap.
const gapFactor = 100

// ValidationSeverity indicates whether a finding blocks machining or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks machining
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single finding about a drawing graph.
// Node and Edge are -1 when the finding is not tied to one.
type ValidationError struct {
	Node     NodeID
	Edge     EdgeID
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	switch {
	case e.Node >= 0:
		return fmt.Sprintf("[%s] node %d: %s", e.Severity, e.Node, e.Message)
	case e.Edge >= 0:
		return fmt.Sprintf("[%s] edge %d: %s", e.Severity, e.Edge, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
}

// ValidationResult bundles blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err returns the blocking findings as one GeometryError, or nil when
// there are none.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	msgs := lo.Map(r.Errors, func(e ValidationError, _ int) string { return e.Error() })
	return camerr.Geometry("%s", strings.Join(msgs, "; "))
}

// Validate inspects the graph without modifying it. Isolated nodes are
// errors. Branching nodes, segments shorter than the merge tolerance and
// loose ends close enough to be a drawing gap are warnings.
func Validate(g *EntityGraph) ValidationResult {
	var res ValidationResult
	for _, f := range validateDegrees(g) {
		if f.Severity == SeverityError {
			res.Errors = append(res.Errors, f)
		} else {
			res.Warnings = append(res.Warnings, f)
		}
	}
	res.Warnings = append(res.Warnings, validateShortEdges(g)...)
	res.Warnings = append(res.Warnings, validateGaps(g)...)
	if g.Dropped > 0 {
		res.Warnings = append(res.Warnings, ValidationError{
			Node: -1, Edge: -1,
			Message:  fmt.Sprintf("%d zero-length segments dropped", g.Dropped),
			Severity: SeverityWarning,
		})
	}
	return res
}

func validateDegrees(g *EntityGraph) []ValidationError {
	var out []ValidationError
	for _, n := range g.Nodes {
		switch d := n.Degree(); {
		case d == 0:
			out = append(out, ValidationError{
				Node: n.ID, Edge: -1,
				Message:  fmt.Sprintf("isolated point at (%g, %g)", n.Pos.X, n.Pos.Y),
				Severity: SeverityError,
			})
		case d > 2:
			out = append(out, ValidationError{
				Node: n.ID, Edge: -1,
				Message:  fmt.Sprintf("%d segments meet at (%g, %g); cutter compensation unavailable", d, n.Pos.X, n.Pos.Y),
				Severity: SeverityWarning,
			})
		}
	}
	return out
}

func validateShortEdges(g *EntityGraph) []ValidationError {
	var out []ValidationError
	for _, e := range g.Edges {
		if l := e.Seg.Length(); l < 10*g.Tol {
			out = append(out, ValidationError{
				Node: -1, Edge: e.ID,
				Message:  fmt.Sprintf("segment length %g is close to the merge tolerance", l),
				Severity: SeverityWarning,
			})
		}
	}
	return out
}

func validateGaps(g *EntityGraph) []ValidationError {
	var ends []*Node
	for _, n := range g.Nodes {
		if n.Degree() == 1 {
			ends = append(ends, n)
		}
	}
	var out []ValidationError
	for i, a := range ends {
		for _, b := range ends[i+1:] {
			if d := geom.Dist(a.Pos, b.Pos); d < gapFactor*g.Tol {
				out = append(out, ValidationError{
					Node: a.ID, Edge: -1,
					Message:  fmt.Sprintf("loose end %g from node %d; raise ptEquivTol to join them", d, b.ID),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return out
}
