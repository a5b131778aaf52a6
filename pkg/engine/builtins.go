package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/gcode"
	"github.com/chazu/kerf/pkg/job"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms job script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: rect-pocket -> rect_pocket
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters; a
		// minus operator is left alone.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpPt is a 2D point built by `pt`.
type sexpPt struct {
	x, y float64
}

func (p *sexpPt) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pt %g %g)", p.x, p.y)
}
func (p *sexpPt) Type() *zygo.RegisteredType { return nil }

// sexpOperation wraps a decoded job operation so it can be returned from
// an operation builtin and consumed by `job`.
type sexpOperation struct {
	op job.Operation
}

func (o *sexpOperation) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(operation %s)", o.op.Kind)
}
func (o *sexpOperation) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if _, seen := result.kw[name]; !seen {
			result.order = append(result.order, name)
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Keyword at end with no value: treat as flag with nil.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_cw) and plain strings ("cw").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toBool accepts true/false, or nil for a bare flag keyword.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toValue converts a Sexp into the plain value a job file would hold for
// the same parameter.
func toValue(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return v.Val, nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpStr:
		return strings.TrimPrefix(v.S, kwPrefix), nil
	case *zygo.SexpBool:
		return v.Val, nil
	case *sexpPt:
		return []any{v.x, v.y}, nil
	case *zygo.SexpPair, *zygo.SexpArray, *zygo.SexpSentinel:
		items, err := sexpListToSlice(s)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, it := range items {
			if out[i], err = toValue(it); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value %T (%s)", s, s.SexpString(nil))
}

// camelKey converts a keyword name to its job file key: center-x becomes
// centerX.
func camelKey(kw string) string {
	parts := strings.Split(kw, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// toCorners turns a list of corner keywords into a corner set.
func toCorners(s zygo.Sexp) (map[string]any, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"c00": false, "c01": false, "c11": false, "c10": false}
	for _, it := range items {
		name, err := toKeywordString(it)
		if err != nil {
			return nil, err
		}
		if _, ok := out[name]; !ok {
			return nil, fmt.Errorf("unknown corner %q, expected c00, c01, c11 or c10", name)
		}
		out[name] = true
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Evaluation state
// ---------------------------------------------------------------------------

// evalState collects what one evaluation builds.
type evalState struct {
	ops []job.Operation
	job *job.Job
}

// result returns the declared job, or a job holding every operation built
// when the script never called `job`.
func (st *evalState) result() *job.Job {
	if st.job != nil {
		return st.job
	}
	return &job.Job{Operations: st.ops}
}

// operationBuiltins maps DSL names (after kebab conversion) to job kinds.
var operationBuiltins = map[string]string{
	"rect_pocket":     job.RectPocket,
	"circ_pocket":     job.CircPocket,
	"annulus_pocket":  job.AnnulusPocket,
	"rect_boundary":   job.RectBoundary,
	"circ_boundary":   job.CircBoundary,
	"line_boundary":   job.LineSegBoundary,
	"drill":           job.Drill,
	"face_surface":    job.FaceSurface,
	"side_surface":    job.SideSurface,
	"dxf_boundary":    job.DxfBoundary,
	"dxf_drill":       job.DxfDrill,
	"dxf_circ_pocket": job.DxfCircPocket,
	"laser_cut":       job.LaserVectorCut,
}

// dslName converts a builtin name back to the spelling users write.
func dslName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the job DSL builtins into a zygomys environment.
// Operations built during evaluation are recorded in st.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, st *evalState) {

	// -----------------------------------------------------------------------
	// (pt 1.5 2)
	// -----------------------------------------------------------------------
	env.AddFunction("pt", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("pt requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: y: %w", err)
		}
		return &sexpPt{x: x, y: y}, nil
	})

	// -----------------------------------------------------------------------
	// (rect-pocket :center-x 1 :width 2 ... :direction :cw)
	//
	// Every operation takes keyword arguments only. Keywords are the job
	// file keys in kebab case.
	// -----------------------------------------------------------------------
	for fn, kind := range operationBuiltins {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			op := dslName(name)
			pa := parseArgs(args)
			if len(pa.positional) > 0 {
				return zygo.SexpNull, fmt.Errorf("%s: unexpected positional argument %s", op, pa.positional[0].SexpString(nil))
			}
			params := make(map[string]any, len(pa.kw))
			for _, kw := range pa.order {
				var (
					v   any
					err error
				)
				if kw == "corners" {
					v, err = toCorners(pa.kw[kw])
				} else {
					v, err = toValue(pa.kw[kw])
				}
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %s: %w", op, kw, err)
				}
				params[camelKey(kw)] = v
			}
			o, err := job.NewOperation(kind, params)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			st.ops = append(st.ops, o)
			return &sexpOperation{op: o}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (job "bracket" :units :mm :feed-rate 20 :line-numbers true
	//   (rect-pocket ...) (drill ...))
	// -----------------------------------------------------------------------
	env.AddFunction("job", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if st.job != nil {
			return zygo.SexpNull, fmt.Errorf("job: already defined as %q", st.job.Name)
		}
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("job requires a name argument")
		}
		jobName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("job: name: %w", err)
		}
		j := &job.Job{Name: jobName}

		if v, ok := pa.kw["units"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("job: units: %w", err)
			}
			if j.Units, err = gcode.ParseUnits(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("job: %w", err)
			}
		}
		if v, ok := pa.kw["feed-rate"]; ok {
			if j.FeedRate, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("job: feed-rate: %w", err)
			}
		}
		if v, ok := pa.kw["line-numbers"]; ok {
			if j.LineNumbers, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("job: line-numbers: %w", err)
			}
		}

		for i, arg := range pa.positional[1:] {
			ref, ok := arg.(*sexpOperation)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("job: child %d: expected operation, got %T (%s)",
					i+1, arg, arg.SexpString(nil))
			}
			j.Operations = append(j.Operations, ref.op)
		}
		st.job = j
		return zygo.SexpNull, nil
	})
}
