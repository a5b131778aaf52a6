// Package job reads machining job files and turns them into motion
// programs. A job names its output settings and an ordered list of
// operations; each operation is one routine config tagged with its type.
//
// YAML is the default format. Files ending in .toml are read as TOML,
// with operations written as [[operations]] tables.
package job

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/chazu/kerf/pkg/boundary"
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/gcode"
	"github.com/chazu/kerf/pkg/routine"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a job file encoding.
type Format int

const (
	YAML Format = iota
	TOML
)

func (f Format) String() string {
	if f == TOML {
		return "toml"
	}
	return "yaml"
}

// FormatOf picks the format from a file name.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML
	}
	return YAML
}

// Operation kinds as written in the type key.
const (
	RectPocket      = "rectPocket"
	CircPocket      = "circPocket"
	AnnulusPocket   = "annulusPocket"
	RectBoundary    = "rectBoundary"
	CircBoundary    = "circBoundary"
	LineSegBoundary = "lineSegBoundary"
	Drill           = "drill"
	FaceSurface     = "faceSurface"
	SideSurface     = "sideSurface"
	DxfBoundary     = "dxfBoundary"
	DxfDrill        = "dxfDrill"
	DxfCircPocket   = "dxfCircPocket"
	LaserVectorCut  = "laserVectorCut"
)

// configs maps each kind to a constructor for its zero config.
var configs = map[string]func() any{
	RectPocket:      func() any { return &routine.RectPocketConfig{} },
	CircPocket:      func() any { return &routine.CircPocketConfig{} },
	AnnulusPocket:   func() any { return &routine.AnnulusPocketConfig{} },
	RectBoundary:    func() any { return &routine.RectBoundaryConfig{} },
	CircBoundary:    func() any { return &routine.CircBoundaryConfig{} },
	LineSegBoundary: func() any { return &routine.LineSegBoundaryConfig{} },
	Drill:           func() any { return &routine.DrillConfig{} },
	FaceSurface:     func() any { return &routine.FaceSurfaceConfig{} },
	SideSurface:     func() any { return &routine.SideSurfaceConfig{} },
	DxfBoundary:     func() any { return &boundary.DxfBoundaryConfig{} },
	DxfDrill:        func() any { return &boundary.DxfDrillConfig{} },
	DxfCircPocket:   func() any { return &boundary.DxfCircPocketConfig{} },
	LaserVectorCut:  func() any { return &boundary.LaserVectorCutConfig{} },
}

// depthKeys are required by every kind that cuts in passes.
var depthKeys = []string{"startZ", "safeZ", "depth", "maxCutDepth", "toolDiam"}

// required lists the keys each kind must be given. Keys with a documented
// default are left out.
var required = map[string][]string{
	RectPocket:      slices.Concat(depthKeys, []string{"centerX", "centerY", "width", "height", "overlap"}),
	CircPocket:      slices.Concat(depthKeys, []string{"centerX", "centerY", "radius", "overlap"}),
	AnnulusPocket:   slices.Concat(depthKeys, []string{"centerX", "centerY", "radius", "thickness", "overlap"}),
	RectBoundary:    slices.Concat(depthKeys, []string{"centerX", "centerY", "width", "height"}),
	CircBoundary:    slices.Concat(depthKeys, []string{"centerX", "centerY", "radius"}),
	LineSegBoundary: slices.Concat(depthKeys, []string{"points"}),
	Drill:           {"centerX", "centerY", "startZ", "stopZ", "safeZ"},
	FaceSurface:     slices.Concat(depthKeys, []string{"minX", "minY", "maxX", "maxY", "overlap"}),
	SideSurface:     slices.Concat(depthKeys, []string{"plane", "position", "minimum", "maximum", "returnDist"}),
	DxfBoundary:     depthKeys,
	DxfDrill:        {"startZ", "stopZ", "safeZ"},
	DxfCircPocket:   slices.Concat(depthKeys, []string{"overlap"}),
}

// Kinds lists the known operation kinds in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(configs))
	for k := range configs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Operation is one machining step. Config points at the routine config
// for Kind, e.g. *routine.RectPocketConfig for "rectPocket".
type Operation struct {
	Kind   string
	Config any
}

// Job is a parsed job file.
type Job struct {
	Name        string
	Units       gcode.Units
	FeedRate    float64
	LineNumbers bool
	Operations  []Operation
}

// GcodeOptions returns the emitter settings the job asks for.
func (j *Job) GcodeOptions() gcode.Options {
	return gcode.Options{Units: j.Units, FeedRate: j.FeedRate, LineNumbers: j.LineNumbers}
}

// file is the on-disk shape of a job.
type file struct {
	Name        string           `yaml:"name,omitempty" toml:"name,omitempty"`
	Units       gcode.Units      `yaml:"units" toml:"units"`
	FeedRate    float64          `yaml:"feedRate,omitempty" toml:"feedRate,omitempty"`
	LineNumbers bool             `yaml:"lineNumbers,omitempty" toml:"lineNumbers,omitempty"`
	Operations  []map[string]any `yaml:"operations" toml:"operations"`
}

// Load reads a job file. The job name defaults to the file's base name.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "job: read %s", path)
	}
	j, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, errors.Wrapf(err, "job: %s", path)
	}
	if j.Name == "" {
		j.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return j, nil
}

// Parse decodes a job. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Job, error) {
	var f file
	if err := decode(data, format, &f); err != nil {
		return nil, err
	}
	j := &Job{Name: f.Name, Units: f.Units, FeedRate: f.FeedRate, LineNumbers: f.LineNumbers}
	for i, raw := range f.Operations {
		op, err := decodeOperation(raw, format)
		if err != nil {
			return nil, errors.Wrapf(err, "operation %d", i+1)
		}
		j.Operations = append(j.Operations, op)
	}
	return j, nil
}

func decode(data []byte, format Format, v any) error {
	if format == TOML {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return errors.Wrap(dec.Decode(v), "toml")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return errors.Wrap(err, "yaml")
	}
	return nil
}

func encode(v any, format Format) ([]byte, error) {
	if format == TOML {
		return toml.Marshal(v)
	}
	return yaml.Marshal(v)
}

func decodeOperation(raw map[string]any, format Format) (Operation, error) {
	kind, _ := raw["type"].(string)
	params := make(map[string]any, len(raw))
	for k, v := range raw {
		if k != "type" {
			params[k] = v
		}
	}
	return decodeParams(kind, params, format)
}

// NewOperation decodes params into the config for kind. Keys follow the
// job file spelling, and a missing required key is a parameter error.
func NewOperation(kind string, params map[string]any) (Operation, error) {
	return decodeParams(kind, params, YAML)
}

func decodeParams(kind string, params map[string]any, format Format) (Operation, error) {
	mk, ok := configs[kind]
	if !ok {
		return Operation{}, camerr.Param("type", "unknown operation %q, expected one of %s", kind, strings.Join(Kinds(), ", "))
	}
	cfg := mk()
	data, err := encode(params, format)
	if err != nil {
		return Operation{}, errors.Wrapf(err, "%s", kind)
	}
	if err := decode(data, format, cfg); err != nil {
		return Operation{}, errors.Wrapf(err, "%s", kind)
	}
	for _, key := range required[kind] {
		if v, ok := params[key]; !ok || v == nil {
			return Operation{}, camerr.Param(key, "missing required key for %s", kind)
		}
	}
	return Operation{Kind: kind, Config: cfg}, nil
}

// Marshal encodes the job in format. Parsing the result gives back an
// equivalent job.
func (j *Job) Marshal(format Format) ([]byte, error) {
	f := file{Name: j.Name, Units: j.Units, FeedRate: j.FeedRate, LineNumbers: j.LineNumbers}
	for i, op := range j.Operations {
		data, err := encode(op.Config, format)
		if err != nil {
			return nil, errors.Wrapf(err, "operation %d", i+1)
		}
		m := map[string]any{}
		if err := decode(data, format, &m); err != nil {
			return nil, errors.Wrapf(err, "operation %d", i+1)
		}
		m["type"] = op.Kind
		f.Operations = append(f.Operations, m)
	}
	return encode(f, format)
}
