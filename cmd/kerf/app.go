package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/kerf/pkg/boundary"
	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/gcode"
	"github.com/chazu/kerf/pkg/job"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/preview"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// scriptExt marks job scripts evaluated by the engine rather than parsed
// as job files.
const scriptExt = ".kerf"

// App ties the engine, job builder and writers together. Each command is
// one call on App.
type App struct {
	engine *engine.Engine
	logger *zap.Logger
	// loadDrawing overrides the DXF reader; nil uses the default.
	loadDrawing job.DrawingLoader
}

// NewApp creates an App that logs to logger. opts configure the script
// engine after its logger is set.
func NewApp(logger *zap.Logger, opts ...engine.Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]engine.Option{engine.WithLogger(logger.Named("engine"))}, opts...)
	return &App{
		engine: engine.NewEngine(opts...),
		logger: logger,
	}
}

// IsScript reports whether path names a job script.
func IsScript(path string) bool {
	return strings.EqualFold(filepath.Ext(path), scriptExt)
}

// LoadJob reads a job file or evaluates a job script, picking by
// extension. The job name defaults to the file's base name.
func (a *App) LoadJob(path string) (*job.Job, error) {
	if !IsScript(path) {
		return job.Load(path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return a.Evaluate(path, string(source))
}

// Evaluate runs a job script. name is used in errors and as the default
// job name.
func (a *App) Evaluate(name, source string) (*job.Job, error) {
	// Step 1: Evaluate the Lisp source into a job.
	j, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		return nil, errors.Wrapf(err, "evaluate %s", name)
	}

	// Step 2: Report every eval error, not just the first.
	if len(evalErrs) > 0 {
		errs := lo.Map(evalErrs, func(e engine.EvalError, _ int) error { return e })
		return nil, errors.Wrapf(multierr.Combine(errs...), "%s", name)
	}

	if j.Name == "" {
		j.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return j, nil
}

// Build generates the program for j. Drawings are resolved against
// baseDir.
func (a *App) Build(j *job.Job, baseDir string) (motion.Program, error) {
	return j.Build(job.BuildContext{
		Logger:      a.logger.Named("job"),
		BaseDir:     baseDir,
		LoadDrawing: a.loadDrawing,
	})
}

// Run loads the job at path, builds it and writes G-code to w. opts
// adjusts the job's own emitter settings.
func (a *App) Run(w io.Writer, path string, opts func(*gcode.Options)) error {
	j, err := a.LoadJob(path)
	if err != nil {
		return err
	}
	return a.Emit(w, j, filepath.Dir(path), opts)
}

// Emit builds j and writes G-code to w.
func (a *App) Emit(w io.Writer, j *job.Job, baseDir string, opts func(*gcode.Options)) error {
	prog, err := a.Build(j, baseDir)
	if err != nil {
		return errors.Wrapf(err, "job %s", j.Name)
	}
	o := j.GcodeOptions()
	if opts != nil {
		opts(&o)
	}
	return gcode.Write(w, prog, o)
}

// Preview loads the job at path, builds it and writes an SVG plot to w.
func (a *App) Preview(w io.Writer, path string, opts preview.Options) error {
	j, err := a.LoadJob(path)
	if err != nil {
		return err
	}
	prog, err := a.Build(j, filepath.Dir(path))
	if err != nil {
		return errors.Wrapf(err, "job %s", j.Name)
	}
	if opts.Title == "" {
		opts.Title = j.Name
	}
	return preview.Render(w, prog, opts)
}

// DxfJob wraps a single drawing operation in a job: a vector cut when
// laser is set, a boundary cut otherwise.
func DxfJob(path string, units gcode.Units, bcfg boundary.DxfBoundaryConfig, lcfg boundary.LaserVectorCutConfig, laser bool) *job.Job {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	j := &job.Job{Name: name, Units: units}
	if laser {
		lcfg.File = filepath.Base(path)
		j.Operations = []job.Operation{{Kind: job.LaserVectorCut, Config: &lcfg}}
		return j
	}
	bcfg.File = filepath.Base(path)
	j.Operations = []job.Operation{{Kind: job.DxfBoundary, Config: &bcfg}}
	return j
}
