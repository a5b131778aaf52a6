package job

import (
	"fmt"
	"path/filepath"

	"github.com/chazu/kerf/pkg/boundary"
	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/cad/dxf"
	"github.com/chazu/kerf/pkg/camerr"
	"github.com/chazu/kerf/pkg/motion"
	"github.com/chazu/kerf/pkg/routine"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DrawingLoader reads a CAD drawing from disk.
type DrawingLoader func(path string, logger *zap.Logger) (*cad.Drawing, error)

// BuildContext supplies what operations need beyond their configs. Zero
// fields fall back to a no-op logger, the working directory and the DXF
// reader.
type BuildContext struct {
	Logger *zap.Logger
	// BaseDir resolves relative drawing paths, normally the job file's
	// directory.
	BaseDir     string
	LoadDrawing DrawingLoader

	drawings map[string]*cad.Drawing
}

func (ctx *BuildContext) init() {
	if ctx.Logger == nil {
		ctx.Logger = zap.NewNop()
	}
	if ctx.LoadDrawing == nil {
		ctx.LoadDrawing = dxf.Load
	}
	if ctx.drawings == nil {
		ctx.drawings = map[string]*cad.Drawing{}
	}
}

// drawing loads name once per build.
func (ctx *BuildContext) drawing(name string) (*cad.Drawing, error) {
	if name == "" {
		return nil, camerr.Param("file", "no drawing file given")
	}
	p := name
	if !filepath.IsAbs(p) && ctx.BaseDir != "" {
		p = filepath.Join(ctx.BaseDir, p)
	}
	if d, ok := ctx.drawings[p]; ok {
		return d, nil
	}
	d, err := ctx.LoadDrawing(p, ctx.Logger)
	if err != nil {
		return nil, err
	}
	ctx.drawings[p] = d
	return d, nil
}

func result[T routine.Routine](r T, err error) (routine.Routine, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Routine builds the operation's routine.
func (op Operation) Routine(ctx *BuildContext) (routine.Routine, error) {
	ctx.init()
	switch c := op.Config.(type) {
	case *routine.RectPocketConfig:
		return result(routine.NewRectPocket(*c))
	case *routine.CircPocketConfig:
		return result(routine.NewCircPocket(*c))
	case *routine.AnnulusPocketConfig:
		return result(routine.NewAnnulusPocket(*c))
	case *routine.RectBoundaryConfig:
		return result(routine.NewRectBoundary(*c))
	case *routine.CircBoundaryConfig:
		return result(routine.NewCircBoundary(*c))
	case *routine.LineSegBoundaryConfig:
		return result(routine.NewLineSegBoundary(*c))
	case *routine.DrillConfig:
		return result(routine.NewDrill(*c))
	case *routine.FaceSurfaceConfig:
		return result(routine.NewFaceSurface(*c))
	case *routine.SideSurfaceConfig:
		return result(routine.NewSideSurface(*c))
	case *boundary.DxfBoundaryConfig:
		d, err := ctx.drawing(c.File)
		if err != nil {
			return nil, err
		}
		return result(boundary.NewDxfBoundary(d, *c, ctx.Logger))
	case *boundary.DxfDrillConfig:
		d, err := ctx.drawing(c.File)
		if err != nil {
			return nil, err
		}
		return result(boundary.NewDxfDrill(d, *c))
	case *boundary.DxfCircPocketConfig:
		d, err := ctx.drawing(c.File)
		if err != nil {
			return nil, err
		}
		return result(boundary.NewDxfCircPocket(d, *c))
	case *boundary.LaserVectorCutConfig:
		d, err := ctx.drawing(c.File)
		if err != nil {
			return nil, err
		}
		return result(boundary.NewLaserVectorCut(d, *c, ctx.Logger))
	}
	return nil, camerr.Param("type", "operation %q has unsupported config %T", op.Kind, op.Config)
}

// Build generates every operation in order and concatenates their
// commands, each preceded by a comment naming the operation. The first
// failing operation aborts the build.
func (j *Job) Build(ctx BuildContext) (motion.Program, error) {
	ctx.init()
	log := ctx.Logger.With(zap.String("job", j.Name))
	var prog motion.Program
	if len(j.Operations) == 0 {
		return prog, camerr.Param("operations", "job %q has no operations", j.Name)
	}
	for i, op := range j.Operations {
		r, err := op.Routine(&ctx)
		if err != nil {
			return motion.Program{}, errors.Wrapf(err, "operation %d (%s)", i+1, op.Kind)
		}
		prog.Append(motion.Comment{Text: fmt.Sprintf("Operation %d of %d: %s", i+1, len(j.Operations), r.Name())})
		prog.Append(r.Commands()...)
		log.Debug("operation built",
			zap.Int("index", i+1),
			zap.String("kind", op.Kind),
			zap.Int("commands", len(r.Commands())),
		)
	}
	log.Info("job built",
		zap.Int("operations", len(j.Operations)),
		zap.Int("commands", prog.Len()),
		zap.Int("moves", prog.Moves()),
	)
	return prog, nil
}
