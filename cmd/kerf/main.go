// Command kerf turns machining jobs into G-code.
//
//	kerf run plate.yaml -o plate.ngc
//	kerf eval bracket.kerf
//	kerf dxf part.dxf --depth 0.25 --tool-diam 0.125 --comp outside
//	kerf preview plate.yaml -o plate.svg
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/kerf/pkg/boundary"
	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/gcode"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/job"
	"github.com/chazu/kerf/pkg/preview"
	"github.com/chazu/kerf/pkg/routine"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger

	verbose     bool
	output      string
	evalTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "kerf",
	Short: "CNC toolpath generator",
	Long: `kerf generates G-code for pockets, boundaries, drilling, surfacing and
DXF-driven cuts.

Jobs are YAML or TOML files listing operations, or .kerf scripts that build
the same operations in Lisp.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	lineNumbers bool
	bare        bool
)

var runCmd = &cobra.Command{
	Use:   "run JOB",
	Short: "Write G-code for a job file or script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOutput(cmd, func(w io.Writer) error {
			return newApp().Run(w, args[0], emitFlags(cmd))
		})
	},
}

var printJob string

var evalCmd = &cobra.Command{
	Use:   "eval SCRIPT",
	Short: "Evaluate a job script",
	Long: `Evaluates a .kerf script and writes its G-code, or with --print-job the
job it describes as YAML or TOML.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		source, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		app := newApp()
		j, err := app.Evaluate(path, string(source))
		if err != nil {
			return err
		}
		return withOutput(cmd, func(w io.Writer) error {
			if printJob != "" {
				return writeJob(w, j, printJob)
			}
			return app.Emit(w, j, filepath.Dir(path), emitFlags(cmd))
		})
	},
}

var dxfFlags struct {
	laser     bool
	layers    []string
	types     []string
	units     string
	direction string
	comp      string
	startCond string
	tol       float64
	common    routine.Common
	power     float64
	feed      float64
}

var dxfCmd = &cobra.Command{
	Use:   "dxf DRAWING",
	Short: "Cut the paths of a DXF drawing",
	Long: `Resolves the lines, arcs and circles of a drawing into paths and cuts
each one as a boundary, or with --laser as a vector cut.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := dxfJob(args[0])
		if err != nil {
			return err
		}
		return withOutput(cmd, func(w io.Writer) error {
			if printJob != "" {
				return writeJob(w, j, printJob)
			}
			return newApp().Emit(w, j, filepath.Dir(args[0]), emitFlags(cmd))
		})
	},
}

func dxfJob(path string) (*job.Job, error) {
	f := dxfFlags
	units, err := gcode.ParseUnits(f.units)
	if err != nil {
		return nil, err
	}
	dir, err := geom.ParseDirection(f.direction)
	if err != nil {
		return nil, err
	}
	comp, err := routine.ParseCompMode(f.comp)
	if err != nil {
		return nil, err
	}
	start, err := graph.ParseStartCond(f.startCond)
	if err != nil {
		return nil, err
	}
	types := make([]cad.Type, 0, len(f.types))
	for _, s := range f.types {
		t, err := cad.ParseType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	src := boundary.Source{Layers: f.layers, Types: types}

	common := f.common
	common.Direction = dir
	bcfg := boundary.DxfBoundaryConfig{
		Common:     common,
		Source:     src,
		PtEquivTol: f.tol,
		StartCond:  start,
		CutterComp: comp,
	}
	lcfg := boundary.LaserVectorCutConfig{
		Source:     src,
		LaserPower: f.power,
		FeedRate:   f.feed,
		PtEquivTol: f.tol,
		StartCond:  start,
		Direction:  dir,
	}
	return DxfJob(path, units, bcfg, lcfg, f.laser), nil
}

var previewFlags struct {
	width      float64
	hideRapids bool
}

var previewCmd = &cobra.Command{
	Use:   "preview JOB",
	Short: "Plot a job's toolpath as SVG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOutput(cmd, func(w io.Writer) error {
			return newApp().Preview(w, args[0], preview.Options{
				Width:      previewFlags.width,
				HideRapids: previewFlags.hideRapids,
			})
		})
	},
}

// newApp builds the App for a command from the global flags.
func newApp() *App {
	return NewApp(logger, engine.WithTimeout(evalTimeout))
}

// emitFlags applies the emitter flags that were set on cmd.
func emitFlags(cmd *cobra.Command) func(*gcode.Options) {
	return func(o *gcode.Options) {
		if cmd.Flags().Changed("line-numbers") {
			o.LineNumbers = lineNumbers
		}
		o.Bare = bare
	}
}

// withOutput runs write against the -o file, or stdout when none is
// given. A failed write removes the partial file.
func withOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	if output == "" || output == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(output)
		return err
	}
	return errors.Wrap(f.Close(), "close output")
}

func writeJob(w io.Writer, j *job.Job, format string) error {
	var f job.Format
	switch format {
	case "yaml":
		f = job.YAML
	case "toml":
		f = job.TOML
	default:
		return fmt.Errorf("unknown job format %q, expected yaml or toml", format)
	}
	data, err := j.Marshal(f)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	rootCmd.PersistentFlags().DurationVar(&evalTimeout, "eval-timeout", engine.DefaultTimeout, "abandon a job script after this long, 0 for no limit")

	for _, c := range []*cobra.Command{runCmd, evalCmd, dxfCmd} {
		c.Flags().BoolVar(&lineNumbers, "line-numbers", false, "prefix lines with N words")
		c.Flags().BoolVar(&bare, "bare", false, "omit program header and footer")
	}
	for _, c := range []*cobra.Command{evalCmd, dxfCmd} {
		c.Flags().StringVar(&printJob, "print-job", "", "print the job as yaml or toml instead of G-code")
	}

	f := dxfCmd.Flags()
	f.BoolVar(&dxfFlags.laser, "laser", false, "vector cut with a laser instead of a cutter")
	f.StringSliceVar(&dxfFlags.layers, "layer", nil, "layers to cut (default all)")
	f.StringSliceVar(&dxfFlags.types, "type", nil, "entity types to cut (default line,arc,circle)")
	f.StringVar(&dxfFlags.units, "units", "in", "program units, in or mm")
	f.StringVar(&dxfFlags.direction, "direction", "ccw", "loop direction, cw or ccw")
	f.StringVar(&dxfFlags.comp, "comp", "", "cutter compensation: inside, outside, left or right")
	f.StringVar(&dxfFlags.startCond, "start", "minX", "where each path starts: minX, maxX, minY or maxY")
	f.Float64Var(&dxfFlags.tol, "tol", 0, "endpoint merge tolerance")
	f.Float64Var(&dxfFlags.common.StartZ, "start-z", 0, "top of stock")
	f.Float64Var(&dxfFlags.common.SafeZ, "safe-z", 0.1, "clearance height")
	f.Float64Var(&dxfFlags.common.Depth, "depth", 0.1, "cut depth below start-z")
	f.Float64Var(&dxfFlags.common.MaxCutDepth, "max-cut-depth", 0.05, "deepest single pass")
	f.Float64Var(&dxfFlags.common.ToolDiam, "tool-diam", 0.125, "cutter diameter")
	f.Float64Var(&dxfFlags.power, "power", 0, "laser power (default 300)")
	f.Float64Var(&dxfFlags.feed, "feed", 0, "laser feed rate (default 20)")

	previewCmd.Flags().Float64Var(&previewFlags.width, "width", preview.DefaultWidth, "image width")
	previewCmd.Flags().BoolVar(&previewFlags.hideRapids, "hide-rapids", false, "leave traverses out")

	rootCmd.AddCommand(runCmd, evalCmd, dxfCmd, previewCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
