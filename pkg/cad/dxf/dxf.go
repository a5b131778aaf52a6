// Package dxf reads and writes cad.Drawing values as DXF files.
package dxf

import (
	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	yofu "github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/entity"
	"go.uber.org/zap"
)

// defaultLayer is the layer every DXF drawing starts with.
const defaultLayer = "0"

// Load reads the LINE, ARC, CIRCLE and POINT entities of a DXF file.
// Other entity types are skipped and counted in the debug log.
func Load(path string, logger *zap.Logger) (*cad.Drawing, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d, err := yofu.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dxf %s", path)
	}
	out := convert(d)
	out.Name = path
	logger.Debug("dxf loaded",
		zap.String("file", path),
		zap.Int("entities", len(out.Entities)),
		zap.Int("skipped", len(d.Entities())-len(out.Entities)),
		zap.Strings("layers", out.Layers),
	)
	return out, nil
}

func convert(d *drawing.Drawing) *cad.Drawing {
	out := &cad.Drawing{}
	for _, e := range d.Entities() {
		rec, ok := record(e)
		if !ok {
			continue
		}
		out.Entities = append(out.Entities, rec)
	}
	out.Layers = lo.Uniq(lo.Map(out.Entities, func(e cad.Entity, _ int) string { return e.Layer }))
	return out
}

func record(e entity.Entity) (cad.Entity, bool) {
	layer := defaultLayer
	if l := e.Layer(); l != nil {
		layer = l.Name()
	}
	switch e := e.(type) {
	case *entity.Line:
		return cad.Entity{Type: cad.Line, Layer: layer, Start: xy(e.Start), End: xy(e.End)}, true
	case *entity.Arc:
		var a0, a1 float64
		if len(e.Angle) >= 2 {
			a0, a1 = e.Angle[0], e.Angle[1]
		}
		return cad.Entity{Type: cad.Arc, Layer: layer, Center: xy(e.Center), Radius: e.Radius, StartAngle: a0, EndAngle: a1}, true
	case *entity.Circle:
		return cad.Entity{Type: cad.Circle, Layer: layer, Center: xy(e.Center), Radius: e.Radius}, true
	case *entity.Point:
		return cad.Entity{Type: cad.Point, Layer: layer, Center: xy(e.Coord)}, true
	}
	return cad.Entity{}, false
}

func xy(c []float64) geom.Vec {
	var p geom.Vec
	if len(c) > 0 {
		p.X = c[0]
	}
	if len(c) > 1 {
		p.Y = c[1]
	}
	return p
}

// Save writes the drawing's entities to a DXF file, creating layers as
// they are first used.
func Save(path string, d *cad.Drawing) error {
	out := yofu.NewDrawing()
	made := map[string]bool{defaultLayer: true}
	for _, e := range d.Entities {
		if !made[e.Layer] {
			if _, err := out.AddLayer(e.Layer, yofu.DefaultColor, yofu.DefaultLineType, false); err != nil {
				return errors.Wrapf(err, "adding layer %s", e.Layer)
			}
			made[e.Layer] = true
		}
		if err := out.ChangeLayer(e.Layer); err != nil {
			return errors.Wrapf(err, "selecting layer %s", e.Layer)
		}
		var err error
		switch e.Type {
		case cad.Line:
			_, err = out.Line(e.Start.X, e.Start.Y, 0, e.End.X, e.End.Y, 0)
		case cad.Arc:
			_, err = out.Arc(e.Center.X, e.Center.Y, 0, e.Radius, e.StartAngle, e.EndAngle)
		case cad.Circle:
			_, err = out.Circle(e.Center.X, e.Center.Y, 0, e.Radius)
		case cad.Point:
			_, err = out.Point(e.Center.X, e.Center.Y, 0)
		default:
			err = errors.Errorf("unsupported entity type %s", e.Type)
		}
		if err != nil {
			return errors.Wrapf(err, "writing %s on layer %s", e.Type, e.Layer)
		}
	}
	return errors.Wrapf(out.SaveAs(path), "saving dxf %s", path)
}
