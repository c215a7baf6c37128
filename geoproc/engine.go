/*
Copyright © 2026 the zemokost authors.
This file is part of zemokost.

zemokost is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

zemokost is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with zemokost.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package geoproc implements the geoprocessing operators of a zemokost
// run on top of the grid and vector packages.
package geoproc

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/zemokost/grid"
	"github.com/spatialmodel/zemokost/vector"
	"github.com/spf13/cast"
)

// Raster values written by the engine.
const (
	// NoData is the nodata value of derived rasters.
	NoData = grid.DefaultNoData

	// streamValue marks stream cells and noStream the other cells.
	streamValue = 1.
	noStream    = 0.
)

// Engine is an in-process geoprocessor.
type Engine struct {
	// FlatIncrement is the gradient imposed on filled flats.
	FlatIncrement float64
}

// New returns an engine with the default flat increment.
func New() Engine {
	return Engine{FlatIncrement: grid.DefaultFlatIncrement}
}

// ReprojectVector implements the zemokost.VectorOps interface.
func (e Engine) ReprojectVector(l *vector.Layer, sr *proj.SR, wkt string) (*vector.Layer, error) {
	return vector.Reproject(l, sr, wkt)
}

// ClipVector implements the zemokost.VectorOps interface.
func (e Engine) ClipVector(l *vector.Layer, mask []geom.Polygonal) (*vector.Layer, error) {
	return vector.Clip(l, mask)
}

// Intersect implements the zemokost.VectorOps interface.
func (e Engine) Intersect(in, overlay *vector.Layer) (*vector.Layer, error) {
	return vector.Intersect(in, overlay)
}

// Dissolve implements the zemokost.VectorOps interface.
func (e Engine) Dissolve(l *vector.Layer, field string) (*vector.Layer, error) {
	return vector.Dissolve(l, field)
}

// ClipRaster implements the zemokost.RasterOps interface.
func (e Engine) ClipRaster(g *grid.Grid, mask []geom.Polygonal, nodata float64) (*grid.Grid, error) {
	return grid.Clip(g, mask, nodata)
}

// AlignRaster implements the zemokost.RasterOps interface.
func (e Engine) AlignRaster(src, template *grid.Grid, method grid.Resampling, ct proj.Transformer) (*grid.Grid, error) {
	return grid.Align(src, template, method, ct)
}

// Slope implements the zemokost.RasterOps interface.
func (e Engine) Slope(dem *grid.Grid) (*grid.Grid, error) {
	return grid.SlopePercent(dem), nil
}

// Reclassify implements the zemokost.RasterOps interface.
func (e Engine) Reclassify(g *grid.Grid, ranges []grid.Range, missingNoData bool) (*grid.Grid, error) {
	return grid.Reclassify(g, ranges, missingNoData)
}

// RasterAlgebra implements the zemokost.RasterOps interface.
func (e Engine) RasterAlgebra(expr string, inputs map[string]*grid.Grid) (*grid.Grid, error) {
	return grid.Calc(expr, inputs, NoData)
}

// RasterizeField implements the zemokost.RasterOps interface. Polygons
// are burned into the cells whose centers they cover and lines into every
// cell they cross. Every value of field must be numeric.
func (e Engine) RasterizeField(l *vector.Layer, field string, template *grid.Grid, background, nodata float64) (*grid.Grid, error) {
	name, ok := l.Field(field)
	if !ok {
		return nil, fmt.Errorf("geoproc: rasterize: %s has no field '%s'", l.Source, field)
	}
	if len(l.Features) == 0 {
		return template.NewLike(background, nodata), nil
	}
	values := make([]float64, len(l.Features))
	for i, f := range l.Features {
		v, err := cast.ToFloat64E(f.Fields[name])
		if err != nil {
			return nil, fmt.Errorf("geoproc: rasterize: %s feature %d: field '%s': %v", l.Source, i, name, err)
		}
		values[i] = v
	}
	switch l.Features[0].Geom.(type) {
	case geom.Polygonal:
		polys, err := l.Polygons()
		if err != nil {
			return nil, err
		}
		out, err := grid.RasterizePolygons(template, polys, values, nodata)
		if err != nil {
			return nil, err
		}
		if background != nodata {
			for i, v := range out.Data {
				if out.IsNoData(v) {
					out.Data[i] = background
				}
			}
		}
		return out, nil
	case geom.Linear:
		lines, err := l.Lines()
		if err != nil {
			return nil, err
		}
		return grid.RasterizeLines(template, lines, values, background, nodata)
	}
	return nil, fmt.Errorf("geoproc: rasterize: unsupported geometry type %T in %s", l.Features[0].Geom, l.Source)
}

// ZonalStatistics implements the zemokost.RasterOps interface.
func (e Engine) ZonalStatistics(g *grid.Grid, zones []geom.Polygonal) ([]grid.Stats, error) {
	return grid.ZonalPolygons(g, zones), nil
}

// ZonalStatisticsByRaster implements the zemokost.RasterOps interface.
func (e Engine) ZonalStatisticsByRaster(g, zones *grid.Grid) (map[int]grid.Stats, error) {
	return grid.ZonalRaster(g, zones)
}

// FillDepressions implements the zemokost.TerrainOps interface.
func (e Engine) FillDepressions(dem *grid.Grid) (*grid.Grid, error) {
	return grid.FillDepressions(dem, e.FlatIncrement)
}

// FlowAccumulation implements the zemokost.TerrainOps interface.
func (e Engine) FlowAccumulation(filled *grid.Grid) (*grid.Grid, error) {
	return grid.FlowAccumulation(filled), nil
}

// RasterizeStreams implements the zemokost.TerrainOps interface. Stream
// cells hold 1 and all other cells 0.
func (e Engine) RasterizeStreams(streams *vector.Layer, base *grid.Grid) (*grid.Grid, error) {
	lines, err := streams.Lines()
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(lines))
	for i := range values {
		values[i] = streamValue
	}
	return grid.RasterizeLines(base, lines, values, noStream, NoData)
}

// DownslopeDistanceToStream implements the zemokost.TerrainOps interface.
func (e Engine) DownslopeDistanceToStream(filled, streams *grid.Grid) (*grid.Grid, error) {
	return grid.DownslopeDistance(filled, streams)
}
