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

package zemokost

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/zemokost/grid"
	"github.com/spatialmodel/zemokost/vector"
)

// VectorOps are the vector operators used by a run.
type VectorOps interface {
	// ReprojectVector transforms every feature of l into sr, whose
	// text representation is wkt.
	ReprojectVector(l *vector.Layer, sr *proj.SR, wkt string) (*vector.Layer, error)

	// ClipVector keeps the parts of the features of l inside mask.
	ClipVector(l *vector.Layer, mask []geom.Polygonal) (*vector.Layer, error)

	// Intersect overlays in with the polygons of overlay.
	Intersect(in, overlay *vector.Layer) (*vector.Layer, error)

	// Dissolve merges the features of l sharing a value of field.
	Dissolve(l *vector.Layer, field string) (*vector.Layer, error)
}

// RasterOps are the raster operators used by a run.
type RasterOps interface {
	// ClipRaster crops g to mask and sets cells outside it to nodata.
	ClipRaster(g *grid.Grid, mask []geom.Polygonal, nodata float64) (*grid.Grid, error)

	// AlignRaster resamples src onto the lattice of template. ct
	// transforms template coordinates into src coordinates and is nil
	// when both share a spatial reference.
	AlignRaster(src, template *grid.Grid, method grid.Resampling, ct proj.Transformer) (*grid.Grid, error)

	// Slope returns the percent slope of dem.
	Slope(dem *grid.Grid) (*grid.Grid, error)

	// Reclassify maps ranges of values of g to new values.
	Reclassify(g *grid.Grid, ranges []grid.Range, missingNoData bool) (*grid.Grid, error)

	// RasterAlgebra evaluates expr cell by cell over inputs.
	RasterAlgebra(expr string, inputs map[string]*grid.Grid) (*grid.Grid, error)

	// RasterizeField burns the numeric attribute field of the features of
	// l onto the lattice of template.
	RasterizeField(l *vector.Layer, field string, template *grid.Grid, background, nodata float64) (*grid.Grid, error)

	// ZonalStatistics summarizes g within each of zones.
	ZonalStatistics(g *grid.Grid, zones []geom.Polygonal) ([]grid.Stats, error)

	// ZonalStatisticsByRaster summarizes g for each value of zones.
	ZonalStatisticsByRaster(g, zones *grid.Grid) (map[int]grid.Stats, error)
}

// TerrainOps are the hydrological terrain operators used by a run.
type TerrainOps interface {
	// FillDepressions removes depressions from dem.
	FillDepressions(dem *grid.Grid) (*grid.Grid, error)

	// FlowAccumulation counts the cells draining through each cell.
	FlowAccumulation(filled *grid.Grid) (*grid.Grid, error)

	// RasterizeStreams marks the cells of base crossed by streams.
	RasterizeStreams(streams *vector.Layer, base *grid.Grid) (*grid.Grid, error)

	// DownslopeDistanceToStream measures the flow path distance from
	// every cell to the nearest stream cell.
	DownslopeDistanceToStream(filled, streams *grid.Grid) (*grid.Grid, error)
}

// Geoprocessor provides every operator a run needs.
type Geoprocessor interface {
	VectorOps
	RasterOps
	TerrainOps
}
