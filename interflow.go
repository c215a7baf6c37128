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
	"github.com/spatialmodel/zemokost/grid"
)

// interflowNoData marks cells without interflow information.
const interflowNoData = -9999.

// interflowBands are the interflow factors that take part in weighting.
var interflowBands = []grid.Range{
	{Min: 1, Max: 1, Value: 1},
	{Min: 2, Max: 2, Value: 2},
	{Min: 3, Max: 3, Value: 3},
}

// clampPercent limits v to [0, 100].
func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// vectorInterflow rasterizes the interflow factor and share of the
// interflow polygons and weights them per catchment:
//
//	factor = Σ(band × share) / Σ(share)
//	share  = Σ(cell size × share) / (share cell count × cell size) × 100
//
// where only cells with a factor band take part in the sums. Catchments
// whose share sum is zero keep both unset.
func (s *state) vectorInterflow() error {
	v := s.cfg.VectorInterflow
	l := v.Layer
	if _, err := l.Polygons(); err != nil {
		return err
	}
	if s.ref.Differs(roleInterflow) {
		var err error
		if l, err = s.geo.ReprojectVector(l, s.ref.SR, s.ref.WKT); err != nil {
			return err
		}
	}
	isect, err := s.geo.Intersect(l, s.tezg)
	if err != nil {
		return err
	}
	s.manifest.addVector(s.stage, "TEZG_ZA", isect, false)
	zafField, _ := l.Field(v.ZAFField)
	zaaField, _ := l.Field(v.ZAAField)

	zaf, err := s.geo.RasterizeField(isect, zafField, s.dem, interflowNoData, interflowNoData)
	if err != nil {
		return err
	}
	s.keepRaster("ZAF_ras", zaf)
	zaa, err := s.geo.RasterizeField(isect, zaaField, s.dem, interflowNoData, interflowNoData)
	if err != nil {
		return err
	}
	s.keepRaster("ZAA_ras", zaa)

	band, err := s.geo.Reclassify(zaf, interflowBands, true)
	if err != nil {
		return err
	}
	s.keepRaster("ZAF_recl", band)
	share, err := s.geo.RasterAlgebra("F > 0 ? A : 0", map[string]*grid.Grid{"F": band, "A": zaa})
	if err != nil {
		return err
	}
	s.keepRaster("ZAA_recl", share)
	product, err := s.geo.RasterAlgebra("F * A", map[string]*grid.Grid{"F": band, "A": share})
	if err != nil {
		return err
	}
	s.manifest.addRaster(s.stage, "ZAF_x_ZAA", product, false)

	sp, err := s.geo.ZonalStatistics(product, s.zones)
	if err != nil {
		return err
	}
	sum, err := s.geo.ZonalStatistics(share, s.zones)
	if err != nil {
		return err
	}
	count, err := s.geo.ZonalStatistics(zaa, s.zones)
	if err != nil {
		return err
	}
	for i, c := range s.table.Catchments() {
		if sum[i].Sum == 0 || count[i].Count == 0 {
			continue
		}
		c.ZAF = NewValue(round(sp[i].Sum/sum[i].Sum, 4))
		// The cell size cancels out of the share.
		c.ZAA = NewValue(round(clampPercent(sum[i].Sum/float64(count[i].Count)*100), 4))
	}
	return nil
}

// rasterInterflow resamples the interflow factor raster onto the DEM
// lattice and, per catchment, sets the factor to the mean of the cells
// with factors 1 to 4 and the share to the fraction of those cells.
// Catchments without valid cells keep both unset.
func (s *state) rasterInterflow() error {
	zaf, err := s.geo.AlignRaster(s.cfg.RasterInterflow.ZAF, s.dem, grid.Nearest, s.ref.Transform(roleInterflow))
	if err != nil {
		return err
	}
	s.keepRaster("ZAF_aligned", zaf)
	mask, err := s.geo.RasterAlgebra("Z >= 1 && Z <= 4", map[string]*grid.Grid{"Z": zaf})
	if err != nil {
		return err
	}
	s.manifest.addRaster(s.stage, "ZAF_mask", mask, false)
	vals, err := s.geo.RasterAlgebra("M > 0 ? Z", map[string]*grid.Grid{"Z": zaf, "M": mask})
	if err != nil {
		return err
	}
	s.manifest.addRaster(s.stage, "ZAF_le4", vals, false)

	factor, err := s.geo.ZonalStatistics(vals, s.zones)
	if err != nil {
		return err
	}
	share, err := s.geo.ZonalStatistics(mask, s.zones)
	if err != nil {
		return err
	}
	for i, c := range s.table.Catchments() {
		if m, ok := factor[i].Mean(); ok {
			c.ZAF = NewValue(round(m, 4))
		}
		if m, ok := share[i].Mean(); ok {
			c.ZAA = NewValue(round(clampPercent(m*100), 4))
		}
	}
	return nil
}
