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
	"fmt"

	"github.com/spatialmodel/zemokost/grid"
)

// clipNoData marks DEM cells outside the catchments.
const clipNoData = 99999.

func (s *state) demName() string { return fmt.Sprintf("dgm%dm", s.dem.CellSize()) }

func (s *state) clipDEM() error {
	var err error
	if s.dem, err = s.geo.ClipRaster(s.cfg.DEM, s.zones, clipNoData); err != nil {
		return err
	}
	s.keepRaster(s.demName(), s.dem)
	return nil
}

func (s *state) fillDepressions() error {
	var err error
	if s.filled, err = s.geo.FillDepressions(s.dem); err != nil {
		return err
	}
	s.keepRaster(s.demName()+"_filled", s.filled)
	return nil
}

func (s *state) flowAccumulation() error {
	var err error
	if s.flowacc, err = s.geo.FlowAccumulation(s.filled); err != nil {
		return err
	}
	s.keepRaster("flowacc", s.flowacc)
	return nil
}

// ridgeRanges returns the reclassification of flow accumulation into
// ridge cells (1 and 2 upstream cells, value 1) and other cells (value 0)
// given the largest accumulation max. The mask uses 0 as its nodata
// value, so other cells drop out of everything computed from it.
func ridgeRanges(max float64) []grid.Range {
	r := []grid.Range{{Min: 1, Max: 2, Value: 1}}
	if max >= 3 {
		r = append(r, grid.Range{Min: 3, Max: max, Value: 0})
	}
	return r
}

func (s *state) findRidges() error {
	max, ok := s.flowacc.Max()
	if !ok {
		return fmt.Errorf("flow accumulation holds no data")
	}
	var err error
	if s.ridges, err = s.geo.Reclassify(s.flowacc, ridgeRanges(max), false); err != nil {
		return err
	}
	s.ridges.SetNoData(0)
	s.keepRaster("flowacc_Ridges", s.ridges)
	return nil
}

// flowLengths rasterizes the fine channel network, or the main one if
// there is no fine network, and measures the downslope distance from
// every cell to it.
func (s *state) flowLengths() error {
	streams := s.main
	if s.fine != nil {
		streams = s.fine
	}
	if len(streams.Features) == 0 {
		s.warn(nil, "no channel of %s lies inside the catchments; flow lengths are left empty", streams.Source)
	}
	ras, err := s.geo.RasterizeStreams(streams, s.filled)
	if err != nil {
		return err
	}
	s.keepRaster("Gerinne_ras", ras)
	if s.flowLength, err = s.geo.DownslopeDistanceToStream(s.filled, ras); err != nil {
		return err
	}
	s.keepRaster("flowlength", s.flowLength)
	return nil
}

// ridgeFlowLengths keeps the flow lengths of ridge cells only. A ridge
// cell on a stream keeps its length of zero.
func (s *state) ridgeFlowLengths() error {
	var err error
	s.ridgeFlowLength, err = s.geo.RasterAlgebra("L * R", map[string]*grid.Grid{
		"L": s.flowLength,
		"R": s.ridges,
	})
	if err != nil {
		return err
	}
	s.keepRaster("flowlength_Ridges", s.ridgeFlowLength)
	return nil
}

func (s *state) slopes() error {
	var err error
	if s.slope, err = s.geo.Slope(s.dem); err != nil {
		return err
	}
	s.keepRaster("slope", s.slope)
	return nil
}

// terrainAttributes sets the mean slope and the mean ridge flow length of
// every catchment. The flow length mean is over ridge cells only.
// Catchments without valid cells keep them unset.
func (s *state) terrainAttributes() error {
	slope, err := s.geo.ZonalStatistics(s.slope, s.zones)
	if err != nil {
		return err
	}
	length, err := s.geo.ZonalStatistics(s.ridgeFlowLength, s.zones)
	if err != nil {
		return err
	}
	for i, c := range s.table.Catchments() {
		if m, ok := slope[i].Mean(); ok {
			c.Slope = NewValue(round(m/100, 3))
		}
		if m, ok := length[i].Mean(); ok {
			c.FlowLength = NewValue(round(m, 0))
		}
	}
	return nil
}
