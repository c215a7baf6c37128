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
	"strconv"

	"github.com/ctessum/geom"
)

// channelNoData marks cells without a channel in the channel zone raster.
const channelNoData = -9999.

// channelLength dissolves the main channel network by catchment and sets
// the channel length of every catchment it crosses.
func (s *state) channelLength() error {
	isect, err := s.geo.Intersect(s.main, s.tezg)
	if err != nil {
		return err
	}
	s.manifest.addVector(s.stage, "TEZG_Gerinne", isect, false)
	if s.channel, err = s.geo.Dissolve(isect, overlayField(s.main, idField)); err != nil {
		return err
	}
	s.keepVector("TEZG_Gerinne_dissolved", s.channel)

	s.chLength = make(map[int]float64)
	for i, f := range s.channel.Features {
		id, err := strconv.Atoi(f.Fields[s.channel.Fields[0]])
		if err != nil {
			return fmt.Errorf("dissolved channel %d: %v", i, err)
		}
		c, ok := s.table.Get(id)
		if !ok {
			return fmt.Errorf("dissolved channel %d: unknown catchment %d", i, id)
		}
		l, ok := f.Geom.(geom.Linear)
		if !ok {
			return fmt.Errorf("dissolved channel %d is a %T, not a line", i, f.Geom)
		}
		c.ChannelLength = NewValue(round(l.Length(), 1))
		s.chLength[id] = c.ChannelLength.V
	}
	return nil
}

// channelSlope divides the elevation range of the DEM cells under the
// channel of every catchment by its channel length. Catchments with a
// zero channel length or no channel cells keep the slope unset.
func (s *state) channelSlope() error {
	field := idField
	if len(s.channel.Fields) > 0 {
		field = s.channel.Fields[0]
	}
	zones, err := s.geo.RasterizeField(s.channel, field, s.dem, channelNoData, channelNoData)
	if err != nil {
		return err
	}
	s.keepRaster("TEZGGerinne_ras", zones)
	stats, err := s.geo.ZonalStatisticsByRaster(s.dem, zones)
	if err != nil {
		return err
	}
	for id, st := range stats {
		c, ok := s.table.Get(id)
		length := s.chLength[id]
		if !ok || length <= 0 || st.Count == 0 {
			continue
		}
		c.ChannelSlope = NewValue(round((st.Max-st.Min)/length, 3))
	}
	return nil
}
