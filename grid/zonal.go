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

package grid

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// Stats holds summary statistics of the valid cells in a zone.
type Stats struct {
	Count         int
	Sum, Min, Max float64
}

func newStats(vals []float64) Stats {
	if len(vals) == 0 {
		return Stats{}
	}
	return Stats{
		Count: len(vals),
		Sum:   floats.Sum(vals),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
	}
}

// Mean returns the mean value and false if the zone has no valid cells.
func (s Stats) Mean() (float64, bool) {
	if s.Count == 0 {
		return math.NaN(), false
	}
	return s.Sum / float64(s.Count), true
}

// Covers returns whether the center of cell r, c lies in p.
func (g *Grid) Covers(p geom.Polygonal, r, c int) bool {
	in := g.Center(r, c).Within(p)
	return in == geom.Inside || in == geom.OnEdge
}

// ZonalPolygons returns statistics of the valid cells of g whose centers
// fall inside each of zones.
func ZonalPolygons(g *Grid, zones []geom.Polygonal) []Stats {
	out := make([]Stats, len(zones))
	var vals []float64
	for i, z := range zones {
		if z == nil {
			continue
		}
		vals = vals[:0]
		r0, r1, c0, c1 := g.Window(z.Bounds())
		for r := r0; r < r1; r++ {
			for c := c0; c < c1; c++ {
				if !g.Valid(r, c) || !g.Covers(z, r, c) {
					continue
				}
				vals = append(vals, g.Get(r, c))
			}
		}
		out[i] = newStats(vals)
	}
	return out
}

// ZonalRaster returns statistics of the valid cells of g for each zone
// value of zones. Nodata zone cells are skipped.
func ZonalRaster(g, zones *Grid) (map[int]Stats, error) {
	if err := g.Aligned(zones); err != nil {
		return nil, fmt.Errorf("grid: zonal statistics: %v", err)
	}
	vals := make(map[int][]float64)
	for i, z := range zones.Data {
		if zones.IsNoData(z) || g.IsNoData(g.Data[i]) {
			continue
		}
		k := int(math.Round(z))
		vals[k] = append(vals[k], g.Data[i])
	}
	out := make(map[int]Stats, len(vals))
	for k, v := range vals {
		out[k] = newStats(v)
	}
	return out, nil
}
