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

import "fmt"

// Range maps the values Min <= v <= Max to Value.
type Range struct {
	Min, Max, Value float64
}

// Reclassify returns a grid where every value of g is replaced by the Value
// of the first range containing it. Values no range contains become nodata
// if missingNoData is true and are copied unchanged otherwise.
// Nodata cells stay nodata.
func Reclassify(g *Grid, ranges []Range, missingNoData bool) (*Grid, error) {
	for _, rg := range ranges {
		if rg.Min > rg.Max {
			return nil, fmt.Errorf("grid: reclassify: range min %g > max %g", rg.Min, rg.Max)
		}
	}
	out := g.Copy()
	for i, v := range g.Data {
		if g.IsNoData(v) {
			out.Data[i] = g.NoData
			continue
		}
		matched := false
		for _, rg := range ranges {
			if v >= rg.Min && v <= rg.Max {
				out.Data[i] = rg.Value
				matched = true
				break
			}
		}
		if !matched && missingNoData {
			out.Data[i] = g.NoData
		}
	}
	return out, nil
}
