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

import "math"

// SlopePercent returns the terrain slope of dem in percent using Horn's
// third-order finite difference. Cells on the border of the grid or next
// to nodata have no slope.
func SlopePercent(dem *Grid) *Grid {
	const nodata = -9999.
	out := dem.NewLike(nodata, nodata)
	var w [3][3]float64
	for r := 0; r < dem.Ny; r++ {
	cells:
		for c := 0; c < dem.Nx; c++ {
			for i := -1; i <= 1; i++ {
				for j := -1; j <= 1; j++ {
					if !dem.Valid(r+i, c+j) {
						continue cells
					}
					w[i+1][j+1] = dem.Get(r+i, c+j)
				}
			}
			dzdx := ((w[0][2] + 2*w[1][2] + w[2][2]) - (w[0][0] + 2*w[1][0] + w[2][0])) / (8 * dem.Dx)
			dzdy := ((w[2][0] + 2*w[2][1] + w[2][2]) - (w[0][0] + 2*w[0][1] + w[0][2])) / (8 * dem.Dx)
			out.Set(r, c, math.Sqrt(dzdx*dzdx+dzdy*dzdy)*100)
		}
	}
	return out
}
