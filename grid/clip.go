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

	"github.com/ctessum/geom"
)

// Clip returns the part of g covered by mask, cropped to the extent of
// mask and snapped to the lattice of g. Cells whose centers are outside
// every mask polygon, and nodata cells of g, are set to nodata.
func Clip(g *Grid, mask []geom.Polygonal, nodata float64) (*Grid, error) {
	b := geom.NewBounds()
	for _, p := range mask {
		if p != nil {
			b.Extend(p.Bounds())
		}
	}
	r0, r1, c0, c1 := g.Window(b)
	if r1 <= r0 || c1 <= c0 {
		return nil, fmt.Errorf("grid: clip: mask does not overlap the raster")
	}
	out := New(c1-c0, r1-r0, g.X0+float64(c0)*g.Dx, g.Y0+float64(g.Ny-r1)*g.Dx, g.Dx, nodata)
	out.SR, out.WKT = g.SR, g.WKT
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			if !g.Valid(r, c) {
				continue
			}
			for _, p := range mask {
				if p != nil && g.Covers(p, r, c) {
					out.Set(r-r0, c-c0, g.Get(r, c))
					break
				}
			}
		}
	}
	return out, nil
}
