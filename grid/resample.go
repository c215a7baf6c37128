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

	"github.com/ctessum/geom/proj"
)

// Resampling selects how values are read between cell centers.
type Resampling int

const (
	// Nearest takes the value of the cell containing the point. It is the
	// only correct choice for categorical rasters.
	Nearest Resampling = iota
	// Bilinear interpolates between the four surrounding cell centers.
	Bilinear
)

func (m Resampling) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	}
	return fmt.Sprintf("Resampling(%d)", int(m))
}

// Align returns src resampled onto the lattice of template. ct transforms
// template coordinates into the coordinates of src; a nil ct means both
// share a spatial reference. The result carries the spatial reference of
// template and the nodata value of src.
func Align(src, template *Grid, method Resampling, ct proj.Transformer) (*Grid, error) {
	out := template.NewLike(src.NoData, src.NoData)
	for r := 0; r < out.Ny; r++ {
		for c := 0; c < out.Nx; c++ {
			p := out.Center(r, c)
			x, y := p.X, p.Y
			if ct != nil {
				var err error
				if x, y, err = ct(x, y); err != nil {
					return nil, fmt.Errorf("grid: align: %v", err)
				}
			}
			var v float64
			var ok bool
			switch method {
			case Nearest:
				v, ok = src.nearest(x, y)
			case Bilinear:
				v, ok = src.bilinear(x, y)
			default:
				return nil, fmt.Errorf("grid: align: unsupported resampling %v", method)
			}
			if ok {
				out.Set(r, c, v)
			}
		}
	}
	return out, nil
}

func (g *Grid) nearest(x, y float64) (float64, bool) {
	r, c, ok := g.Cell(x, y)
	if !ok || !g.Valid(r, c) {
		return 0, false
	}
	return g.Get(r, c), true
}

// bilinear interpolates at x, y. Missing corner values are left out and
// the remaining weights renormalized.
func (g *Grid) bilinear(x, y float64) (float64, bool) {
	fc := (x-g.X0)/g.Dx - 0.5
	fr := float64(g.Ny) - (y-g.Y0)/g.Dx - 0.5
	if fc < -0.5 || fr < -0.5 || fc > float64(g.Nx)-0.5 || fr > float64(g.Ny)-0.5 {
		return 0, false
	}
	c0, r0 := int(math.Floor(fc)), int(math.Floor(fr))
	tc, tr := fc-float64(c0), fr-float64(r0)
	var sum, wsum float64
	for _, k := range [4]struct {
		r, c int
		w    float64
	}{
		{r0, c0, (1 - tr) * (1 - tc)},
		{r0, c0 + 1, (1 - tr) * tc},
		{r0 + 1, c0, tr * (1 - tc)},
		{r0 + 1, c0 + 1, tr * tc},
	} {
		if k.w == 0 || !g.Valid(k.r, k.c) {
			continue
		}
		sum += g.Get(k.r, k.c) * k.w
		wsum += k.w
	}
	if wsum == 0 {
		return 0, false
	}
	return sum / wsum, true
}
