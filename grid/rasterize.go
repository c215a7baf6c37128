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
)

// RasterizePolygons burns values[i] into every cell of the lattice of
// template whose center lies in polys[i]. Later polygons overwrite earlier
// ones. Cells not covered hold nodata.
func RasterizePolygons(template *Grid, polys []geom.Polygonal, values []float64, nodata float64) (*Grid, error) {
	if len(polys) != len(values) {
		return nil, fmt.Errorf("grid: rasterize: %d polygons but %d values", len(polys), len(values))
	}
	out := template.NewLike(nodata, nodata)
	for i, p := range polys {
		if p == nil {
			continue
		}
		r0, r1, c0, c1 := out.Window(p.Bounds())
		for r := r0; r < r1; r++ {
			for c := c0; c < c1; c++ {
				if out.Covers(p, r, c) {
					out.Set(r, c, values[i])
				}
			}
		}
	}
	return out, nil
}

// RasterizeLines burns values[i] into every cell of the lattice of template
// that lines[i] passes through. Cells no line touches hold background.
func RasterizeLines(template *Grid, lines []geom.Linear, values []float64, background, nodata float64) (*Grid, error) {
	if len(lines) != len(values) {
		return nil, fmt.Errorf("grid: rasterize: %d lines but %d values", len(lines), len(values))
	}
	out := template.NewLike(background, nodata)
	for i, l := range lines {
		if l == nil {
			continue
		}
		for _, path := range linePaths(l) {
			for j := 1; j < len(path); j++ {
				out.burnSegment(path[j-1], path[j], values[i])
			}
			if len(path) == 1 {
				out.burnSegment(path[0], path[0], values[i])
			}
		}
	}
	return out, nil
}

func linePaths(l geom.Linear) [][]geom.Point {
	switch t := l.(type) {
	case geom.LineString:
		return [][]geom.Point{t}
	case geom.MultiLineString:
		o := make([][]geom.Point, len(t))
		for i, ls := range t {
			o[i] = ls
		}
		return o
	}
	return nil
}

// burnSegment sets v in every cell crossed by the segment a-b, sampling the
// segment at a fraction of the cell size.
func (g *Grid) burnSegment(a, b geom.Point, v float64) {
	length := math.Hypot(b.X-a.X, b.Y-a.Y)
	n := int(math.Ceil(length/(g.Dx/8))) + 1
	for k := 0; k <= n; k++ {
		t := float64(k) / float64(n)
		r, c, ok := g.Cell(a.X+t*(b.X-a.X), a.Y+t*(b.Y-a.Y))
		if ok {
			g.Set(r, c, v)
		}
	}
}
