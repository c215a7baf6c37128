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

// noFlow marks a cell without a downslope neighbour.
const noFlow = -1

// D8 returns for every cell the index (0-7) of the neighbour with the
// steepest downslope gradient, or noFlow for nodata cells, outlets
// and pits. Ties are resolved in favour of the first neighbour in
// clockwise order starting at the north east.
func D8(dem *Grid) []int {
	dir := make([]int, len(dem.Data))
	for r := 0; r < dem.Ny; r++ {
		for c := 0; c < dem.Nx; c++ {
			i := dem.index(r, c)
			dir[i] = noFlow
			if !dem.Valid(r, c) {
				continue
			}
			z := dem.Data[i]
			var maxSlope float64
			for n := 0; n < 8; n++ {
				rn, cn := r+dRow[n], c+dCol[n]
				if !dem.Valid(rn, cn) {
					continue
				}
				s := (z - dem.Get(rn, cn)) / neighbourDist(n)
				if s > maxSlope {
					maxSlope = s
					dir[i] = n
				}
			}
		}
	}
	return dir
}

func downstream(g *Grid, i, n int) int {
	return g.index(i/g.Nx+dRow[n], i%g.Nx+dCol[n])
}

// FlowAccumulation returns the number of cells draining through each
// cell of dem along D8 flow paths, counting the cell itself. dem should
// be free of depressions.
func FlowAccumulation(dem *Grid) *Grid {
	const nodata = -1.
	dir := D8(dem)
	acc := dem.NewLike(nodata, nodata)
	inflow := make([]int, len(dir))
	for i, n := range dir {
		if dem.IsNoData(dem.Data[i]) {
			continue
		}
		acc.Data[i] = 1
		if n != noFlow {
			inflow[downstream(dem, i, n)]++
		}
	}
	var queue []int
	for i := range dir {
		if inflow[i] == 0 && acc.Data[i] != nodata {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		n := dir[i]
		if n == noFlow {
			continue
		}
		j := downstream(dem, i, n)
		acc.Data[j] += acc.Data[i]
		inflow[j]--
		if inflow[j] == 0 {
			queue = append(queue, j)
		}
	}
	return acc
}

// DownslopeDistance returns for every cell of dem the distance along its
// D8 flow path to the first cell where streams holds a positive value.
// Stream cells have distance zero. Cells whose flow path leaves the data
// without meeting a stream are nodata.
func DownslopeDistance(dem, streams *Grid) (*Grid, error) {
	if err := dem.Aligned(streams); err != nil {
		return nil, fmt.Errorf("grid: downslope distance: %v", err)
	}
	const (
		nodata   = -9999.
		unsolved = -2.
	)
	dir := D8(dem)
	out := dem.NewLike(unsolved, nodata)
	for i, v := range dem.Data {
		switch {
		case dem.IsNoData(v):
			out.Data[i] = nodata
		case !streams.IsNoData(streams.Data[i]) && streams.Data[i] > 0:
			out.Data[i] = 0
		}
	}
	var path []int
	for i := range out.Data {
		if out.Data[i] != unsolved {
			continue
		}
		path = path[:0]
		j := i
		for out.Data[j] == unsolved {
			path = append(path, j)
			if dir[j] == noFlow {
				break
			}
			j = downstream(dem, j, dir[j])
		}
		// Resolve the path backwards from where it ended.
		end := out.Data[j]
		if end == unsolved { // a pit or outlet that is not a stream
			end = nodata
			out.Data[j] = nodata
			path = path[:len(path)-1]
		}
		for k := len(path) - 1; k >= 0; k-- {
			p := path[k]
			if end == nodata {
				out.Data[p] = nodata
				continue
			}
			end += neighbourDist(dir[p]) * dem.Dx
			out.Data[p] = end
		}
	}
	return out, nil
}
