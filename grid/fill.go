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
	"container/heap"
	"fmt"
)

// DefaultFlatIncrement is the elevation added per cell across filled
// depressions and flats so that every cell drains.
const DefaultFlatIncrement = 1.e-4

type gridCell struct {
	i   int     // cell index
	z   float64 // priority elevation
	seq int     // insertion order, to break ties deterministically
}

// cellQueue is a min-priority queue of cells ordered by elevation.
type cellQueue []gridCell

func (q cellQueue) Len() int { return len(q) }
func (q cellQueue) Less(i, j int) bool {
	if q[i].z == q[j].z {
		return q[i].seq < q[j].seq
	}
	return q[i].z < q[j].z
}
func (q cellQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *cellQueue) Push(x interface{}) { *q = append(*q, x.(gridCell)) }
func (q *cellQueue) Pop() interface{} {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

// FillDepressions returns a copy of dem in which every depression has been
// raised to its spill elevation using a priority flood from the edge of the
// data. Cells on the grid border or next to nodata are the outlets.
// If flatIncrement > 0, each filled or flat cell is raised by at least
// flatIncrement above the cell it drains to, so that every valid cell has
// a strictly downslope path to an outlet.
func FillDepressions(dem *Grid, flatIncrement float64) (*Grid, error) {
	if flatIncrement < 0 {
		return nil, fmt.Errorf("grid: negative flat increment %g", flatIncrement)
	}
	out := dem.Copy()
	visited := make([]bool, len(out.Data))
	var q cellQueue
	var seq int
	for r := 0; r < out.Ny; r++ {
		for c := 0; c < out.Nx; c++ {
			if !out.Valid(r, c) {
				continue
			}
			edge := false
			for n := 0; n < 8; n++ {
				if !out.Valid(r+dRow[n], c+dCol[n]) {
					edge = true
					break
				}
			}
			if edge {
				i := out.index(r, c)
				visited[i] = true
				q = append(q, gridCell{i: i, z: out.Data[i], seq: seq})
				seq++
			}
		}
	}
	heap.Init(&q)
	for q.Len() > 0 {
		cell := heap.Pop(&q).(gridCell)
		r, c := cell.i/out.Nx, cell.i%out.Nx
		z := out.Data[cell.i]
		for n := 0; n < 8; n++ {
			rn, cn := r+dRow[n], c+dCol[n]
			if !out.Valid(rn, cn) {
				continue
			}
			in := out.index(rn, cn)
			if visited[in] {
				continue
			}
			visited[in] = true
			if out.Data[in] < z+flatIncrement {
				out.Data[in] = z + flatIncrement
			}
			heap.Push(&q, gridCell{i: in, z: out.Data[in], seq: seq})
			seq++
		}
	}
	return out, nil
}
