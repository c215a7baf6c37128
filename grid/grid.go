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

// Package grid holds single band raster surfaces on a regular lattice of
// square cells and the terrain and raster operators that work on them.
package grid

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Grid is a single band raster surface. Row 0 is the northernmost row
// and column 0 the westernmost column.
type Grid struct {
	Nx, Ny int     // number of columns and rows
	X0, Y0 float64 // lower left corner
	Dx     float64 // cell edge length
	NoData float64

	// Data holds Nx*Ny values in row-major order.
	Data []float64

	// SR is the spatial reference of the grid and WKT the text it was
	// parsed from. Both may be empty; SRErr then holds the reason when
	// the grid was loaded from a file.
	SR    *proj.SR
	WKT   string
	SRErr error

	// Source is the file the grid was loaded from, if any.
	Source string
}

// New returns a grid with all cells set to nodata.
func New(nx, ny int, x0, y0, dx, nodata float64) *Grid {
	g := &Grid{Nx: nx, Ny: ny, X0: x0, Y0: y0, Dx: dx, NoData: nodata,
		Data: make([]float64, nx*ny)}
	for i := range g.Data {
		g.Data[i] = nodata
	}
	return g
}

// NewLike returns a grid with the same lattice and reference as g and
// every cell set to fill.
func (g *Grid) NewLike(fill, nodata float64) *Grid {
	o := New(g.Nx, g.Ny, g.X0, g.Y0, g.Dx, nodata)
	for i := range o.Data {
		o.Data[i] = fill
	}
	o.SR, o.WKT = g.SR, g.WKT
	return o
}

// Copy returns a deep copy of g.
func (g *Grid) Copy() *Grid {
	o := *g
	o.Source = ""
	o.Data = make([]float64, len(g.Data))
	copy(o.Data, g.Data)
	return &o
}

func (g *Grid) index(r, c int) int { return r*g.Nx + c }

// Get returns the value at row r and column c.
func (g *Grid) Get(r, c int) float64 { return g.Data[g.index(r, c)] }

// Set sets the value at row r and column c.
func (g *Grid) Set(r, c int, v float64) { g.Data[g.index(r, c)] = v }

// In returns whether r, c is a cell of g.
func (g *Grid) In(r, c int) bool { return r >= 0 && r < g.Ny && c >= 0 && c < g.Nx }

// IsNoData returns whether v is the nodata value of g or NaN.
func (g *Grid) IsNoData(v float64) bool { return v == g.NoData || math.IsNaN(v) }

// Valid returns whether r, c lies inside g and holds data.
func (g *Grid) Valid(r, c int) bool {
	return g.In(r, c) && !g.IsNoData(g.Get(r, c))
}

// Center returns the center of the cell at r, c.
func (g *Grid) Center(r, c int) geom.Point {
	return geom.Point{
		X: g.X0 + (float64(c)+0.5)*g.Dx,
		Y: g.Y0 + (float64(g.Ny-r)-0.5)*g.Dx,
	}
}

// Cell returns the row and column containing x, y and whether
// that cell is part of g.
func (g *Grid) Cell(x, y float64) (r, c int, ok bool) {
	c = int(math.Floor((x - g.X0) / g.Dx))
	r = g.Ny - 1 - int(math.Floor((y-g.Y0)/g.Dx))
	return r, c, g.In(r, c)
}

// Bounds returns the extent of g.
func (g *Grid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.X0, Y: g.Y0},
		Max: geom.Point{X: g.X0 + float64(g.Nx)*g.Dx, Y: g.Y0 + float64(g.Ny)*g.Dx},
	}
}

// CellSize returns the cell edge length truncated to whole map units.
func (g *Grid) CellSize() int { return int(g.Dx) }

// Window returns the range of rows and columns whose cells overlap b,
// clamped to g. The ranges are empty if b does not overlap g.
func (g *Grid) Window(b *geom.Bounds) (r0, r1, c0, c1 int) {
	c0 = int(math.Floor((b.Min.X - g.X0) / g.Dx))
	c1 = int(math.Ceil((b.Max.X - g.X0) / g.Dx))
	r0 = g.Ny - int(math.Ceil((b.Max.Y-g.Y0)/g.Dx))
	r1 = g.Ny - int(math.Floor((b.Min.Y-g.Y0)/g.Dx))
	if c0 < 0 {
		c0 = 0
	}
	if r0 < 0 {
		r0 = 0
	}
	if c1 > g.Nx {
		c1 = g.Nx
	}
	if r1 > g.Ny {
		r1 = g.Ny
	}
	return
}

// Aligned returns an error if o does not share the lattice of g.
func (g *Grid) Aligned(o *Grid) error {
	const tol = 1.e-6
	if g.Nx != o.Nx || g.Ny != o.Ny || math.Abs(g.X0-o.X0) > tol ||
		math.Abs(g.Y0-o.Y0) > tol || math.Abs(g.Dx-o.Dx) > tol {
		return fmt.Errorf("grid: lattice mismatch: %dx%d@(%g,%g,%g) != %dx%d@(%g,%g,%g)",
			g.Nx, g.Ny, g.X0, g.Y0, g.Dx, o.Nx, o.Ny, o.X0, o.Y0, o.Dx)
	}
	return nil
}

// SetNoData makes nodata the nodata value of g. Cells that were nodata
// before are set to it, and cells already holding it become nodata.
func (g *Grid) SetNoData(nodata float64) {
	for i, v := range g.Data {
		if g.IsNoData(v) {
			g.Data[i] = nodata
		}
	}
	g.NoData = nodata
}

// Max returns the largest valid value of g and false if g has no data.
func (g *Grid) Max() (float64, bool) {
	max, ok := math.Inf(-1), false
	for _, v := range g.Data {
		if g.IsNoData(v) {
			continue
		}
		ok = true
		if v > max {
			max = v
		}
	}
	return max, ok
}

// The eight neighbours of a cell, clockwise starting at the north east.
var (
	dRow = [8]int{-1, 0, 1, 1, 1, 0, -1, -1}
	dCol = [8]int{1, 1, 1, 0, -1, -1, -1, 0}
)

// neighbourDist returns the distance to neighbour n in cell units.
func neighbourDist(n int) float64 {
	if dRow[n] != 0 && dCol[n] != 0 {
		return math.Sqrt2
	}
	return 1
}
