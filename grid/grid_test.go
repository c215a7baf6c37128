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
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plane returns an n by n grid sloping down to the east by slope.
func plane(n int, dx, slope float64) *Grid {
	g := New(n, n, 0, 0, dx, -9999)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			g.Set(r, c, 100-slope*g.Center(r, c).X)
		}
	}
	return g
}

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func TestASCII(t *testing.T) {
	const in = `ncols 3
nrows 2
xllcenter 5
yllcenter 15
cellsize 10
NODATA_value -1
1 2 3
4 -1 6
`
	g, err := ReadASCII(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, g.Nx)
	assert.Equal(t, 2, g.Ny)
	assert.Equal(t, 0., g.X0)
	assert.Equal(t, 10., g.Y0)
	assert.False(t, g.Valid(1, 1))
	assert.Equal(t, 6., g.Get(1, 2))
	assert.Equal(t, geom.Point{X: 25, Y: 25}, g.Center(0, 2))

	t.Run("round trip", func(t *testing.T) {
		var b bytes.Buffer
		require.NoError(t, g.WriteASCII(&b))
		g2, err := ReadASCII(&b)
		require.NoError(t, err)
		assert.Equal(t, g.Data, g2.Data)
		assert.Equal(t, g.X0, g2.X0)
		assert.Equal(t, g.Y0, g2.Y0)
	})
	t.Run("missing header", func(t *testing.T) {
		_, err := ReadASCII(strings.NewReader("ncols 1\nnrows 1\n1\n"))
		assert.Error(t, err)
	})
	t.Run("short row", func(t *testing.T) {
		_, err := ReadASCII(strings.NewReader("ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n"))
		assert.Error(t, err)
	})
	t.Run("save and load", func(t *testing.T) {
		dir, err := ioutil.TempDir("", "grid")
		require.NoError(t, err)
		defer os.RemoveAll(dir)
		p := filepath.Join(dir, "g.asc")
		require.NoError(t, g.Save(p))
		g2, err := Load(p)
		require.NoError(t, err)
		assert.Equal(t, g.Data, g2.Data)
		assert.Nil(t, g2.SR)
		assert.Error(t, g2.SRErr)
		assert.Equal(t, p, g2.Source)
	})
}

func TestFillDepressions(t *testing.T) {
	g := New(5, 5, 0, 0, 1, -9999)
	for i := range g.Data {
		g.Data[i] = 10
	}
	g.Set(2, 2, 1) // pit
	g.Set(0, 2, 5) // outlet on the edge

	t.Run("no increment", func(t *testing.T) {
		f, err := FillDepressions(g, 0)
		require.NoError(t, err)
		assert.Equal(t, 10., f.Get(2, 2))
		assert.Equal(t, 5., f.Get(0, 2))
		assert.Equal(t, 1., g.Get(2, 2), "input must not change")
	})
	t.Run("increment", func(t *testing.T) {
		f, err := FillDepressions(g, 0.01)
		require.NoError(t, err)
		// Every interior cell must have a strictly lower neighbour.
		dir := D8(f)
		for r := 1; r < 4; r++ {
			for c := 1; c < 4; c++ {
				assert.NotEqual(t, noFlow, dir[f.index(r, c)], "cell %d,%d", r, c)
			}
		}
	})
	t.Run("negative", func(t *testing.T) {
		_, err := FillDepressions(g, -1)
		assert.Error(t, err)
	})
}

func TestFlowAccumulation(t *testing.T) {
	g := plane(10, 10, 0.1)
	acc := FlowAccumulation(g)
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			assert.Equal(t, float64(c+1), acc.Get(r, c), "cell %d,%d", r, c)
		}
	}
	g.Set(0, 0, g.NoData)
	acc = FlowAccumulation(g)
	assert.True(t, acc.IsNoData(acc.Get(0, 0)))
	assert.Equal(t, 9., acc.Get(0, 9))
}

func TestDownslopeDistance(t *testing.T) {
	g := plane(10, 10, 0.1)
	streams := g.NewLike(0, -9999)
	for r := 0; r < 10; r++ {
		streams.Set(r, 9, 1)
	}
	d, err := DownslopeDistance(g, streams)
	require.NoError(t, err)
	for c := 0; c < 10; c++ {
		assert.InDelta(t, float64(9-c)*10, d.Get(4, c), 1.e-9)
	}

	t.Run("no stream", func(t *testing.T) {
		d, err := DownslopeDistance(g, g.NewLike(0, -9999))
		require.NoError(t, err)
		for _, v := range d.Data {
			assert.True(t, d.IsNoData(v))
		}
	})
	t.Run("misaligned", func(t *testing.T) {
		_, err := DownslopeDistance(g, New(3, 3, 0, 0, 10, -9999))
		assert.Error(t, err)
	})
}

func TestSlopePercent(t *testing.T) {
	g := plane(10, 10, 0.1)
	s := SlopePercent(g)
	assert.True(t, s.IsNoData(s.Get(0, 0)))
	for r := 1; r < 9; r++ {
		for c := 1; c < 9; c++ {
			assert.InDelta(t, 10., s.Get(r, c), 1.e-9)
		}
	}
}

func TestReclassify(t *testing.T) {
	g := New(5, 1, 0, 0, 1, -1)
	copy(g.Data, []float64{1, 2, 3, 7, -1})
	ridges, err := Reclassify(g, []Range{{1, 2, 1}, {3, 7, 0}}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 0, 0, -1}, ridges.Data)

	bands, err := Reclassify(g, []Range{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}}, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, -1, -1}, bands.Data)

	_, err = Reclassify(g, []Range{{2, 1, 1}}, true)
	assert.Error(t, err)

	t.Run("zero as nodata", func(t *testing.T) {
		ridges.SetNoData(0)
		assert.Equal(t, []float64{1, 1, 0, 0, 0}, ridges.Data)
		assert.True(t, ridges.IsNoData(ridges.Get(0, 2)))
		assert.False(t, ridges.Valid(0, 4))
		assert.True(t, ridges.Valid(0, 0))
	})
}

func TestZonal(t *testing.T) {
	g := plane(10, 10, 0.1) // values 99.5 to 90.5 west to east
	stats := ZonalPolygons(g, []geom.Polygonal{square(0, 0, 20, 100), square(200, 200, 300, 300), nil})
	assert.Equal(t, 20, stats[0].Count)
	m, ok := stats[0].Mean()
	assert.True(t, ok)
	assert.InDelta(t, 99., m, 1.e-9)
	assert.InDelta(t, 98.5, stats[0].Min, 1.e-9)
	_, ok = stats[1].Mean()
	assert.False(t, ok)

	zones := g.NewLike(-9999, -9999)
	zones.Set(0, 0, 4)
	zones.Set(0, 1, 4)
	zones.Set(5, 5, 7)
	zs, err := ZonalRaster(g, zones)
	require.NoError(t, err)
	assert.Len(t, zs, 2)
	assert.Equal(t, 2, zs[4].Count)
	assert.InDelta(t, 99.5, zs[4].Max, 1.e-9)
	assert.InDelta(t, 98.5, zs[4].Min, 1.e-9)
}

func TestCalc(t *testing.T) {
	a := New(3, 1, 0, 0, 1, -9999)
	b := New(3, 1, 0, 0, 1, -9999)
	copy(a.Data, []float64{0, 2, -9999})
	copy(b.Data, []float64{0.5, 0.5, 0.5})
	out, err := Calc("A > 0 ? B : 0", map[string]*Grid{"A": a, "B": b}, -1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, -1}, out.Data)

	out, err = Calc("A >= 1 && A <= 4", map[string]*Grid{"A": a}, -1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, -1}, out.Data)

	_, err = Calc("A * C", map[string]*Grid{"A": a}, -1)
	assert.Error(t, err)
	_, err = Calc("A * B", map[string]*Grid{"A": a, "B": New(2, 1, 0, 0, 1, -9999)}, -1)
	assert.Error(t, err)
}

func TestAlign(t *testing.T) {
	src := New(2, 1, 0, 0, 10, -9999)
	copy(src.Data, []float64{0, 10})
	template := New(4, 2, 0, 0, 5, -9999)

	near, err := Align(src, template, Nearest, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 10, 10, 0, 0, 10, 10}, near.Data)

	bil, err := Align(src, template, Bilinear, nil)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, bil.Get(0, 1), 1.e-9)
	assert.InDelta(t, 0., bil.Get(0, 0), 1.e-9)

	shift := func(x, y float64) (float64, float64, error) { return x + 10, y, nil }
	shifted, err := Align(src, template, Nearest, shift)
	require.NoError(t, err)
	assert.Equal(t, 10., shifted.Get(0, 0))
	assert.True(t, shifted.IsNoData(shifted.Get(0, 3)))
}

func TestRasterize(t *testing.T) {
	template := New(10, 10, 0, 0, 10, -9999)
	polys, err := RasterizePolygons(template, []geom.Polygonal{square(0, 0, 50, 100)}, []float64{3}, -9999)
	require.NoError(t, err)
	assert.Equal(t, 3., polys.Get(0, 4))
	assert.True(t, polys.IsNoData(polys.Get(0, 5)))

	lines, err := RasterizeLines(template, []geom.Linear{geom.LineString{{X: 0, Y: 55}, {X: 100, Y: 55}}}, []float64{7}, 0, -9999)
	require.NoError(t, err)
	var n int
	for _, v := range lines.Data {
		if v == 7 {
			n++
		}
	}
	assert.Equal(t, 10, n)
	assert.Equal(t, 7., lines.Get(4, 0))

	_, err = RasterizeLines(template, nil, []float64{1}, 0, -9999)
	assert.Error(t, err)
}

func TestClip(t *testing.T) {
	g := plane(10, 10, 0.1)
	c, err := Clip(g, []geom.Polygonal{square(20, 20, 60, 50)}, 99999)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Nx)
	assert.Equal(t, 3, c.Ny)
	assert.Equal(t, 20., c.X0)
	assert.Equal(t, 20., c.Y0)
	assert.InDelta(t, g.Get(5, 2), c.Get(0, 0), 1.e-12)

	_, err = Clip(g, []geom.Polygonal{square(500, 500, 600, 600)}, 99999)
	assert.Error(t, err)
}
