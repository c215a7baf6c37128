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
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

// DefaultNoData is used when an ASCII grid does not specify a nodata value.
const DefaultNoData = -9999.

// ReadASCII reads an ESRI ASCII grid. Both the corner and the center
// variants of the origin headers are accepted.
func ReadASCII(r io.Reader) (*Grid, error) {
	var (
		nx, ny               int
		x, y, dx             float64
		haveX, haveY, haveDx bool
		xCenter, yCenter     bool
	)
	g := &Grid{NoData: DefaultNoData}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	var row int
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		keyword := strings.ToUpper(fields[0])
		if g.Data == nil && isHeader(keyword) {
			if len(fields) != 2 {
				return nil, fmt.Errorf("grid: header line %q must have exactly two fields", scanner.Text())
			}
			var err error
			switch keyword {
			case "NCOLS":
				nx, err = strconv.Atoi(fields[1])
			case "NROWS":
				ny, err = strconv.Atoi(fields[1])
			case "XLLCORNER", "XLLCENTER":
				x, err = strconv.ParseFloat(fields[1], 64)
				haveX, xCenter = true, keyword == "XLLCENTER"
			case "YLLCORNER", "YLLCENTER":
				y, err = strconv.ParseFloat(fields[1], 64)
				haveY, yCenter = true, keyword == "YLLCENTER"
			case "CELLSIZE":
				dx, err = strconv.ParseFloat(fields[1], 64)
				haveDx = true
			case "NODATA_VALUE":
				g.NoData, err = strconv.ParseFloat(fields[1], 64)
			}
			if err != nil {
				return nil, fmt.Errorf("grid: parsing header %s: %v", keyword, err)
			}
			continue
		}
		if g.Data == nil {
			if nx <= 0 || ny <= 0 || !haveX || !haveY || !haveDx {
				return nil, fmt.Errorf("grid: ASCII grid doesn't include all mandatory headers")
			}
			if !(dx > 0) {
				return nil, fmt.Errorf("grid: CELLSIZE must be greater than 0 but is %g", dx)
			}
			if xCenter {
				x -= dx / 2
			}
			if yCenter {
				y -= dx / 2
			}
			g.Nx, g.Ny, g.X0, g.Y0, g.Dx = nx, ny, x, y, dx
			g.Data = make([]float64, 0, nx*ny)
		}
		if row >= ny {
			break
		}
		if len(fields) < nx {
			return nil, fmt.Errorf("grid: data row %d is too short: %d < %d values", row, len(fields), nx)
		}
		for _, f := range fields[:nx] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("grid: data row %d: %v", row, err)
			}
			g.Data = append(g.Data, v)
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("grid: reading ASCII grid: %v", err)
	}
	if g.Data == nil || row != ny {
		return nil, fmt.Errorf("grid: ASCII grid has %d data rows but NROWS is %d", row, ny)
	}
	return g, nil
}

func isHeader(keyword string) bool {
	switch keyword {
	case "NCOLS", "NROWS", "XLLCORNER", "XLLCENTER", "YLLCORNER", "YLLCENTER",
		"CELLSIZE", "NODATA_VALUE":
		return true
	}
	return false
}

// WriteASCII writes g as an ESRI ASCII grid.
func (g *Grid) WriteASCII(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\nxllcorner %s\nyllcorner %s\ncellsize %s\nNODATA_value %s\n",
		g.Nx, g.Ny, formatValue(g.X0), formatValue(g.Y0), formatValue(g.Dx), formatValue(g.NoData))
	for r := 0; r < g.Ny; r++ {
		for c := 0; c < g.Nx; c++ {
			if c > 0 {
				bw.WriteByte(' ')
			}
			v := g.Get(r, c)
			if g.IsNoData(v) {
				v = g.NoData
			}
			bw.WriteString(formatValue(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatValue(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// Load reads the ESRI ASCII grid at path and, if present, the spatial
// reference in the sidecar file with the extension ".prj". A missing or
// unparseable reference does not cause an error; it is recorded in SRErr.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grid: %v", err)
	}
	defer f.Close()
	g, err := ReadASCII(f)
	if err != nil {
		return nil, fmt.Errorf("%v (file %s)", err, path)
	}
	g.Source = path
	b, err := ioutil.ReadFile(prjPath(path))
	if err != nil {
		g.SRErr = err
		return g, nil
	}
	g.WKT = strings.TrimSpace(string(b))
	if g.SR, err = proj.Parse(g.WKT); err != nil {
		g.SRErr = err
	}
	return g, nil
}

// Save writes g to path as an ESRI ASCII grid along with its spatial
// reference text, if any.
func (g *Grid) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("grid: %v", err)
	}
	if err = g.WriteASCII(f); err != nil {
		f.Close()
		return fmt.Errorf("grid: writing %s: %v", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("grid: %v", err)
	}
	if g.WKT == "" {
		return nil
	}
	return ioutil.WriteFile(prjPath(path), []byte(g.WKT), 0644)
}

func prjPath(path string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndexAny(path, `/\`) {
		path = path[:i]
	}
	return path + ".prj"
}
