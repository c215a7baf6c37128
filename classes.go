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

package zemokost

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// InterpolationTable maps a continuous land cover coefficient onto the
// discrete class scale with a piecewise-linear function through the
// control points (X[i], Y[i]).
type InterpolationTable struct {
	X []float64 `toml:"x"`
	Y []float64 `toml:"y"`
}

// DefaultAKLTable maps the continuous discharge coefficient onto discharge
// classes 0 to 6.
var DefaultAKLTable = InterpolationTable{
	X: []float64{0, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.625, 0.75, 0.875, 1.0},
	Y: []float64{0, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5, 6},
}

// DefaultRKLTable is the identity over roughness classes 1 to 6: the
// roughness raster holds class values directly.
var DefaultRKLTable = InterpolationTable{
	X: []float64{1, 6},
	Y: []float64{1, 6},
}

// Validate checks that t has at least two control points, that X is
// strictly increasing and that Y is nondecreasing.
func (t InterpolationTable) Validate() error {
	if len(t.X) != len(t.Y) {
		return fmt.Errorf("zemokost: interpolation table has %d x values but %d y values", len(t.X), len(t.Y))
	}
	if len(t.X) < 2 {
		return fmt.Errorf("zemokost: interpolation table needs at least 2 control points, has %d", len(t.X))
	}
	for i := 1; i < len(t.X); i++ {
		if t.X[i] <= t.X[i-1] {
			return fmt.Errorf("zemokost: interpolation table x values must increase: x[%d]=%g, x[%d]=%g", i-1, t.X[i-1], i, t.X[i])
		}
		if t.Y[i] < t.Y[i-1] {
			return fmt.Errorf("zemokost: interpolation table y values must not decrease: y[%d]=%g, y[%d]=%g", i-1, t.Y[i-1], i, t.Y[i])
		}
	}
	return nil
}

// Interpolate returns the class value for coefficient x. Values outside
// the table are clamped to the first or last class value.
func (t InterpolationTable) Interpolate(x float64) float64 {
	n := len(t.X)
	if x <= t.X[0] {
		return t.Y[0]
	}
	if x >= t.X[n-1] {
		return t.Y[n-1]
	}
	i := sort.SearchFloat64s(t.X, x) // t.X[i-1] < x <= t.X[i]
	if x == t.X[i] {
		return t.Y[i]
	}
	f := (x - t.X[i-1]) / (t.X[i] - t.X[i-1])
	return t.Y[i-1] + f*(t.Y[i]-t.Y[i-1])
}

// ClassTables holds the interpolation tables of both land cover
// coefficients.
type ClassTables struct {
	AKL InterpolationTable `toml:"akl"`
	RKL InterpolationTable `toml:"rkl"`
}

// LoadClassTables reads interpolation tables from the TOML file at path.
// A table missing from the file keeps its default.
func LoadClassTables(path string) (ClassTables, error) {
	t := ClassTables{AKL: DefaultAKLTable, RKL: DefaultRKLTable}
	f, err := os.Open(path)
	if err != nil {
		return t, fmt.Errorf("zemokost: opening class table file: %v", err)
	}
	defer f.Close()
	var in ClassTables
	if _, err := toml.DecodeReader(f, &in); err != nil {
		return t, fmt.Errorf("zemokost: reading class table file %s: %v", path, err)
	}
	if len(in.AKL.X) > 0 {
		t.AKL = in.AKL
	}
	if len(in.RKL.X) > 0 {
		t.RKL = in.RKL
	}
	if err := t.AKL.Validate(); err != nil {
		return t, fmt.Errorf("%v (akl)", err)
	}
	if err := t.RKL.Validate(); err != nil {
		return t, fmt.Errorf("%v (rkl)", err)
	}
	return t, nil
}

// splitClasses distributes area between the two integer classes
// bracketing class value v and adds the result to areas, where areas[0]
// holds class minClass. Values at or beyond the first or last class go
// entirely to that class. The two parts always sum to the rounded area.
func splitClasses(areas []float64, minClass int, v, area float64) {
	maxClass := minClass + len(areas) - 1
	total := round(area, 0)
	switch {
	case v <= float64(minClass):
		areas[0] += total
		return
	case v >= float64(maxClass):
		areas[len(areas)-1] += total
		return
	}
	k := math.Floor(v)
	frac := v - k
	upper := round(area*frac, 0)
	lo := int(k) - minClass
	areas[lo] += total - upper
	areas[lo+1] += upper
}
