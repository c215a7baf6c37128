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
	"sort"

	"github.com/Knetic/govaluate"
)

// algebraFuncs are the functions available in Calc expressions.
var algebraFuncs = map[string]govaluate.ExpressionFunction{
	"min": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("grid: got %d arguments for function 'min', but needs 2", len(args))
		}
		return math.Min(args[0].(float64), args[1].(float64)), nil
	},
	"max": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("grid: got %d arguments for function 'max', but needs 2", len(args))
		}
		return math.Max(args[0].(float64), args[1].(float64)), nil
	},
}

// Calc evaluates expression cell by cell, where each variable in
// expression refers to the grid of the same name in inputs. All inputs
// must share one lattice. A cell is nodata in the result if it is nodata
// in any input or if the expression yields no value. Boolean results are
// stored as 1 and 0.
func Calc(expression string, inputs map[string]*Grid, nodata float64) (*Grid, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, algebraFuncs)
	if err != nil {
		return nil, fmt.Errorf("grid: raster algebra %q: %v", expression, err)
	}
	var names []string
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, v := range expr.Vars() {
		if _, ok := inputs[v]; !ok {
			return nil, fmt.Errorf("grid: raster algebra %q: undefined variable '%s'", expression, v)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("grid: raster algebra %q: no input rasters", expression)
	}
	ref := inputs[names[0]]
	for _, name := range names[1:] {
		if err := ref.Aligned(inputs[name]); err != nil {
			return nil, fmt.Errorf("grid: raster algebra %q: %s: %v", expression, name, err)
		}
	}
	out := ref.NewLike(nodata, nodata)
	params := make(map[string]interface{}, len(names))
cells:
	for i := range out.Data {
		for _, name := range names {
			g := inputs[name]
			v := g.Data[i]
			if g.IsNoData(v) {
				continue cells
			}
			params[name] = v
		}
		result, err := expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("grid: raster algebra %q: %v", expression, err)
		}
		switch v := result.(type) {
		case float64:
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				out.Data[i] = v
			}
		case bool:
			if v {
				out.Data[i] = 1
			} else {
				out.Data[i] = 0
			}
		case nil:
		default:
			return nil, fmt.Errorf("grid: raster algebra %q: unsupported result type %T", expression, result)
		}
	}
	return out, nil
}
