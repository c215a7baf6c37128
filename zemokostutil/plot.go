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

package zemokostutil

import (
	"fmt"

	"github.com/spatialmodel/zemokost"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// plotClassTable draws the class values of t over its coefficient range
// and saves the figure to path.
func plotClassTable(t zemokost.InterpolationTable, title, path string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("zemokost: %v", err)
	}
	p.Title.Text = title
	p.X.Label.Text = "Coefficient"
	p.Y.Label.Text = "Class"

	const n = 100
	lo, hi := t.X[0], t.X[len(t.X)-1]
	xy := make(plotter.XYs, n+1)
	for i := range xy {
		x := lo + (hi-lo)*float64(i)/n
		xy[i].X = x
		xy[i].Y = t.Interpolate(x)
	}
	ctrl := make(plotter.XYs, len(t.X))
	for i := range ctrl {
		ctrl[i].X = t.X[i]
		ctrl[i].Y = t.Y[i]
	}
	if err := plotutil.AddLines(p, "class", xy); err != nil {
		return fmt.Errorf("zemokost: %v", err)
	}
	if err := plotutil.AddScatters(p, "control points", ctrl); err != nil {
		return fmt.Errorf("zemokost: %v", err)
	}
	p.Y.Min = 0
	if err := p.Save(4*vg.Inch, 3*vg.Inch, path); err != nil {
		return fmt.Errorf("zemokost: saving plot: %v", err)
	}
	return nil
}
