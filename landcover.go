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
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/zemokost/grid"
	"github.com/spatialmodel/zemokost/vector"
	"github.com/spf13/cast"
)

func aklAreas(c *Catchment) []float64 { return c.AKL[:] }
func rklAreas(c *Catchment) []float64 { return c.RKL[:] }

func (s *state) vectorAKL() error {
	v := s.cfg.VectorClasses
	return s.vectorClasses(roleAKL, "AKL", v.AKL, v.AKLField, 0, NumAKL, aklAreas)
}

func (s *state) vectorRKL() error {
	v := s.cfg.VectorClasses
	return s.vectorClasses(roleRKL, "RKL", v.RKL, v.RKLField, 1, NumRKL, rklAreas)
}

// vectorClasses overlays the class polygons of l with the catchments and
// sums the overlapping area of every class in every catchment. Classes
// range from minClass to minClass+n-1; features with other class values
// are skipped with a warning.
func (s *state) vectorClasses(role, name string, l *vector.Layer, field string, minClass, n int, areas func(*Catchment) []float64) error {
	if _, err := l.Polygons(); err != nil {
		return err
	}
	if s.ref.Differs(role) {
		var err error
		if l, err = s.geo.ReprojectVector(l, s.ref.SR, s.ref.WKT); err != nil {
			return err
		}
	}
	isect, err := s.geo.Intersect(l, s.tezg)
	if err != nil {
		return err
	}
	s.manifest.addVector(s.stage, name+"_intersect", isect, false)

	classField, _ := l.Field(field)
	idName := overlayField(l, idField)
	sums := make(map[int][]float64)
	skipped := make(map[string]bool)
	for i, f := range isect.Features {
		id, err := strconv.Atoi(f.Fields[idName])
		if err != nil {
			return fmt.Errorf("%s intersection feature %d: %v", name, i, err)
		}
		text := f.Fields[classField]
		v, err := cast.ToFloat64E(text)
		if err != nil || v != math.Trunc(v) || v < float64(minClass) || v >= float64(minClass+n) {
			skipped[text] = true
			continue
		}
		if sums[id] == nil {
			sums[id] = make([]float64, n)
		}
		sums[id][int(v)-minClass] += math.Abs(f.Geom.(geom.Polygonal).Area())
	}
	if len(skipped) > 0 {
		vals := make([]string, 0, len(skipped))
		for v := range skipped {
			vals = append(vals, fmt.Sprintf("'%s'", v))
		}
		sort.Strings(vals)
		s.warn(logrus.Fields{"layer": l.Source, "field": classField},
			"%s: skipped areas with class values outside %d to %d: %s",
			l.Source, minClass, minClass+n-1, strings.Join(vals, ", "))
	}
	for _, c := range s.table.Catchments() {
		dst := areas(c)
		for k, a := range sums[c.ID] {
			dst[k] = round(a, 0)
		}
	}
	return nil
}

func (s *state) rasterAKL() error {
	r := s.cfg.RasterClasses
	return s.rasterClasses(roleAKL, "AKL_aligned", r.AKL, r.Tables.AKL, 0, aklAreas)
}

func (s *state) rasterRKL() error {
	r := s.cfg.RasterClasses
	return s.rasterClasses(roleRKL, "RKL_aligned", r.RKL, r.Tables.RKL, 1, rklAreas)
}

// rasterClasses resamples the continuous coefficient raster g onto the
// DEM lattice, maps the mean coefficient of every catchment onto the
// class scale with table and splits the area of the valid cells between
// the two bracketing classes. Catchments without valid cells keep zero
// class areas.
func (s *state) rasterClasses(role, name string, g *grid.Grid, table InterpolationTable, minClass int, areas func(*Catchment) []float64) error {
	aligned, err := s.geo.AlignRaster(g, s.dem, grid.Bilinear, s.ref.Transform(role))
	if err != nil {
		return err
	}
	s.keepRaster(name, aligned)
	stats, err := s.geo.ZonalStatistics(aligned, s.zones)
	if err != nil {
		return err
	}
	cs := float64(s.dem.CellSize())
	for i, c := range s.table.Catchments() {
		m, ok := stats[i].Mean()
		if !ok {
			continue
		}
		splitClasses(areas(c), minClass, table.Interpolate(m), float64(stats[i].Count)*cs*cs)
	}
	return nil
}
