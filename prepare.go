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
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/zemokost/vector"
	"github.com/spf13/cast"
)

const (
	// idField holds the catchment identifier in derived vector layers.
	idField = "TEZG_ID_ZK"

	// minCatchmentArea is the area [m²] below which a catchment is
	// reported as suspicious.
	minCatchmentArea = 100.
)

// catchmentIDs coerces the identifier field of every catchment of l to
// an integer. Values that are not integral numbers and values used more
// than once are reported together as a *ConfigError.
func catchmentIDs(l *vector.Layer, field string) ([]int, error) {
	cerr := new(ConfigError)
	if len(l.Features) == 0 {
		cerr.add("catchment layer %s holds no features", l.Source)
	}
	name, _ := l.Field(field)
	ids := make([]int, len(l.Features))
	first := make(map[int]int)
	for i, f := range l.Features {
		text := f.Fields[name]
		v, err := cast.ToFloat64E(text)
		if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			cerr.add("catchment %d of %s: identifier '%s' is not an integer", i, l.Source, text)
			continue
		}
		id := int(v)
		if j, ok := first[id]; ok {
			cerr.add("catchments %d and %d of %s share the identifier %d", j, i, l.Source, id)
			continue
		}
		first[id] = i
		ids[i] = id
	}
	return ids, cerr.errOrNil()
}

// overlayField returns the name that field of the overlay layer gets in
// the intersection of in with that overlay.
func overlayField(in *vector.Layer, field string) string {
	if _, ok := in.Field(field); ok {
		return field + "_2"
	}
	return field
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// prepareCatchments brings the catchments into the working reference and
// fills the table with their identity and geometry.
func (s *state) prepareCatchments() error {
	l := s.cfg.Catchments
	if s.ref.Differs(roleCatchments) {
		var err error
		if l, err = s.geo.ReprojectVector(l, s.ref.SR, s.ref.WKT); err != nil {
			return err
		}
	}
	polys, err := l.Polygons()
	if err != nil {
		return err
	}
	up, _ := l.Field(s.cfg.Fields.UpperNode)
	down, _ := l.Field(s.cfg.Fields.LowerNode)
	name, hasName := l.Field(s.cfg.Fields.Name)

	s.tezg = &vector.Layer{
		Source: l.Source,
		SR:     s.ref.SR,
		WKT:    s.ref.WKT,
		Fields: []string{idField, "ctr_x", "ctr_y"},
	}
	for i, f := range l.Features {
		p := polys[i]
		ctr := p.Centroid()
		c := &Catchment{
			ID:        s.ids[i],
			UpperNode: f.Fields[up],
			LowerNode: f.Fields[down],
			X:         ctr.X,
			Y:         ctr.Y,
			Geom:      p,
			Area:      math.Abs(p.Area()),
		}
		if hasName {
			c.Name = f.Fields[name]
		}
		if c.Area < minCatchmentArea {
			s.warn(logrus.Fields{"id": c.ID, "area": c.Area},
				"catchment %d has an area of %.2f m², which is less than %g m²", c.ID, c.Area, minCatchmentArea)
		}
		if err := s.table.Add(c); err != nil {
			return err
		}
		s.tezg.Features = append(s.tezg.Features, &vector.Feature{
			Geom: p,
			Fields: map[string]string{
				idField: strconv.Itoa(c.ID),
				"ctr_x": formatCoord(ctr.X),
				"ctr_y": formatCoord(ctr.Y),
			},
		})
	}
	s.zones = s.table.Polygons()
	s.manifest.addVector(s.stage, "TEZG", s.tezg, false)
	return nil
}

// prepareChannels brings the channel networks into the working reference
// and clips them to the catchments.
func (s *state) prepareChannels() error {
	var err error
	if s.main, err = s.channels(roleMain, s.cfg.MainChannel); err != nil {
		return err
	}
	s.manifest.addVector(s.stage, "Gerinne_clip", s.main, false)
	if s.cfg.FineChannel == nil {
		return nil
	}
	if s.fine, err = s.channels(roleFine, s.cfg.FineChannel); err != nil {
		return err
	}
	s.manifest.addVector(s.stage, "Feingerinne_clip", s.fine, false)
	return nil
}

func (s *state) channels(role string, l *vector.Layer) (*vector.Layer, error) {
	if _, err := l.Lines(); err != nil {
		return nil, err
	}
	if s.ref.Differs(role) {
		var err error
		if l, err = s.geo.ReprojectVector(l, s.ref.SR, s.ref.WKT); err != nil {
			return nil, err
		}
	}
	return s.geo.ClipVector(l, s.zones)
}
