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

// Package vector holds layers of geometries with text attributes and the
// vector operators that work on them.
package vector

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
)

// Feature is a geometry and its attributes.
type Feature struct {
	geom.Geom
	Fields map[string]string
}

// Layer is an ordered set of features sharing a spatial reference and a
// set of attribute names.
type Layer struct {
	// Source is where the layer was read from.
	Source string

	// SR is the spatial reference of the layer, and WKT the text it
	// was parsed from. SR is nil if the reference is missing or could
	// not be parsed, in which case SRErr holds the reason.
	SR    *proj.SR
	WKT   string
	SRErr error

	// Fields are the attribute names in file order.
	Fields []string

	Features []*Feature
}

// Load reads the shapefile at path along with the spatial reference in its
// ".prj" file. A missing or unparseable reference does not cause an error;
// it is recorded in SRErr.
func Load(path string) (*Layer, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("vector: opening %s: %v", path, err)
	}
	defer d.Close()

	l := &Layer{Source: path}
	for _, f := range d.Fields() {
		l.Fields = append(l.Fields, strings.TrimRight(string(f.Name[:]), "\x00"))
	}
	for {
		g, fields, more := d.DecodeRowFields(l.Fields...)
		if !more || d.Error() != nil {
			break
		}
		for k, v := range fields {
			fields[k] = strings.TrimSpace(v)
		}
		l.Features = append(l.Features, &Feature{Geom: g, Fields: fields})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("vector: reading %s: %v", path, err)
	}
	l.readSR(strings.TrimSuffix(path, ".shp") + ".prj")
	return l, nil
}

func (l *Layer) readSR(prj string) {
	b, err := ioutil.ReadFile(prj)
	if err != nil {
		l.SRErr = err
		return
	}
	l.WKT = strings.TrimSpace(string(b))
	if l.SR, err = proj.Parse(l.WKT); err != nil {
		l.SRErr = err
	}
}

// Field returns the name of the attribute matching name without regard to
// case, and whether there is one.
func (l *Layer) Field(name string) (string, bool) {
	for _, f := range l.Fields {
		if strings.EqualFold(f, name) {
			return f, true
		}
	}
	return "", false
}

// Polygons returns the geometries of l, which must all be polygonal.
func (l *Layer) Polygons() ([]geom.Polygonal, error) {
	o := make([]geom.Polygonal, len(l.Features))
	for i, f := range l.Features {
		p, ok := f.Geom.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("vector: %s: feature %d is a %T, not a polygon", l.Source, i, f.Geom)
		}
		o[i] = p
	}
	return o, nil
}

// Lines returns the geometries of l, which must all be linear.
func (l *Layer) Lines() ([]geom.Linear, error) {
	o := make([]geom.Linear, len(l.Features))
	for i, f := range l.Features {
		p, ok := f.Geom.(geom.Linear)
		if !ok {
			return nil, fmt.Errorf("vector: %s: feature %d is a %T, not a line", l.Source, i, f.Geom)
		}
		o[i] = p
	}
	return o, nil
}

// Save writes l as a shapefile with text attributes, along with its
// spatial reference text if there is one.
func (l *Layer) Save(path string) error {
	if len(l.Features) == 0 {
		return fmt.Errorf("vector: cannot save empty layer to %s", path)
	}
	var t goshp.ShapeType
	switch l.Features[0].Geom.(type) {
	case geom.Polygonal:
		t = goshp.POLYGON
	case geom.Linear:
		t = goshp.POLYLINE
	case geom.Point, geom.MultiPoint:
		t = goshp.POINT
	default:
		return fmt.Errorf("vector: unsupported geometry type %T", l.Features[0].Geom)
	}
	fields := make([]goshp.Field, len(l.Fields))
	for i, name := range l.Fields {
		fields[i] = goshp.StringField(name, 50)
	}
	e, err := shp.NewEncoderFromFields(path, t, fields...)
	if err != nil {
		return fmt.Errorf("vector: creating %s: %v", path, err)
	}
	for _, f := range l.Features {
		vals := make([]interface{}, len(l.Fields))
		for i, name := range l.Fields {
			vals[i] = f.Fields[name]
		}
		if err := e.EncodeFields(f.Geom, vals...); err != nil {
			e.Close()
			return fmt.Errorf("vector: writing %s: %v", path, err)
		}
	}
	e.Close()
	if l.WKT == "" {
		return nil
	}
	prj := strings.TrimSuffix(path, ".shp") + ".prj"
	if err := ioutil.WriteFile(prj, []byte(l.WKT), os.FileMode(0644)); err != nil {
		return fmt.Errorf("vector: %v", err)
	}
	return nil
}
