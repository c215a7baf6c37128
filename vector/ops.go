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

package vector

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// Reproject returns a copy of l with every geometry transformed into sr.
// wkt is the text of sr, kept with the result.
func Reproject(l *Layer, sr *proj.SR, wkt string) (*Layer, error) {
	if l.SR == nil {
		return nil, fmt.Errorf("vector: %s has no spatial reference", l.Source)
	}
	ct, err := l.SR.NewTransform(sr)
	if err != nil {
		return nil, fmt.Errorf("vector: reprojecting %s: %v", l.Source, err)
	}
	o := l.emptyCopy()
	o.SR, o.WKT = sr, wkt
	for i, f := range l.Features {
		g, err := f.Geom.Transform(ct)
		if err != nil {
			return nil, fmt.Errorf("vector: reprojecting %s feature %d: %v", l.Source, i, err)
		}
		o.Features = append(o.Features, &Feature{Geom: g, Fields: copyFields(f.Fields)})
	}
	return o, nil
}

func (l *Layer) emptyCopy() *Layer {
	o := &Layer{Source: l.Source, SR: l.SR, WKT: l.WKT, SRErr: l.SRErr}
	o.Fields = append(o.Fields, l.Fields...)
	return o
}

func copyFields(f map[string]string) map[string]string {
	o := make(map[string]string, len(f))
	for k, v := range f {
		o[k] = v
	}
	return o
}

// indexed is a geometry stored in an rtree along with its position.
type indexed struct {
	geom.Geom
	i int
}

func index(l *Layer) *rtree.Rtree {
	t := rtree.NewTree(25, 50)
	for i, f := range l.Features {
		if f.Geom == nil {
			continue
		}
		t.Insert(indexed{Geom: f.Geom, i: i})
	}
	return t
}

// intersection returns the part of g inside poly, or nil if there is none.
func intersection(g geom.Geom, poly geom.Polygonal) geom.Geom {
	switch t := g.(type) {
	case geom.Polygonal:
		isect := t.Intersection(poly)
		if isect == nil || isect.Area() == 0 {
			return nil
		}
		return isect
	case geom.Linear:
		isect := t.Clip(poly)
		if isect == nil || isect.Length() == 0 {
			return nil
		}
		return isect
	}
	return nil
}

// Intersect returns the overlay of in and overlay: one feature for every
// overlapping pair, holding the shared part of the in geometry and the
// attributes of both. overlay must be polygonal. Attribute names of
// overlay that already exist in in get the suffix "_2".
func Intersect(in, overlay *Layer) (*Layer, error) {
	polys, err := overlay.Polygons()
	if err != nil {
		return nil, err
	}
	o := in.emptyCopy()
	rename := make(map[string]string)
	for _, f := range overlay.Fields {
		name := f
		if _, ok := in.Field(f); ok {
			name = f + "_2"
		}
		rename[f] = name
		o.Fields = append(o.Fields, name)
	}
	tree := index(overlay)
	for _, f := range in.Features {
		if f.Geom == nil {
			continue
		}
		for _, c := range tree.SearchIntersect(f.Geom.Bounds()) {
			j := c.(indexed).i
			isect := intersection(f.Geom, polys[j])
			if isect == nil {
				continue
			}
			fields := copyFields(f.Fields)
			for k, v := range overlay.Features[j].Fields {
				fields[rename[k]] = v
			}
			o.Features = append(o.Features, &Feature{Geom: isect, Fields: fields})
		}
	}
	return o, nil
}

// Clip returns the parts of the features of l inside any of mask.
// Attributes are kept.
func Clip(l *Layer, mask []geom.Polygonal) (*Layer, error) {
	m := &Layer{}
	for _, p := range mask {
		m.Features = append(m.Features, &Feature{Geom: p})
	}
	tree := index(m)
	o := l.emptyCopy()
	for _, f := range l.Features {
		if f.Geom == nil {
			continue
		}
		var parts []geom.Geom
		for _, c := range tree.SearchIntersect(f.Geom.Bounds()) {
			if isect := intersection(f.Geom, mask[c.(indexed).i]); isect != nil {
				parts = append(parts, isect)
			}
		}
		if len(parts) == 0 {
			continue
		}
		g, err := merge(parts)
		if err != nil {
			return nil, fmt.Errorf("vector: clipping %s: %v", l.Source, err)
		}
		o.Features = append(o.Features, &Feature{Geom: g, Fields: copyFields(f.Fields)})
	}
	return o, nil
}

// Dissolve returns one feature per distinct value of field, in order of
// first appearance, holding the merged geometries of the group and the
// single attribute field.
func Dissolve(l *Layer, field string) (*Layer, error) {
	name, ok := l.Field(field)
	if !ok {
		return nil, fmt.Errorf("vector: dissolve: %s has no field '%s'", l.Source, field)
	}
	var keys []string
	groups := make(map[string][]geom.Geom)
	for _, f := range l.Features {
		k := f.Fields[name]
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], f.Geom)
	}
	o := &Layer{Source: l.Source, SR: l.SR, WKT: l.WKT, Fields: []string{name}}
	for _, k := range keys {
		g, err := merge(groups[k])
		if err != nil {
			return nil, fmt.Errorf("vector: dissolving %s on %s=%s: %v", l.Source, name, k, err)
		}
		o.Features = append(o.Features, &Feature{Geom: g, Fields: map[string]string{name: k}})
	}
	return o, nil
}

// merge combines geometries of one kind. Polygons are unioned; lines
// are collected into a single multi-part line.
func merge(gs []geom.Geom) (geom.Geom, error) {
	switch gs[0].(type) {
	case geom.Polygonal:
		var u geom.Polygonal
		for _, g := range gs {
			p, ok := g.(geom.Polygonal)
			if !ok {
				return nil, fmt.Errorf("mixed geometry types %T and %T", gs[0], g)
			}
			if u == nil {
				u = p
				continue
			}
			u = u.Union(p)
		}
		return u, nil
	case geom.Linear:
		var ml geom.MultiLineString
		for _, g := range gs {
			switch t := g.(type) {
			case geom.LineString:
				ml = append(ml, t)
			case geom.MultiLineString:
				ml = append(ml, t...)
			default:
				return nil, fmt.Errorf("mixed geometry types %T and %T", gs[0], g)
			}
		}
		return ml, nil
	}
	return nil, fmt.Errorf("unsupported geometry type %T", gs[0])
}
