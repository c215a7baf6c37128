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

	"github.com/ctessum/geom/proj"
)

// layerRef describes the spatial reference of one input layer.
type layerRef struct {
	role, source string
	sr           *proj.SR
	srErr        error

	// metric layers must use meters as map units.
	metric bool
}

// Reference is the working spatial reference of a run, which is the
// reference of the DEM, along with the transforms from it into every
// input layer that uses a different reference.
type Reference struct {
	SR  *proj.SR
	WKT string

	toLayer map[string]proj.Transformer
}

// Transform returns the transform from the working reference into the
// reference of the layer with the given role, or nil if they are the same.
func (r *Reference) Transform(role string) proj.Transformer { return r.toLayer[role] }

// Differs returns whether the layer with the given role must be
// reprojected before it can interact with the working reference.
func (r *Reference) Differs(role string) bool { return r.toLayer[role] != nil }

// isMetric returns whether sr is projected with meters as map units.
func isMetric(sr *proj.SR) bool {
	return sr.Name != "longlat" && math.Abs(sr.ToMeter-1) < 1.e-9
}

// reconcile checks the references of layers, the first of which is the
// DEM, and returns the working reference. Every layer without a readable
// reference and every metric layer with other units is reported.
func reconcile(wkt string, layers []layerRef) (*Reference, error) {
	cerr := new(ConfigError)
	for _, l := range layers {
		if l.sr == nil {
			reason := "missing"
			if l.srErr != nil {
				reason = l.srErr.Error()
			}
			cerr.add("%s layer %s has no readable coordinate reference (%s)", l.role, l.source, reason)
			continue
		}
		if l.metric && !isMetric(l.sr) {
			units := l.sr.Units
			if units == "" {
				units = l.sr.Name
			}
			cerr.add("%s layer %s must use meters as map units but uses %s", l.role, l.source, units)
		}
	}
	if err := cerr.errOrNil(); err != nil {
		return nil, err
	}
	ref := &Reference{SR: layers[0].sr, WKT: wkt, toLayer: make(map[string]proj.Transformer)}
	for _, l := range layers[1:] {
		if ref.SR.Equal(l.sr, 3) {
			continue
		}
		ct, err := ref.SR.NewTransform(l.sr)
		if err != nil {
			cerr.add("%s layer %s: cannot transform from the DEM reference: %v", l.role, l.source, err)
			continue
		}
		ref.toLayer[l.role] = ct
	}
	if err := cerr.errOrNil(); err != nil {
		return nil, err
	}
	return ref, nil
}

// String describes the working reference.
func (r *Reference) String() string {
	name := r.SR.SRSCode
	if name == "" {
		name = r.SR.Name
	}
	return fmt.Sprintf("%s (%d layers reprojected)", name, len(r.toLayer))
}
