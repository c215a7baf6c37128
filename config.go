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
	"github.com/spatialmodel/zemokost/grid"
	"github.com/spatialmodel/zemokost/vector"
)

// Layer roles, used in messages and to look up transforms.
const (
	roleDEM        = "DEM"
	roleCatchments = "catchment"
	roleMain       = "main channel"
	roleFine       = "fine channel"
	roleAKL        = "discharge coefficient"
	roleRKL        = "roughness coefficient"
	roleInterflow  = "interflow"
)

// CatchmentFields names the attributes of the catchment layer.
type CatchmentFields struct {
	// ID holds the catchment number and must be integral and unique.
	ID string

	// UpperNode and LowerNode hold the upstream and downstream node ids.
	UpperNode, LowerNode string

	// Name is optional.
	Name string
}

// VectorClasses holds land cover as polygons tagged with integer class
// codes: discharge classes 0 to 6 and roughness classes 1 to 6.
type VectorClasses struct {
	AKL, RKL           *vector.Layer
	AKLField, RKLField string
}

// RasterClasses holds land cover as continuous coefficient rasters that
// are mapped onto the class scales with Tables.
type RasterClasses struct {
	AKL, RKL *grid.Grid
	Tables   ClassTables
}

// VectorInterflow holds interflow polygons tagged with a factor and a
// share value.
type VectorInterflow struct {
	Layer              *vector.Layer
	ZAFField, ZAAField string
}

// RasterInterflow holds a categorical interflow factor raster.
type RasterInterflow struct {
	ZAF *grid.Grid
}

// Config holds the inputs of a run. Exactly one of VectorClasses and
// RasterClasses must be set; at most one of VectorInterflow and
// RasterInterflow may be set.
type Config struct {
	DEM        *grid.Grid
	Catchments *vector.Layer
	Fields     CatchmentFields

	MainChannel *vector.Layer
	FineChannel *vector.Layer // optional

	VectorClasses *VectorClasses
	RasterClasses *RasterClasses

	VectorInterflow *VectorInterflow
	RasterInterflow *RasterInterflow

	// OutputDir receives the table and, if KeepData is true, the
	// intermediate products.
	OutputDir string
	KeepData  bool

	// XLSX and GeoJSON request additional copies of the table.
	XLSX, GeoJSON bool
}

// Check returns a *ConfigError listing every problem with c, or nil.
func (c *Config) Check() error {
	cerr := new(ConfigError)
	if c.DEM == nil {
		cerr.add("no DEM")
	}
	if c.Catchments == nil {
		cerr.add("no catchment layer")
	} else {
		required := []struct{ what, name string }{
			{"identifier", c.Fields.ID},
			{"upstream node", c.Fields.UpperNode},
			{"downstream node", c.Fields.LowerNode},
		}
		for _, f := range required {
			checkField(cerr, c.Catchments, f.what, f.name, true)
		}
		checkField(cerr, c.Catchments, "name", c.Fields.Name, false)
	}
	if c.MainChannel == nil {
		cerr.add("no main channel layer")
	}

	switch {
	case c.VectorClasses != nil && c.RasterClasses != nil:
		cerr.add("land cover must be given either as vector or as raster layers, not both")
	case c.VectorClasses != nil:
		v := c.VectorClasses
		if v.AKL == nil {
			cerr.add("no discharge coefficient layer")
		} else {
			checkField(cerr, v.AKL, "discharge class", v.AKLField, true)
		}
		if v.RKL == nil {
			cerr.add("no roughness coefficient layer")
		} else {
			checkField(cerr, v.RKL, "roughness class", v.RKLField, true)
		}
	case c.RasterClasses != nil:
		r := c.RasterClasses
		if r.AKL == nil {
			cerr.add("no discharge coefficient raster")
		}
		if r.RKL == nil {
			cerr.add("no roughness coefficient raster")
		}
		if err := r.Tables.AKL.Validate(); err != nil {
			cerr.add("discharge class table: %v", err)
		}
		if err := r.Tables.RKL.Validate(); err != nil {
			cerr.add("roughness class table: %v", err)
		}
	default:
		cerr.add("no land cover layers")
	}

	switch {
	case c.VectorInterflow != nil && c.RasterInterflow != nil:
		cerr.add("interflow must be given either as a vector or as a raster layer, not both")
	case c.VectorInterflow != nil:
		v := c.VectorInterflow
		if v.Layer == nil {
			cerr.add("no interflow layer")
		} else {
			checkField(cerr, v.Layer, "interflow factor", v.ZAFField, true)
			checkField(cerr, v.Layer, "interflow share", v.ZAAField, true)
		}
	case c.RasterInterflow != nil:
		if c.RasterInterflow.ZAF == nil {
			cerr.add("no interflow raster")
		}
	}

	if c.OutputDir == "" {
		cerr.add("no output directory")
	}
	return cerr.errOrNil()
}

// checkField records a problem if field is required but not given, or
// given but not an attribute of l.
func checkField(cerr *ConfigError, l *vector.Layer, what, field string, required bool) {
	if field == "" {
		if required {
			cerr.add("%s field of %s is required", what, l.Source)
		}
		return
	}
	if _, ok := l.Field(field); !ok {
		cerr.add("%s field '%s' does not exist in %s", what, field, l.Source)
	}
}

// layerRefs returns the references of every input layer, the DEM first.
func (c *Config) layerRefs() []layerRef {
	refs := []layerRef{
		{role: roleDEM, source: c.DEM.Source, sr: c.DEM.SR, srErr: c.DEM.SRErr, metric: true},
		vectorRef(roleCatchments, c.Catchments, false),
		vectorRef(roleMain, c.MainChannel, false),
	}
	if c.FineChannel != nil {
		refs = append(refs, vectorRef(roleFine, c.FineChannel, false))
	}
	if v := c.VectorClasses; v != nil {
		refs = append(refs, vectorRef(roleAKL, v.AKL, true), vectorRef(roleRKL, v.RKL, true))
	}
	if r := c.RasterClasses; r != nil {
		refs = append(refs, rasterRef(roleAKL, r.AKL), rasterRef(roleRKL, r.RKL))
	}
	if v := c.VectorInterflow; v != nil {
		refs = append(refs, vectorRef(roleInterflow, v.Layer, true))
	}
	if r := c.RasterInterflow; r != nil {
		refs = append(refs, rasterRef(roleInterflow, r.ZAF))
	}
	return refs
}

func vectorRef(role string, l *vector.Layer, metric bool) layerRef {
	return layerRef{role: role, source: l.Source, sr: l.SR, srErr: l.SRErr, metric: metric}
}

func rasterRef(role string, g *grid.Grid) layerRef {
	return layerRef{role: role, source: g.Source, sr: g.SR, srErr: g.SRErr, metric: true}
}
