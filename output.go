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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tealeg/xlsx"
)

// TableName is the base name of the output table files.
const TableName = "import_zemokost"

// Header holds the column names of the output table.
var Header = []string{
	"TEZG Nr.", "K.O.", "K.U.", "Bezeichnung/Ergaenzung", "X", "Y",
	"Flaeche [km2]", "F-Laenge [m]", "F-Neigung [1]", "Nat. Ret.[%]", "Basisabfl. [m3/s]",
	"AKL-0", "AKL-1", "AKL-2", "AKL-3", "AKL-4", "AKL-5", "AKL-6",
	"RKL-1", "RKL-2", "RKL-3", "RKL-4", "RKL-5", "RKL-6",
	"ZAF 1 bis 7", "Anteil [%]", "G-Laenge [m]", "G-Neigung [1]", "d90 [m]",
}

// formatFloat formats v with the shortest representation that reads back
// as v, keeping one decimal for integral values.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func formatInt(v float64) string { return strconv.FormatInt(int64(math.Round(v)), 10) }

func formatValue(v Value) string {
	if !v.Set {
		return ""
	}
	return formatFloat(v.V)
}

func formatIntValue(v Value) string {
	if !v.Set {
		return ""
	}
	return formatInt(v.V)
}

// record returns the output row of c with '.' as the decimal separator.
func record(c *Catchment) []string {
	r := make([]string, 0, len(Header))
	r = append(r,
		strconv.Itoa(c.ID), c.UpperNode, c.LowerNode, c.Name,
		formatFloat(c.X), formatFloat(c.Y), formatFloat(c.AreaKm2()),
		formatIntValue(c.FlowLength), formatValue(c.Slope),
		"", "", // natural retention and base flow are entered in the model
	)
	for _, a := range c.AKL {
		r = append(r, formatInt(a))
	}
	for _, a := range c.RKL {
		r = append(r, formatInt(a))
	}
	return append(r,
		formatValue(c.ZAF), formatValue(c.ZAA),
		formatValue(c.ChannelLength), formatValue(c.ChannelSlope),
		"", // d90
	)
}

// nameColumn is the index of the only free text column.
const nameColumn = 3

// WriteCSV writes the rows of t sorted by descending identifier to w,
// separated by semicolons and with decimal commas.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("zemokost: writing table: %v", err)
	}
	for _, c := range t.Descending() {
		r := record(c)
		for i := range r {
			if i != nameColumn {
				r[i] = strings.Replace(r[i], ".", ",", -1)
			}
		}
		if err := cw.Write(r); err != nil {
			return fmt.Errorf("zemokost: writing table: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("zemokost: writing table: %v", err)
	}
	return nil
}

// WriteXLSX writes the rows of t sorted by descending identifier to a
// spreadsheet at path. Numeric columns hold numbers.
func WriteXLSX(path string, t *Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("ZEMOKOST")
	if err != nil {
		return fmt.Errorf("zemokost: creating spreadsheet: %v", err)
	}
	row := sheet.AddRow()
	for _, h := range Header {
		row.AddCell().SetString(h)
	}
	for _, c := range t.Descending() {
		row = sheet.AddRow()
		for i, v := range record(c) {
			cell := row.AddCell()
			if i == nameColumn || i == 1 || i == 2 || v == "" {
				cell.SetString(v)
				continue
			}
			if x, err := strconv.ParseFloat(v, 64); err == nil {
				cell.SetFloat(x)
			} else {
				cell.SetString(v)
			}
		}
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("zemokost: writing spreadsheet: %v", err)
	}
	return nil
}

// lonLat is the reference of GeoJSON output.
const lonLat = "+proj=longlat +datum=WGS84 +no_defs"

// WriteGeoJSON writes the catchments of t with their attributes to w as a
// GeoJSON feature collection in longitude and latitude. sr is the
// reference of the catchment geometries.
func WriteGeoJSON(w io.Writer, t *Table, sr *proj.SR) error {
	dst, err := proj.Parse(lonLat)
	if err != nil {
		return fmt.Errorf("zemokost: %v", err)
	}
	ct, err := sr.NewTransform(dst)
	if err != nil {
		return fmt.Errorf("zemokost: GeoJSON transform: %v", err)
	}
	fc := geojson.NewFeatureCollection()
	for _, c := range t.Descending() {
		g, err := c.Geom.Transform(ct)
		if err != nil {
			return fmt.Errorf("zemokost: transforming catchment %d: %v", c.ID, err)
		}
		og, err := toOrb(g)
		if err != nil {
			return fmt.Errorf("zemokost: catchment %d: %v", c.ID, err)
		}
		f := geojson.NewFeature(og)
		for i, v := range record(c) {
			if v != "" {
				f.Properties[Header[i]] = v
			}
		}
		fc.Append(f)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("zemokost: encoding GeoJSON: %v", err)
	}
	_, err = w.Write(b)
	return err
}

func toOrbPolygon(p geom.Polygon) orb.Polygon {
	o := make(orb.Polygon, len(p))
	for i, path := range p {
		ring := make(orb.Ring, len(path))
		for j, pt := range path {
			ring[j] = orb.Point{pt.X, pt.Y}
		}
		o[i] = ring
	}
	return o
}

func toOrb(g geom.Geom) (orb.Geometry, error) {
	switch t := g.(type) {
	case geom.Polygon:
		return toOrbPolygon(t), nil
	case geom.MultiPolygon:
		o := make(orb.MultiPolygon, len(t))
		for i, p := range t {
			o[i] = toOrbPolygon(p)
		}
		return o, nil
	}
	return nil, fmt.Errorf("unsupported geometry type %T", g)
}

// writeTable writes the output tables into the working directory.
func (s *state) writeTable() error {
	path := filepath.Join(s.tmp, TableName+".csv")
	if err := writeFile(path, func(w io.Writer) error { return WriteCSV(w, s.table) }); err != nil {
		return err
	}
	s.files = append(s.files, path)
	if s.cfg.XLSX {
		path := filepath.Join(s.tmp, TableName+".xlsx")
		if err := WriteXLSX(path, s.table); err != nil {
			return err
		}
		s.files = append(s.files, path)
	}
	if s.cfg.GeoJSON {
		path := filepath.Join(s.tmp, TableName+".geojson")
		err := writeFile(path, func(w io.Writer) error { return WriteGeoJSON(w, s.table, s.ref.SR) })
		if err != nil {
			return err
		}
		s.files = append(s.files, path)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("zemokost: %v", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("zemokost: %v", err)
	}
	return nil
}
