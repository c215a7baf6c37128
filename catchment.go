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

	"github.com/ctessum/geom"
)

// Value is a derived attribute that may be unset when it cannot be
// computed, for example when a zone holds no valid cells.
type Value struct {
	V   float64
	Set bool
}

// NewValue returns a set Value.
func NewValue(v float64) Value { return Value{V: v, Set: true} }

// Number of land cover classes.
const (
	NumAKL = 7 // discharge coefficient classes 0 to 6
	NumRKL = 6 // roughness classes 1 to 6
)

// Catchment is a sub-catchment and its derived attributes.
type Catchment struct {
	ID                   int
	UpperNode, LowerNode string
	Name                 string

	// X and Y are the centroid coordinates.
	X, Y float64

	Geom geom.Polygonal

	Area       float64 // m²
	FlowLength Value   // mean overland flow length from ridges [m]
	Slope      Value   // mean slope [1]

	// AKL holds the area [m²] of discharge coefficient classes 0 to 6
	// and RKL the area of roughness classes 1 to 6.
	AKL [NumAKL]float64
	RKL [NumRKL]float64

	ZAF Value // weighted interflow factor
	ZAA Value // weighted interflow share [%]

	ChannelLength Value // [m]
	ChannelSlope  Value // [1]
}

// AreaKm2 returns the catchment area in km² rounded to 4 decimals.
func (c *Catchment) AreaKm2() float64 { return round(c.Area/1.e6, 4) }

// Table holds catchments keyed by identifier, in the order they were added.
type Table struct {
	ids  []int
	rows map[int]*Catchment
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{rows: make(map[int]*Catchment)}
}

// Add adds c to the table. Identifiers must be unique.
func (t *Table) Add(c *Catchment) error {
	if _, ok := t.rows[c.ID]; ok {
		return fmt.Errorf("zemokost: duplicate catchment identifier %d", c.ID)
	}
	t.ids = append(t.ids, c.ID)
	t.rows[c.ID] = c
	return nil
}

// Get returns the catchment with identifier id.
func (t *Table) Get(id int) (*Catchment, bool) {
	c, ok := t.rows[id]
	return c, ok
}

// Len returns the number of catchments.
func (t *Table) Len() int { return len(t.ids) }

// Catchments returns the catchments in the order they were added.
func (t *Table) Catchments() []*Catchment {
	o := make([]*Catchment, len(t.ids))
	for i, id := range t.ids {
		o[i] = t.rows[id]
	}
	return o
}

// Descending returns the catchments sorted by descending identifier.
func (t *Table) Descending() []*Catchment {
	o := t.Catchments()
	sort.Slice(o, func(i, j int) bool { return o[i].ID > o[j].ID })
	return o
}

// Polygons returns the catchment geometries in the order they were added.
func (t *Table) Polygons() []geom.Polygonal {
	o := make([]geom.Polygonal, len(t.ids))
	for i, id := range t.ids {
		o[i] = t.rows[id].Geom
	}
	return o
}

// round rounds v to the given number of decimal places, with ties going
// to the even neighbour.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
