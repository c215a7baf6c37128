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

package hash

import (
	"math"
	"testing"
)

type runKey struct {
	DEM, Catchments string
	Fields          []string
	Increment       float64
}

func TestHash(t *testing.T) {
	a := runKey{DEM: "dgm.asc", Catchments: "tezg.shp", Fields: []string{"ID", "KO", "KU"}, Increment: 1.e-4}
	b := a
	b.Fields = []string{"ID", "KO", "KU"}
	if Hash(a) != Hash(b) {
		t.Errorf("equal objects hash differently: %s != %s", Hash(a), Hash(b))
	}
	b.DEM = "dgm5.asc"
	if Hash(a) == Hash(b) {
		t.Error("different objects hash the same")
	}
	if len(Hash(a)) != 32 {
		t.Errorf("key length %d != 32", len(Hash(a)))
	}

	n := runKey{Increment: math.NaN()}
	if Hash(n) == "" || Hash(n) != Hash(n) {
		t.Error("NaN objects must hash stably")
	}
	f := struct{ F func() }{F: func() {}}
	if Hash(f) == "" || Hash(f) != Hash(f) {
		t.Error("objects gob cannot encode must hash stably")
	}
	if s := Short(a, 8); len(s) != 8 || s != Hash(a)[:8] {
		t.Errorf("short key %q", s)
	}
}
