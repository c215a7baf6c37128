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
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/zemokost/grid"
	"github.com/spatialmodel/zemokost/vector"
)

// Product is an intermediate raster or vector product of a run.
type Product struct {
	Stage int    `toml:"stage"`
	Name  string `toml:"name"`

	// Keep marks products that are persisted when intermediate data
	// is requested.
	Keep bool `toml:"-"`

	// Path is where the product was persisted, relative to the output
	// directory.
	Path string `toml:"path"`

	Raster *grid.Grid    `toml:"-"`
	Vector *vector.Layer `toml:"-"`
}

// Manifest lists the intermediate products of a run in the order they
// were created.
type Manifest struct {
	Products []*Product `toml:"product"`
}

func (m *Manifest) addRaster(stage int, name string, g *grid.Grid, keep bool) {
	m.Products = append(m.Products, &Product{Stage: stage, Name: name, Keep: keep, Raster: g})
}

func (m *Manifest) addVector(stage int, name string, l *vector.Layer, keep bool) {
	m.Products = append(m.Products, &Product{Stage: stage, Name: name, Keep: keep, Vector: l})
}

// Get returns the product called name.
func (m *Manifest) Get(name string) (*Product, bool) {
	for _, p := range m.Products {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Persist writes every kept product to dir: rasters to dir/rasters,
// vectors to dir/shps and a listing to dir/manifest.toml. Empty vector
// products are skipped. It returns the manifest of the written products.
func (m *Manifest) Persist(dir string) (*Manifest, error) {
	written := new(Manifest)
	for _, p := range m.Products {
		if !p.Keep {
			continue
		}
		var err error
		switch {
		case p.Raster != nil:
			p.Path = filepath.Join("rasters", p.Name+".asc")
			err = saveProduct(dir, p.Path, p.Raster.Save)
		case p.Vector != nil && len(p.Vector.Features) > 0:
			p.Path = filepath.Join("shps", p.Name+".shp")
			err = saveProduct(dir, p.Path, p.Vector.Save)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("zemokost: saving %s: %v", p.Name, err)
		}
		written.Products = append(written.Products, p)
	}
	f, err := os.Create(filepath.Join(dir, "manifest.toml"))
	if err != nil {
		return nil, fmt.Errorf("zemokost: writing manifest: %v", err)
	}
	if err := toml.NewEncoder(f).Encode(written); err != nil {
		f.Close()
		return nil, fmt.Errorf("zemokost: writing manifest: %v", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("zemokost: writing manifest: %v", err)
	}
	return written, nil
}

func saveProduct(dir, rel string, save func(string) error) error {
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return save(path)
}
