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

package zemokostutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/zemokost"
	"github.com/spatialmodel/zemokost/grid"
	"github.com/spatialmodel/zemokost/vector"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
)

// newLogger returns a text logger writing to w at the given level.
func newLogger(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("zemokost: log_level: %v", err)
	}
	log := logrus.New()
	log.Out = w
	log.Level = lvl
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:  true,
		DisableSorting: true,
	}
	return log, nil
}

// classTables returns the default class tables, overridden by the file
// at path if there is one.
func classTables(path string) (zemokost.ClassTables, error) {
	if path == "" {
		return zemokost.ClassTables{AKL: zemokost.DefaultAKLTable, RKL: zemokost.DefaultRKLTable}, nil
	}
	return zemokost.LoadClassTables(path)
}

// loader reads input files concurrently.
type loader struct {
	g   errgroup.Group
	cfg *viper.Viper
}

// path returns the value of the option key with environment variables
// expanded.
func (l *loader) path(key string) string { return os.ExpandEnv(l.cfg.GetString(key)) }

// grid starts loading the grid named by option key into dst. Nothing is
// loaded if the option is empty.
func (l *loader) grid(key string, dst **grid.Grid) {
	p := l.path(key)
	if p == "" {
		return
	}
	l.g.Go(func() error {
		g, err := grid.Load(p)
		if err != nil {
			return fmt.Errorf("zemokost: %s: %v", key, err)
		}
		*dst = g
		return nil
	})
}

// layer starts loading the shapefile named by option key into dst.
// Nothing is loaded if the option is empty.
func (l *loader) layer(key string, dst **vector.Layer) {
	p := l.path(key)
	if p == "" {
		return
	}
	l.g.Go(func() error {
		v, err := vector.Load(p)
		if err != nil {
			return fmt.Errorf("zemokost: %s: %v", key, err)
		}
		*dst = v
		return nil
	})
}

// choice returns the lower case value of option key, which must be one of
// valid.
func choice(cfg *viper.Viper, key string, valid ...string) (string, error) {
	v, err := cast.ToStringE(cfg.Get(key))
	if err != nil {
		return "", fmt.Errorf("zemokost: %s: %v", key, err)
	}
	v = strings.ToLower(strings.TrimSpace(v))
	for _, ok := range valid {
		if v == ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("zemokost: %s must be one of '%s' but is '%s'", key, strings.Join(valid, "', '"), v)
}

// loadConfig reads the inputs named in cfg. Missing inputs are left nil
// for the run to report together with any other configuration problem.
func loadConfig(cfg *viper.Viper) (*zemokost.Config, error) {
	landCover, err := choice(cfg, "LandCover", "vector", "raster")
	if err != nil {
		return nil, err
	}
	interflow, err := choice(cfg, "Interflow", "none", "vector", "raster")
	if err != nil {
		return nil, err
	}

	c := &zemokost.Config{
		Fields: zemokost.CatchmentFields{
			ID:        cfg.GetString("CatchmentID"),
			UpperNode: cfg.GetString("UpperNode"),
			LowerNode: cfg.GetString("LowerNode"),
			Name:      cfg.GetString("NameField"),
		},
		OutputDir: os.ExpandEnv(cfg.GetString("OutputDir")),
		KeepData:  cfg.GetBool("KeepData"),
		XLSX:      cfg.GetBool("XLSX"),
		GeoJSON:   cfg.GetBool("GeoJSON"),
	}
	l := &loader{cfg: cfg}
	l.grid("DEM", &c.DEM)
	l.layer("Catchments", &c.Catchments)
	l.layer("MainChannel", &c.MainChannel)
	l.layer("FineChannel", &c.FineChannel)

	switch landCover {
	case "vector":
		c.VectorClasses = &zemokost.VectorClasses{
			AKLField: cfg.GetString("AKLField"),
			RKLField: cfg.GetString("RKLField"),
		}
		l.layer("AKLLayer", &c.VectorClasses.AKL)
		l.layer("RKLLayer", &c.VectorClasses.RKL)
	case "raster":
		tables, err := classTables(l.path("ClassTable"))
		if err != nil {
			return nil, err
		}
		c.RasterClasses = &zemokost.RasterClasses{Tables: tables}
		l.grid("AKLRaster", &c.RasterClasses.AKL)
		l.grid("RKLRaster", &c.RasterClasses.RKL)
	}

	switch interflow {
	case "vector":
		c.VectorInterflow = &zemokost.VectorInterflow{
			ZAFField: cfg.GetString("ZAFField"),
			ZAAField: cfg.GetString("ZAAField"),
		}
		l.layer("InterflowLayer", &c.VectorInterflow.Layer)
	case "raster":
		c.RasterInterflow = new(zemokost.RasterInterflow)
		l.grid("InterflowRaster", &c.RasterInterflow.ZAF)
	}

	if err := l.g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}
