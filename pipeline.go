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
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/zemokost/grid"
	"github.com/spatialmodel/zemokost/internal/hash"
	"github.com/spatialmodel/zemokost/vector"
)

// Result is the outcome of a successful run.
type Result struct {
	// Table holds one row per catchment.
	Table *Table

	// Warnings are non-fatal problems found while processing.
	Warnings []string

	// Stages is the number of completed stages.
	Stages int

	// Manifest lists the intermediate products; Kept lists those that
	// were written to the output directory.
	Manifest, Kept *Manifest

	// Files are the output tables written to the output directory.
	Files []string
}

// stage is one step of a run.
type stage struct {
	name string
	run  func(s *state) error
}

// state is passed from stage to stage.
type state struct {
	cfg *Config
	geo Geoprocessor
	log logrus.FieldLogger

	ref *Reference
	ids []int // catchment identifiers in feature order
	tmp string

	stage    int
	table    *Table
	manifest *Manifest
	warnings []string

	tezg  *vector.Layer   // catchments in the working reference
	zones []geom.Polygonal // catchment polygons in table order

	dem, filled, flowacc, ridges *grid.Grid
	flowLength, ridgeFlowLength  *grid.Grid
	slope                        *grid.Grid

	main, fine *vector.Layer // channels in the working reference

	channel  *vector.Layer   // channel per catchment
	chLength map[int]float64 // unrounded channel length per catchment

	files []string
	kept  *Manifest
}

// warn records a non-fatal problem.
func (s *state) warn(fields logrus.Fields, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.log.WithFields(fields).Warn(msg)
	s.warnings = append(s.warnings, msg)
}

func (s *state) keepRaster(name string, g *grid.Grid) {
	s.manifest.addRaster(s.stage, name, g, true)
}

func (s *state) keepVector(name string, l *vector.Layer) {
	s.manifest.addVector(s.stage, name, l, true)
}

// stages returns the stages required by cfg in execution order.
func stages(cfg *Config) []stage {
	st := []stage{
		{"prepare catchments", (*state).prepareCatchments},
		{"clip DEM", (*state).clipDEM},
		{"fill depressions", (*state).fillDepressions},
		{"flow accumulation", (*state).flowAccumulation},
		{"ridges", (*state).findRidges},
		{"prepare channels", (*state).prepareChannels},
		{"flow length", (*state).flowLengths},
		{"ridge flow length", (*state).ridgeFlowLengths},
		{"slope", (*state).slopes},
		{"zonal statistics", (*state).terrainAttributes},
	}
	if cfg.VectorClasses != nil {
		st = append(st,
			stage{"discharge classes", (*state).vectorAKL},
			stage{"roughness classes", (*state).vectorRKL})
	} else {
		st = append(st,
			stage{"discharge classes", (*state).rasterAKL},
			stage{"roughness classes", (*state).rasterRKL})
	}
	st = append(st,
		stage{"channel length", (*state).channelLength},
		stage{"channel slope", (*state).channelSlope})
	switch {
	case cfg.VectorInterflow != nil:
		st = append(st, stage{"interflow", (*state).vectorInterflow})
	case cfg.RasterInterflow != nil:
		st = append(st, stage{"interflow", (*state).rasterInterflow})
	}
	return append(st,
		stage{"write table", (*state).writeTable},
		stage{"finalize", (*state).finalize})
}

// Run derives the attribute table of the catchments in cfg using geo and
// writes it to cfg.OutputDir. Configuration problems are reported as a
// *ConfigError before any processing starts. Stage failures and
// cancellation of ctx, which is checked before every stage, are reported
// as a *StageError. Nothing is written to the output directory unless
// every stage succeeds, and the temporary working directory is always
// removed.
func Run(ctx context.Context, cfg *Config, geo Geoprocessor, log logrus.FieldLogger) (*Result, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	cerr := new(ConfigError)
	ref, err := reconcile(cfg.DEM.WKT, cfg.layerRefs())
	cerr.merge(err)
	ids, err := catchmentIDs(cfg.Catchments, cfg.Fields.ID)
	cerr.merge(err)
	if err := cerr.errOrNil(); err != nil {
		return nil, err
	}
	log.WithField("reference", ref.String()).Info("zemokost: inputs checked")

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("zemokost: creating output directory: %v", err)
	}
	tmp, err := ioutil.TempDir(cfg.OutputDir, "zemokost-"+hash.Short(runKey(cfg), 12)+"-")
	if err != nil {
		return nil, fmt.Errorf("zemokost: creating working directory: %v", err)
	}
	defer os.RemoveAll(tmp)

	s := &state{
		cfg:      cfg,
		geo:      geo,
		log:      log,
		ref:      ref,
		ids:      ids,
		tmp:      tmp,
		table:    NewTable(),
		manifest: new(Manifest),
	}
	res := &Result{Table: s.table, Manifest: s.manifest}
	for i, st := range stages(cfg) {
		s.stage = i + 1
		select {
		case <-ctx.Done():
			return nil, &StageError{Stage: s.stage, Name: st.name, Err: ErrCanceled}
		default:
		}
		l := log.WithFields(logrus.Fields{"stage": s.stage, "name": st.name})
		l.Info("zemokost: starting")
		if err := st.run(s); err != nil {
			return nil, &StageError{Stage: s.stage, Name: st.name, Err: err}
		}
		l.Debug("zemokost: finished")
		res.Stages = s.stage
	}
	res.Warnings = s.warnings
	res.Files = s.files
	res.Kept = s.kept
	return res, nil
}

// runKey identifies the inputs of a run for naming its working directory.
func runKey(cfg *Config) interface{} {
	src := func(l *vector.Layer) string {
		if l == nil {
			return ""
		}
		return l.Source
	}
	return struct {
		DEM, Catchments, Main, Fine string
		Fields                      CatchmentFields
	}{cfg.DEM.Source, src(cfg.Catchments), src(cfg.MainChannel), src(cfg.FineChannel), cfg.Fields}
}

// finalize persists the kept intermediate products if requested and
// moves them and the output tables from the working directory into the
// output directory. If a move fails, everything moved before is removed
// again.
func (s *state) finalize() error {
	staged := append([]string(nil), s.files...)
	if s.cfg.KeepData {
		kept, err := s.manifest.Persist(s.tmp)
		if err != nil {
			return err
		}
		s.log.WithField("products", len(kept.Products)).Info("zemokost: kept intermediate data")
		s.kept = kept
		for _, name := range []string{"rasters", "shps", "manifest.toml"} {
			if _, err := os.Stat(filepath.Join(s.tmp, name)); err == nil {
				staged = append(staged, filepath.Join(s.tmp, name))
			}
		}
	}
	moved := make([]string, 0, len(staged))
	for _, f := range staged {
		dst := filepath.Join(s.cfg.OutputDir, filepath.Base(f))
		if err := move(f, dst); err != nil {
			for _, m := range moved {
				os.RemoveAll(m)
			}
			return fmt.Errorf("moving %s to the output directory: %v", filepath.Base(f), err)
		}
		moved = append(moved, dst)
	}
	s.files = moved[:len(s.files)]
	return nil
}

// move renames src to dst. A directory replaces an existing directory
// of the same name.
func move(src, dst string) error {
	if fi, err := os.Stat(src); err == nil && fi.IsDir() {
		if di, err := os.Stat(dst); err == nil && di.IsDir() {
			if err := os.RemoveAll(dst); err != nil {
				return err
			}
		}
	}
	return os.Rename(src, dst)
}
