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
	"errors"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/zemokost/geoproc"
	"github.com/spatialmodel/zemokost/grid"
	"github.com/spatialmodel/zemokost/vector"
)

const (
	utm33 = "+proj=utm +zone=33 +ellps=WGS84 +datum=WGS84 +units=m +no_defs"
	merc  = "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs"
	wgs84 = "+proj=longlat +datum=WGS84 +no_defs"
)

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func mustParse(t *testing.T, code string) *proj.SR {
	sr, err := proj.Parse(code)
	if err != nil {
		t.Fatal(err)
	}
	return sr
}

func layer(t *testing.T, source string, fields []string, features ...*vector.Feature) *vector.Layer {
	return &vector.Layer{Source: source, SR: mustParse(t, utm33), WKT: utm33, Fields: fields, Features: features}
}

func feature(g geom.Geom, kv ...string) *vector.Feature {
	f := &vector.Feature{Geom: g, Fields: make(map[string]string)}
	for i := 0; i < len(kv); i += 2 {
		f.Fields[kv[i]] = kv[i+1]
	}
	return f
}

// scenario returns a run with three catchments on a plane sloping 10%
// towards the north east:
//   - 1: a 1 km² square crossed by a 1000 m channel that drops 49.5 m
//     between the first and last channel cells, with uniform discharge
//     class 3, roughness class 2 and interflow on its western half.
//   - 2: a 1 km² square to the east with a 4 cm channel.
//   - 3: a 25 m² sliver.
func scenario(t *testing.T) *Config {
	dem := grid.New(220, 120, -100, -100, 10, -9999)
	for r := 0; r < dem.Ny; r++ {
		for c := 0; c < dem.Nx; c++ {
			p := dem.Center(r, c)
			dem.Set(r, c, 300-0.05*p.X-math.Sqrt(0.0075)*p.Y)
		}
	}
	dem.SR, dem.WKT, dem.Source = mustParse(t, utm33), utm33, "dgm.asc"

	dir, err := ioutil.TempDir("", "zemokost")
	if err != nil {
		t.Fatal(err)
	}
	return &Config{
		DEM: dem,
		Catchments: layer(t, "tezg.shp", []string{"ID", "KO", "KU", "NAME"},
			feature(square(0, 0, 1000, 1000), "ID", "1", "KO", "1.1", "KU", "2", "NAME", "Oberlauf"),
			feature(square(1000, 0, 2000, 1000), "ID", "2.0", "KO", "2", "KU", "3", "NAME", "Unterlauf"),
			feature(square(2000, 0, 2005, 5), "ID", "3", "KO", "3", "KU", "4"),
		),
		Fields: CatchmentFields{ID: "id", UpperNode: "KO", LowerNode: "KU", Name: "NAME"},
		MainChannel: layer(t, "gerinne.shp", []string{"NAME"},
			feature(geom.LineString{{X: -10, Y: 505}, {X: 1000, Y: 505}}, "NAME", "Bach"),
			feature(geom.LineString{{X: 1500, Y: 505}, {X: 1500.04, Y: 505}}, "NAME", "Rinne"),
		),
		VectorClasses: &VectorClasses{
			AKL: layer(t, "akl.shp", []string{"AKL"},
				feature(square(-50, -50, 1050, 1050), "AKL", "3"),
				feature(square(1500, 500, 1600, 600), "AKL", "9"),
			),
			AKLField: "AKL",
			RKL: layer(t, "rkl.shp", []string{"RKL"},
				feature(square(-50, -50, 1050, 1050), "RKL", "2"),
			),
			RKLField: "RKL",
		},
		VectorInterflow: &VectorInterflow{
			Layer: layer(t, "za.shp", []string{"ZAF", "ZAA"},
				feature(square(0, 0, 500, 1000), "ZAF", "2", "ZAA", "0.5"),
			),
			ZAFField: "ZAF",
			ZAAField: "ZAA",
		},
		OutputDir: filepath.Join(dir, "out"),
	}
}

func different(a, b, tolerance float64) bool {
	return math.Abs(a-b) > tolerance
}

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

func TestRun(t *testing.T) {
	cfg := scenario(t)
	defer os.RemoveAll(filepath.Dir(cfg.OutputDir))
	cfg.KeepData, cfg.XLSX, cfg.GeoJSON = true, true, true

	res, err := Run(context.Background(), cfg, geoproc.New(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if res.Table.Len() != 3 {
		t.Fatalf("have %d catchments, want 3", res.Table.Len())
	}
	c1, _ := res.Table.Get(1)

	t.Run("round trip", func(t *testing.T) {
		if a := c1.AreaKm2(); a != 1 {
			t.Errorf("area %g != 1 km²", a)
		}
		if different(c1.X, 500, 1.e-9) || different(c1.Y, 500, 1.e-9) {
			t.Errorf("centroid %g, %g", c1.X, c1.Y)
		}
		if !c1.Slope.Set || different(c1.Slope.V, 0.1, 1.e-9) {
			t.Errorf("slope %+v != 0.1", c1.Slope)
		}
		if !c1.ChannelLength.Set || different(c1.ChannelLength.V, 1000, 1.e-9) {
			t.Errorf("channel length %+v != 1000", c1.ChannelLength)
		}
		if !c1.ChannelSlope.Set || different(c1.ChannelSlope.V, 0.05, 1.5e-3) {
			t.Errorf("channel slope %+v != 0.05", c1.ChannelSlope)
		}
		wantAKL := [NumAKL]float64{3: 1.e6}
		if c1.AKL != wantAKL {
			t.Errorf("AKL: %s", pretty.Diff(c1.AKL, wantAKL))
		}
		wantRKL := [NumRKL]float64{1: 1.e6}
		if c1.RKL != wantRKL {
			t.Errorf("RKL: %s", pretty.Diff(c1.RKL, wantRKL))
		}
		// The terrain drains north east, so the ridge cells are the two
		// southern rows and the two western columns. Those below the
		// channel at y=505 lie 50-j diagonal steps from it: 201 cells
		// and 7450 steps in total.
		wantFlow := NewValue(math.Round(7450 * 10 * math.Sqrt2 / 201))
		if c1.FlowLength != wantFlow {
			t.Errorf("flow length %+v != %+v", c1.FlowLength, wantFlow)
		}
	})
	t.Run("interflow", func(t *testing.T) {
		if c1.ZAF != NewValue(2) {
			t.Errorf("ZAF %+v != 2", c1.ZAF)
		}
		if c1.ZAA != NewValue(50) {
			t.Errorf("ZAA %+v != 50", c1.ZAA)
		}
		c2, _ := res.Table.Get(2)
		if c2.ZAF.Set || c2.ZAA.Set {
			t.Errorf("catchment without interflow: ZAF %+v, ZAA %+v", c2.ZAF, c2.ZAA)
		}
	})
	t.Run("zero length channel", func(t *testing.T) {
		c2, _ := res.Table.Get(2)
		if c2.ChannelLength != NewValue(0) {
			t.Errorf("channel length %+v != 0", c2.ChannelLength)
		}
		if c2.ChannelSlope.Set {
			t.Errorf("channel slope %+v should be unset", c2.ChannelSlope)
		}
		if c2.AKL[3] != 50000 {
			t.Errorf("AKL-3 %g != 50000", c2.AKL[3])
		}
	})
	t.Run("small catchment", func(t *testing.T) {
		c3, _ := res.Table.Get(3)
		if c3.Slope.Set || c3.ChannelLength.Set {
			t.Errorf("slope %+v, channel length %+v should be unset", c3.Slope, c3.ChannelLength)
		}
		var small, skipped bool
		for _, w := range res.Warnings {
			small = small || strings.Contains(w, "catchment 3 has an area of 25.00 m²")
			skipped = skipped || strings.Contains(w, "'9'")
		}
		if !small || !skipped {
			t.Errorf("warnings: %v", res.Warnings)
		}
	})
	t.Run("output", func(t *testing.T) {
		entries, err := ioutil.ReadDir(cfg.OutputDir)
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		want := []string{"import_zemokost.csv", "import_zemokost.geojson", "import_zemokost.xlsx",
			"manifest.toml", "rasters", "shps"}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("output directory: %s", pretty.Diff(names, want))
		}
		for _, p := range []string{"rasters/dgm10m.asc", "rasters/dgm10m_filled.asc", "rasters/flowacc_Ridges.asc",
			"rasters/ZAA_recl.asc", "shps/TEZG_Gerinne_dissolved.shp"} {
			if _, err := os.Stat(filepath.Join(cfg.OutputDir, p)); err != nil {
				t.Error(err)
			}
		}
		b, err := ioutil.ReadFile(filepath.Join(cfg.OutputDir, "import_zemokost.csv"))
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(b)), "\n")
		if len(lines) != 4 {
			t.Fatalf("have %d lines, want 4", len(lines))
		}
		for i, prefix := range []string{"TEZG Nr.;", "3;3;4;;", "2;2;3;Unterlauf;", "1;1,1;2;Oberlauf;"} {
			if !strings.HasPrefix(lines[i], prefix) {
				t.Errorf("line %d: %q does not start with %q", i, lines[i], prefix)
			}
		}
		if res.Stages != len(stages(cfg)) {
			t.Errorf("completed %d of %d stages", res.Stages, len(stages(cfg)))
		}
		if res.Kept == nil || len(res.Kept.Products) == 0 {
			t.Error("no kept products")
		}
	})
}

// TestReferenceMismatch checks that inputs in another reference give the
// same areas and lengths as inputs in the DEM reference.
func TestReferenceMismatch(t *testing.T) {
	same := scenario(t)
	defer os.RemoveAll(filepath.Dir(same.OutputDir))
	other := scenario(t)
	defer os.RemoveAll(filepath.Dir(other.OutputDir))

	sr := mustParse(t, merc)
	reproject := func(l *vector.Layer) *vector.Layer {
		o, err := vector.Reproject(l, sr, merc)
		if err != nil {
			t.Fatal(err)
		}
		return o
	}
	other.Catchments = reproject(other.Catchments)
	other.MainChannel = reproject(other.MainChannel)
	other.VectorClasses.AKL = reproject(other.VectorClasses.AKL)
	other.VectorClasses.RKL = reproject(other.VectorClasses.RKL)
	other.VectorInterflow.Layer = reproject(other.VectorInterflow.Layer)

	r1, err := Run(context.Background(), same, geoproc.New(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Run(context.Background(), other, geoproc.New(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range r1.Table.Catchments() {
		b, ok := r2.Table.Get(a.ID)
		if !ok {
			t.Fatalf("catchment %d missing", a.ID)
		}
		if different(a.AreaKm2(), b.AreaKm2(), 1.e-4) {
			t.Errorf("catchment %d: area %g != %g", a.ID, a.AreaKm2(), b.AreaKm2())
		}
		if different(a.X, b.X, 1.e-3) || different(a.Y, b.Y, 1.e-3) {
			t.Errorf("catchment %d: centroid %g,%g != %g,%g", a.ID, a.X, a.Y, b.X, b.Y)
		}
		if a.ChannelLength.Set != b.ChannelLength.Set || different(a.ChannelLength.V, b.ChannelLength.V, 0.1) {
			t.Errorf("catchment %d: channel length %+v != %+v", a.ID, a.ChannelLength, b.ChannelLength)
		}
		for k := range a.AKL {
			if different(a.AKL[k], b.AKL[k], 1) {
				t.Errorf("catchment %d: AKL-%d %g != %g", a.ID, k, a.AKL[k], b.AKL[k])
			}
		}
		for k := range a.RKL {
			if different(a.RKL[k], b.RKL[k], 1) {
				t.Errorf("catchment %d: RKL-%d %g != %g", a.ID, k+1, a.RKL[k], b.RKL[k])
			}
		}
		if a.ZAF != b.ZAF || a.ZAA != b.ZAA {
			t.Errorf("catchment %d: interflow %+v %+v != %+v %+v", a.ID, a.ZAF, a.ZAA, b.ZAF, b.ZAA)
		}
	}
}

func TestRunConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Config)
		problems int
	}{
		{
			name: "identifiers",
			modify: func(c *Config) {
				c.Catchments.Features[1].Fields["ID"] = "1"
				c.Catchments.Features[2].Fields["ID"] = "3.5"
			},
			problems: 2,
		},
		{
			name: "companion fields",
			modify: func(c *Config) {
				c.VectorInterflow.ZAAField = ""
				c.VectorClasses.RKLField = "KLASSE"
			},
			problems: 2,
		},
		{
			name: "references",
			modify: func(c *Config) {
				c.MainChannel.SR, c.MainChannel.SRErr = nil, errors.New("no .prj file")
				sr := mustParse(t, wgs84)
				c.VectorClasses.AKL.SR = sr
				c.VectorInterflow.Layer.SR = sr
			},
			problems: 3,
		},
		{
			name: "variants",
			modify: func(c *Config) {
				c.RasterClasses = &RasterClasses{Tables: ClassTables{AKL: DefaultAKLTable, RKL: DefaultRKLTable}}
				c.RasterInterflow = &RasterInterflow{}
			},
			problems: 2,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := scenario(t)
			defer os.RemoveAll(filepath.Dir(cfg.OutputDir))
			test.modify(cfg)
			_, err := Run(context.Background(), cfg, geoproc.New(), testLogger())
			cerr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("have error %v, want a *ConfigError", err)
			}
			if len(cerr.Problems) != test.problems {
				t.Errorf("have %d problems, want %d: %s", len(cerr.Problems), test.problems, cerr)
			}
			if _, err := os.Stat(cfg.OutputDir); !os.IsNotExist(err) {
				t.Error("output directory should not be created")
			}
		})
	}
}

// failingEngine fails to fill depressions.
type failingEngine struct{ geoproc.Engine }

var errDiskFull = errors.New("disk full")

func (failingEngine) FillDepressions(*grid.Grid) (*grid.Grid, error) { return nil, errDiskFull }

func TestRunStageErrors(t *testing.T) {
	check := func(t *testing.T, cfg *Config, err error, stage int, name string, cause error) {
		serr, ok := err.(*StageError)
		if !ok {
			t.Fatalf("have error %v, want a *StageError", err)
		}
		if serr.Stage != stage || serr.Name != name {
			t.Errorf("stage %d (%s), want %d (%s)", serr.Stage, serr.Name, stage, name)
		}
		if !errors.Is(err, cause) {
			t.Errorf("error %v does not wrap %v", err, cause)
		}
		entries, err := ioutil.ReadDir(cfg.OutputDir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("output directory should be empty but holds %d entries", len(entries))
		}
	}
	t.Run("geoprocessing", func(t *testing.T) {
		cfg := scenario(t)
		defer os.RemoveAll(filepath.Dir(cfg.OutputDir))
		_, err := Run(context.Background(), cfg, failingEngine{geoproc.New()}, testLogger())
		check(t, cfg, err, 3, "fill depressions", errDiskFull)
	})
	t.Run("canceled", func(t *testing.T) {
		cfg := scenario(t)
		defer os.RemoveAll(filepath.Dir(cfg.OutputDir))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, cfg, geoproc.New(), testLogger())
		check(t, cfg, err, 1, "prepare catchments", ErrCanceled)
	})
}

// uniform returns a grid of value covering x0,y0 to x1,y1 in the
// reference code.
func uniform(t *testing.T, code, source string, x0, y0, x1, y1, dx, value float64) *grid.Grid {
	nx, ny := int(math.Ceil((x1-x0)/dx)), int(math.Ceil((y1-y0)/dx))
	g := grid.New(nx, ny, x0, y0, dx, -9999)
	for i := range g.Data {
		g.Data[i] = value
	}
	g.SR, g.WKT, g.Source = mustParse(t, code), code, source
	return g
}

func TestRunRasterVariants(t *testing.T) {
	cfg := scenario(t)
	defer os.RemoveAll(filepath.Dir(cfg.OutputDir))

	// The discharge coefficient raster is in another reference and
	// covers the DEM with a margin.
	ct, err := mustParse(t, utm33).NewTransform(mustParse(t, merc))
	if err != nil {
		t.Fatal(err)
	}
	b := geom.NewBounds()
	for _, p := range []geom.Point{{X: -200, Y: -200}, {X: 2200, Y: -200}, {X: -200, Y: 1200}, {X: 2200, Y: 1200}} {
		x, y, err := ct(p.X, p.Y)
		if err != nil {
			t.Fatal(err)
		}
		b.Extend(geom.Point{X: x, Y: y}.Bounds())
	}
	akl := uniform(t, merc, "abfluss.asc", b.Min.X-500, b.Min.Y-500, b.Max.X+500, b.Max.Y+500, 50, 0.35)
	rkl := uniform(t, utm33, "rauigkeit.asc", -200, -200, 2200, 1200, 50, 2.5)

	// Interflow factor 2 on the western half of catchment 1, 7 on the
	// next quarter and 0 on the rest. Catchments 2 and 3 are not covered.
	zaf := uniform(t, utm33, "zaf.asc", -100, -100, 1000, 1100, 10, 0)
	for r := 0; r < zaf.Ny; r++ {
		for c := 0; c < zaf.Nx; c++ {
			switch x := zaf.Center(r, c).X; {
			case x < 500:
				zaf.Set(r, c, 2)
			case x < 750:
				zaf.Set(r, c, 7)
			}
		}
	}

	cfg.VectorClasses, cfg.VectorInterflow = nil, nil
	cfg.RasterClasses = &RasterClasses{
		AKL:    akl,
		RKL:    rkl,
		Tables: ClassTables{AKL: DefaultAKLTable, RKL: DefaultRKLTable},
	}
	cfg.RasterInterflow = &RasterInterflow{ZAF: zaf}

	res, err := Run(context.Background(), cfg, geoproc.New(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	c1, ok := res.Table.Get(1)
	if !ok {
		t.Fatal("catchment 1 missing")
	}
	t.Run("classes", func(t *testing.T) {
		// 0.35 lies between the control points 0.3 and 0.4, at class 2.75.
		wantAKL := [NumAKL]float64{2: 250000, 3: 750000}
		if c1.AKL != wantAKL {
			t.Errorf("AKL: %s", pretty.Diff(c1.AKL, wantAKL))
		}
		wantRKL := [NumRKL]float64{1: 500000, 2: 500000}
		if c1.RKL != wantRKL {
			t.Errorf("RKL: %s", pretty.Diff(c1.RKL, wantRKL))
		}
		c2, _ := res.Table.Get(2)
		if c2.AKL != wantAKL {
			t.Errorf("catchment 2 AKL: %s", pretty.Diff(c2.AKL, wantAKL))
		}
	})
	t.Run("interflow", func(t *testing.T) {
		if c1.ZAF != NewValue(2) {
			t.Errorf("ZAF %+v != 2", c1.ZAF)
		}
		if c1.ZAA != NewValue(50) {
			t.Errorf("ZAA %+v != 50", c1.ZAA)
		}
		for _, id := range []int{2, 3} {
			c, _ := res.Table.Get(id)
			if c.ZAF.Set || c.ZAA.Set {
				t.Errorf("catchment %d outside the interflow raster: ZAF %+v, ZAA %+v", id, c.ZAF, c.ZAA)
			}
		}
	})
}

func TestRunFinalizeRollback(t *testing.T) {
	cfg := scenario(t)
	defer os.RemoveAll(filepath.Dir(cfg.OutputDir))
	cfg.KeepData, cfg.XLSX = true, true

	// A directory in place of the spreadsheet makes moving it fail
	// after the CSV has been moved.
	blocked := filepath.Join(cfg.OutputDir, TableName+".xlsx")
	if err := os.MkdirAll(filepath.Join(blocked, "old"), 0755); err != nil {
		t.Fatal(err)
	}
	_, err := Run(context.Background(), cfg, geoproc.New(), testLogger())
	serr, ok := err.(*StageError)
	if !ok {
		t.Fatalf("have error %v, want a *StageError", err)
	}
	if n := len(stages(cfg)); serr.Stage != n || serr.Name != "finalize" {
		t.Errorf("stage %d (%s), want %d (finalize)", serr.Stage, serr.Name, n)
	}
	entries, err := ioutil.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if want := []string{TableName + ".xlsx"}; !reflect.DeepEqual(names, want) {
		t.Errorf("output directory holds %v, want %v", names, want)
	}
}
