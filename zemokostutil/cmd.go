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

// Package zemokostutil is the command line interface of zemokost.
package zemokostutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/zemokost"
	"github.com/spatialmodel/zemokost/geoproc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to zemokost.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log_level",
			usage: `
              log_level sets the logging verbosity: one of panic, fatal,
              error, warning, info and debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "DEM",
			usage: `
              DEM is the path to the digital elevation model as an ESRI ASCII
              grid (.asc) with a .prj file holding its coordinate reference.
              The reference of the DEM is the working reference of the run
              and must use meters. The path can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Catchments",
			usage: `
              Catchments is the path to the sub-catchment polygon shapefile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CatchmentID",
			usage: `
              CatchmentID is the field of Catchments holding the integral,
              unique catchment number.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "UpperNode",
			usage: `
              UpperNode is the field of Catchments holding the upstream node id.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LowerNode",
			usage: `
              LowerNode is the field of Catchments holding the downstream node id.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NameField",
			usage: `
              NameField is the optional field of Catchments holding a
              catchment name.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MainChannel",
			usage: `
              MainChannel is the path to the main channel line shapefile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "FineChannel",
			usage: `
              FineChannel is the optional path to a finer channel network used
              instead of MainChannel for overland flow lengths.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LandCover",
			usage: `
              LandCover selects how land cover is given: "vector" for class
              polygons (AKLLayer, RKLLayer) or "raster" for continuous
              coefficient rasters (AKLRaster, RKLRaster).`,
			defaultVal: "vector",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AKLLayer",
			usage: `
              AKLLayer is the path to the discharge coefficient class polygons.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AKLField",
			usage: `
              AKLField is the field of AKLLayer holding the class, 0 to 6.`,
			defaultVal: "AKL",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "RKLLayer",
			usage: `
              RKLLayer is the path to the roughness coefficient class polygons.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "RKLField",
			usage: `
              RKLField is the field of RKLLayer holding the class, 1 to 6.`,
			defaultVal: "RKL",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AKLRaster",
			usage: `
              AKLRaster is the path to the continuous discharge coefficient grid.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "RKLRaster",
			usage: `
              RKLRaster is the path to the roughness class grid.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ClassTable",
			usage: `
              ClassTable is the optional path to a TOML file with [akl] and
              [rkl] tables of x and y control points mapping raster
              coefficients onto classes. Tables left out keep their defaults.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), classTableCmd.Flags()},
		},
		{
			name: "Interflow",
			usage: `
              Interflow selects the interflow input: "none", "vector"
              (InterflowLayer) or "raster" (InterflowRaster).`,
			defaultVal: "none",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InterflowLayer",
			usage: `
              InterflowLayer is the path to the interflow polygons.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ZAFField",
			usage: `
              ZAFField is the field of InterflowLayer holding the interflow factor.`,
			defaultVal: "ZAF",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ZAAField",
			usage: `
              ZAAField is the field of InterflowLayer holding the interflow share.`,
			defaultVal: "ZAA",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InterflowRaster",
			usage: `
              InterflowRaster is the path to the categorical interflow factor grid.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory the table and kept intermediate
              data are written to. It is created if it does not exist.`,
			shorthand:  "o",
			defaultVal: "zemokost_output",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "KeepData",
			usage: `
              If KeepData is true, intermediate rasters and shapefiles are
              written to OutputDir along with a manifest.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "XLSX",
			usage: `
              If XLSX is true, a spreadsheet copy of the table is written.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GeoJSON",
			usage: `
              If GeoJSON is true, the catchments and their attributes are
              written as a GeoJSON feature collection in longitude and latitude.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "FlatIncrement",
			usage: `
              FlatIncrement is the elevation step given to filled flats so
              that they drain. 0 leaves flats level.`,
			defaultVal: 0.0001,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "table",
			usage: `
              table selects the class table to plot: "akl" or "rkl".`,
			defaultVal: "akl",
			flagsets:   []*pflag.FlagSet{classTableCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the path of the class table plot. The extension
              selects the format, for example .png or .pdf.`,
			defaultVal: "classtable.png",
			flagsets:   []*pflag.FlagSet{classTableCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ZEMOKOST")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(classTableCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("zemokost: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "zemokost",
	Short: "Prepare ZEMOKOST catchment input tables.",
	Long: `zemokost derives the sub-catchment attribute table used by the ZEMOKOST
rainfall-runoff model from a DEM, catchment polygons, channel lines, land
cover and optional interflow data.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ZEMOKOST_var' where 'var' is the
name of the variable to be set. Paths may contain environment variables.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of zemokost.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("zemokost v%s\n", zemokost.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd derives the attribute table.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Derive the catchment table.",
	Long: `run reads the configured inputs, derives the attributes of every
sub-catchment and writes import_zemokost.csv to OutputDir. Interrupting the
command cancels the run before the next processing step starts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(Cfg.GetString("log_level"), cmd.OutOrStderr())
		if err != nil {
			return err
		}
		cfg, err := loadConfig(Cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		defer signal.Stop(sig)
		go func() {
			select {
			case <-sig:
				log.Warn("zemokost: interrupted, canceling run")
				cancel()
			case <-ctx.Done():
			}
		}()

		geo := geoproc.New()
		geo.FlatIncrement = Cfg.GetFloat64("FlatIncrement")
		res, err := zemokost.Run(ctx, cfg, geo, log)
		if err != nil {
			return err
		}
		for _, f := range res.Files {
			cmd.Printf("wrote %s\n", f)
		}
		if len(res.Warnings) > 0 {
			cmd.Printf("%d warnings; see the log for details\n", len(res.Warnings))
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// classTableCmd plots a class interpolation table.
var classTableCmd = &cobra.Command{
	Use:   "classtable",
	Short: "Plot a class interpolation table.",
	Long: `classtable plots the discharge (akl) or roughness (rkl) class table
used to map coefficient rasters onto classes, including any override given
with ClassTable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := classTables(os.ExpandEnv(Cfg.GetString("ClassTable")))
		if err != nil {
			return err
		}
		var (
			t     zemokost.InterpolationTable
			title string
		)
		switch Cfg.GetString("table") {
		case "akl":
			t, title = tables.AKL, "Discharge coefficient classes"
		case "rkl":
			t, title = tables.RKL, "Roughness classes"
		default:
			return fmt.Errorf("zemokost: table must be 'akl' or 'rkl' but is '%s'", Cfg.GetString("table"))
		}
		path := os.ExpandEnv(Cfg.GetString("PlotFile"))
		if err := plotClassTable(t, title, path); err != nil {
			return err
		}
		cmd.Printf("wrote %s\n", path)
		return nil
	},
	DisableAutoGenTag: true,
}
