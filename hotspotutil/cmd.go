/*
Copyright © 2024 the hotspot authors.
This file is part of hotspot.

hotspot is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

hotspot is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with hotspot.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package hotspotutil contains the command line interface for the
// hotspot species count and layer export tools.
package hotspotutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/hotspot"
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
	// Options are the configuration options available to hotspot.
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
			name: "ROI",
			usage: `
              ROI is the path to a GeoJSON file containing the polygon or
              multipolygon outline of the region of interest, in longitude and
              latitude coordinates. It can include environment variables
              and can be a URL or blob storage location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), countCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "Resolution",
			usage: `
              Resolution is the grid cell edge length in meters. For the points
              command it is the approximate spacing between points.`,
			shorthand:  "r",
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), countCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "SpeciesFiles",
			usage: `
              SpeciesFiles are the paths to shapefiles of species ranges in the
              IUCN Red List spatial data format. Each range polygon that is not
              marked as extinct and that overlaps the region of interest is counted.
              Paths can include environment variables and can be URLs or blob
              storage locations.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{countCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "CountMode",
			usage: `
              CountMode specifies when a species range counts toward a grid cell:
              'contains' if the range covers the whole cell, 'intersects' if the range
              overlaps any part of the cell, or 'centroid' if the range covers the
              center of the cell.`,
			defaultVal: "contains",
			flagsets:   []*pflag.FlagSet{countCmd.Flags()},
		},
		{
			name: "Grid.ClipToROI",
			usage: `
              Grid.ClipToROI specifies whether grid cells that are outside of
              the region of interest should be removed from the grid. Cells that
              are removed are written as nodata in the GeoTIFF output.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), countCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output shapefile location. It can
              include environment variables and can be a blob storage location.`,
			shorthand:  "o",
			defaultVal: "species_count.shp",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), countCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies additional fields to include in the output
              shapefile. Keys are field names and values are expressions that can
              use the variables count, area_km2, row, col, max_count, and mean_count
              and the functions exp, log1p, and sqrt.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), countCmd.Flags()},
		},
		{
			name: "GeoTIFF",
			usage: `
              GeoTIFF is the path where the species counts should be written as
              a GeoTIFF raster. If it is empty, no raster is written.`,
			defaultVal: "species_count.tif",
			flagsets:   []*pflag.FlagSet{countCmd.Flags()},
		},
		{
			name: "Raster.TargetSRS",
			usage: `
              Raster.TargetSRS is the spatial reference the GeoTIFF output is
              warped to, in any format GDAL accepts. If it is empty, the raster
              is written in the UTM zone of the region of interest.`,
			defaultVal: hotspot.DefaultRasterOptions.TargetSRS,
			flagsets:   []*pflag.FlagSet{countCmd.Flags()},
		},
		{
			name: "SummaryFile",
			usage: `
              SummaryFile is the path where a spreadsheet summarizing the species
              ranges and grid should be written. If it is empty, no summary is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{countCmd.Flags()},
		},
		{
			name: "AbundancePlot",
			usage: `
              AbundancePlot is the path where a PNG map of the species counts
              should be written. If it is empty, no map is drawn.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{countCmd.Flags()},
		},
		{
			name: "Plot.Title",
			usage: `
              Plot.Title is the title of the abundance map. If it is empty, the title
              is "<species> Abundance in <region>", where species is the name of the
              first species file and region is the name of the ROI file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{countCmd.Flags()},
		},
		{
			name: "Plot.Basemap",
			usage: `
              Plot.Basemap is the path to a shapefile of outlines to draw
              under the species counts in the abundance map.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{countCmd.Flags()},
		},
		{
			name: "SpatialCache",
			usage: `
              SpatialCache is a directory where species ranges that have been
              intersected with the region of interest are stored for reuse in
              later runs. If it is empty, results are only cached in memory.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{countCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be saved in
              the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), countCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to show:
              one of debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ExportProject",
			usage: `
              ExportProject is the path to a TOML file describing the maps, layouts,
              and export steps. If it is empty, the built-in Costa Rica project
              is used with layer data from ExportDataDir.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "ExportDataDir",
			usage: `
              ExportDataDir is the directory holding the layer data for the
              built-in Costa Rica project.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "ExportOutputDir",
			usage: `
              ExportOutputDir is the directory the exported images are written to.
              If it is set, it overrides the output directory in the project file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("HOTSPOT")

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
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
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
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
		}
		Cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(countCmd)
	Root.AddCommand(pointsCmd)
	Root.AddCommand(exportCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("hotspot: problem reading configuration file: %v", err)
		}
	}
	return setLogLevel(Cfg.GetString("LogLevel"))
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "hotspot",
	Short: "Species richness grids and map layer exports.",
	Long: `hotspot counts the species ranges that overlap each cell of a regular grid
over a region of interest and writes the counts as a shapefile, a GeoTIFF raster,
a spreadsheet summary, and a map. It also exports map layers to transparent PNG images.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'HOTSPOT_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
	SilenceErrors:     true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of hotspot.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("hotspot v%s\n", hotspot.Version)
	},
	DisableAutoGenTag: true,
}

// gridCmd is a command that creates a grid and saves it as a shapefile.
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Create a grid over the region of interest",
	Long: `grid creates a regular grid covering the region of interest in its
UTM zone and saves it as a shapefile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := countConfig(Cfg)
		if err != nil {
			return err
		}
		closeLog, err := logToFile(c.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()
		return MakeGrid(ctx(cmd), c)
	},
	DisableAutoGenTag: true,
}

// countCmd is a command that counts species in grid cells.
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count species ranges in grid cells",
	Long: `count creates a regular grid over the region of interest, counts the
species ranges that overlap each grid cell, and writes the counts as a shapefile
and, optionally, as a GeoTIFF raster, a spreadsheet summary, and a PNG map.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := countConfig(Cfg)
		if err != nil {
			return err
		}
		closeLog, err := logToFile(c.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()
		_, err = Count(ctx(cmd), c)
		return err
	},
	DisableAutoGenTag: true,
}

// pointsCmd is a command that counts species at regularly spaced points.
var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Count species ranges at regularly spaced points",
	Long: `points creates regularly spaced points inside the region of interest,
counts the species ranges that cover each point, and writes the points and
counts to a shapefile in longitude and latitude coordinates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := countConfig(Cfg)
		if err != nil {
			return err
		}
		closeLog, err := logToFile(c.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()
		return Points(ctx(cmd), c)
	},
	DisableAutoGenTag: true,
}

// exportCmd is a command that exports map layers to images.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export map layers to PNG images",
	Long: `export makes each layer named in the export steps of a project visible
in turn and saves the layout as a PNG image.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Export(ctx(cmd),
			expandPath(Cfg.GetString("ExportProject")),
			expandPath(Cfg.GetString("ExportDataDir")),
			expandPath(Cfg.GetString("ExportOutputDir")),
		)
	},
	DisableAutoGenTag: true,
}

// ctx returns the command context, or a background context if
// the command was not started with one.
func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
