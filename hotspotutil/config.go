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

package hotspotutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/hotspot"
	"github.com/spf13/cast"
)

// CountConfig holds the inputs and outputs of a species count.
type CountConfig struct {
	// ROI is the local path to the GeoJSON region of interest.
	ROI string

	// Resolution is the grid cell size in meters.
	Resolution float64

	// SpeciesFiles are the local paths to the species range shapefiles.
	SpeciesFiles []string

	Mode      hotspot.CountMode
	ClipToROI bool

	// OutputFile is the shapefile the grid or points are written to.
	OutputFile      string
	OutputVariables map[string]string

	// LogFile is the local file that log messages are copied to.
	LogFile string

	// GeoTIFF, SummaryFile, and AbundancePlot are optional outputs.
	GeoTIFF, SummaryFile, AbundancePlot string

	Raster hotspot.RasterOptions

	PlotTitle string
	Basemap   string

	Cache *hotspot.SpeciesCache

	// Log receives progress messages. The standard logrus logger
	// is used if it is nil.
	Log logrus.FieldLogger

	up *uploader
}

func (c *CountConfig) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// finish uploads any outputs that are destined for blob storage.
func (c *CountConfig) finish(ctx context.Context) error {
	if c.up == nil {
		return nil
	}
	return c.up.uploadOutput(ctx)
}

// countConfig reads a CountConfig from a viper configuration, downloading
// remote inputs and arranging for remote outputs to be uploaded.
func countConfig(cfg *viper.Viper) (*CountConfig, error) {
	ctx := context.TODO()
	log := logrus.StandardLogger()
	up := new(uploader)

	mode, err := hotspot.ParseCountMode(cfg.GetString("CountMode"))
	if err != nil {
		return nil, fmt.Errorf("hotspot: CountMode: %v", err)
	}
	roiFile := expandPath(cfg.GetString("ROI"))
	if roiFile == "" {
		return nil, fmt.Errorf("hotspot: you need to specify a region of interest in the ROI configuration variable")
	}
	roi, err := maybeDownload(ctx, roiFile, log)
	if err != nil {
		return nil, fmt.Errorf("hotspot: ROI: %v", err)
	}
	resolution := cfg.GetFloat64("Resolution")
	if !(resolution > 0) {
		return nil, fmt.Errorf("hotspot: Resolution=%g but should be >0", resolution)
	}

	speciesFiles := expandStringSlice(cfg.GetStringSlice("SpeciesFiles"))
	for i, f := range speciesFiles {
		if speciesFiles[i], err = maybeDownload(ctx, f, log); err != nil {
			return nil, fmt.Errorf("hotspot: SpeciesFiles: %v", err)
		}
	}

	outputFile, err := checkOutputFile(cfg.GetString("OutputFile"))
	if err != nil {
		return nil, err
	}
	vars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return nil, fmt.Errorf("hotspot: OutputVariables: %v", err)
	}
	outputVars, err := checkOutputVars(vars)
	if err != nil {
		return nil, err
	}
	logFile := up.maybeUpload(checkLogFile(cfg.GetString("LogFile"), outputFile))

	var optional [3]string
	for i, name := range []string{"GeoTIFF", "SummaryFile", "AbundancePlot"} {
		if f := cfg.GetString(name); f != "" {
			if optional[i], err = checkOutputFile(f); err != nil {
				return nil, fmt.Errorf("hotspot: %s: %v", name, err)
			}
			optional[i] = up.maybeUpload(optional[i])
		}
	}

	basemap := expandPath(cfg.GetString("Plot.Basemap"))
	if basemap != "" {
		if basemap, err = maybeDownload(ctx, basemap, log); err != nil {
			return nil, fmt.Errorf("hotspot: Plot.Basemap: %v", err)
		}
	}
	title := cfg.GetString("Plot.Title")
	if title == "" {
		species := "Species"
		if len(speciesFiles) > 0 {
			species = baseName(speciesFiles[0])
		}
		title = hotspot.AbundanceTitle(species, baseName(roiFile))
	}

	ro := hotspot.DefaultRasterOptions
	ro.TargetSRS = cfg.GetString("Raster.TargetSRS")

	c := &CountConfig{
		ROI:             roi,
		Resolution:      resolution,
		SpeciesFiles:    speciesFiles,
		Mode:            mode,
		ClipToROI:       cfg.GetBool("Grid.ClipToROI"),
		OutputFile:      up.maybeUpload(outputFile),
		OutputVariables: outputVars,
		LogFile:         logFile,
		GeoTIFF:         optional[0],
		SummaryFile:     optional[1],
		AbundancePlot:   optional[2],
		Raster:          ro,
		PlotTitle:       title,
		Basemap:         basemap,
		Cache:           &hotspot.SpeciesCache{Dir: expandPath(cfg.GetString("SpatialCache"))},
		Log:             log,
		up:              up,
	}
	if up.err != nil {
		return nil, fmt.Errorf("hotspot: preparing output upload: %v", up.err)
	}
	return c, nil
}

// baseName returns the file name of path without its extension.
func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// expandPath expands environment variables in a path.
func expandPath(p string) string { return os.ExpandEnv(p) }

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) (map[string]string, error) {
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		k = os.ExpandEnv(k)
		if k == "" {
			return nil, fmt.Errorf("hotspot: OutputVariables contains an empty field name")
		}
		o[k] = os.ExpandEnv(v)
	}
	return o, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.shp")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		u, err := url.Parse(f)
		if err != nil {
			return f, err
		}
		if _, _, err := OpenBucket(context.TODO(), u); err != nil {
			return f, fmt.Errorf("hotspot: error when checking output location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("hotspot: the output directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified. The default is next to the output file, which may be a
// blob storage location.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return os.ExpandEnv(logFile)
}

// setLogLevel sets the minimum level of logged messages.
func setLogLevel(level string) error {
	if level == "" {
		return nil
	}
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("hotspot: LogLevel: %v", err)
	}
	logrus.SetLevel(l)
	return nil
}

// logToFile copies log messages to the file at path in addition to
// standard error. The returned function closes the file and restores
// the original log output.
func logToFile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("hotspot: creating log file: %v", err)
	}
	logger := logrus.StandardLogger()
	out := logger.Out
	logger.SetOutput(io.MultiWriter(out, f))
	return func() {
		logger.SetOutput(out)
		f.Close()
	}, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapString(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]string{}, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("invalid JSON object %q: %v", v, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("invalid type for variable %s: %#v", varName, i)
	}
}

// parseROI returns the region of interest polygon represented by the
// given GeoJSON file.
func parseROI(roiGeoJSONFile string) (geom.Polygonal, error) {
	f, err := os.Open(roiGeoJSONFile)
	if err != nil {
		return nil, fmt.Errorf("opening region of interest file: %w", err)
	}
	defer f.Close()
	b, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading region of interest file: %w", err)
	}
	j, err := geojson.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decoding region of interest: %w", err)
	}
	switch roi := j.(type) {
	case geom.Polygon:
		return roi, nil
	case geom.MultiPolygon:
		return roi, nil
	default:
		return nil, fmt.Errorf("invalid region of interest geometry type %T", j)
	}
}
