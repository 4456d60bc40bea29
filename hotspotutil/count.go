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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/hotspot"
)

// utmGrid reads the region of interest, converts it to its UTM zone,
// and creates a grid over it.
func utmGrid(c *CountConfig) (*hotspot.Grid, geom.Polygonal, *hotspot.UTM, error) {
	roi, err := parseROI(c.ROI)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("hotspot: %v", err)
	}
	utmROI, utm, err := hotspot.ToUTM(roi)
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := hotspot.NewGrid(utmROI, c.Resolution, utm.Proj4())
	if err != nil {
		return nil, nil, nil, err
	}
	if c.ClipToROI {
		g.Clip(utmROI)
	}
	c.log().WithFields(logrus.Fields{
		"zone":    utm.Zone,
		"north":   utm.North,
		"columns": g.Nx,
		"rows":    g.Ny,
		"cells":   len(g.Cells),
	}).Info("created grid")
	return g, utmROI, utm, nil
}

// MakeGrid creates a grid over the region of interest and writes it
// to c.OutputFile.
func MakeGrid(ctx context.Context, c *CountConfig) error {
	g, _, _, err := utmGrid(c)
	if err != nil {
		return err
	}
	if err := g.WriteShapefile(c.OutputFile, c.OutputVariables); err != nil {
		return err
	}
	return c.finish(ctx)
}

// Count creates a grid over the region of interest, counts the species
// ranges in each grid cell, and writes the configured outputs.
func Count(ctx context.Context, c *CountConfig) (*hotspot.Grid, error) {
	start := time.Now()
	log := c.log()
	g, roi, utm, err := utmGrid(c)
	if err != nil {
		return nil, err
	}

	ranges, err := filterSpecies(ctx, c, roi, utm.SR, utm.Proj4())
	if err != nil {
		return nil, err
	}
	counts, err := hotspot.CountSpecies(ctx, ranges, g.Geoms(), c.Mode)
	if err != nil {
		return nil, err
	}
	if err := g.SetCounts(counts); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"ranges":  len(ranges),
		"mode":    c.Mode,
		"elapsed": time.Since(start),
	}).Info("counted species")

	if err := g.WriteShapefile(c.OutputFile, c.OutputVariables); err != nil {
		return nil, err
	}
	if c.GeoTIFF != "" {
		if err := hotspot.WriteGeoTIFF(g, c.GeoTIFF, c.Raster); err != nil {
			return nil, err
		}
	}
	if c.SummaryFile != "" {
		if err := hotspot.WriteSummary(c.SummaryFile, ranges, g, roi.Area()); err != nil {
			return nil, err
		}
	}
	if c.AbundancePlot != "" {
		if err := plotAbundance(c, g, utm.SR); err != nil {
			return nil, err
		}
	}
	if err := c.finish(ctx); err != nil {
		return nil, err
	}
	log.WithField("elapsed", time.Since(start)).Info("finished species count")
	return g, nil
}

// Points counts the species ranges that cover regularly spaced points
// in the region of interest and writes them to c.OutputFile.
func Points(ctx context.Context, c *CountConfig) error {
	roi, err := parseROI(c.ROI)
	if err != nil {
		return fmt.Errorf("hotspot: %v", err)
	}
	pts, err := hotspot.GridPoints(roi, c.Resolution)
	if err != nil {
		return err
	}
	sr, err := proj.Parse(hotspot.WGS84())
	if err != nil {
		return err
	}
	ranges, err := filterSpecies(ctx, c, roi, sr, hotspot.WGS84())
	if err != nil {
		return err
	}
	cells := make([]geom.Geom, len(pts))
	for i, p := range pts {
		cells[i] = p
	}
	counts, err := hotspot.CountSpecies(ctx, ranges, cells, hotspot.Contains)
	if err != nil {
		return err
	}
	c.log().WithFields(logrus.Fields{
		"points": len(pts),
		"ranges": len(ranges),
	}).Info("counted species at points")
	if err := hotspot.WritePointShapefile(c.OutputFile, pts, counts, hotspot.WGS84()); err != nil {
		return err
	}
	return c.finish(ctx)
}

// filterSpecies reads the species ranges in all of the species files that
// overlap roi.
func filterSpecies(ctx context.Context, c *CountConfig, roi geom.Polygonal, sr *proj.SR, proj4 string) ([]*hotspot.SpeciesRange, error) {
	cache := c.Cache
	if cache == nil {
		cache = new(hotspot.SpeciesCache)
	}
	var ranges []*hotspot.SpeciesRange
	for _, f := range c.SpeciesFiles {
		r, err := cache.Filter(ctx, f, roi, sr, proj4)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r...)
	}
	return ranges, nil
}

// plotAbundance draws the grid counts over the basemap, if there is one.
func plotAbundance(c *CountConfig, g *hotspot.Grid, sr *proj.SR) error {
	var basemap []geom.Geom
	if c.Basemap != "" {
		var err error
		if basemap, err = readShapes(c.Basemap, sr); err != nil {
			return err
		}
	}
	f, err := os.Create(c.AbundancePlot)
	if err != nil {
		return fmt.Errorf("hotspot: creating abundance plot: %v", err)
	}
	if err := hotspot.PlotAbundance(f, g, basemap, c.PlotTitle, hotspot.DefaultPlotOptions); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readShapes reads the geometries in a shapefile and converts them to sr.
func readShapes(path string, sr *proj.SR) ([]geom.Geom, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("hotspot: opening basemap: %v", err)
	}
	defer d.Close()
	src, err := d.SR()
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("hotspot: basemap projection: %v", err)
		}
		if src, err = proj.Parse(hotspot.WGS84()); err != nil {
			return nil, err
		}
	}
	ct, err := src.NewTransform(sr)
	if err != nil {
		return nil, fmt.Errorf("hotspot: basemap projection: %v", err)
	}
	var o []geom.Geom
	for {
		var rec struct{ geom.Geom }
		if !d.DecodeRow(&rec) {
			break
		}
		if rec.Geom == nil {
			continue
		}
		g, err := rec.Transform(ct)
		if err != nil {
			return nil, fmt.Errorf("hotspot: converting basemap: %v", err)
		}
		o = append(o, g)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("hotspot: reading basemap: %v", err)
	}
	return o, nil
}
