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

package hotspot

import (
	"fmt"
	"strconv"

	"github.com/airbusgeo/godal"
)

func init() {
	godal.RegisterAll()
}

// RasterOptions specify how grid counts are written to a GeoTIFF.
type RasterOptions struct {
	// TargetSRS is the spatial reference the raster is warped to,
	// in any form GDAL understands (e.g., "EPSG:4326"). If it is empty,
	// the raster is written in the grid spatial reference.
	TargetSRS string

	// NoData is the value written where there is no grid cell.
	NoData float64

	// Resampling is the GDAL resampling method used when warping.
	// The default is "near".
	Resampling string
}

// DefaultRasterOptions are the options used by the species count pipeline:
// nearest-neighbor warping to WGS84 with a nodata value of -1.
var DefaultRasterOptions = RasterOptions{
	TargetSRS:  "EPSG:4326",
	NoData:     -1,
	Resampling: "near",
}

// WriteGeoTIFF rasterizes the cell counts of g and writes them
// to a compressed single-band GeoTIFF at path.
func WriteGeoTIFF(g *Grid, path string, opts RasterOptions) error {
	mem, err := godal.Create(godal.Memory, "", 1, godal.Float64, g.Nx, g.Ny)
	if err != nil {
		return fmt.Errorf("hotspot: creating in-memory raster: %w", err)
	}
	defer mem.Close()

	if err := mem.SetGeoTransform(g.GeoTransform()); err != nil {
		return fmt.Errorf("hotspot: setting raster geotransform: %w", err)
	}
	sr, err := godal.NewSpatialRefFromProj4(g.Proj4)
	if err != nil {
		return fmt.Errorf("hotspot: parsing grid spatial reference %q: %w", g.Proj4, err)
	}
	defer sr.Close()
	if err := mem.SetSpatialRef(sr); err != nil {
		return fmt.Errorf("hotspot: setting raster spatial reference: %w", err)
	}

	band := mem.Bands()[0]
	if err := band.SetNoData(opts.NoData); err != nil {
		return fmt.Errorf("hotspot: setting raster nodata: %w", err)
	}
	data := g.Raster(opts.NoData)
	if err := band.Write(0, 0, data.Elements, g.Nx, g.Ny); err != nil {
		return fmt.Errorf("hotspot: writing raster data: %w", err)
	}

	nodata := strconv.FormatFloat(opts.NoData, 'g', -1, 64)
	var out *godal.Dataset
	if opts.TargetSRS == "" {
		out, err = mem.Translate(path, []string{"-co", "COMPRESS=LZW"}, godal.GTiff)
	} else {
		resampling := opts.Resampling
		if resampling == "" {
			resampling = "near"
		}
		out, err = mem.Warp(path, []string{
			"-t_srs", opts.TargetSRS,
			"-r", resampling,
			"-srcnodata", nodata,
			"-dstnodata", nodata,
			"-co", "COMPRESS=LZW",
		}, godal.GTiff)
	}
	if err != nil {
		return fmt.Errorf("hotspot: writing GeoTIFF %s: %w", path, err)
	}
	return out.Close()
}

// proj4ToWKT converts a proj4 spatial reference to well-known text.
func proj4ToWKT(proj4 string) (string, error) {
	sr, err := godal.NewSpatialRefFromProj4(proj4)
	if err != nil {
		return "", fmt.Errorf("hotspot: parsing spatial reference %q: %w", proj4, err)
	}
	defer sr.Close()
	wkt, err := sr.WKT()
	if err != nil {
		return "", fmt.Errorf("hotspot: converting spatial reference to WKT: %w", err)
	}
	return wkt, nil
}
