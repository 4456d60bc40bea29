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

// Package hotspot counts species ranges on regular grids over a region of
// interest and writes the results as shapefiles, spreadsheets, maps, and
// GeoTIFF rasters.
package hotspot

// Version gives the version number.
const Version = "1.0.0"

// wgs84 is the spatial reference of the geographic (longitude, latitude)
// coordinates that regions of interest and species ranges are supplied in.
const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"

// WGS84 returns the proj4 definition of the EPSG:4326 geographic
// spatial reference.
func WGS84() string { return wgs84 }
