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
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// UTMZone returns the UTM zone that contains the given longitude and
// whether the latitude is in the northern hemisphere. Points on the equator
// are assigned to the southern hemisphere, and longitude 180 to zone 60.
func UTMZone(lon, lat float64) (zone int, north bool) {
	zone = int(math.Floor((lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	return zone, lat > 0
}

// UTMEPSG returns the EPSG code of the WGS84 UTM projection that
// contains the given location, e.g. 32617 for zone 17 north.
func UTMEPSG(lon, lat float64) int {
	zone, north := UTMZone(lon, lat)
	if north {
		return 32600 + zone
	}
	return 32700 + zone
}

// UTMCode returns the EPSG code of the UTM projection that contains the
// given location in "EPSG:NNNNN" form.
func UTMCode(lon, lat float64) string {
	return fmt.Sprintf("EPSG:%d", UTMEPSG(lon, lat))
}

// UTMProj4 returns the proj4 definition of the given WGS84 UTM zone.
func UTMProj4(zone int, north bool) string {
	if north {
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", zone)
	}
	return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", zone)
}

// UTM is a spatial reference for a single UTM zone.
type UTM struct {
	Zone  int
	North bool
	EPSG  int
	SR    *proj.SR
}

// Proj4 returns the proj4 definition of u.
func (u *UTM) Proj4() string { return UTMProj4(u.Zone, u.North) }

// NewUTM returns the UTM spatial reference for the zone that contains the
// given longitude and latitude.
func NewUTM(lon, lat float64) (*UTM, error) {
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("hotspot: location (%g, %g) is not a valid longitude and latitude", lon, lat)
	}
	zone, north := UTMZone(lon, lat)
	sr, err := proj.Parse(UTMProj4(zone, north))
	if err != nil {
		return nil, fmt.Errorf("hotspot: parsing UTM zone %d: %w", zone, err)
	}
	return &UTM{Zone: zone, North: north, EPSG: UTMEPSG(lon, lat), SR: sr}, nil
}

// ToUTM converts roi, which must be in longitude and latitude
// coordinates, to the UTM zone containing its centroid.
// It returns the converted region and the UTM zone information.
func ToUTM(roi geom.Polygonal) (geom.Polygonal, *UTM, error) {
	c := roi.Centroid()
	u, err := NewUTM(c.X, c.Y)
	if err != nil {
		return nil, nil, err
	}
	src, err := proj.Parse(wgs84)
	if err != nil {
		return nil, nil, fmt.Errorf("hotspot: parsing WGS84: %w", err)
	}
	ct, err := src.NewTransform(u.SR)
	if err != nil {
		return nil, nil, fmt.Errorf("hotspot: creating UTM transform: %w", err)
	}
	g, err := roi.Transform(ct)
	if err != nil {
		return nil, nil, fmt.Errorf("hotspot: converting region to %s: %w", fmt.Sprintf("EPSG:%d", u.EPSG), err)
	}
	p, ok := g.(geom.Polygonal)
	if !ok {
		return nil, nil, fmt.Errorf("hotspot: converted region has type %T, which is not polygonal", g)
	}
	return p, u, nil
}
