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
	"testing"
)

func TestUTMZone(t *testing.T) {
	tests := []struct {
		lon, lat float64
		zone     int
		north    bool
		epsg     int
	}{
		{lon: -84, lat: 10, zone: 17, north: true, epsg: 32617},
		{lon: 0, lat: 0, zone: 31, north: false, epsg: 32731},
		{lon: -180, lat: -45, zone: 1, north: false, epsg: 32701},
		{lon: 179.9, lat: 1, zone: 60, north: true, epsg: 32660},
		{lon: 180, lat: 1, zone: 60, north: true, epsg: 32660},
		{lon: 180, lat: -1, zone: 60, north: false, epsg: 32760},
		{lon: 2.35, lat: 48.85, zone: 31, north: true, epsg: 32631},
	}
	for _, test := range tests {
		zone, north := UTMZone(test.lon, test.lat)
		if zone != test.zone || north != test.north {
			t.Errorf("(%g, %g): have zone %d north %v, want zone %d north %v",
				test.lon, test.lat, zone, north, test.zone, test.north)
		}
		if e := UTMEPSG(test.lon, test.lat); e != test.epsg {
			t.Errorf("(%g, %g): have EPSG %d, want %d", test.lon, test.lat, e, test.epsg)
		}
	}
	if c := UTMCode(-84, 10); c != "EPSG:32617" {
		t.Errorf("have %s, want EPSG:32617", c)
	}
	if c := UTMCode(180, 10); c != "EPSG:32660" {
		t.Errorf("have %s, want EPSG:32660", c)
	}
}

func TestUTMProj4(t *testing.T) {
	if p := UTMProj4(17, true); p != "+proj=utm +zone=17 +datum=WGS84 +units=m +no_defs" {
		t.Errorf("north: %s", p)
	}
	if p := UTMProj4(17, false); p != "+proj=utm +zone=17 +south +datum=WGS84 +units=m +no_defs" {
		t.Errorf("south: %s", p)
	}
}

func TestNewUTM(t *testing.T) {
	u, err := NewUTM(180, 5)
	if err != nil {
		t.Fatal(err)
	}
	if u.Zone != 60 || u.EPSG != 32660 {
		t.Errorf("have zone %d EPSG %d, want zone 60 EPSG 32660", u.Zone, u.EPSG)
	}
	for _, ll := range [][2]float64{{0, 91}, {-181, 0}} {
		if _, err := NewUTM(ll[0], ll[1]); err == nil {
			t.Errorf("(%g, %g): expected an error", ll[0], ll[1])
		}
	}
}

func TestToUTM(t *testing.T) {
	roi := square(-83.51, 9.99, -83.49, 10.01)
	p, u, err := ToUTM(roi)
	if err != nil {
		t.Fatal(err)
	}
	if u.Zone != 17 || !u.North || u.EPSG != 32617 {
		t.Errorf("wrong zone: %+v", u)
	}
	b := p.Bounds()
	// Zone 17 has a central meridian of 81°W, so 83.5°W is roughly
	// 275 km west of the false easting.
	if b.Min.X < 100000 || b.Max.X > 500000 || b.Min.Y < 1.0e6 || b.Max.Y > 1.2e6 {
		t.Errorf("converted bounds are not in zone 17N: %+v", b)
	}
	// 0.02° is about 2.2 km in each direction.
	if a := p.Area(); a < 4.0e6 || a > 5.5e6 {
		t.Errorf("converted area %g m² is not plausible", a)
	}
}
