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
	"path/filepath"
	"reflect"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/ctessum/geom"
)

func readGeoTIFF(t *testing.T, path string) (*godal.Dataset, []float64) {
	ds, err := godal.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	st := ds.Structure()
	buf := make([]float64, st.SizeX*st.SizeY)
	if err := ds.Bands()[0].Read(0, 0, buf, st.SizeX, st.SizeY); err != nil {
		t.Fatal(err)
	}
	return ds, buf
}

func TestWriteGeoTIFF(t *testing.T) {
	g := countedGrid(t)
	path := filepath.Join(t.TempDir(), "species_count.tif")
	opts := DefaultRasterOptions
	opts.TargetSRS = ""
	if err := WriteGeoTIFF(g, path, opts); err != nil {
		t.Fatal(err)
	}
	ds, data := readGeoTIFF(t, path)
	defer ds.Close()
	if st := ds.Structure(); st.SizeX != 3 || st.SizeY != 2 || st.NBands != 1 {
		t.Errorf("wrong raster structure %+v", st)
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		t.Fatal(err)
	}
	if gt != g.GeoTransform() {
		t.Errorf("have geotransform %v, want %v", gt, g.GeoTransform())
	}
	if want := g.Raster(-1).Elements; !reflect.DeepEqual(data, want) {
		t.Errorf("have %v, want %v", data, want)
	}
	if nd, ok := ds.Bands()[0].NoData(); !ok || nd != -1 {
		t.Errorf("nodata: have %g (%v), want -1", nd, ok)
	}
}

func TestWriteGeoTIFFClipped(t *testing.T) {
	g, err := NewGrid(square(0, 0, 2500, 2000), 1000, testProj4)
	if err != nil {
		t.Fatal(err)
	}
	g.Clip(geom.Polygon{{{X: 0, Y: 0}, {X: 2500, Y: 0}, {X: 0, Y: 2000}}})
	if err := g.SetCounts([]int{1, 2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "clipped.tif")
	opts := DefaultRasterOptions
	opts.TargetSRS = ""
	if err := WriteGeoTIFF(g, path, opts); err != nil {
		t.Fatal(err)
	}
	ds, data := readGeoTIFF(t, path)
	defer ds.Close()
	if want := []float64{1, 3, -1, 2, 4, 5}; !reflect.DeepEqual(data, want) {
		t.Errorf("have %v, want %v", data, want)
	}
}

func TestWriteGeoTIFFWarp(t *testing.T) {
	// A 10 km grid near 84°W, 10°N.
	roi, u, err := ToUTM(square(-84.1, 9.9, -84.0, 10.0))
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGrid(roi, 5000, u.Proj4())
	if err != nil {
		t.Fatal(err)
	}
	counts := make([]int, len(g.Cells))
	for i := range counts {
		counts[i] = 4
	}
	if err := g.SetCounts(counts); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "wgs84.tif")
	if err := WriteGeoTIFF(g, path, DefaultRasterOptions); err != nil {
		t.Fatal(err)
	}
	ds, data := readGeoTIFF(t, path)
	defer ds.Close()
	sr := ds.SpatialRef()
	defer sr.Close()
	if !sr.Geographic() {
		t.Error("warped raster should be in geographic coordinates")
	}
	b, err := ds.Bounds()
	if err != nil {
		t.Fatal(err)
	}
	if b[0] < -84.2 || b[2] > -83.9 || b[1] < 9.8 || b[3] > 10.1 {
		t.Errorf("warped bounds %v are not near the region", b)
	}
	var found bool
	for _, v := range data {
		if v != 4 && v != -1 {
			t.Fatalf("unexpected value %g", v)
		}
		found = found || v == 4
	}
	if !found {
		t.Error("warped raster has no data")
	}
}
