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
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// countedGrid returns a 3x2 grid with counts 0 to 5.
func countedGrid(t *testing.T) *Grid {
	g, err := NewGrid(square(0, 0, 3000, 2000), 1000, testProj4)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetCounts([]int{0, 1, 2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestWriteShapefile(t *testing.T) {
	g := countedGrid(t)
	path := filepath.Join(t.TempDir(), "species_count.shp")
	vars := map[string]string{
		"Density": "count / area_km2",
		"LogCount": "log1p(count)",
		"Relative": "count / max_count",
	}
	if err := g.WriteShapefile(path, vars); err != nil {
		t.Fatal(err)
	}

	d, err := shp.NewDecoder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if _, err := d.SR(); err != nil {
		t.Errorf("reading projection: %v", err)
	}
	type record struct {
		geom.Polygon
		Count, Row, Col             int
		Density, LogCount, Relative float64
	}
	var i int
	for {
		var r record
		if !d.DecodeRow(&r) {
			break
		}
		c := g.Cells[i]
		if r.Count != c.Count || r.Row != c.Row || r.Col != c.Col {
			t.Errorf("record %d: have count %d row %d col %d, want %d %d %d",
				i, r.Count, r.Row, r.Col, c.Count, c.Row, c.Col)
		}
		if math.Abs(r.Density-float64(c.Count)) > 1.e-6 {
			t.Errorf("record %d: density %g, want %d", i, r.Density, c.Count)
		}
		if math.Abs(r.LogCount-math.Log1p(float64(c.Count))) > 1.e-6 {
			t.Errorf("record %d: log count %g", i, r.LogCount)
		}
		if math.Abs(r.Relative-float64(c.Count)/5) > 1.e-6 {
			t.Errorf("record %d: relative count %g", i, r.Relative)
		}
		if math.Abs(math.Abs(r.Polygon.Area())-1.e6) > 1.e-3 {
			t.Errorf("record %d: area %g", i, r.Polygon.Area())
		}
		i++
	}
	if err := d.Error(); err != nil {
		t.Fatal(err)
	}
	if i != len(g.Cells) {
		t.Errorf("have %d records, want %d", i, len(g.Cells))
	}
}

func TestWriteShapefileErrors(t *testing.T) {
	g := countedGrid(t)
	path := filepath.Join(t.TempDir(), "out.shp")
	tests := []struct {
		name string
		vars map[string]string
		err  string
	}{
		{name: "long", vars: map[string]string{"VeryLongName": "count"}, err: "exceeds 10 characters"},
		{name: "characters", vars: map[string]string{"a-b": "count"}, err: "unsupported characters"},
		{name: "reserved", vars: map[string]string{"COUNT": "count"}, err: "reserved"},
		{name: "undefined", vars: map[string]string{"x": "population * 2"}, err: "undefined variable name"},
		{name: "syntax", vars: map[string]string{"x": "count *"}, err: "parsing output variable"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := g.WriteShapefile(path, test.vars)
			if err == nil || !strings.Contains(err.Error(), test.err) {
				t.Errorf("error should contain %q but is %v", test.err, err)
			}
		})
	}
}

func TestWritePointShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.shp")
	pts := []geom.Point{{X: -84, Y: 10}, {X: -83.9, Y: 10.1}}
	if err := WritePointShapefile(path, pts, []int{3, 7}, wgs84); err != nil {
		t.Fatal(err)
	}
	d, err := shp.NewDecoder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	var i int
	for {
		var r struct {
			geom.Point
			Count int
		}
		if !d.DecodeRow(&r) {
			break
		}
		if r.Point != pts[i] || r.Count != []int{3, 7}[i] {
			t.Errorf("record %d: have %v %d", i, r.Point, r.Count)
		}
		i++
	}
	if i != 2 {
		t.Errorf("have %d records, want 2", i)
	}
	if err := WritePointShapefile(path, pts, []int{1}, wgs84); err == nil {
		t.Error("expected error for mismatched counts")
	}
}
