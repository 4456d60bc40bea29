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
	"reflect"
	"testing"

	"github.com/ctessum/geom"
)

// square returns a rectangle polygon with the given corners.
func square(xmin, ymin, xmax, ymax float64) geom.Polygon {
	return geom.Polygon{{
		{X: xmin, Y: ymin},
		{X: xmax, Y: ymin},
		{X: xmax, Y: ymax},
		{X: xmin, Y: ymax},
	}}
}

const testProj4 = "+proj=utm +zone=17 +datum=WGS84 +units=m +no_defs"

func TestNewGrid(t *testing.T) {
	g, err := NewGrid(square(0, 0, 2500, 2000), 1000, testProj4)
	if err != nil {
		t.Fatal(err)
	}
	if g.Nx != 3 || g.Ny != 2 {
		t.Fatalf("have %dx%d grid, want 3x2", g.Nx, g.Ny)
	}
	if len(g.Cells) != 6 {
		t.Fatalf("have %d cells, want 6", len(g.Cells))
	}
	for i, c := range g.Cells {
		if c.Index != i {
			t.Errorf("cell %d has index %d", i, c.Index)
		}
		if c.Index != c.Col*g.Ny+c.Row {
			t.Errorf("cell %d: index %d doesn't match row %d col %d", i, c.Index, c.Row, c.Col)
		}
	}
	if c := g.Cells[1]; c.Row != 1 || c.Col != 0 {
		t.Errorf("cells should be ordered by column then row; cell 1 is row %d col %d", c.Row, c.Col)
	}
	want := geom.Polygon{{{X: 0, Y: 2000}, {X: 1000, Y: 2000}, {X: 1000, Y: 1000}, {X: 0, Y: 1000}}}
	if c := g.CellAt(0, 0); !reflect.DeepEqual(c.Polygon, want) {
		t.Errorf("upper left cell: have %v, want %v", c.Polygon, want)
	}
	if c := g.CellAt(1, 2); c.Index != 5 {
		t.Errorf("cell (1, 2) has index %d, want 5", c.Index)
	}
	if c := g.CellAt(2, 0); c != nil {
		t.Errorf("cell (2, 0) should not exist")
	}
	if gt := g.GeoTransform(); gt != [6]float64{0, 1000, 0, 2000, 0, -1000} {
		t.Errorf("wrong geotransform %v", gt)
	}
	if a := g.Cells[0].Area(); a != 1.e6 {
		t.Errorf("cell area: have %g, want 1e6", a)
	}
	if _, err := g.SR(); err != nil {
		t.Error(err)
	}
}

func TestNewGridErrors(t *testing.T) {
	if _, err := NewGrid(square(0, 0, 1, 1), 0, testProj4); err == nil {
		t.Error("expected error for zero resolution")
	}
	if _, err := NewGrid(geom.Polygon{}, 1, testProj4); err == nil {
		t.Error("expected error for empty region")
	}
}

func TestGridClip(t *testing.T) {
	g, err := NewGrid(square(0, 0, 2500, 2000), 1000, testProj4)
	if err != nil {
		t.Fatal(err)
	}
	triangle := geom.Polygon{{{X: 0, Y: 0}, {X: 2500, Y: 0}, {X: 0, Y: 2000}}}
	g.Clip(triangle)
	if !g.Clipped() {
		t.Error("grid should be marked as clipped")
	}
	if len(g.Cells) != 5 {
		t.Fatalf("have %d cells after clipping, want 5", len(g.Cells))
	}
	if g.CellAt(0, 2) != nil {
		t.Error("upper right cell should have been removed")
	}
	counts := []int{1, 2, 3, 4, 5}
	if err := g.SetCounts(counts); err != nil {
		t.Fatal(err)
	}
	r := g.Raster(-1)
	if !reflect.DeepEqual(r.Shape, []int{2, 3}) {
		t.Fatalf("raster shape %v", r.Shape)
	}
	wantRaster := []float64{
		1, 3, -1,
		2, 4, 5,
	}
	if !reflect.DeepEqual(r.Elements, wantRaster) {
		t.Errorf("have raster %v, want %v", r.Elements, wantRaster)
	}
	if err := g.SetCounts(counts[:2]); err == nil {
		t.Error("expected error for wrong number of counts")
	}
}

func TestGridRasterUnclipped(t *testing.T) {
	g, err := NewGrid(square(0, 0, 2000, 1000), 1000, testProj4)
	if err != nil {
		t.Fatal(err)
	}
	r := g.Raster(-1)
	if !reflect.DeepEqual(r.Elements, []float64{0, 0}) {
		t.Errorf("unclipped raster should be zero, have %v", r.Elements)
	}
}

func TestGridPoints(t *testing.T) {
	res := 100.0
	pts, err := GridPoints(square(0, 0, 0.01, 0.01), res)
	if err != nil {
		t.Fatal(err)
	}
	// Points on the western and southern edges are not included.
	if len(pts) != 99 {
		t.Fatalf("have %d points, want 99", len(pts))
	}
	first := geom.Point{X: res * lonPerMeter, Y: res * latPerMeter}
	if pts[0] != first {
		t.Errorf("first point: have %v, want %v", pts[0], first)
	}
	if pts[1].X != pts[0].X || !(pts[1].Y > pts[0].Y) {
		t.Errorf("points should be ordered by longitude then latitude: %v, %v", pts[0], pts[1])
	}
	for _, p := range pts {
		if p.X <= 0 || p.X >= 0.01 || p.Y <= 0 || p.Y >= 0.01 {
			t.Errorf("point %v is not inside the region", p)
		}
	}
	if _, err := GridPoints(square(0, 0, 1, 1), -1); err == nil {
		t.Error("expected error for negative resolution")
	}
}
