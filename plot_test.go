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
	"bytes"
	"image/png"
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/plot/vg"
)

func TestAbundanceTitle(t *testing.T) {
	if s := AbundanceTitle("Amphibian", "CR"); s != "Amphibian Abundance in CR" {
		t.Errorf("have %q", s)
	}
}

func TestPlotAbundance(t *testing.T) {
	g := countedGrid(t)
	basemap := []geom.Geom{square(-500, -500, 3500, 2500)}
	var b bytes.Buffer
	opts := PlotOptions{Width: 4 * vg.Inch, Height: 2 * vg.Inch, DPI: 50}
	if err := PlotAbundance(&b, g, basemap, AbundanceTitle("Amphibian", "CR"), opts); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&b)
	if err != nil {
		t.Fatal(err)
	}
	if bounds := img.Bounds(); bounds.Dx() != 200 || bounds.Dy() != 100 {
		t.Errorf("have %dx%d image, want 200x100", bounds.Dx(), bounds.Dy())
	}
}

func TestPlotAbundanceEmpty(t *testing.T) {
	g, err := NewGrid(square(0, 0, 2000, 1000), 1000, testProj4)
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := PlotAbundance(&b, g, nil, "", PlotOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&b); err != nil {
		t.Fatal(err)
	}
}
