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
	"testing"

	"github.com/tealeg/xlsx"
)

func TestWriteSummary(t *testing.T) {
	g := countedGrid(t)
	ranges := []*SpeciesRange{
		{Polygonal: square(0, 0, 2000, 1000), Binomial: "Bufo b", Category: "LC", Legend: "Extant (resident)"},
		{Polygonal: square(0, 0, 1000, 1000), Binomial: "Anura a", Category: "EN", Legend: "Extant (resident)"},
	}
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	if err := WriteSummary(path, ranges, g, 6.e6); err != nil {
		t.Fatal(err)
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	species, ok := f.Sheet["species"]
	if !ok {
		t.Fatal("missing species sheet")
	}
	if len(species.Rows) != 3 {
		t.Fatalf("species sheet has %d rows, want 3", len(species.Rows))
	}
	if v := species.Rows[0].Cells[0].Value; v != "binomial" {
		t.Errorf("header: %s", v)
	}
	// Ranges are sorted by name.
	row := species.Rows[1].Cells
	if row[0].Value != "Anura a" || row[1].Value != "EN" {
		t.Errorf("first species row: %s %s", row[0].Value, row[1].Value)
	}
	if a, err := row[3].Float(); err != nil || a != 1 {
		t.Errorf("area: have %g (%v), want 1", a, err)
	}
	if s, err := species.Rows[2].Cells[4].Float(); err != nil || different(s, 2./6., 1.e-10) {
		t.Errorf("roi share: have %g (%v), want 1/3", s, err)
	}

	grid, ok := f.Sheet["grid"]
	if !ok {
		t.Fatal("missing grid sheet")
	}
	want := map[string]float64{
		"resolution_m":   1000,
		"columns":        3,
		"rows":           2,
		"cells":          6,
		"occupied_cells": 5,
		"max_count":      5,
		"mean_count":     2.5,
		"species_ranges": 2,
	}
	for _, r := range grid.Rows[1:] {
		name := r.Cells[0].Value
		v, err := r.Cells[1].Float()
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if w, ok := want[name]; !ok || v != w {
			t.Errorf("%s: have %g, want %g", name, v, w)
		}
		delete(want, name)
	}
	if len(want) != 0 {
		t.Errorf("missing statistics: %v", want)
	}
}
