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
	"sort"

	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/floats"
)

// WriteSummary writes a spreadsheet to path with a "species" sheet listing
// each range in ranges and a "grid" sheet with statistics about the cell
// counts in g. roiArea is the area of the region of interest in the units
// of the grid spatial reference, and is used to calculate the share of the
// region covered by each range.
func WriteSummary(path string, ranges []*SpeciesRange, g *Grid, roiArea float64) error {
	f := xlsx.NewFile()

	species, err := f.AddSheet("species")
	if err != nil {
		return fmt.Errorf("hotspot: creating summary: %w", err)
	}
	addRow(species, "binomial", "category", "legend", "area_km2", "roi_share")
	sorted := make([]*SpeciesRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Binomial < sorted[j].Binomial })
	for _, r := range sorted {
		a := r.Area()
		share := 0.
		if roiArea > 0 {
			share = a / roiArea
		}
		addRow(species, r.Binomial, r.Category, r.Legend, a/1.e6, share)
	}

	grid, err := f.AddSheet("grid")
	if err != nil {
		return fmt.Errorf("hotspot: creating summary: %w", err)
	}
	counts := make([]float64, len(g.Cells))
	var occupied int
	for i, c := range g.Cells {
		counts[i] = float64(c.Count)
		if c.Count > 0 {
			occupied++
		}
	}
	var maxCount, meanCount float64
	if len(counts) > 0 {
		maxCount = floats.Max(counts)
		meanCount = floats.Sum(counts) / float64(len(counts))
	}
	addRow(grid, "statistic", "value")
	addRow(grid, "resolution_m", g.Dx)
	addRow(grid, "columns", g.Nx)
	addRow(grid, "rows", g.Ny)
	addRow(grid, "cells", len(g.Cells))
	addRow(grid, "occupied_cells", occupied)
	addRow(grid, "max_count", maxCount)
	addRow(grid, "mean_count", meanCount)
	addRow(grid, "species_ranges", len(ranges))

	if err := f.Save(path); err != nil {
		return fmt.Errorf("hotspot: saving summary %s: %w", path, err)
	}
	return nil
}

func addRow(s *xlsx.Sheet, vals ...interface{}) {
	row := s.AddRow()
	for _, v := range vals {
		c := row.AddCell()
		switch t := v.(type) {
		case string:
			c.SetString(t)
		case int:
			c.SetInt(t)
		case float64:
			c.SetFloat(t)
		default:
			c.SetValue(t)
		}
	}
}
