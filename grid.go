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
	"github.com/ctessum/sparse"
)

// Cell is a single square cell in a Grid.
type Cell struct {
	geom.Polygon

	// Row and Col are the location of the cell in the grid, where
	// row 0 is the northernmost row and column 0 is the westernmost column.
	Row, Col int

	// Index is the position of the cell in an unclipped grid.
	// Cells are ordered by column and then by row, so
	// Index = Col*Ny + Row.
	Index int

	// Count is the number of species ranges that overlap the cell.
	Count int
}

// Grid is a regular grid of square cells covering the bounding box of
// a region of interest.
type Grid struct {
	// Xmin and Ymax are the coordinates of the upper left corner
	// of the grid.
	Xmin, Ymax float64

	// Dx is the edge length of each grid cell, in the units of the
	// grid spatial reference (typically meters).
	Dx float64

	// Nx and Ny are the number of columns and rows in the grid.
	Nx, Ny int

	// Proj4 is the spatial reference of the grid in proj4 format.
	Proj4 string

	Cells []*Cell

	clipped bool
	index   map[[2]int]*Cell
}

// NewGrid creates a grid of square cells with edge length resolution
// that covers the bounding box of roi. The grid is anchored at the upper
// left corner of the bounding box; the last row and column may extend past
// the bounds. Cells are ordered column by column from west to east, and
// within each column from north to south. proj4 is the spatial reference
// roi is in; it is carried through to the grid outputs.
func NewGrid(roi geom.Polygonal, resolution float64, proj4 string) (*Grid, error) {
	if !(resolution > 0) {
		return nil, fmt.Errorf("hotspot: grid resolution must be > 0 but is %g", resolution)
	}
	b := roi.Bounds()
	if b == nil || b.Empty() {
		return nil, fmt.Errorf("hotspot: region of interest is empty")
	}
	g := &Grid{
		Xmin:  b.Min.X,
		Ymax:  b.Max.Y,
		Dx:    resolution,
		Nx:    int(math.Ceil((b.Max.X - b.Min.X) / resolution)),
		Ny:    int(math.Ceil((b.Max.Y - b.Min.Y) / resolution)),
		Proj4: proj4,
	}
	if g.Nx == 0 || g.Ny == 0 {
		return nil, fmt.Errorf("hotspot: region of interest bounds %v have zero width or height", b)
	}
	g.Cells = make([]*Cell, 0, g.Nx*g.Ny)
	g.index = make(map[[2]int]*Cell, g.Nx*g.Ny)
	for col := 0; col < g.Nx; col++ {
		left := g.Xmin + float64(col)*resolution
		right := left + resolution
		for row := 0; row < g.Ny; row++ {
			top := g.Ymax - float64(row)*resolution
			bottom := top - resolution
			c := &Cell{
				Polygon: geom.Polygon{{
					{X: left, Y: top},
					{X: right, Y: top},
					{X: right, Y: bottom},
					{X: left, Y: bottom},
				}},
				Row:   row,
				Col:   col,
				Index: col*g.Ny + row,
			}
			g.Cells = append(g.Cells, c)
			g.index[[2]int{row, col}] = c
		}
	}
	return g, nil
}

// SR returns the parsed spatial reference of the grid.
func (g *Grid) SR() (*proj.SR, error) {
	sr, err := proj.Parse(g.Proj4)
	if err != nil {
		return nil, fmt.Errorf("hotspot: parsing grid spatial reference: %w", err)
	}
	return sr, nil
}

// CellAt returns the cell at the given row and column,
// or nil if there is no such cell (for example, if the grid has been
// clipped).
func (g *Grid) CellAt(row, col int) *Cell {
	if row < 0 || col < 0 || row >= g.Ny || col >= g.Nx {
		return nil
	}
	if !g.clipped {
		return g.Cells[col*g.Ny+row]
	}
	return g.index[[2]int{row, col}]
}

// Clip removes the cells that do not overlap roi.
func (g *Grid) Clip(roi geom.Polygonal) {
	rb := roi.Bounds()
	cells := g.Cells[:0]
	for _, c := range g.Cells {
		if c.Bounds().Overlaps(rb) && c.Intersection(roi).Area() > 0 {
			cells = append(cells, c)
		} else {
			delete(g.index, [2]int{c.Row, c.Col})
		}
	}
	g.Cells = cells
	g.clipped = true
}

// Clipped returns whether cells have been removed from the grid.
func (g *Grid) Clipped() bool { return g.clipped }

// GeoTransform returns the GDAL affine transform of the grid:
// [xmin, dx, 0, ymax, 0, -dx].
func (g *Grid) GeoTransform() [6]float64 {
	return [6]float64{g.Xmin, g.Dx, 0, g.Ymax, 0, -g.Dx}
}

// Geoms returns the cells as geometries, for use with CountSpecies.
func (g *Grid) Geoms() []geom.Geom {
	o := make([]geom.Geom, len(g.Cells))
	for i, c := range g.Cells {
		o[i] = c.Polygon
	}
	return o
}

// SetCounts stores species counts, which must be in the same order as
// g.Cells, in the grid cells.
func (g *Grid) SetCounts(counts []int) error {
	if len(counts) != len(g.Cells) {
		return fmt.Errorf("hotspot: %d counts for %d grid cells", len(counts), len(g.Cells))
	}
	for i, c := range g.Cells {
		c.Count = counts[i]
	}
	return nil
}

// Raster returns the cell counts as an array with shape [Ny, Nx], where
// row 0 is the northernmost row. Locations without a cell are set to
// nodata.
func (g *Grid) Raster(nodata float64) *sparse.DenseArray {
	r := sparse.ZerosDense(g.Ny, g.Nx)
	if g.clipped {
		for i := range r.Elements {
			r.Elements[i] = nodata
		}
	}
	for _, c := range g.Cells {
		r.Set(float64(c.Count), c.Row, c.Col)
	}
	return r
}

// Per-meter step sizes in decimal degrees used by GridPoints.
const (
	lonPerMeter = 0.000008983
	latPerMeter = 0.000010966
)

// GridPoints returns a regular set of points spaced approximately
// resolution meters apart that fall inside roi, which must be in
// longitude and latitude coordinates. Points are ordered by longitude and
// then latitude, starting at the lower left corner of the bounding box of
// roi. Points on the boundary of roi are not included.
func GridPoints(roi geom.Polygonal, resolution float64) ([]geom.Point, error) {
	if !(resolution > 0) {
		return nil, fmt.Errorf("hotspot: grid resolution must be > 0 but is %g", resolution)
	}
	b := roi.Bounds()
	if b == nil || b.Empty() {
		return nil, fmt.Errorf("hotspot: region of interest is empty")
	}
	dx := resolution * lonPerMeter
	dy := resolution * latPerMeter
	nx := int(math.Ceil((b.Max.X - b.Min.X) / dx))
	ny := int(math.Ceil((b.Max.Y - b.Min.Y) / dy))
	var o []geom.Point
	for i := 0; i < nx; i++ {
		x := b.Min.X + float64(i)*dx
		for j := 0; j < ny; j++ {
			p := geom.Point{X: x, Y: b.Min.Y + float64(j)*dy}
			if p.Within(roi) == geom.Inside {
				o = append(o, p)
			}
		}
	}
	return o, nil
}
