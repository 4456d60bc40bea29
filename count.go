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
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// CountMode specifies how a species range must overlap a polygonal
// grid cell for the species to be counted in that cell.
// Point cells are counted when they fall strictly inside a range;
// points on a range edge or vertex are not counted.
type CountMode int

const (
	// Contains counts a species when its range completely covers the cell.
	Contains CountMode = iota
	// Intersects counts a species when its range covers any part of the cell.
	Intersects
	// Centroid counts a species when its range covers the cell center.
	Centroid
)

// containsTolerance is the relative difference in area between a cell
// and its overlap with a range below which the range is considered
// to cover the cell.
const containsTolerance = 1.e-9

func (m CountMode) String() string {
	switch m {
	case Contains:
		return "contains"
	case Intersects:
		return "intersects"
	case Centroid:
		return "centroid"
	default:
		return fmt.Sprintf("CountMode(%d)", int(m))
	}
}

// ParseCountMode returns the CountMode with the given name.
func ParseCountMode(s string) (CountMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contains", "":
		return Contains, nil
	case "intersects":
		return Intersects, nil
	case "centroid":
		return Centroid, nil
	default:
		return 0, fmt.Errorf("hotspot: invalid count mode %q; valid options are contains, intersects, and centroid", s)
	}
}

// CountSpecies returns, for each of cells, the number of ranges
// that overlap it according to mode. Cells may be points or polygons.
func CountSpecies(ctx context.Context, ranges []*SpeciesRange, cells []geom.Geom, mode CountMode) ([]int, error) {
	index := rtree.NewTree(25, 50)
	for _, r := range ranges {
		index.Insert(r)
	}

	counts := make([]int, len(cells))
	nprocs := runtime.GOMAXPROCS(-1)
	errs := make(chan error, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for k, i := 0, p; i < len(cells); k, i = k+1, i+nprocs {
				if k%256 == 0 {
					if err := ctx.Err(); err != nil {
						errs <- err
						return
					}
				}
				n, err := countCell(index, cells[i], mode)
				if err != nil {
					errs <- fmt.Errorf("hotspot: counting species in cell %d: %w", i, err)
					return
				}
				counts[i] = n
			}
		}(p)
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, err
	}
	return counts, nil
}

// countCell returns the number of ranges in index that overlap cell.
func countCell(index *rtree.Rtree, cell geom.Geom, mode CountMode) (int, error) {
	var n int
	for _, g := range index.SearchIntersect(cell.Bounds()) {
		r := g.(*SpeciesRange)
		in, err := covers(r.Polygonal, cell, mode)
		if err != nil {
			return 0, err
		}
		if in {
			n++
		}
	}
	return n, nil
}

// covers reports whether r covers cell according to mode.
func covers(r geom.Polygonal, cell geom.Geom, mode CountMode) (bool, error) {
	switch c := cell.(type) {
	case geom.Point:
		return c.Within(r) == geom.Inside, nil
	case *geom.Point:
		return c.Within(r) == geom.Inside, nil
	case geom.Polygonal:
		switch mode {
		case Contains:
			a := c.Area()
			return a > 0 && r.Intersection(c).Area() >= a*(1-containsTolerance), nil
		case Intersects:
			return r.Intersection(c).Area() > 0, nil
		case Centroid:
			return c.Centroid().Within(r) == geom.Inside, nil
		default:
			return false, fmt.Errorf("invalid count mode %v", mode)
		}
	default:
		return false, fmt.Errorf("unsupported cell geometry type %T", cell)
	}
}
