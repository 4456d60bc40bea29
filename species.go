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
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
)

func init() {
	gob.Register(geom.Polygon{})
	gob.Register(geom.MultiPolygon{})
	gob.Register([]*SpeciesRange{})
}

// SpeciesRange is the part of a species' range that falls within
// a region of interest.
type SpeciesRange struct {
	geom.Polygonal

	Binomial string // scientific name
	Legend   string // range description, e.g. "Extant (resident)"
	Category string // IUCN Red List category
	Presence int
	Origin   int
	Seasonal int
}

// speciesRecord holds a row of a species range shapefile
// in the IUCN Red List spatial data format.
type speciesRecord struct {
	geom.Geom
	Binomial string
	Legend   string
	Category string
	Presence int
	Origin   int
	Seasonal int
}

// extinct reports whether the record describes a range where
// the species is extinct.
func (r *speciesRecord) extinct() bool {
	return strings.Contains(r.Legend, "Extinct")
}

// FilterSpecies reads the species range shapefile at path and
// returns the intersection of each range with roi. Ranges that are
// marked as extinct in the legend field and ranges that do not overlap roi
// are left out. Range geometries are converted from the shapefile spatial
// reference (longitude and latitude if there is no .prj file) to sr, which
// must also be the spatial reference of roi.
func FilterSpecies(path string, roi geom.Polygonal, sr *proj.SR) ([]*SpeciesRange, error) {
	f, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("hotspot: opening species shapefile %s: %w", path, err)
	}
	defer f.Close()

	fileSR, err := f.SR()
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("hotspot: reading projection of species shapefile %s: %w", path, err)
		}
		if fileSR, err = proj.Parse(wgs84); err != nil {
			return nil, err
		}
	}
	ct, err := fileSR.NewTransform(sr)
	if err != nil {
		return nil, fmt.Errorf("hotspot: creating transform for species shapefile %s: %w", path, err)
	}

	roiBounds := roi.Bounds()
	var o []*SpeciesRange
	var extinct, outside int
	for i := 0; ; i++ {
		var rec speciesRecord
		if more := f.DecodeRow(&rec); !more {
			break
		}
		if rec.extinct() {
			extinct++
			continue
		}
		if rec.Geom == nil {
			continue
		}
		g, err := rec.Transform(ct)
		if err != nil {
			return nil, fmt.Errorf("hotspot: converting species range %d (%s) in %s: %w", i, rec.Binomial, path, err)
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("hotspot: species range %d (%s) in %s has geometry type %T, which is not polygonal", i, rec.Binomial, path, g)
		}
		if !p.Bounds().Overlaps(roiBounds) {
			outside++
			continue
		}
		isect := p.Intersection(roi)
		if isect == nil || isect.Area() <= 0 {
			outside++
			continue
		}
		o = append(o, &SpeciesRange{
			Polygonal: isect,
			Binomial:  rec.Binomial,
			Legend:    rec.Legend,
			Category:  rec.Category,
			Presence:  rec.Presence,
			Origin:    rec.Origin,
			Seasonal:  rec.Seasonal,
		})
	}
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("hotspot: reading species shapefile %s: %w", path, err)
	}
	logrus.WithFields(logrus.Fields{
		"file":    filepath.Base(path),
		"kept":    len(o),
		"extinct": extinct,
		"outside": outside,
	}).Info("filtered species ranges")
	return o, nil
}

// SpeciesCache avoids repeatedly reading and intersecting the same
// species range files. It is safe for concurrent use.
type SpeciesCache struct {
	// Dir, if not empty, is a directory where results are stored
	// between program runs.
	Dir string

	// MaxEntries is the number of results to keep in memory.
	MaxEntries int

	once  sync.Once
	cache *requestcache.Cache
	err   error
}

type speciesRequest struct {
	path string
	roi  geom.Polygonal
	sr   *proj.SR
}

// Filter returns the result of FilterSpecies for the given inputs,
// computing it only if it has not been computed before.
// Callers should not modify the returned ranges.
func (c *SpeciesCache) Filter(ctx context.Context, path string, roi geom.Polygonal, sr *proj.SR, proj4 string) ([]*SpeciesRange, error) {
	c.once.Do(func() {
		n := c.MaxEntries
		if n <= 0 {
			n = 10
		}
		funcs := []requestcache.CacheFunc{requestcache.Deduplicate(), requestcache.Memory(n)}
		if c.Dir != "" {
			if c.err = os.MkdirAll(c.Dir, 0755); c.err != nil {
				c.err = fmt.Errorf("hotspot: creating species cache directory: %w", c.err)
				return
			}
			funcs = append(funcs, requestcache.Disk(c.Dir, requestcache.MarshalGob, requestcache.UnmarshalGob))
		}
		c.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			r := request.(speciesRequest)
			return FilterSpecies(r.path, r.roi, r.sr)
		}, runtime.GOMAXPROCS(-1), funcs...)
	})
	if c.err != nil {
		return nil, c.err
	}
	req := c.cache.NewRequest(ctx, speciesRequest{path: path, roi: roi, sr: sr}, speciesKey(path, roi, proj4))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.([]*SpeciesRange), nil
}

// speciesKey returns a file-name-safe key identifying a species filtering
// request.
func speciesKey(path string, roi geom.Polygonal, proj4 string) string {
	h := fnv.New64a()
	fmt.Fprint(h, path, roi, proj4)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("species_%s_%x", base, h.Sum64())
}
