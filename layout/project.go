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

// Package layout renders sequences of map layers to transparent PNG images.
//
// A Project holds maps, which are ordered stacks of layers, and layouts,
// which are fixed-size views of a map. Export steps make one layer
// visible at a time and write the layout to an image file.
package layout

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Layer kinds.
const (
	Vector = "vector"
	Raster = "raster"
)

// Layer is a single data source drawn on a map.
type Layer struct {
	Name string

	// Source is the path to a shapefile for vector layers or to any
	// GDAL-readable raster for raster layers. It can include
	// environment variables.
	Source string

	// Kind is either "vector" or "raster".
	Kind string

	// Fill and Stroke are hex colors in the format "#RRGGBB" or "#RRGGBBAA".
	Fill, Stroke string

	// LineWidth is the vector outline width in points.
	LineWidth float64

	Visible bool
}

// Map is an ordered stack of layers. Layers later in the list are
// drawn on top of earlier ones.
type Map struct {
	Name   string
	Layers []*Layer `toml:"Layer"`
}

// ListLayers returns the layers whose names match pattern, which can
// contain the wildcards accepted by filepath.Match.
func (m *Map) ListLayers(pattern string) ([]*Layer, error) {
	var o []*Layer
	for _, l := range m.Layers {
		ok, err := filepath.Match(pattern, l.Name)
		if err != nil {
			return nil, fmt.Errorf("layout: listing layers matching %q: %w", pattern, err)
		}
		if ok {
			o = append(o, l)
		}
	}
	return o, nil
}

// Layout is a view of a map with a fixed page size.
type Layout struct {
	Name string

	// Map is the name of the map that is shown in this layout.
	Map string

	// Width and Height are the page dimensions in inches.
	Width, Height float64

	// Extent is the map area shown in the layout in the
	// format [W, S, E, N]. If it is empty, the combined extent
	// of all the layers in the map is used.
	Extent []float64

	// SRS is the layout spatial reference in proj4 format.
	// The default is longitude-latitude on the WGS84 datum.
	SRS string

	m *Map
}

// Step is one image export.
type Step struct {
	// Layout is the name of the layout to export.
	Layout string

	// Layer is the name (or wildcard pattern) of the layers to make visible.
	Layer string

	// File is the output file name, relative to the project output directory.
	File string

	// Resolution is the output resolution in dots per inch.
	Resolution int

	// Transparent specifies whether the image background should be
	// transparent. The default is true.
	Transparent *bool
}

// transparent returns whether the step should have a transparent background.
func (s *Step) transparent() bool {
	return s.Transparent == nil || *s.Transparent
}

// Project holds a set of maps and layouts and the exports to make
// from them.
type Project struct {
	// OutputDir is the directory where exported images are written.
	OutputDir string

	Maps    []*Map    `toml:"Map"`
	Layouts []*Layout `toml:"Layout"`
	Exports []*Step   `toml:"Export"`
}

// Load reads a project from the TOML file at path.
func Load(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("layout: opening project file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a project in TOML format from r and checks it for errors.
func Decode(r io.Reader) (*Project, error) {
	p := new(Project)
	if _, err := toml.NewDecoder(r).Decode(p); err != nil {
		return nil, fmt.Errorf("layout: decoding project: %w", err)
	}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode writes p to w in TOML format.
func (p *Project) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("layout: encoding project: %w", err)
	}
	return nil
}

// init links layouts to their maps, expands environment variables,
// fills in defaults, and checks for errors.
func (p *Project) init() error {
	p.OutputDir = os.ExpandEnv(p.OutputDir)
	maps := make(map[string]*Map)
	for _, m := range p.Maps {
		if _, ok := maps[m.Name]; ok {
			return fmt.Errorf("layout: duplicate map name %q", m.Name)
		}
		maps[m.Name] = m
		for _, l := range m.Layers {
			l.Source = os.ExpandEnv(l.Source)
			l.Kind = strings.ToLower(l.Kind)
			if l.Kind != Vector && l.Kind != Raster {
				return fmt.Errorf("layout: layer %q in map %q has invalid kind %q; it must be %q or %q",
					l.Name, m.Name, l.Kind, Vector, Raster)
			}
			for _, c := range []string{l.Fill, l.Stroke} {
				if _, err := parseColor(c); err != nil {
					return fmt.Errorf("layout: layer %q: %w", l.Name, err)
				}
			}
		}
	}
	for _, l := range p.Layouts {
		m, ok := maps[l.Map]
		if !ok {
			return fmt.Errorf("layout: layout %q refers to missing map %q", l.Name, l.Map)
		}
		l.m = m
		if !(l.Width > 0) || !(l.Height > 0) {
			return fmt.Errorf("layout: layout %q has invalid size %gx%g", l.Name, l.Width, l.Height)
		}
		if len(l.Extent) != 0 && len(l.Extent) != 4 {
			return fmt.Errorf("layout: layout %q extent must have 4 values [W, S, E, N] but has %d", l.Name, len(l.Extent))
		}
		if l.SRS == "" {
			l.SRS = wgs84
		}
	}
	for i, s := range p.Exports {
		if _, err := p.Layout(s.Layout); err != nil {
			return fmt.Errorf("layout: export step %d: %w", i, err)
		}
		if s.File == "" {
			return fmt.Errorf("layout: export step %d (%s) has no output file", i, s.Layer)
		}
		if s.Resolution <= 0 {
			return fmt.Errorf("layout: export step %d (%s) has invalid resolution %d", i, s.Layer, s.Resolution)
		}
	}
	return nil
}

// Map returns the map with the given name.
func (p *Project) Map(name string) (*Map, error) {
	for _, m := range p.Maps {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("layout: no map named %q", name)
}

// Layout returns the layout with the given name.
func (p *Project) Layout(name string) (*Layout, error) {
	for _, l := range p.Layouts {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("layout: no layout named %q", name)
}

const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"

// parseColor parses a color in the format "#RRGGBB" or "#RRGGBBAA".
// An empty string is a fully transparent color.
func parseColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{}, nil
	}
	c := color.NRGBA{A: 255}
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 9:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("wrong length")
	}
	if err != nil {
		return c, fmt.Errorf("invalid color %q: %v", s, err)
	}
	return c, nil
}
