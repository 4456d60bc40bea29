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

package layout

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/airbusgeo/godal"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/carto"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

func init() {
	godal.RegisterAll()
}

// ExportPNG draws the visible layers of the layout's map, in map order,
// and writes the result to w as a PNG image with the given resolution
// in dots per inch. If transparent is false, the background is white.
func (l *Layout) ExportPNG(ctx context.Context, w io.Writer, dpi int, transparent bool) error {
	if l.m == nil {
		return fmt.Errorf("layout: layout %q is not part of a project", l.Name)
	}
	bg := color.Color(color.White)
	if transparent {
		bg = color.Transparent
	}
	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(l.Width)*vg.Inch, vg.Length(l.Height)*vg.Inch),
		vgimg.UseDPI(dpi),
		vgimg.UseBackgroundColor(bg),
	)
	b, err := l.extent()
	if err != nil {
		return err
	}
	c := carto.NewCanvas(b.Max.Y, b.Min.Y, b.Max.X, b.Min.X, draw.New(img))
	nx := int(math.Round(l.Width * float64(dpi)))
	ny := int(math.Round(l.Height * float64(dpi)))

	for _, layer := range l.m.Layers {
		if !layer.Visible {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		switch layer.Kind {
		case Vector:
			err = l.drawVector(c, layer)
		case Raster:
			err = l.drawRaster(c, layer, b, nx, ny)
		}
		if err != nil {
			return err
		}
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("layout: writing image for layout %q: %w", l.Name, err)
	}
	return nil
}

// extent returns the map area of the layout, expanded in one direction
// so that it has the same aspect ratio as the page.
func (l *Layout) extent() (*geom.Bounds, error) {
	b := geom.NewBounds()
	if len(l.Extent) == 4 {
		b.Min = geom.Point{X: l.Extent[0], Y: l.Extent[1]}
		b.Max = geom.Point{X: l.Extent[2], Y: l.Extent[3]}
	} else {
		for _, layer := range l.m.Layers {
			lb, err := l.layerBounds(layer)
			if err != nil {
				return nil, err
			}
			b.Extend(lb)
		}
	}
	w, h := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	if !(w > 0) || !(h > 0) {
		return nil, fmt.Errorf("layout: layout %q has an empty extent", l.Name)
	}
	aspect := l.Width / l.Height
	if w/h > aspect {
		pad := (w/aspect - h) / 2
		b.Min.Y -= pad
		b.Max.Y += pad
	} else {
		pad := (h*aspect - w) / 2
		b.Min.X -= pad
		b.Max.X += pad
	}
	return b, nil
}

// layerBounds returns the extent of the layer in the layout spatial reference.
func (l *Layout) layerBounds(layer *Layer) (*geom.Bounds, error) {
	switch layer.Kind {
	case Vector:
		b := geom.NewBounds()
		err := l.readVector(layer, func(g geom.Geom) error {
			b.Extend(g.Bounds())
			return nil
		})
		return b, err
	default:
		ds, err := godal.Open(layer.Source)
		if err != nil {
			return nil, fmt.Errorf("layout: opening raster layer %q: %w", layer.Name, err)
		}
		defer ds.Close()
		sr, err := godal.NewSpatialRefFromProj4(l.SRS)
		if err != nil {
			return nil, fmt.Errorf("layout: layout %q spatial reference: %w", l.Name, err)
		}
		defer sr.Close()
		bb, err := ds.Bounds(sr)
		if err != nil {
			return nil, fmt.Errorf("layout: extent of raster layer %q: %w", layer.Name, err)
		}
		return &geom.Bounds{
			Min: geom.Point{X: bb[0], Y: bb[1]},
			Max: geom.Point{X: bb[2], Y: bb[3]},
		}, nil
	}
}

// readVector calls f with each shape in the layer's shapefile, converted
// to the layout spatial reference.
func (l *Layout) readVector(layer *Layer, f func(geom.Geom) error) error {
	d, err := shp.NewDecoder(layer.Source)
	if err != nil {
		return fmt.Errorf("layout: opening vector layer %q: %w", layer.Name, err)
	}
	defer d.Close()

	src, err := d.SR()
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("layout: projection of vector layer %q: %w", layer.Name, err)
		}
		if src, err = proj.Parse(wgs84); err != nil {
			return err
		}
	}
	dst, err := proj.Parse(l.SRS)
	if err != nil {
		return fmt.Errorf("layout: layout %q spatial reference: %w", l.Name, err)
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return fmt.Errorf("layout: vector layer %q: %w", layer.Name, err)
	}
	for {
		var rec struct{ geom.Geom }
		if !d.DecodeRow(&rec) {
			break
		}
		if rec.Geom == nil {
			continue
		}
		g, err := rec.Transform(ct)
		if err != nil {
			return fmt.Errorf("layout: vector layer %q: %w", layer.Name, err)
		}
		if err := f(g); err != nil {
			return err
		}
	}
	if err := d.Error(); err != nil {
		return fmt.Errorf("layout: reading vector layer %q: %w", layer.Name, err)
	}
	return nil
}

func (l *Layout) drawVector(c *carto.Canvas, layer *Layer) error {
	fill, _ := parseColor(layer.Fill)
	stroke, _ := parseColor(layer.Stroke)
	ls := draw.LineStyle{Color: stroke, Width: vg.Points(layer.LineWidth)}
	glyph := draw.GlyphStyle{Color: stroke, Radius: vg.Points(2), Shape: draw.CircleGlyph{}}
	return l.readVector(layer, func(g geom.Geom) error {
		if err := c.DrawVector(g, fill, ls, glyph); err != nil {
			return fmt.Errorf("layout: drawing vector layer %q: %w", layer.Name, err)
		}
		return nil
	})
}

// drawRaster warps the layer's raster onto an nx by ny pixel grid
// covering b and draws it on c.
func (l *Layout) drawRaster(c *carto.Canvas, layer *Layer, b *geom.Bounds, nx, ny int) error {
	src, err := godal.Open(layer.Source)
	if err != nil {
		return fmt.Errorf("layout: opening raster layer %q: %w", layer.Name, err)
	}
	defer src.Close()
	ds, err := src.Warp("", []string{
		"-t_srs", l.SRS,
		"-te", ftoa(b.Min.X), ftoa(b.Min.Y), ftoa(b.Max.X), ftoa(b.Max.Y),
		"-ts", fmt.Sprint(nx), fmt.Sprint(ny),
		"-r", "bilinear",
	}, godal.Memory)
	if err != nil {
		return fmt.Errorf("layout: warping raster layer %q: %w", layer.Name, err)
	}
	defer ds.Close()

	var img image.Image
	st := ds.Structure()
	if st.NBands >= 3 && st.DataType == godal.Byte {
		img, err = rgbImage(ds, nx, ny)
	} else {
		img, err = scalarImage(ds.Bands()[0], nx, ny, layer.Fill)
	}
	if err != nil {
		return fmt.Errorf("layout: reading raster layer %q: %w", layer.Name, err)
	}
	c.DrawImage(vg.Rectangle{
		Min: c.Coordinates(b.Min),
		Max: c.Coordinates(b.Max),
	}, img)
	return nil
}

// rgbImage reads the first three bands, and the fourth as alpha if present.
// Black pixels in rasters without an alpha band are treated as empty.
func rgbImage(ds *godal.Dataset, nx, ny int) (image.Image, error) {
	nb := ds.Structure().NBands
	bands := []int{0, 1, 2}
	if nb >= 4 {
		bands = append(bands, 3)
	}
	buf := make([]byte, nx*ny*len(bands))
	if err := ds.Read(0, 0, buf, nx, ny, godal.Bands(bands...)); err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, nx, ny))
	for i := 0; i < nx*ny; i++ {
		px := buf[i*len(bands) : (i+1)*len(bands)]
		a := uint8(255)
		if len(px) == 4 {
			a = px[3]
		} else if px[0] == 0 && px[1] == 0 && px[2] == 0 {
			a = 0
		}
		img.Pix[i*4], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3] = px[0], px[1], px[2], a
	}
	return img, nil
}

// scalarImage colors a single band from its minimum to its maximum value.
// Nodata pixels are left transparent.
func scalarImage(band godal.Band, nx, ny int, fill string) (image.Image, error) {
	buf := make([]float64, nx*ny)
	if err := band.Read(0, 0, buf, nx, ny); err != nil {
		return nil, err
	}
	nodata, hasNoData := band.NoData()
	valid := func(v float64) bool {
		return !math.IsNaN(v) && !(hasNoData && v == nodata)
	}
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range buf {
		if valid(v) {
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
	}
	img := image.NewNRGBA(image.Rect(0, 0, nx, ny))
	if math.IsInf(min, 1) {
		return img, nil
	}
	if max == min {
		max = min + 1
	}
	cmap, err := rasterColorMap(fill)
	if err != nil {
		return nil, err
	}
	cmap.SetMin(min)
	cmap.SetMax(max)
	for i, v := range buf {
		if !valid(v) {
			continue
		}
		cc, err := cmap.At(v)
		if err != nil {
			return nil, err
		}
		img.Set(i%nx, i/nx, cc)
	}
	return img, nil
}

// rasterColorMap returns a white-to-fill color scale, or a black body
// scale if fill is empty.
func rasterColorMap(fill string) (palette.ColorMap, error) {
	if fill == "" {
		return moreland.ExtendedBlackBody(), nil
	}
	c, err := parseColor(fill)
	if err != nil {
		return nil, err
	}
	lum, err := moreland.NewLuminance([]color.Color{c, color.White})
	if err != nil {
		return nil, fmt.Errorf("fill color %s: %w", fill, err)
	}
	return palette.Reverse(lum), nil
}

func ftoa(f float64) string { return fmt.Sprintf("%.10g", f) }
