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
	"image/color"
	"io"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/carto"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// greens are the end points of the color scale used for species counts,
// in order of increasing luminance.
var greens = []color.Color{
	color.NRGBA{R: 0, G: 68, B: 27, A: 255},
	color.NRGBA{R: 247, G: 252, B: 245, A: 255},
}

// PlotOptions specify the size of an abundance map.
type PlotOptions struct {
	Width, Height vg.Length
	DPI           int
}

// DefaultPlotOptions creates a 20 by 10 inch map at 96 dots per inch.
var DefaultPlotOptions = PlotOptions{Width: 20 * vg.Inch, Height: 10 * vg.Inch, DPI: 96}

// AbundanceTitle returns the title used for a map of the number of
// species of a group in a region, e.g. "Amphibian Abundance in CR".
func AbundanceTitle(speciesName, region string) string {
	return fmt.Sprintf("%s Abundance in %s", speciesName, region)
}

// PlotAbundance draws a PNG map of the species counts in g to w.
// The basemap geometries, which must use the grid spatial reference,
// are drawn first with black outlines, and the cells are colored on a
// white-to-green scale shown in a legend to the right of the map.
func PlotAbundance(w io.Writer, g *Grid, basemap []geom.Geom, title string, opts PlotOptions) error {
	if opts.DPI == 0 {
		opts = DefaultPlotOptions
	}
	maxCount, _ := g.countStats()
	lum, err := moreland.NewLuminance(greens)
	if err != nil {
		return fmt.Errorf("hotspot: creating color map: %w", err)
	}
	cmap := palette.Reverse(lum)
	cmap.SetMin(0)
	cmap.SetMax(maxCount)
	if maxCount == 0 {
		cmap.SetMax(1)
	}

	img := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	dc := draw.New(img)
	legendWidth := opts.Width * 0.12
	mapArea := draw.Crop(dc, 0, -legendWidth, 0, 0)
	legendArea := draw.Crop(dc, opts.Width-legendWidth, 0, 0, 0)

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = 20
	p.HideAxes()
	p.Draw(mapArea)

	b := geom.NewBounds()
	for _, c := range g.Cells {
		b.Extend(c.Bounds())
	}
	for _, bg := range basemap {
		b.Extend(bg.Bounds())
	}
	m := carto.NewCanvas(b.Max.Y, b.Min.Y, b.Max.X, b.Min.X, p.DataCanvas(mapArea))

	outline := draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
	for _, bg := range basemap {
		if err := m.DrawVector(bg, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, outline, draw.GlyphStyle{}); err != nil {
			return fmt.Errorf("hotspot: drawing basemap: %w", err)
		}
	}
	for _, c := range g.Cells {
		cc, err := cmap.At(float64(c.Count))
		if err != nil {
			return fmt.Errorf("hotspot: coloring cell %d: %w", c.Index, err)
		}
		fill := color.NRGBAModel.Convert(cc).(color.NRGBA)
		ls := draw.LineStyle{Color: fill, Width: vg.Points(0.1)}
		if err := m.DrawVector(c.Polygon, fill, ls, draw.GlyphStyle{}); err != nil {
			return fmt.Errorf("hotspot: drawing cell %d: %w", c.Index, err)
		}
	}

	legend := plot.New()
	legend.HideX()
	legend.Y.Label.Text = "species_count"
	legend.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true})
	legend.Draw(draw.Crop(legendArea, vg.Inch*0.2, -vg.Inch*0.2, opts.Height*0.1, -opts.Height*0.1))

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("hotspot: writing abundance map: %w", err)
	}
	return nil
}
