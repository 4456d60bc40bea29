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

import "path/filepath"

// costaRicaExtent is the Costa Rica map area in longitude and latitude.
var costaRicaExtent = []float64{-86.2, 8.0, -82.5, 11.3}

// DefaultProject returns the Costa Rica hotspot mapping project, with
// layer data read from dataDir and images written to outputDir.
// The export steps produce one image per thematic layer on the
// CostaRica layout at 150 dpi and one image per base layer on the
// larger CostaRica_10x layout at 15 dpi.
func DefaultProject(dataDir, outputDir string) *Project {
	src := func(file string) string { return filepath.Join(dataDir, file) }
	vector := func(name, file, fill, stroke string) *Layer {
		return &Layer{Name: name, Source: src(file), Kind: Vector, Fill: fill, Stroke: stroke, LineWidth: 0.5}
	}
	raster := func(name, file string) *Layer {
		return &Layer{Name: name, Source: src(file), Kind: Raster}
	}
	m := &Map{
		Name: "Costa Rica",
		Layers: []*Layer{
			raster("World Ocean Base", "WorldOceanBase.tif"),
			raster("World Imagery", "WorldImagery.tif"),
			raster("Terrain: Multi-Directional Hillshade", "Hillshade.tif"),
			raster("TerrestrialMSA_2015_World_Clip", "TerrestrialMSA_2015_World_Clip.tif"),
			raster("TerrestrialMSA_2050_SSP3_RCP6_Clip", "TerrestrialMSA_2050_SSP3_RCP6_Clip.tif"),
			raster("MSA_Loss_2050_SSP3RCP6", "MSA_Loss_2050_SSP3RCP6.tif"),
			raster("Land_Cover_Vulnerability_2050_Mask", "Land_Cover_Vulnerability_2050_Mask.tif"),
			raster("Anthromes_Reclass_10m", "Anthromes_Reclass_10m.tif"),
			raster("Anthromes_10m_UrbanMask", "Anthromes_10m_UrbanMask.tif"),
			raster("POPULATION", "POPULATION.tif"),
			raster("1km Urban Expansion", "UrbanExpansion_2050_1km.tif"),
			raster("species_count_Mam_Rep_Amph", "species_count_Mam_Rep_Amph.tif"),
			vector("WDPA_Graduated", "WDPA_CostaRica.shp", "#31a35480", "#006d2c"),
			vector("Mask_CostaRica", "Mask_CostaRica.shp", "#ffffff", ""),
			vector("OSM", "OSM_Roads_CostaRica.shp", "", "#636363"),
			vector("WorldWaterBodies", "WorldWaterBodies.shp", "#9ecae1", "#3182bd"),
		},
	}
	layouts := []*Layout{
		{Name: "CostaRica", Map: m.Name, Width: 11, Height: 8.5, Extent: costaRicaExtent},
		{Name: "CostaRica_10x", Map: m.Name, Width: 110, Height: 85, Extent: costaRicaExtent},
	}
	var steps []*Step
	for _, s := range []struct{ layer, file string }{
		{"WorldWaterBodies", "Water.PNG"},
		{"OSM", "Roads.PNG"},
		{"Mask_CostaRica", "Mask.PNG"},
		{"WDPA_Graduated", "WDPA_Graduated.PNG"},
		{"Anthromes_10m_UrbanMask", "UrbanMask.PNG"},
		{"Anthromes_Reclass_10m", "RemnantHabitat.PNG"},
		{"POPULATION", "PopDensity.PNG"},
		{"1km Urban Expansion", "UrbanExpansion_2050.PNG"},
		{"species_count_Mam_Rep_Amph", "species_counts.PNG"},
		{"TerrestrialMSA_2050_SSP3_RCP6_Clip", "MSA_2050_SSP3_RCP6.PNG"},
		{"TerrestrialMSA_2015_World_Clip", "MSA_2015.PNG"},
		{"MSA_Loss_2050_SSP3RCP6", "MSA_Change_2050_SSP3_RCP6.PNG"},
		{"Land_Cover_Vulnerability_2050_Mask", "Land_Cover_Vulnerability_2050.PNG"},
	} {
		steps = append(steps, &Step{Layout: "CostaRica", Layer: s.layer, File: s.file, Resolution: 150})
	}
	for _, s := range []struct{ layer, file string }{
		{"Terrain: Multi-Directional Hillshade", "Hillshade.PNG"},
		{"World Imagery", "Aerial.PNG"},
		{"World Ocean Base", "Ocean.PNG"},
	} {
		steps = append(steps, &Step{Layout: "CostaRica_10x", Layer: s.layer, File: s.file, Resolution: 15})
	}
	p := &Project{
		OutputDir: outputDir,
		Maps:      []*Map{m},
		Layouts:   layouts,
		Exports:   steps,
	}
	if err := p.init(); err != nil {
		panic(err)
	}
	return p
}
