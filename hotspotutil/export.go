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

package hotspotutil

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/hotspot/layout"
)

// Export runs the export steps in the project file at projectFile, or in
// the built-in Costa Rica project with data from dataDir if projectFile
// is empty. If outputDir is not empty, it replaces the project output
// directory.
func Export(ctx context.Context, projectFile, dataDir, outputDir string) error {
	var p *layout.Project
	if projectFile == "" {
		p = layout.DefaultProject(dataDir, outputDir)
	} else {
		var err error
		if p, err = layout.Load(projectFile); err != nil {
			return err
		}
	}
	if outputDir != "" {
		p.OutputDir = outputDir
	}
	e := &layout.Exporter{Project: p, Log: logrus.StandardLogger()}
	return e.Run(ctx)
}
