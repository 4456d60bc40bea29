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
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Exporter runs the export steps of a project.
type Exporter struct {
	Project *Project

	// Log receives progress messages. The standard logrus logger
	// is used if it is nil.
	Log logrus.FieldLogger
}

// Run carries out each export step in order. Before each step, the layers
// made visible by the previous step are hidden, so every image shows one
// layer on top of any layers that were already visible. After the last
// step, the layers of the last step are hidden again.
func (e *Exporter) Run(ctx context.Context) error {
	log := e.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := e.Project
	if p.OutputDir != "" {
		if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
			return fmt.Errorf("layout: creating output directory: %w", err)
		}
	}
	start := time.Now()

	var visible []*Layer
	defer func() {
		for _, l := range visible {
			l.Visible = false
		}
	}()
	for i, s := range p.Exports {
		if err := ctx.Err(); err != nil {
			return err
		}
		stepStart := time.Now()
		log.WithField("layer", s.Layer).Info("exporting layer")

		lyt, err := p.Layout(s.Layout)
		if err != nil {
			return fmt.Errorf("layout: export step %d (%s): %w", i, s.File, err)
		}
		layers, err := lyt.m.ListLayers(s.Layer)
		if err != nil {
			return fmt.Errorf("layout: export step %d (%s): %w", i, s.File, err)
		}
		if len(layers) == 0 {
			return fmt.Errorf("layout: export step %d (%s): no layers named %q in map %q", i, s.File, s.Layer, lyt.Map)
		}
		for _, l := range visible {
			l.Visible = false
		}
		for _, l := range layers {
			l.Visible = true
		}
		visible = layers

		path := filepath.Join(p.OutputDir, s.File)
		if err := exportFile(ctx, lyt, path, s); err != nil {
			return fmt.Errorf("layout: export step %d (%s): %w", i, s.File, err)
		}
		log.WithFields(logrus.Fields{
			"file":    path,
			"layout":  lyt.Name,
			"dpi":     s.Resolution,
			"elapsed": time.Since(stepStart),
		}).Info("exported layer")
	}
	log.WithField("elapsed", time.Since(start)).Info("finished exporting layers")
	return nil
}

func exportFile(ctx context.Context, l *Layout, path string, s *Step) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := l.ExportPNG(ctx, f, s.Resolution, s.transparent()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
