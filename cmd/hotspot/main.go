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

// Command hotspot is a command-line interface for species richness
// grids and map layer exports.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/hotspot/hotspotutil"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := hotspotutil.Root.ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		cancel()
		os.Exit(1)
	}
}
