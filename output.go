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
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"gonum.org/v1/gonum/floats"
)

// outputFunctions are the functions that can be used in output
// variable expressions.
var outputFunctions = map[string]govaluate.ExpressionFunction{
	"exp": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("hotspot: got %d arguments for function 'exp', but needs 1", len(arg))
		}
		return math.Exp(arg[0].(float64)), nil
	},
	"log1p": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("hotspot: got %d arguments for function 'log1p', but needs 1", len(arg))
		}
		return math.Log1p(arg[0].(float64)), nil
	},
	"sqrt": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("hotspot: got %d arguments for function 'sqrt', but needs 1", len(arg))
		}
		return math.Sqrt(arg[0].(float64)), nil
	},
}

// builtinVariables are the per-cell variables available to output
// expressions.
var builtinVariables = []string{"count", "area_km2", "row", "col", "max_count", "mean_count"}

var fieldNameRegexp = regexp.MustCompile(`^[A-Za-z]\w*$`)

// checkOutputNames checks that output variable names can be used as
// shapefile field names.
func checkOutputNames(o map[string]string) error {
	for key := range o {
		long := len(key) > 10
		badChar := !fieldNameRegexp.MatchString(key)
		switch {
		case long && badChar:
			return fmt.Errorf("hotspot: output variable name '%s' exceeds 10 characters and includes unsupported character(s)", key)
		case long:
			return fmt.Errorf("hotspot: output variable name '%s' exceeds 10 characters", key)
		case badChar:
			return fmt.Errorf("hotspot: output variable name '%s' includes unsupported characters", key)
		}
		for _, b := range []string{"count", "row", "col"} {
			if strings.EqualFold(key, b) {
				return fmt.Errorf("hotspot: output variable name '%s' is reserved", key)
			}
		}
	}
	return nil
}

// outputExpressions parses output variable expressions and checks that
// they only refer to built-in variables.
func outputExpressions(vars map[string]string) (map[string]*govaluate.EvaluableExpression, error) {
	if err := checkOutputNames(vars); err != nil {
		return nil, err
	}
	known := make(map[string]bool)
	for _, v := range builtinVariables {
		known[v] = true
	}
	o := make(map[string]*govaluate.EvaluableExpression, len(vars))
	for name, expr := range vars {
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("hotspot: parsing output variable %s: %w", name, err)
		}
		for _, v := range e.Vars() {
			if !known[v] {
				return nil, fmt.Errorf("hotspot: output variable %s: undefined variable name '%s'; valid names are %v", name, v, builtinVariables)
			}
		}
		o[name] = e
	}
	return o, nil
}

// cellParameters returns the values of the built-in output variables
// for c.
func (g *Grid) cellParameters(c *Cell, maxCount, meanCount float64) map[string]interface{} {
	return map[string]interface{}{
		"count":      float64(c.Count),
		"area_km2":   c.Area() / 1.e6,
		"row":        float64(c.Row),
		"col":        float64(c.Col),
		"max_count":  maxCount,
		"mean_count": meanCount,
	}
}

// countStats returns the maximum and mean cell count.
func (g *Grid) countStats() (max, mean float64) {
	if len(g.Cells) == 0 {
		return 0, 0
	}
	v := make([]float64, len(g.Cells))
	for i, c := range g.Cells {
		v[i] = float64(c.Count)
	}
	return floats.Max(v), floats.Sum(v) / float64(len(v))
}

// WriteShapefile writes the grid cells and their counts to a polygon
// shapefile at path. Each record has count, row, and col fields plus one
// field for each of outputVariables, which maps field names to
// expressions. Expressions can use the variables count, area_km2, row,
// col, max_count, and mean_count and the functions exp, log1p, and sqrt.
func (g *Grid) WriteShapefile(path string, outputVariables map[string]string) error {
	exprs, err := outputExpressions(outputVariables)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(exprs))
	for n := range exprs {
		names = append(names, n)
	}
	sort.Strings(names)

	fields := []goshp.Field{
		goshp.NumberField("count", 10),
		goshp.NumberField("row", 10),
		goshp.NumberField("col", 10),
	}
	for _, n := range names {
		fields = append(fields, goshp.FloatField(n, 14, 8))
	}

	fileBase := strings.TrimSuffix(path, filepath.Ext(path))
	e, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("hotspot: creating output shapefile: %w", err)
	}
	maxCount, meanCount := g.countStats()
	for _, c := range g.Cells {
		vals := []interface{}{c.Count, c.Row, c.Col}
		if len(names) > 0 {
			params := g.cellParameters(c, maxCount, meanCount)
			for _, n := range names {
				v, err := exprs[n].Evaluate(params)
				if err != nil {
					e.Close()
					return fmt.Errorf("hotspot: evaluating output variable %s for cell %d: %w", n, c.Index, err)
				}
				f, ok := v.(float64)
				if !ok {
					e.Close()
					return fmt.Errorf("hotspot: output variable %s evaluates to %T, not a number", n, v)
				}
				vals = append(vals, f)
			}
		}
		if err := e.EncodeFields(c.Polygon, vals...); err != nil {
			e.Close()
			return fmt.Errorf("hotspot: writing output shapefile: %w", err)
		}
	}
	e.Close()
	return writePrj(fileBase+".prj", g.Proj4)
}

// WritePointShapefile writes points and their counts to a point
// shapefile at path. proj4 is the spatial reference of the points.
func WritePointShapefile(path string, points []geom.Point, counts []int, proj4 string) error {
	if len(points) != len(counts) {
		return fmt.Errorf("hotspot: %d counts for %d points", len(counts), len(points))
	}
	fileBase := strings.TrimSuffix(path, filepath.Ext(path))
	e, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POINT, goshp.NumberField("count", 10))
	if err != nil {
		return fmt.Errorf("hotspot: creating output shapefile: %w", err)
	}
	for i, p := range points {
		if err := e.EncodeFields(p, counts[i]); err != nil {
			e.Close()
			return fmt.Errorf("hotspot: writing output shapefile: %w", err)
		}
	}
	e.Close()
	return writePrj(fileBase+".prj", proj4)
}

// writePrj writes the well-known-text form of the proj4 spatial reference
// to a shapefile projection file.
func writePrj(path, proj4 string) error {
	wkt, err := proj4ToWKT(proj4)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hotspot: creating output prj file: %w", err)
	}
	if _, err := fmt.Fprint(f, wkt); err != nil {
		f.Close()
		return fmt.Errorf("hotspot: writing output prj file: %w", err)
	}
	return f.Close()
}
