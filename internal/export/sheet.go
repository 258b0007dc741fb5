/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders review sheets of a positions document: a PDF table
// of every descriptor and a PNG diagram with one cell per panel.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chartoverlay/internal/position"
	"chartoverlay/internal/vector"
)

// Row is one element of the sheet.
type Row struct {
	Panel      string
	Element    string
	Kind       string
	Descriptor position.Descriptor
	Summary    string
}

// Rows lists the store in panel then element order.
func Rows(s *position.Store) []Row {
	if s == nil {
		return nil
	}
	var out []Row
	for _, p := range s.Panels() {
		for _, e := range s.Elements(p) {
			d, _ := s.Get(p, e)
			out = append(out, Row{Panel: p, Element: e, Kind: d.Kind().String(), Descriptor: d, Summary: Describe(d)})
		}
	}
	return out
}

// Describe renders a descriptor as short key=value text.
func Describe(d position.Descriptor) string {
	switch v := d.(type) {
	case position.Translation:
		return fmt.Sprintf("x=%s y=%s", num(v.X), num(v.Y))
	case position.LabelOffset:
		g := vector.ResolveCallout(vector.Pt{}, vector.Pt{X: v.TextX, Y: v.TextY})
		return fmt.Sprintf("textX=%s textY=%s (%s)", num(v.TextX), num(v.TextY), g.Align)
	case position.Box:
		top, left, right, bottom := v.Edges()
		var parts []string
		for _, e := range []struct {
			name string
			v    *float64
		}{{"top", top}, {"left", left}, {"right", right}, {"bottom", bottom}} {
			if e.v != nil {
				parts = append(parts, e.name+"="+num(*e.v))
			}
		}
		if len(parts) == 0 {
			return "(no edges)"
		}
		return strings.Join(parts, " ")
	case position.Raw:
		b, _ := v.MarshalJSON()
		return "raw " + string(b)
	default:
		return ""
	}
}

func num(f float64) string { return strconv.FormatFloat(vector.FloatRound(f, 2), 'f', -1, 64) }

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return nil
}
