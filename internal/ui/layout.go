/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"strings"

	"chartoverlay/internal/position"
	"chartoverlay/internal/session"
	"chartoverlay/internal/vector"
)

// Geometry of the demo chart, in device-independent pixels.
const (
	chartW   = 640
	chartH   = 400
	chartPad = 40
	barGap   = 18
	maxValue = 100
)

// Element ids of the demo overlay.
const (
	demoPanel    = "panel1"
	avgLabelID   = "worldAvgLabel"
	noteID       = "floatingNote"
	calloutID    = "annotation-usa"
	calloutTitle = "USA"
)

// Built-in placements used while the store has no entry.
var (
	defaultLabelOffset   = vector.Pt{}
	defaultCalloutOffset = vector.Pt{X: -60, Y: -30}
	defaultNoteBox       = position.Box{
		Vertical:   position.Axis{Edge: position.EdgeEnd, Offset: 15},
		Horizontal: position.Axis{Edge: position.EdgeEnd, Offset: 15},
	}
)

type bar struct {
	Name  string
	Value float64
}

var demoBars = []bar{
	{"Germany", 64},
	{"Japan", 71},
	{"USA", 82},
	{"Brazil", 48},
	{"India", 39},
}

// extent is a width and a height.
type extent struct{ W, H float64 }

func (e extent) corner() vector.Pt { return vector.Pt{X: e.W, Y: e.H} }

// barRects lays out bars left to right in a chart of size c; values are
// scaled against maxValue and clamped to the plot area.
func barRects(bars []bar, c extent) []vector.Rect {
	if len(bars) == 0 {
		return nil
	}
	plotW := c.W - 2*chartPad
	plotH := c.H - 2*chartPad
	w := (plotW - barGap*float64(len(bars)-1)) / float64(len(bars))
	out := make([]vector.Rect, len(bars))
	for i, b := range bars {
		v := min(max(b.Value, 0), maxValue)
		h := plotH * v / maxValue
		out[i] = vector.R(chartPad+float64(i)*(w+barGap), c.H-chartPad-h, w, h)
	}
	return out
}

func average(bars []bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Value
	}
	return sum / float64(len(bars))
}

// valueY maps a value to its y coordinate in a chart of height h.
func valueY(v float64, h float64) float64 {
	plotH := h - 2*chartPad
	return h - chartPad - plotH*min(max(v, 0), maxValue)/maxValue
}

// barTop returns the top centre of the named bar.
func barTop(bars []bar, c extent, name string) (vector.Pt, bool) {
	for i, r := range barRects(bars, c) {
		if bars[i].Name == name {
			return r.TopCenter(), true
		}
	}
	return vector.Pt{}, false
}

// placeBox returns the top-left corner of an element of size el inside area.
// An axis without an active edge keeps the coordinate of fallback.
func placeBox(area, el extent, b position.Box, fallback vector.Pt) vector.Pt {
	p := fallback
	switch b.Horizontal.Edge {
	case position.EdgeStart:
		p.X = b.Horizontal.Offset
	case position.EdgeEnd:
		p.X = area.W - el.W - b.Horizontal.Offset
	}
	switch b.Vertical.Edge {
	case position.EdgeStart:
		p.Y = b.Vertical.Offset
	case position.EdgeEnd:
		p.Y = area.H - el.H - b.Vertical.Offset
	}
	return p
}

// edgesOf reports the distances of an element at p to each side of area.
func edgesOf(area, el extent, p vector.Pt) (top, left, right, bottom float64) {
	r := vector.R(p.X, p.Y, el.W, el.H)
	far := area.corner().Sub(r.Max())
	return r.Y, r.X, far.X, far.Y
}

// helpText renders the key bindings one per line.
func helpText(bs []session.Binding) string {
	var b strings.Builder
	for i, k := range bs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s", k.Key, k.Description)
	}
	return b.String()
}
