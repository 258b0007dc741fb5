/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package annotation models callouts: a fixed anchor, a draggable label and a
// connector whose far end follows the label to either side of the anchor.
// Only the label offset is persisted; connector and alignment are derived.
package annotation

import (
	"chartoverlay/internal/dragmode"
	"chartoverlay/internal/gesture"
	"chartoverlay/internal/position"
	"chartoverlay/internal/vector"
)

// View draws a callout. Render is called with freshly resolved geometry on
// every label move, including the initial placement.
type View interface {
	Render(vector.CalloutGeometry)
}

// Callout is a TranslateNode whose offset is the label position relative to
// the anchor. Setting the offset re-resolves the connector.
type Callout struct {
	Loc  position.Location
	Text string

	anchor vector.Pt
	geom   vector.CalloutGeometry
	view   View
}

// New creates a callout at anchor with its label at the anchor origin.
// view may be nil for headless use.
func New(loc position.Location, anchor vector.Pt, text string, view View) *Callout {
	c := &Callout{Loc: loc, Text: text, anchor: anchor, view: view}
	c.geom = vector.ResolveCallout(anchor, vector.Pt{})
	return c
}

// Anchor returns the fixed data-space anchor.
func (c *Callout) Anchor() vector.Pt { return c.anchor }

// Geometry returns the derived drawing state for the current label offset.
func (c *Callout) Geometry() vector.CalloutGeometry { return c.geom }

func (c *Callout) Offset() vector.Pt { return c.geom.Label }

func (c *Callout) SetOffset(p vector.Pt) {
	c.geom = vector.ResolveCallout(c.anchor, p)
	if c.view != nil {
		c.view.Render(c.geom)
	}
}

// SetAffordance forwards to the view when it renders drag affordances.
func (c *Callout) SetAffordance(a gesture.Affordance) {
	if s, ok := c.view.(gesture.Styler); ok {
		s.SetAffordance(a)
	}
}

// Attach wires the label to a canvas controller that stores {textX, textY}
// descriptors, then places the label from the store or from def.
func (c *Callout) Attach(gate dragmode.Gate, store position.Writer, seed position.Reader, def vector.Pt, opts ...gesture.Option) *gesture.Canvas {
	opts = append([]gesture.Option{gesture.WithCodec(gesture.LabelCodec)}, opts...)
	ctl := gesture.NewCanvas(c.Loc, c, gate, store, opts...)
	ctl.Restore(seed, def)
	return ctl
}
