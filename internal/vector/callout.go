/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// CalloutGap is the distance between the label offset and both the text
// baseline origin and the connector end, on the side facing away from the anchor.
const CalloutGap = 8

// TextAlign is the horizontal text anchoring of a callout label.
type TextAlign uint8

const (
	// AlignStart anchors text at its left edge (label right of the anchor).
	AlignStart TextAlign = iota
	// AlignEnd anchors text at its right edge (label left of the anchor).
	AlignEnd
)

func (a TextAlign) String() string {
	if a == AlignEnd {
		return "end"
	}
	return "start"
}

// CalloutGeometry is the derived drawing state of an annotation callout.
// Label-local and line coordinates are relative to the anchor.
type CalloutGeometry struct {
	Anchor    Pt        // fixed data-space anchor
	Label     Pt        // label offset relative to the anchor
	LineStart Pt        // always the anchor origin (0,0)
	LineEnd   Pt        // far end of the connector, relative to the anchor
	TextX     float64   // text x inside the label group
	Align     TextAlign // which edge of the text sits at TextX
}

// LineEndAbs returns the connector end in the anchor's coordinate space.
func (g CalloutGeometry) LineEndAbs() Pt { return g.Anchor.Add(g.LineEnd) }

// LabelAbs returns the label origin in the anchor's coordinate space.
func (g CalloutGeometry) LabelAbs() Pt { return g.Anchor.Add(g.Label) }

// ResolveCallout derives the connector and text alignment from the label offset.
// Only the sign of label.X matters: negative puts the text on the left,
// right-aligned, and pulls the connector CalloutGap further left; zero or
// positive mirrors that on the right. There is no hysteresis.
func ResolveCallout(anchor, label Pt) CalloutGeometry {
	g := CalloutGeometry{Anchor: anchor, Label: label}
	if label.X < 0 {
		g.Align = AlignEnd
		g.TextX = -CalloutGap
		g.LineEnd = Pt{X: label.X - CalloutGap, Y: label.Y}
	} else {
		g.Align = AlignStart
		g.TextX = CalloutGap
		g.LineEnd = Pt{X: label.X + CalloutGap, Y: label.Y}
	}
	return g
}
