/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import "chartoverlay/internal/vector"

// PointNode is a TranslateNode backed by a plain value. Useful for headless
// hosts and as the owned offset of widgets that render it elsewhere.
type PointNode struct {
	P          vector.Pt
	Affordance Affordance
}

func (n *PointNode) Offset() vector.Pt          { return n.P }
func (n *PointNode) SetOffset(p vector.Pt)      { n.P = p }
func (n *PointNode) SetAffordance(a Affordance) { n.Affordance = a }

// AttrNode adapts a node whose placement lives in a "translate(x,y)" attribute,
// as produced by SVG-like renderers. Unparsable or missing values read as (0,0).
type AttrNode struct {
	Transform *string
}

func (n AttrNode) Offset() vector.Pt {
	if n.Transform == nil {
		return vector.Pt{}
	}
	p, _ := vector.ParseTranslate(*n.Transform)
	return p
}

func (n AttrNode) SetOffset(p vector.Pt) {
	if n.Transform != nil {
		*n.Transform = vector.FormatTranslate(p)
	}
}
