/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestResolveCallout_LabelRightOfAnchor(t *testing.T) {
	g := ResolveCallout(Pt{X: 100, Y: 100}, Pt{X: 60, Y: -30})
	if g.LineEnd != (Pt{X: 68, Y: -30}) {
		t.Fatalf("line end = %+v, want (68,-30)", g.LineEnd)
	}
	if g.Align != AlignStart || g.TextX != CalloutGap {
		t.Fatalf("expected start alignment at +gap, got %s at %v", g.Align, g.TextX)
	}
	if g.LineEndAbs() != (Pt{X: 168, Y: 70}) {
		t.Fatalf("absolute line end = %+v", g.LineEndAbs())
	}
}

func TestResolveCallout_LabelLeftOfAnchor(t *testing.T) {
	g := ResolveCallout(Pt{X: 100, Y: 100}, Pt{X: -60, Y: -30})
	if g.LineEnd != (Pt{X: -68, Y: -30}) {
		t.Fatalf("line end = %+v, want (-68,-30)", g.LineEnd)
	}
	if g.Align != AlignEnd || g.TextX != -CalloutGap {
		t.Fatalf("expected end alignment at -gap, got %s at %v", g.Align, g.TextX)
	}
}

func TestResolveCallout_FlipsAtZeroWithoutHysteresis(t *testing.T) {
	cases := []struct {
		x     float64
		align TextAlign
		endX  float64
	}{
		{x: -0.001, align: AlignEnd, endX: -8.001},
		{x: 0, align: AlignStart, endX: 8},
		{x: 0.001, align: AlignStart, endX: 8.001},
		{x: -0.001, align: AlignEnd, endX: -8.001},
	}
	for _, c := range cases {
		g := ResolveCallout(Pt{}, Pt{X: c.x, Y: 5})
		if g.Align != c.align || !almostEq(g.LineEnd.X, c.endX, 1e-9) || g.LineEnd.Y != 5 {
			t.Fatalf("x=%v: got align %s end %+v", c.x, g.Align, g.LineEnd)
		}
		if g.LineStart != (Pt{}) {
			t.Fatalf("line must start at the anchor origin, got %+v", g.LineStart)
		}
	}
}
