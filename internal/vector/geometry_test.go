/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func almostEq(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestRectCorners(t *testing.T) {
	r := R(10, 20, 30, 5)
	if r.Min() != (Pt{X: 10, Y: 20}) || r.Max() != (Pt{X: 40, Y: 25}) {
		t.Fatalf("corners of %+v = %+v %+v", r, r.Min(), r.Max())
	}
	if got := r.TopCenter(); got != (Pt{X: 25, Y: 20}) {
		t.Fatalf("TopCenter = %+v", got)
	}
	if got := r.Max().Sub(r.Min()); got != (Pt{X: 30, Y: 5}) {
		t.Fatalf("Max-Min = %+v", got)
	}
}

func TestParseTranslate(t *testing.T) {
	cases := []struct {
		in   string
		want Pt
		ok   bool
	}{
		{"translate(12,-4.5)", Pt{12, -4.5}, true},
		{"translate( 3 , 7 )", Pt{3, 7}, true},
		{"translate(3 7)", Pt{3, 7}, true},
		{"rotate(30) translate(-1e2,2)", Pt{-100, 2}, true},
		{"", Pt{}, false},
		{"translate(abc,1)", Pt{}, false},
		{"translate(1..2,3)", Pt{}, false},
		{"scale(2)", Pt{}, false},
	}
	for _, c := range cases {
		got, ok := ParseTranslate(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("ParseTranslate(%q) = %+v,%v want %+v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestFormatTranslateRoundTrips(t *testing.T) {
	p := Pt{X: -0.125, Y: 42}
	s := FormatTranslate(p)
	if s != "translate(-0.125,42)" {
		t.Fatalf("FormatTranslate = %q", s)
	}
	got, ok := ParseTranslate(s)
	if !ok || got != p {
		t.Fatalf("round trip = %+v,%v", got, ok)
	}
}

func TestFloatRound(t *testing.T) {
	if got := FloatRound(1.23456, 3); got != 1.235 {
		t.Fatalf("FloatRound = %v", got)
	}
	if got := FloatRound(1.5, -1); got != 1.5 {
		t.Fatalf("negative places should be a no-op, got %v", got)
	}
}
