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
	"regexp"
	"strconv"
)

var translateRe = regexp.MustCompile(`translate\(\s*([-+]?[\d.]+(?:[eE][-+]?\d+)?)\s*(?:,\s*|\s+)([-+]?[\d.]+(?:[eE][-+]?\d+)?)\s*\)`)

// ParseTranslate extracts the offset of an SVG-style "translate(x, y)" attribute.
// Absent, malformed or non-finite values yield (0,0) and ok=false; it never fails.
func ParseTranslate(s string) (p Pt, ok bool) {
	m := translateRe.FindStringSubmatch(s)
	if m == nil {
		return Pt{}, false
	}
	x, errX := strconv.ParseFloat(m[1], 64)
	y, errY := strconv.ParseFloat(m[2], 64)
	if errX != nil || errY != nil || !finite(x) || !finite(y) {
		return Pt{}, false
	}
	return Pt{X: x, Y: y}, true
}

// FormatTranslate renders p as "translate(x,y)" with the shortest exact decimal form.
func FormatTranslate(p Pt) string {
	return "translate(" + strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64) + ")"
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
