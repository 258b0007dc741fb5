/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package position

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownShape is returned when an element value is not a JSON object.
var ErrUnknownShape = errors.New("position: descriptor is not an object")

// Kind tags the concrete shape of a Descriptor.
type Kind uint8

const (
	KindRaw Kind = iota
	KindTranslation
	KindBox
	KindLabelOffset
)

func (k Kind) String() string {
	switch k {
	case KindTranslation:
		return "translation"
	case KindBox:
		return "box"
	case KindLabelOffset:
		return "label"
	default:
		return "raw"
	}
}

// Descriptor is the stored placement of one element. The set of
// implementations is closed: Translation, Box, LabelOffset and Raw.
type Descriptor interface {
	Kind() Kind
	isDescriptor()
}

// Translation is a 2D offset applied to a canvas node's local transform.
type Translation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (Translation) Kind() Kind    { return KindTranslation }
func (Translation) isDescriptor() {}

// LabelOffset is an annotation label position relative to its anchor.
type LabelOffset struct {
	TextX float64 `json:"textX"`
	TextY float64 `json:"textY"`
}

func (LabelOffset) Kind() Kind    { return KindLabelOffset }
func (LabelOffset) isDescriptor() {}

// Edge names which side of an axis carries the offset.
// Start is top (vertical) or left (horizontal); End is bottom or right.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeStart
	EdgeEnd
)

func (e Edge) String() string {
	switch e {
	case EdgeStart:
		return "start"
	case EdgeEnd:
		return "end"
	default:
		return "none"
	}
}

// Axis holds the single active edge of one axis and its pixel offset.
type Axis struct {
	Edge   Edge
	Offset float64
}

// Active reports whether the axis has an edge.
func (a Axis) Active() bool { return a.Edge != EdgeNone }

// Box is an edge-offset placement. Each axis has at most one active edge;
// inactive edges are omitted when serialized.
type Box struct {
	Vertical   Axis // top / bottom
	Horizontal Axis // left / right
}

func (Box) Kind() Kind    { return KindBox }
func (Box) isDescriptor() {}

// BoxEdges builds a Box from optional edge values. When both edges of an axis
// are given, the end edge (bottom, right) wins.
func BoxEdges(top, left, right, bottom *float64) Box {
	var b Box
	switch {
	case bottom != nil:
		b.Vertical = Axis{Edge: EdgeEnd, Offset: *bottom}
	case top != nil:
		b.Vertical = Axis{Edge: EdgeStart, Offset: *top}
	}
	switch {
	case right != nil:
		b.Horizontal = Axis{Edge: EdgeEnd, Offset: *right}
	case left != nil:
		b.Horizontal = Axis{Edge: EdgeStart, Offset: *left}
	}
	return b
}

// Edges returns the four CSS-style edges; inactive ones are nil.
func (b Box) Edges() (top, left, right, bottom *float64) {
	pick := func(a Axis, want Edge) *float64 {
		if a.Edge != want {
			return nil
		}
		v := a.Offset
		return &v
	}
	return pick(b.Vertical, EdgeStart), pick(b.Horizontal, EdgeStart),
		pick(b.Horizontal, EdgeEnd), pick(b.Vertical, EdgeEnd)
}

type boxJSON struct {
	Top    *float64 `json:"top,omitempty"`
	Left   *float64 `json:"left,omitempty"`
	Right  *float64 `json:"right,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
}

func (b Box) MarshalJSON() ([]byte, error) {
	var j boxJSON
	j.Top, j.Left, j.Right, j.Bottom = b.Edges()
	return json.Marshal(j)
}

func (b *Box) UnmarshalJSON(data []byte) error {
	var j boxJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*b = BoxEdges(j.Top, j.Left, j.Right, j.Bottom)
	return nil
}

// Raw preserves a descriptor whose shape is not recognised so that it
// survives a load/serialize cycle untouched.
type Raw struct {
	JSON json.RawMessage
}

func (Raw) Kind() Kind    { return KindRaw }
func (Raw) isDescriptor() {}

func (r Raw) MarshalJSON() ([]byte, error) {
	if len(r.JSON) == 0 {
		return []byte("{}"), nil
	}
	return r.JSON, nil
}

var (
	translationKeys = map[string]bool{"x": true, "y": true}
	labelKeys       = map[string]bool{"textX": true, "textY": true}
	boxKeys         = map[string]bool{"top": true, "left": true, "right": true, "bottom": true}
)

// DecodeDescriptor classifies a JSON object by the keys it carries.
// Objects using only x/y are translations (a missing axis reads as 0),
// textX/textY are label offsets, and edge keys are boxes. Anything else,
// including non-numeric values, is kept as Raw.
func DecodeDescriptor(data []byte) (Descriptor, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, abbreviate(data))
	}
	nums := make(map[string]float64, len(fields))
	for k, v := range fields {
		var f float64
		if err := json.Unmarshal(v, &f); err != nil || string(bytes.TrimSpace(v)) == "null" {
			return Raw{JSON: compact(data)}, nil
		}
		nums[k] = f
	}
	opt := func(k string) *float64 {
		if v, ok := nums[k]; ok {
			return &v
		}
		return nil
	}
	switch {
	case len(nums) > 0 && subset(nums, translationKeys):
		return Translation{X: nums["x"], Y: nums["y"]}, nil
	case len(nums) > 0 && subset(nums, labelKeys):
		return LabelOffset{TextX: nums["textX"], TextY: nums["textY"]}, nil
	case subset(nums, boxKeys):
		return BoxEdges(opt("top"), opt("left"), opt("right"), opt("bottom")), nil
	default:
		return Raw{JSON: compact(data)}, nil
	}
}

// EqualDescriptor reports whether two descriptors hold the same shape and values.
func EqualDescriptor(a, b Descriptor) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if ra, ok := a.(Raw); ok {
		return bytes.Equal(compact(ra.JSON), compact(b.(Raw).JSON))
	}
	return a == b
}

func subset(m map[string]float64, allowed map[string]bool) bool {
	for k := range m {
		if !allowed[k] {
			return false
		}
	}
	return true
}

func compact(data []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return append(json.RawMessage(nil), data...)
	}
	return buf.Bytes()
}

func abbreviate(data []byte) string {
	const limit = 40
	s := string(bytes.TrimSpace(data))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
