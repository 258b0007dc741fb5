/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package gesture implements the pointer protocols that move overlay elements.
//
// Two controllers exist: Canvas for nodes placed by a translation offset and
// BoxDrag for screen-anchored elements placed by edge offsets. Both re-check the
// drag-mode gate on every event and write the new descriptor to the position
// store in the same call that moves the element.
package gesture

import (
	"log/slog"

	applog "chartoverlay/internal/log"
	"chartoverlay/internal/metrics"
	"chartoverlay/internal/position"
	"chartoverlay/internal/vector"
)

// Phase names used for logging and metrics.
const (
	PhaseBegin  = "begin"
	PhaseUpdate = "update"
	PhaseEnd    = "end"
)

// Event is one pointer sample. X/Y is the pointer position; DX/DY is the
// movement since the previous sample of the same gesture.
type Event struct {
	X, Y   float64
	DX, DY float64
}

// Cursor is the pointer shape shown over a draggable element.
type Cursor uint8

const (
	CursorDefault Cursor = iota
	CursorGrab
	CursorGrabbing
)

func (c Cursor) String() string {
	switch c {
	case CursorGrab:
		return "grab"
	case CursorGrabbing:
		return "grabbing"
	default:
		return "default"
	}
}

// Affordance is the visual hint an element shows for its drag state.
type Affordance struct {
	Cursor  Cursor
	Opacity float64
	Outline bool
}

var (
	// Resting is shown while drag mode is off.
	Resting = Affordance{Cursor: CursorDefault, Opacity: 1}
	// Armed is shown on every draggable while drag mode is on.
	Armed = Affordance{Cursor: CursorGrab, Opacity: 1, Outline: true}
	// Grabbing is shown for the duration of a gesture.
	Grabbing = Affordance{Cursor: CursorGrabbing, Opacity: 0.8, Outline: true}
)

// Idle returns the affordance for an element that is not being dragged.
func Idle(dragMode bool) Affordance {
	if dragMode {
		return Armed
	}
	return Resting
}

// Styler receives affordance changes. Elements that have no visual state may omit it.
type Styler interface {
	SetAffordance(Affordance)
}

// TranslateNode is a canvas element whose placement is an owned 2D offset.
type TranslateNode interface {
	Offset() vector.Pt
	SetOffset(vector.Pt)
}

// Codec maps an element's offset to and from its stored descriptor.
type Codec struct {
	Encode func(vector.Pt) position.Descriptor
	Decode func(position.Descriptor) (vector.Pt, bool)
}

// TranslationCodec stores offsets as {x, y}.
var TranslationCodec = Codec{
	Encode: func(p vector.Pt) position.Descriptor { return position.Translation{X: p.X, Y: p.Y} },
	Decode: func(d position.Descriptor) (vector.Pt, bool) {
		t, ok := d.(position.Translation)
		return vector.Pt{X: t.X, Y: t.Y}, ok
	},
}

// LabelCodec stores offsets as {textX, textY}.
var LabelCodec = Codec{
	Encode: func(p vector.Pt) position.Descriptor { return position.LabelOffset{TextX: p.X, TextY: p.Y} },
	Decode: func(d position.Descriptor) (vector.Pt, bool) {
		l, ok := d.(position.LabelOffset)
		return vector.Pt{X: l.TextX, Y: l.TextY}, ok
	},
}

// Option configures a controller.
type Option func(*options)

type options struct {
	log      *slog.Logger
	metrics  *metrics.Registry
	styler   Styler
	codec    Codec
	onUpdate func(vector.Pt, Event)
}

// WithLogger sets the logger used for gesture diagnostics.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.log = l } }

// WithMetrics counts gesture events on r.
func WithMetrics(r *metrics.Registry) Option { return func(o *options) { o.metrics = r } }

// WithStyler overrides the element's own Styler, if any.
func WithStyler(s Styler) Option { return func(o *options) { o.styler = s } }

// WithCodec selects the descriptor shape a Canvas controller writes.
func WithCodec(c Codec) Option { return func(o *options) { o.codec = c } }

// OnUpdate runs after each applied canvas update with the new offset and the raw event.
func OnUpdate(fn func(vector.Pt, Event)) Option { return func(o *options) { o.onUpdate = fn } }

func buildOptions(target any, opts []Option) options {
	o := options{codec: TranslationCodec}
	if s, ok := target.(Styler); ok {
		o.styler = s
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = applog.WithComponent("gesture")
	}
	return o
}

func (o options) style(a Affordance) {
	if o.styler != nil {
		o.styler.SetAffordance(a)
	}
}
