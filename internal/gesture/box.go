/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"log/slog"

	"chartoverlay/internal/dragmode"
	applog "chartoverlay/internal/log"
	"chartoverlay/internal/position"
	"chartoverlay/internal/vector"
)

// BoxElement is a screen-anchored element placed by edge offsets.
type BoxElement interface {
	ApplyBox(position.Box)
}

// Measurer is implemented by elements that can report their rendered edge
// distances. It is consulted only for an axis with no active edge.
type Measurer interface {
	MeasureEdges() (top, left, right, bottom float64)
}

// BoxDrag drives a BoxElement. The controller owns the element's Box: it is
// seeded by Restore and replaced on every applied update. The anchor edge of
// each axis is captured at Begin and kept until End.
type BoxDrag struct {
	Loc position.Location

	el    BoxElement
	gate  dragmode.Gate
	store position.Writer
	opt   options

	box      position.Box
	dragging bool
	start    vector.Pt
	anchorV  position.Edge
	anchorH  position.Edge
	initV    float64
	initH    float64
}

// NewBoxDrag attaches the pointer protocol to el.
func NewBoxDrag(loc position.Location, el BoxElement, gate dragmode.Gate, store position.Writer, opts ...Option) *BoxDrag {
	o := buildOptions(el, opts)
	o.log = applog.WithLocation(o.log, loc.Panel, loc.Element).With(slog.String("controller", "box"))
	return &BoxDrag{Loc: loc, el: el, gate: gate, store: store, opt: o}
}

// Box returns the current placement.
func (b *BoxDrag) Box() position.Box { return b.box }

// Dragging reports whether a gesture is in progress.
func (b *BoxDrag) Dragging() bool { return b.dragging }

// Restore applies the stored box, or def when the store has none, before first paint.
func (b *BoxDrag) Restore(r position.Reader, def position.Box) position.Box {
	box := def
	if r != nil {
		if d, ok := r.Get(b.Loc.Panel, b.Loc.Element); ok {
			if got, ok := d.(position.Box); ok {
				box = got
			} else {
				b.opt.log.Warn("stored descriptor has wrong shape; using default", slog.String("kind", d.Kind().String()))
			}
		}
	}
	b.box = box
	b.el.ApplyBox(box)
	return box
}

// Begin records the pointer position and the initial offset of each axis.
// An axis anchored at its end edge stays end-anchored for the whole gesture;
// every other axis is driven through its start edge.
func (b *BoxDrag) Begin(x, y float64) bool {
	if !b.gate.Enabled() {
		b.opt.metrics.RecordGesture("box", PhaseBegin, false)
		return false
	}
	var mTop, mLeft float64
	if m, ok := b.el.(Measurer); ok {
		mTop, mLeft, _, _ = m.MeasureEdges()
	}
	b.anchorV, b.initV = captureAxis(b.box.Vertical, mTop)
	b.anchorH, b.initH = captureAxis(b.box.Horizontal, mLeft)
	b.start = vector.Pt{X: x, Y: y}
	b.dragging = true
	b.opt.style(Grabbing)
	b.opt.metrics.RecordGesture("box", PhaseBegin, true)
	b.opt.log.Debug("drag begin", slog.String("vertical", b.anchorV.String()), slog.String("horizontal", b.anchorH.String()))
	return true
}

func captureAxis(a position.Axis, measuredStart float64) (position.Edge, float64) {
	if a.Active() {
		return a.Edge, a.Offset
	}
	return position.EdgeStart, measuredStart
}

// Update moves the element by the pointer travel since Begin and stores the
// box with only the active edges. Ignored when no gesture is active or drag
// mode is off.
func (b *BoxDrag) Update(x, y float64) bool {
	if !b.dragging || !b.gate.Enabled() {
		b.opt.metrics.RecordGesture("box", PhaseUpdate, false)
		return false
	}
	dx, dy := x-b.start.X, y-b.start.Y
	next := position.Box{
		Vertical:   moveAxis(b.anchorV, b.initV, dy),
		Horizontal: moveAxis(b.anchorH, b.initH, dx),
	}
	b.box = next
	b.el.ApplyBox(next)
	b.store.Set(b.Loc.Panel, b.Loc.Element, next)
	b.opt.metrics.RecordGesture("box", PhaseUpdate, true)
	return true
}

// moveAxis applies pointer travel d to an axis. Moving toward the end edge
// shrinks an end offset and grows a start offset.
func moveAxis(anchor position.Edge, initial, d float64) position.Axis {
	if anchor == position.EdgeEnd {
		return position.Axis{Edge: position.EdgeEnd, Offset: initial - d}
	}
	return position.Axis{Edge: position.EdgeStart, Offset: initial + d}
}

// End finishes the gesture. A call without an active gesture is a no-op.
func (b *BoxDrag) End() bool {
	if !b.dragging {
		return false
	}
	b.dragging = false
	b.opt.style(Idle(b.gate.Enabled()))
	b.opt.metrics.RecordGesture("box", PhaseEnd, true)
	b.opt.log.Debug("drag end", slog.Any("box", b.box))
	return true
}

// SetAffordance forwards an externally chosen affordance, e.g. on a mode toggle.
func (b *BoxDrag) SetAffordance(a Affordance) { b.opt.style(a) }
