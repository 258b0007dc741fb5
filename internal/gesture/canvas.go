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

// Canvas drives a translation-positioned node. After every applied Update the
// node's offset and the stored descriptor for Loc are equal.
type Canvas struct {
	Loc position.Location

	node  TranslateNode
	gate  dragmode.Gate
	store position.Writer
	opt   options
}

// NewCanvas attaches the begin/update/end protocol to node.
func NewCanvas(loc position.Location, node TranslateNode, gate dragmode.Gate, store position.Writer, opts ...Option) *Canvas {
	o := buildOptions(node, opts)
	o.log = applog.WithLocation(o.log, loc.Panel, loc.Element).With(slog.String("controller", "canvas"))
	return &Canvas{Loc: loc, node: node, gate: gate, store: store, opt: o}
}

// Node returns the controlled node.
func (c *Canvas) Node() TranslateNode { return c.node }

// Restore seeds the node from the stored descriptor, or from def when the
// store has no usable entry. It does not write to the store.
func (c *Canvas) Restore(r position.Reader, def vector.Pt) vector.Pt {
	p := def
	if r != nil {
		if d, ok := r.Get(c.Loc.Panel, c.Loc.Element); ok {
			if got, ok := c.opt.codec.Decode(d); ok {
				p = got
			} else {
				c.opt.log.Warn("stored descriptor has wrong shape; using default", slog.String("kind", d.Kind().String()))
			}
		}
	}
	c.node.SetOffset(p)
	return p
}

// Begin starts a gesture. Ignored while drag mode is off.
func (c *Canvas) Begin(ev Event) bool {
	if !c.gate.Enabled() {
		c.opt.metrics.RecordGesture("canvas", PhaseBegin, false)
		return false
	}
	c.opt.style(Grabbing)
	c.opt.metrics.RecordGesture("canvas", PhaseBegin, true)
	c.opt.log.Debug("drag begin", slog.Float64("x", ev.X), slog.Float64("y", ev.Y))
	return true
}

// Update adds the event delta to the node offset and stores the result.
// While drag mode is off the node stays frozen at its last offset.
func (c *Canvas) Update(ev Event) bool {
	if !c.gate.Enabled() {
		c.opt.metrics.RecordGesture("canvas", PhaseUpdate, false)
		return false
	}
	next := c.node.Offset().Add(vector.Pt{X: ev.DX, Y: ev.DY})
	c.node.SetOffset(next)
	c.store.Set(c.Loc.Panel, c.Loc.Element, c.opt.codec.Encode(next))
	c.opt.metrics.RecordGesture("canvas", PhaseUpdate, true)
	if c.opt.onUpdate != nil {
		c.opt.onUpdate(next, ev)
	}
	return true
}

// End restores the idle affordance whatever the drag-mode state.
func (c *Canvas) End() {
	c.opt.style(Idle(c.gate.Enabled()))
	c.opt.metrics.RecordGesture("canvas", PhaseEnd, true)
	c.opt.log.Debug("drag end", slog.Any("offset", c.node.Offset()))
}

// SetAffordance forwards an externally chosen affordance, e.g. on a mode toggle.
func (c *Canvas) SetAffordance(a Affordance) { c.opt.style(a) }
