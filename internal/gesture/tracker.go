/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import "sync"

// Tracker routes window-level pointer moves and releases to the box controller
// that received the press, so a drag keeps going after the pointer leaves the
// element. One tracker serves a whole window.
type Tracker struct {
	mu     sync.Mutex
	active *BoxDrag
}

// Press starts a gesture on b. It returns false when b declined (drag mode off).
// A gesture still active on another controller is ended first.
func (t *Tracker) Press(b *BoxDrag, x, y float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil && t.active != b {
		t.active.End()
		t.active = nil
	}
	if !b.Begin(x, y) {
		return false
	}
	t.active = b
	return true
}

// Move forwards a pointer position to the active controller, if any.
func (t *Tracker) Move(x, y float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return false
	}
	return t.active.Update(x, y)
}

// Release ends the active gesture. Without one it does nothing.
func (t *Tracker) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return
	}
	t.active.End()
	t.active = nil
}

// Active returns the controller currently dragging, or nil.
func (t *Tracker) Active() *BoxDrag {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
