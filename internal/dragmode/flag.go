/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package dragmode holds the session-wide switch that gates every gesture controller.
package dragmode

import (
	"sync"
	"sync/atomic"
)

// Gate is the read-only view handed to gesture controllers. They must consult
// it on every event, not only when a gesture begins.
type Gate interface {
	Enabled() bool
}

// Flag is the drag-mode switch. The zero value is a disabled flag.
type Flag struct {
	on atomic.Bool

	mu   sync.Mutex
	subs []func(bool)
}

// Enabled reports the current state.
func (f *Flag) Enabled() bool { return f.on.Load() }

// Set changes the state and notifies subscribers when it actually changed.
func (f *Flag) Set(on bool) {
	if f.on.Swap(on) == on {
		return
	}
	f.notify(on)
}

// Toggle flips the state, notifies subscribers and returns the new state.
func (f *Flag) Toggle() bool {
	for {
		cur := f.on.Load()
		if f.on.CompareAndSwap(cur, !cur) {
			f.notify(!cur)
			return !cur
		}
	}
}

// Subscribe registers fn to run after every state change, in registration order.
func (f *Flag) Subscribe(fn func(on bool)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
}

func (f *Flag) notify(on bool) {
	f.mu.Lock()
	subs := make([]func(bool), len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(on)
	}
}
