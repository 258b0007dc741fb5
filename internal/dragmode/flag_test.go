/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dragmode

import "testing"

func TestFlag_ToggleNotifiesInOrder(t *testing.T) {
	var f Flag
	if f.Enabled() {
		t.Fatalf("zero flag must start disabled")
	}
	var seen []string
	f.Subscribe(func(on bool) {
		if on {
			seen = append(seen, "a:on")
		} else {
			seen = append(seen, "a:off")
		}
	})
	f.Subscribe(func(on bool) { seen = append(seen, "b") })

	if !f.Toggle() || !f.Enabled() {
		t.Fatalf("first toggle should enable")
	}
	if f.Toggle() || f.Enabled() {
		t.Fatalf("second toggle should disable")
	}
	want := []string{"a:on", "b", "a:off", "b"}
	if len(seen) != len(want) {
		t.Fatalf("notifications = %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("notifications = %v, want %v", seen, want)
		}
	}
}

func TestFlag_SetIsQuietWithoutChange(t *testing.T) {
	var f Flag
	calls := 0
	f.Subscribe(func(bool) { calls++ })
	f.Set(false)
	f.Set(true)
	f.Set(true)
	if calls != 1 {
		t.Fatalf("expected a single notification, got %d", calls)
	}
}

func TestFlag_SubscribeDuringNotify(t *testing.T) {
	var f Flag
	late := 0
	f.Subscribe(func(bool) {
		f.Subscribe(func(bool) { late++ })
	})
	f.Toggle()
	if late != 0 {
		t.Fatalf("a subscriber added during a notification must wait for the next change, got %d calls", late)
	}
	f.Toggle()
	if late != 1 {
		t.Fatalf("late subscriber calls = %d, want 1", late)
	}
}
