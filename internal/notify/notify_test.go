/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package notify

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestModeMessageColors(t *testing.T) {
	on := ModeMessage(true, DefaultModeDuration)
	off := ModeMessage(false, DefaultModeDuration)
	if on.Text != "Drag Mode: ON" || on.Color != ColorModeOn {
		t.Fatalf("unexpected on message %+v", on)
	}
	if off.Text != "Drag Mode: OFF" || off.Color != ColorModeOff {
		t.Fatalf("unexpected off message %+v", off)
	}
}

func TestMultiFansOutAndSkipsNil(t *testing.T) {
	var a, b Recorder
	var buf bytes.Buffer
	m := Multi{&a, nil, &b, Log{L: slog.New(slog.NewTextHandler(&buf, nil))}}
	m.Notify(SaveMessage("Positions saved to file!", DefaultSaveDuration))
	m.Notify(ErrorMessage("Saving positions failed", DefaultSaveDuration))

	if len(a.Messages()) != 2 || len(b.Messages()) != 2 {
		t.Fatalf("both recorders should see both messages")
	}
	last, ok := b.Last()
	if !ok || last.Kind != KindError {
		t.Fatalf("last = %+v", last)
	}
	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "level=WARN") || !strings.Contains(out, "kind=save") {
		t.Fatalf("log notifier output missing fields: %s", out)
	}
}
