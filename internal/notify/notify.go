/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package notify carries transient user feedback for drag-mode toggles and saves.
// Notifiers only display; they hold no state beyond their own timers.
package notify

import (
	"image/color"
	"log/slog"
	"sync"
	"time"
)

type Kind uint8

const (
	KindMode Kind = iota
	KindSave
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindMode:
		return "mode"
	case KindSave:
		return "save"
	default:
		return "error"
	}
}

var (
	ColorSaved   = color.NRGBA{R: 0x06, G: 0xa7, B: 0x7d, A: 0xff}
	ColorModeOn  = color.NRGBA{R: 0x43, G: 0x61, B: 0xee, A: 0xff}
	ColorModeOff = color.NRGBA{R: 0x6c, G: 0x75, B: 0x7d, A: 0xff}
	ColorError   = color.NRGBA{R: 0xd6, G: 0x28, B: 0x28, A: 0xff}
)

const (
	DefaultModeDuration = 1500 * time.Millisecond
	DefaultSaveDuration = 2000 * time.Millisecond
)

// Message is one transient notification.
type Message struct {
	Kind     Kind
	Text     string
	Color    color.NRGBA
	Duration time.Duration
}

// ModeMessage builds the "Drag Mode: ON/OFF" notification.
func ModeMessage(on bool, d time.Duration) Message {
	if on {
		return Message{Kind: KindMode, Text: "Drag Mode: ON", Color: ColorModeOn, Duration: d}
	}
	return Message{Kind: KindMode, Text: "Drag Mode: OFF", Color: ColorModeOff, Duration: d}
}

// SaveMessage builds a save confirmation.
func SaveMessage(text string, d time.Duration) Message {
	return Message{Kind: KindSave, Text: text, Color: ColorSaved, Duration: d}
}

// ErrorMessage builds a non-fatal failure notice.
func ErrorMessage(text string, d time.Duration) Message {
	return Message{Kind: KindError, Text: text, Color: ColorError, Duration: d}
}

// Notifier shows messages to the user.
type Notifier interface {
	Notify(Message)
}

// Func adapts a plain function to Notifier.
type Func func(Message)

func (f Func) Notify(m Message) { f(m) }

// Multi fans a message out to every non-nil notifier.
type Multi []Notifier

func (m Multi) Notify(msg Message) {
	for _, n := range m {
		if n != nil {
			n.Notify(msg)
		}
	}
}

// Log writes messages to a structured logger. Used headless and as a UI companion.
type Log struct {
	L *slog.Logger
}

func (n Log) Notify(m Message) {
	l := n.L
	if l == nil {
		l = slog.Default()
	}
	attrs := []any{slog.String("kind", m.Kind.String()), slog.Duration("ttl", m.Duration)}
	if m.Kind == KindError {
		l.Warn(m.Text, attrs...)
		return
	}
	l.Info(m.Text, attrs...)
}

// Recorder keeps every message it receives. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Notify(m Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

// Messages returns a copy of what was recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Last returns the most recent message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return Message{}, false
	}
	return r.msgs[len(r.msgs)-1], true
}
