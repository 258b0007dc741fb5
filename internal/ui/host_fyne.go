//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"

	"chartoverlay/internal/notify"
	"chartoverlay/internal/persist"
)

// dialogSaver asks for a destination with the native save dialog. SaveFile
// blocks until the dialog closes and must not be called on the UI goroutine.
type dialogSaver struct {
	win fyne.Window
}

func (d dialogSaver) SaveFile(ctx context.Context, suggestedName string, data []byte) (string, error) {
	type result struct {
		loc string
		err error
	}
	ch := make(chan result, 1)
	fyne.Do(func() {
		fd := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
			if err != nil {
				ch <- result{err: err}
				return
			}
			if w == nil {
				ch <- result{err: persist.ErrCancelled}
				return
			}
			_, werr := w.Write(data)
			cerr := w.Close()
			ch <- result{loc: w.URI().Path(), err: errors.Join(werr, cerr)}
		}, d.win)
		fd.SetFileName(suggestedName)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		fd.Show()
	})
	select {
	case r := <-ch:
		return r.loc, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// appClipboard writes through the application clipboard.
type appClipboard struct {
	app fyne.App
}

func (c appClipboard) WriteText(text string) error {
	cb := c.app.Clipboard()
	if cb == nil {
		return persist.ErrUnavailable
	}
	fyne.DoAndWait(func() { cb.SetContent(text) })
	return nil
}

// toast shows one notification at a time at the top of the overlay. A newer
// message replaces the current one and restarts its timer.
type toast struct {
	bg   *canvas.Rectangle
	text *canvas.Text
	box  *fyne.Container
	seq  int // guarded by the UI goroutine
}

func newToast() *toast {
	t := &toast{
		bg:   canvas.NewRectangle(notify.ColorModeOff),
		text: canvas.NewText("", color.White),
	}
	t.bg.CornerRadius = 6
	t.text.TextStyle = fyne.TextStyle{Bold: true}
	t.box = container.NewStack(t.bg, container.NewPadded(t.text))
	t.box.Hide()
	return t
}

func (t *toast) Notify(m notify.Message) {
	fyne.Do(func() { t.show(m) })
}

func (t *toast) show(m notify.Message) {
	t.seq++
	id := t.seq
	t.text.Text = m.Text
	t.bg.FillColor = m.Color
	t.box.Show()
	t.box.Resize(t.box.MinSize())
	t.box.Refresh()
	d := m.Duration
	if d <= 0 {
		d = notify.DefaultSaveDuration
	}
	time.AfterFunc(d, func() {
		fyne.Do(func() {
			if t.seq == id {
				t.box.Hide()
			}
		})
	})
}
