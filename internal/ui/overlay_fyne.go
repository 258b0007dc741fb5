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
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"chartoverlay/internal/annotation"
	"chartoverlay/internal/gesture"
	"chartoverlay/internal/notify"
	"chartoverlay/internal/position"
	"chartoverlay/internal/session"
	"chartoverlay/internal/vector"
)

var (
	chartBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	chartBar        = color.NRGBA{R: 0x8e, G: 0xca, B: 0xe6, A: 0xff}
	chartInk        = color.NRGBA{R: 0x21, G: 0x25, B: 0x29, A: 0xff}
	chartAvg        = color.NRGBA{R: 0xe7, G: 0x6f, B: 0x51, A: 0xff}
	noteBackground  = color.NRGBA{R: 0xff, G: 0xf3, B: 0xbf, A: 0xff}
)

func toPos(p vector.Pt) fyne.Position { return fyne.NewPos(float32(p.X), float32(p.Y)) }
func toPt(p fyne.Position) vector.Pt  { return vector.Pt{X: float64(p.X), Y: float64(p.Y)} }
func toExtent(s fyne.Size) extent     { return extent{W: float64(s.Width), H: float64(s.Height)} }

func cursorFor(a gesture.Affordance) desktop.Cursor {
	switch a.Cursor {
	case gesture.CursorGrab:
		return desktop.PointerCursor
	case gesture.CursorGrabbing:
		return desktop.CrosshairCursor
	default:
		return desktop.DefaultCursor
	}
}

func withOpacity(c color.NRGBA, o float64) color.NRGBA {
	c.A = uint8(float64(c.A) * min(max(o, 0), 1))
	return c
}

func newOutline() *canvas.Rectangle {
	r := canvas.NewRectangle(color.Transparent)
	r.StrokeColor = notify.ColorModeOn
	r.StrokeWidth = 1
	r.Hide()
	return r
}

// dragText is a text widget that forwards drags to a canvas controller.
type dragText struct {
	widget.BaseWidget
	text    *canvas.Text
	outline *canvas.Rectangle
	aff     gesture.Affordance
	ctl     *gesture.Canvas

	started bool
	active  bool
}

func newDragText(s string) *dragText {
	t := &dragText{text: canvas.NewText(s, chartInk), outline: newOutline(), aff: gesture.Resting}
	t.text.TextSize = 13
	t.ExtendBaseWidget(t)
	return t
}

func (t *dragText) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(t.outline, container.NewPadded(t.text)))
}

func (t *dragText) SetAffordance(a gesture.Affordance) {
	t.aff = a
	if a.Outline {
		t.outline.Show()
	} else {
		t.outline.Hide()
	}
	t.text.Color = withOpacity(chartInk, a.Opacity)
	t.Refresh()
}

func (t *dragText) Cursor() desktop.Cursor { return cursorFor(t.aff) }

func dragEvent(e *fyne.DragEvent) gesture.Event {
	return gesture.Event{
		X:  float64(e.AbsolutePosition.X),
		Y:  float64(e.AbsolutePosition.Y),
		DX: float64(e.Dragged.DX),
		DY: float64(e.Dragged.DY),
	}
}

// Dragged starts the gesture on the first sample; the controller decides
// whether it is accepted.
func (t *dragText) Dragged(e *fyne.DragEvent) {
	if t.ctl == nil {
		return
	}
	ev := dragEvent(e)
	if !t.started {
		t.started = true
		t.active = t.ctl.Begin(ev)
	}
	if t.active {
		t.ctl.Update(ev)
	}
}

func (t *dragText) DragEnd() {
	if t.active {
		t.ctl.End()
	}
	t.started, t.active = false, false
}

// labelNode places a dragText at base plus its own offset.
type labelNode struct {
	*dragText
	base   fyne.Position
	offset vector.Pt
}

func (n *labelNode) Offset() vector.Pt { return n.offset }

func (n *labelNode) SetOffset(p vector.Pt) {
	n.offset = p
	n.Move(n.base.Add(toPos(p)))
}

// noteBox is a screen-anchored note placed by edge offsets. Presses start a
// gesture on the shared tracker so the drag continues outside the note.
type noteBox struct {
	widget.BaseWidget
	o       *overlay
	bg      *canvas.Rectangle
	text    *canvas.Text
	outline *canvas.Rectangle
	box     position.Box
	aff     gesture.Affordance
	ctl     *gesture.BoxDrag
}

func newNoteBox(o *overlay, s string) *noteBox {
	n := &noteBox{o: o, bg: canvas.NewRectangle(noteBackground), text: canvas.NewText(s, chartInk), outline: newOutline(), aff: gesture.Resting}
	n.bg.CornerRadius = 4
	n.text.TextSize = 12
	n.ExtendBaseWidget(n)
	return n
}

func (n *noteBox) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(n.bg, n.outline, container.NewPadded(n.text)))
}

func (n *noteBox) ApplyBox(b position.Box) {
	n.box = b
	n.o.placeNote()
}

func (n *noteBox) MeasureEdges() (top, left, right, bottom float64) {
	return edgesOf(n.o.area(), toExtent(n.Size()), toPt(n.Position()))
}

func (n *noteBox) SetAffordance(a gesture.Affordance) {
	n.aff = a
	if a.Outline {
		n.outline.Show()
	} else {
		n.outline.Hide()
	}
	n.bg.FillColor = withOpacity(noteBackground, a.Opacity)
	n.Refresh()
}

func (n *noteBox) Cursor() desktop.Cursor { return cursorFor(n.aff) }

func (n *noteBox) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		n.o.tracker.Press(n.ctl, float64(e.AbsolutePosition.X), float64(e.AbsolutePosition.Y))
	}
}

func (n *noteBox) MouseUp(*desktop.MouseEvent) { n.o.tracker.Release() }

func (n *noteBox) Dragged(e *fyne.DragEvent) {
	n.o.tracker.Move(float64(e.AbsolutePosition.X), float64(e.AbsolutePosition.Y))
}

func (n *noteBox) DragEnd() { n.o.tracker.Release() }

// calloutView draws an annotation: a dot on the anchor, a connector and the
// draggable label text.
type calloutView struct {
	dot   *canvas.Circle
	line  *canvas.Line
	label *dragText
	geom  vector.CalloutGeometry
}

func newCalloutView(text string) *calloutView {
	v := &calloutView{dot: canvas.NewCircle(chartInk), line: canvas.NewLine(chartInk), label: newDragText(text)}
	v.line.StrokeWidth = 1
	return v
}

func (v *calloutView) Render(g vector.CalloutGeometry) {
	v.geom = g
	v.dot.Move(toPos(g.Anchor).SubtractXY(3, 3))
	v.dot.Resize(fyne.NewSize(6, 6))
	v.line.Position1 = toPos(g.Anchor)
	v.line.Position2 = toPos(g.LineEndAbs())
	v.line.Refresh()

	sz := v.label.MinSize()
	lp := g.LabelAbs()
	x := lp.X + g.TextX
	if g.Align == vector.AlignEnd {
		x -= float64(sz.Width)
	}
	v.label.Resize(sz)
	v.label.Move(fyne.NewPos(float32(x), float32(lp.Y)-sz.Height/2))
}

func (v *calloutView) SetAffordance(a gesture.Affordance) { v.label.SetAffordance(a) }

// overlay is the demo chart with its three draggable elements.
type overlay struct {
	sess    *session.Session
	root    *fyne.Container
	label   *labelNode
	note    *noteBox
	callout *calloutView
	toast   *toast
	tracker gesture.Tracker

	labelCtl   *gesture.Canvas
	calloutCtl *gesture.Canvas
}

func newOverlay(sess *session.Session, t *toast) *overlay {
	o := &overlay{sess: sess, toast: t}
	c := extent{W: chartW, H: chartH}

	bg := canvas.NewRectangle(chartBackground)
	bg.Resize(fyne.NewSize(chartW, chartH))
	objs := []fyne.CanvasObject{bg}
	for i, r := range barRects(demoBars, c) {
		b := canvas.NewRectangle(chartBar)
		b.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
		b.Resize(fyne.NewSize(float32(r.W), float32(r.H)))
		name := canvas.NewText(demoBars[i].Name, chartInk)
		name.TextSize = 11
		name.Move(fyne.NewPos(float32(r.X), float32(chartH-chartPad+4)))
		objs = append(objs, b, name)
	}
	avg := average(demoBars)
	ay := float32(valueY(avg, chartH))
	avgLine := canvas.NewLine(chartAvg)
	avgLine.StrokeWidth = 2
	avgLine.Position1 = fyne.NewPos(chartPad, ay)
	avgLine.Position2 = fyne.NewPos(chartW-chartPad, ay)
	objs = append(objs, avgLine)

	loc := func(el string) position.Location { return position.Location{Panel: demoPanel, Element: el} }

	o.label = &labelNode{dragText: newDragText(fmt.Sprintf("World avg %.1f", avg)), base: fyne.NewPos(chartW-chartPad-110, ay-26)}
	o.labelCtl = sess.RegisterCanvas(loc(avgLabelID), o.label, defaultLabelOffset)
	o.label.ctl = o.labelCtl

	anchor, _ := barTop(demoBars, c, calloutTitle)
	o.callout = newCalloutView(calloutTitle + " leads the sample")
	co := annotation.New(loc(calloutID), anchor, o.callout.label.text.Text, o.callout)
	o.calloutCtl = sess.RegisterCallout(co, defaultCalloutOffset)
	o.callout.label.ctl = o.calloutCtl

	o.note = newNoteBox(o, "Source: demo data")
	o.note.ctl = sess.RegisterBox(loc(noteID), o.note, defaultNoteBox)

	objs = append(objs, o.callout.line, o.callout.dot, o.callout.label, o.label.dragText, o.note, t.box)
	o.root = container.New(&overlayLayout{o: o}, objs...)
	return o
}

// area is the size the note is anchored against.
func (o *overlay) area() extent {
	if o.root == nil {
		return extent{W: chartW, H: chartH}
	}
	return toExtent(o.root.Size())
}

func (o *overlay) placeNote() {
	sz := o.note.MinSize()
	o.note.Resize(sz)
	p := placeBox(o.area(), toExtent(sz), o.note.box, toPt(o.note.Position()))
	o.note.Move(toPos(p))
}

// overlayLayout keeps the chart at its fixed size and re-anchors the note and
// the notification whenever the window changes.
type overlayLayout struct {
	o *overlay
}

func (l *overlayLayout) Layout(_ []fyne.CanvasObject, size fyne.Size) {
	o := l.o
	o.label.Resize(o.label.MinSize())
	o.label.SetOffset(o.label.offset)
	o.callout.Render(o.callout.geom)
	o.placeNote()
	ts := o.toast.box.MinSize()
	o.toast.box.Resize(ts)
	o.toast.box.Move(fyne.NewPos((size.Width-ts.Width)/2, 12))
}

func (l *overlayLayout) MinSize([]fyne.CanvasObject) fyne.Size { return fyne.NewSize(chartW, chartH) }
