/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"chartoverlay/internal/notify"
	"chartoverlay/internal/position"
	"chartoverlay/internal/vector"
)

// PNGOptions controls the diagram sheet. Sizes are pixels.
type PNGOptions struct {
	CellSize int // edge length of one panel cell, default 260
	Columns  int // cells per row, default 3
}

var (
	sheetBackground = color.RGBA{255, 255, 255, 255}
	sheetGrid       = color.RGBA{0xce, 0xd4, 0xda, 255}
	sheetText       = color.RGBA{0x21, 0x25, 0x29, 255}
	sheetAxis       = color.RGBA{0xe9, 0xec, 0xef, 255}
)

const (
	boxW    = 64
	boxH    = 18
	dotSize = 5
)

// WritePNG draws one cell per panel. The cell centre is the authored origin
// of translation and label elements; box elements are placed against the
// cell edges named by their descriptor.
func WritePNG(w io.Writer, s *position.Store, opt PNGOptions) error {
	dc := gg.NewContextForRGBA(RenderPNG(s, opt))
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WritePNGFile writes the diagram to path, creating its directory.
func WritePNGFile(path string, s *position.Store, opt PNGOptions) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := WritePNG(f, s, opt); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// RenderPNG returns the diagram image.
func RenderPNG(s *position.Store, opt PNGOptions) *image.RGBA {
	cell := opt.CellSize
	if cell <= 0 {
		cell = 260
	}
	cols := opt.Columns
	if cols <= 0 {
		cols = 3
	}
	var panels []string
	if s != nil {
		panels = s.Panels()
	}
	n := max(len(panels), 1)
	cols = min(cols, n)
	rows := (n + cols - 1) / cols

	img := image.NewRGBA(image.Rect(0, 0, cols*cell, rows*cell))
	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(sheetBackground)
	dc.Clear()
	if len(panels) == 0 {
		text(dc, 8, 8, "no positions recorded", sheetText)
		return img
	}
	for i, p := range panels {
		r := image.Rect((i%cols)*cell, (i/cols)*cell, (i%cols+1)*cell, (i/cols+1)*cell)
		dc.Push()
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Clip()
		drawPanel(dc, r, p, s)
		dc.ResetClip()
		dc.Pop()
	}
	return img
}

func drawPanel(dc *gg.Context, b image.Rectangle, panel string, s *position.Store) {
	strokeRect(dc, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y), sheetGrid)
	origin := vector.Pt{X: float64(b.Min.X + b.Dx()/2), Y: float64(b.Min.Y + b.Dy()/2)}
	line(dc, vector.Pt{X: float64(b.Min.X), Y: origin.Y}, vector.Pt{X: float64(b.Max.X), Y: origin.Y}, sheetAxis)
	line(dc, vector.Pt{X: origin.X, Y: float64(b.Min.Y)}, vector.Pt{X: origin.X, Y: float64(b.Max.Y)}, sheetAxis)
	text(dc, float64(b.Min.X+4), float64(b.Min.Y+4), panel, sheetText)

	saved := rgba(notify.ColorSaved)
	modeOn := rgba(notify.ColorModeOn)
	rawY := float64(b.Max.Y - 16)
	for _, e := range s.Elements(panel) {
		d, _ := s.Get(panel, e)
		switch v := d.(type) {
		case position.Translation:
			p := origin.Add(vector.Pt{X: v.X, Y: v.Y})
			dot(dc, p, modeOn)
			text(dc, p.X+dotSize, p.Y-6, e, sheetText)
		case position.LabelOffset:
			g := vector.ResolveCallout(origin, vector.Pt{X: v.TextX, Y: v.TextY})
			dot(dc, origin, saved)
			line(dc, origin, g.LineEndAbs(), saved)
			lp := g.LabelAbs()
			x := lp.X
			if g.Align == vector.AlignEnd {
				w, _ := dc.MeasureString(e)
				x -= w
			}
			text(dc, x, lp.Y-6, e, sheetText)
		case position.Box:
			r := boxRect(b, v)
			strokeRect(dc, r, modeOn)
			text(dc, float64(r.Min.X+3), float64(r.Min.Y+2), e, sheetText)
		default:
			text(dc, float64(b.Min.X+4), rawY, "raw: "+e, sheetText)
			rawY -= 14
		}
	}
}

// boxRect places a fixed-size marker inside cell according to the active
// edges; an axis without an edge is centred.
func boxRect(cell image.Rectangle, bx position.Box) image.Rectangle {
	x := cell.Min.X + (cell.Dx()-boxW)/2
	switch bx.Horizontal.Edge {
	case position.EdgeStart:
		x = cell.Min.X + round(bx.Horizontal.Offset)
	case position.EdgeEnd:
		x = cell.Max.X - boxW - round(bx.Horizontal.Offset)
	}
	y := cell.Min.Y + (cell.Dy()-boxH)/2
	switch bx.Vertical.Edge {
	case position.EdgeStart:
		y = cell.Min.Y + round(bx.Vertical.Offset)
	case position.EdgeEnd:
		y = cell.Max.Y - boxH - round(bx.Vertical.Offset)
	}
	return image.Rect(x, y, x+boxW, y+boxH)
}

func round(f float64) int { return int(math.Round(f)) }

func rgba(c color.NRGBA) color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255} }

// text draws s with its top-left corner at x, y.
func text(dc *gg.Context, x, y float64, s string, col color.Color) {
	dc.SetColor(col)
	dc.DrawStringAnchored(s, x, y, 0, 1)
}

func dot(dc *gg.Context, p vector.Pt, col color.Color) {
	dc.SetColor(col)
	dc.DrawCircle(p.X, p.Y, dotSize/2.0)
	dc.Fill()
}

func line(dc *gg.Context, a, b vector.Pt, col color.Color) {
	dc.SetColor(col)
	dc.SetLineWidth(1)
	dc.DrawLine(a.X, a.Y, b.X, b.Y)
	dc.Stroke()
}

// strokeRect draws a 1px border on the pixels just inside r.
func strokeRect(dc *gg.Context, r image.Rectangle, col color.Color) {
	dc.SetColor(col)
	dc.SetLineWidth(1)
	dc.DrawRectangle(float64(r.Min.X)+0.5, float64(r.Min.Y)+0.5, float64(r.Dx()-1), float64(r.Dy()-1))
	dc.Stroke()
}
