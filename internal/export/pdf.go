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
	"image/color"
	"io"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"chartoverlay/internal/position"
	"chartoverlay/internal/version"
)

// PDFOptions controls the table sheet. Units are millimetres on A4.
type PDFOptions struct {
	Title       string // defaults to "Overlay positions"
	Source      string // shown under the title, e.g. the positions file path
	Landscape   bool
	HeaderColor color.NRGBA // zero uses a light grey
}

var pdfColumns = []struct {
	title string
	width float64 // share of the printable width
}{
	{"Panel", 0.22},
	{"Element", 0.26},
	{"Shape", 0.14},
	{"Placement", 0.38},
}

// WritePDF writes the table sheet of s to w. An absent store yields a sheet
// that says so rather than an error.
func WritePDF(w io.Writer, s *position.Store, opt PDFOptions) error {
	orient := "P"
	if opt.Landscape {
		orient = "L"
	}
	pdf := gofpdf.New(orient, "mm", "A4", "")
	title := opt.Title
	if title == "" {
		title = "Overlay positions"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor("chartoverlay "+version.String(), true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := opt.HeaderColor
	if header == (color.NRGBA{}) {
		header = color.NRGBA{R: 0xe9, G: 0xec, B: 0xef, A: 0xff}
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	printable := pageW - left - right

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(int(header.R), int(header.G), int(header.B))
		for _, c := range pdfColumns {
			pdf.CellFormat(printable*c.width, 7, c.title, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			drawHeader()
		}
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	sub := "Generated " + time.Now().Format("2006-01-02 15:04")
	if opt.Source != "" {
		sub = tr(opt.Source) + " - " + sub
	}
	pdf.CellFormat(0, 6, sub, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	rows := Rows(s)
	if len(rows) == 0 {
		pdf.CellFormat(0, 8, "No positions recorded; every element uses its built-in default.", "", 1, "L", false, 0, "")
	} else {
		drawHeader()
		for _, r := range rows {
			cells := []string{r.Panel, r.Element, r.Kind, r.Summary}
			for i, c := range pdfColumns {
				pdf.CellFormat(printable*c.width, 6, fit(pdf, tr(cells[i]), printable*c.width-2), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fit shortens an already translated single-byte string with an ellipsis
// until it fits width at the current font.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 1 {
		s = s[:len(s)-1]
		if pdf.GetStringWidth(s+"...") <= width {
			break
		}
	}
	return s + "..."
}

// WritePDFFile writes the sheet to path, creating its directory.
func WritePDFFile(path string, s *position.Store, opt PDFOptions) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := WritePDF(f, s, opt); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
