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
	"io"
	"log/slog"
	"strings"

	"github.com/jung-kurt/gofpdf"

	applog "magicscribe/internal/log"
	"magicscribe/internal/render"
)

// PDFOptions controls PDF export. Units are points.
// Text uses the built-in Helvetica, so characters outside cp1252 (emoji in
// event labels, most non-Latin scripts) are replaced.
type PDFOptions struct {
	PageSize string  // "A4" (default), "Letter", "A5"
	FontSize float64 // body size, default 11
	Margin   float64 // default 54 (3/4 inch)
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.PageSize == "" {
		o.PageSize = "A4"
	}
	if o.FontSize <= 0 {
		o.FontSize = 11
	}
	if o.Margin <= 0 {
		o.Margin = 54
	}
	return o
}

// ExportPDF writes the chapter as a PDF file at outPath.
func ExportPDF(ch Chapter, outPath string, opt PDFOptions) error {
	f, err := createOut(outPath)
	if err != nil {
		return err
	}
	if err := WritePDF(f, ch, opt); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WritePDF renders the chapter and writes a PDF document to w.
func WritePDF(w io.Writer, ch Chapter, opt PDFOptions) error {
	opt = opt.withDefaults()
	l := applog.WithOperation(applog.WithComponent("export"), "pdf")

	pdf := gofpdf.New("P", "pt", opt.PageSize, "")
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(true, opt.Margin)
	pdf.SetTitle(ch.Heading(), true)
	if ch.Author != "" {
		pdf.SetAuthor(ch.Author, true)
	}
	pdf.SetCreator("magicscribe", true)

	p := &pdfWriter{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		size: opt.FontSize,
		lh:   opt.FontSize * 1.45,
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-opt.Margin / 1.5)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	p.header(ch)

	blocks := ch.blocks()
	for _, b := range blocks {
		p.block(b)
		if pdf.Err() {
			break
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	l.Debug("pdf written", slog.Int("blocks", len(blocks)), slog.Int("pages", pdf.PageNo()))
	return nil
}

type pdfWriter struct {
	pdf  *gofpdf.Fpdf
	tr   func(string) string
	size float64
	lh   float64
}

func (p *pdfWriter) text(s string) string { return p.tr(s) }

func (p *pdfWriter) font(style string, scale float64) {
	p.pdf.SetFont("Helvetica", style, p.size*scale)
}

func (p *pdfWriter) color(hex string) {
	p.pdf.SetTextColor(rgb(hex))
}

func (p *pdfWriter) header(ch Chapter) {
	pdf := p.pdf
	if ch.Series != "" {
		p.font("", 0.9)
		pdf.SetTextColor(100, 116, 139)
		pdf.MultiCell(0, p.lh, p.text(ch.Series), "", "L", false)
	}
	p.font("B", 1.8)
	pdf.SetTextColor(15, 23, 42)
	pdf.MultiCell(0, p.size*2.4, p.text(ch.Heading()), "", "L", false)
	pdf.Ln(p.lh)
}

func (p *pdfWriter) block(b render.Block) {
	pdf := p.pdf
	switch b.Kind {
	case render.KindParagraph:
		if strings.TrimSpace(strings.ReplaceAll(b.Text, render.NBSP, "")) == "" {
			pdf.Ln(p.lh)
			return
		}
		p.font("", 1)
		pdf.SetTextColor(30, 30, 30)
		pdf.MultiCell(0, p.lh, p.text(b.Text), "", "L", false)
		pdf.Ln(p.lh * 0.4)
	case render.KindDialogue:
		pal := render.ColorOf(b.Speaker)
		if b.Palette != nil {
			pal = *b.Palette
		}
		p.turn(b.Speaker, b.Text, pal, true, 0)
		pdf.Ln(p.lh * 0.4)
	case render.KindConversation:
		p.conversation(b)
	case render.KindEmptyDialogue, render.KindEmptyConversation:
		p.placeholder(b.Placeholder)
	case render.KindEvent:
		p.event(b)
	case render.KindPlain:
		p.font("I", 1)
		pdf.SetTextColor(100, 116, 139)
		pdf.MultiCell(0, p.lh, p.text(b.Text), "", "L", false)
		pdf.Ln(p.lh * 0.4)
	case render.KindSfx:
		p.font("B", 1.6)
		pdf.SetTextColor(202, 138, 4)
		pdf.MultiCell(0, p.size*2, p.text(strings.ToUpper(b.Text)), "", "C", false)
		pdf.Ln(p.lh * 0.4)
	case render.KindShake:
		p.font("BI", 1.2)
		pdf.SetTextColor(30, 30, 30)
		pdf.MultiCell(0, p.lh*1.1, p.text(b.Text), "", "C", false)
		pdf.Ln(p.lh * 0.4)
	case render.KindSystem:
		p.font("B", 0.95)
		pdf.SetDrawColor(245, 158, 11)
		pdf.SetFillColor(254, 243, 199)
		pdf.SetTextColor(146, 64, 14)
		pdf.SetLineWidth(1)
		pdf.MultiCell(0, p.lh*1.2, p.text(strings.ToUpper(b.Text)), "1", "C", true)
		pdf.Ln(p.lh * 0.6)
	}
}

func (p *pdfWriter) conversation(b render.Block) {
	pdf := p.pdf
	names := make([]string, 0, len(b.Participants))
	for _, pt := range b.Participants {
		names = append(names, pt.Name)
	}
	p.font("B", 0.8)
	pdf.SetTextColor(100, 116, 139)
	pdf.MultiCell(0, p.lh, p.text("Conversation: "+strings.Join(names, ", ")), "", "L", false)
	for _, t := range b.Turns {
		if t.Empty {
			p.placeholder(t.Placeholder)
			continue
		}
		p.turn(t.Speaker, t.Text, t.Palette, t.ShowName, 12)
	}
	pdf.Ln(p.lh * 0.6)
}

// turn draws a speaker label and a tinted bubble with an accent bar in the
// speaker's color.
func (p *pdfWriter) turn(speaker, text string, pal render.Palette, showName bool, indent float64) {
	pdf := p.pdf
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	x := left + indent
	w := pageW - right - x
	r, g, b := rgb(pal.Hex)

	if showName {
		pdf.SetX(x)
		p.font("B", 0.9)
		p.color(pal.Hex)
		pdf.MultiCell(w, p.lh, p.text(speaker), "", "L", false)
	}
	p.font("", 1)
	pdf.SetTextColor(30, 30, 30)
	pdf.SetFillColor(tint(r, g, b, 0.15))
	y0 := pdf.GetY()
	pdf.SetX(x + 4)
	pdf.MultiCell(w-4, p.lh, p.text(text), "", "L", true)
	y1 := pdf.GetY()
	if y1 > y0 {
		pdf.SetFillColor(r, g, b)
		pdf.Rect(x, y0, 3, y1-y0, "F")
	}
	pdf.Ln(p.lh * 0.25)
}

func (p *pdfWriter) event(b render.Block) {
	pdf := p.pdf
	label, hex := eventLabel(b.EventType)
	r, g, bl := rgb(hex)
	text := b.Text
	if b.Placeholder != "" {
		text = b.Placeholder
	}
	pdf.SetDrawColor(r, g, bl)
	pdf.SetFillColor(tint(r, g, bl, 0.12))
	pdf.SetLineWidth(1.5)
	p.font("B", 0.8)
	pdf.SetTextColor(r, g, bl)
	pdf.MultiCell(0, p.lh, p.text(strings.ToUpper(plainLabel(label))), "LTR", "L", true)
	p.font("", 1)
	pdf.SetTextColor(30, 30, 30)
	pdf.MultiCell(0, p.lh, p.text(text), "LBR", "L", true)
	pdf.SetLineWidth(1)
	pdf.Ln(p.lh * 0.6)
}

func (p *pdfWriter) placeholder(s string) {
	p.font("I", 0.9)
	p.pdf.SetTextColor(100, 116, 139)
	p.pdf.MultiCell(0, p.lh, p.text(s), "", "L", false)
	p.pdf.Ln(p.lh * 0.3)
}
