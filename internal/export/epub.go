/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "magicscribe/internal/log"
	"magicscribe/internal/markup"
	"magicscribe/internal/render"
)

// EPUBOptions controls EPUB metadata. A zero Modified means now; an empty
// Identifier gets a random urn:uuid.
type EPUBOptions struct {
	Publisher   string
	Description string
	Identifier  string
	Modified    time.Time
}

// ExportEPUB writes the chapter as a reflowable EPUB 3 at outPath.
func ExportEPUB(ch Chapter, outPath string, opt EPUBOptions) error {
	f, err := createOut(outPath)
	if err != nil {
		return err
	}
	if err := WriteEPUB(f, ch, opt); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteEPUB writes the EPUB container to w. Layout:
//
//	mimetype (stored, first)
//	META-INF/container.xml
//	OEBPS/content.opf, nav.xhtml, chapter.xhtml, styles/chapter.css
func WriteEPUB(w io.Writer, ch Chapter, opt EPUBOptions) error {
	l := applog.WithOperation(applog.WithComponent("export"), "epub")
	zw := zip.NewWriter(w)

	if err := addStoredZipFile(zw, "mimetype", []byte("application/epub+zip")); err != nil {
		_ = zw.Close()
		return fmt.Errorf("write mimetype: %w", err)
	}
	container := "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<container version=\"1.0\" xmlns=\"urn:oasis:names:tc:opendocument:xmlns:container\">\n" +
		"  <rootfiles>\n" +
		"    <rootfile full-path=\"OEBPS/content.opf\" media-type=\"application/oebps-package+xml\"/>\n" +
		"  </rootfiles>\n" +
		"</container>\n"
	blocks := ch.blocks()
	files := []struct {
		name string
		data []byte
	}{
		{"META-INF/container.xml", []byte(container)},
		{"OEBPS/content.opf", contentOPF(ch, opt)},
		{"OEBPS/nav.xhtml", navXHTML(ch)},
		{"OEBPS/chapter.xhtml", chapterXHTML(ch, blocks)},
		{"OEBPS/styles/chapter.css", []byte(chapterCSS())},
	}
	for _, f := range files {
		if err := addZipFile(zw, f.name, f.data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	l.Debug("epub written", slog.Int("blocks", len(blocks)))
	return nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// addStoredZipFile writes an entry without compression, required for the EPUB mimetype.
func addStoredZipFile(zw *zip.Writer, name string, data []byte) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Store}
	hdr.Modified = time.Now()
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func contentOPF(ch Chapter, opt EPUBOptions) []byte {
	uid := opt.Identifier
	if uid == "" {
		uid = "urn:uuid:" + uuid.NewString()
	}
	mod := opt.Modified
	if mod.IsZero() {
		mod = time.Now()
	}
	b := &bytes.Buffer{}
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<package version=\"3.0\" unique-identifier=\"pub-id\" xmlns=\"http://www.idpf.org/2007/opf\">\n")
	b.WriteString("  <metadata xmlns:dc=\"http://purl.org/dc/elements/1.1/\">\n")
	fmt.Fprintf(b, "    <dc:identifier id=\"pub-id\">%s</dc:identifier>\n", xmlEsc(uid))
	fmt.Fprintf(b, "    <dc:title>%s</dc:title>\n", xmlEsc(ch.Heading()))
	fmt.Fprintf(b, "    <dc:language>%s</dc:language>\n", xmlEsc(ch.language()))
	if strings.TrimSpace(ch.Author) != "" {
		fmt.Fprintf(b, "    <dc:creator>%s</dc:creator>\n", xmlEsc(ch.Author))
	}
	if strings.TrimSpace(opt.Publisher) != "" {
		fmt.Fprintf(b, "    <dc:publisher>%s</dc:publisher>\n", xmlEsc(opt.Publisher))
	}
	if strings.TrimSpace(opt.Description) != "" {
		fmt.Fprintf(b, "    <dc:description>%s</dc:description>\n", xmlEsc(opt.Description))
	}
	if ch.Series != "" {
		b.WriteString("    <meta property=\"belongs-to-collection\" id=\"series\">" + xmlEsc(ch.Series) + "</meta>\n")
		b.WriteString("    <meta refines=\"#series\" property=\"collection-type\">series</meta>\n")
		if ch.Number > 0 {
			fmt.Fprintf(b, "    <meta refines=\"#series\" property=\"group-position\">%d</meta>\n", ch.Number)
		}
	}
	fmt.Fprintf(b, "    <meta property=\"dcterms:modified\">%s</meta>\n", mod.UTC().Format("2006-01-02T15:04:05Z"))
	b.WriteString("  </metadata>\n")
	b.WriteString("  <manifest>\n")
	b.WriteString("    <item id=\"nav\" href=\"nav.xhtml\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n")
	b.WriteString("    <item id=\"css\" href=\"styles/chapter.css\" media-type=\"text/css\"/>\n")
	b.WriteString("    <item id=\"chapter\" href=\"chapter.xhtml\" media-type=\"application/xhtml+xml\"/>\n")
	b.WriteString("  </manifest>\n")
	b.WriteString("  <spine>\n")
	b.WriteString("    <itemref idref=\"chapter\"/>\n")
	b.WriteString("  </spine>\n")
	b.WriteString("</package>\n")
	return b.Bytes()
}

func xhtmlHead(b *bytes.Buffer, lang, title string, epubNS bool) {
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<!DOCTYPE html>\n")
	ns := ""
	if epubNS {
		ns = " xmlns:epub=\"http://www.idpf.org/2007/ops\""
	}
	fmt.Fprintf(b, "<html xmlns=\"http://www.w3.org/1999/xhtml\"%s xml:lang=\"%s\" lang=\"%s\">\n<head>\n", ns, xmlEsc(lang), xmlEsc(lang))
	b.WriteString("<meta charset=\"utf-8\"/>\n")
	fmt.Fprintf(b, "<title>%s</title>\n", xmlEsc(title))
	b.WriteString("<link rel=\"stylesheet\" type=\"text/css\" href=\"styles/chapter.css\"/>\n")
	b.WriteString("</head>\n")
}

func navXHTML(ch Chapter) []byte {
	b := &bytes.Buffer{}
	xhtmlHead(b, ch.language(), ch.Heading(), true)
	b.WriteString("<body>\n<nav epub:type=\"toc\" id=\"toc\">\n<h1>Contents</h1>\n<ol>\n")
	fmt.Fprintf(b, "<li><a href=\"chapter.xhtml\">%s</a></li>\n", xmlEsc(ch.Heading()))
	b.WriteString("</ol>\n</nav>\n</body>\n</html>\n")
	return b.Bytes()
}

func chapterXHTML(ch Chapter, blocks []render.Block) []byte {
	b := &bytes.Buffer{}
	xhtmlHead(b, ch.language(), ch.Heading(), false)
	b.WriteString("<body>\n<section class=\"chapter\">\n")
	if ch.Series != "" {
		fmt.Fprintf(b, "<p class=\"series\">%s</p>\n", xmlEsc(ch.Series))
	}
	fmt.Fprintf(b, "<h1>%s</h1>\n", xmlEsc(ch.Heading()))
	for _, blk := range blocks {
		writeBlockXHTML(b, blk)
	}
	b.WriteString("</section>\n</body>\n</html>\n")
	return b.Bytes()
}

func writeBlockXHTML(b *bytes.Buffer, blk render.Block) {
	switch blk.Kind {
	case render.KindParagraph:
		if strings.TrimSpace(strings.ReplaceAll(blk.Text, render.NBSP, "")) == "" {
			b.WriteString("<p class=\"blank\">&#160;</p>\n")
			return
		}
		fmt.Fprintf(b, "<p>%s</p>\n", xmlEsc(blk.Text))
	case render.KindDialogue:
		pal := render.ColorOf(blk.Speaker)
		if blk.Palette != nil {
			pal = *blk.Palette
		}
		writeTurnXHTML(b, "dialogue", blk.Speaker, blk.Text, pal, true)
	case render.KindConversation:
		names := make([]string, 0, len(blk.Participants))
		for _, p := range blk.Participants {
			names = append(names, fmt.Sprintf("<span class=\"c-%s\">%s</span>", p.Palette.Name, xmlEsc(p.Name)))
		}
		b.WriteString("<div class=\"conversation\">\n")
		fmt.Fprintf(b, "<p class=\"participants\">%s</p>\n", strings.Join(names, ", "))
		for _, t := range blk.Turns {
			if t.Empty {
				fmt.Fprintf(b, "<p class=\"placeholder\">%s</p>\n", xmlEsc(t.Placeholder))
				continue
			}
			writeTurnXHTML(b, "turn", t.Speaker, t.Text, t.Palette, t.ShowName)
		}
		b.WriteString("</div>\n")
	case render.KindEmptyDialogue, render.KindEmptyConversation:
		fmt.Fprintf(b, "<p class=\"placeholder\">%s</p>\n", xmlEsc(blk.Placeholder))
	case render.KindEvent:
		label, _ := eventLabel(blk.EventType)
		cat := "none"
		if spec, ok := markup.LookupEvent(blk.EventType); ok {
			cat = string(spec.Category)
		}
		text := blk.Text
		if blk.Placeholder != "" {
			text = blk.Placeholder
		}
		fmt.Fprintf(b, "<aside class=\"event cat-%s\">\n<p class=\"label\">%s</p>\n<p>%s</p>\n</aside>\n", cat, xmlEsc(label), xmlEsc(text))
	case render.KindPlain:
		fmt.Fprintf(b, "<p class=\"plain\">%s</p>\n", xmlEsc(blk.Text))
	case render.KindSfx:
		fmt.Fprintf(b, "<p class=\"sfx\">%s</p>\n", xmlEsc(blk.Text))
	case render.KindShake:
		fmt.Fprintf(b, "<p class=\"shake\">%s</p>\n", xmlEsc(blk.Text))
	case render.KindSystem:
		fmt.Fprintf(b, "<p class=\"system\">%s %s</p>\n", xmlEsc(blk.Icon), xmlEsc(blk.Text))
	}
}

func writeTurnXHTML(b *bytes.Buffer, class, speaker, text string, pal render.Palette, showName bool) {
	fmt.Fprintf(b, "<div class=\"%s c-%s\">\n", class, pal.Name)
	if showName {
		fmt.Fprintf(b, "<p class=\"speaker\">%s</p>\n", xmlEsc(speaker))
	}
	fmt.Fprintf(b, "<p class=\"bubble\">%s</p>\n</div>\n", xmlEsc(text))
}

// chapterCSS has one rule pair per speaker palette and one per event category.
func chapterCSS() string {
	var b strings.Builder
	b.WriteString(`body { font-family: serif; line-height: 1.5; margin: 0 5%; }
h1 { font-family: sans-serif; font-size: 1.6em; margin: 1em 0; }
.series { font-family: sans-serif; color: #64748b; margin: 0; }
.blank { margin: 0; }
.conversation { border: 1px solid #cbd5e1; border-radius: 0.6em; padding: 0.5em 0.8em; margin: 1em 0; }
.participants { font-family: sans-serif; font-size: 0.85em; font-weight: bold; color: #64748b; }
.turn { margin-left: 1em; }
.speaker { font-family: sans-serif; font-weight: bold; font-size: 0.9em; margin: 0.4em 0 0.1em 0; }
.bubble { border-left: 3px solid #64748b; padding: 0.3em 0.6em; margin: 0 0 0.4em 0; border-radius: 0.4em; }
.placeholder { color: #64748b; font-style: italic; font-size: 0.9em; }
.event { border: 2px solid #64748b; border-radius: 0.5em; padding: 0.4em 0.8em; margin: 1em 0; }
.event .label { font-family: sans-serif; font-weight: bold; text-transform: uppercase; font-size: 0.8em; margin: 0; }
.plain { color: #64748b; font-style: italic; }
.sfx { text-align: center; font-weight: bold; font-size: 1.5em; color: #ca8a04; letter-spacing: 0.1em; }
.shake { text-align: center; font-weight: bold; font-style: italic; }
.system { font-family: sans-serif; text-transform: uppercase; font-weight: bold; color: #92400e; background: #fef3c7; border: 1px solid #f59e0b; border-radius: 0.6em; padding: 0.5em; text-align: center; }
`)
	for _, p := range render.Palettes() {
		fmt.Fprintf(&b, ".c-%s .speaker, span.c-%s { color: %s; }\n", p.Name, p.Name, p.Hex)
		fmt.Fprintf(&b, ".c-%s .bubble { border-left-color: %s; background: %s; }\n", p.Name, p.Hex, p.TailColor)
	}
	for _, c := range []markup.EventCategory{markup.CategoryPower, markup.CategoryCombat, markup.CategoryAction, markup.CategoryTheme, markup.CategoryEmotion} {
		hex := render.CategoryHex(c)
		fmt.Fprintf(&b, ".cat-%s { border-color: %s; }\n.cat-%s .label { color: %s; }\n", c, hex, c, hex)
	}
	return b.String()
}
