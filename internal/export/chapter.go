/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes a rendered chapter to offline formats: a paginated
// PDF and a reflowable EPUB 3. Both start from the same render blocks the
// reader site and the preview server use.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"magicscribe/internal/markup"
	"magicscribe/internal/render"
)

// Chapter is the input of every exporter. Markup is chapter content in
// storage form.
type Chapter struct {
	Series   string
	Number   int
	Title    string
	Author   string
	Language string
	Markup   string
}

// Heading is the display title, e.g. "Chapter 3: The Gate".
func (c Chapter) Heading() string {
	title := strings.TrimSpace(c.Title)
	switch {
	case c.Number > 0 && title != "":
		return fmt.Sprintf("Chapter %d: %s", c.Number, title)
	case c.Number > 0:
		return fmt.Sprintf("Chapter %d", c.Number)
	case title != "":
		return title
	}
	return "Untitled chapter"
}

func (c Chapter) language() string {
	if l := strings.TrimSpace(c.Language); l != "" {
		return l
	}
	return "en"
}

func (c Chapter) blocks() []render.Block { return render.RenderString(c.Markup) }

// eventLabel returns the catalog label of an event type, or the raw type.
func eventLabel(t markup.EventType) (label string, hex string) {
	if spec, ok := markup.LookupEvent(t); ok {
		return spec.Label, render.CategoryHex(spec.Category)
	}
	return string(t), render.CategoryHex("")
}

// plainLabel drops the leading emoji of a label ("⚡ Power Up" -> "Power Up").
func plainLabel(label string) string {
	return strings.TrimLeftFunc(label, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
}

// rgb parses "#rrggbb". Anything else is slate gray.
func rgb(hex string) (int, int, int) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return 100, 116, 139
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 100, 116, 139
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// tint mixes a color with white; amount 0 is white, 1 the color itself.
func tint(r, g, b int, amount float64) (int, int, int) {
	mix := func(c int) int { return int(255 - (255-float64(c))*amount) }
	return mix(r), mix(g), mix(b)
}

func createOut(outPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Base(outPath), err)
	}
	return f, nil
}

func xmlEsc(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		case '\u00a0':
			b.WriteString("&#160;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
