/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package richtext

import (
	"regexp"
	"strings"
)

var (
	boldRe        = regexp.MustCompile(`\*\*([^*]+(?:\*[^*]+)*)\*\*`)
	italicInBold  = regexp.MustCompile(`\*([^*]+)\*`)
	imageMarkdown = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
)

// IsEditorHTML reports whether text already is editor HTML and must not be converted.
func IsEditorHTML(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<")
}

// FromStorage converts stored text to editor HTML. Input that already is
// HTML passes through unchanged.
func FromStorage(text string) string {
	if text == "" {
		return ""
	}
	if IsEditorHTML(text) {
		return text
	}
	return HTML(ParseStorage(text))
}

// ParseStorage reads stored text into paragraphs. A blank line ends the
// current paragraph and, when more text follows, leaves an empty paragraph as
// spacing. Lines inside a paragraph are separated by LineBreak. An image gets
// a paragraph of its own at the position where it occurs.
func ParseStorage(text string) []Node {
	if text == "" {
		return nil
	}
	var (
		out []Node
		cur [][]Node
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		var p Paragraph
		for i, line := range cur {
			if i > 0 {
				p.Children = append(p.Children, LineBreak{})
			}
			p.Children = append(p.Children, line...)
		}
		out = append(out, p)
		cur = nil
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			if i < len(lines)-1 && strings.TrimSpace(lines[i+1]) != "" {
				out = append(out, Paragraph{})
			}
			continue
		}
		rest := line
		for {
			m := imageMarkdown.FindStringSubmatchIndex(rest)
			if m == nil {
				break
			}
			if before := strings.TrimSpace(rest[:m[0]]); before != "" {
				cur = append(cur, inline(before))
			}
			flush()
			out = append(out, Paragraph{Children: []Node{Image{Alt: rest[m[2]:m[3]], Src: rest[m[4]:m[5]]}}})
			rest = strings.TrimSpace(rest[m[1]:])
		}
		if rest != "" {
			cur = append(cur, inline(rest))
		}
	}
	flush()
	return out
}

// inline converts emphasis in one line: bold spans first (with italic
// inside), then standalone italic in the text between them.
func inline(s string) []Node {
	var out []Node
	last := 0
	for _, m := range boldRe.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, italics(s[last:m[0]])...)
		out = append(out, Bold{Children: boldContent(s[m[2]:m[3]])})
		last = m[1]
	}
	return append(out, italics(s[last:])...)
}

func boldContent(s string) []Node {
	var out []Node
	last := 0
	for _, m := range italicInBold.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			out = append(out, Text{Value: s[last:m[0]]})
		}
		out = append(out, Italic{Children: []Node{Text{Value: s[m[2]:m[3]]}}})
		last = m[1]
	}
	if last < len(s) {
		out = append(out, Text{Value: s[last:]})
	}
	return out
}

// italics converts *x* where neither star touches another star.
func italics(s string) []Node {
	var out []Node
	last := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '*' || (i > 0 && s[i-1] == '*') {
			continue
		}
		j := strings.IndexByte(s[i+1:], '*')
		if j <= 0 {
			continue
		}
		j += i + 1
		if j+1 < len(s) && s[j+1] == '*' {
			continue
		}
		if i > last {
			out = append(out, Text{Value: s[last:i]})
		}
		out = append(out, Italic{Children: []Node{Text{Value: s[i+1 : j]}}})
		last = j + 1
		i = j
	}
	if last < len(s) {
		out = append(out, Text{Value: s[last:]})
	}
	return out
}
