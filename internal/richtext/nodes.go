/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package richtext converts between stored chapter text (markdown-flavoured
// prose with **bold**, *italic* and ![alt](url) images) and the editor's
// paragraph HTML. Both directions go through a small typed tree.
package richtext

import (
	"html"
	"strings"
)

// Node is an element of the rich-text tree.
type Node interface{ isNode() }

type Paragraph struct{ Children []Node }

type Bold struct{ Children []Node }

type Italic struct{ Children []Node }

type Text struct{ Value string }

type LineBreak struct{}

type Image struct {
	Src string
	Alt string
}

func (Paragraph) isNode() {}
func (Bold) isNode()      {}
func (Italic) isNode()    {}
func (Text) isNode()      {}
func (LineBreak) isNode() {}
func (Image) isNode()     {}

// ImageClass is the class list the editor puts on inline images.
const ImageClass = "max-w-xs h-auto rounded-lg my-4 image-editable mx-auto block"

func children(n Node) []Node {
	switch v := n.(type) {
	case Paragraph:
		return v.Children
	case Bold:
		return v.Children
	case Italic:
		return v.Children
	}
	return nil
}

// Walk visits nodes depth-first. fn is called with entering=true before a
// node's children and entering=false after them; returning false from the
// entering call skips the children.
func Walk(nodes []Node, fn func(n Node, entering bool) bool) {
	for _, n := range nodes {
		if fn(n, true) {
			Walk(children(n), fn)
		}
		fn(n, false)
	}
}

// textEscaper escapes what text content needs inside an element: &, < and >.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// HTML renders the tree as editor HTML.
func HTML(nodes []Node) string {
	var b strings.Builder
	Walk(nodes, func(n Node, entering bool) bool {
		switch v := n.(type) {
		case Paragraph:
			b.WriteString(pick(entering, "<p>", "</p>"))
		case Bold:
			b.WriteString(pick(entering, "<strong>", "</strong>"))
		case Italic:
			b.WriteString(pick(entering, "<em>", "</em>"))
		case Text:
			if entering {
				b.WriteString(textEscaper.Replace(v.Value))
			}
		case LineBreak:
			if entering {
				b.WriteString("<br>")
			}
		case Image:
			if entering {
				b.WriteString(`<img src="` + html.EscapeString(v.Src) + `" alt="` + html.EscapeString(v.Alt) + `" class="` + ImageClass + `" />`)
			}
		}
		return true
	})
	return b.String()
}

// PlainText returns the concatenated text content, one paragraph per line.
func PlainText(nodes []Node) string {
	var b strings.Builder
	Walk(nodes, func(n Node, entering bool) bool {
		switch v := n.(type) {
		case Text:
			if entering {
				b.WriteString(v.Value)
			}
		case LineBreak:
			if entering {
				b.WriteByte('\n')
			}
		case Paragraph:
			if !entering {
				b.WriteByte('\n')
			}
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

func pick(entering bool, open, close string) string {
	if entering {
		return open
	}
	return close
}
