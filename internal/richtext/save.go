/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package richtext

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML reads editor HTML into the typed tree. Elements other than p,
// strong/b, em/i, br and img contribute only their children.
func ParseHTML(s string) ([]Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	roots, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse editor html: %w", err)
	}
	var out []Node
	for _, r := range roots {
		out = append(out, convert(r)...)
	}
	return out, nil
}

func convert(n *html.Node) []Node {
	switch n.Type {
	case html.TextNode:
		return []Node{Text{Value: n.Data}}
	case html.ElementNode:
	default:
		return nil
	}
	var kids []Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		kids = append(kids, convert(c)...)
	}
	switch n.DataAtom {
	case atom.Strong, atom.B:
		return []Node{Bold{Children: kids}}
	case atom.Em, atom.I:
		return []Node{Italic{Children: kids}}
	case atom.P:
		return []Node{Paragraph{Children: kids}}
	case atom.Br:
		return []Node{LineBreak{}}
	case atom.Img:
		return []Node{Image{Src: attr(n, "src"), Alt: attr(n, "alt")}}
	}
	return kids
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Markdown serializes the tree to stored text.
func Markdown(nodes []Node) string {
	var b strings.Builder
	Walk(nodes, func(n Node, entering bool) bool {
		switch v := n.(type) {
		case Bold:
			b.WriteString("**")
		case Italic:
			b.WriteString("*")
		case Paragraph:
			if !entering {
				b.WriteByte('\n')
			}
		case Text:
			if entering {
				b.WriteString(v.Value)
			}
		case LineBreak:
			if entering {
				b.WriteByte('\n')
			}
		case Image:
			if entering {
				b.WriteString("![" + v.Alt + "](" + v.Src + ")\n")
			}
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

// ToStorage converts editor HTML to stored text. The tokenizer reading from a
// string does not fail in practice; if it ever does, the input is returned trimmed.
func ToStorage(s string) string {
	nodes, err := ParseHTML(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return Markdown(nodes)
}
