/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markup

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// TokenKind classifies a lexer token.
type TokenKind uint8

const (
	TokenText TokenKind = iota
	TokenNewline
	TokenOpen
	TokenClose
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenNewline:
		return "newline"
	case TokenOpen:
		return "open"
	case TokenClose:
		return "close"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

// Token is one lexical unit. Start/End are byte offsets into the source;
// Line and Col (1-based, Col counted in runes) locate Start.
type Token struct {
	Kind  TokenKind
	Tag   TagName // open and close tokens only
	Attrs string  // raw attribute text following the tag name, open tokens only
	Start int
	End   int
	Line  int
	Col   int
}

// Text returns the source slice covered by the token.
func (t Token) Text(src string) string { return src[t.Start:t.End] }

// Attributes parses the raw attribute text of an open token.
func (t Token) Attributes() map[string]string { return ParseAttrs(t.Attrs) }

func (t Token) String() string {
	switch t.Kind {
	case TokenOpen:
		return fmt.Sprintf("%d:%d open %s %q", t.Line, t.Col, t.Tag, t.Attrs)
	case TokenClose:
		return fmt.Sprintf("%d:%d close %s", t.Line, t.Col, t.Tag)
	default:
		return fmt.Sprintf("%d:%d %s", t.Line, t.Col, t.Kind)
	}
}

// tagRe recognizes a single bracket tag. Attributes may not cross a line break.
var tagRe = regexp.MustCompile(`(?i)\[(/?)(dialogue|conversation|event|sfx|shake|system)(\s[^\]\n]*)?\]`)

// Lex splits src into text, newline and tag tokens. Anything that looks like a
// bracket but is not one of the known tags is text. A close tag carrying
// attributes is text as well.
func Lex(src string) []Token {
	lx := lexer{src: src, line: 1, col: 1}
	for _, m := range tagRe.FindAllStringSubmatchIndex(src, -1) {
		start, end := m[0], m[1]
		closing := m[3] > m[2]
		name := TagName(strings.ToLower(src[m[4]:m[5]]))
		attrs := ""
		if m[6] >= 0 {
			attrs = src[m[6]:m[7]]
		}
		if closing && attrs != "" {
			continue
		}
		lx.text(start)
		kind := TokenOpen
		if closing {
			kind = TokenClose
		}
		lx.emit(Token{Kind: kind, Tag: name, Attrs: attrs, Start: start, End: end})
	}
	lx.text(len(src))
	return lx.toks
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
	toks []Token
}

// text emits text and newline tokens for src[pos:upto].
func (lx *lexer) text(upto int) {
	for lx.pos < upto {
		nl := strings.IndexByte(lx.src[lx.pos:upto], '\n')
		if nl < 0 {
			lx.emit(Token{Kind: TokenText, Start: lx.pos, End: upto})
			return
		}
		if nl > 0 {
			lx.emit(Token{Kind: TokenText, Start: lx.pos, End: lx.pos + nl})
		}
		lx.emit(Token{Kind: TokenNewline, Start: lx.pos, End: lx.pos + 1})
	}
}

func (lx *lexer) emit(t Token) {
	t.Line, t.Col = lx.line, lx.col
	lx.toks = append(lx.toks, t)
	if t.Kind == TokenNewline {
		lx.line++
		lx.col = 1
	} else {
		lx.col += utf8.RuneCountInString(lx.src[t.Start:t.End])
	}
	lx.pos = t.End
}

var attrRe = regexp.MustCompile(`([A-Za-z_][\w-]*)\s*=\s*"([^"]*)"`)

// ParseAttrs extracts key="value" pairs from raw attribute text. Keys are
// lower-cased; the first occurrence of a key wins.
func ParseAttrs(raw string) map[string]string {
	out := map[string]string{}
	for _, m := range attrRe.FindAllStringSubmatch(raw, -1) {
		k := strings.ToLower(m[1])
		if _, dup := out[k]; dup {
			continue
		}
		out[k] = m[2]
	}
	return out
}
