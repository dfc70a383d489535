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
	"strings"
)

// linePriority is the order in which a single line is tested for a tag.
var linePriority = []TagName{TagSystem, TagEvent, TagSfx, TagShake, TagDialogue}

// Parse decodes src into a Document. It never fails: anything that does not
// form a well-shaped tag stays prose.
func Parse(src string) Document {
	p := newParser(src)
	return p.run()
}

type parser struct {
	src   string
	toks  []Token
	diags []Diagnostic
}

// convSpan is a matched conversation: tokens open..close inclusive.
type convSpan struct {
	open, close int
	conv        Conversation
}

// logicalLine is a source line with conversation spans folded in.
type logicalLine struct {
	number     int
	start, end int
	toks       []int // token indices outside conversation spans
	conv       int   // index of the first conversation on the line, -1 if none
}

func newParser(src string) *parser {
	return &parser{src: src, toks: Lex(src)}
}

func (p *parser) run() Document {
	spans := p.conversations()
	lines := p.lines(spans)
	doc := Document{Lines: make([]Line, 0, len(lines))}
	for _, ln := range lines {
		doc.Lines = append(doc.Lines, p.matchLine(ln, spans))
	}
	return doc
}

func (p *parser) report(t Token, code Code, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{Line: t.Line, Col: t.Col, Code: code, Message: fmt.Sprintf(format, args...)})
}

func needsAttrs(name TagName) bool {
	return name == TagDialogue || name == TagEvent || name == TagConversation
}

// attrsAllowed applies the per-tag attribute shape: dialogue, event and
// conversation need an attribute block; sfx, shake and system take none.
func attrsAllowed(name TagName, raw string) bool {
	if needsAttrs(name) {
		return strings.TrimSpace(raw) != ""
	}
	return raw == ""
}

// closeAfter returns the index of the nearest close token for name after
// token i, or -1. With sameLine the search stops at the first newline; limit
// bounds the search (exclusive) when >= 0.
func (p *parser) closeAfter(i int, name TagName, sameLine bool, limit int) int {
	end := len(p.toks)
	if limit >= 0 && limit < end {
		end = limit
	}
	for j := i + 1; j < end; j++ {
		t := p.toks[j]
		if sameLine && t.Kind == TokenNewline {
			return -1
		}
		if t.Kind == TokenClose && t.Tag == name {
			return j
		}
	}
	return -1
}

// conversations runs the document-wide conversation pass. Each qualifying open
// pairs lazily with the nearest following close; spans never overlap.
func (p *parser) conversations() []convSpan {
	var spans []convSpan
	for i := 0; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.Kind != TokenOpen || t.Tag != TagConversation || !attrsAllowed(TagConversation, t.Attrs) {
			continue
		}
		j := p.closeAfter(i, TagConversation, false, -1)
		if j < 0 {
			continue
		}
		spans = append(spans, convSpan{open: i, close: j, conv: p.conversation(i, j)})
		i = j
	}
	return spans
}

func (p *parser) conversation(open, close int) Conversation {
	ot := p.toks[open]
	attrs := ot.Attributes()
	var c Conversation
	if raw, ok := attrs["participants"]; ok && raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Participants = append(c.Participants, name)
			}
		}
	} else {
		p.report(ot, CodeMissingParticipants, "conversation has no participants")
	}
	known := make(map[string]bool, len(c.Participants))
	for _, n := range c.Participants {
		known[n] = true
	}

	for k := open + 1; k < close; k++ {
		t := p.toks[k]
		switch {
		case t.Kind == TokenOpen && t.Tag == TagDialogue:
			speaker := t.Attributes()["speaker"]
			end := p.closeAfter(k, TagDialogue, true, close)
			if speaker == "" {
				p.report(t, CodeMissingSpeaker, "dialogue inside conversation needs a speaker")
				if end >= 0 {
					k = end
				}
				continue
			}
			if end < 0 {
				p.report(t, CodeUnclosedTag, "[dialogue] is never closed on this line")
				continue
			}
			if len(known) > 0 && !known[speaker] {
				p.report(t, CodeUnknownParticipant, "speaker %q is not a participant", speaker)
			}
			c.Dialogues = append(c.Dialogues, Dialogue{Speaker: speaker, Text: p.src[t.End:p.toks[end].Start]})
			k = end
		case t.Kind == TokenText && strings.TrimSpace(t.Text(p.src)) == "":
		case t.Kind == TokenNewline:
		default:
			p.report(t, CodeIgnoredContent, "content outside a dialogue is ignored inside a conversation")
		}
	}
	return c
}

// lines splits the token stream into source lines, folding each conversation
// span into the line it opens on.
func (p *parser) lines(spans []convSpan) []logicalLine {
	var out []logicalLine
	cur := logicalLine{number: 1, conv: -1}
	si := 0
	for i := 0; i < len(p.toks); i++ {
		if si < len(spans) && i == spans[si].open {
			if cur.conv < 0 {
				cur.conv = si
			} else {
				p.report(p.toks[i], CodeTrailingContent, "only the first conversation on a line is kept")
			}
			i = spans[si].close
			si++
			continue
		}
		t := p.toks[i]
		if t.Kind == TokenNewline {
			cur.end = t.Start
			out = append(out, cur)
			cur = logicalLine{number: t.Line + 1, start: t.End, conv: -1}
			continue
		}
		cur.toks = append(cur.toks, i)
	}
	cur.end = len(p.src)
	return append(out, cur)
}

func (p *parser) matchLine(ln logicalLine, spans []convSpan) Line {
	raw := p.src[ln.start:ln.end]
	if ln.conv >= 0 {
		p.checkTrailing(ln, -1, -1)
		return Line{Number: ln.number, Raw: raw, Tag: spans[ln.conv].conv}
	}
	for _, name := range linePriority {
		open, close, ok := p.pairOnLine(ln, name)
		if !ok {
			continue
		}
		p.checkTrailing(ln, open, close)
		return Line{Number: ln.number, Raw: raw, Tag: p.buildTag(open, close)}
	}
	p.checkProse(ln)
	return Line{Number: ln.number, Raw: raw}
}

// pairOnLine finds the leftmost well-formed open tag for name on the line and
// the nearest close after it.
func (p *parser) pairOnLine(ln logicalLine, name TagName) (int, int, bool) {
	for a, ti := range ln.toks {
		t := p.toks[ti]
		if t.Kind != TokenOpen || t.Tag != name || !attrsAllowed(name, t.Attrs) {
			continue
		}
		for _, tj := range ln.toks[a+1:] {
			c := p.toks[tj]
			if c.Kind == TokenClose && c.Tag == name {
				return ti, tj, true
			}
		}
		// no close after the leftmost open means none after later ones either
		return 0, 0, false
	}
	return 0, 0, false
}

func (p *parser) buildTag(open, close int) Tag {
	ot := p.toks[open]
	text := p.src[ot.End:p.toks[close].Start]
	switch ot.Tag {
	case TagDialogue:
		speaker := ot.Attributes()["speaker"]
		if speaker == "" {
			p.report(ot, CodeMissingSpeaker, "dialogue without speaker is attributed to %q", UnknownSpeaker)
			speaker = UnknownSpeaker
		}
		return Dialogue{Speaker: speaker, Text: text}
	case TagEvent:
		typ := EventType(ot.Attributes()["type"])
		switch {
		case typ == "":
			p.report(ot, CodeUnknownEvent, "event has no type and renders as plain text")
		case !typ.Known():
			p.report(ot, CodeUnknownEvent, "unknown event type %q renders as plain text", string(typ))
		}
		return Event{Type: typ, Text: text}
	case TagSfx:
		return Sfx{Text: text}
	case TagShake:
		return Shake{Text: text}
	default:
		return System{Text: text}
	}
}

// checkTrailing reports content sharing a line with the matched tag; that
// content is dropped from the rendered output.
func (p *parser) checkTrailing(ln logicalLine, open, close int) {
	for _, ti := range ln.toks {
		if open >= 0 && ti >= open && ti <= close {
			continue
		}
		t := p.toks[ti]
		if t.Kind == TokenText && strings.TrimSpace(t.Text(p.src)) == "" {
			continue
		}
		p.report(t, CodeTrailingContent, "content next to a tag on the same line is dropped")
		return
	}
}

// checkProse explains why tags on a prose line did not match.
func (p *parser) checkProse(ln logicalLine) {
	opened := map[TagName]bool{}
	for _, ti := range ln.toks {
		t := p.toks[ti]
		switch t.Kind {
		case TokenOpen:
			opened[t.Tag] = true
			switch {
			case !attrsAllowed(t.Tag, t.Attrs) && needsAttrs(t.Tag):
				p.report(t, CodeMissingAttribute, "[%s] needs attributes", t.Tag)
			case !attrsAllowed(t.Tag, t.Attrs):
				p.report(t, CodeUnexpectedAttribute, "[%s] takes no attributes", t.Tag)
			default:
				p.report(t, CodeUnclosedTag, "[%s] is never closed", t.Tag)
			}
		case TokenClose:
			if !opened[t.Tag] {
				p.report(t, CodeStrayClose, "[/%s] has no matching open tag", t.Tag)
			}
		}
	}
}
