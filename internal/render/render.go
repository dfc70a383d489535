/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render turns a parsed markup document into presentational blocks
// and writes them as HTML for the reader site or as a styled terminal preview.
package render

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"magicscribe/internal/markup"
)

// Render maps each document line to exactly one block. It has no side
// effects, so rendering the same document twice yields equal output.
func Render(doc markup.Document) []Block {
	out := make([]Block, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		out = append(out, renderLine(l))
	}
	return out
}

// RenderString parses src and renders it.
func RenderString(src string) []Block {
	return Render(markup.Parse(src))
}

func renderLine(l markup.Line) Block {
	switch t := l.Tag.(type) {
	case markup.Conversation:
		return conversation(l.Number, t)
	case markup.Event:
		return event(l.Number, t)
	case markup.Sfx:
		return Block{Kind: KindSfx, Line: l.Number, Text: t.Text, Class: ClassSfx}
	case markup.Shake:
		return Block{Kind: KindShake, Line: l.Number, Text: t.Text, Class: ClassShake}
	case markup.System:
		return Block{Kind: KindSystem, Line: l.Number, Text: t.Text, Icon: SystemIcon, Class: ClassSystem}
	case markup.Dialogue:
		return dialogue(l.Number, t)
	}
	text := l.Raw
	if strings.TrimSpace(text) == "" {
		text = NBSP
	}
	return Block{Kind: KindParagraph, Line: l.Number, Text: text}
}

func conversation(line int, c markup.Conversation) Block {
	if len(c.Dialogues) == 0 {
		return Block{
			Kind:        KindEmptyConversation,
			Line:        line,
			Placeholder: "[Empty conversation between " + strings.Join(c.Participants, ", ") + "]",
			Class:       ClassEmptyConversation,
		}
	}
	b := Block{Kind: KindConversation, Line: line}
	for _, p := range c.Participants {
		b.Participants = append(b.Participants, Participant{Name: p, Palette: ColorOf(p)})
	}
	for i, d := range c.Dialogues {
		same := i > 0 && c.Dialogues[i-1].Speaker == d.Speaker
		t := Turn{
			Speaker:    d.Speaker,
			Text:       d.Text,
			Initial:    Initial(d.Speaker),
			Palette:    ColorOf(d.Speaker),
			ShowAvatar: !same,
			ShowName:   !same,
			Index:      i,
		}
		if strings.TrimSpace(d.Text) == "" {
			t.Empty = true
			t.Placeholder = "[Empty message from " + d.Speaker + "]"
		}
		b.Turns = append(b.Turns, t)
	}
	return b
}

func event(line int, e markup.Event) Block {
	tr, ok := TreatmentFor(e.Type)
	if !ok {
		return Block{Kind: KindPlain, Line: line, Text: e.Text, EventType: e.Type, Class: ClassPlainEvent}
	}
	b := Block{Kind: KindEvent, Line: line, Text: e.Text, EventType: e.Type, Treatment: &tr, Icon: tr.Icon}
	if strings.TrimSpace(e.Text) == "" {
		b.Placeholder = "[Empty " + string(e.Type) + " event]"
	}
	return b
}

func dialogue(line int, d markup.Dialogue) Block {
	if strings.TrimSpace(d.Text) == "" {
		return Block{
			Kind:        KindEmptyDialogue,
			Line:        line,
			Speaker:     d.Speaker,
			Placeholder: "[Empty dialogue from " + d.Speaker + "]",
			Class:       ClassEmptyDialogue,
		}
	}
	p := ColorOf(d.Speaker)
	return Block{
		Kind:    KindDialogue,
		Line:    line,
		Speaker: d.Speaker,
		Text:    d.Text,
		Initial: Initial(d.Speaker),
		Palette: &p,
	}
}

// Initial is the avatar letter: the first character of the name, upper-cased.
func Initial(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}
	return cases.Upper(language.Und).String(name[:size])
}
