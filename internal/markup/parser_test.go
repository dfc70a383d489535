/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markup

import (
	"reflect"
	"testing"
)

func TestParseStandaloneDialogue(t *testing.T) {
	doc := Parse(`[dialogue speaker="Mira"]Hello[/dialogue]`)
	if len(doc.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(doc.Lines))
	}
	d, ok := doc.Lines[0].Tag.(Dialogue)
	if !ok {
		t.Fatalf("expected Dialogue, got %T", doc.Lines[0].Tag)
	}
	if d.Speaker != "Mira" || d.Text != "Hello" {
		t.Fatalf("unexpected dialogue: %+v", d)
	}
}

func TestParseConversation(t *testing.T) {
	src := "[conversation participants=\"Mira, Kade\"]\n" +
		"[dialogue speaker=\"Mira\"]Ready?[/dialogue]\n" +
		"[dialogue speaker=\"Kade\"]Always.[/dialogue]\n" +
		"[/conversation]\n" +
		"After."
	doc := Parse(src)
	if len(doc.Lines) != 2 {
		t.Fatalf("expected conversation + prose, got %d lines: %+v", len(doc.Lines), doc.Lines)
	}
	c, ok := doc.Lines[0].Tag.(Conversation)
	if !ok {
		t.Fatalf("expected Conversation, got %T", doc.Lines[0].Tag)
	}
	if !reflect.DeepEqual(c.Participants, []string{"Mira", "Kade"}) {
		t.Fatalf("participants: %v", c.Participants)
	}
	want := []Dialogue{{Speaker: "Mira", Text: "Ready?"}, {Speaker: "Kade", Text: "Always."}}
	if !reflect.DeepEqual(c.Dialogues, want) {
		t.Fatalf("dialogues: %+v", c.Dialogues)
	}
	if !doc.Lines[1].IsProse() || doc.Lines[1].Raw != "After." || doc.Lines[1].Number != 5 {
		t.Fatalf("unexpected trailing line: %+v", doc.Lines[1])
	}
}

func TestParseEmptyConversation(t *testing.T) {
	doc := Parse("[conversation participants=\"A, B\"]\n[/conversation]")
	c, ok := doc.Lines[0].Tag.(Conversation)
	if !ok {
		t.Fatalf("expected Conversation, got %T", doc.Lines[0].Tag)
	}
	if len(c.Dialogues) != 0 || !reflect.DeepEqual(c.Participants, []string{"A", "B"}) {
		t.Fatalf("unexpected conversation: %+v", c)
	}
}

func TestConversationIsolation(t *testing.T) {
	src := "[conversation participants=\"A\"]\n[dialogue speaker=\"A\"]hi[/dialogue]\n[/conversation]"
	for _, l := range Parse(src).Lines {
		if _, ok := l.Tag.(Dialogue); ok {
			t.Fatalf("dialogue inside a conversation leaked as a standalone line: %+v", l)
		}
	}
}

func TestConversationPairsWithNearestClose(t *testing.T) {
	src := "[conversation participants=\"A\"]\n[dialogue speaker=\"A\"]one[/dialogue]\n[/conversation]\n" +
		"[conversation participants=\"B\"]\n[dialogue speaker=\"B\"]two[/dialogue]\n[/conversation]"
	tags := Parse(src).Tags()
	if len(tags) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(tags))
	}
	second := tags[1].(Conversation)
	if second.Participants[0] != "B" || second.Dialogues[0].Text != "two" {
		t.Fatalf("unexpected second conversation: %+v", second)
	}
}

func TestConversationDropsSurroundingText(t *testing.T) {
	src := "before [conversation participants=\"A\"]\n[dialogue speaker=\"A\"]x[/dialogue]\n[/conversation] after"
	doc := Parse(src)
	if len(doc.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(doc.Lines))
	}
	if _, ok := doc.Lines[0].Tag.(Conversation); !ok {
		t.Fatalf("expected Conversation, got %T", doc.Lines[0].Tag)
	}
}

func TestMissingSpeakerIsUnknown(t *testing.T) {
	doc := Parse(`[dialogue mood="calm"]...[/dialogue]`)
	d, ok := doc.Lines[0].Tag.(Dialogue)
	if !ok {
		t.Fatalf("expected Dialogue, got %T", doc.Lines[0].Tag)
	}
	if d.Speaker != UnknownSpeaker {
		t.Fatalf("speaker = %q", d.Speaker)
	}
}

func TestEventTypes(t *testing.T) {
	cases := []struct {
		src   string
		typ   EventType
		known bool
	}{
		{`[event type="power-up"]Surge[/event]`, EventPowerUp, true},
		{`[event type="teleport"]Blink[/event]`, "teleport", false},
		{`[event type="Power-Up"]Case[/event]`, "Power-Up", false},
		{`[event type=""]none[/event]`, "", false},
	}
	for _, c := range cases {
		ev, ok := Parse(c.src).Lines[0].Tag.(Event)
		if !ok {
			t.Fatalf("%s: expected Event", c.src)
		}
		if ev.Type != c.typ || ev.Type.Known() != c.known {
			t.Fatalf("%s: got type %q known=%v", c.src, ev.Type, ev.Type.Known())
		}
	}
}

func TestLinePriority(t *testing.T) {
	cases := []struct {
		src  string
		want TagName
	}{
		{`[dialogue speaker="A"]x[/dialogue] [system]boot[/system]`, TagSystem},
		{`[sfx]BOOM[/sfx][event type="danger"]run[/event]`, TagEvent},
		{`[shake]rumble[/shake] [sfx]crack[/sfx]`, TagSfx},
		{`[dialogue speaker="A"]x[/dialogue][shake]rumble[/shake]`, TagShake},
	}
	for _, c := range cases {
		got := Parse(c.src).Lines[0].Tag
		if got == nil || got.Name() != c.want {
			t.Fatalf("%s: expected %s, got %#v", c.src, c.want, got)
		}
	}
}

func TestTagNamesAreCaseInsensitive(t *testing.T) {
	s, ok := Parse(`[SFX]Bang[/Sfx]`).Lines[0].Tag.(Sfx)
	if !ok || s.Text != "Bang" {
		t.Fatalf("expected sfx, got %#v", s)
	}
}

func TestMalformedFallsToProse(t *testing.T) {
	cases := []string{
		`[dialogue speaker="A"]never closed`,
		`[sfx]boom`,
		`[/system] stray`,
		`[dialogue]no attributes[/dialogue]`,
		`[event]no type block[/event]`,
		`[sfx loud]attr on sfx[/sfx]`,
		"[shake]split\nacross[/shake]",
		`[conversation participants="A"] never closed`,
	}
	for _, src := range cases {
		for _, l := range Parse(src).Lines {
			if !l.IsProse() {
				t.Fatalf("%q: expected prose, got %#v", src, l.Tag)
			}
		}
	}
}

func TestLinesKeepNumbersAndBlanks(t *testing.T) {
	doc := Parse("one\n\n[sfx]x[/sfx]\n")
	if len(doc.Lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(doc.Lines))
	}
	for i, l := range doc.Lines {
		if l.Number != i+1 {
			t.Fatalf("line %d has number %d", i, l.Number)
		}
	}
	if doc.Lines[1].Raw != "" || doc.Lines[3].Raw != "" {
		t.Fatalf("blank lines should stay empty: %+v", doc.Lines)
	}
}

func TestSpeakers(t *testing.T) {
	src := "[dialogue speaker=\"Kade\"]a[/dialogue]\n[conversation participants=\"Mira, Kade\"]\n[dialogue speaker=\"Vex\"]b[/dialogue]\n[/conversation]"
	got := Parse(src).Speakers()
	if !reflect.DeepEqual(got, []string{"Kade", "Mira", "Vex"}) {
		t.Fatalf("speakers = %v", got)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	src := "[conversation participants=\"A,B\"]\n[dialogue speaker=\"A\"]1[/dialogue]\n[/conversation]\n[event type=\"omen\"]eye[/event]"
	if !reflect.DeepEqual(Parse(src), Parse(src)) {
		t.Fatal("two parses of the same text differ")
	}
}
