/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import "magicscribe/internal/markup"

// Kind discriminates presentational blocks.
type Kind string

const (
	KindConversation      Kind = "conversation"
	KindEmptyConversation Kind = "empty-conversation"
	KindEvent             Kind = "event"
	KindPlain             Kind = "plain"
	KindSfx               Kind = "sfx"
	KindShake             Kind = "shake"
	KindSystem            Kind = "system"
	KindDialogue          Kind = "dialogue"
	KindEmptyDialogue     Kind = "empty-dialogue"
	KindParagraph         Kind = "paragraph"
)

// Class lists for the fixed single-treatment blocks.
const (
	ClassSfx               = "text-yellow-400 font-extrabold text-2xl tracking-wider animate-bounce"
	ClassShake             = "text-white font-bold animate-shake"
	ClassSystem            = "bg-linear-to-r from-amber-500/20 to-amber-400/10 border border-amber-500/30 text-amber-300 px-4 py-3 rounded-xl font-semibold uppercase tracking-wide drop-shadow glow animate-fade-in"
	ClassPlainEvent        = "text-slate-400 italic"
	ClassEmptyConversation = "my-6 p-4 border border-dashed border-slate-600 rounded-xl text-slate-500 italic text-sm"
	ClassEmptyDialogue     = "my-4 p-3 border border-dashed border-slate-600 rounded-lg text-slate-500 italic text-sm"
)

// SystemIcon prefixes the text of a system banner.
const SystemIcon = "⚙️"

// NBSP is the text of a paragraph rendered from a whitespace-only line.
const NBSP = "\u00a0"

// Names lists the conversation participants in header order.
func (b Block) Names() []string {
	names := make([]string, 0, len(b.Participants))
	for _, p := range b.Participants {
		names = append(names, p.Name)
	}
	return names
}

// Participant is a conversation header entry.
type Participant struct {
	Name    string  `json:"name"`
	Palette Palette `json:"palette"`
}

// Turn is one dialogue bubble inside a conversation.
type Turn struct {
	Speaker     string  `json:"speaker"`
	Text        string  `json:"text"`
	Initial     string  `json:"initial"`
	Palette     Palette `json:"palette"`
	ShowAvatar  bool    `json:"show_avatar"`
	ShowName    bool    `json:"show_name"`
	Empty       bool    `json:"empty,omitempty"`
	Placeholder string  `json:"placeholder,omitempty"`
	// Index orders the fade-in; the reader staggers bubbles by 0.1s each.
	Index int `json:"index"`
}

// Block is one presentational unit. Which fields are set depends on Kind.
type Block struct {
	Kind         Kind             `json:"kind"`
	Line         int              `json:"line"`
	Text         string           `json:"text,omitempty"`
	Speaker      string           `json:"speaker,omitempty"`
	Initial      string           `json:"initial,omitempty"`
	Palette      *Palette         `json:"palette,omitempty"`
	EventType    markup.EventType `json:"event_type,omitempty"`
	Treatment    *Treatment       `json:"treatment,omitempty"`
	Participants []Participant    `json:"participants,omitempty"`
	Turns        []Turn           `json:"turns,omitempty"`
	Placeholder  string           `json:"placeholder,omitempty"`
	Icon         string           `json:"icon,omitempty"`
	Class        string           `json:"class,omitempty"`
}
