/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package markup implements the magic-tag chapter markup: a bracket tag
// vocabulary ([dialogue], [conversation], [event], [sfx], [shake], [system])
// embedded in prose. Lex produces a flat token stream and Parse builds the
// tag tree from it. Malformed markup is never an error; it stays prose.
package markup

// TagName identifies one of the bracket tags. Names are matched
// case-insensitively and always stored lower-case.
type TagName string

const (
	TagDialogue     TagName = "dialogue"
	TagConversation TagName = "conversation"
	TagEvent        TagName = "event"
	TagSfx          TagName = "sfx"
	TagShake        TagName = "shake"
	TagSystem       TagName = "system"
)

// UnknownSpeaker is used for a standalone dialogue without a speaker attribute.
const UnknownSpeaker = "Unknown"

// EventType selects the visual treatment of an [event] tag.
type EventType string

const (
	EventPowerUp      EventType = "power-up"
	EventAwaken       EventType = "awaken"
	EventBreakthrough EventType = "breakthrough"
	EventSummon       EventType = "summon"
	EventCastSpell    EventType = "cast-spell"
	EventSkillLearn   EventType = "skill-learn"
	EventCriticalHit  EventType = "critical-hit"
	EventSlowMotion   EventType = "slow-motion"
	EventCombo        EventType = "combo"
	EventBloodshed    EventType = "bloodshed"
	EventStealth      EventType = "stealth"
	EventDanger       EventType = "danger"
	EventProphecy     EventType = "prophecy"
	EventOmen         EventType = "omen"
	EventSacred       EventType = "sacred"
	EventCursed       EventType = "cursed"
	EventMemory       EventType = "memory"
	EventDream        EventType = "dream"
	EventHeartbreak   EventType = "heartbreak"
	EventJoy          EventType = "joy"
	EventConfession   EventType = "confession"
	EventRage         EventType = "rage"
)

// EventCategory groups event types the way the editor toolbar lists them.
type EventCategory string

const (
	CategoryPower   EventCategory = "power"
	CategoryCombat  EventCategory = "combat"
	CategoryAction  EventCategory = "action"
	CategoryTheme   EventCategory = "theme"
	CategoryEmotion EventCategory = "emotion"
)

// EventSpec describes one known event type.
type EventSpec struct {
	Type     EventType     `json:"type"`
	Label    string        `json:"label"`
	Category EventCategory `json:"category"`
}

var eventCatalog = []EventSpec{
	{EventPowerUp, "⚡ Power Up", CategoryPower},
	{EventAwaken, "💫 Awaken", CategoryPower},
	{EventBreakthrough, "📜 Breakthrough", CategoryPower},
	{EventSummon, "🌀 Summon", CategoryPower},
	{EventCastSpell, "✨ Cast Spell", CategoryPower},
	{EventSkillLearn, "🎮 Skill Learn", CategoryPower},
	{EventCriticalHit, "💥 Critical Hit", CategoryCombat},
	{EventSlowMotion, "⏱️ Slow Motion", CategoryCombat},
	{EventCombo, "⚔️ Combo", CategoryCombat},
	{EventBloodshed, "🩸 Bloodshed", CategoryCombat},
	{EventStealth, "🌑 Stealth", CategoryCombat},
	{EventDanger, "🔥 Danger", CategoryAction},
	{EventProphecy, "🔮 Prophecy", CategoryTheme},
	{EventOmen, "👁️ Omen", CategoryTheme},
	{EventSacred, "✨ Sacred", CategoryTheme},
	{EventCursed, "💀 Cursed", CategoryTheme},
	{EventMemory, "📸 Memory", CategoryTheme},
	{EventDream, "💭 Dream", CategoryTheme},
	{EventHeartbreak, "💔 Heartbreak", CategoryEmotion},
	{EventJoy, "😊 Joy", CategoryEmotion},
	{EventConfession, "💕 Confession", CategoryEmotion},
	{EventRage, "😡 Rage", CategoryEmotion},
}

var eventIndex = func() map[EventType]int {
	m := make(map[EventType]int, len(eventCatalog))
	for i, e := range eventCatalog {
		m[e.Type] = i
	}
	return m
}()

// EventTypes returns the known event types in toolbar order.
func EventTypes() []EventSpec {
	out := make([]EventSpec, len(eventCatalog))
	copy(out, eventCatalog)
	return out
}

// LookupEvent returns the catalog entry for t.
func LookupEvent(t EventType) (EventSpec, bool) {
	i, ok := eventIndex[t]
	if !ok {
		return EventSpec{}, false
	}
	return eventCatalog[i], true
}

// Known reports whether t is one of the enumerated event types. Matching is exact.
func (t EventType) Known() bool {
	_, ok := eventIndex[t]
	return ok
}

// Tag is implemented by every parsed magic tag.
type Tag interface {
	Name() TagName
	isTag()
}

type Dialogue struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Conversation groups dialogue turns among named participants. Speakers may
// repeat and need not be listed as participants.
type Conversation struct {
	Participants []string   `json:"participants"`
	Dialogues    []Dialogue `json:"dialogues"`
}

// Event carries the raw type string; Type.Known() tells whether it has a
// dedicated treatment.
type Event struct {
	Type EventType `json:"type"`
	Text string    `json:"text"`
}

type Sfx struct {
	Text string `json:"text"`
}

type Shake struct {
	Text string `json:"text"`
}

type System struct {
	Text string `json:"text"`
}

func (Dialogue) Name() TagName     { return TagDialogue }
func (Conversation) Name() TagName { return TagConversation }
func (Event) Name() TagName        { return TagEvent }
func (Sfx) Name() TagName          { return TagSfx }
func (Shake) Name() TagName        { return TagShake }
func (System) Name() TagName       { return TagSystem }

func (Dialogue) isTag()     {}
func (Conversation) isTag() {}
func (Event) isTag()        {}
func (Sfx) isTag()          {}
func (Shake) isTag()        {}
func (System) isTag()       {}

// Line is one unit of a parsed document: either prose (Tag == nil) or exactly
// one tag. A conversation occupies a single Line even when it spans several
// source lines.
type Line struct {
	Number int    // 1-based source line where the unit starts
	Raw    string // source text of the line; for conversations the whole span
	Tag    Tag
}

// IsProse reports whether the line carries no tag.
func (l Line) IsProse() bool { return l.Tag == nil }

// Document is the decoded form of a chapter body.
type Document struct {
	Lines []Line
}

// Tags returns every tag in document order.
func (d Document) Tags() []Tag {
	var out []Tag
	for _, l := range d.Lines {
		if l.Tag != nil {
			out = append(out, l.Tag)
		}
	}
	return out
}

// Speakers returns the distinct speaker and participant names in order of first appearance.
func (d Document) Speakers() []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, l := range d.Lines {
		switch t := l.Tag.(type) {
		case Dialogue:
			add(t.Speaker)
		case Conversation:
			for _, p := range t.Participants {
				add(p)
			}
			for _, dl := range t.Dialogues {
				add(dl.Speaker)
			}
		}
	}
	return out
}
