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

// Placeholder text the conversation template fills in.
const (
	DefaultFirstSpeaker  = "Speaker1"
	DefaultSecondSpeaker = "Speaker2"
	TemplateLine         = "Enter dialogue here"
)

// attrValue keeps a value from terminating its quoted attribute early.
func attrValue(v string) string {
	return strings.ReplaceAll(v, `"`, "'")
}

func InsertDialogue(speaker, content string) string {
	return fmt.Sprintf(`[dialogue speaker="%s"]%s[/dialogue]`, attrValue(speaker), content)
}

// InsertConversation wraps content in a conversation tag. participants is the
// raw comma-separated list as typed by the author.
func InsertConversation(participants, content string) string {
	return fmt.Sprintf(`[conversation participants="%s"]%s[/conversation]`, attrValue(participants), content)
}

func InsertEvent(t EventType, content string) string {
	return fmt.Sprintf(`[event type="%s"]%s[/event]`, attrValue(string(t)), content)
}

// InsertSimple emits an attribute-less tag such as [sfx] or [system].
func InsertSimple(tag TagName, content string) string {
	return fmt.Sprintf("[%s]%s[/%s]", tag, content, tag)
}

// ConversationTemplate returns a conversation pre-filled with one line for each
// of the first two participants.
func ConversationTemplate(participants string) string {
	names := strings.Split(participants, ",")
	pick := func(i int, def string) string {
		if i < len(names) {
			if n := strings.TrimSpace(names[i]); n != "" {
				return n
			}
		}
		return def
	}
	body := "\n" + InsertDialogue(pick(0, DefaultFirstSpeaker), TemplateLine) +
		"\n" + InsertDialogue(pick(1, DefaultSecondSpeaker), TemplateLine) + "\n"
	return InsertConversation(participants, body)
}
