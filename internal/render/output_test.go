/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"encoding/json"
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "[conversation participants=\"Mira, Kade\"]\n" +
	"[dialogue speaker=\"Mira\"]Ready?[/dialogue]\n" +
	"[dialogue speaker=\"Kade\"]<always>[/dialogue]\n" +
	"[/conversation]\n" +
	"[event type=\"prophecy\"]The stars align[/event]\n" +
	"[event type=\"skill-learn\"]Fireball[/event]\n" +
	"[system]Level up[/system]\n" +
	"[dialogue speaker=\"Vex\"]Hm.[/dialogue]\n" +
	"[conversation participants=\"A, B\"]\n[/conversation]\n" +
	"Plain & simple"

func TestHTMLOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, RenderString(sample)))
	out := buf.String()

	assert.Contains(t, out, ">Mira</span>")
	assert.Contains(t, out, "Ready?")
	assert.Contains(t, out, "&lt;always&gt;", "dialogue text must be escaped")
	assert.Contains(t, out, "border-right-color: rgba(")
	assert.Contains(t, out, "animation-delay: 0.0s")
	assert.Contains(t, out, "animation-delay: 0.1s")
	assert.Contains(t, out, `aria-label="Conversation between Mira, Kade"`)
	assert.Contains(t, out, `data-event="prophecy"`)
	assert.Contains(t, out, "font-family: serif")
	assert.Equal(t, 2, strings.Count(out, "The stars align"), "prophecy echoes its text")
	assert.Contains(t, out, `<span class="text-cyan-300">Fireball</span>`)
	assert.Contains(t, out, SystemIcon+" Level up")
	assert.Contains(t, out, `data-speaker="Vex"`)
	assert.Contains(t, out, "[Empty conversation between A, B]")
	assert.Contains(t, out, "<p>Plain &amp; simple</p>")
	assert.NotContains(t, out, "ZgotmplZ")
}

func TestFuncMapHelpers(t *testing.T) {
	funcs, err := FuncMap()
	require.NoError(t, err)
	tpl, err := template.New("t").Funcs(funcs).Parse(
		`{{ join ", " .Names }}|{{ mulf 0.1 3 | printf "%.1f" }}|{{ "" | default "none" }}`)
	require.NoError(t, err)

	b := Block{Participants: []Participant{{Name: "A"}, {Name: "B"}}}
	var buf bytes.Buffer
	require.NoError(t, tpl.Execute(&buf, b))
	assert.Equal(t, "A, B|0.3|none", buf.String())
}

func TestHTMLIsIdempotent(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, HTML(&a, RenderString(sample)))
	require.NoError(t, HTML(&b, RenderString(sample)))
	assert.Equal(t, a.String(), b.String())
}

func TestFragment(t *testing.T) {
	frag, err := Fragment(RenderString("[sfx]BOOM[/sfx]"))
	require.NoError(t, err)
	assert.Contains(t, string(frag), ClassSfx)
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, RenderString(`[dialogue speaker="Mira"]Hi[/dialogue]`)))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "dialogue", got[0]["kind"])
	assert.Equal(t, "Mira", got[0]["speaker"])
	assert.Equal(t, "orange", got[0]["palette"].(map[string]any)["name"])
}

func TestTerminalPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, RenderString(sample), TermOptions{Width: 60}))
	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no ANSI codes without color")
	for _, want := range []string{"Mira", "Ready?", "The stars align", "LEVEL UP", "Hm.", "[Empty conversation between A, B]", "Plain & simple"} {
		assert.Contains(t, out, want)
	}
}

func TestTerminalColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, RenderString("[sfx]boom[/sfx]"), TermOptions{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "BOOM")
}
