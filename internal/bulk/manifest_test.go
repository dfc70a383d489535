/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bulk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `series_id: ash
chapters:
  - number: 1
    title: The Gate
    content: |
      [dialogue speaker="Mira"]Ready?[/dialogue]
  - number: 2
    title: Dusk
    file: ch02.txt
  - number: 1
    title: Other series
    series_id: ember
    content: prose only
`

func TestSchemaJSON(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"oneOf"`)
	assert.Contains(t, s, `"minimum": 1`)
	assert.Contains(t, s, `"additionalProperties": false`)
	assert.Contains(t, s, `"series_id"`)
	assert.NotContains(t, s, `"$ref"`)
}

func TestParseManifestYAML(t *testing.T) {
	m, err := ParseManifest([]byte(validYAML))
	require.NoError(t, err)
	require.Len(t, m.Chapters, 3)
	assert.Equal(t, "ash", m.Series(m.Chapters[0]))
	assert.Equal(t, "ember", m.Series(m.Chapters[2]))
	assert.Equal(t, "ch02.txt", m.Chapters[1].File)
}

func TestParseManifestJSON(t *testing.T) {
	js := `{"series_id":"ash","chapters":[{"number":4,"title":"Four","content":"x"}]}`
	m, err := ParseManifest([]byte(js))
	require.NoError(t, err)
	assert.Equal(t, 4, m.Chapters[0].Number)
}

func TestParseManifestRejects(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"no chapters":    "series_id: ash\nchapters: []\n",
		"zero number":    "series_id: a\nchapters:\n  - {number: 0, title: x, content: y}\n",
		"missing title":  "series_id: a\nchapters:\n  - {number: 1, content: y}\n",
		"both sources":   "series_id: a\nchapters:\n  - {number: 1, title: x, content: y, file: z.txt}\n",
		"no source":      "series_id: a\nchapters:\n  - {number: 1, title: x}\n",
		"unknown key":    "series_id: a\nchapters:\n  - {number: 1, title: x, content: y, colour: red}\n",
		"no series":      "chapters:\n  - {number: 1, title: x, content: y}\n",
		"duplicate":      "series_id: a\nchapters:\n  - {number: 1, title: x, content: y}\n  - {number: 1, title: z, content: w}\n",
		"number as text": "series_id: a\nchapters:\n  - {number: one, title: x, content: y}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest([]byte(src))
			require.Error(t, err)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestParseManifestSyntaxError(t *testing.T) {
	_, err := ParseManifest([]byte("chapters: [\n"))
	require.Error(t, err)
	var ve *ValidationError
	assert.NotErrorAs(t, err, &ve)
}

func TestLoadManifestResolvesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ch02.txt"), []byte("[sfx]BOOM[/sfx]"), 0o644))
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	text, err := m.Content(m.Chapters[1])
	require.NoError(t, err)
	assert.Equal(t, "[sfx]BOOM[/sfx]", text)

	_, err = m.Content(ManifestChapter{Number: 9, File: "missing.txt"})
	assert.Error(t, err)
}

func TestContentConvertsEditorHTML(t *testing.T) {
	m := &Manifest{}
	text, err := m.Content(ManifestChapter{Number: 1, Content: "<p>Hello <strong>there</strong></p>"})
	require.NoError(t, err)
	assert.Equal(t, "Hello **there**", text)
}
