/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bulk imports many chapters at once from a manifest file.
//
// A manifest is YAML (or JSON, which is valid YAML):
//
//	series_id: ash-and-ember
//	chapters:
//	  - number: 1
//	    title: The Gate
//	    file: ch01.txt
//	  - number: 2
//	    title: Dusk
//	    content: |
//	      [system]Chapter two[/system]
//
// Each chapter has either file (relative to the manifest) or inline content.
package bulk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"magicscribe/internal/richtext"
)

// Manifest lists the chapters of one import.
type Manifest struct {
	SeriesID string            `json:"series_id,omitempty" yaml:"series_id,omitempty" jsonschema:"description=Default series for chapters without their own series_id"`
	Chapters []ManifestChapter `json:"chapters" yaml:"chapters" jsonschema:"minItems=1"`

	// dir resolves relative chapter files.
	dir string
}

// ManifestChapter is one entry. Exactly one of File and Content is set.
type ManifestChapter struct {
	Number   int    `json:"number" yaml:"number" jsonschema:"minimum=1"`
	Title    string `json:"title" yaml:"title" jsonschema:"minLength=1"`
	File     string `json:"file,omitempty" yaml:"file,omitempty" jsonschema:"oneof_required=file,minLength=1"`
	Content  string `json:"content,omitempty" yaml:"content,omitempty" jsonschema:"oneof_required=content"`
	SeriesID string `json:"series_id,omitempty" yaml:"series_id,omitempty"`
}

// Series is the chapter's series, falling back to the manifest default.
func (m *Manifest) Series(c ManifestChapter) string {
	if s := strings.TrimSpace(c.SeriesID); s != "" {
		return s
	}
	return strings.TrimSpace(m.SeriesID)
}

// ValidationError lists schema and consistency problems of a manifest.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid manifest: " + strings.Join(e.Problems, "; ")
}

// Schema returns the JSON schema of the manifest, generated from the Go types.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		FieldNameTag:   "yaml",
	}
	s := r.Reflect(&Manifest{})
	s.Version = "http://json-schema.org/draft-07/schema#"
	s.Title = "magicscribe bulk manifest"
	s.Description = "Chapters to import in one run."
	return s
}

// SchemaJSON is Schema marshalled with indentation.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}

// LoadManifest reads and validates a manifest file. File references are
// resolved relative to the manifest's directory but not read yet.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest validates data against Schema and decodes it.
func ParseManifest(data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if doc == nil {
		return nil, &ValidationError{Problems: []string{"manifest is empty"}}
	}
	schemaBytes, err := SchemaJSON()
	if err != nil {
		return nil, fmt.Errorf("manifest schema: %w", err)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}
	if !res.Valid() {
		ve := &ValidationError{}
		for _, e := range res.Errors() {
			ve.Problems = append(ve.Problems, e.String())
		}
		return nil, ve
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// check covers what the schema cannot express: every chapter has a series and
// no (series, number) pair repeats.
func (m *Manifest) check() error {
	ve := &ValidationError{}
	seen := map[string]int{}
	for i, c := range m.Chapters {
		series := m.Series(c)
		if series == "" {
			ve.Problems = append(ve.Problems, fmt.Sprintf("chapters.%d: series_id missing and no manifest default", i))
			continue
		}
		key := fmt.Sprintf("%s#%d", series, c.Number)
		if j, dup := seen[key]; dup {
			ve.Problems = append(ve.Problems, fmt.Sprintf("chapters.%d: number %d of series %s repeats chapters.%d", i, c.Number, series, j))
			continue
		}
		seen[key] = i
	}
	if len(ve.Problems) > 0 {
		return ve
	}
	return nil
}

// Content returns the chapter text in storage form. File contents are read
// relative to the manifest; editor HTML is converted to storage markup.
func (m *Manifest) Content(c ManifestChapter) (string, error) {
	text := c.Content
	if c.File != "" {
		p := c.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.dir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("chapter %d: %w", c.Number, err)
		}
		text = string(data)
	}
	if richtext.IsEditorHTML(text) {
		text = richtext.ToStorage(text)
	}
	return text, nil
}
