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
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/go-sprout/sprout"
	"github.com/go-sprout/sprout/registry/numeric"
	"github.com/go-sprout/sprout/registry/std"
	sprstrings "github.com/go-sprout/sprout/registry/strings"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

var blockTemplates = template.Must(newTemplates())

type layerView struct {
	Layer Layer
	Text  string
}

// FuncMap returns the template helpers used by the block templates. Callers
// that embed rendered blocks in their own pages start from this map.
func FuncMap() (template.FuncMap, error) {
	sh := sprout.New()
	// default, join, mulf and friends
	if err := sh.AddRegistries(std.NewRegistry(), sprstrings.NewRegistry(), numeric.NewRegistry()); err != nil {
		return nil, fmt.Errorf("template funcs: %w", err)
	}
	funcs := sh.Build()
	funcs["css"] = func(s string) template.CSS { return template.CSS(s) }
	funcs["tail"] = func(p Palette) template.CSS {
		return template.CSS("border-right-color: " + p.TailColor)
	}
	funcs["withText"] = func(l Layer, text string) layerView { return layerView{Layer: l, Text: text} }
	return template.FuncMap(funcs), nil
}

func newTemplates() (*template.Template, error) {
	funcs, err := FuncMap()
	if err != nil {
		return nil, err
	}
	return template.New("render").Funcs(funcs).ParseFS(templatesFS, "templates/*.gohtml")
}

// HTML writes blocks as reader-site markup with Tailwind classes.
func HTML(w io.Writer, blocks []Block) error {
	if err := blockTemplates.ExecuteTemplate(w, "blocks", blocks); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// Fragment renders blocks for embedding into another html/template page.
func Fragment(blocks []Block) (template.HTML, error) {
	var buf bytes.Buffer
	if err := HTML(&buf, blocks); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// JSON writes blocks as indented JSON.
func JSON(w io.Writer, blocks []Block) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(blocks)
}
