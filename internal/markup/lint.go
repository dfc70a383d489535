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
	"sort"
)

// Code classifies a lint diagnostic.
type Code string

const (
	CodeUnclosedTag         Code = "unclosed-tag"
	CodeStrayClose          Code = "stray-close"
	CodeUnknownEvent        Code = "unknown-event-type"
	CodeMissingSpeaker      Code = "missing-speaker"
	CodeMissingAttribute    Code = "missing-attribute"
	CodeUnexpectedAttribute Code = "unexpected-attribute"
	CodeMissingParticipants Code = "missing-participants"
	CodeUnknownParticipant  Code = "unknown-participant"
	CodeTrailingContent     Code = "trailing-content"
	CodeIgnoredContent      Code = "ignored-content"
)

// Diagnostic is a non-fatal observation about markup. The parse result is
// the same whether or not diagnostics exist.
type Diagnostic struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Col, d.Code, d.Message)
}

// Lint parses src and returns its diagnostics ordered by position.
func Lint(src string) []Diagnostic {
	p := newParser(src)
	p.run()
	sort.SliceStable(p.diags, func(i, j int) bool {
		a, b := p.diags[i], p.diags[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
	return p.diags
}

// ParseWithDiagnostics returns the document together with what Lint would report.
func ParseWithDiagnostics(src string) (Document, []Diagnostic) {
	p := newParser(src)
	doc := p.run()
	return doc, p.diags
}
