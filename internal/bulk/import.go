/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"magicscribe/internal/backend"
	applog "magicscribe/internal/log"
	"magicscribe/internal/markup"
)

// ChapterSink receives imported chapters. *backend.ChapterStore satisfies it.
type ChapterSink interface {
	Upsert(ctx context.Context, ch backend.Chapter) (backend.Chapter, error)
}

// DryRun is a sink that only records what would be written.
type DryRun struct {
	mu       sync.Mutex
	Chapters []backend.Chapter
}

func (d *DryRun) Upsert(_ context.Context, ch backend.Chapter) (backend.Chapter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Chapters = append(d.Chapters, ch)
	return ch, nil
}

// ChapterReport is the outcome for one manifest entry.
type ChapterReport struct {
	Number      int                 `json:"number"`
	Title       string              `json:"title"`
	SeriesID    string              `json:"series_id"`
	Diagnostics []markup.Diagnostic `json:"diagnostics,omitempty"`
	ID          string              `json:"id,omitempty"`
	Version     int64               `json:"version,omitempty"`
	Err         string              `json:"error,omitempty"`
	Skipped     bool                `json:"skipped,omitempty"`
}

// Report collects per-chapter results in manifest order.
type Report struct {
	Chapters []ChapterReport `json:"chapters"`
}

// Failed counts chapters that could not be read or written.
func (r Report) Failed() int {
	n := 0
	for _, c := range r.Chapters {
		if c.Err != "" {
			n++
		}
	}
	return n
}

// LintIssues counts diagnostics across all chapters.
func (r Report) LintIssues() int {
	n := 0
	for _, c := range r.Chapters {
		n += len(c.Diagnostics)
	}
	return n
}

// Options tunes an import.
type Options struct {
	// Concurrency bounds parallel sink writes; zero means unbounded.
	Concurrency int
	// Strict skips chapters with lint diagnostics.
	Strict bool
}

// Check reads and lints every chapter without writing anything.
func Check(m *Manifest) Report {
	rep := Report{Chapters: make([]ChapterReport, len(m.Chapters))}
	for i, c := range m.Chapters {
		rep.Chapters[i] = ChapterReport{Number: c.Number, Title: c.Title, SeriesID: m.Series(c)}
		text, err := m.Content(c)
		if err != nil {
			rep.Chapters[i].Err = err.Error()
			continue
		}
		rep.Chapters[i].Diagnostics = markup.Lint(text)
	}
	return rep
}

// Import lints every chapter and writes it to sink. A failing chapter does
// not stop the others; the error return is reserved for a cancelled context.
func Import(ctx context.Context, m *Manifest, sink ChapterSink, opt Options) (Report, error) {
	l := applog.WithOperation(applog.WithComponent("bulk"), "import")
	rep := Report{Chapters: make([]ChapterReport, len(m.Chapters))}

	g, gctx := errgroup.WithContext(ctx)
	if opt.Concurrency > 0 {
		g.SetLimit(opt.Concurrency)
	}
	for i, c := range m.Chapters {
		g.Go(func() error {
			cr := ChapterReport{Number: c.Number, Title: c.Title, SeriesID: m.Series(c)}
			defer func() { rep.Chapters[i] = cr }()
			if err := gctx.Err(); err != nil {
				cr.Err = err.Error()
				return nil
			}
			text, err := m.Content(c)
			if err != nil {
				cr.Err = err.Error()
				return nil
			}
			cr.Diagnostics = markup.Lint(text)
			if opt.Strict && len(cr.Diagnostics) > 0 {
				cr.Skipped = true
				return nil
			}
			saved, err := sink.Upsert(gctx, backend.Chapter{SeriesID: cr.SeriesID, Number: c.Number, Title: c.Title, Content: text})
			if err != nil {
				cr.Err = err.Error()
				l.Warn("chapter import failed", slog.String("series", cr.SeriesID), slog.Int("number", c.Number), slog.Any("err", err))
				return nil
			}
			cr.ID, cr.Version = saved.ID, saved.Version
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("import cancelled: %w", err)
	}
	l.Info("import finished", slog.Int("chapters", len(rep.Chapters)), slog.Int("failed", rep.Failed()), slog.Int("lint", rep.LintIssues()))
	return rep, nil
}
