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
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magicscribe/internal/backend"
	"magicscribe/internal/markup"
)

func manifest(chapters ...ManifestChapter) *Manifest {
	return &Manifest{SeriesID: "ash", Chapters: chapters}
}

type failingSink struct {
	failNumber int
	calls      atomic.Int32
}

func (f *failingSink) Upsert(_ context.Context, ch backend.Chapter) (backend.Chapter, error) {
	f.calls.Add(1)
	if ch.Number == f.failNumber {
		return backend.Chapter{}, errors.New("db down")
	}
	ch.ID = "id-" + ch.Title
	ch.Version = 1
	return ch, nil
}

func TestCheckLintsEveryChapter(t *testing.T) {
	m := manifest(
		ManifestChapter{Number: 1, Title: "clean", Content: `[dialogue speaker="Mira"]Hi[/dialogue]`},
		ManifestChapter{Number: 2, Title: "broken", Content: `[event type="nope"]x[/event]`},
		ManifestChapter{Number: 3, Title: "missing", File: "does-not-exist.txt"},
	)
	rep := Check(m)
	require.Len(t, rep.Chapters, 3)
	assert.Empty(t, rep.Chapters[0].Diagnostics)
	require.NotEmpty(t, rep.Chapters[1].Diagnostics)
	assert.Equal(t, markup.CodeUnknownEvent, rep.Chapters[1].Diagnostics[0].Code)
	assert.NotEmpty(t, rep.Chapters[2].Err)
	assert.Equal(t, 1, rep.Failed())
	assert.Equal(t, len(rep.Chapters[1].Diagnostics), rep.LintIssues())
}

func TestImportDryRun(t *testing.T) {
	m := manifest(
		ManifestChapter{Number: 1, Title: "One", Content: "prose"},
		ManifestChapter{Number: 2, Title: "Two", Content: "<p>html <em>body</em></p>"},
		ManifestChapter{Number: 3, Title: "Three", SeriesID: "ember", Content: "more"},
	)
	sink := &DryRun{}
	rep, err := Import(t.Context(), m, sink, Options{Concurrency: 2})
	require.NoError(t, err)
	assert.Zero(t, rep.Failed())
	require.Len(t, sink.Chapters, 3)

	got := append([]backend.Chapter(nil), sink.Chapters...)
	sort.Slice(got, func(i, j int) bool { return got[i].Number < got[j].Number })
	assert.Equal(t, "ash", got[0].SeriesID)
	assert.Equal(t, "html *body*", got[1].Content)
	assert.Equal(t, "ember", got[2].SeriesID)
	// report keeps manifest order
	assert.Equal(t, []int{1, 2, 3}, []int{rep.Chapters[0].Number, rep.Chapters[1].Number, rep.Chapters[2].Number})
}

func TestImportContinuesPastFailures(t *testing.T) {
	m := manifest(
		ManifestChapter{Number: 1, Title: "a", Content: "x"},
		ManifestChapter{Number: 2, Title: "b", Content: "y"},
		ManifestChapter{Number: 3, Title: "c", Content: "z"},
	)
	sink := &failingSink{failNumber: 2}
	rep, err := Import(t.Context(), m, sink, Options{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, sink.calls.Load())
	assert.Equal(t, 1, rep.Failed())
	assert.Equal(t, "db down", rep.Chapters[1].Err)
	assert.Equal(t, "id-a", rep.Chapters[0].ID)
	assert.EqualValues(t, 1, rep.Chapters[2].Version)
}

func TestImportStrictSkipsLintedChapters(t *testing.T) {
	m := manifest(
		ManifestChapter{Number: 1, Title: "ok", Content: "fine"},
		ManifestChapter{Number: 2, Title: "bad", Content: `[dialogue speaker="A"]never closed`},
	)
	sink := &DryRun{}
	rep, err := Import(t.Context(), m, sink, Options{Strict: true})
	require.NoError(t, err)
	require.Len(t, sink.Chapters, 1)
	assert.Equal(t, "ok", sink.Chapters[0].Title)
	assert.True(t, rep.Chapters[1].Skipped)
	assert.NotEmpty(t, rep.Chapters[1].Diagnostics)
}

func TestImportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &DryRun{}
	_, err := Import(ctx, manifest(ManifestChapter{Number: 1, Title: "a", Content: "x"}), sink, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.Chapters)
}

func TestChapterStoreIsASink(t *testing.T) {
	var _ ChapterSink = (*backend.ChapterStore)(nil)
}
