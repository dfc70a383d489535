/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openStoreForTest(t *testing.T) *ChapterStore {
	t.Helper()
	dsn := os.Getenv("MSC_PG_DSN")
	if dsn == "" {
		t.Skip("MSC_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := OpenChapterStore(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestE2E_ChapterStore(t *testing.T) {
	s := openStoreForTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	series := "series-" + uuid.NewString()

	first, err := s.Upsert(ctx, Chapter{SeriesID: series, Number: 1, Title: "Dawn", Content: `[dialogue speaker="Mira"]Sunrise over the city[/dialogue]`})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID == "" || first.Version != 1 {
		t.Fatalf("unexpected first insert: %+v", first)
	}
	again, err := s.Upsert(ctx, Chapter{SeriesID: series, Number: 1, Title: "Dawn II", Content: "rewritten"})
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if again.ID != first.ID || again.Version != 2 {
		t.Fatalf("expected update of same row, got %+v", again)
	}
	if _, err := s.Upsert(ctx, Chapter{SeriesID: series, Number: 2, Title: "Dusk", Content: `[dialogue speaker="Kade"]Sunrise again[/dialogue]`}); err != nil {
		t.Fatalf("upsert 2: %v", err)
	}

	list, err := s.List(ctx, series)
	if err != nil || len(list) != 2 || list[0].Number != 1 || list[1].Number != 2 {
		t.Fatalf("list = %+v, err %v", list, err)
	}

	if err := s.SetContent(ctx, first.ID, `[dialogue speaker="Mira"]Sunrise over the city[/dialogue]`); err != nil {
		t.Fatalf("set content: %v", err)
	}
	got, err := s.Get(ctx, first.ID)
	if err != nil || got.Version != 3 {
		t.Fatalf("get = %+v, err %v", got, err)
	}
	if err := s.SetContent(ctx, uuid.NewString(), "x"); err != ErrChapterNotFound {
		t.Fatalf("expected ErrChapterNotFound, got %v", err)
	}

	hits, err := s.SearchChapters(ctx, ChapterQuery{Text: "Sunrise", SeriesID: series, Speaker: "mira"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != first.ID {
		t.Fatalf("expected only chapter 1, got %+v", hits)
	}
}
