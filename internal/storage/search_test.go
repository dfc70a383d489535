/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"strings"
	"testing"
)

func TestSearchDrafts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seed := []Draft{
		{Title: "Harbor", Content: `[dialogue speaker="Mira"]The waves are loud tonight[/dialogue]`},
		{Title: "Forest", Content: `[dialogue speaker="Kade"]Waves of wolves[/dialogue]` + "\nquiet trees"},
		{Title: "Desert", Content: "Nothing but sand"},
	}
	ids := map[string]string{}
	for _, d := range seed {
		saved, err := s.SaveDraft(ctx, d)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids[d.Title] = saved.ID
	}

	res, err := s.SearchDrafts(ctx, SearchQuery{Text: "waves"})
	if err != nil {
		t.Fatalf("SearchDrafts: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 hits for waves, got %+v", res)
	}
	for _, r := range res {
		if !strings.Contains(r.Snippet, "[") {
			t.Fatalf("expected highlighted snippet, got %q", r.Snippet)
		}
	}

	res, err = s.SearchDrafts(ctx, SearchQuery{Text: "waves", Speaker: "mira"})
	if err != nil || len(res) != 1 || res[0].DraftID != ids["Harbor"] {
		t.Fatalf("speaker filter got %+v err %v", res, err)
	}

	// title is indexed as well
	res, err = s.SearchDrafts(ctx, SearchQuery{Text: "desert"})
	if err != nil || len(res) != 1 || res[0].DraftID != ids["Desert"] {
		t.Fatalf("title search got %+v err %v", res, err)
	}

	res, err = s.SearchDrafts(ctx, SearchQuery{Speaker: "Kade"})
	if err != nil || len(res) != 1 || res[0].DraftID != ids["Forest"] {
		t.Fatalf("speaker-only search got %+v err %v", res, err)
	}
}

func TestSearchReflectsUpdatesAndRebuild(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d, err := s.SaveDraft(ctx, Draft{Title: "T", Content: "lighthouse"})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	d.Content = "windmill"
	if _, err := s.SaveDraft(ctx, d); err != nil {
		t.Fatalf("SaveDraft update: %v", err)
	}
	if res, _ := s.SearchDrafts(ctx, SearchQuery{Text: "lighthouse"}); len(res) != 0 {
		t.Fatalf("stale content still indexed: %+v", res)
	}
	if err := s.RebuildSearch(ctx); err != nil {
		t.Fatalf("RebuildSearch: %v", err)
	}
	if res, _ := s.SearchDrafts(ctx, SearchQuery{Text: "windmill"}); len(res) != 1 {
		t.Fatalf("expected 1 hit after rebuild, got %+v", res)
	}
}
