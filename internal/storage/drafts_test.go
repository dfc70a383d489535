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
	"errors"
	"testing"
	"time"
)

func TestDraftsCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d, err := s.SaveDraft(ctx, Draft{Title: "Chapter 1", ChapterID: "ch-1", Content: "first"})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if d.ID == "" || d.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", d)
	}
	created := d.CreatedAt

	time.Sleep(2 * time.Millisecond)
	d.Content = "second"
	d.CreatedAt = time.Time{}
	d2, err := s.SaveDraft(ctx, d)
	if err != nil {
		t.Fatalf("SaveDraft update: %v", err)
	}
	if !d2.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed on update: %v vs %v", d2.CreatedAt, created)
	}

	got, err := s.LoadDraft(ctx, d.ID)
	if err != nil || got.Content != "second" || got.ChapterID != "ch-1" {
		t.Fatalf("LoadDraft = %+v, err %v", got, err)
	}

	other, err := s.SaveDraft(ctx, Draft{Title: "Chapter 2", Content: "x"})
	if err != nil {
		t.Fatalf("SaveDraft other: %v", err)
	}
	list, err := s.ListDrafts(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListDrafts got %d err %v", len(list), err)
	}
	if list[0].ID != other.ID || list[1].Bytes != len("second") {
		t.Fatalf("unexpected listing order or sizes: %+v", list)
	}

	if err := s.DeleteDraft(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDraft: %v", err)
	}
	if _, err := s.LoadDraft(ctx, d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
	if err := s.DeleteDraft(ctx, d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound on second delete, got %v", err)
	}
}

func TestSearchText(t *testing.T) {
	src := "Opening line\n" +
		"[conversation participants=\"Mira, Kade\"]\n" +
		"[dialogue speaker=\"Mira\"]Ready?[/dialogue]\n" +
		"[dialogue speaker=\"Kade\"]Always.[/dialogue]\n" +
		"[/conversation]\n" +
		"\n" +
		"[event type=\"danger\"]Ambush[/event]\n" +
		"[sfx]BOOM[/sfx]"
	want := "Opening line\nMira: Ready?\nKade: Always.\ndanger Ambush\nBOOM"
	if got := SearchText(src); got != want {
		t.Fatalf("SearchText =\n%q\nwant\n%q", got, want)
	}
}
