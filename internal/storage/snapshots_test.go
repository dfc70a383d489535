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

func TestSnapshotsCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d, err := s.SaveDraft(ctx, Draft{Title: "Snap", Content: "v0"})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if _, ok, err := s.LatestSnapshot(ctx, d.ID); err != nil || ok {
		t.Fatalf("expected no snapshot yet, ok=%v err=%v", ok, err)
	}
	base := time.Now()
	if err := s.SaveSnapshot(ctx, d.ID, "hello", base); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	latest, ok, err := s.LatestSnapshot(ctx, d.ID)
	if err != nil || !ok || latest.Content != "hello" {
		t.Fatalf("LatestSnapshot got %+v ok=%v err %v", latest, ok, err)
	}
	for i := 0; i < 5; i++ {
		if err := s.SaveSnapshot(ctx, d.ID, string(rune('a'+i)), base.Add(time.Duration(i+1)*time.Millisecond)); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}
	list, err := s.ListSnapshots(ctx, d.ID, 10)
	if err != nil || len(list) != 6 {
		t.Fatalf("ListSnapshots got %d err %v", len(list), err)
	}
	if list[0].Content != "e" {
		t.Fatalf("expected newest first, got %q", list[0].Content)
	}
	n, err := s.PruneSnapshots(ctx, d.ID, 3)
	if err != nil || n != 3 {
		t.Fatalf("PruneSnapshots deleted %d err %v", n, err)
	}
	list, err = s.ListSnapshots(ctx, d.ID, 10)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListSnapshots after prune got %d err %v", len(list), err)
	}
}

func TestSnapshotsFollowDraftLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.SaveSnapshot(ctx, "missing", "x", time.Now()); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
	d, _ := s.SaveDraft(ctx, Draft{Content: "c"})
	_ = s.SaveSnapshot(ctx, d.ID, "c", time.Now())
	if err := s.DeleteDraft(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDraft: %v", err)
	}
	list, err := s.ListSnapshots(ctx, d.ID, 10)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected snapshots to cascade, got %d err %v", len(list), err)
	}
}
