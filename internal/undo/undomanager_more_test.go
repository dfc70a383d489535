/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestClearAndStats(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MaxPerKey: 10, MinInterval: time.Millisecond})
	m.Record(Snapshot{Key: "draft-7", Content: "abcdef", TS: time.Now()})
	tb, keys, total := m.Stats()
	if tb != 6 || keys != 1 || total != 1 {
		t.Fatalf("unexpected stats before clear: tb=%d keys=%d total=%d", tb, keys, total)
	}
	m.Clear("draft-7")
	tb2, keys2, total2 := m.Stats()
	if tb2 != 0 || keys2 != 0 || total2 != 0 {
		t.Fatalf("expected cleared stats to be zero, got tb=%d keys=%d total=%d", tb2, keys2, total2)
	}
}

func TestGlobalPruneAcrossKeys(t *testing.T) {
	// small MaxBytes so pruning triggers across keys
	m := NewManager(Config{MaxBytes: 8, MaxPerKey: 0, MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Record(Snapshot{Key: "a", Content: "xxxx", TS: t0})
	m.Record(Snapshot{Key: "b", Content: "yyyy", TS: t0.Add(time.Second)})
	// exceeds the cap, so the oldest entry (key a) goes
	m.Record(Snapshot{Key: "b", Content: "zzzz", TS: t0.Add(2 * time.Second)})

	if _, keys, total := m.Stats(); keys == 0 || total == 0 {
		t.Fatalf("expected some snapshots to remain")
	}
	if m.CanUndo("a") {
		t.Fatalf("expected key a to have been pruned")
	}
	if _, ok := m.Undo("b", "current"); !ok {
		t.Fatalf("expected key b to have snapshots")
	}
}

func TestUndoEmpty(t *testing.T) {
	m := NewManager(Config{})
	if _, ok := m.Undo("none", "x"); ok {
		t.Fatal("undo on empty history should report false")
	}
	if _, ok := m.Redo("none", "x"); ok {
		t.Fatal("redo on empty history should report false")
	}
}
