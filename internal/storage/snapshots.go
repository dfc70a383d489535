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
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(draft_id, ts, content) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT id, ts, content FROM snapshots WHERE draft_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT id, ts, content FROM snapshots WHERE draft_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE draft_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE draft_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// Snapshot is one saved state of a draft.
type Snapshot struct {
	ID      int64     `json:"id"`
	TS      time.Time `json:"ts"`
	Content string    `json:"content"`
}

// SaveSnapshot records the content of a draft at ts. The draft must exist.
func (s *Store) SaveSnapshot(ctx context.Context, draftID, content string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, insertSnapshotSQL, draftID, ts.UTC().Format(tsLayout), content)
	if err != nil {
		if _, lerr := s.LoadDraft(ctx, draftID); errors.Is(lerr, ErrDraftNotFound) {
			return ErrDraftNotFound
		}
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot of a draft; ok is false when there is none.
func (s *Store) LatestSnapshot(ctx context.Context, draftID string) (Snapshot, bool, error) {
	var snap Snapshot
	var tsStr string
	err := s.db.QueryRowContext(ctx, selectLatestSnapshotSQL, draftID).Scan(&snap.ID, &tsStr, &snap.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	snap.TS, _ = time.Parse(tsLayout, tsStr)
	return snap, true, nil
}

// ListSnapshots returns up to limit most recent snapshots of a draft.
func (s *Store) ListSnapshots(ctx context.Context, draftID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, listSnapshotsSQL, draftID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var tsStr string
		if err := rows.Scan(&snap.ID, &tsStr, &snap.Content); err != nil {
			return nil, err
		}
		snap.TS, _ = time.Parse(tsLayout, tsStr)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// PruneSnapshots keeps at most keepLast snapshots for the draft and deletes older ones.
func (s *Store) PruneSnapshots(ctx context.Context, draftID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, pruneOldSnapshotsSQL, draftID, draftID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
