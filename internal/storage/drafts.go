/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"magicscribe/internal/markup"
)

// ErrDraftNotFound is returned when no draft has the requested id.
var ErrDraftNotFound = errors.New("storage: draft not found")

// Draft is a locally autosaved chapter text in storage markup.
type Draft struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ChapterID string    `json:"chapter_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// tsLayout is fixed-width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DraftInfo is a listing row without content.
type DraftInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ChapterID string    `json:"chapter_id,omitempty"`
	Bytes     int       `json:"bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// language=SQL
// dialect=SQLite
const upsertDraftSQL = `INSERT INTO drafts(id, title, chapter_id, content, search_text, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	chapter_id = excluded.chapter_id,
	content = excluded.content,
	search_text = excluded.search_text,
	updated_at = excluded.updated_at`

// SaveDraft inserts or replaces a draft. An empty ID gets a new uuid; the
// stored draft is returned with its timestamps.
func (s *Store) SaveDraft(ctx context.Context, d Draft) (Draft, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, upsertDraftSQL, d.ID, d.Title, d.ChapterID, d.Content, SearchText(d.Content),
		d.CreatedAt.Format(tsLayout), d.UpdatedAt.Format(tsLayout))
	if err != nil {
		return Draft{}, fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	// created_at is kept on conflict, so read it back
	var created string
	if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM drafts WHERE id = ?`, d.ID).Scan(&created); err == nil {
		d.CreatedAt, _ = time.Parse(tsLayout, created)
	}
	s.log.Debug("draft saved", slog.String("id", d.ID), slog.Int("bytes", len(d.Content)))
	return d, nil
}

func (s *Store) LoadDraft(ctx context.Context, id string) (Draft, error) {
	var d Draft
	var created, updated string
	err := s.db.QueryRowContext(ctx, `SELECT id, title, chapter_id, content, created_at, updated_at FROM drafts WHERE id = ?`, id).
		Scan(&d.ID, &d.Title, &d.ChapterID, &d.Content, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("load draft %s: %w", id, err)
	}
	d.CreatedAt, _ = time.Parse(tsLayout, created)
	d.UpdatedAt, _ = time.Parse(tsLayout, updated)
	return d, nil
}

// ListDrafts returns drafts, most recently updated first.
func (s *Store) ListDrafts(ctx context.Context) ([]DraftInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, chapter_id, length(content), updated_at FROM drafts ORDER BY updated_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []DraftInfo
	for rows.Next() {
		var d DraftInfo
		var updated string
		if err := rows.Scan(&d.ID, &d.Title, &d.ChapterID, &d.Bytes, &updated); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		d.UpdatedAt, _ = time.Parse(tsLayout, updated)
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDraft removes a draft and its snapshots.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// SearchText flattens markup into the text the search index sees: prose
// lines as written, tagged lines as their text, dialogue as "Speaker: text".
func SearchText(content string) string {
	doc := markup.Parse(content)
	var b strings.Builder
	line := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}
	for _, ln := range doc.Lines {
		switch t := ln.Tag.(type) {
		case nil:
			line(ln.Raw)
		case markup.Dialogue:
			line(t.Speaker + ": " + t.Text)
		case markup.Conversation:
			for _, d := range t.Dialogues {
				line(d.Speaker + ": " + d.Text)
			}
		case markup.Event:
			line(string(t.Type) + " " + t.Text)
		case markup.Sfx:
			line(t.Text)
		case markup.Shake:
			line(t.Text)
		case markup.System:
			line(t.Text)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
