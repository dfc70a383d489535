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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "magicscribe/internal/log"
)

// ErrChapterNotFound is returned when no chapter matches an id.
var ErrChapterNotFound = errors.New("backend: chapter not found")

// Chapter is one chapter of a series; Content is stored markup.
type Chapter struct {
	ID        string    `json:"id"`
	SeriesID  string    `json:"series_id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChapterStore persists chapters in Postgres.
type ChapterStore struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenChapterStore connects to dsn and applies pending migrations. An empty
// dsn yields ErrNoDatabase.
func OpenChapterStore(ctx context.Context, dsn string) (*ChapterStore, error) {
	db, err := openDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := &ChapterStore{db: db, log: applog.WithComponent("backend")}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewChapterStore wraps an already opened pool without migrating.
func NewChapterStore(db *sql.DB) *ChapterStore {
	return &ChapterStore{db: db, log: applog.WithComponent("backend")}
}

func (s *ChapterStore) Migrate(ctx context.Context) error {
	if err := applyMigrations(ctx, s.db, s.log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *ChapterStore) Close() error { return s.db.Close() }

// Ping checks connectivity for readiness probes.
func (s *ChapterStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Upsert inserts a chapter or, when (series_id, number) exists, replaces its
// title and content and bumps the version. A missing ID gets a new uuid.
func (s *ChapterStore) Upsert(ctx context.Context, ch Chapter) (Chapter, error) {
	if strings.TrimSpace(ch.SeriesID) == "" || ch.Number <= 0 {
		return Chapter{}, fmt.Errorf("upsert chapter: series id and positive number required")
	}
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO chapters(id, series_id, number, title, content)
		VALUES($1, $2, $3, $4, $5)
		ON CONFLICT (series_id, number) DO UPDATE
		SET title = EXCLUDED.title, content = EXCLUDED.content,
		    version = chapters.version + 1, updated_at = now()
		RETURNING id, version, updated_at`,
		ch.ID, ch.SeriesID, ch.Number, ch.Title, ch.Content)
	if err := row.Scan(&ch.ID, &ch.Version, &ch.UpdatedAt); err != nil {
		return Chapter{}, fmt.Errorf("upsert chapter %s/%d: %w", ch.SeriesID, ch.Number, err)
	}
	s.log.Debug("chapter upserted", slog.String("id", ch.ID), slog.Int64("version", ch.Version))
	return ch, nil
}

func (s *ChapterStore) Get(ctx context.Context, id string) (Chapter, error) {
	var ch Chapter
	row := s.db.QueryRowContext(ctx, `SELECT id, series_id, number, title, content, version, updated_at FROM chapters WHERE id = $1`, id)
	switch err := row.Scan(&ch.ID, &ch.SeriesID, &ch.Number, &ch.Title, &ch.Content, &ch.Version, &ch.UpdatedAt); {
	case errors.Is(err, sql.ErrNoRows):
		return Chapter{}, ErrChapterNotFound
	case err != nil:
		return Chapter{}, fmt.Errorf("get chapter %s: %w", id, err)
	}
	return ch, nil
}

// List returns the chapters of a series ordered by number.
func (s *ChapterStore) List(ctx context.Context, seriesID string) ([]Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, series_id, number, title, content, version, updated_at FROM chapters WHERE series_id = $1 ORDER BY number`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Chapter
	for rows.Next() {
		var ch Chapter
		if err := rows.Scan(&ch.ID, &ch.SeriesID, &ch.Number, &ch.Title, &ch.Content, &ch.Version, &ch.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// SetContent replaces the markup of one chapter.
func (s *ChapterStore) SetContent(ctx context.Context, id, content string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE chapters SET content = $2, version = version + 1, updated_at = now() WHERE id = $1`, id, content)
	if err != nil {
		return fmt.Errorf("set content %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChapterNotFound
	}
	return nil
}
