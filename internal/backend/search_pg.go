/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"fmt"
	"strings"
)

// ChapterQuery filters SearchChapters.
type ChapterQuery struct {
	Text     string
	SeriesID string
	// Speaker matches chapters containing a dialogue by that speaker.
	Speaker string
	Limit   int
	Offset  int
}

// ChapterHit is one search result with a highlighted snippet.
type ChapterHit struct {
	ID       string `json:"id"`
	SeriesID string `json:"series_id"`
	Number   int    `json:"number"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// SearchChapters runs a full-text search over chapter titles and content.
func (s *ChapterStore) SearchChapters(ctx context.Context, q ChapterQuery) ([]ChapterHit, error) {
	var (
		args []any
		b    strings.Builder
	)
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if text := strings.TrimSpace(q.Text); text != "" {
		p := place(text)
		b.WriteString("SELECT c.id, c.series_id, c.number, c.title, ")
		b.WriteString("COALESCE(ts_headline('simple', c.content, plainto_tsquery('simple', " + p + "), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') ")
		b.WriteString("FROM chapters c WHERE c.search_vector @@ plainto_tsquery('simple', " + p + ") ")
	} else {
		b.WriteString("SELECT c.id, c.series_id, c.number, c.title, '' FROM chapters c WHERE TRUE ")
	}
	if sid := strings.TrimSpace(q.SeriesID); sid != "" {
		b.WriteString(" AND c.series_id = " + place(sid) + " ")
	}
	if sp := strings.TrimSpace(q.Speaker); sp != "" {
		b.WriteString(" AND lower(c.content) LIKE " + place(`%speaker="`+strings.ToLower(sp)+`"%`) + " ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY c.series_id, c.number ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search chapters: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []ChapterHit
	for rows.Next() {
		var h ChapterHit
		if err := rows.Scan(&h.ID, &h.SeriesID, &h.Number, &h.Title, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
