/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SearchQuery describes a draft search.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Speaker restricts to drafts with a dialogue line by that speaker.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text    string
	Speaker string
	Limit   int
	Offset  int
}

// SearchResult represents a single match row.
// Snippet is a highlighted excerpt using [ ] markers when FTS text is used.
type SearchResult struct {
	DraftID string `json:"draft_id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchDrafts performs full-text search with optional filters over draft text.
// When q.Text is empty, it falls back to a plain scan ordered by recency.
func (s *Store) SearchDrafts(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT d.id, d.title, snippet(fts_drafts, 1, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_drafts JOIN drafts d ON fts_drafts.rowid = d.seq\n")
		sb.WriteString("WHERE fts_drafts MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT d.id, d.title, ''\n")
		sb.WriteString("FROM drafts d\nWHERE 1=1\n")
	}
	// Speaker lines are indexed as "Name: text"
	if sp := strings.TrimSpace(q.Speaker); sp != "" {
		ss := strings.ToLower(sp)
		sb.WriteString(" AND ( lower(d.search_text) LIKE ? OR lower(d.search_text) LIKE ? )\n")
		args = append(args, ss+":%", likeContains("\n"+ss+":"))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY d.updated_at DESC, d.seq DESC\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.DraftID, &r.Title, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func likeContains(s string) string { return "%" + s + "%" }
