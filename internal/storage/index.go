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
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "magicscribe/internal/log"
	"magicscribe/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	DBFileName = "drafts.sqlite"
	backupsDir = "backups"

	// schemaVersion tracks the local SQLite schema.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// Store is an open drafts database. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// DBPath returns the database file inside dir.
func DBPath(dir string) string { return filepath.Join(dir, DBFileName) }

// Open creates or opens the drafts database in dir. When the file exists but
// is not a usable database it is copied to dir/backups and recreated.
func Open(ctx context.Context, dir string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("drafts dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create drafts dir: %w", err)
	}
	path := DBPath(dir)
	db, err := openDB(ctx, path)
	if err == nil {
		err = healthy(ctx, db)
		if err != nil {
			_ = db.Close()
		}
	}
	if err != nil {
		l.Warn("drafts database unusable, recreating", slog.Any("err", err))
		backupDBFile(path)
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		if db, err = openDB(ctx, path); err != nil {
			return nil, err
		}
	}
	l.Info("drafts ready", slog.String("path", path))
	return &Store{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	// Convert to forward slashes for the SQLite URI.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func healthy(ctx context.Context, db *sql.DB) error {
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	if !strings.Contains(strings.ToLower(chk), "ok") {
		return fmt.Errorf("quick_check: %s", chk)
	}
	if _, err := db.ExecContext(ctx, `SELECT 1 FROM drafts LIMIT 1;`); err != nil {
		return fmt.Errorf("probe drafts: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// a fresh database starts at schema 1 and migrates forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureSchema creates the schema-1 tables: drafts, their FTS index and snapshots.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS drafts (
			seq         INTEGER PRIMARY KEY,
			id          TEXT    NOT NULL UNIQUE,
			title       TEXT    NOT NULL DEFAULT '',
			chapter_id  TEXT    NOT NULL DEFAULT '',
			content     TEXT    NOT NULL,
			search_text TEXT    NOT NULL DEFAULT '',
			created_at  TEXT    NOT NULL,
			updated_at  TEXT    NOT NULL
		);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_drafts USING fts5(
			title,
			search_text,
			content='drafts',
			content_rowid='seq',
			tokenize = 'unicode61'
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id       INTEGER PRIMARY KEY,
			draft_id TEXT    NOT NULL REFERENCES drafts(id) ON DELETE CASCADE,
			ts       TEXT    NOT NULL,
			content  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_draft_ts ON snapshots(draft_id, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	// Triggers keep the external-content FTS table in sync with drafts.
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS drafts_ai AFTER INSERT ON drafts BEGIN
			INSERT INTO fts_drafts(rowid, title, search_text) VALUES (new.seq, new.title, new.search_text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS drafts_ad AFTER DELETE ON drafts BEGIN
			INSERT INTO fts_drafts(fts_drafts, rowid, title, search_text) VALUES ('delete', old.seq, old.title, old.search_text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS drafts_au AFTER UPDATE ON drafts BEGIN
			INSERT INTO fts_drafts(fts_drafts, rowid, title, search_text) VALUES ('delete', old.seq, old.title, old.search_text);
			INSERT INTO fts_drafts(rowid, title, search_text) VALUES (new.seq, new.title, new.search_text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Listing is ordered by recency.
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_drafts_updated ON drafts(updated_at);`,
				`CREATE INDEX IF NOT EXISTS idx_drafts_chapter ON drafts(chapter_id);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

// RebuildSearch repopulates the FTS index from the drafts table.
func (s *Store) RebuildSearch(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO fts_drafts(fts_drafts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("rebuild fts: %w", err)
	}
	s.log.Info("search index rebuilt")
	return nil
}

// backupDBFile copies the database file into a timestamped backup next to it.
func backupDBFile(dbPath string) {
	bdir := filepath.Join(filepath.Dir(dbPath), backupsDir)
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(dbPath), stamp))
	if data, err := os.ReadFile(dbPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}
