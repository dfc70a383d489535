/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and a last autosave of the
// text being edited.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "magicscribe/internal/log"
	"magicscribe/internal/richtext"
	"magicscribe/internal/storage"
	"magicscribe/internal/version"
)

// ReportsDirName is the folder under the drafts dir that receives crash reports.
const ReportsDirName = "crash"

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// ContentSource yields the text being edited; *editor.Session satisfies it.
type ContentSource interface {
	Content() string
}

// Target describes what to save on a crash. Every field is optional.
type Target struct {
	DraftsDir string
	DraftID   string
	Title     string
	Source    ContentSource
}

// Recover captures a panic, logs it with its stack, writes a report file and
// autosaves the edited text as a draft.
//
// Usage: defer crash.Recover(target)
func Recover(t *Target) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(t, r, stack)
		if t != nil && t.Source != nil && t.DraftsDir != "" {
			if id, err := Autosave(t); err != nil {
				l.Error("crash autosave failed", slog.Any("err", err))
			} else {
				l.Info("crash autosave written", slog.String("draft", id))
				_, _ = fmt.Fprintf(os.Stderr, "Your text was saved as draft %s\n", id)
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

// Autosave stores the source text in the drafts database and returns the
// draft id. Editor HTML is converted to storage markup first.
func Autosave(t *Target) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := storage.Open(ctx, t.DraftsDir)
	if err != nil {
		return "", err
	}
	defer func() { _ = st.Close() }()

	text := t.Source.Content()
	if richtext.IsEditorHTML(text) {
		text = richtext.ToStorage(text)
	}
	title := t.Title
	if title == "" {
		title = "Recovered " + time.Now().Format("2006-01-02 15:04")
	}
	d := storage.Draft{ID: t.DraftID, Title: title, Content: text}
	if t.DraftID != "" {
		// keep the chapter link and creation time of an existing draft
		if prev, err := st.LoadDraft(ctx, t.DraftID); err == nil {
			d.ChapterID, d.CreatedAt = prev.ChapterID, prev.CreatedAt
			if t.Title == "" {
				d.Title = prev.Title
			}
		}
	}
	saved, err := st.SaveDraft(ctx, d)
	if err != nil {
		return "", err
	}
	if err := st.SaveSnapshot(ctx, saved.ID, text, time.Now()); err != nil {
		return saved.ID, err
	}
	return saved.ID, nil
}

func writeReport(t *Target, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if t != nil && t.DraftsDir != "" {
		dir = filepath.Join(t.DraftsDir, ReportsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "magicscribe crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if t != nil {
		if t.DraftsDir != "" {
			_, _ = fmt.Fprintf(&buf, "DraftsDir: %s\n", t.DraftsDir)
		}
		if t.DraftID != "" {
			_, _ = fmt.Fprintf(&buf, "Draft: %s\n", t.DraftID)
		}
		if t.Source != nil {
			_, _ = fmt.Fprintf(&buf, "EditedBytes: %d\n", len(t.Source.Content()))
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
