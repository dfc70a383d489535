/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"magicscribe/internal/editor"
	"magicscribe/internal/storage"
)

func silenceStderr(t *testing.T) {
	t.Helper()
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	})
}

// TestRecover_AutosavesSession checks that a panic writes a report, stores the
// edited text as a draft and calls the exit hook.
func TestRecover_AutosavesSession(t *testing.T) {
	silenceStderr(t)
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	root := t.TempDir()
	sess := editor.NewSession()
	if err := sess.Load("Hello **there**"); err != nil {
		t.Fatalf("load: %v", err)
	}

	func() {
		defer Recover(&Target{DraftsDir: root, Title: "Chapter 1", Source: sess})
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	files, _ := os.ReadDir(filepath.Join(root, ReportsDirName))
	var found string
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			found = filepath.Join(root, ReportsDirName, f.Name())
		}
	}
	if found == "" {
		t.Fatalf("expected crash report under %s", ReportsDirName)
	}
	if b, _ := os.ReadFile(found); !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", b)
	}

	st, err := storage.Open(context.Background(), root)
	if err != nil {
		t.Fatalf("open drafts: %v", err)
	}
	defer st.Close()
	drafts, err := st.ListDrafts(context.Background())
	if err != nil || len(drafts) != 1 {
		t.Fatalf("expected one draft, got %v (%v)", drafts, err)
	}
	d, err := st.LoadDraft(context.Background(), drafts[0].ID)
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	if d.Title != "Chapter 1" || d.Content != "Hello **there**" {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if _, ok, _ := st.LatestSnapshot(context.Background(), d.ID); !ok {
		t.Fatalf("expected a snapshot of the recovered text")
	}
}

func TestAutosaveKeepsExistingDraft(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	st, err := storage.Open(ctx, root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	prev, err := st.SaveDraft(ctx, storage.Draft{Title: "Gate", ChapterID: "c9", Content: "old"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = st.Close()

	id, err := Autosave(&Target{DraftsDir: root, DraftID: prev.ID, Source: staticSource("<p>new <em>text</em></p>")})
	if err != nil {
		t.Fatalf("autosave: %v", err)
	}
	if id != prev.ID {
		t.Fatalf("autosave created a new draft %s", id)
	}
	st, err = storage.Open(ctx, root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	d, _ := st.LoadDraft(ctx, id)
	if d.Title != "Gate" || d.ChapterID != "c9" || d.Content != "new *text*" {
		t.Fatalf("unexpected draft after autosave: %+v", d)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	oldExit := exitFn
	exitFn = func(int) { t.Fatalf("exit called without panic") }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(nil)
	}()
}
