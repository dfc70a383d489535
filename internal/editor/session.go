/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor models one rich-text editing flow: loading stored chapter
// text, tracking images that only exist locally as data URLs, and resolving
// them to remote URLs on save.
package editor

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "magicscribe/internal/log"
	"magicscribe/internal/richtext"
	"magicscribe/internal/undo"
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("editor: session closed")

// DefaultMaxImageBytes is the largest image AddImage accepts (10 MB).
const DefaultMaxImageBytes = 10 * 1024 * 1024

// PendingImage is a picked file whose bytes have not been uploaded yet.
type PendingImage struct {
	Name string
	MIME string
	Data []byte
}

// Session is owned by a single editing flow and is not safe for concurrent use.
type Session struct {
	ID string

	content    string
	lastStored string
	loaded     bool
	focused    bool
	closed     bool

	images map[string]PendingImage

	history     *undo.Manager
	maxBytes    int64
	concurrency int
	now         func() time.Time
	log         *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithHistory shares an undo manager between sessions.
func WithHistory(m *undo.Manager) Option { return func(s *Session) { s.history = m } }

// WithMaxImageBytes overrides the image size limit.
func WithMaxImageBytes(n int64) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithUploadConcurrency bounds parallel uploads during Save; 0 means unbounded.
func WithUploadConcurrency(n int) Option { return func(s *Session) { s.concurrency = n } }

// WithClock sets the time source used for history snapshots.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

func NewSession(opts ...Option) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		images:   make(map[string]PendingImage),
		maxBytes: DefaultMaxImageBytes,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.history == nil {
		s.history = undo.NewManager(undo.Config{MaxPerKey: 200})
	}
	s.log = applog.WithComponent("editor").With(slog.String("session", s.ID))
	return s
}

// Content returns the working editor HTML.
func (s *Session) Content() string { return s.content }

func (s *Session) Loaded() bool { return s.loaded }

func (s *Session) Focused() bool { return s.focused }

// PendingImages returns the number of images still waiting for upload.
func (s *Session) PendingImages() int { return len(s.images) }

// Pending reports whether dataURL refers to a picked file awaiting upload.
func (s *Session) Pending(dataURL string) bool {
	_, ok := s.images[dataURL]
	return ok
}

// Load converts stored text into editor HTML. Only the first call with
// non-blank text has an effect.
func (s *Session) Load(stored string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.loaded || strings.TrimSpace(stored) == "" {
		return nil
	}
	s.content = richtext.FromStorage(stored)
	s.lastStored = stored
	s.loaded = true
	s.log.Debug("loaded", slog.Int("bytes", len(stored)))
	return nil
}

// SyncExternal reloads the session when stored text changed elsewhere. An
// editor that has focus is never overwritten. Reports whether it reloaded.
func (s *Session) SyncExternal(stored string) (bool, error) {
	if s.closed {
		return false, ErrSessionClosed
	}
	if !s.loaded {
		err := s.Load(stored)
		return s.loaded, err
	}
	if s.focused || strings.TrimSpace(stored) == strings.TrimSpace(s.lastStored) {
		return false, nil
	}
	s.content = richtext.FromStorage(stored)
	s.lastStored = stored
	s.history.Clear(s.ID)
	s.log.Info("reloaded external content", slog.Int("bytes", len(stored)))
	return true, nil
}

func (s *Session) SetFocused(focused bool) { s.focused = focused }

// SetContent replaces the working HTML, recording the previous state for Undo.
func (s *Session) SetContent(html string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if html == s.content {
		return nil
	}
	s.history.Record(undo.Snapshot{Key: s.ID, Content: s.content, TS: s.now()})
	s.content = html
	return nil
}

// Undo restores the previous content. It reports false when there is nothing to undo.
func (s *Session) Undo() (bool, error) {
	if s.closed {
		return false, ErrSessionClosed
	}
	snap, ok := s.history.Undo(s.ID, s.content)
	if ok {
		s.content = snap.Content
	}
	return ok, nil
}

func (s *Session) Redo() (bool, error) {
	if s.closed {
		return false, ErrSessionClosed
	}
	snap, ok := s.history.Redo(s.ID, s.content)
	if ok {
		s.content = snap.Content
	}
	return ok, nil
}

// Discard drops every pending image. The working content is left as is.
func (s *Session) Discard() {
	if n := len(s.images); n > 0 {
		s.log.Debug("discarding pending images", slog.Int("count", n))
	}
	s.images = make(map[string]PendingImage)
}

// Close discards pending images and history. Further calls fail with ErrSessionClosed.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.Discard()
	s.history.Clear(s.ID)
	s.closed = true
}
