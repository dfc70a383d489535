/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps bounded undo/redo stacks of editor content, one pair of
// stacks per key (an editing session or a draft).
package undo

import (
	"sync"
	"time"
)

// Snapshot is the content of one key at a point in time. Size is accounted
// as len(Content).
type Snapshot struct {
	Key     string
	Content string
	TS      time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; the oldest entries across all keys are pruned when exceeded.
	MaxBytes int
	// MaxPerKey limits the undo depth per key (0 means unlimited).
	MaxPerKey int
	// MinInterval folds a snapshot taken within the interval of the previous
	// one for the same key into it. The earlier content is kept, so one undo
	// reverts a whole burst of typing.
	MinInterval time.Duration
}

// Manager is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-key stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// bytes held by undo stacks
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Record stores the content a key had before a change. Any new change
// invalidates the redo stack of that key.
func (m *Manager) Record(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo[s.Key] = nil
	stack := m.undo[s.Key]
	if n := len(stack); n > 0 && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		// coalesce: refresh the timestamp so a continuous burst stays one entry
		stack[n-1].TS = s.TS
		return
	}
	m.undo[s.Key] = append(stack, s)
	m.totalBytes += len(s.Content)
	m.enforceCapsLocked(s.Key)
}

// Undo returns the previous content of key and remembers current for Redo.
func (m *Manager) Undo(key, current string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[key]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[key] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Content)
	m.redo[key] = append(m.redo[key], Snapshot{Key: key, Content: current, TS: time.Now()})
	return s, true
}

// Redo reapplies the last undone content and pushes current back onto the undo stack.
func (m *Manager) Redo(key, current string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[key]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[key] = r[:len(r)-1]
	m.undo[key] = append(m.undo[key], Snapshot{Key: key, Content: current, TS: time.Now()})
	m.totalBytes += len(current)
	m.enforceCapsLocked(key)
	return s, true
}

// CanUndo reports whether key has history.
func (m *Manager) CanUndo(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[key]) > 0
}

// CanRedo reports whether key has undone changes to reapply.
func (m *Manager) CanRedo(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[key]) > 0
}

// Clear drops both stacks of key.
func (m *Manager) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[key] {
		m.totalBytes -= len(s.Content)
	}
	delete(m.undo, key)
	delete(m.redo, key)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, keys int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, keys, totalSnapshots
}

func (m *Manager) enforceCapsLocked(key string) {
	if m.cfg.MaxPerKey > 0 {
		stack := m.undo[key]
		if len(stack) > m.cfg.MaxPerKey {
			toDrop := len(stack) - m.cfg.MaxPerKey
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Content)
			}
			m.undo[key] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// global cap: prune the oldest entry across all keys
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestKey := ""
		found := false
		var oldestTS time.Time
		for k, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestKey, oldestTS, found = k, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestKey]
		m.totalBytes -= len(stack[0].Content)
		m.undo[oldestKey] = stack[1:]
		if len(m.undo[oldestKey]) == 0 {
			delete(m.undo, oldestKey)
		}
	}
}
