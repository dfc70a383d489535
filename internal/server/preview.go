/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"magicscribe/internal/markup"
	"magicscribe/internal/render"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 1 << 20
)

type previewPage struct {
	Title    string
	Text     string
	Blocks   template.HTML
	Events   []markup.EventSpec
	ReadOnly bool
}

func (s *Server) page(w http.ResponseWriter, data previewPage) {
	data.Events = markup.EventTypes()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.ExecuteTemplate(w, "preview.gohtml", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// preview serves the editing page; ?text= seeds the textarea.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	frag, err := render.Fragment(render.RenderString(text))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.page(w, previewPage{Text: text, Blocks: frag})
}

// previewSocket re-renders every text message it receives and replies with
// the HTML fragment. Replies keep the order of the messages.
func (s *Server) previewSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}
	l := s.log.With(slog.String("remote", r.RemoteAddr))
	l.Debug("preview socket opened")

	send := make(chan []byte, 16)
	done := make(chan struct{})
	go s.previewWrites(conn, send, done, l)

	defer func() {
		close(send)
		<-done
		l.Debug("preview socket closed")
	}()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.Warn("preview socket read", slog.Any("err", err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		if mt != websocket.TextMessage {
			continue
		}
		frag, err := render.Fragment(render.RenderString(string(msg)))
		if err != nil {
			l.Warn("preview render", slog.Any("err", err))
			continue
		}
		select {
		case send <- []byte(frag):
		case <-done:
			return
		}
	}
}

// previewWrites is the only writer on conn. It closes done and the
// connection when send is closed or a write fails.
func (s *Server) previewWrites(conn *websocket.Conn, send <-chan []byte, done chan<- struct{}, l *slog.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()
	for {
		select {
		case msg, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				l.Debug("preview socket write", slog.Any("err", err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
