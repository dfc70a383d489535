/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"magicscribe/internal/backend"
	"magicscribe/internal/markup"
	"magicscribe/internal/render"
	"magicscribe/internal/richtext"
)

// textRequest carries markup ("text") or editor HTML ("html").
type textRequest struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// readText decodes a JSON body, or takes a text/plain body verbatim as Text.
func readText(r *http.Request) (textRequest, error) {
	var req textRequest
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "text/plain" || mt == "text/html" {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return req, fmt.Errorf("read body: %w", err)
		}
		req.Text, req.HTML = string(b), string(b)
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("decode body: %w", err)
	}
	return req, nil
}

func (s *Server) events(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, markup.EventTypes())
}

func (s *Server) renderBlocks(w http.ResponseWriter, r *http.Request) {
	req, err := readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := render.JSON(w, render.RenderString(req.Text)); err != nil {
		s.log.Warn("render json", slog.Any("err", err))
	}
}

func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request) {
	req, err := readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	frag, err := render.Fragment(render.RenderString(req.Text))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, string(frag))
}

func (s *Server) convertLoad(w http.ResponseWriter, r *http.Request) {
	req, err := readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": richtext.FromStorage(req.Text)})
}

func (s *Server) convertSave(w http.ResponseWriter, r *http.Request) {
	req, err := readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": richtext.ToStorage(req.HTML)})
}

func (s *Server) lint(w http.ResponseWriter, r *http.Request) {
	req, err := readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	diags := markup.Lint(req.Text)
	if diags == nil {
		diags = []markup.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"diagnostics": diags})
}

// chapterRender renders a stored chapter; ?format=json returns blocks.
func (s *Server) chapterRender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ch, err := s.opts.Chapters.Get(r.Context(), id)
	if errors.Is(err, backend.ErrChapterNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.log.ErrorContext(r.Context(), "load chapter", slog.String("id", id), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, errors.New("could not load chapter"))
		return
	}
	blocks := render.RenderString(ch.Content)
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, map[string]any{"chapter": ch, "blocks": blocks})
		return
	}
	frag, err := render.Fragment(blocks)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.page(w, previewPage{Title: ch.Title, Text: ch.Content, Blocks: frag, ReadOnly: true})
}
