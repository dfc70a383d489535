/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes rendering, conversion and lint over HTTP, plus a
// live preview page that re-renders over a websocket while the author types.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"magicscribe/internal/backend"
	applog "magicscribe/internal/log"
	"magicscribe/internal/render"
	"magicscribe/internal/version"
)

// DefaultMaxBody bounds request bodies of the API routes.
const DefaultMaxBody = 4 << 20

//go:embed templates/*.gohtml
var templatesFS embed.FS

// ChapterSource serves stored chapters. *backend.ChapterStore satisfies it.
type ChapterSource interface {
	Get(ctx context.Context, id string) (backend.Chapter, error)
	Ping(ctx context.Context) error
}

// Options configures a Server. Chapters is optional; without it the chapter
// routes are not mounted.
type Options struct {
	Addr     string
	Chapters ChapterSource
	MaxBody  int64
}

type Server struct {
	opts     Options
	tpl      *template.Template
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// New parses the page templates and prepares the router.
func New(opts Options) (*Server, error) {
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	funcs, err := render.FuncMap()
	if err != nil {
		return nil, err
	}
	tpl, err := template.New("server").Funcs(funcs).ParseFS(sub, "*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		opts: opts,
		tpl:  tpl,
		log:  applog.WithComponent("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// the preview page is served from the same origin; local tools may differ
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Get("/version", s.version)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/preview", http.StatusFound)
	})
	r.Get("/preview", s.preview)
	r.Get("/ws/preview", s.previewSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(s.opts.MaxBody))
		r.Get("/events", s.events)
		r.Post("/render", s.renderBlocks)
		r.Post("/render/html", s.renderHTML)
		r.Post("/convert/load", s.convertLoad)
		r.Post("/convert/save", s.convertSave)
		r.Post("/lint", s.lint)
		if s.opts.Chapters != nil {
			r.Get("/chapters/{id}/render", s.chapterRender)
		}
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := applog.ContextWith(r.Context(), slog.String("request_id", middleware.GetReqID(r.Context())))
		next.ServeHTTP(ww, r.WithContext(ctx))
		s.log.DebugContext(ctx, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("took", time.Since(start)))
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.opts.Chapters != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Chapters.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(version.String()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
