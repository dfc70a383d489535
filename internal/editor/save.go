/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	applog "magicscribe/internal/log"
	"magicscribe/internal/richtext"
)

// Uploader stores an image remotely and returns its public URL.
type Uploader interface {
	UploadImage(ctx context.Context, name, mime string, data []byte) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, name, mime string, data []byte) (string, error)

func (f UploaderFunc) UploadImage(ctx context.Context, name, mime string, data []byte) (string, error) {
	return f(ctx, name, mime, data)
}

// UploadFailure describes one image that could not be uploaded. Its data URL
// stays in the saved markup.
type UploadFailure struct {
	Name string
	Err  error
}

func (f UploadFailure) Error() string { return fmt.Sprintf("upload %s: %v", f.Name, f.Err) }

// SaveResult is the outcome of Save.
type SaveResult struct {
	// Markup is the storage text to persist.
	Markup string
	// Uploaded maps each resolved data URL to its remote URL.
	Uploaded map[string]string
	Failures []UploadFailure
}

type upload struct {
	dataURL string
	img     PendingImage
	url     string
	err     error
}

// Save uploads every pending image still referenced by the working content,
// substitutes the remote URLs and serializes the result for storage. Upload
// failures are isolated per file and never fail the save.
func (s *Session) Save(ctx context.Context, up Uploader) (SaveResult, error) {
	if s.closed {
		return SaveResult{}, ErrSessionClosed
	}
	l := applog.WithOperation(s.log, "save")
	start := time.Now()

	pending, err := s.referencedImages()
	if err != nil {
		return SaveResult{}, fmt.Errorf("scan editor content: %w", err)
	}

	// no errgroup context: one failed upload must not cancel its siblings
	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for _, u := range pending {
		g.Go(func() error {
			u.url, u.err = up.UploadImage(ctx, u.img.Name, u.img.MIME, u.img.Data)
			return nil
		})
	}
	_ = g.Wait()

	res := SaveResult{Uploaded: make(map[string]string)}
	var pairs []string
	for _, u := range pending {
		if u.err != nil {
			l.Warn("image upload failed", slog.String("name", u.img.Name), slog.Any("err", u.err))
			res.Failures = append(res.Failures, UploadFailure{Name: u.img.Name, Err: u.err})
			continue
		}
		pairs = append(pairs, srcPairs(u.dataURL, u.url)...)
		delete(s.images, u.dataURL)
		res.Uploaded[u.dataURL] = u.url
	}
	payload := s.content
	if len(pairs) > 0 {
		r := strings.NewReplacer(pairs...)
		payload = r.Replace(payload)
		s.content = payload
	}
	res.Markup = richtext.ToStorage(payload)
	s.lastStored = res.Markup

	l.Info("saved",
		slog.Int("uploaded", len(res.Uploaded)),
		slog.Int("failed", len(res.Failures)),
		slog.Duration("took", time.Since(start)))
	return res, nil
}

// srcPairs yields replacer pairs for a whole quoted attribute value, so a data
// URL that is a prefix of another one never matches inside it.
func srcPairs(dataURL, url string) []string {
	esc := html.EscapeString(url)
	return []string{
		`"` + dataURL + `"`, `"` + esc + `"`,
		`'` + dataURL + `'`, `'` + esc + `'`,
	}
}

// referencedImages lists pending images whose data URL appears as an <img>
// source, in document order and without duplicates.
func (s *Session) referencedImages() ([]*upload, error) {
	if len(s.images) == 0 {
		return nil, nil
	}
	nodes, err := richtext.ParseHTML(s.content)
	if err != nil {
		return nil, err
	}
	var out []*upload
	seen := make(map[string]bool)
	richtext.Walk(nodes, func(n richtext.Node, entering bool) bool {
		img, ok := n.(richtext.Image)
		if !ok || !entering || !strings.HasPrefix(img.Src, "data:") || seen[img.Src] {
			return true
		}
		if p, ok := s.images[img.Src]; ok {
			seen[img.Src] = true
			out = append(out, &upload{dataURL: img.Src, img: p})
		}
		return true
	})
	return out, nil
}
