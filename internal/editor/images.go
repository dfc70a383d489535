/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"magicscribe/internal/richtext"
)

// ValidationError rejects a picked file before it touches session state.
type ValidationError struct {
	Name   string
	MIME   string
	Size   int64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("editor: image %q rejected: %s", e.Name, e.Reason)
}

// AddImage validates a picked file, keeps its bytes for a later upload and
// returns the data URL the editor should display in its place.
func (s *Session) AddImage(name, mime string, data []byte) (string, error) {
	if s.closed {
		return "", ErrSessionClosed
	}
	mime = strings.TrimSpace(strings.ToLower(mime))
	if mime == "" || mime == "application/octet-stream" {
		mime = detectImage(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", &ValidationError{Name: name, MIME: mime, Size: int64(len(data)), Reason: "please select an image file"}
	}
	if int64(len(data)) > s.maxBytes {
		return "", &ValidationError{Name: name, MIME: mime, Size: int64(len(data)),
			Reason: fmt.Sprintf("image size must be less than %dMB", s.maxBytes/(1024*1024))}
	}
	url := DataURL(mime, data)
	s.images[url] = PendingImage{Name: name, MIME: mime, Data: data}
	s.log.Debug("image added", slog.String("name", name), slog.String("mime", mime), slog.Int("bytes", len(data)))
	return url, nil
}

// InsertImage appends an image paragraph to the working content.
func (s *Session) InsertImage(src, alt string) error {
	img := richtext.HTML([]richtext.Node{richtext.Paragraph{Children: []richtext.Node{richtext.Image{Src: src, Alt: alt}}}})
	return s.SetContent(s.content + img)
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// detectImage identifies an image from its bytes. Decoders registered by the
// blank imports above come first; content sniffing is the fallback.
func detectImage(data []byte) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return "image/" + format
	}
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}
