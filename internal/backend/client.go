/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	applog "magicscribe/internal/log"
)

// Client talks to the publishing backend: image uploads and chapter content.
// It satisfies editor.Uploader.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
	log     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithInsecureTLS skips certificate verification (self-signed dev backends).
func WithInsecureTLS() ClientOption {
	return func(c *Client) {
		c.client.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}} //nolint:gosec
	}
}

func WithHTTPClient(hc *http.Client) ClientOption { return func(c *Client) { c.client = hc } }

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     applog.WithComponent("backend"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Code, e.Body)
	}
	return fmt.Sprintf("server %s %s: %d", e.Method, e.Path, e.Code)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("request", slog.String("method", method), slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode), slog.Duration("took", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: u.Path, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, dest any) error {
	var body io.Reader
	ct := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body, ct = bytes.NewReader(b), "application/json"
	}
	return c.do(ctx, method, path, ct, body, dest)
}

// UploadImage posts the file as multipart field "image" and returns the hosted URL.
func (c *Client) UploadImage(ctx context.Context, name, mime string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	h.Set("Content-Type", mime)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/upload/image", mw.FormDataContentType(), &buf, &env); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if env.Data.URL == "" {
		if env.Error != "" {
			return "", fmt.Errorf("upload %s: %s", name, env.Error)
		}
		return "", fmt.Errorf("upload %s: response carried no url", name)
	}
	return env.Data.URL, nil
}

// UpdateChapterContent replaces the stored text of a chapter.
func (c *Client) UpdateChapterContent(ctx context.Context, chapterID, content string) error {
	path := "/chapters/" + url.PathEscape(chapterID)
	return c.doJSON(ctx, http.MethodPatch, path, map[string]string{"content": content}, nil)
}

// GetChapter fetches a chapter. The backend may answer with the chapter or
// with a {"data": chapter} envelope.
func (c *Client) GetChapter(ctx context.Context, chapterID string) (Chapter, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/chapters/"+url.PathEscape(chapterID), nil, &raw); err != nil {
		return Chapter{}, err
	}
	var env struct {
		Data *Chapter `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		return *env.Data, nil
	}
	var ch Chapter
	if err := json.Unmarshal(raw, &ch); err != nil {
		return Chapter{}, fmt.Errorf("decode chapter: %w", err)
	}
	return ch, nil
}
