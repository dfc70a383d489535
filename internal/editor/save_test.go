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
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func (f *fakeUploader) UploadImage(_ context.Context, name, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
	if f.fail[name] {
		return "", errors.New("storage unavailable")
	}
	return "https://cdn.example/" + name, nil
}

func TestSaveWithoutImages(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load("Hello *there*"))
	res, err := s.Save(context.Background(), &fakeUploader{})
	require.NoError(t, err)
	assert.Equal(t, "Hello *there*", res.Markup)
	assert.Empty(t, res.Failures)
}

func TestSavePartialUploadFailure(t *testing.T) {
	s := NewSession(WithUploadConcurrency(2))
	require.NoError(t, s.Load("Intro"))
	okURL, err := s.AddImage("ok.png", "image/png", []byte("ok"))
	require.NoError(t, err)
	badURL, err := s.AddImage("bad.png", "image/png", []byte("bad"))
	require.NoError(t, err)
	require.NoError(t, s.InsertImage(okURL, "one"))
	require.NoError(t, s.InsertImage(badURL, "two"))

	up := &fakeUploader{fail: map[string]bool{"bad.png": true}}
	res, err := s.Save(context.Background(), up)
	require.NoError(t, err)

	assert.Contains(t, res.Markup, "![one](https://cdn.example/ok.png)")
	assert.Contains(t, res.Markup, "![two]("+badURL+")", "failed upload keeps its data URL")
	assert.NotContains(t, res.Markup, okURL)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "bad.png", res.Failures[0].Name)
	assert.Equal(t, "https://cdn.example/ok.png", res.Uploaded[okURL])

	assert.Equal(t, 1, s.PendingImages())
	assert.True(t, s.Pending(badURL))
	assert.Contains(t, s.Content(), "https://cdn.example/ok.png")
	assert.NotContains(t, s.Content(), okURL)

	// a retry only uploads what is still pending
	up.fail = nil
	res, err = s.Save(context.Background(), up)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 1, up.calls["ok.png"])
	assert.Equal(t, 2, up.calls["bad.png"])
	assert.Equal(t, 0, s.PendingImages())
}

func TestSaveUploadsDuplicateImageOnce(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load("x"))
	url, err := s.AddImage("dup.png", "image/png", []byte("dup"))
	require.NoError(t, err)
	require.NoError(t, s.InsertImage(url, "a"))
	require.NoError(t, s.InsertImage(url, "b"))

	up := &fakeUploader{}
	res, err := s.Save(context.Background(), up)
	require.NoError(t, err)
	assert.Equal(t, 1, up.calls["dup.png"])
	assert.Contains(t, res.Markup, "![a](https://cdn.example/dup.png)")
	assert.Contains(t, res.Markup, "![b](https://cdn.example/dup.png)")
}

func TestSaveSkipsUnreferencedImages(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load("text"))
	_, err := s.AddImage("orphan.png", "image/png", []byte("o"))
	require.NoError(t, err)

	up := &fakeUploader{}
	_, err = s.Save(context.Background(), up)
	require.NoError(t, err)
	assert.Zero(t, up.calls["orphan.png"])
	assert.Equal(t, 1, s.PendingImages())

	s.Discard()
	assert.Equal(t, 0, s.PendingImages())
}

func TestUploaderFunc(t *testing.T) {
	var up Uploader = UploaderFunc(func(_ context.Context, name, _ string, _ []byte) (string, error) {
		return "u/" + name, nil
	})
	got, err := up.UploadImage(context.Background(), "n", "image/png", nil)
	require.NoError(t, err)
	assert.Equal(t, "u/n", got)
}

func TestSaveKeepsImagesWhoseDataURLsSharePrefix(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load("x"))
	short, err := s.AddImage("a.png", "image/png", []byte("abc"))
	require.NoError(t, err)
	long, err := s.AddImage("b.png", "image/png", []byte("abcdef"))
	require.NoError(t, err)
	require.True(t, len(long) > len(short) && long[:len(short)] == short)
	require.NoError(t, s.InsertImage(short, "a"))
	require.NoError(t, s.InsertImage(long, "b"))

	res, err := s.Save(context.Background(), &fakeUploader{})
	require.NoError(t, err)
	assert.Contains(t, res.Markup, "![a](https://cdn.example/a.png)")
	assert.Contains(t, res.Markup, "![b](https://cdn.example/b.png)")
	assert.NotContains(t, res.Markup, "data:")
	assert.NotContains(t, s.Content(), "data:")
	assert.Empty(t, res.Failures)
}

func TestSaveEscapesUploadedURLInContent(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load("x"))
	url, err := s.AddImage("q.png", "image/png", []byte("q"))
	require.NoError(t, err)
	require.NoError(t, s.InsertImage(url, "q"))

	up := UploaderFunc(func(context.Context, string, string, []byte) (string, error) {
		return "https://cdn.example/q.png?w=1&h=2", nil
	})
	res, err := s.Save(context.Background(), up)
	require.NoError(t, err)
	assert.Contains(t, s.Content(), `src="https://cdn.example/q.png?w=1&amp;h=2"`)
	assert.Contains(t, res.Markup, "![q](https://cdn.example/q.png?w=1&h=2)")
}
