/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	// in-memory keychain; never touch the developer's real one
	keyring.MockInit()
	dir, err := os.MkdirTemp("", "msc-config-")
	if err != nil {
		panic(err)
	}
	_ = os.Setenv(EnvConfigFile, filepath.Join(dir, "config.yaml"))
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestEnvOverridesBackendURL(t *testing.T) {
	old := os.Getenv(EnvBackendURL)
	_ = os.Setenv(EnvBackendURL, "https://example.test:8443")
	t.Cleanup(func() { _ = os.Setenv(EnvBackendURL, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesUpload(t *testing.T) {
	t.Setenv(EnvUploadMaxBytes, "2048")
	t.Setenv(EnvUploadConcurrency, "7")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Upload.MaxBytes != 2048 || cfg.Upload.Concurrency != 7 {
		t.Fatalf("upload overrides not applied: %#v", cfg.Upload)
	}
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv(EnvUploadMaxBytes, "lots")
	t.Setenv(EnvBackendTimeoutMs, "soon")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	def := Defaults()
	if cfg.Upload.MaxBytes != def.Upload.MaxBytes || cfg.Backend.TimeoutMs != def.Backend.TimeoutMs {
		t.Fatalf("invalid env values should keep defaults: %#v %#v", cfg.Upload, cfg.Backend)
	}
}

func TestMergeIncludesEnableServer(t *testing.T) {
	// Given a file config that sets enable_server, mergeInto should carry it through
	dst := Defaults()
	src := Defaults()
	src.General.EnableServer = true
	mergeInto(&dst, &src)
	if !dst.General.EnableServer {
		t.Fatalf("EnableServer was not merged from file config")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/msc.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/msc.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	var src AppConfig
	mergeInto(&dst, &src)
	if dst.Upload.MaxBytes != DefaultMaxUploadBytes {
		t.Fatalf("MaxBytes = %d, want default", dst.Upload.MaxBytes)
	}
	if dst.General.ServerAddr == "" || dst.Backend.BaseURL == "" {
		t.Fatalf("defaults lost on merge: %#v", dst)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	oldLevel := os.Getenv(EnvLogLevel)
	oldFmt := os.Getenv(EnvLogFormat)
	oldSrc := os.Getenv(EnvLogSource)
	oldFile := os.Getenv(EnvLogFile)
	_ = os.Setenv(EnvLogLevel, "error")
	_ = os.Setenv(EnvLogFormat, "json")
	_ = os.Setenv(EnvLogSource, "1")
	_ = os.Setenv(EnvLogFile, "X:/msc.log")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLogLevel, oldLevel)
		_ = os.Setenv(EnvLogFormat, oldFmt)
		_ = os.Setenv(EnvLogSource, oldSrc)
		_ = os.Setenv(EnvLogFile, oldFile)
	})
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/msc.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestEnvOverrideFor(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://x")
	if name, ok := EnvOverrideFor("backend.database_url"); !ok || name != EnvDatabaseURL {
		t.Fatalf("EnvOverrideFor = %q, %v", name, ok)
	}
	if _, ok := EnvOverrideFor("no.such.key"); ok {
		t.Fatalf("unknown key reported as overridden")
	}
}

func TestBackendTimeout(t *testing.T) {
	if got := (BackendConfig{TimeoutMs: 250}).Timeout(); got != 250*time.Millisecond {
		t.Fatalf("Timeout = %v", got)
	}
	if got := (BackendConfig{}).Timeout(); got != 15*time.Second {
		t.Fatalf("default Timeout = %v", got)
	}
}
