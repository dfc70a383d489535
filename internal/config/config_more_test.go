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
)

func TestSaveThenLoadRoundTripsFileAndToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv(EnvConfigFile, path)

	cfg := Defaults()
	cfg.Backend.BaseURL = "https://api.example.test"
	cfg.General.DraftsDir = "/srv/drafts"
	cfg.Upload.Concurrency = 2
	if err := Save(cfg, "secret-token"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Backend.BaseURL != "https://api.example.test" || got.General.DraftsDir != "/srv/drafts" || got.Upload.Concurrency != 2 {
		t.Fatalf("file values not loaded: %#v", got)
	}
	if tok != "secret-token" {
		t.Fatalf("token = %q, want secret-token", tok)
	}

	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("second DeleteToken should be a no-op: %v", err)
	}
	if _, tok, _ = Load(); tok != "" {
		t.Fatalf("token still present after delete: %q", tok)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("general: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigFile, path)
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadDotEnvDoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	content := "MSC_TEST_DOTENV_A=from-file\nMSC_TEST_DOTENV_B=from-file\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MSC_TEST_DOTENV_A", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("MSC_TEST_DOTENV_B") })

	if err := LoadDotEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if v := os.Getenv("MSC_TEST_DOTENV_A"); v != "from-env" {
		t.Fatalf("existing env overwritten: %q", v)
	}
	if v := os.Getenv("MSC_TEST_DOTENV_B"); v != "from-file" {
		t.Fatalf("dotenv value not loaded: %q", v)
	}
}

func TestSaveTokenLeavesConfigFileAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, path)
	if err := SaveToken(""); err == nil {
		t.Fatal("empty token accepted")
	}
	if err := SaveToken("abc"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	t.Cleanup(func() { _ = DeleteToken() })
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("config file written: %v", err)
	}
	if _, tok, _ := Load(); tok != "abc" {
		t.Fatalf("token = %q", tok)
	}
}
