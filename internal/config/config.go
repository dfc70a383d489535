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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// A .env file in the working directory and environment variables are read-only overrides.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// DatabaseURL points at the Postgres chapter store; empty disables it.
	DatabaseURL string `yaml:"database_url"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type GeneralConfig struct {
	DraftsDir    string `yaml:"drafts_dir"`
	ServerAddr   string `yaml:"server_addr"`
	EnableServer bool   `yaml:"enable_server"`
}

type UploadConfig struct {
	MaxBytes    int64 `yaml:"max_bytes"`
	Concurrency int   `yaml:"concurrency"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Upload        UploadConfig  `yaml:"upload"`
	Logging       LoggingConfig `yaml:"logging"`
}

// DefaultMaxUploadBytes is the image size ceiling enforced before upload.
const DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{DraftsDir: defaultDraftsDir(), ServerAddr: "127.0.0.1:8088", EnableServer: false},
		Backend:       BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000, TLSInsecure: false},
		Upload:        UploadConfig{MaxBytes: DefaultMaxUploadBytes, Concurrency: 4},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile        = "MSC_CONFIG"
	EnvBackendURL        = "MSC_BACKEND_URL"
	EnvBackendTimeoutMs  = "MSC_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec   = "MSC_TLS_INSECURE"
	EnvDatabaseURL       = "MSC_PG_DSN"
	EnvDraftsDir         = "MSC_DRAFTS_DIR"
	EnvServerAddr        = "MSC_SERVER_ADDR"
	EnvEnableServer      = "MSC_ENABLE_SERVER"
	EnvUploadMaxBytes    = "MSC_UPLOAD_MAX_BYTES"
	EnvUploadConcurrency = "MSC_UPLOAD_CONCURRENCY"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "MSC_LOG_LEVEL"
	EnvLogFormat = "MSC_LOG_FORMAT"
	EnvLogSource = "MSC_LOG_SOURCE"
	EnvLogFile   = "MSC_LOG_FILE"
)

// appDir resolves the per-user application directory for the current OS.
func appDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "MagicScribe")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "MagicScribe")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "magicscribe")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

func defaultDraftsDir() string {
	dir, err := appDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "magicscribe")
	}
	return filepath.Join(dir, "drafts")
}

// ConfigPath returns the per-user config file path. MSC_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into
// the process environment. Existing variables win; missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var present []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// Load reads the user config file (if present), applies defaults, then .env and
// environment overrides. The backend token comes from the keyring and is
// returned separately.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	if err := LoadDotEnv(); err != nil {
		return cfg, "", err
	}
	applyEnvOverrides(&cfg)
	tok, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil && !errors.Is(err, ErrTokenNotFound) {
		// keychain unavailable (headless CI, no dbus): run without a token
		tok = ""
	}
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.General.DraftsDir) != "" {
		dst.General.DraftsDir = strings.TrimSpace(src.General.DraftsDir)
	}
	if strings.TrimSpace(src.General.ServerAddr) != "" {
		dst.General.ServerAddr = strings.TrimSpace(src.General.ServerAddr)
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.EnableServer = src.General.EnableServer
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	if src.Backend.DatabaseURL != "" {
		dst.Backend.DatabaseURL = src.Backend.DatabaseURL
	}
	if src.Upload.MaxBytes > 0 {
		dst.Upload.MaxBytes = src.Upload.MaxBytes
	}
	if src.Upload.Concurrency > 0 {
		dst.Upload.Concurrency = src.Upload.Concurrency
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); v != "" {
		cfg.Backend.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDraftsDir)); v != "" {
		cfg.General.DraftsDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.General.ServerAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvEnableServer)); v != "" {
		cfg.General.EnableServer = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvUploadMaxBytes)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Upload.MaxBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvUploadConcurrency)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Upload.Concurrency = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"backend.base_url":      EnvBackendURL,
	"backend.timeout_ms":    EnvBackendTimeoutMs,
	"backend.tls_insecure":  EnvBackendTLSInsec,
	"backend.database_url":  EnvDatabaseURL,
	"general.drafts_dir":    EnvDraftsDir,
	"general.server_addr":   EnvServerAddr,
	"general.enable_server": EnvEnableServer,
	"upload.max_bytes":      EnvUploadMaxBytes,
	"upload.concurrency":    EnvUploadConcurrency,
	"logging.level":         EnvLogLevel,
	"logging.format":        EnvLogFormat,
	"logging.source":        EnvLogSource,
	"logging.file":          EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the backend request timeout, falling back to the default.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}
