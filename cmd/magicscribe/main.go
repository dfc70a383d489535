/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"magicscribe/internal/config"
	"magicscribe/internal/crash"
	applog "magicscribe/internal/log"
	"magicscribe/internal/version"
)

// app carries what every command needs once the config is loaded.
type app struct {
	cfg   config.AppConfig
	token string
	crash *crash.Target
	log   *slog.Logger

	draftsDir string
	logLevel  string
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	a := &app{crash: &crash.Target{}, log: applog.WithComponent("cli")}
	defer crash.Recover(a.crash)

	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "magicscribe",
		Short:         "Write, preview and publish chapters in magic-tag markup",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.draftsDir, "drafts-dir", "", "drafts directory (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRenderCmd(a),
		newConvertCmd(a),
		newLintCmd(a),
		newExportCmd(a),
		newBulkCmd(a),
		newDraftsCmd(a),
		newPublishCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
			},
		},
	)
	return root
}

// setup loads the config and re-initializes logging from it.
func (a *app) setup() error {
	cfg, tok, err := config.Load()
	if err != nil {
		return err
	}
	if a.draftsDir != "" {
		cfg.General.DraftsDir = a.draftsDir
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg, a.token = cfg, tok
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	a.log = applog.WithComponent("cli")
	a.crash.DraftsDir = cfg.General.DraftsDir
	return nil
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "" || name == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
