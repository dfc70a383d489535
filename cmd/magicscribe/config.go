/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"magicscribe/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration and manage the backend token",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration; env overrides are annotated",
			RunE: func(cmd *cobra.Command, _ []string) error {
				out, err := effectiveYAML(a.cfg)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			RunE: func(cmd *cobra.Command, _ []string) error {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
				return err
			},
		},
		&cobra.Command{
			Use:   "set-token",
			Short: "Read the backend token from stdin and store it in the OS keychain",
			RunE: func(cmd *cobra.Command, _ []string) error {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no token on stdin")
				}
				return config.SaveToken(strings.TrimSpace(line))
			},
		},
		&cobra.Command{
			Use:   "delete-token",
			Short: "Remove the backend token from the OS keychain",
			RunE: func(*cobra.Command, []string) error {
				return config.DeleteToken()
			},
		},
	)
	return cmd
}

// effectiveYAML renders cfg as YAML with a line comment on every value an
// environment variable overrides.
func effectiveYAML(cfg config.AppConfig) (string, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return "", err
	}
	annotate(&doc, "")
	b, err := yaml.Marshal(&doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func annotate(n *yaml.Node, prefix string) {
	if n.Kind == yaml.DocumentNode {
		for _, c := range n.Content {
			annotate(c, prefix)
		}
		return
	}
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}
		val := n.Content[i+1]
		if env, ok := config.EnvOverrideFor(key); ok {
			val.LineComment = "from " + env
		}
		annotate(val, key)
	}
}
