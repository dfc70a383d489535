/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"magicscribe/internal/markup"
	"magicscribe/internal/render"
	"magicscribe/internal/richtext"
)

func newRenderCmd(_ *app) *cobra.Command {
	var format, colorMode string
	var width int
	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render markup as reader HTML, block JSON or a terminal preview",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, argOrEmpty(args))
			if err != nil {
				return err
			}
			blocks := render.RenderString(src)
			out := cmd.OutOrStdout()
			switch format {
			case "html":
				return render.HTML(out, blocks)
			case "json":
				return render.JSON(out, blocks)
			case "term":
				if width <= 0 {
					width = terminalWidth()
				}
				return render.Terminal(out, blocks, render.TermOptions{Width: width, Color: useColor(colorMode)})
			}
			return fmt.Errorf("unknown format %q (want html, json or term)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "term", "output format: html, json, term")
	cmd.Flags().StringVar(&colorMode, "color", "auto", "terminal colors: auto, always, never")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "wrap width for the terminal preview (default $COLUMNS or 80)")
	return cmd
}

// useColor resolves --color; auto means stdout is a terminal and NO_COLOR is unset.
func useColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if termenv.EnvNoColor() {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func terminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 20 {
		return n
	}
	return 80
}

func newConvertCmd(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert between stored text and editor HTML",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "load [file|-]",
			Short: "Stored text to editor HTML",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				src, err := readInput(cmd, argOrEmpty(args))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), richtext.FromStorage(src))
				return err
			},
		},
		&cobra.Command{
			Use:   "save [file|-]",
			Short: "Editor HTML to stored text",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				src, err := readInput(cmd, argOrEmpty(args))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), richtext.ToStorage(src))
				return err
			},
		},
	)
	return cmd
}

func newLintCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "lint [file|-]...",
		Short: "Report markup problems (line:col: code: message)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			total := 0
			report := map[string][]markup.Diagnostic{}
			for _, name := range args {
				src, err := readInput(cmd, name)
				if err != nil {
					return err
				}
				diags := markup.Lint(src)
				total += len(diags)
				if asJSON {
					report[name] = diags
					continue
				}
				for _, d := range diags {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", name, d)
				}
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			}
			a.log.Debug("lint finished", "files", len(args), "problems", total)
			if total > 0 {
				return fmt.Errorf("%d problem(s)", total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print diagnostics as JSON keyed by file")
	return cmd
}
