/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"magicscribe/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var ch export.Chapter
	var out, outDir, formats string
	cmd := &cobra.Command{
		Use:   "export [file|-]",
		Short: "Export a chapter as PDF, EPUB, HTML or JSON",
		Long: `Export renders the chapter and writes it in one or more formats.

  magicscribe export ch03.txt -o ch03.pdf
  magicscribe export ch03.txt --number 3 --title "The Gate" --formats pdf,epub --out-dir build/`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, argOrEmpty(args))
			if err != nil {
				return err
			}
			ch.Markup = src
			if out != "" {
				if err := export.ExportFile(ch, out); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			if outDir == "" {
				return errors.New("either --output or --out-dir is required")
			}
			paths, err := export.ExportAll(ch, outDir, splitList(formats))
			for _, p := range paths {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if err == nil {
				a.log.Info("chapter exported", "files", len(paths))
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "", "output file; the extension selects the format")
	f.StringVar(&outDir, "out-dir", "", "directory for --formats outputs")
	f.StringVar(&formats, "formats", "pdf,epub", "comma separated formats for --out-dir")
	f.StringVar(&ch.Title, "title", "", "chapter title")
	f.IntVar(&ch.Number, "number", 0, "chapter number")
	f.StringVar(&ch.Series, "series", "", "series name")
	f.StringVar(&ch.Author, "author", "", "author")
	f.StringVar(&ch.Language, "lang", "en", "content language (EPUB)")
	return cmd
}
