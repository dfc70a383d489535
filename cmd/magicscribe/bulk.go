/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"magicscribe/internal/backend"
	"magicscribe/internal/bulk"
)

func newBulkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Validate and import many chapters from a manifest",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "schema",
			Short: "Print the JSON schema of the manifest",
			RunE: func(cmd *cobra.Command, _ []string) error {
				data, err := bulk.SchemaJSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			},
		},
		&cobra.Command{
			Use:   "check <manifest>",
			Short: "Validate a manifest and lint every chapter",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := bulk.LoadManifest(args[0])
				if err != nil {
					return err
				}
				rep := bulk.Check(m)
				printReport(cmd.OutOrStdout(), rep)
				if rep.Failed() > 0 || rep.LintIssues() > 0 {
					return fmt.Errorf("%d unreadable chapter(s), %d lint problem(s)", rep.Failed(), rep.LintIssues())
				}
				return nil
			},
		},
		newBulkImportCmd(a),
	)
	return cmd
}

func newBulkImportCmd(a *app) *cobra.Command {
	var opt bulk.Options
	var dryRun, asJSON bool
	cmd := &cobra.Command{
		Use:   "import <manifest>",
		Short: "Import chapters into the chapter database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := bulk.LoadManifest(args[0])
			if err != nil {
				return err
			}
			var sink bulk.ChapterSink = &bulk.DryRun{}
			if !dryRun {
				store, err := backend.OpenChapterStore(cmd.Context(), a.cfg.Backend.DatabaseURL)
				if errors.Is(err, backend.ErrNoDatabase) {
					return errors.New("no chapter database configured (backend.database_url or MSC_PG_DSN); use --dry-run")
				}
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				sink = store
			}
			rep, err := bulk.Import(cmd.Context(), m, sink, opt)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				_ = enc.Encode(rep)
			} else {
				printReport(cmd.OutOrStdout(), rep)
			}
			if err != nil {
				return err
			}
			if rep.Failed() > 0 {
				return fmt.Errorf("%d chapter(s) failed", rep.Failed())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and lint without writing")
	cmd.Flags().BoolVar(&opt.Strict, "strict", false, "skip chapters that have lint problems")
	cmd.Flags().IntVar(&opt.Concurrency, "concurrency", 4, "parallel writes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, rep bulk.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SERIES\tNO\tTITLE\tLINT\tRESULT")
	for _, c := range rep.Chapters {
		result := "ok"
		switch {
		case c.Err != "":
			result = "error: " + c.Err
		case c.Skipped:
			result = "skipped"
		case c.ID != "":
			result = fmt.Sprintf("saved %s v%d", c.ID, c.Version)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", c.SeriesID, c.Number, c.Title, len(c.Diagnostics), result)
	}
	_ = tw.Flush()
	for _, c := range rep.Chapters {
		for _, d := range c.Diagnostics {
			_, _ = fmt.Fprintf(w, "%s#%d %s\n", c.SeriesID, c.Number, d)
		}
	}
}
