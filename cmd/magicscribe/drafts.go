/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"magicscribe/internal/storage"
)

func (a *app) openDrafts(cmd *cobra.Command) (*storage.Store, error) {
	return storage.Open(cmd.Context(), a.cfg.General.DraftsDir)
}

func newDraftsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage locally saved chapter drafts",
	}
	cmd.AddCommand(
		newDraftsListCmd(a),
		newDraftsSaveCmd(a),
		newDraftsShowCmd(a),
		newDraftsSearchCmd(a),
		newDraftsHistoryCmd(a),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a draft and its history",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := a.openDrafts(cmd)
				if err != nil {
					return err
				}
				defer st.Close()
				return st.DeleteDraft(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "reindex",
			Short: "Rebuild the draft search index",
			RunE: func(cmd *cobra.Command, _ []string) error {
				st, err := a.openDrafts(cmd)
				if err != nil {
					return err
				}
				defer st.Close()
				return st.RebuildSearch(cmd.Context())
			},
		},
	)
	return cmd
}

func newDraftsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List drafts, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openDrafts(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			drafts, err := st.ListDrafts(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTITLE\tCHAPTER\tBYTES\tUPDATED")
			for _, d := range drafts {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", d.ID, d.Title, d.ChapterID, d.Bytes, d.UpdatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func newDraftsSaveCmd(a *app) *cobra.Command {
	var d storage.Draft
	var keep int
	cmd := &cobra.Command{
		Use:   "save [file|-]",
		Short: "Save text as a draft (new or --id) and snapshot it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, argOrEmpty(args))
			if err != nil {
				return err
			}
			st, err := a.openDrafts(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := cmd.Context()
			if d.ID != "" {
				if prev, err := st.LoadDraft(ctx, d.ID); err == nil {
					d.CreatedAt = prev.CreatedAt
					if d.Title == "" {
						d.Title = prev.Title
					}
					if d.ChapterID == "" {
						d.ChapterID = prev.ChapterID
					}
				}
			}
			d.Content = src
			saved, err := st.SaveDraft(ctx, d)
			if err != nil {
				return err
			}
			if err := st.SaveSnapshot(ctx, saved.ID, src, saved.UpdatedAt); err != nil {
				return err
			}
			if _, err := st.PruneSnapshots(ctx, saved.ID, keep); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&d.ID, "id", "", "update this draft instead of creating one")
	cmd.Flags().StringVar(&d.Title, "title", "", "draft title")
	cmd.Flags().StringVar(&d.ChapterID, "chapter", "", "backend chapter id the draft belongs to")
	cmd.Flags().IntVar(&keep, "keep", 50, "snapshots to keep")
	return cmd
}

func newDraftsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a draft's text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openDrafts(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			d, err := st.LoadDraft(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), d.Content)
			return err
		},
	}
}

func newDraftsSearchCmd(a *app) *cobra.Command {
	var q storage.SearchQuery
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over drafts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Text = argOrEmpty(args)
			st, err := a.openDrafts(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			res, err := st.SearchDrafts(cmd.Context(), q)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, r := range res {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.DraftID, r.Title, r.Snippet)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&q.Speaker, "speaker", "", "only drafts where this speaker talks")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "max results")
	return cmd
}

func newDraftsHistoryCmd(a *app) *cobra.Command {
	var restore int64
	var limit int
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "List snapshots of a draft, or restore one with --restore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openDrafts(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := cmd.Context()
			snaps, err := st.ListSnapshots(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if restore == 0 {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "SNAPSHOT\tTIME\tBYTES")
				for _, s := range snaps {
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\n", s.ID, s.TS.Local().Format(time.DateTime), len(s.Content))
				}
				return tw.Flush()
			}
			for _, s := range snaps {
				if s.ID != restore {
					continue
				}
				d, err := st.LoadDraft(ctx, args[0])
				if err != nil {
					return err
				}
				d.Content = s.Content
				if _, err := st.SaveDraft(ctx, d); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "restored snapshot %d\n", s.ID)
				return nil
			}
			return fmt.Errorf("snapshot %d not found among the last %d", restore, limit)
		},
	}
	cmd.Flags().Int64Var(&restore, "restore", 0, "snapshot id to restore")
	cmd.Flags().IntVar(&limit, "limit", 50, "snapshots to consider")
	return cmd
}
