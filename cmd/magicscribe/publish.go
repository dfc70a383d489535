/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"magicscribe/internal/backend"
	"magicscribe/internal/editor"
)

func newPublishCmd(a *app) *cobra.Command {
	var chapterID string
	var images []string
	cmd := &cobra.Command{
		Use:   "publish <draft-id>",
		Short: "Upload a draft's images and push its text to the backend chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openDrafts(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			d, err := st.LoadDraft(ctx, args[0])
			if err != nil {
				return err
			}
			if chapterID == "" {
				chapterID = d.ChapterID
			}
			if chapterID == "" {
				return errors.New("no chapter id: pass --chapter or save the draft with one")
			}

			sess := editor.NewSession(
				editor.WithMaxImageBytes(a.cfg.Upload.MaxBytes),
				editor.WithUploadConcurrency(a.cfg.Upload.Concurrency),
			)
			defer sess.Close()
			if err := sess.Load(d.Content); err != nil {
				return err
			}
			a.crash.Source, a.crash.DraftID, a.crash.Title = sess, d.ID, d.Title
			defer func() { a.crash.Source = nil }()

			for _, p := range images {
				data, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				name := filepath.Base(p)
				src, err := sess.AddImage(name, "", data)
				if err != nil {
					return err
				}
				if err := sess.InsertImage(src, strings.TrimSuffix(name, filepath.Ext(name))); err != nil {
					return err
				}
			}

			opts := []backend.ClientOption{backend.WithTimeout(a.cfg.Backend.Timeout())}
			if a.cfg.Backend.TLSInsecure {
				opts = append(opts, backend.WithInsecureTLS())
			}
			client := backend.NewClient(a.cfg.Backend.BaseURL, a.token, opts...)

			res, err := sess.Save(ctx, client)
			if err != nil {
				return err
			}
			for _, f := range res.Failures {
				a.log.Warn("image kept inline", slog.String("name", f.Name), slog.Any("err", f.Err))
			}

			// keep the local copy current even if the push fails
			d.Content, d.ChapterID = res.Markup, chapterID
			saved, err := st.SaveDraft(ctx, d)
			if err != nil {
				return err
			}
			if err := st.SaveSnapshot(ctx, saved.ID, saved.Content, saved.UpdatedAt); err != nil {
				return err
			}

			if err := client.UpdateChapterContent(ctx, chapterID, res.Markup); err != nil {
				if backend.IsNotFound(err) {
					return fmt.Errorf("chapter %s does not exist on %s", chapterID, a.cfg.Backend.BaseURL)
				}
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "published %s to chapter %s (%d uploaded, %d failed)\n",
				saved.ID, chapterID, len(res.Uploaded), len(res.Failures))
			return nil
		},
	}
	cmd.Flags().StringVar(&chapterID, "chapter", "", "backend chapter id (defaults to the draft's)")
	cmd.Flags().StringArrayVar(&images, "image", nil, "image file to append before publishing (repeatable)")
	return cmd
}

var _ editor.Uploader = (*backend.Client)(nil)
