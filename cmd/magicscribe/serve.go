/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"magicscribe/internal/backend"
	"magicscribe/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the preview server and render API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := server.Options{Addr: a.cfg.General.ServerAddr}
			if addr != "" {
				opts.Addr = addr
			}
			store, err := backend.OpenChapterStore(ctx, a.cfg.Backend.DatabaseURL)
			switch {
			case errors.Is(err, backend.ErrNoDatabase):
				a.log.Info("no database configured; chapter routes disabled")
			case err != nil:
				return err
			default:
				defer store.Close()
				opts.Chapters = store
			}

			srv, err := server.New(opts)
			if err != nil {
				return err
			}
			a.log.Info("preview server", slog.String("url", "http://"+opts.Addr+"/preview"))
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
