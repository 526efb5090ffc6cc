package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codectx/codectx/internal/api"
	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := app.New(ctx, rootFlags.root, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Manager.Initialize(ctx, false); err != nil {
			return err
		}

		slog.Info("starting API server", "port", cfg.ServerPort, "root", rootFlags.root)
		return api.Run(a, cfg.ServerPort)
	},
}
