package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/config"
)

var buildCmd = &cobra.Command{
	Use:   "build <path>",
	Short: "Run the Graph Builder over a directory and save it to the configured store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := app.New(ctx, path, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Manager.Initialize(ctx, true); err != nil {
			return err
		}

		g := a.Manager.GetGraph()
		slog.Info("build complete", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())
		fmt.Printf("built graph: %d nodes, %d edges\n", g.NodeCount(), g.EdgeCount())
		return nil
	},
}
