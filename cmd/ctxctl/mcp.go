package main

import (
	"context"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/config"
	"github.com/codectx/codectx/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server (stdio transport)",
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

		s := mcp.NewServer(a)

		slog.Info("starting MCP server (stdio)")
		return mcpserver.ServeStdio(s)
	},
}
