package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/config"
	"github.com/codectx/codectx/internal/resolver"
	"github.com/codectx/codectx/internal/retriever"
)

var queryFlags struct {
	targetFile string
	tokens     int
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Resolve targets and build dependency-aware context for a query, once, with no evaluation loop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]

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

		g := a.Manager.GetGraph()
		res := resolver.New(ctx, g, a.Embedder, a.CrossEncoder)
		resolution, err := res.Resolve(ctx, query, resolver.Options{})
		if err != nil {
			return err
		}

		tokens := queryFlags.tokens
		if tokens <= 0 {
			tokens = cfg.MaxContextTokens
		}

		retr := retriever.New(g, res, a.Embedder)
		ctxResult, err := retr.Build(ctx, query, queryFlags.targetFile, tokens, retriever.Options{}, resolution)
		if err != nil {
			return err
		}

		fmt.Println(ctxResult.Formatted)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryFlags.targetFile, "target", "", "repository-relative path to anchor the walk on")
	queryCmd.Flags().IntVar(&queryFlags.tokens, "tokens", 0, "token budget (default: MAX_CONTEXT_TOKENS)")
}
