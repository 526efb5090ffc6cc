package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/bench"
	"github.com/codectx/codectx/internal/config"
)

var benchCmd = &cobra.Command{
	Use:   "bench <dataset.json>",
	Short: "Run the Benchmark Runner over a dataset and write a markdown report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := bench.LoadDataset(args[0])
		if err != nil {
			return err
		}

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

		report := bench.Run(ctx, a.Pipeline, ds)

		if err := os.MkdirAll(".benchmark-artifacts", 0o755); err != nil {
			return err
		}
		path := report.WritePath(time.Now().Format("20060102-150405"))
		if err := os.WriteFile(path, []byte(report.Render()), 0o644); err != nil {
			return err
		}

		fmt.Printf("wrote %s (pass rate %.1f%%, mean F1 %.3f)\n", path, report.PassRate*100, report.MeanF1)
		return nil
	},
}
