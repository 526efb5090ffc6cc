package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/config"
	"github.com/codectx/codectx/internal/evaluator"
	"github.com/codectx/codectx/internal/pipeline"
)

var runFlags struct {
	targetFile  string
	groundTruth string
}

var runCmd = &cobra.Command{
	Use:   "run <text>",
	Short: "Run the full iterative Pipeline and print the trace plus final evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]

		var groundTruth []string
		if runFlags.groundTruth != "" {
			data, err := os.ReadFile(runFlags.groundTruth)
			if err != nil {
				return fmt.Errorf("reading ground truth file: %w", err)
			}
			if err := json.Unmarshal(data, &groundTruth); err != nil {
				return fmt.Errorf("parsing ground truth file (expected a JSON array of paths): %w", err)
			}
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

		result, err := a.Pipeline.Run(ctx, query, pipeline.Options{
			TargetFile:  runFlags.targetFile,
			GroundTruth: groundTruth,
			EvalConfig:  evaluator.Config{PrecisionThreshold: 0.5, RecallThreshold: 0.5},
		})
		if err != nil {
			return err
		}

		for _, entry := range result.Trace.Entries {
			fmt.Printf("[%s] %s (%s)\n", entry.Status, entry.Name, entry.Duration)
			if entry.Error != "" {
				fmt.Printf("  error: %s\n", entry.Error)
			}
		}
		fmt.Printf("\niterations: %d\n", result.Iterations)
		fmt.Printf("precision: %.2f recall: %.2f f1: %.2f coverage: %.2f pass: %v\n",
			result.Evaluation.Precision, result.Evaluation.Recall, result.Evaluation.F1,
			result.Evaluation.Coverage, result.Evaluation.Pass)
		if result.Context != nil {
			fmt.Println()
			fmt.Println(result.Context.Formatted)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlags.targetFile, "target", "", "repository-relative path to anchor the walk on")
	runCmd.Flags().StringVar(&runFlags.groundTruth, "ground-truth", "", "path to a JSON array of known-correct file paths")
}
