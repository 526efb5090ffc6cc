package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootFlags struct {
	root string
}

var rootCmd = &cobra.Command{
	Use:   "ctxctl",
	Short: "A local-only retrieval core that parses repositories into a code graph and assembles dependency-aware context for coding agents.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.root, "root", ".", "repository root to operate on")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
