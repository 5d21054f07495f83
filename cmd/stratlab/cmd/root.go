// Package cmd implements the stratlab CLI: thin Cobra wrappers over
// pkg/services and pkg/orchestrator (spec.md §6's operational surface),
// mirroring cmd/tarsy/main.go's config-dir flag and .env loading.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/stratlab/stratlab/internal/app"
)

var (
	configDir  string
	llmProvider string
)

// Root is the stratlab CLI's root command.
var Root = &cobra.Command{
	Use:   "stratlab",
	Short: "Autonomous trading-strategy learning laboratory",
	Long:  "stratlab drives agents that author, backtest, and refine trading strategies through an LLM-critiqued learning loop.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envPath := filepath.Join(configDir, ".env")
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
		}
	},
}

func init() {
	Root.PersistentFlags().StringVar(&configDir, "config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	Root.PersistentFlags().StringVar(&llmProvider, "llm-provider", getEnv("LLM_PROVIDER", "default"), "Name of the LLM provider to use (see stratlab.yaml)")

	Root.AddCommand(createAgentCmd)
	Root.AddCommand(listAgentsCmd)
	Root.AddCommand(pauseCmd)
	Root.AddCommand(resumeCmd)
	Root.AddCommand(runOnceCmd)
	Root.AddCommand(runContinuousCmd)
	Root.AddCommand(listIterationsCmd)
	Root.AddCommand(reviewIterationCmd)
	Root.AddCommand(listKnowledgeCmd)
	Root.AddCommand(graduateCmd)
	Root.AddCommand(demoteCmd)
	Root.AddCommand(listVersionsCmd)
	Root.AddCommand(serveCmd)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// Execute runs the CLI.
func Execute() error {
	return Root.Execute()
}

// bootstrap builds the shared App for a single CLI invocation.
func bootstrap(ctx context.Context) (*app.App, error) {
	a, err := app.Bootstrap(ctx, configDir, llmProvider)
	if err != nil {
		return nil, fmt.Errorf("bootstrap stratlab: %w", err)
	}
	return a, nil
}
