// Command stratlab is the CLI operational surface over the learning
// laboratory's services and orchestrator (spec.md §6).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/stratlab/stratlab/cmd/stratlab/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd.Root.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		slog.Error("stratlab command failed", "error", err)
		os.Exit(1)
	}
}
