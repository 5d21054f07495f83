package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/orchestrator"
)

var (
	manualGuidance string
	maxIterations  int
	minIterations  int
)

var runOnceCmd = &cobra.Command{
	Use:   "run-once [agent-id]",
	Short: "Run exactly one iteration for an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid agent id: %w", err)
		}

		iter, err := a.Orchestrator.RunOnce(ctx, id, orchestrator.RunOnceOptions{ManualGuidance: manualGuidance})
		if err != nil {
			return err
		}
		printIteration(iter)
		return nil
	},
}

var runContinuousCmd = &cobra.Command{
	Use:   "run-continuous [agent-id]",
	Short: "Run iterations in a loop until convergence, a cap, or cancellation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid agent id: %w", err)
		}

		opts := orchestrator.RunContinuousOptions{
			MinIterations: minIterations,
			RunOnce:       orchestrator.RunOnceOptions{ManualGuidance: manualGuidance},
		}
		if maxIterations > 0 {
			opts.MaxIterations = &maxIterations
		}

		events, err := a.Orchestrator.RunContinuous(ctx, id, opts)
		if err != nil {
			return err
		}
		for ev := range events {
			if ev.Err != nil {
				return ev.Err
			}
			printIteration(ev.Iteration)
		}
		return nil
	},
}

func printIteration(iter *models.Iteration) {
	fmt.Printf("iteration #%d id=%s status=%s signals=%d win_rate=%.2f sharpe=%.2f winning_template=%s",
		iter.IterationNumber, iter.ID, iter.Status, iter.SignalsFound, iter.WinRate, iter.Sharpe, iter.WinningTemplate)
	if iter.FailReason != "" {
		fmt.Printf(" fail_reason=%s", iter.FailReason)
	}
	fmt.Println()
}

var listIterationsCmd = &cobra.Command{
	Use:   "list-iterations [agent-id]",
	Short: "List an agent's iterations, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid agent id: %w", err)
		}

		iters, err := a.Iterations.ListByAgent(ctx, id)
		if err != nil {
			return err
		}
		for _, iter := range iters {
			fmt.Printf("#%-4d id=%-36s status=%-18s win_rate=%.2f sharpe=%.2f winning_template=%-14s fail_reason=%s\n",
				iter.IterationNumber, iter.ID, iter.Status, iter.WinRate, iter.Sharpe, iter.WinningTemplate, iter.FailReason)
		}
		return nil
	},
}

var reviewDisposition string

var reviewIterationCmd = &cobra.Command{
	Use:   "review-iteration [agent-id] [iteration-id]",
	Short: "Apply a human review disposition to a completed iteration (approved, rejected, improved_upon)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		agentID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid agent id: %w", err)
		}
		iterationID, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid iteration id: %w", err)
		}

		if err := a.Reviews.Review(ctx, agentID, iterationID, reviewDisposition); err != nil {
			return err
		}
		fmt.Printf("iteration %s reviewed: %s\n", iterationID, reviewDisposition)
		return nil
	},
}

func init() {
	runOnceCmd.Flags().StringVar(&manualGuidance, "manual-guidance", "", "Operator-supplied steer for this iteration")

	runContinuousCmd.Flags().StringVar(&manualGuidance, "manual-guidance", "", "Operator-supplied steer applied to every iteration")
	runContinuousCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Stop after this many attempted iterations (0 = unbounded)")
	runContinuousCmd.Flags().IntVar(&minIterations, "min-iterations", 0, "Completed iterations required before convergence is checked (0 = default)")

	reviewIterationCmd.Flags().StringVar(&reviewDisposition, "disposition", "", "One of approved, rejected, improved_upon (required)")
	_ = reviewIterationCmd.MarkFlagRequired("disposition")
}
