package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stratlab/stratlab/pkg/config"
)

var forceGraduate bool

var graduateCmd = &cobra.Command{
	Use:   "graduate [agent-id]",
	Short: "Evaluate (or force) an agent's promotion to the next status",
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

		promoted, metrics, err := a.Graduation.Evaluate(ctx, id, forceGraduate)
		if err != nil {
			return err
		}
		if !promoted {
			fmt.Printf("not eligible for graduation (completed=%d win_rate=%.2f sharpe=%.2f); use --force to override\n",
				metrics.CompletedCount, metrics.WinRate, metrics.Sharpe)
			return nil
		}
		fmt.Printf("agent promoted (completed=%d win_rate=%.2f sharpe=%.2f total_return=%.2f)\n",
			metrics.CompletedCount, metrics.WinRate, metrics.Sharpe, metrics.TotalReturn)
		return nil
	},
}

var demoteToStatus string

var demoteCmd = &cobra.Command{
	Use:   "demote [agent-id]",
	Short: "Demote an agent to an earlier status (e.g. after a paper-trading regression)",
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
		if demoteToStatus == "" {
			demoteToStatus = string(config.AgentStatusLearning)
		}

		if err := a.Agents.ChangeStatus(ctx, id, demoteToStatus, true); err != nil {
			return err
		}
		if err := a.Activity.Record(ctx, id, "agent_demoted", map[string]any{"to_status": demoteToStatus}); err != nil {
			return err
		}
		fmt.Printf("agent demoted to %s\n", demoteToStatus)
		return nil
	},
}

func init() {
	graduateCmd.Flags().BoolVar(&forceGraduate, "force", false, "Bypass the graduation gate")
	demoteCmd.Flags().StringVar(&demoteToStatus, "to", "", "Status to demote into (default: learning)")
}
