package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var listVersionsCmd = &cobra.Command{
	Use:   "list-versions [agent-id]",
	Short: "List an agent's promoted strategy versions, newest first",
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

		versions, err := a.Versions.List(ctx, id)
		if err != nil {
			return err
		}
		for _, v := range versions {
			current := ""
			if v.IsCurrent {
				current = " (current)"
			}
			fmt.Printf("%-12s win_rate=%.2f sharpe=%.2f total_return=%.2f%s\n",
				v.Version, v.WinRate, v.Sharpe, v.TotalReturn, current)
		}
		return nil
	},
}
