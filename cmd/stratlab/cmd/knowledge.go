package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var knowledgeKind string

var listKnowledgeCmd = &cobra.Command{
	Use:   "list-knowledge [agent-id]",
	Short: "List an agent's knowledge entries, optionally filtered by kind",
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

		entries, err := a.Knowledge.List(ctx, id, knowledgeKind)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%-15s tag=%-20s confidence=%.2f validated=%-3d %s\n",
				e.Kind, e.PatternTag, e.Confidence, e.TimesValidated, e.Insight)
		}
		return nil
	},
}

func init() {
	listKnowledgeCmd.Flags().StringVar(&knowledgeKind, "kind", "", "Filter by knowledge kind (INSIGHT, PARAMETER_PREF, PATTERN_RULE)")
}
