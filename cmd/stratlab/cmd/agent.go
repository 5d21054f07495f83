package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/services"
)

var (
	agentName            string
	agentInstructions    string
	agentDiscoveryMode   bool
	agentBackoffSchedule string
)

var createAgentCmd = &cobra.Command{
	Use:   "create-agent",
	Short: "Create a new learning agent from seed instructions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		agent, err := a.Agents.Create(ctx, services.CreateAgentRequest{
			Name:            agentName,
			Instructions:    agentInstructions,
			Personality:     inferPersonality(agentInstructions),
			DiscoveryMode:   agentDiscoveryMode,
			BackoffSchedule: agentBackoffSchedule,
		})
		if err != nil {
			return err
		}

		fmt.Printf("agent created: id=%s name=%s status=%s display=#%d\n",
			agent.ID, agent.Name, agent.Status, agent.DisplayCounter)
		return nil
	},
}

// inferPersonality is a minimal seed-instruction parser: it looks for the
// risk/style keywords spec.md §3 names and otherwise falls back to the
// moderate/swing_trader defaults. A real deployment would replace this
// with an LLM-assisted extraction; this CLI surface keeps it mechanical
// so agent creation never depends on a network call.
func inferPersonality(instructions string) models.Personality {
	p := models.Personality{
		RiskTolerance: string(config.RiskModerate),
		TradingStyle:  string(config.StyleSwingTrader),
	}
	lower := strings.ToLower(instructions)
	switch {
	case containsAny(lower, "conservative", "risk <= 2%", "low risk"):
		p.RiskTolerance = string(config.RiskConservative)
	case containsAny(lower, "aggressive", "high risk"):
		p.RiskTolerance = string(config.RiskAggressive)
	}
	switch {
	case containsAny(lower, "scalp"):
		p.TradingStyle = string(config.StyleScalper)
	case containsAny(lower, "5-min", "intraday", "day trad"):
		p.TradingStyle = string(config.StyleDayTrader)
	case containsAny(lower, "position", "multi-week", "multi-month"):
		p.TradingStyle = string(config.StylePositionTrader)
	}
	if containsAny(lower, "vwap") {
		p.PatternFocus = append(p.PatternFocus, "vwap_bounce")
	}
	return p
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var listAgentsCmd = &cobra.Command{
	Use:   "list-agents",
	Short: "List all agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		agents, err := a.Agents.List(ctx)
		if err != nil {
			return err
		}
		for _, agent := range agents {
			fmt.Printf("#%-4d %-36s %-24s status=%-14s active=%t discovery=%t\n",
				agent.DisplayCounter, agent.ID, agent.Name, agent.Status, agent.Active, agent.DiscoveryMode)
		}
		return nil
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause [agent-id]",
	Short: "Pause an agent (any status -> paused)",
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
		if err := a.Agents.ChangeStatus(ctx, id, string(config.AgentStatusPaused), false); err != nil {
			return err
		}
		if err := a.Activity.Record(ctx, id, "agent_paused_manual", nil); err != nil {
			return err
		}
		fmt.Println("agent paused")
		return nil
	},
}

var resumeTo string

var resumeCmd = &cobra.Command{
	Use:   "resume [agent-id]",
	Short: "Resume a paused agent to a prior status",
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
		if resumeTo == "" {
			resumeTo = string(config.AgentStatusLearning)
		}
		if err := a.Agents.ChangeStatus(ctx, id, resumeTo, true); err != nil {
			return err
		}
		if err := a.Activity.Record(ctx, id, "agent_resumed_manual", map[string]any{"to_status": resumeTo}); err != nil {
			return err
		}
		fmt.Printf("agent resumed to %s\n", resumeTo)
		return nil
	},
}

func init() {
	createAgentCmd.Flags().StringVar(&agentName, "name", "", "Agent name (required)")
	createAgentCmd.Flags().StringVar(&agentInstructions, "instructions", "", "Seed instructions (required)")
	createAgentCmd.Flags().BoolVar(&agentDiscoveryMode, "discovery-mode", false, "Restrict the agent to the built-in execution template library (no custom executor)")
	createAgentCmd.Flags().StringVar(&agentBackoffSchedule, "backoff-schedule", "", "Optional cron expression for paused-resume eligibility")
	_ = createAgentCmd.MarkFlagRequired("name")
	_ = createAgentCmd.MarkFlagRequired("instructions")

	resumeCmd.Flags().StringVar(&resumeTo, "to", "", "Status to resume into (default: learning)")
}
