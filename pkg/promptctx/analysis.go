package promptctx

import (
	"context"
	"fmt"
	"strings"

	"github.com/stratlab/stratlab/pkg/models"
)

// analysisSchemaDescription pins the exact JSON shape GenerateAnalysis
// decodes into models.ExpertAnalysis (spec.md §4.8).
const analysisSchemaDescription = `Respond with a single JSON object, no prose before or after it, matching exactly:
{
  "overall_assessment": string,
  "pattern_quality": {"signal_clarity": string, "market_conditions": string, "edge_strength": string},
  "execution_analysis": {
    "template_comparison": string,
    "exit_timing_issues": [string],
    "stop_loss_effectiveness": string,
    "take_profit_effectiveness": string,
    "suggested_improvements": [string]
  },
  "recommendations": {"scanning": [string], "execution": [string], "risk_management": [string]}
}`

// AssembleAnalysis builds the system/user prompt pair for the end-of-iteration
// expert critique: the full per-template result table, the agent's
// identity, and its existing knowledge base (spec.md §4.8).
func (a *Assembler) AssembleAnalysis(ctx context.Context, agent *models.Agent, results *models.BacktestResults) (systemPrompt, userPrompt string, err error) {
	entries, err := a.knowledge.ListByAgent(ctx, agent.ID)
	if err != nil {
		return "", "", fmt.Errorf("load knowledge entries: %w", err)
	}

	sections := []string{
		formatAgentSection(agent),
		formatResultTable(results),
		formatKnowledgeSection(entries),
	}

	systemPrompt = "You are a trading strategy critic. " + analysisSchemaDescription
	userPrompt = strings.Join(sections, "\n\n") +
		"\n\nTASK: Critique this iteration's scanner and execution performance. " +
		"Identify what worked, what didn't, and concrete refinements for the next iteration."
	return systemPrompt, userPrompt, nil
}

func formatResultTable(results *models.BacktestResults) string {
	if results == nil {
		return "BACKTEST RESULTS:\n(none)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "BACKTEST RESULTS (%d signals):\n", results.SignalsFound)
	fmt.Fprintf(&b, "%-12s %6s %6s %6s %8s %10s %10s %8s %8s\n",
		"template", "trades", "win", "loss", "win_rate", "total_ret", "avg_ret", "pf", "sharpe")
	for _, m := range results.PerTemplate {
		writeMetricsRow(&b, m)
	}
	if results.CustomExecutor != nil {
		writeMetricsRow(&b, *results.CustomExecutor)
	}
	fmt.Fprintf(&b, "winning template: %s\n", results.WinningTemplate)
	return b.String()
}

func writeMetricsRow(b *strings.Builder, m models.TemplateMetrics) {
	fmt.Fprintf(b, "%-12s %6d %6d %6d %8.3f %10.4f %10.4f %8.3f %8.3f\n",
		m.Template, m.TotalTrades, m.Winners, m.Losers, m.WinRate, m.TotalReturn, m.AverageReturn, m.ProfitFactor, m.Sharpe)
}
