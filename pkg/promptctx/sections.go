package promptctx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stratlab/stratlab/pkg/models"
)

// knowledgeCap bounds how many Knowledge Entries are injected per prompt
// (spec.md §4.2).
const knowledgeCap = 40

// rankKnowledge orders entries by confidence descending, then times
// validated descending, and truncates to knowledgeCap (spec.md §4.2). The
// input slice is not mutated.
func rankKnowledge(entries []*models.KnowledgeEntry) []*models.KnowledgeEntry {
	ranked := make([]*models.KnowledgeEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].TimesValidated > ranked[j].TimesValidated
	})

	if len(ranked) > knowledgeCap {
		ranked = ranked[:knowledgeCap]
	}
	return ranked
}

// formatKnowledgeSection renders the ranked, capped knowledge list as a
// numbered block grouped by kind.
func formatKnowledgeSection(entries []*models.KnowledgeEntry) string {
	ranked := rankKnowledge(entries)
	if len(ranked) == 0 {
		return "KNOWLEDGE BASE: empty — this is an early iteration with no accumulated insight yet."
	}

	var sb strings.Builder
	sb.WriteString("KNOWLEDGE BASE (ordered by confidence, then validation count; highest first):\n")
	for i, e := range ranked {
		tag := ""
		if e.PatternTag != "" {
			tag = fmt.Sprintf(" [%s]", e.PatternTag)
		}
		sb.WriteString(fmt.Sprintf("%d. (%s, confidence %.2f, validated %dx)%s %s\n",
			i+1, e.Kind, e.Confidence, e.TimesValidated, tag, e.Insight))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatAgentSection describes the agent's identity and personality.
func formatAgentSection(agent *models.Agent) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("AGENT: %s\n", agent.Name))
	sb.WriteString(fmt.Sprintf("Instructions: %s\n", agent.Instructions))
	sb.WriteString(fmt.Sprintf("Risk tolerance: %s | Trading style: %s\n",
		agent.Personality.RiskTolerance, agent.Personality.TradingStyle))
	if len(agent.Personality.PatternFocus) > 0 {
		sb.WriteString(fmt.Sprintf("Pattern focus: %s\n", strings.Join(agent.Personality.PatternFocus, ", ")))
	}
	if len(agent.Personality.MarketConditions) > 0 {
		sb.WriteString(fmt.Sprintf("Preferred market conditions: %s\n", strings.Join(agent.Personality.MarketConditions, ", ")))
	}
	if agent.DiscoveryMode {
		sb.WriteString("Discovery mode is ON: execution is handled entirely by the built-in template library; do not author an executor.\n")
	} else {
		sb.WriteString("Discovery mode is OFF: once a prior iteration exists you may also author a custom executor that competes against the built-in execution template library.\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatPreviousIterationSection summarizes the last completed iteration,
// or reports that none exists yet.
func formatPreviousIterationSection(prev *models.Iteration) string {
	if prev == nil {
		return "PREVIOUS ITERATION: none — this is the agent's first iteration."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("PREVIOUS ITERATION (#%d):\n", prev.IterationNumber))
	sb.WriteString(fmt.Sprintf("Signals found: %d | Winning template: %s\n", prev.SignalsFound, prev.WinningTemplate))
	sb.WriteString(fmt.Sprintf("Win rate: %.2f | Sharpe: %.2f | Total return: %.2f\n",
		prev.WinRate, prev.Sharpe, prev.TotalReturn))

	if prev.BacktestResults != nil && len(prev.BacktestResults.PerTemplate) > 0 {
		sb.WriteString(formatResultTable(prev.BacktestResults))
		sb.WriteString("\n")
	}

	sb.WriteString("Previous scanner source:\n```\n")
	sb.WriteString(prev.ScanSource)
	sb.WriteString("\n```\n")

	if prev.ExecutorSource != "" {
		sb.WriteString("Previous executor source:\n```\n")
		sb.WriteString(prev.ExecutorSource)
		sb.WriteString("\n```\n")
	}

	if prev.ExpertAnalysis != nil {
		sb.WriteString(fmt.Sprintf("Prior expert assessment: %s\n", prev.ExpertAnalysis.OverallAssessment))
	}
	if len(prev.RefinementsSuggested) > 0 {
		sb.WriteString("Refinements suggested:\n")
		for _, r := range prev.RefinementsSuggested {
			sb.WriteString(fmt.Sprintf("- %s\n", r))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// formatManualGuidanceSection demarcates operator guidance and instructs
// the model to prioritise it over learned knowledge (spec.md §4.2). Returns
// "" when there is no guidance for this iteration.
func formatManualGuidanceSection(guidance string) string {
	if strings.TrimSpace(guidance) == "" {
		return ""
	}
	return "=== MANUAL GUIDANCE FOR THIS ITERATION (PRIORITISE OVER KNOWLEDGE BASE) ===\n" +
		guidance +
		"\n=== END MANUAL GUIDANCE ==="
}
