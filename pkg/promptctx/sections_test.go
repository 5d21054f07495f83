package promptctx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratlab/stratlab/pkg/models"
)

func TestRankKnowledge(t *testing.T) {
	entries := []*models.KnowledgeEntry{
		{Insight: "low confidence", Confidence: 0.2, TimesValidated: 10},
		{Insight: "high confidence", Confidence: 0.9, TimesValidated: 1},
		{Insight: "tied confidence more validated", Confidence: 0.5, TimesValidated: 5},
		{Insight: "tied confidence less validated", Confidence: 0.5, TimesValidated: 2},
	}

	ranked := rankKnowledge(entries)
	assert.Equal(t, "high confidence", ranked[0].Insight)
	assert.Equal(t, "tied confidence more validated", ranked[1].Insight)
	assert.Equal(t, "tied confidence less validated", ranked[2].Insight)
	assert.Equal(t, "low confidence", ranked[3].Insight)

	assert.Equal(t, "low confidence", entries[0].Insight, "input slice must not be reordered in place")
}

func TestRankKnowledge_TruncatesToCap(t *testing.T) {
	entries := make([]*models.KnowledgeEntry, knowledgeCap+10)
	for i := range entries {
		entries[i] = &models.KnowledgeEntry{Confidence: float64(i)}
	}
	assert.Len(t, rankKnowledge(entries), knowledgeCap)
}

func TestFormatKnowledgeSection_Empty(t *testing.T) {
	section := formatKnowledgeSection(nil)
	assert.Contains(t, section, "empty")
}

func TestFormatKnowledgeSection_NumbersAndTags(t *testing.T) {
	entries := []*models.KnowledgeEntry{
		{Kind: "INSIGHT", PatternTag: "vwap_bounce", Confidence: 0.8, TimesValidated: 3, Insight: "works well mid-morning"},
	}
	section := formatKnowledgeSection(entries)
	assert.Contains(t, section, "1. (INSIGHT, confidence 0.80, validated 3x) [vwap_bounce] works well mid-morning")
}

func TestFormatAgentSection(t *testing.T) {
	agent := &models.Agent{
		Name:         "vwap-agent",
		Instructions: "find vwap bounces",
		Personality: models.Personality{
			RiskTolerance:    "conservative",
			TradingStyle:     "day_trader",
			PatternFocus:     []string{"vwap_bounce"},
			MarketConditions: []string{"trending"},
		},
		DiscoveryMode: true,
	}
	section := formatAgentSection(agent)
	assert.Contains(t, section, "AGENT: vwap-agent")
	assert.Contains(t, section, "vwap_bounce")
	assert.Contains(t, section, "trending")
	assert.Contains(t, section, "Discovery mode is ON")
}

func TestFormatAgentSection_DiscoveryModeOff(t *testing.T) {
	agent := &models.Agent{Name: "a", Instructions: "i"}
	assert.Contains(t, formatAgentSection(agent), "Discovery mode is OFF")
}

func TestFormatPreviousIterationSection_NoPrevious(t *testing.T) {
	assert.Contains(t, formatPreviousIterationSection(nil), "none")
}

func TestFormatPreviousIterationSection_IncludesSourcesAndRefinements(t *testing.T) {
	prev := &models.Iteration{
		IterationNumber:      3,
		SignalsFound:         12,
		WinningTemplate:      "atr_adaptive",
		WinRate:              0.6,
		Sharpe:               1.1,
		TotalReturn:          250,
		ScanSource:           "def scan(): ...",
		ExecutorSource:       "def execute(): ...",
		RefinementsSuggested: []string{"widen stop on atr_adaptive"},
		ExpertAnalysis:       &models.ExpertAnalysis{OverallAssessment: "promising but thin sample"},
		BacktestResults: &models.BacktestResults{
			SignalsFound: 12,
			PerTemplate: []models.TemplateMetrics{
				{Template: "conservative", TotalTrades: 10, Winners: 6, Losers: 4, WinRate: 0.6, ProfitFactor: 1.4},
				{Template: "atr_adaptive", TotalTrades: 10, Winners: 7, Losers: 3, WinRate: 0.7, ProfitFactor: 1.9},
			},
			WinningTemplate: "atr_adaptive",
		},
	}
	section := formatPreviousIterationSection(prev)
	assert.True(t, strings.Contains(section, "def scan(): ..."))
	assert.True(t, strings.Contains(section, "def execute(): ..."))
	assert.True(t, strings.Contains(section, "widen stop on atr_adaptive"))
	assert.True(t, strings.Contains(section, "promising but thin sample"))
	assert.Contains(t, section, "conservative", "per-template backtest table must be included")
	assert.Contains(t, section, "atr_adaptive")
	assert.Contains(t, section, "BACKTEST RESULTS")
}

func TestFormatManualGuidanceSection(t *testing.T) {
	t.Run("empty guidance yields empty section", func(t *testing.T) {
		assert.Equal(t, "", formatManualGuidanceSection("   "))
	})

	t.Run("non-empty guidance is fenced and labeled", func(t *testing.T) {
		section := formatManualGuidanceSection("focus on mega-cap tickers only")
		assert.Contains(t, section, "MANUAL GUIDANCE")
		assert.Contains(t, section, "focus on mega-cap tickers only")
		assert.Contains(t, section, "PRIORITISE OVER KNOWLEDGE BASE")
	})
}
