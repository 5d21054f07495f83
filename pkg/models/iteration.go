package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Signal is a candidate setup emitted by a scanner (spec.md GLOSSARY).
// Unknown keys surfaced by the scanner's JSON are retained verbatim in
// Extra so downstream templates and analysis never silently drop data.
type Signal struct {
	Ticker    string         `json:"ticker"`
	Timestamp string         `json:"timestamp"`
	Side      string         `json:"side,omitempty"`
	Extra     map[string]any `json:"-"`
}

// signalAlias breaks MarshalJSON/UnmarshalJSON's recursion into Signal's
// own field tags.
type signalAlias Signal

// MarshalJSON flattens Extra back into the top-level object so a Signal
// round-trips into the same shape a scanner emitted it in.
func (s Signal) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for k, v := range s.Extra {
		out[k] = v
	}
	out["ticker"] = s.Ticker
	out["timestamp"] = s.Timestamp
	if s.Side != "" {
		out["side"] = s.Side
	}
	return json.Marshal(out)
}

// UnmarshalJSON inverts MarshalJSON: known keys populate their fields,
// everything else lands in Extra.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var alias signalAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*s = Signal(alias)

	s.Extra = map[string]any{}
	for k, v := range raw {
		switch k {
		case "ticker", "timestamp", "side":
		default:
			s.Extra[k] = v
		}
	}
	return nil
}

// Trade is the result of applying an execution template (or custom
// executor) to a Signal (spec.md §4.6).
type Trade struct {
	Ticker         string    `json:"ticker"`
	Side           string    `json:"side"`
	EntryTimestamp time.Time `json:"entry_timestamp"`
	ExitTimestamp  time.Time `json:"exit_timestamp"`
	EntryPrice     float64   `json:"entry_price"`
	ExitPrice      float64   `json:"exit_price"`
	Quantity       int       `json:"quantity"`
	PnL            float64   `json:"pnl"`
	PnLPercent     float64   `json:"pnl_percent"`
	Template       string    `json:"template"`
}

// TemplateMetrics is the per-template row in a backtest result table
// (spec.md §4.7).
type TemplateMetrics struct {
	Template      string  `json:"template"`
	TotalTrades   int     `json:"total_trades"`
	Winners       int     `json:"winners"`
	Losers        int     `json:"losers"`
	WinRate       float64 `json:"win_rate"`
	TotalReturn   float64 `json:"total_return"`
	AverageReturn float64 `json:"average_return"`
	ProfitFactor  float64 `json:"profit_factor"`
	Sharpe        float64 `json:"sharpe"`
}

// BacktestResults is the structured object persisted on an iteration row
// (spec.md §4.7, §6 — stored as a JSON blob column).
type BacktestResults struct {
	SignalsFound    int               `json:"signals_found"`
	PerTemplate     []TemplateMetrics `json:"per_template"`
	CustomExecutor  *TemplateMetrics  `json:"custom_executor,omitempty"`
	WinningTemplate string            `json:"winning_template"`
}

// PatternQuality is a sub-object of ExpertAnalysis (spec.md §4.8).
type PatternQuality struct {
	SignalClarity    string `json:"signal_clarity"`
	MarketConditions string `json:"market_conditions"`
	EdgeStrength     string `json:"edge_strength"`
}

// ExecutionAnalysis is a sub-object of ExpertAnalysis (spec.md §4.8).
type ExecutionAnalysis struct {
	TemplateComparison       string   `json:"template_comparison"`
	ExitTimingIssues         []string `json:"exit_timing_issues"`
	StopLossEffectiveness    string   `json:"stop_loss_effectiveness"`
	TakeProfitEffectiveness  string   `json:"take_profit_effectiveness"`
	SuggestedImprovements    []string `json:"suggested_improvements"`
}

// Recommendations is a sub-object of ExpertAnalysis (spec.md §4.8).
type Recommendations struct {
	Scanning       []string `json:"scanning"`
	Execution      []string `json:"execution"`
	RiskManagement []string `json:"risk_management"`
}

// ExpertAnalysis is the fixed-schema structured critique requested from
// the LLM at the end of an iteration (spec.md §4.8).
type ExpertAnalysis struct {
	OverallAssessment  string            `json:"overall_assessment"`
	PatternQuality     PatternQuality    `json:"pattern_quality"`
	ExecutionAnalysis  ExecutionAnalysis `json:"execution_analysis"`
	Recommendations    Recommendations   `json:"recommendations"`
}

// Iteration is the atomic, immutable-once-recorded unit of learning
// (spec.md §3).
type Iteration struct {
	ID              uuid.UUID
	AgentID         uuid.UUID
	IterationNumber int

	ScanSource     string
	ExecutorSource string
	ScanPrompt     string
	ExecutionPrompt string
	ManualGuidance string

	SignalsFound int

	BacktestResults *BacktestResults
	WinRate         float64
	Sharpe          float64
	TotalReturn     float64
	WinningTemplate string

	ExpertAnalysis      *ExpertAnalysis
	RefinementsSuggested []string

	Status    string
	FailReason string

	CreatedAt time.Time
}
