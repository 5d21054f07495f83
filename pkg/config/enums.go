package config

// RiskTolerance is one leg of an Agent's personality, derived from its
// seed instructions at creation time.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskModerate     RiskTolerance = "moderate"
	RiskAggressive   RiskTolerance = "aggressive"
)

// IsValid reports whether r is one of the known risk tolerances.
func (r RiskTolerance) IsValid() bool {
	switch r {
	case RiskConservative, RiskModerate, RiskAggressive:
		return true
	default:
		return false
	}
}

// TradingStyle is the other leg of an Agent's personality.
type TradingStyle string

const (
	StyleScalper        TradingStyle = "scalper"
	StyleDayTrader      TradingStyle = "day_trader"
	StyleSwingTrader    TradingStyle = "swing_trader"
	StylePositionTrader TradingStyle = "position_trader"
)

// IsValid reports whether s is one of the known trading styles.
func (s TradingStyle) IsValid() bool {
	switch s {
	case StyleScalper, StyleDayTrader, StyleSwingTrader, StylePositionTrader:
		return true
	default:
		return false
	}
}

// AgentStatus is the lifecycle state of an Agent (spec.md §3, §4.9).
type AgentStatus string

const (
	AgentStatusLearning     AgentStatus = "learning"
	AgentStatusPaperTrading AgentStatus = "paper_trading"
	AgentStatusLiveTrading  AgentStatus = "live_trading"
	AgentStatusPaused       AgentStatus = "paused"
)

// IsValid reports whether s is one of the known agent statuses.
func (s AgentStatus) IsValid() bool {
	switch s {
	case AgentStatusLearning, AgentStatusPaperTrading, AgentStatusLiveTrading, AgentStatusPaused:
		return true
	default:
		return false
	}
}

// IterationStatus is the state-machine label on an Iteration row (spec.md §4.1).
type IterationStatus string

const (
	IterationNew               IterationStatus = "new"
	IterationScannerGenerated  IterationStatus = "scanner_generated"
	IterationExecutorGenerated IterationStatus = "executor_generated"
	IterationSignalsComputed   IterationStatus = "signals_computed"
	IterationBacktested        IterationStatus = "backtested"
	IterationAnalyzed          IterationStatus = "analyzed"
	IterationKnowledgeUpdated  IterationStatus = "knowledge_updated"
	IterationCompleted         IterationStatus = "completed"
	IterationFailed            IterationStatus = "failed"
	// Post-completion dispositions (spec.md §3, Iteration.status).
	IterationApproved     IterationStatus = "approved"
	IterationRejected     IterationStatus = "rejected"
	IterationImprovedUpon IterationStatus = "improved_upon"
)

// KnowledgeKind classifies a Knowledge Entry (spec.md §3, §4.8).
type KnowledgeKind string

const (
	KnowledgeInsight       KnowledgeKind = "INSIGHT"
	KnowledgeParameterPref KnowledgeKind = "PARAMETER_PREF"
	KnowledgePatternRule   KnowledgeKind = "PATTERN_RULE"
)

// IsValid reports whether k is one of the known knowledge kinds.
func (k KnowledgeKind) IsValid() bool {
	switch k {
	case KnowledgeInsight, KnowledgeParameterPref, KnowledgePatternRule:
		return true
	default:
		return false
	}
}
