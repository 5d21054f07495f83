// Package models defines the persistent data model of the learning
// laboratory: agents, iterations, knowledge entries, and strategy
// versions (spec.md §3).
package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskTolerance, TradingStyle, AgentStatus, KnowledgeKind, and the
// execution-template tags live in pkg/config — they are configuration-time
// enumerations, not storage concerns. The model types hold them as plain
// strings.

// Personality is derived once, at agent creation, by parsing the seed
// instructions; it is thereafter changed only by explicit update
// (spec.md §3).
type Personality struct {
	RiskTolerance    string   `json:"risk_tolerance"`
	TradingStyle     string   `json:"trading_style"`
	PatternFocus     []string `json:"pattern_focus"`
	MarketConditions []string `json:"market_conditions"`
}

// Agent is the persistent identity of a strategy-evolving entity.
type Agent struct {
	ID           uuid.UUID
	Name         string
	Instructions string
	Personality  Personality
	// DiscoveryMode, when true, keeps the agent on the built-in execution
	// template library; when false, the agent may also author a custom
	// executor once a prior iteration exists.
	DiscoveryMode bool
	Status        string
	Active        bool
	// BackoffSchedule is an optional standard cron expression naming when a
	// paused agent becomes eligible for resume consideration again. Empty
	// means no automatic backoff — resume is manual only.
	BackoffSchedule string
	// DisplayCounter is a monotonic, human-facing ordinal assigned at
	// creation (e.g. "Agent #14"); it never changes.
	DisplayCounter int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AllowedStatusTransition reports whether an agent may move from `from` to
// `to` (spec.md §4.9). Status transitions outside this table fail with
// config.ErrInvalidValue-style sentinel errors raised by the caller.
func AllowedStatusTransition(from, to string) bool {
	if from == to {
		return false
	}
	switch {
	case to == "paused":
		return true // any -> paused
	case from == "paused":
		return true // paused -> prior-state, caller supplies the prior state
	case from == "learning" && to == "paper_trading":
		return true
	case from == "paper_trading" && to == "live_trading":
		return true
	default:
		return false
	}
}
