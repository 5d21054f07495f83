package models

import (
	"time"

	"github.com/google/uuid"
)

// StrategyVersion is a promoted snapshot of a {scan, executor} pair
// (spec.md §3). At most one version per agent carries IsCurrent = true.
type StrategyVersion struct {
	ID      uuid.UUID
	AgentID uuid.UUID

	Version string

	ScanSource     string
	ExecutorSource string

	WinRate     float64
	Sharpe      float64
	TotalReturn float64

	IsCurrent     bool
	ParentVersion string
	ChangeSummary string

	CreatedAt time.Time
}

// ActivityLog is an append-only audit entry (spec.md §6).
type ActivityLog struct {
	ID        uuid.UUID
	AgentID   uuid.UUID
	EventType string
	Payload   map[string]any
	CreatedAt time.Time
}
