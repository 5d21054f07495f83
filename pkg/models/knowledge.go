package models

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEntry is a durable lesson learned, referenced by future prompt
// assembly (spec.md §3, §4.8). Confidence is revised by the Knowledge
// Extractor's dedup/contradiction pass; entries are never deleted
// automatically.
type KnowledgeEntry struct {
	ID      uuid.UUID
	AgentID uuid.UUID

	Kind           string
	PatternTag     string
	Insight        string
	SupportingData map[string]any

	Confidence         float64
	LearnedFromIteration int
	TimesValidated       int
	LastValidated        time.Time

	CreatedAt time.Time
}
