// Package repo is the hand-written repository layer over the persistence
// store (spec.md §6): agents, iterations, knowledge entries, strategy
// versions, and the activity log.
package repo

import "errors"

var (
	// ErrAgentNotFound surfaces spec.md §7's AgentNotFound.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrIterationNotFound indicates no iteration matched the lookup.
	ErrIterationNotFound = errors.New("iteration not found")

	// ErrKnowledgeEntryNotFound indicates no knowledge entry matched the lookup.
	ErrKnowledgeEntryNotFound = errors.New("knowledge entry not found")

	// ErrStrategyVersionNotFound indicates no strategy version matched the lookup.
	ErrStrategyVersionNotFound = errors.New("strategy version not found")

	// ErrPersistenceFailed wraps a durable write-time failure (spec.md §7).
	ErrPersistenceFailed = errors.New("persistence operation failed")
)
