package orchestrator

import "errors"

// Sentinel errors for the Iteration Orchestrator's two operations (spec.md
// §4.1). Their string forms double as the fail_reason tag persisted on a
// FAILED iteration, so downstream consumers can branch on it without
// parsing free text.
var (
	// ErrAgentNotFound means the requested agent id does not exist.
	ErrAgentNotFound = errors.New("AgentNotFound")

	// ErrGenerationFailed means the LLM never produced an extractable
	// scanner or executor artifact, even after retries.
	ErrGenerationFailed = errors.New("GenerationFailed")

	// ErrSandboxFailed means the scanner or custom executor could not be
	// run to completion (process start failure, timeout, or crash).
	ErrSandboxFailed = errors.New("SandboxFailed")

	// ErrPersistenceFailed means a durable write failed partway through
	// the iteration.
	ErrPersistenceFailed = errors.New("PersistenceFailed")
)
