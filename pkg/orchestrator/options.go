package orchestrator

import (
	"time"

	"github.com/stratlab/stratlab/pkg/models"
)

// defaultIterationTimeout is RunOnceOptions.Timeout's default (spec.md §4.1).
const defaultIterationTimeout = 180 * time.Second

// defaultMinIterations is RunContinuousOptions.MinIterations's default.
const defaultMinIterations = 3

// RunOnceOptions controls a single iteration (spec.md §4.1).
type RunOnceOptions struct {
	// ManualGuidance, when set, is folded into the assembled prompt as an
	// operator-supplied steer for this iteration only.
	ManualGuidance string
	// Timeout bounds the whole iteration, generation through knowledge
	// update. Zero means defaultIterationTimeout.
	Timeout time.Duration
	// DiscoveryModeOverride, when non-nil, overrides the agent's stored
	// DiscoveryMode for this iteration only.
	DiscoveryModeOverride *bool
}

func (o RunOnceOptions) timeout() time.Duration {
	if o.Timeout <= 0 {
		return defaultIterationTimeout
	}
	return o.Timeout
}

// RunContinuousOptions controls a looped run of iterations (spec.md §4.1).
type RunContinuousOptions struct {
	// MaxIterations, when non-nil, caps the number of iterations attempted
	// (completed or failed) before the loop stops on its own.
	MaxIterations *int
	// MinIterations is the number of COMPLETED iterations required before
	// convergence is even checked. Zero means defaultMinIterations.
	MinIterations int
	// StopOnConvergence, when non-nil and false, disables the convergence
	// check entirely (the loop then only stops on MaxIterations or
	// cancellation). Nil means "stop on convergence" (spec.md §4.1 default).
	StopOnConvergence *bool

	// RunOnce carries through to every iteration in the loop.
	RunOnce RunOnceOptions
}

func (o RunContinuousOptions) minIterations() int {
	if o.MinIterations <= 0 {
		return defaultMinIterations
	}
	return o.MinIterations
}

func (o RunContinuousOptions) stopOnConvergence() bool {
	if o.StopOnConvergence == nil {
		return true
	}
	return *o.StopOnConvergence
}

// Event is one item of a RunContinuous stream: either a finished iteration
// or the error that ended the loop early (e.g. the agent could not be loaded
// or no iteration number could be allocated). A FAILED iteration is still
// delivered as Iteration, not Err — Err is reserved for conditions that end
// the stream itself. Lock errors are returned by RunContinuous directly, and
// context cancellation closes the stream without an Err event.
type Event struct {
	Iteration *models.Iteration
	Err       error
}
