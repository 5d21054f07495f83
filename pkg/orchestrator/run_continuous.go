package orchestrator

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/config"
)

// RunContinuous loops executeIteration for agentID until convergence,
// MaxIterations, agent pause, or context cancellation (spec.md §4.1). It
// holds the per-agent lock for the whole run via Acquire, so a concurrent
// RunOnce/RunContinuous call for the same agent blocks rather than racing.
// Cancellation is only observed between iterations, never mid-iteration,
// matching spec.md §5's concurrency model.
func (o *Orchestrator) RunContinuous(ctx context.Context, agentID uuid.UUID, opts RunContinuousOptions) (<-chan Event, error) {
	release, err := o.locks.Acquire(ctx, agentID)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 1)
	go func() {
		defer close(events)
		defer release()
		o.runContinuousLoop(ctx, agentID, opts, events)
	}()
	return events, nil
}

func (o *Orchestrator) runContinuousLoop(ctx context.Context, agentID uuid.UUID, opts RunContinuousOptions, events chan<- Event) {
	completed := 0
	attempts := 0

	for {
		if opts.MaxIterations != nil && attempts >= *opts.MaxIterations {
			return
		}

		iterCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opts.RunOnce.timeout())
		iteration, err := o.executeIteration(iterCtx, agentID, opts.RunOnce)
		cancel()
		attempts++
		if err != nil && iteration == nil {
			events <- Event{Err: err}
			return
		}
		events <- Event{Iteration: iteration}

		if iteration.Status == string(config.IterationCompleted) {
			completed++
		}

		if o.failureCount(agentID) >= maxConsecutiveFailures(o.queueCfg.MaxConsecutiveFailures) {
			return
		}

		if opts.stopOnConvergence() && completed >= opts.minIterations() {
			converged, cErr := o.detector.Converged(ctx, agentID)
			if cErr != nil {
				o.log.Warn("convergence check failed, continuing loop", "agent_id", agentID, "error", cErr)
			} else if converged {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(pollDelay(o.queueCfg.PollInterval, o.queueCfg.PollIntervalJitter)):
		}
	}
}

func maxConsecutiveFailures(configured int) int {
	if configured <= 0 {
		return 5
	}
	return configured
}

func pollDelay(base, jitter time.Duration) time.Duration {
	if base <= 0 {
		base = 2 * time.Second
	}
	if jitter <= 0 {
		return base
	}
	return base + time.Duration(rand.Int64N(int64(jitter)))
}
