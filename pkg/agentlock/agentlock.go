// Package agentlock enforces the single-threaded-per-agent scheduling
// rule (spec.md §5): at most one iteration per agent may be in flight at
// any time, enforced in-process here and, for cross-process correctness,
// by the database-level advisory lock repo.IterationRepo.AllocateAndCreate
// already takes.
package agentlock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// pollInterval is how often Acquire retries a contended lock. Short
// enough that runContinuous doesn't stall visibly, long enough to not
// spin the CPU while waiting out another iteration.
const pollInterval = 50 * time.Millisecond

// ErrAlreadyRunning is returned by TryAcquire when the agent already has
// an iteration in flight.
var ErrAlreadyRunning = errors.New("agent already has an iteration in flight")

// Registry tracks one advisory lock per agent ID.
type Registry struct {
	mu    sync.Mutex
	inUse map[uuid.UUID]struct{}
}

// NewRegistry builds an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{inUse: make(map[uuid.UUID]struct{})}
}

// Release is returned by TryAcquire/Acquire and must be called exactly
// once, however the iteration finishes (success, failure, or panic).
type Release func()

// TryAcquire claims agentID's lock if free, returning ErrAlreadyRunning
// otherwise (used by runOnce, which must not block behind another
// in-flight iteration for the same agent).
func (r *Registry) TryAcquire(agentID uuid.UUID) (Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.inUse[agentID]; busy {
		return nil, ErrAlreadyRunning
	}
	r.inUse[agentID] = struct{}{}
	return r.release(agentID), nil
}

// Acquire blocks until agentID's lock is free or ctx is cancelled (used by
// runContinuous, which waits out the current iteration between polls
// rather than failing outright).
func (r *Registry) Acquire(ctx context.Context, agentID uuid.UUID) (Release, error) {
	for {
		release, err := r.TryAcquire(agentID)
		if err == nil {
			return release, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		// Wait pollInterval before retrying so a contended lock does not
		// turn into a tight spin.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (r *Registry) release(agentID uuid.UUID) Release {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.inUse, agentID)
	}
}
