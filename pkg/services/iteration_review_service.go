package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/repo"
)

// IterationReviewService applies the human-operator review dispositions of
// spec.md §3 (approved, rejected, improved_upon) to a COMPLETED iteration.
// This is separate from the Iteration Orchestrator's processing state
// machine: review happens strictly after an iteration reaches COMPLETED,
// and may be revised as an operator's judgment changes.
type IterationReviewService struct {
	iterations *repo.IterationRepo
	activity   *ActivityLogService
}

// NewIterationReviewService builds an IterationReviewService.
func NewIterationReviewService(iterations *repo.IterationRepo, activity *ActivityLogService) *IterationReviewService {
	return &IterationReviewService{iterations: iterations, activity: activity}
}

func isReviewDisposition(status config.IterationStatus) bool {
	switch status {
	case config.IterationApproved, config.IterationRejected, config.IterationImprovedUpon:
		return true
	default:
		return false
	}
}

// Review records an operator's disposition on agentID's iterationID.
func (s *IterationReviewService) Review(ctx context.Context, agentID, iterationID uuid.UUID, disposition string) error {
	status := config.IterationStatus(disposition)
	if !isReviewDisposition(status) {
		return NewValidationError("disposition", "must be one of approved, rejected, improved_upon")
	}

	if err := s.iterations.Review(ctx, iterationID, disposition); err != nil {
		if errors.Is(err, repo.ErrIterationNotFound) {
			return fmt.Errorf("%w: iteration not completed or not found", ErrNotFound)
		}
		return err
	}

	return s.activity.Record(ctx, agentID, "iteration_reviewed", map[string]any{
		"iteration_id": iterationID.String(),
		"disposition":  disposition,
	})
}
