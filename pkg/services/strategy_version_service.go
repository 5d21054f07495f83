package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
)

// StrategyVersionService manages the append-only history of an agent's
// promoted strategy versions (spec.md §3).
type StrategyVersionService struct {
	versions *repo.StrategyVersionRepo
}

// NewStrategyVersionService builds a StrategyVersionService over a StrategyVersionRepo.
func NewStrategyVersionService(versionRepo *repo.StrategyVersionRepo) *StrategyVersionService {
	return &StrategyVersionService{versions: versionRepo}
}

// Promote records a new current strategy version for an agent, demoting
// whatever version was previously current (spec.md §3, §8's one-current
// invariant).
func (s *StrategyVersionService) Promote(ctx context.Context, version *models.StrategyVersion) error {
	if version.AgentID == uuid.Nil {
		return NewValidationError("agent_id", "required")
	}
	if version.ScanSource == "" {
		return NewValidationError("scan_source", "required")
	}
	return s.versions.PromoteAsCurrent(ctx, version)
}

// Current returns an agent's current strategy version, if any.
func (s *StrategyVersionService) Current(ctx context.Context, agentID uuid.UUID) (*models.StrategyVersion, error) {
	return s.versions.GetCurrent(ctx, agentID)
}

// List returns an agent's full version history, newest first.
func (s *StrategyVersionService) List(ctx context.Context, agentID uuid.UUID) ([]*models.StrategyVersion, error) {
	return s.versions.ListByAgent(ctx, agentID)
}
