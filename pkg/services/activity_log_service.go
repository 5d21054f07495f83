package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
)

// ActivityLogService appends and reads the append-only audit trail
// (spec.md §6) — agent creation, status changes, forced graduation, and
// iteration lifecycle events.
type ActivityLogService struct {
	log *repo.ActivityLogRepo
}

// NewActivityLogService builds an ActivityLogService over an ActivityLogRepo.
func NewActivityLogService(logRepo *repo.ActivityLogRepo) *ActivityLogService {
	return &ActivityLogService{log: logRepo}
}

// Record appends one event. AgentID and EventType are required; ID and
// CreatedAt are assigned by the store.
func (s *ActivityLogService) Record(ctx context.Context, agentID uuid.UUID, eventType string, payload map[string]any) error {
	if agentID == uuid.Nil {
		return NewValidationError("agent_id", "required")
	}
	if eventType == "" {
		return NewValidationError("event_type", "required")
	}
	return s.log.Append(ctx, &models.ActivityLog{
		AgentID:   agentID,
		EventType: eventType,
		Payload:   payload,
	})
}

// List returns an agent's activity log, newest first.
func (s *ActivityLogService) List(ctx context.Context, agentID uuid.UUID) ([]*models.ActivityLog, error) {
	return s.log.ListByAgent(ctx, agentID)
}
