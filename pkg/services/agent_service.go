// Package services is the thin validate-then-persist layer between the
// CLI/API surfaces and pkg/repo: it owns input validation and the status
// transition rules, and otherwise delegates straight to the repositories.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
)

// backoffScheduleParser validates an Agent's optional resume-eligibility
// cron expression without hand-rolling a parser (spec.md §4.9's pause/
// resume bookkeeping). Standard five-field cron syntax, no seconds field.
var backoffScheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// AgentService manages agent lifecycle.
type AgentService struct {
	agents *repo.AgentRepo
}

// NewAgentService builds an AgentService over an AgentRepo.
func NewAgentService(agents *repo.AgentRepo) *AgentService {
	return &AgentService{agents: agents}
}

// CreateAgentRequest is the validated input to Create.
type CreateAgentRequest struct {
	Name          string
	Instructions  string
	Personality   models.Personality
	DiscoveryMode bool
	// BackoffSchedule is an optional standard cron expression; empty means
	// a paused agent only resumes on explicit operator action.
	BackoffSchedule string
}

// Create validates and persists a new agent, starting in status "learning"
// and active (spec.md §3).
func (s *AgentService) Create(ctx context.Context, req CreateAgentRequest) (*models.Agent, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewValidationError("name", "required")
	}
	if strings.TrimSpace(req.Instructions) == "" {
		return nil, NewValidationError("instructions", "required")
	}
	if !config.RiskTolerance(req.Personality.RiskTolerance).IsValid() {
		return nil, NewValidationError("personality.risk_tolerance", "unrecognized value")
	}
	if !config.TradingStyle(req.Personality.TradingStyle).IsValid() {
		return nil, NewValidationError("personality.trading_style", "unrecognized value")
	}
	if req.BackoffSchedule != "" {
		if _, err := backoffScheduleParser.Parse(req.BackoffSchedule); err != nil {
			return nil, NewValidationError("backoff_schedule", err.Error())
		}
	}

	agent := &models.Agent{
		Name:            req.Name,
		Instructions:    req.Instructions,
		Personality:     req.Personality,
		DiscoveryMode:   req.DiscoveryMode,
		Status:          string(config.AgentStatusLearning),
		Active:          true,
		BackoffSchedule: req.BackoffSchedule,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// Get fetches an agent by id.
func (s *AgentService) Get(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	agent, err := s.agents.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrAgentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return agent, nil
}

// List returns every agent, ordered by display counter.
func (s *AgentService) List(ctx context.Context) ([]*models.Agent, error) {
	return s.agents.List(ctx)
}

// SetActive toggles an agent's soft on/off switch, independent of its
// lifecycle status.
func (s *AgentService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.agents.SetActive(ctx, id, active)
}

// SetBackoffSchedule validates and persists an agent's resume-eligibility
// cron expression. An empty schedule disables automatic backoff.
func (s *AgentService) SetBackoffSchedule(ctx context.Context, id uuid.UUID, schedule string) error {
	if schedule != "" {
		if _, err := backoffScheduleParser.Parse(schedule); err != nil {
			return NewValidationError("backoff_schedule", err.Error())
		}
	}
	return s.agents.UpdateBackoffSchedule(ctx, id, schedule)
}

// ChangeStatus validates the requested transition against
// models.AllowedStatusTransition before persisting it (spec.md §4.9).
// force bypasses validation entirely (the graduation gate and the
// orchestrator's failure-streak pause both pass it) and must be recorded by
// the caller in the activity log.
func (s *AgentService) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus string, force bool) error {
	agent, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if !force && !models.AllowedStatusTransition(agent.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, agent.Status, newStatus)
	}

	return s.agents.UpdateStatus(ctx, id, newStatus)
}
