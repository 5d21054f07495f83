package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/convergence"
	"github.com/stratlab/stratlab/pkg/slack"
)

// GraduationService evaluates and applies the learning -> paper_trading ->
// live_trading transitions of spec.md §4.9.
type GraduationService struct {
	agents   *AgentService
	activity *ActivityLogService
	detector *convergence.Detector
	notifier *slack.Service
}

// NewGraduationService builds a GraduationService. notifier may be nil.
func NewGraduationService(agents *AgentService, activity *ActivityLogService, detector *convergence.Detector, notifier *slack.Service) *GraduationService {
	return &GraduationService{agents: agents, activity: activity, detector: detector, notifier: notifier}
}

// nextStatus is the one forward hop a graduation check may apply; there is
// no single target for every status, so the caller's agent state decides.
func nextStatus(current string) (string, bool) {
	switch config.AgentStatus(current) {
	case config.AgentStatusLearning:
		return string(config.AgentStatusPaperTrading), true
	case config.AgentStatusPaperTrading:
		return string(config.AgentStatusLiveTrading), true
	default:
		return "", false
	}
}

// Evaluate checks agentID against the graduation gate (or its CEL policy
// override) and, if eligible, promotes it one status and notifies Slack.
// force bypasses the gate's decision entirely (spec.md §4.9's documented
// override) but still runs through the same promotion/notification path.
func (g *GraduationService) Evaluate(ctx context.Context, agentID uuid.UUID, force bool) (promoted bool, metrics convergence.GraduationMetrics, err error) {
	agent, err := g.agents.Get(ctx, agentID)
	if err != nil {
		return false, convergence.GraduationMetrics{}, err
	}

	to, hasNext := nextStatus(agent.Status)
	if !hasNext {
		return false, convergence.GraduationMetrics{}, nil
	}

	eligible, metrics, err := g.detector.Graduable(ctx, agentID)
	if err != nil {
		return false, metrics, fmt.Errorf("evaluate graduation gate: %w", err)
	}
	if !eligible && !force {
		return false, metrics, nil
	}

	if err := g.agents.ChangeStatus(ctx, agentID, to, true); err != nil {
		return false, metrics, fmt.Errorf("promote agent: %w", err)
	}

	payload := map[string]any{
		"from_status":  agent.Status,
		"to_status":    to,
		"forced":       force,
		"win_rate":     metrics.WinRate,
		"sharpe":       metrics.Sharpe,
		"total_return": metrics.TotalReturn,
	}
	if force {
		_ = g.activity.Record(ctx, agentID, "graduation_forced", payload)
	} else {
		_ = g.activity.Record(ctx, agentID, "graduation_granted", payload)
	}

	g.notifier.NotifyGraduated(ctx, slack.GraduationInput{
		AgentID:     agentID.String(),
		AgentName:   agent.Name,
		FromStatus:  agent.Status,
		ToStatus:    to,
		Forced:      force,
		WinRate:     metrics.WinRate,
		Sharpe:      metrics.Sharpe,
		TotalReturn: metrics.TotalReturn,
	})

	return true, metrics, nil
}
