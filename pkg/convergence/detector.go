package convergence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
)

// convergenceWindow (K in spec.md §4.9) and graduationWindow (the gate's
// "over last 10") are the two completed-iteration windows the detector reads.
const (
	convergenceWindow            = 5
	graduationWindow             = 10
	graduationMinTotal           = 20
	highConfidenceThreshold      = 0.7
	recentIterationsForKnowledge = 3
)

const (
	// WinRateThreshold, SharpeThreshold are the graduation gate's averages
	// over graduationWindow (spec.md §4.9).
	WinRateThreshold = 0.55
	SharpeThreshold  = 1.0
)

// Detector evaluates convergence and graduation over an agent's iteration
// and knowledge history (spec.md §4.9).
type Detector struct {
	iterations *repo.IterationRepo
	knowledge  *repo.KnowledgeRepo
	policy     *celPolicy
}

// New builds a Detector. policyExpr, if non-empty, overrides the built-in
// graduation predicate with a compiled CEL expression evaluated against
// `metrics.*` (config.GraduationConfig.PolicyExpr, grounded on
// vishprometa/agent-warden's internal/policy.CELEvaluator).
func New(iterationRepo *repo.IterationRepo, knowledgeRepo *repo.KnowledgeRepo, policyExpr string) (*Detector, error) {
	var policy *celPolicy
	if policyExpr != "" {
		p, err := newCELPolicy(policyExpr)
		if err != nil {
			return nil, fmt.Errorf("compile graduation policy: %w", err)
		}
		policy = p
	}
	return &Detector{iterations: iterationRepo, knowledge: knowledgeRepo, policy: policy}, nil
}

// Converged implements spec.md §4.9's stopping condition over the last K=5
// completed iterations. Fewer than 5 completed iterations never converges.
func (d *Detector) Converged(ctx context.Context, agentID uuid.UUID) (bool, error) {
	window, err := d.iterations.LastNCompleted(ctx, agentID, convergenceWindow)
	if err != nil {
		return false, fmt.Errorf("load convergence window: %w", err)
	}
	if len(window) < convergenceWindow {
		return false, nil
	}

	if winningTemplateChanges(window) > 1 {
		return false, nil
	}
	if sharpeStdDev(window) > 0.25 {
		return false, nil
	}

	fromIteration := window[len(window)-recentIterationsForKnowledge].IterationNumber
	count, err := d.knowledge.CountHighConfidenceSince(ctx, agentID, highConfidenceThreshold, fromIteration)
	if err != nil {
		return false, fmt.Errorf("count recent high-confidence knowledge: %w", err)
	}
	return count == 0, nil
}

// Graduable reports whether agentID is eligible to graduate learning →
// paper_trading, either by the built-in gate or by a compiled CEL override,
// and returns the metrics snapshot the decision was made against (spec.md
// §4.9). A caller that sets force bypasses this decision entirely; Graduable
// itself never sees the force flag — it only evaluates the policy.
func (d *Detector) Graduable(ctx context.Context, agentID uuid.UUID) (bool, GraduationMetrics, error) {
	completedCount, err := d.iterations.CountCompleted(ctx, agentID)
	if err != nil {
		return false, GraduationMetrics{}, fmt.Errorf("count completed iterations: %w", err)
	}

	last10, err := d.iterations.LastNCompleted(ctx, agentID, graduationWindow)
	if err != nil {
		return false, GraduationMetrics{}, fmt.Errorf("load graduation window: %w", err)
	}
	metrics := BuildGraduationMetrics(last10, completedCount)

	if d.policy != nil {
		ok, err := d.policy.evaluate(metrics)
		return ok, metrics, err
	}

	eligible := completedCount >= graduationMinTotal &&
		metrics.WinRate >= WinRateThreshold &&
		metrics.Sharpe >= SharpeThreshold &&
		metrics.TotalReturn > 0
	return eligible, metrics, nil
}

// ForceGraduationEvent builds the activity-log payload for a forced
// graduation, recording that the policy was bypassed (spec.md §4.9: "An
// explicit force flag bypasses these and is recorded in the activity log").
func ForceGraduationEvent(metrics GraduationMetrics) *models.ActivityLog {
	return &models.ActivityLog{
		EventType: "graduation_forced",
		Payload: map[string]any{
			"completed_count": metrics.CompletedCount,
			"win_rate":        metrics.WinRate,
			"sharpe":          metrics.Sharpe,
			"total_return":    metrics.TotalReturn,
		},
	}
}
