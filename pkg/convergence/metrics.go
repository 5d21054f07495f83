// Package convergence evaluates the stopping and graduation conditions of
// spec.md §4.9 over an agent's recent completed iterations, with an
// optional CEL expression override for the graduation gate.
package convergence

import (
	"math"

	"github.com/stratlab/stratlab/pkg/models"
)

// GraduationMetrics is the summary window evaluated by both the built-in
// predicate and any CEL policy override (spec.md §4.9). It is also the
// variable namespace exposed to CEL expressions as `metrics.*`.
type GraduationMetrics struct {
	CompletedCount         int     `json:"completed_count"`
	WinRate                float64 `json:"win_rate"`
	Sharpe                 float64 `json:"sharpe"`
	TotalReturn            float64 `json:"total_return"`
	WinningTemplateChanges int     `json:"winning_template_changes"`
	SharpeStdDev           float64 `json:"sharpe_stddev"`
	HighConfidenceRecent   int     `json:"high_confidence_recent"`
}

// BuildGraduationMetrics averages win rate/Sharpe/total return over the
// last 10 completed iterations and reports the agent's total completed
// count (spec.md §4.9's graduation gate inputs).
func BuildGraduationMetrics(last10 []*models.Iteration, completedCount int) GraduationMetrics {
	m := GraduationMetrics{CompletedCount: completedCount}
	if len(last10) == 0 {
		return m
	}

	var winRate, sharpe, totalReturn float64
	for _, it := range last10 {
		winRate += it.WinRate
		sharpe += it.Sharpe
		totalReturn += it.TotalReturn
	}
	n := float64(len(last10))
	m.WinRate = winRate / n
	m.Sharpe = sharpe / n
	m.TotalReturn = totalReturn / n
	return m
}

// winningTemplateChanges counts the number of times the winning template
// differs from the previous iteration's, across an oldest-first window
// (spec.md §4.9's "changes at most once").
func winningTemplateChanges(window []*models.Iteration) int {
	changes := 0
	for i := 1; i < len(window); i++ {
		if window[i].WinningTemplate != window[i-1].WinningTemplate {
			changes++
		}
	}
	return changes
}

// sharpeStdDev is the population standard deviation of Sharpe ratios
// across window (spec.md §4.9's "standard deviation of Sharpe ratios ≤ 0.25").
func sharpeStdDev(window []*models.Iteration) float64 {
	n := len(window)
	if n == 0 {
		return 0
	}

	var sum float64
	for _, it := range window {
		sum += it.Sharpe
	}
	mean := sum / float64(n)

	var variance float64
	for _, it := range window {
		d := it.Sharpe - mean
		variance += d * d
	}
	variance /= float64(n)
	return math.Sqrt(variance)
}
