package convergence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratlab/stratlab/pkg/models"
)

func TestBuildGraduationMetrics_Empty(t *testing.T) {
	m := BuildGraduationMetrics(nil, 3)
	assert.Equal(t, 3, m.CompletedCount)
	assert.Zero(t, m.WinRate)
	assert.Zero(t, m.Sharpe)
	assert.Zero(t, m.TotalReturn)
}

func TestBuildGraduationMetrics_Averages(t *testing.T) {
	window := []*models.Iteration{
		{WinRate: 0.5, Sharpe: 1.0, TotalReturn: 100},
		{WinRate: 0.7, Sharpe: 2.0, TotalReturn: 200},
	}
	m := BuildGraduationMetrics(window, 12)
	assert.Equal(t, 12, m.CompletedCount)
	assert.InDelta(t, 0.6, m.WinRate, 1e-9)
	assert.InDelta(t, 1.5, m.Sharpe, 1e-9)
	assert.InDelta(t, 150.0, m.TotalReturn, 1e-9)
}

func TestWinningTemplateChanges(t *testing.T) {
	t.Run("no changes when the winner never varies", func(t *testing.T) {
		window := []*models.Iteration{
			{WinningTemplate: "a"}, {WinningTemplate: "a"}, {WinningTemplate: "a"},
		}
		assert.Equal(t, 0, winningTemplateChanges(window))
	})

	t.Run("counts each transition, not each distinct value", func(t *testing.T) {
		window := []*models.Iteration{
			{WinningTemplate: "a"}, {WinningTemplate: "b"}, {WinningTemplate: "a"}, {WinningTemplate: "a"},
		}
		assert.Equal(t, 2, winningTemplateChanges(window))
	})

	t.Run("empty and single-element windows never change", func(t *testing.T) {
		assert.Equal(t, 0, winningTemplateChanges(nil))
		assert.Equal(t, 0, winningTemplateChanges([]*models.Iteration{{WinningTemplate: "a"}}))
	})
}

func TestSharpeStdDev(t *testing.T) {
	t.Run("empty window is zero", func(t *testing.T) {
		assert.Zero(t, sharpeStdDev(nil))
	})

	t.Run("identical sharpes have zero spread", func(t *testing.T) {
		window := []*models.Iteration{{Sharpe: 1.5}, {Sharpe: 1.5}, {Sharpe: 1.5}}
		assert.Zero(t, sharpeStdDev(window))
	})

	t.Run("varying sharpes produce a positive spread", func(t *testing.T) {
		window := []*models.Iteration{{Sharpe: 1.0}, {Sharpe: 2.0}, {Sharpe: 3.0}}
		assert.Greater(t, sharpeStdDev(window), 0.0)
	})
}
