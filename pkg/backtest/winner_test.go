package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratlab/stratlab/pkg/models"
)

func TestSelectWinner_NoCandidates(t *testing.T) {
	assert.Equal(t, "", SelectWinner(nil, nil))
}

func TestSelectWinner_HighestProfitFactorWins(t *testing.T) {
	perTemplate := []models.TemplateMetrics{
		{Template: "a", ProfitFactor: 1.5, WinRate: 0.9},
		{Template: "b", ProfitFactor: 2.5, WinRate: 0.1},
	}
	assert.Equal(t, "b", SelectWinner(perTemplate, nil))
}

func TestSelectWinner_TieBreaksOnWinRateThenReturnThenTag(t *testing.T) {
	t.Run("profit factor tied, win rate decides", func(t *testing.T) {
		perTemplate := []models.TemplateMetrics{
			{Template: "a", ProfitFactor: 2, WinRate: 0.4, TotalReturn: 100},
			{Template: "b", ProfitFactor: 2, WinRate: 0.6, TotalReturn: 50},
		}
		assert.Equal(t, "b", SelectWinner(perTemplate, nil))
	})

	t.Run("profit factor and win rate tied, total return decides", func(t *testing.T) {
		perTemplate := []models.TemplateMetrics{
			{Template: "a", ProfitFactor: 2, WinRate: 0.5, TotalReturn: 100},
			{Template: "b", ProfitFactor: 2, WinRate: 0.5, TotalReturn: 200},
		}
		assert.Equal(t, "b", SelectWinner(perTemplate, nil))
	})

	t.Run("full tie resolves to lexicographically first tag", func(t *testing.T) {
		perTemplate := []models.TemplateMetrics{
			{Template: "zebra", ProfitFactor: 2, WinRate: 0.5, TotalReturn: 100},
			{Template: "alpha", ProfitFactor: 2, WinRate: 0.5, TotalReturn: 100},
		}
		assert.Equal(t, "alpha", SelectWinner(perTemplate, nil))
	})
}

func TestSelectWinner_CustomExecutorCompetes(t *testing.T) {
	perTemplate := []models.TemplateMetrics{
		{Template: "a", ProfitFactor: 1},
	}
	custom := &models.TemplateMetrics{Template: "ignored-name", ProfitFactor: 5}

	assert.Equal(t, CustomExecutorTag, SelectWinner(perTemplate, custom))
}
