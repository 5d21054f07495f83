package convergence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCELPolicy_CompileErrors(t *testing.T) {
	t.Run("rejects a malformed expression", func(t *testing.T) {
		_, err := newCELPolicy("metrics.win_rate >")
		assert.Error(t, err)
	})

	t.Run("rejects a non-bool expression", func(t *testing.T) {
		_, err := newCELPolicy("metrics.win_rate")
		assert.Error(t, err)
	})

	t.Run("rejects an undeclared variable", func(t *testing.T) {
		_, err := newCELPolicy("metrics.unknown_field > 0")
		assert.Error(t, err)
	})
}

func TestCELPolicy_Evaluate(t *testing.T) {
	p, err := newCELPolicy("metrics.completed_count >= 10 && metrics.win_rate >= 0.55 && metrics.sharpe >= 1.0")
	require.NoError(t, err)

	ok, err := p.evaluate(GraduationMetrics{CompletedCount: 12, WinRate: 0.6, Sharpe: 1.2})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.evaluate(GraduationMetrics{CompletedCount: 3, WinRate: 0.6, Sharpe: 1.2})
	require.NoError(t, err)
	assert.False(t, ok)
}
