package convergence_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stratlab/stratlab/pkg/convergence"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/test/util"
)

func seedAgent(t *testing.T, agents *repo.AgentRepo) *models.Agent {
	t.Helper()
	agent := &models.Agent{
		Name:         "test-agent",
		Instructions: "seed instructions",
		Status:       "learning",
		Active:       true,
	}
	require.NoError(t, agents.Create(context.Background(), agent))
	return agent
}

// completeIteration drives a fresh iteration through to "completed" with
// the given headline metrics, mirroring the orchestrator's write sequence
// closely enough to exercise the detector's read queries.
func completeIteration(t *testing.T, iterations *repo.IterationRepo, agentID uuid.UUID, winningTemplate string, winRate, sharpe float64) {
	t.Helper()
	ctx := context.Background()

	iter, err := iterations.AllocateAndCreate(ctx, agentID)
	require.NoError(t, err)

	results := &models.BacktestResults{WinningTemplate: winningTemplate}
	require.NoError(t, iterations.UpdateBacktestResults(ctx, iter.ID, results, winRate, sharpe, 10))
	require.NoError(t, iterations.Complete(ctx, iter.ID))
}

func TestDetector_Converged(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agents := repo.NewAgentRepo(db)
	iterations := repo.NewIterationRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)

	agent := seedAgent(t, agents)
	detector, err := convergence.New(iterations, knowledgeRepo, "")
	require.NoError(t, err)

	t.Run("fewer than the convergence window never converges", func(t *testing.T) {
		converged, err := detector.Converged(context.Background(), agent.ID)
		require.NoError(t, err)
		require.False(t, converged)
	})

	for i := 0; i < 5; i++ {
		completeIteration(t, iterations, agent.ID, "vwap_bounce", 0.6, 1.2)
	}

	t.Run("stable winner and low sharpe spread converges", func(t *testing.T) {
		converged, err := detector.Converged(context.Background(), agent.ID)
		require.NoError(t, err)
		require.True(t, converged)
	})
}

func TestDetector_Graduable_BuiltinGate(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agents := repo.NewAgentRepo(db)
	iterations := repo.NewIterationRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)

	agent := seedAgent(t, agents)
	detector, err := convergence.New(iterations, knowledgeRepo, "")
	require.NoError(t, err)

	ok, metrics, err := detector.Graduable(context.Background(), agent.ID)
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, metrics.CompletedCount)

	for i := 0; i < 20; i++ {
		completeIteration(t, iterations, agent.ID, "vwap_bounce", 0.7, 1.5)
	}

	ok, metrics, err = detector.Graduable(context.Background(), agent.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 20, metrics.CompletedCount)
}

func TestDetector_Graduable_CELOverride(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agents := repo.NewAgentRepo(db)
	iterations := repo.NewIterationRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)

	agent := seedAgent(t, agents)
	detector, err := convergence.New(iterations, knowledgeRepo, "metrics.completed_count >= 3")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		completeIteration(t, iterations, agent.ID, "vwap_bounce", 0.1, 0.1)
	}

	ok, _, err := detector.Graduable(context.Background(), agent.ID)
	require.NoError(t, err)
	require.True(t, ok, "CEL override should graduate on count alone despite poor win rate/sharpe")
}
