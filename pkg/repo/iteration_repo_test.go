package repo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/test/util"
)

func createTestAgent(t *testing.T, agentRepo *repo.AgentRepo) *models.Agent {
	t.Helper()
	agent := &models.Agent{Name: "a", Instructions: "i", Status: "learning", Active: true}
	require.NoError(t, agentRepo.Create(context.Background(), agent))
	return agent
}

func TestIterationRepo_AllocateAndCreate_StartsAtOne(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	iterRepo := repo.NewIterationRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)

	it, err := iterRepo.AllocateAndCreate(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, it.IterationNumber)
	assert.Equal(t, "new", it.Status)

	it2, err := iterRepo.AllocateAndCreate(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, it2.IterationNumber)
}

func TestIterationRepo_AllocateAndCreate_ConcurrentIsGapFree(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	iterRepo := repo.NewIterationRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)

	const n = 10
	numbers := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			it, err := iterRepo.AllocateAndCreate(ctx, agent.ID)
			require.NoError(t, err)
			numbers[idx] = it.IterationNumber
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for _, num := range numbers {
		assert.False(t, seen[num], "iteration number %d allocated twice", num)
		seen[num] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[i], "iteration number %d missing — sequence must be dense", i)
	}
}

func TestIterationRepo_StateMachineProgression(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	iterRepo := repo.NewIterationRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)
	it, err := iterRepo.AllocateAndCreate(ctx, agent.ID)
	require.NoError(t, err)

	require.NoError(t, iterRepo.UpdateScanner(ctx, it.ID, "print('scan')", "scanner prompt"))
	require.NoError(t, iterRepo.UpdateExecutor(ctx, it.ID, "template library", "executor prompt"))
	require.NoError(t, iterRepo.UpdateSignals(ctx, it.ID, 3))

	results := &models.BacktestResults{
		SignalsFound:    3,
		WinningTemplate: "atr_adaptive",
		PerTemplate: []models.TemplateMetrics{
			{Template: "atr_adaptive", TotalTrades: 3, Winners: 2, ProfitFactor: 2.5},
		},
	}
	require.NoError(t, iterRepo.UpdateBacktestResults(ctx, it.ID, results, 0.66, 1.4, 120.0))

	analysis := &models.ExpertAnalysis{OverallAssessment: "promising"}
	require.NoError(t, iterRepo.UpdateAnalysis(ctx, it.ID, analysis))
	require.NoError(t, iterRepo.MarkKnowledgeUpdated(ctx, it.ID, []string{"tighten stop loss"}))
	require.NoError(t, iterRepo.Complete(ctx, it.ID))

	got, err := iterRepo.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, "atr_adaptive", got.WinningTemplate)
	assert.Equal(t, 3, got.SignalsFound)
	assert.Equal(t, []string{"tighten stop loss"}, got.RefinementsSuggested)
	require.NotNil(t, got.BacktestResults)
	assert.Equal(t, "atr_adaptive", got.BacktestResults.WinningTemplate)
	require.NotNil(t, got.ExpertAnalysis)
	assert.Equal(t, "promising", got.ExpertAnalysis.OverallAssessment)
}

func TestIterationRepo_Fail_PreservesPartialState(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	iterRepo := repo.NewIterationRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)
	it, err := iterRepo.AllocateAndCreate(ctx, agent.ID)
	require.NoError(t, err)

	require.NoError(t, iterRepo.UpdateScanner(ctx, it.ID, "while(true){}", "prompt"))
	require.NoError(t, iterRepo.Fail(ctx, it.ID, "sandbox/timeout"))

	got, err := iterRepo.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, "sandbox/timeout", got.FailReason)
	assert.Equal(t, "while(true){}", got.ScanSource, "partial artifacts must survive a FAILED finalize")
}

func TestIterationRepo_LastNCompleted_OldestFirst(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	iterRepo := repo.NewIterationRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)
	for i := 0; i < 5; i++ {
		it, err := iterRepo.AllocateAndCreate(ctx, agent.ID)
		require.NoError(t, err)
		require.NoError(t, iterRepo.Complete(ctx, it.ID))
	}

	last3, err := iterRepo.LastNCompleted(ctx, agent.ID, 3)
	require.NoError(t, err)
	require.Len(t, last3, 3)
	assert.Equal(t, 3, last3[0].IterationNumber)
	assert.Equal(t, 4, last3[1].IterationNumber)
	assert.Equal(t, 5, last3[2].IterationNumber)

	count, err := iterRepo.CountCompleted(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
