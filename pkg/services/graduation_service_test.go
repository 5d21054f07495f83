package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/convergence"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/pkg/services"
	"github.com/stratlab/stratlab/test/util"
)

func newGraduationFixture(t *testing.T, policyExpr string) (*services.GraduationService, *services.AgentService, *repo.IterationRepo, *models.Agent) {
	t.Helper()
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	iterationRepo := repo.NewIterationRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)
	activityRepo := repo.NewActivityLogRepo(db)

	agentSvc := services.NewAgentService(agentRepo)
	activitySvc := services.NewActivityLogService(activityRepo)
	detector, err := convergence.New(iterationRepo, knowledgeRepo, policyExpr)
	require.NoError(t, err)
	graduationSvc := services.NewGraduationService(agentSvc, activitySvc, detector, nil)

	agent := &models.Agent{Name: "a", Instructions: "i", Status: string(config.AgentStatusLearning), Active: true}
	require.NoError(t, agentRepo.Create(context.Background(), agent))

	return graduationSvc, agentSvc, iterationRepo, agent
}

func TestGraduationService_Evaluate_NotEligible(t *testing.T) {
	svc, agentSvc, _, agent := newGraduationFixture(t, "")
	ctx := context.Background()

	promoted, _, err := svc.Evaluate(ctx, agent.ID, false)
	require.NoError(t, err)
	assert.False(t, promoted)

	got, err := agentSvc.Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, string(config.AgentStatusLearning), got.Status)
}

func TestGraduationService_Evaluate_ForcePromotesDespiteIneligibility(t *testing.T) {
	svc, agentSvc, _, agent := newGraduationFixture(t, "")
	ctx := context.Background()

	promoted, _, err := svc.Evaluate(ctx, agent.ID, true)
	require.NoError(t, err)
	assert.True(t, promoted)

	got, err := agentSvc.Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, string(config.AgentStatusPaperTrading), got.Status)
}

func TestGraduationService_Evaluate_PolicyOverrideGrantsEligibility(t *testing.T) {
	svc, agentSvc, iterations, agent := newGraduationFixture(t, "metrics.completed_count >= 2")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		iter, err := iterations.AllocateAndCreate(ctx, agent.ID)
		require.NoError(t, err)
		require.NoError(t, iterations.UpdateBacktestResults(ctx, iter.ID, &models.BacktestResults{}, 0.1, 0.1, 1))
		require.NoError(t, iterations.Complete(ctx, iter.ID))
	}

	promoted, _, err := svc.Evaluate(ctx, agent.ID, false)
	require.NoError(t, err)
	assert.True(t, promoted)

	got, err := agentSvc.Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, string(config.AgentStatusPaperTrading), got.Status)
}

func TestGraduationService_Evaluate_NoNextStatusForLiveTrading(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	iterationRepo := repo.NewIterationRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)
	activitySvc := services.NewActivityLogService(repo.NewActivityLogRepo(db))
	agentSvc := services.NewAgentService(agentRepo)
	detector, err := convergence.New(iterationRepo, knowledgeRepo, "")
	require.NoError(t, err)
	svc := services.NewGraduationService(agentSvc, activitySvc, detector, nil)

	agent := &models.Agent{Name: "a", Instructions: "i", Status: string(config.AgentStatusLiveTrading), Active: true}
	require.NoError(t, agentRepo.Create(context.Background(), agent))

	promoted, _, err := svc.Evaluate(context.Background(), agent.ID, true)
	require.NoError(t, err)
	assert.False(t, promoted, "live_trading has no further status to graduate into, even with force")
}
