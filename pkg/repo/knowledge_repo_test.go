package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/test/util"
)

func TestKnowledgeRepo_InsertAndList(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)

	entry := &models.KnowledgeEntry{
		AgentID:              agent.ID,
		Kind:                 "INSIGHT",
		Insight:              "tighten stop loss during high volatility regimes",
		Confidence:           0.6,
		LearnedFromIteration: 1,
		TimesValidated:       1,
	}
	require.NoError(t, knowledgeRepo.Insert(ctx, entry))

	all, err := knowledgeRepo.ListByAgent(ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "INSIGHT", all[0].Kind)
	assert.Equal(t, 0.6, all[0].Confidence)
}

func TestKnowledgeRepo_ReinforceExisting(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)
	entry := &models.KnowledgeEntry{
		AgentID: agent.ID, Kind: "INSIGHT", Insight: "x", Confidence: 0.6,
		LearnedFromIteration: 1, TimesValidated: 1,
	}
	require.NoError(t, knowledgeRepo.Insert(ctx, entry))

	require.NoError(t, knowledgeRepo.ReinforceExisting(ctx, entry.ID))

	all, err := knowledgeRepo.ListByAgent(ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].TimesValidated)
	assert.InDelta(t, 0.65, all[0].Confidence, 0.0001)
}

func TestKnowledgeRepo_ReinforceExisting_CapsAtOne(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)
	entry := &models.KnowledgeEntry{
		AgentID: agent.ID, Kind: "INSIGHT", Insight: "x", Confidence: 0.98,
		LearnedFromIteration: 1, TimesValidated: 1,
	}
	require.NoError(t, knowledgeRepo.Insert(ctx, entry))
	require.NoError(t, knowledgeRepo.ReinforceExisting(ctx, entry.ID))

	all, err := knowledgeRepo.ListByAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, all[0].Confidence, 1.0)
}

func TestKnowledgeRepo_Contradict_FloorsAtZero(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)
	entry := &models.KnowledgeEntry{
		AgentID: agent.ID, Kind: "PATTERN_RULE", Insight: "x", Confidence: 0.05,
		LearnedFromIteration: 1, TimesValidated: 1,
	}
	require.NoError(t, knowledgeRepo.Insert(ctx, entry))
	require.NoError(t, knowledgeRepo.Contradict(ctx, entry.ID))

	all, err := knowledgeRepo.ListByAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, all[0].Confidence, 0.0)
	assert.Equal(t, 0.0, all[0].Confidence)
}

func TestKnowledgeRepo_CountHighConfidenceSince(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agentRepo := repo.NewAgentRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)
	ctx := context.Background()

	agent := createTestAgent(t, agentRepo)
	require.NoError(t, knowledgeRepo.Insert(ctx, &models.KnowledgeEntry{
		AgentID: agent.ID, Kind: "INSIGHT", Insight: "a", Confidence: 0.8, LearnedFromIteration: 8, TimesValidated: 1,
	}))
	require.NoError(t, knowledgeRepo.Insert(ctx, &models.KnowledgeEntry{
		AgentID: agent.ID, Kind: "INSIGHT", Insight: "b", Confidence: 0.5, LearnedFromIteration: 9, TimesValidated: 1,
	}))

	count, err := knowledgeRepo.CountHighConfidenceSince(ctx, agent.ID, 0.7, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
