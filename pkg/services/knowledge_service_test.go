package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/pkg/services"
	"github.com/stratlab/stratlab/test/util"
)

func TestKnowledgeService_ListAndFilter(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agents := repo.NewAgentRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)
	svc := services.NewKnowledgeService(knowledgeRepo)
	ctx := context.Background()

	agent := &models.Agent{Name: "a", Instructions: "i", Status: "learning", Active: true}
	require.NoError(t, agents.Create(ctx, agent))

	require.NoError(t, knowledgeRepo.Insert(ctx, &models.KnowledgeEntry{
		AgentID: agent.ID, Kind: string(config.KnowledgeInsight), Insight: "general insight", Confidence: 0.5,
	}))
	require.NoError(t, knowledgeRepo.Insert(ctx, &models.KnowledgeEntry{
		AgentID: agent.ID, Kind: string(config.KnowledgePatternRule), PatternTag: "vwap_bounce",
		Insight: "avoid late entries", Confidence: 0.7,
	}))

	t.Run("List with no kind filter returns everything", func(t *testing.T) {
		all, err := svc.List(ctx, agent.ID, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("List filters by kind", func(t *testing.T) {
		rules, err := svc.List(ctx, agent.ID, string(config.KnowledgePatternRule))
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "avoid late entries", rules[0].Insight)
	})

	t.Run("ListByTag filters client-side by pattern tag", func(t *testing.T) {
		tagged, err := svc.ListByTag(ctx, agent.ID, "vwap_bounce")
		require.NoError(t, err)
		require.Len(t, tagged, 1)
		assert.Equal(t, "vwap_bounce", tagged[0].PatternTag)
	})

	t.Run("ListByTag with empty tag returns everything", func(t *testing.T) {
		all, err := svc.ListByTag(ctx, agent.ID, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
