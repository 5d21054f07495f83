package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/pkg/services"
	"github.com/stratlab/stratlab/test/util"
)

func TestActivityLogService_Record_Validation(t *testing.T) {
	db := util.SetupTestDatabase(t)
	svc := services.NewActivityLogService(repo.NewActivityLogRepo(db))
	ctx := context.Background()

	t.Run("rejects a zero agent id", func(t *testing.T) {
		err := svc.Record(ctx, uuid.Nil, "agent_created", nil)
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("rejects an empty event type", func(t *testing.T) {
		err := svc.Record(ctx, uuid.New(), "", nil)
		assert.True(t, services.IsValidationError(err))
	})
}

func TestActivityLogService_RecordAndList(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agents := repo.NewAgentRepo(db)
	svc := services.NewActivityLogService(repo.NewActivityLogRepo(db))
	ctx := context.Background()

	agent := &models.Agent{Name: "a", Instructions: "i", Status: "learning", Active: true}
	require.NoError(t, agents.Create(ctx, agent))

	require.NoError(t, svc.Record(ctx, agent.ID, "agent_created", map[string]any{"name": agent.Name}))
	require.NoError(t, svc.Record(ctx, agent.ID, "agent_paused_manual", nil))

	entries, err := svc.List(ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	eventTypes := []string{entries[0].EventType, entries[1].EventType}
	assert.ElementsMatch(t, []string{"agent_created", "agent_paused_manual"}, eventTypes)
}
