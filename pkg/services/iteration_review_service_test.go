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

func TestIterationReviewService_Review_Validation(t *testing.T) {
	db := util.SetupTestDatabase(t)
	iterations := repo.NewIterationRepo(db)
	activity := services.NewActivityLogService(repo.NewActivityLogRepo(db))
	svc := services.NewIterationReviewService(iterations, activity)

	err := svc.Review(context.Background(), uuid.New(), uuid.New(), "completed")
	assert.True(t, services.IsValidationError(err), "completed is a processing state, not a review disposition")
}

func TestIterationReviewService_Review_NotFound(t *testing.T) {
	db := util.SetupTestDatabase(t)
	iterations := repo.NewIterationRepo(db)
	activity := services.NewActivityLogService(repo.NewActivityLogRepo(db))
	svc := services.NewIterationReviewService(iterations, activity)

	err := svc.Review(context.Background(), uuid.New(), uuid.New(), "approved")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestIterationReviewService_Review_AppliesToCompletedIteration(t *testing.T) {
	db := util.SetupTestDatabase(t)
	agents := repo.NewAgentRepo(db)
	iterations := repo.NewIterationRepo(db)
	activityRepo := repo.NewActivityLogRepo(db)
	activity := services.NewActivityLogService(activityRepo)
	svc := services.NewIterationReviewService(iterations, activity)
	ctx := context.Background()

	agent := &models.Agent{Name: "a", Instructions: "i", Status: "learning", Active: true}
	require.NoError(t, agents.Create(ctx, agent))

	iter, err := iterations.AllocateAndCreate(ctx, agent.ID)
	require.NoError(t, err)
	require.NoError(t, iterations.UpdateBacktestResults(ctx, iter.ID, &models.BacktestResults{}, 0.5, 1.0, 10))
	require.NoError(t, iterations.Complete(ctx, iter.ID))

	require.NoError(t, svc.Review(ctx, agent.ID, iter.ID, "approved"))

	got, err := iterations.Get(ctx, iter.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", got.Status)

	log, err := activity.List(ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "iteration_reviewed", log[0].EventType)

	t.Run("a review may be revised", func(t *testing.T) {
		require.NoError(t, svc.Review(ctx, agent.ID, iter.ID, "improved_upon"))
		got, err := iterations.Get(ctx, iter.ID)
		require.NoError(t, err)
		assert.Equal(t, "improved_upon", got.Status)
	})
}
