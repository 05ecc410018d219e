package repository

import (
	"context"
	"testing"
	"time"

	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHistoryRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	trips := NewTripRepository(db, zap.NewNop())
	repo := NewHistoryRepository(db, zap.NewNop())

	trip := sampleTrip()
	require.NoError(t, trips.Create(ctx, trip))

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []*entity.TripHistory{
		{TripID: trip.ID, ActorID: "emp-1", Action: entity.ActionCreated, ToStatus: workflow.StateNew, CreatedAt: base},
		{TripID: trip.ID, ActorID: "mgr-1", Action: workflow.TriggerReject.String(), FromStatus: workflow.StateNew, ToStatus: workflow.StateRejected, Note: "Budget frozen", CreatedAt: base.Add(time.Minute)},
	}
	for _, rec := range records {
		require.NoError(t, repo.Create(ctx, rec))
		assert.NotEmpty(t, rec.ID)
	}

	got, err := repo.GetByTripID(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, entity.ActionCreated, got[0].Action)
	assert.Equal(t, workflow.State(""), got[0].FromStatus)
	assert.Equal(t, workflow.StateNew, got[0].ToStatus)
	assert.Equal(t, "Budget frozen", got[1].Note)
	assert.Equal(t, workflow.StateRejected, got[1].ToStatus)
	assert.True(t, got[1].CreatedAt.Equal(records[1].CreatedAt))

	empty, err := repo.GetByTripID(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
