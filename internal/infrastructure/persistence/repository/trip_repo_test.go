package repository

import (
	"context"
	"testing"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTripRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTripRepository(newTestDB(t), zap.NewNop())

	trip := sampleTrip()
	require.NoError(t, repo.Create(ctx, trip))
	assert.Equal(t, int64(1), trip.Version)

	got, err := repo.GetByID(ctx, trip.ID)
	require.NoError(t, err)

	assert.Equal(t, trip.RequesterID, got.RequesterID)
	assert.Equal(t, workflow.StateNew, got.Status)
	assert.True(t, got.StartDate.Equal(trip.StartDate))
	assert.True(t, got.EndDate.Equal(trip.EndDate))
	require.NotNil(t, got.Transport)
	assert.Equal(t, "WAW-BER-TRAIN", got.Transport.RouteID)
	assert.True(t, got.Transport.OneWayPrice.Equal(trip.Transport.OneWayPrice))
	require.NotNil(t, got.Hotel)
	assert.Equal(t, "Hotel Mitte", got.Hotel.Name)
	assert.Equal(t, "1800", got.Estimate.Total.String())
	assert.Equal(t, 3, got.Estimate.Days)
	assert.Equal(t, 2, got.Estimate.Nights)
	assert.Equal(t, "PLN", got.Estimate.Currency)
	assert.True(t, got.CreatedAt.Equal(trip.CreatedAt))
	assert.Nil(t, got.Settlement)
}

func TestTripRepository_NoBookings(t *testing.T) {
	ctx := context.Background()
	repo := NewTripRepository(newTestDB(t), zap.NewNop())

	trip := sampleTrip()
	trip.Transport = nil
	trip.Hotel = nil
	require.NoError(t, repo.Create(ctx, trip))

	got, err := repo.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Transport)
	assert.Nil(t, got.Hotel)
}

func TestTripRepository_GetByID_NotFound(t *testing.T) {
	repo := NewTripRepository(newTestDB(t), zap.NewNop())

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestTripRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewTripRepository(newTestDB(t), zap.NewNop())

	trip := sampleTrip()
	require.NoError(t, repo.Create(ctx, trip))

	trip.Status = workflow.StateRejected
	trip.RejectionReason = "Budget frozen"
	trip.UpdatedAt = trip.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, trip, 1))
	assert.Equal(t, int64(2), trip.Version)

	got, err := repo.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateRejected, got.Status)
	assert.Equal(t, "Budget frozen", got.RejectionReason)
	assert.Equal(t, int64(2), got.Version)
}

func TestTripRepository_Update_StaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewTripRepository(newTestDB(t), zap.NewNop())

	trip := sampleTrip()
	require.NoError(t, repo.Create(ctx, trip))

	first := trip.Clone()
	first.Status = workflow.StateApproved
	require.NoError(t, repo.Update(ctx, first, 1))

	second := trip.Clone()
	second.Status = workflow.StateRejected
	err := repo.Update(ctx, second, 1)
	assert.ErrorIs(t, err, entity.ErrConcurrentModification)

	got, err := repo.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateApproved, got.Status)
}

func TestTripRepository_Update_Missing(t *testing.T) {
	repo := NewTripRepository(newTestDB(t), zap.NewNop())

	err := repo.Update(context.Background(), sampleTrip(), 1)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestTripRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewTripRepository(newTestDB(t), zap.NewNop())

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, tc := range []struct {
		requester string
		status    workflow.State
	}{
		{"emp-1", workflow.StateNew},
		{"emp-1", workflow.StateApproved},
		{"emp-2", workflow.StateNew},
	} {
		trip := sampleTrip()
		trip.RequesterID = tc.requester
		trip.Status = tc.status
		trip.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		trip.UpdatedAt = trip.CreatedAt
		require.NoError(t, repo.Create(ctx, trip))
	}

	tests := []struct {
		name   string
		filter port.TripFilter
		want   int
	}{
		{"all", port.TripFilter{}, 3},
		{"by requester", port.TripFilter{RequesterID: "emp-1"}, 2},
		{"by status", port.TripFilter{Status: workflow.StateNew}, 2},
		{"both", port.TripFilter{RequesterID: "emp-1", Status: workflow.StateApproved}, 1},
		{"limit", port.TripFilter{Limit: 2}, 2},
		{"offset past end", port.TripFilter{Limit: 10, Offset: 5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trips, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, trips, tt.want)
		})
	}

	trips, err := repo.List(ctx, port.TripFilter{})
	require.NoError(t, err)
	assert.Equal(t, "emp-2", trips[0].RequesterID, "newest first")
}
