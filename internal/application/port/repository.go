package port

import (
	"context"
	"time"

	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/workflow"
)

// TripFilter narrows a trip listing
type TripFilter struct {
	RequesterID string
	Status      workflow.State
	Limit       int
	Offset      int
}

// TripRepository defines persistence operations for Trip.
// Trips are never deleted.
type TripRepository interface {
	Create(ctx context.Context, trip *entity.Trip) error

	// GetByID loads a trip without its settlement; ErrNotFound when missing
	GetByID(ctx context.Context, id string) (*entity.Trip, error)

	// Update writes trip if the stored version equals expectedVersion and
	// bumps trip.Version; ErrConcurrentModification otherwise
	Update(ctx context.Context, trip *entity.Trip, expectedVersion int64) error

	List(ctx context.Context, filter TripFilter) ([]*entity.Trip, error)
}

// SettlementRepository defines persistence operations for Settlement and its items
type SettlementRepository interface {
	// Save replaces the settlement of settlement.TripID and all its items
	Save(ctx context.Context, settlement *entity.Settlement) error

	// GetByTripID returns ErrNotFound when nothing was submitted yet
	GetByTripID(ctx context.Context, tripID string) (*entity.Settlement, error)

	MarkApproved(ctx context.Context, tripID string, at time.Time) error
}

// HistoryRepository defines persistence operations for the trip audit trail
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.TripHistory) error
	GetByTripID(ctx context.Context, tripID string) ([]*entity.TripHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
