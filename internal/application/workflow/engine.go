package workflow

import (
	"context"

	"github.com/garyjia/business-trip/internal/domain/entity"
	domainwf "github.com/garyjia/business-trip/internal/domain/workflow"
)

// Engine is the only writer of trip status
type Engine interface {
	// Create persists a new trip in its initial state and records the creation
	Create(ctx context.Context, trip *entity.Trip, actorID string) error

	// Transition fires cmd.Trigger on the stored trip and persists the result
	Transition(ctx context.Context, cmd Command) (*entity.Trip, error)

	// PermittedTriggers returns what can be fired on the trip right now
	PermittedTriggers(ctx context.Context, tripID string) ([]domainwf.Trigger, error)
}

// Command describes one transition request
type Command struct {
	TripID  string
	ActorID string
	Trigger domainwf.Trigger
	Note    string

	// Authorize inspects the loaded trip before the trigger fires
	Authorize func(trip *entity.Trip) error

	// Apply mutates the trip after its status moved, inside the transaction
	Apply func(trip *entity.Trip) error
}
