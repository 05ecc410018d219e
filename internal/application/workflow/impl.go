package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/business-trip/internal/application/dispatcher"
	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/event"
	domainwf "github.com/garyjia/business-trip/internal/domain/workflow"
	"github.com/google/uuid"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type engineImpl struct {
	trips       port.TripRepository
	settlements port.SettlementRepository
	history     port.HistoryRepository
	txManager   port.TransactionManager
	locker      port.TripLocker
	dispatcher  dispatcher.Dispatcher
	logger      Logger
	now         func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the dispatcher that receives committed events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	trips port.TripRepository,
	settlements port.SettlementRepository,
	history port.HistoryRepository,
	txManager port.TransactionManager,
	locker port.TripLocker,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		trips:       trips,
		settlements: settlements,
		history:     history,
		txManager:   txManager,
		locker:      locker,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engineImpl) Create(ctx context.Context, trip *entity.Trip, actorID string) error {
	if trip.Status != domainwf.StateNew {
		return fmt.Errorf("%w: trips start in %s", entity.ErrInvalidOperation, domainwf.StateNew)
	}

	now := e.now()
	trip.CreatedAt, trip.UpdatedAt = now, now
	trip.Version = 1

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.trips.Create(txCtx, trip); err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}
		return e.record(txCtx, trip.ID, actorID, entity.ActionCreated, "", trip.Status, trip.Purpose)
	})
	if err != nil {
		return err
	}

	e.publish(ctx, event.NewEvent(event.TypeTripCreated, trip.ID, actorID, map[string]interface{}{
		event.KeyRequesterID: trip.RequesterID,
		event.KeyDestination: trip.DestinationCityID,
		event.KeyTotal:       trip.Estimate.Total.StringFixed(2),
	}))
	return nil
}

func (e *engineImpl) Transition(ctx context.Context, cmd Command) (*entity.Trip, error) {
	unlock, err := e.locker.Lock(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		updated *entity.Trip
		from    domainwf.State
	)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		stored, err := e.load(txCtx, cmd.TripID)
		if err != nil {
			return err
		}

		trip := stored.Clone()
		if cmd.Authorize != nil {
			if err := cmd.Authorize(trip); err != nil {
				return err
			}
		}

		from = trip.Status
		sm := domainwf.NewTripMachine(from)
		if err := sm.Fire(cmd.Trigger); err != nil {
			return err
		}

		now := e.now()
		trip.Status = sm.State()
		trip.UpdatedAt = now

		if cmd.Apply != nil {
			if err := cmd.Apply(trip); err != nil {
				return err
			}
		}

		if err := e.trips.Update(txCtx, trip, stored.Version); err != nil {
			return err
		}
		if err := e.persistSettlement(txCtx, trip, cmd.Trigger, now); err != nil {
			return err
		}
		if err := e.record(txCtx, trip.ID, cmd.ActorID, cmd.Trigger.String(), from, trip.Status, cmd.Note); err != nil {
			return err
		}

		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.logger != nil {
		e.logger.Info("Trip transitioned",
			"trip_id", updated.ID,
			"trigger", cmd.Trigger,
			"from", from,
			"to", updated.Status,
			"actor_id", cmd.ActorID,
			"version", updated.Version,
		)
	}
	e.publishTransition(ctx, updated, cmd, from)
	return updated, nil
}

func (e *engineImpl) PermittedTriggers(ctx context.Context, tripID string) ([]domainwf.Trigger, error) {
	trip, err := e.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return domainwf.NewTripMachine(trip.Status).PermittedTriggers(), nil
}

func (e *engineImpl) load(ctx context.Context, tripID string) (*entity.Trip, error) {
	trip, err := e.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	settlement, err := e.settlements.GetByTripID(ctx, tripID)
	switch {
	case err == nil:
		trip.Settlement = settlement
	case errors.Is(err, entity.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to load settlement: %w", err)
	}
	return trip, nil
}

func (e *engineImpl) persistSettlement(ctx context.Context, trip *entity.Trip, trigger domainwf.Trigger, now time.Time) error {
	switch trigger {
	case domainwf.TriggerSubmitSettlement:
		if trip.Settlement == nil {
			return fmt.Errorf("%w: settlement submission without a ledger", entity.ErrInvalidOperation)
		}
		if err := e.settlements.Save(ctx, trip.Settlement); err != nil {
			return fmt.Errorf("failed to save settlement: %w", err)
		}
	case domainwf.TriggerApproveSettlement:
		if err := e.settlements.MarkApproved(ctx, trip.ID, now); err != nil {
			return fmt.Errorf("failed to approve settlement: %w", err)
		}
		if trip.Settlement != nil {
			trip.Settlement.ApprovedAt = &now
		}
	}
	return nil
}

func (e *engineImpl) record(ctx context.Context, tripID, actorID, action string, from, to domainwf.State, note string) error {
	h := &entity.TripHistory{
		ID:         uuid.NewString(),
		TripID:     tripID,
		ActorID:    actorID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
		CreatedAt:  e.now(),
	}
	if err := e.history.Create(ctx, h); err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}
	return nil
}

func (e *engineImpl) publishTransition(ctx context.Context, trip *entity.Trip, cmd Command, from domainwf.State) {
	if from == trip.Status {
		return
	}

	statusEvent := event.NewEvent(event.TypeStatusChanged, trip.ID, cmd.ActorID, map[string]interface{}{
		event.KeyRequesterID: trip.RequesterID,
		event.KeyFromStatus:  from.String(),
		event.KeyToStatus:    trip.Status.String(),
		event.KeyTrigger:     cmd.Trigger.String(),
		event.KeyReason:      trip.RejectionReason,
	})
	e.publish(ctx, statusEvent)

	if cmd.Trigger == domainwf.TriggerSubmitSettlement && trip.Settlement != nil {
		totals := trip.Settlement.Totals()
		e.publish(ctx, event.NewEventWithCorrelation(event.TypeSettlementSubmitted, trip.ID, cmd.ActorID, map[string]interface{}{
			event.KeyRequesterID: trip.RequesterID,
			event.KeyTotal:       totals.TotalAmount.StringFixed(2),
			event.KeyOwed:        totals.AmountOwedToEmployee.StringFixed(2),
		}, statusEvent.CorrelationID))
	}
}

func (e *engineImpl) publish(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(ctx, evt)
}
