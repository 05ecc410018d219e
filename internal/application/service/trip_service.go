package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/application/workflow"
	"github.com/garyjia/business-trip/internal/domain/cost"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/settlement"
	domainwf "github.com/garyjia/business-trip/internal/domain/workflow"
	"github.com/google/uuid"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// TripService is the public contract of the trip lifecycle
type TripService interface {
	CreateTrip(ctx context.Context, in CreateTripInput) (*entity.Trip, error)
	ReviseTrip(ctx context.Context, in ReviseTripInput) (*entity.Trip, error)
	ApproveTrip(ctx context.Context, tripID, managerID string) (*entity.Trip, error)
	RejectTrip(ctx context.Context, tripID, managerID, reason string) (*entity.Trip, error)
	SubmitSettlement(ctx context.Context, in SubmitSettlementInput) (*entity.Trip, error)
	ApproveSettlement(ctx context.Context, tripID, managerID string) (*entity.Trip, error)
	ReturnSettlementForCorrection(ctx context.Context, tripID, managerID string) (*entity.Trip, error)

	GetTrip(ctx context.Context, tripID string) (*entity.Trip, error)
	ListTrips(ctx context.Context, filter port.TripFilter) ([]*entity.Trip, error)
	GetEstimatedCost(ctx context.Context, tripID string) (*entity.CostEstimate, error)
	GetSettlementTotals(ctx context.Context, tripID string) (*entity.SettlementTotals, error)
	DraftSettlement(ctx context.Context, tripID string) (*SettlementDraft, error)
	GetHistory(ctx context.Context, tripID string) ([]*entity.TripHistory, error)
}

// TripConfig holds the travel policy the service applies
type TripConfig struct {
	HomeCityID string
	Policy     cost.Policy
	Now        func() time.Time
}

// SettlementDraft is the ledger offered to the employee before submitting
type SettlementDraft struct {
	TripID string                  `json:"trip_id"`
	Items  []entity.LineItem       `json:"items"`
	Totals entity.SettlementTotals `json:"totals"`
}

type tripServiceImpl struct {
	trips       port.TripRepository
	settlements port.SettlementRepository
	history     port.HistoryRepository
	reference   port.ReferenceDataProvider
	engine      workflow.Engine
	cfg         TripConfig
	logger      Logger
}

// NewTripService creates a new TripService
func NewTripService(
	trips port.TripRepository,
	settlements port.SettlementRepository,
	history port.HistoryRepository,
	reference port.ReferenceDataProvider,
	engine workflow.Engine,
	cfg TripConfig,
	logger Logger,
) TripService {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &tripServiceImpl{
		trips:       trips,
		settlements: settlements,
		history:     history,
		reference:   reference,
		engine:      engine,
		cfg:         cfg,
		logger:      logger,
	}
}

// CreateTrip plans a new trip in status NEW
func (s *tripServiceImpl) CreateTrip(ctx context.Context, in CreateTripInput) (*entity.Trip, error) {
	today := s.cfg.Now()
	if err := in.Validate(today); err != nil {
		return nil, err
	}

	trip := &entity.Trip{
		ID:           uuid.NewString(),
		RequesterID:  strings.TrimSpace(in.RequesterID),
		OriginCityID: s.cfg.HomeCityID,
		Status:       domainwf.StateNew,
	}
	if err := s.plan(ctx, trip, in.TripPlan); err != nil {
		return nil, err
	}

	if err := s.engine.Create(ctx, trip, trip.RequesterID); err != nil {
		s.logger.Error("Failed to create trip", "error", err, "requester_id", trip.RequesterID)
		return nil, err
	}

	s.logger.Info("Trip created",
		"trip_id", trip.ID,
		"requester_id", trip.RequesterID,
		"destination", trip.DestinationCityID,
		"total", trip.Estimate.Total.StringFixed(2),
	)
	return trip, nil
}

// ReviseTrip replaces the plan of a NEW trip and recomputes its estimate
func (s *tripServiceImpl) ReviseTrip(ctx context.Context, in ReviseTripInput) (*entity.Trip, error) {
	if strings.TrimSpace(in.TripID) == "" {
		return nil, fmt.Errorf("%w: trip id is required", entity.ErrValidation)
	}
	current, err := s.trips.GetByID(ctx, in.TripID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(current.CreatedAt); err != nil {
		return nil, err
	}

	revised := &entity.Trip{ID: current.ID, RequesterID: current.RequesterID}
	if err := s.plan(ctx, revised, in.TripPlan); err != nil {
		return nil, err
	}

	return s.transition(ctx, workflow.Command{
		TripID:    in.TripID,
		ActorID:   in.RequesterID,
		Trigger:   domainwf.TriggerRevise,
		Authorize: requireOwner(in.RequesterID),
		Apply: func(trip *entity.Trip) error {
			trip.DestinationCityID = revised.DestinationCityID
			trip.StartDate = revised.StartDate
			trip.EndDate = revised.EndDate
			trip.Purpose = revised.Purpose
			trip.Transport = revised.Transport
			trip.Hotel = revised.Hotel
			trip.Estimate = revised.Estimate
			return nil
		},
	})
}

// ApproveTrip moves a NEW trip to APPROVED
func (s *tripServiceImpl) ApproveTrip(ctx context.Context, tripID, managerID string) (*entity.Trip, error) {
	if err := requireActor(tripID, managerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, workflow.Command{
		TripID:  tripID,
		ActorID: managerID,
		Trigger: domainwf.TriggerApprove,
	})
}

// RejectTrip moves a NEW trip to REJECTED. A reason is always required.
func (s *tripServiceImpl) RejectTrip(ctx context.Context, tripID, managerID, reason string) (*entity.Trip, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", entity.ErrValidation)
	}
	if err := requireActor(tripID, managerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, workflow.Command{
		TripID:  tripID,
		ActorID: managerID,
		Trigger: domainwf.TriggerReject,
		Note:    reason,
		Apply: func(trip *entity.Trip) error {
			trip.RejectionReason = reason
			return nil
		},
	})
}

// SubmitSettlement seeds the ledger from the frozen plan, applies the
// employee's items and submits it
func (s *tripServiceImpl) SubmitSettlement(ctx context.Context, in SubmitSettlementInput) (*entity.Trip, error) {
	if err := requireActor(in.TripID, in.EmployeeID); err != nil {
		return nil, err
	}
	return s.transition(ctx, workflow.Command{
		TripID:    in.TripID,
		ActorID:   in.EmployeeID,
		Trigger:   domainwf.TriggerSubmitSettlement,
		Authorize: requireOwner(in.EmployeeID),
		Apply: func(trip *entity.Trip) error {
			ledger := settlement.Seed(trip)
			if err := ledger.Apply(in.Items); err != nil {
				return err
			}
			return ledger.Submit(trip, s.cfg.Now())
		},
	})
}

// ApproveSettlement closes the trip
func (s *tripServiceImpl) ApproveSettlement(ctx context.Context, tripID, managerID string) (*entity.Trip, error) {
	if err := requireActor(tripID, managerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, workflow.Command{
		TripID:  tripID,
		ActorID: managerID,
		Trigger: domainwf.TriggerApproveSettlement,
	})
}

// ReturnSettlementForCorrection sends the settlement back to the employee
func (s *tripServiceImpl) ReturnSettlementForCorrection(ctx context.Context, tripID, managerID string) (*entity.Trip, error) {
	if err := requireActor(tripID, managerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, workflow.Command{
		TripID:  tripID,
		ActorID: managerID,
		Trigger: domainwf.TriggerReturnForCorrection,
	})
}

// GetTrip loads a trip together with its settlement
func (s *tripServiceImpl) GetTrip(ctx context.Context, tripID string) (*entity.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	st, err := s.settlements.GetByTripID(ctx, tripID)
	switch {
	case err == nil:
		trip.Settlement = st
	case errors.Is(err, entity.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to load settlement: %w", err)
	}
	return trip, nil
}

// ListTrips lists trips matching filter
func (s *tripServiceImpl) ListTrips(ctx context.Context, filter port.TripFilter) ([]*entity.Trip, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", entity.ErrValidation, filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.trips.List(ctx, filter)
}

// GetEstimatedCost returns the current plan estimate
func (s *tripServiceImpl) GetEstimatedCost(ctx context.Context, tripID string) (*entity.CostEstimate, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	est := trip.Estimate
	return &est, nil
}

// GetSettlementTotals returns totals of the submitted settlement
func (s *tripServiceImpl) GetSettlementTotals(ctx context.Context, tripID string) (*entity.SettlementTotals, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Settlement == nil {
		return nil, fmt.Errorf("%w: trip %s has no submitted settlement", entity.ErrNotFound, tripID)
	}
	totals := cost.SettlementTotals(trip.Settlement.Items, trip.Settlement.Currency)
	return &totals, nil
}

// DraftSettlement returns the ledger the employee would start from: the
// seeded plan, or the previous submission after a return for correction
func (s *tripServiceImpl) DraftSettlement(ctx context.Context, tripID string) (*SettlementDraft, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !domainwf.NewTripMachine(trip.Status).CanFire(domainwf.TriggerSubmitSettlement) {
		return nil, fmt.Errorf("%w: no settlement can be drafted in %s",
			domainwf.ErrInvalidTransition, trip.Status)
	}

	ledger := settlement.FromSettlement(trip)
	return &SettlementDraft{
		TripID: trip.ID,
		Items:  ledger.Items(),
		Totals: ledger.Totals(),
	}, nil
}

// GetHistory returns the audit trail of a trip, oldest first
func (s *tripServiceImpl) GetHistory(ctx context.Context, tripID string) ([]*entity.TripHistory, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	return s.history.GetByTripID(ctx, tripID)
}

func (s *tripServiceImpl) transition(ctx context.Context, cmd workflow.Command) (*entity.Trip, error) {
	trip, err := s.engine.Transition(ctx, cmd)
	if err != nil {
		s.logger.Warn("Trip transition refused",
			"trip_id", cmd.TripID,
			"trigger", cmd.Trigger,
			"actor_id", cmd.ActorID,
			"error", err,
		)
		return nil, err
	}
	return trip, nil
}

// plan resolves reference data into trip and computes its estimate.
// Missing rates, routes and hotels fall back instead of failing.
func (s *tripServiceImpl) plan(ctx context.Context, trip *entity.Trip, in TripPlan) error {
	dest, err := s.reference.GetCity(ctx, in.DestinationCityID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return fmt.Errorf("%w: unknown destination %s", entity.ErrValidation, in.DestinationCityID)
		}
		return fmt.Errorf("failed to resolve destination: %w", err)
	}

	trip.DestinationCityID = dest.ID
	trip.StartDate = dateOnly(in.StartDate)
	trip.EndDate = dateOnly(in.EndDate)
	trip.Purpose = strings.TrimSpace(in.Purpose)
	trip.Transport = nil
	trip.Hotel = nil

	if in.RouteID != "" {
		route, err := s.reference.GetRoute(ctx, in.RouteID)
		switch {
		case err == nil:
			trip.Transport = &entity.TransportSelection{
				RouteID:     route.ID,
				Provider:    route.Provider,
				Kind:        route.Kind,
				OneWayPrice: route.OneWayPrice,
			}
		case errors.Is(err, entity.ErrNotFound):
			s.logger.Warn("Route not found, planning without transport", "route_id", in.RouteID, "trip_id", trip.ID)
		default:
			return fmt.Errorf("failed to resolve route: %w", err)
		}
	}

	if in.HotelID != "" {
		hotel, err := s.reference.GetHotel(ctx, in.HotelID)
		switch {
		case err == nil:
			trip.Hotel = &entity.HotelSelection{
				HotelID:      hotel.ID,
				Name:         hotel.Name,
				NightlyPrice: hotel.NightlyPrice,
			}
		case errors.Is(err, entity.ErrNotFound):
			s.logger.Warn("Hotel not found, planning without hotel", "hotel_id", in.HotelID, "trip_id", trip.ID)
		default:
			return fmt.Errorf("failed to resolve hotel: %w", err)
		}
	}

	rate, err := s.reference.GetPerDiemRate(ctx, dest.CountryID)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return fmt.Errorf("failed to resolve per-diem rate: %w", err)
	}
	perDiem, fallback := s.cfg.Policy.ResolvePerDiemRate(dest.CountryID, rate)
	if fallback {
		s.logger.Warn("Per-diem rate missing, using policy default",
			"country_id", dest.CountryID,
			"rate", perDiem.String(),
		)
	}

	input := cost.Input{
		Start:       trip.StartDate,
		End:         trip.EndDate,
		PerDiemRate: perDiem,
		Currency:    s.cfg.Policy.Currency,
	}
	if trip.Transport != nil {
		input.OneWayPrice = &trip.Transport.OneWayPrice
	}
	if trip.Hotel != nil {
		input.NightlyPrice = &trip.Hotel.NightlyPrice
	}

	est, err := cost.Estimate(input)
	if err != nil {
		return err
	}
	trip.Estimate = est
	return nil
}

func requireOwner(employeeID string) func(*entity.Trip) error {
	return func(trip *entity.Trip) error {
		if !trip.IsOwnedBy(employeeID) {
			return fmt.Errorf("%w: only the requester may change trip %s", entity.ErrInvalidOperation, trip.ID)
		}
		return nil
	}
}

func requireActor(tripID, actorID string) error {
	if strings.TrimSpace(tripID) == "" {
		return fmt.Errorf("%w: trip id is required", entity.ErrValidation)
	}
	if strings.TrimSpace(actorID) == "" {
		return fmt.Errorf("%w: actor id is required", entity.ErrValidation)
	}
	return nil
}
