package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/settlement"
)

// TripPlan is the editable part of a trip request
type TripPlan struct {
	DestinationCityID string
	StartDate         time.Time
	EndDate           time.Time
	Purpose           string
	RouteID           string
	HotelID           string
}

// CreateTripInput is the input of CreateTrip
type CreateTripInput struct {
	RequesterID string
	TripPlan
}

// ReviseTripInput is the input of ReviseTrip
type ReviseTripInput struct {
	TripID      string
	RequesterID string
	TripPlan
}

// SubmitSettlementInput is the input of SubmitSettlement
type SubmitSettlementInput struct {
	TripID     string
	EmployeeID string
	Items      []settlement.ItemInput
}

// Validate checks required fields and that the dates are on or after bookedOn
func (in CreateTripInput) Validate(bookedOn time.Time) error {
	if strings.TrimSpace(in.RequesterID) == "" {
		return fmt.Errorf("%w: requester id is required", entity.ErrValidation)
	}
	return in.TripPlan.validate(bookedOn)
}

// Validate checks required fields and that the dates are on or after the trip's creation day
func (in ReviseTripInput) Validate(createdAt time.Time) error {
	if strings.TrimSpace(in.RequesterID) == "" {
		return fmt.Errorf("%w: requester id is required", entity.ErrValidation)
	}
	return in.TripPlan.validate(createdAt)
}

func (p TripPlan) validate(bookedOn time.Time) error {
	if strings.TrimSpace(p.DestinationCityID) == "" {
		return fmt.Errorf("%w: destination is required", entity.ErrValidation)
	}
	if strings.TrimSpace(p.Purpose) == "" {
		return fmt.Errorf("%w: purpose is required", entity.ErrValidation)
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", entity.ErrValidation)
	}

	start, end := dateOnly(p.StartDate), dateOnly(p.EndDate)
	if end.Before(start) {
		return fmt.Errorf("%w: end date must not be before start date", entity.ErrValidation)
	}
	if start.Before(dateOnly(bookedOn)) {
		return fmt.Errorf("%w: start date %s is in the past", entity.ErrValidation, start.Format(entity.DateLayout))
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
