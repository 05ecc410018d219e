package entity

import (
	"time"

	"github.com/garyjia/business-trip/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used at every boundary
const DateLayout = "2006-01-02"

// Trip is one business-trip request and the aggregate root for its settlement
type Trip struct {
	ID                string              `json:"id"`
	RequesterID       string              `json:"requester_id"`
	OriginCityID      string              `json:"origin_city_id"`
	DestinationCityID string              `json:"destination_city_id"`
	StartDate         time.Time           `json:"start_date"`
	EndDate           time.Time           `json:"end_date"`
	Purpose           string              `json:"purpose"`
	Status            workflow.State      `json:"status"`
	Transport         *TransportSelection `json:"transport,omitempty"`
	Hotel             *HotelSelection     `json:"hotel,omitempty"`
	Estimate          CostEstimate        `json:"estimate"`
	RejectionReason   string              `json:"rejection_reason,omitempty"`
	Settlement        *Settlement         `json:"settlement,omitempty"`
	Version           int64               `json:"version"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// TransportSelection is the route chosen for the trip, priced one way
type TransportSelection struct {
	RouteID     string          `json:"route_id"`
	Provider    string          `json:"provider"`
	Kind        string          `json:"kind"`
	OneWayPrice decimal.Decimal `json:"one_way_price"`
}

// HotelSelection is the hotel chosen for the trip
type HotelSelection struct {
	HotelID      string          `json:"hotel_id"`
	Name         string          `json:"name"`
	NightlyPrice decimal.Decimal `json:"nightly_price"`
}

// CostEstimate is the planned cost of a trip. Components are unrounded;
// Total is rounded to the currency minor unit.
type CostEstimate struct {
	Transport   decimal.Decimal `json:"transport"`
	Hotel       decimal.Decimal `json:"hotel"`
	PerDiem     decimal.Decimal `json:"per_diem"`
	Total       decimal.Decimal `json:"total"`
	Days        int             `json:"days"`
	Nights      int             `json:"nights"`
	PerDiemRate decimal.Decimal `json:"per_diem_rate"`
	Currency    string          `json:"currency"`
}

// HasHotel reports whether a hotel is booked
func (t *Trip) HasHotel() bool {
	return t.Hotel != nil
}

// HasTransport reports whether a route is booked
func (t *Trip) HasTransport() bool {
	return t.Transport != nil
}

// IsOwnedBy reports whether employeeID is the requester
func (t *Trip) IsOwnedBy(employeeID string) bool {
	return t.RequesterID == employeeID
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (t *Trip) Clone() *Trip {
	cp := *t
	if t.Transport != nil {
		tr := *t.Transport
		cp.Transport = &tr
	}
	if t.Hotel != nil {
		h := *t.Hotel
		cp.Hotel = &h
	}
	if t.Settlement != nil {
		cp.Settlement = t.Settlement.Clone()
	}
	return &cp
}
