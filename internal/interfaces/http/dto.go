package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/business-trip/internal/application/service"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/settlement"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// TripPlanRequest is the editable plan of a trip
type TripPlanRequest struct {
	DestinationCityID string `json:"destination_city_id" binding:"required"`
	StartDate         string `json:"start_date" binding:"required"`
	EndDate           string `json:"end_date" binding:"required"`
	Purpose           string `json:"purpose" binding:"required"`
	RouteID           string `json:"route_id"`
	HotelID           string `json:"hotel_id"`
}

// CreateTripRequest is the body of POST /api/trips
type CreateTripRequest struct {
	RequesterID string `json:"requester_id" binding:"required"`
	TripPlanRequest
}

// ReviseTripRequest is the body of PUT /api/trips/:id
type ReviseTripRequest struct {
	RequesterID string `json:"requester_id" binding:"required"`
	TripPlanRequest
}

// ManagerRequest is the body of manager decisions
type ManagerRequest struct {
	ManagerID string `json:"manager_id" binding:"required"`
}

// RejectRequest is the body of POST /api/trips/:id/reject. An empty reason
// reaches the service, which reports it as a validation error.
type RejectRequest struct {
	ManagerID string `json:"manager_id" binding:"required"`
	Reason    string `json:"reason"`
}

// ItemRequest is one settlement line in a submission
type ItemRequest struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Amount      string `json:"amount" binding:"required"`
	Payer       string `json:"payer"`
	ReceiptRef  string `json:"receipt_ref"`
}

// SubmitSettlementRequest is the body of POST /api/trips/:id/settlement
type SubmitSettlementRequest struct {
	EmployeeID string        `json:"employee_id" binding:"required"`
	Items      []ItemRequest `json:"items"`
}

func (r TripPlanRequest) toPlan() (service.TripPlan, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return service.TripPlan{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return service.TripPlan{}, err
	}
	return service.TripPlan{
		DestinationCityID: r.DestinationCityID,
		StartDate:         start,
		EndDate:           end,
		Purpose:           r.Purpose,
		RouteID:           r.RouteID,
		HotelID:           r.HotelID,
	}, nil
}

func (r SubmitSettlementRequest) toInput(tripID string) (service.SubmitSettlementInput, error) {
	in := service.SubmitSettlementInput{TripID: tripID, EmployeeID: r.EmployeeID}
	for i, item := range r.Items {
		amount, err := decimal.NewFromString(strings.TrimSpace(item.Amount))
		if err != nil {
			return in, fmt.Errorf("%w: items[%d].amount %q is not a number", entity.ErrValidation, i, item.Amount)
		}
		in.Items = append(in.Items, settlement.ItemInput{
			Kind:        entity.ItemKind(strings.ToLower(item.Kind)),
			Description: item.Description,
			Amount:      amount,
			Payer:       entity.Payer(strings.ToUpper(item.Payer)),
			ReceiptRef:  item.ReceiptRef,
		})
	}
	return in, nil
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", entity.ErrValidation, field)
	}
	return d, nil
}

// TripResponse represents a trip in API responses
type TripResponse struct {
	ID                string              `json:"id"`
	RequesterID       string              `json:"requester_id"`
	OriginCityID      string              `json:"origin_city_id"`
	DestinationCityID string              `json:"destination_city_id"`
	StartDate         string              `json:"start_date"`
	EndDate           string              `json:"end_date"`
	Purpose           string              `json:"purpose"`
	Status            string              `json:"status"`
	StatusCode        int                 `json:"status_code"`
	Transport         *TransportResponse  `json:"transport,omitempty"`
	Hotel             *HotelResponse      `json:"hotel,omitempty"`
	Estimate          EstimateResponse    `json:"estimate"`
	RejectionReason   string              `json:"rejection_reason,omitempty"`
	Settlement        *SettlementResponse `json:"settlement,omitempty"`
	Version           int64               `json:"version"`
	CreatedAt         string              `json:"created_at"`
	UpdatedAt         string              `json:"updated_at"`
}

// TransportResponse is the booked route
type TransportResponse struct {
	RouteID     string `json:"route_id"`
	Provider    string `json:"provider"`
	Kind        string `json:"kind"`
	OneWayPrice string `json:"one_way_price"`
}

// HotelResponse is the booked hotel
type HotelResponse struct {
	HotelID      string `json:"hotel_id"`
	Name         string `json:"name"`
	NightlyPrice string `json:"nightly_price"`
}

// EstimateResponse is the planned cost; only the total is rounded
type EstimateResponse struct {
	Transport   string `json:"transport"`
	Hotel       string `json:"hotel"`
	PerDiem     string `json:"per_diem"`
	Total       string `json:"total"`
	Days        int    `json:"days"`
	Nights      int    `json:"nights"`
	PerDiemRate string `json:"per_diem_rate"`
	Currency    string `json:"currency"`
}

// ItemResponse is one settlement line
type ItemResponse struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	Payer           string `json:"payer"`
	SystemGenerated bool   `json:"system_generated"`
	ReadOnly        bool   `json:"read_only"`
	ReceiptRef      string `json:"receipt_ref,omitempty"`
}

// TotalsResponse are the settlement totals
type TotalsResponse struct {
	TotalAmount          string `json:"total_amount"`
	AmountOwedToEmployee string `json:"amount_owed_to_employee"`
	Currency             string `json:"currency"`
}

// SettlementResponse is a submitted settlement
type SettlementResponse struct {
	Items       []ItemResponse `json:"items"`
	Totals      TotalsResponse `json:"totals"`
	SubmittedAt string         `json:"submitted_at"`
	ApprovedAt  *string        `json:"approved_at,omitempty"`
}

// DraftResponse is the ledger offered before submitting
type DraftResponse struct {
	TripID string         `json:"trip_id"`
	Items  []ItemResponse `json:"items"`
	Totals TotalsResponse `json:"totals"`
}

// HistoryResponse is one audit trail entry
type HistoryResponse struct {
	ID         string `json:"id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status"`
	Note       string `json:"note,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toTripResponse(t *entity.Trip) TripResponse {
	resp := TripResponse{
		ID:                t.ID,
		RequesterID:       t.RequesterID,
		OriginCityID:      t.OriginCityID,
		DestinationCityID: t.DestinationCityID,
		StartDate:         t.StartDate.Format(entity.DateLayout),
		EndDate:           t.EndDate.Format(entity.DateLayout),
		Purpose:           t.Purpose,
		Status:            t.Status.String(),
		StatusCode:        t.Status.Code(),
		Estimate:          toEstimateResponse(t.Estimate),
		RejectionReason:   t.RejectionReason,
		Version:           t.Version,
		CreatedAt:         t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if t.Transport != nil {
		resp.Transport = &TransportResponse{
			RouteID:     t.Transport.RouteID,
			Provider:    t.Transport.Provider,
			Kind:        t.Transport.Kind,
			OneWayPrice: t.Transport.OneWayPrice.String(),
		}
	}
	if t.Hotel != nil {
		resp.Hotel = &HotelResponse{
			HotelID:      t.Hotel.HotelID,
			Name:         t.Hotel.Name,
			NightlyPrice: t.Hotel.NightlyPrice.String(),
		}
	}
	if s := t.Settlement; s != nil {
		sr := &SettlementResponse{
			Items:       toItemResponses(s.Items),
			Totals:      toTotalsResponse(s.Totals()),
			SubmittedAt: s.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if s.ApprovedAt != nil {
			at := s.ApprovedAt.UTC().Format(time.RFC3339)
			sr.ApprovedAt = &at
		}
		resp.Settlement = sr
	}
	return resp
}

func toEstimateResponse(e entity.CostEstimate) EstimateResponse {
	return EstimateResponse{
		Transport:   e.Transport.String(),
		Hotel:       e.Hotel.String(),
		PerDiem:     e.PerDiem.String(),
		Total:       e.Total.StringFixed(2),
		Days:        e.Days,
		Nights:      e.Nights,
		PerDiemRate: e.PerDiemRate.String(),
		Currency:    e.Currency,
	}
}

func toItemResponses(items []entity.LineItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ItemResponse{
			ID:              item.ID,
			Kind:            string(item.Kind),
			Description:     item.Description,
			Amount:          item.Amount.String(),
			Payer:           string(item.Payer),
			SystemGenerated: item.SystemGenerated,
			ReadOnly:        item.ReadOnly,
			ReceiptRef:      item.ReceiptRef,
		})
	}
	return out
}

func toTotalsResponse(t entity.SettlementTotals) TotalsResponse {
	return TotalsResponse{
		TotalAmount:          t.TotalAmount.StringFixed(2),
		AmountOwedToEmployee: t.AmountOwedToEmployee.StringFixed(2),
		Currency:             t.Currency,
	}
}

func toHistoryResponses(records []*entity.TripHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(records))
	for _, r := range records {
		out = append(out, HistoryResponse{
			ID:         r.ID,
			ActorID:    r.ActorID,
			Action:     r.Action,
			FromStatus: r.FromStatus.String(),
			ToStatus:   r.ToStatus.String(),
			Note:       r.Note,
			CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
