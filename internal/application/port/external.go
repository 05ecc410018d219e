package port

import (
	"context"

	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ReferenceDataProvider reads the admin-owned catalog. Every lookup returns
// ErrNotFound for unknown ids.
type ReferenceDataProvider interface {
	GetCity(ctx context.Context, cityID string) (*entity.City, error)

	// GetPerDiemRate returns nil when the country has no rate configured
	GetPerDiemRate(ctx context.Context, countryID string) (*decimal.Decimal, error)

	// GetRoute returns the route with its one-way price
	GetRoute(ctx context.Context, routeID string) (*entity.Route, error)

	// GetHotel returns the hotel with its nightly price
	GetHotel(ctx context.Context, hotelID string) (*entity.Hotel, error)
}

// Notifier delivers plain-text trip notifications
type Notifier interface {
	// NotifyUser messages one employee
	NotifyUser(ctx context.Context, userID string, text string) error

	// NotifyApprovers messages the manager chat
	NotifyApprovers(ctx context.Context, text string) error
}

// ReviewVerdict is the advisory outcome of a settlement review
type ReviewVerdict string

const (
	VerdictConsistent     ReviewVerdict = "CONSISTENT"
	VerdictNeedsAttention ReviewVerdict = "NEEDS_ATTENTION"
)

// ReviewResult is what the advisory reviewer thinks of a submitted settlement
type ReviewResult struct {
	Verdict    ReviewVerdict `json:"verdict"`
	Concerns   []string      `json:"concerns"`
	Summary    string        `json:"summary"`
	Confidence float64       `json:"confidence"`
}

// SettlementReviewer compares a submitted settlement with the trip plan.
// Its result is advisory and never changes trip state.
type SettlementReviewer interface {
	Review(ctx context.Context, trip *entity.Trip) (*ReviewResult, error)
}

// ReportRenderer renders the settlement reconciliation workbook of a trip
type ReportRenderer interface {
	RenderSettlement(ctx context.Context, trip *entity.Trip) ([]byte, error)
}
