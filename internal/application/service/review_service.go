package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/business-trip/internal/application/dispatcher"
	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/domain/event"
	"github.com/google/uuid"
)

// ReviewService records an advisory review of every submitted settlement
type ReviewService interface {
	OnSettlementSubmitted(ctx context.Context, evt *event.Event) error
	Register(d dispatcher.Dispatcher)
}

type reviewServiceImpl struct {
	trips    TripService
	history  port.HistoryRepository
	reviewer port.SettlementReviewer
	logger   Logger
	now      func() time.Time
}

// NewReviewService creates a new ReviewService
func NewReviewService(trips TripService, history port.HistoryRepository, reviewer port.SettlementReviewer, logger Logger) ReviewService {
	return &reviewServiceImpl{
		trips:    trips,
		history:  history,
		reviewer: reviewer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeSettlementSubmitted, "ai-settlement-review", s.OnSettlementSubmitted)
}

// OnSettlementSubmitted reviews the settlement and appends the verdict to the trip history
func (s *reviewServiceImpl) OnSettlementSubmitted(ctx context.Context, evt *event.Event) error {
	trip, err := s.trips.GetTrip(ctx, evt.TripID)
	if err != nil {
		return fmt.Errorf("load trip: %w", err)
	}
	if trip.Settlement == nil {
		s.logger.Warn("Settlement vanished before review", "trip_id", evt.TripID)
		return nil
	}

	result, err := s.reviewer.Review(ctx, trip)
	if err != nil {
		return fmt.Errorf("review settlement: %w", err)
	}

	h := &entity.TripHistory{
		ID:         uuid.NewString(),
		TripID:     trip.ID,
		ActorID:    "ai-reviewer",
		Action:     entity.ActionAIReview,
		FromStatus: trip.Status,
		ToStatus:   trip.Status,
		Note:       formatReview(result),
		CreatedAt:  s.now(),
	}
	if err := s.history.Create(ctx, h); err != nil {
		return fmt.Errorf("record review: %w", err)
	}

	s.logger.Info("Settlement reviewed",
		"trip_id", trip.ID,
		"verdict", result.Verdict,
		"confidence", result.Confidence,
		"concerns", len(result.Concerns),
	)
	return nil
}

func formatReview(r *port.ReviewResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (confidence %.2f)", r.Verdict, r.Confidence)
	if r.Summary != "" {
		b.WriteString(": ")
		b.WriteString(r.Summary)
	}
	for _, c := range r.Concerns {
		b.WriteString("\n- ")
		b.WriteString(c)
	}
	return b.String()
}
