package service

import (
	"context"
	"fmt"

	"github.com/garyjia/business-trip/internal/application/dispatcher"
	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/event"
	domainwf "github.com/garyjia/business-trip/internal/domain/workflow"
)

// ReportContentType is the MIME type of settlement workbooks
const ReportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportService produces settlement reconciliation workbooks and archives
// the final one when a trip is settled
type ReportService interface {
	SettlementReport(ctx context.Context, tripID string) (content []byte, filename string, err error)
	OnStatusChanged(ctx context.Context, evt *event.Event) error
	Register(d dispatcher.Dispatcher)
}

type reportServiceImpl struct {
	trips    TripService
	renderer port.ReportRenderer
	storage  port.FileStorage
	logger   Logger
}

// NewReportService creates a new ReportService
func NewReportService(trips TripService, renderer port.ReportRenderer, storage port.FileStorage, logger Logger) ReportService {
	return &reportServiceImpl{
		trips:    trips,
		renderer: renderer,
		storage:  storage,
		logger:   logger,
	}
}

func (s *reportServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeStatusChanged, "archive-settlement-report", s.OnStatusChanged)
}

// SettlementReport returns the archived workbook of a settled trip or renders a fresh one
func (s *reportServiceImpl) SettlementReport(ctx context.Context, tripID string) ([]byte, string, error) {
	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, "", err
	}
	name := reportName(trip.ID)

	if trip.Status == domainwf.StateSettled && s.storage.Exists(ctx, name) {
		content, err := s.storage.Read(ctx, name)
		if err == nil {
			return content, name, nil
		}
		s.logger.Warn("Archived report unreadable, rendering again", "trip_id", trip.ID, "error", err)
	}

	content, err := s.renderer.RenderSettlement(ctx, trip)
	if err != nil {
		return nil, "", err
	}
	return content, name, nil
}

// OnStatusChanged archives the workbook once the settlement is approved
func (s *reportServiceImpl) OnStatusChanged(ctx context.Context, evt *event.Event) error {
	if domainwf.State(evt.GetPayloadString(event.KeyToStatus)) != domainwf.StateSettled {
		return nil
	}

	trip, err := s.trips.GetTrip(ctx, evt.TripID)
	if err != nil {
		return fmt.Errorf("load trip: %w", err)
	}
	content, err := s.renderer.RenderSettlement(ctx, trip)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	name := reportName(trip.ID)
	if err := s.storage.Save(ctx, name, content); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	s.logger.Info("Settlement report archived", "trip_id", trip.ID, "path", s.storage.GetFullPath(name))
	return nil
}

func reportName(tripID string) string {
	return fmt.Sprintf("settlement-%s.xlsx", tripID)
}
