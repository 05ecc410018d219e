package service

import (
	"context"
	"fmt"

	"github.com/garyjia/business-trip/internal/application/dispatcher"
	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/event"
	domainwf "github.com/garyjia/business-trip/internal/domain/workflow"
)

// NotificationService turns trip events into chat messages
type NotificationService interface {
	OnTripCreated(ctx context.Context, evt *event.Event) error
	OnStatusChanged(ctx context.Context, evt *event.Event) error
	OnSettlementSubmitted(ctx context.Context, evt *event.Event) error

	// Register subscribes the handlers above
	Register(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	notifier port.Notifier
	logger   Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifier port.Notifier, logger Logger) NotificationService {
	return &notificationServiceImpl{
		notifier: notifier,
		logger:   logger,
	}
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeTripCreated, "notify-approvers-created", s.OnTripCreated)
	d.SubscribeNamed(event.TypeStatusChanged, "notify-requester-status", s.OnStatusChanged)
	d.SubscribeNamed(event.TypeSettlementSubmitted, "notify-approvers-settlement", s.OnSettlementSubmitted)
}

// OnTripCreated asks the approvers to review a new request
func (s *notificationServiceImpl) OnTripCreated(ctx context.Context, evt *event.Event) error {
	text := fmt.Sprintf("New business trip request %s from %s to %s, estimated %s. Please approve or reject.",
		evt.TripID,
		evt.GetPayloadString(event.KeyRequesterID),
		evt.GetPayloadString(event.KeyDestination),
		evt.GetPayloadString(event.KeyTotal),
	)
	if err := s.notifier.NotifyApprovers(ctx, text); err != nil {
		return fmt.Errorf("notify approvers: %w", err)
	}
	s.logger.Info("Approvers notified of new trip", "trip_id", evt.TripID)
	return nil
}

// OnStatusChanged tells the requester where the trip went
func (s *notificationServiceImpl) OnStatusChanged(ctx context.Context, evt *event.Event) error {
	requester := evt.GetPayloadString(event.KeyRequesterID)
	if requester == "" {
		s.logger.Warn("Status change without requester, skipping notification", "trip_id", evt.TripID)
		return nil
	}

	text := statusMessage(evt)
	if err := s.notifier.NotifyUser(ctx, requester, text); err != nil {
		return fmt.Errorf("notify requester %s: %w", requester, err)
	}
	s.logger.Info("Requester notified of status change",
		"trip_id", evt.TripID,
		"requester_id", requester,
		"to_status", evt.GetPayloadString(event.KeyToStatus),
	)
	return nil
}

// OnSettlementSubmitted asks the approvers to review the settlement
func (s *notificationServiceImpl) OnSettlementSubmitted(ctx context.Context, evt *event.Event) error {
	text := fmt.Sprintf("Settlement for trip %s submitted by %s: total %s, owed to employee %s.",
		evt.TripID,
		evt.GetPayloadString(event.KeyRequesterID),
		evt.GetPayloadString(event.KeyTotal),
		evt.GetPayloadString(event.KeyOwed),
	)
	if err := s.notifier.NotifyApprovers(ctx, text); err != nil {
		return fmt.Errorf("notify approvers: %w", err)
	}
	return nil
}

func statusMessage(evt *event.Event) string {
	to := domainwf.State(evt.GetPayloadString(event.KeyToStatus))
	switch to {
	case domainwf.StateApproved:
		return fmt.Sprintf("Your business trip %s was approved. Submit the settlement after you return.", evt.TripID)
	case domainwf.StateRejected:
		return fmt.Sprintf("Your business trip %s was rejected: %s", evt.TripID, evt.GetPayloadString(event.KeyReason))
	case domainwf.StateSentForSettlement:
		return fmt.Sprintf("The settlement of trip %s was sent for approval.", evt.TripID)
	case domainwf.StateNeedsCorrection:
		return fmt.Sprintf("The settlement of trip %s was returned for correction.", evt.TripID)
	case domainwf.StateSettled:
		return fmt.Sprintf("The settlement of trip %s was approved. The trip is closed.", evt.TripID)
	default:
		return fmt.Sprintf("Trip %s moved to %s.", evt.TripID, to)
	}
}
