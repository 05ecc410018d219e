package entity

import (
	"time"

	"github.com/garyjia/business-trip/internal/domain/workflow"
)

// History actions that are not workflow triggers
const (
	ActionCreated  = "CREATED"
	ActionAIReview = "AI_REVIEW"
)

// TripHistory is one entry in the audit trail of a trip
type TripHistory struct {
	ID         string         `json:"id"`
	TripID     string         `json:"trip_id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	FromStatus workflow.State `json:"from_status,omitempty"`
	ToStatus   workflow.State `json:"to_status"`
	Note       string         `json:"note,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
