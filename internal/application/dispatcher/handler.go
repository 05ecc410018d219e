package dispatcher

import (
	"context"

	"github.com/garyjia/business-trip/internal/domain/event"
)

// Handler reacts to a committed trip event
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a subscription
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
