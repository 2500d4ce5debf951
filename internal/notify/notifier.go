package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Event names delivered to the notification sink.
type Event string

const (
	EventResponseSubmitted   Event = "quote_response.submitted"
	EventResponseShortlisted Event = "quote_response.shortlisted"
	EventResponseAccepted    Event = "quote_response.accepted"
	EventResponseRejected    Event = "quote_response.rejected"
	EventRequestExpired      Event = "quote_request.expired"
)

// Notifier announces quote lifecycle events. Delivery is fire-and-forget:
// implementations never return an error to the caller and must not be invoked
// inside a database transaction.
type Notifier interface {
	Notify(ctx context.Context, event Event, requestID uuid.UUID, responseID *uuid.UUID)
}

// LogNotifier writes events to the log. Used in tests and when no delivery
// queue is wired.
type LogNotifier struct {
	Log *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, event Event, requestID uuid.UUID, responseID *uuid.UUID) {
	log := n.Log
	if log == nil {
		log = slog.Default()
	}
	if responseID != nil {
		log.Info("notification", "event", string(event), "request_id", requestID, "response_id", *responseID)
		return
	}
	log.Info("notification", "event", string(event), "request_id", requestID)
}
