package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/PrathamRanjan/meeting-booking-app/pkg/model"
)

const (
	TypeBookingCreated = "booking.created"

	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
)

// Event is the envelope published for every accepted booking. Consumers key
// on event_type; event_id makes redelivery detectable.
type Event struct {
	EventID    string                `json:"event_id"`
	EventType  string                `json:"event_type"`
	Source     string                `json:"source"`
	OccurredAt time.Time             `json:"occurred_at"`
	Booking    model.BookingResponse `json:"booking"`
}

func NewBookingCreated(source string, booking *model.Booking) Event {
	return Event{
		EventID:    uuid.NewString(),
		EventType:  TypeBookingCreated,
		Source:     source,
		OccurredAt: time.Now(),
		Booking:    model.NewBookingResponse(booking),
	}
}
