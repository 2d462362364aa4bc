package model

import (
	"time"
)

// Civil timestamp layouts shared by the API and the validator. Times carry
// no timezone; server and clients are assumed to share one local clock.
const (
	TimeLayout = "2006-01-02 15:04"
	DateLayout = "2006-01-02"
)

// Booking is the sole persisted entity. Records are created through the
// booking service's accept path and never mutated or deleted afterwards.
type Booking struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Room      string    `json:"room" bson:"room" validate:"required,room_name"`
	User      string    `json:"user" bson:"user" validate:"required"`
	StartTime time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at" validate:"omitempty"`
}

// BookingRequest is the wire shape of a create call. Times arrive as text in
// the YYYY-MM-DD HH:MM layout, tolerating "T" or an URL-encoded space as the
// date/time separator.
type BookingRequest struct {
	Room      string `json:"room"`
	User      string `json:"user"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// BookingResponse renders a persisted booking with its times back in the
// canonical layout, so a created record's fields match the request text.
type BookingResponse struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	User      string `json:"user"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func NewBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		Room:      b.Room,
		User:      b.User,
		StartTime: b.StartTime.Format(TimeLayout),
		EndTime:   b.EndTime.Format(TimeLayout),
	}
}

func NewBookingResponses(bookings []*Booking) []BookingResponse {
	responses := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, NewBookingResponse(b))
	}
	return responses
}

// DayWindow returns the half-open calendar-day interval [00:00, next 00:00)
// containing t, in t's own clock.
func DayWindow(t time.Time) (time.Time, time.Time) {
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return dayStart, dayStart.AddDate(0, 0, 1)
}
