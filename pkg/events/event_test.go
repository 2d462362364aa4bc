package events

import (
	"testing"
	"time"

	"github.com/PrathamRanjan/meeting-booking-app/pkg/model"
)

func TestNewBookingCreated(t *testing.T) {
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.Local)
	booking := &model.Booking{
		ID:        "665f1f77bcf86cd799439011",
		Room:      "KINABALU",
		User:      "alice",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}

	event := NewBookingCreated("bookings", booking)

	if event.EventID == "" {
		t.Error("expected a generated event ID")
	}
	if event.EventType != TypeBookingCreated {
		t.Errorf("event type = %q, want %q", event.EventType, TypeBookingCreated)
	}
	if event.Source != "bookings" {
		t.Errorf("source = %q, want %q", event.Source, "bookings")
	}
	if event.Booking.Room != "KINABALU" {
		t.Errorf("booking room = %q, want %q", event.Booking.Room, "KINABALU")
	}
	if event.Booking.StartTime != "2026-06-01 09:00" {
		t.Errorf("booking start time = %q, want %q", event.Booking.StartTime, "2026-06-01 09:00")
	}

	other := NewBookingCreated("bookings", booking)
	if other.EventID == event.EventID {
		t.Error("event IDs should be unique per event")
	}
}
