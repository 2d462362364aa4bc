package validator

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PrathamRanjan/meeting-booking-app/pkg/logger"
	"github.com/PrathamRanjan/meeting-booking-app/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

// tomorrowAt builds a civil time string for tomorrow at the given clock time.
func tomorrowAt(hour, minute int) string {
	tomorrow := time.Now().AddDate(0, 0, 1)
	at := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, minute, 0, 0, time.Local)
	return at.Format(model.TimeLayout)
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		Room:      "EVEREST",
		User:      "john_doe",
		StartTime: tomorrowAt(10, 0),
		EndTime:   tomorrowAt(11, 0),
	}
}

func TestValidateCreate_Success(t *testing.T) {
	v := NewBookingValidator(testLogger())

	booking, err := v.ValidateCreate(validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Room != "EVEREST" {
		t.Errorf("room = %q, want %q", booking.Room, "EVEREST")
	}
	if booking.User != "john_doe" {
		t.Errorf("user = %q, want %q", booking.User, "john_doe")
	}
	if !booking.EndTime.After(booking.StartTime) {
		t.Errorf("end %v not after start %v", booking.EndTime, booking.StartTime)
	}
	if booking.StartTime.Format(model.TimeLayout) != tomorrowAt(10, 0) {
		t.Errorf("start round-trip mismatch: %v", booking.StartTime)
	}
}

func TestValidateCreate_SeparatorVariants(t *testing.T) {
	v := NewBookingValidator(testLogger())

	for _, sep := range []string{"T", "%20"} {
		t.Run("separator "+sep, func(t *testing.T) {
			req := validRequest()
			req.StartTime = strings.Replace(req.StartTime, " ", sep, 1)
			req.EndTime = strings.Replace(req.EndTime, " ", sep, 1)

			booking, err := v.ValidateCreate(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if booking.StartTime.Hour() != 10 || booking.EndTime.Hour() != 11 {
				t.Errorf("parsed wrong times: %v - %v", booking.StartTime, booking.EndTime)
			}
		})
	}
}

func TestValidateCreate_Rejections(t *testing.T) {
	v := NewBookingValidator(testLogger())

	yesterday := time.Now().AddDate(0, 0, -1)
	farFuture := time.Now().AddDate(0, 0, 400)

	tests := []struct {
		name    string
		mutate  func(req *model.BookingRequest)
		wantMsg string
	}{
		{
			name:    "blank room",
			mutate:  func(req *model.BookingRequest) { req.Room = "   " },
			wantMsg: "Room cannot be empty",
		},
		{
			name:    "blank user",
			mutate:  func(req *model.BookingRequest) { req.User = "" },
			wantMsg: "User cannot be empty",
		},
		{
			name:    "lowercase room",
			mutate:  func(req *model.BookingRequest) { req.Room = "everest" },
			wantMsg: "MACRO_CASE",
		},
		{
			name:    "mixed case room",
			mutate:  func(req *model.BookingRequest) { req.Room = "Everest" },
			wantMsg: "MACRO_CASE",
		},
		{
			name:    "room too long",
			mutate:  func(req *model.BookingRequest) { req.Room = strings.Repeat("A", 51) },
			wantMsg: "50 characters or less",
		},
		{
			name:    "room with digits",
			mutate:  func(req *model.BookingRequest) { req.Room = "EVEREST123" },
			wantMsg: "uppercase letters and underscores",
		},
		{
			name:    "unparseable start time",
			mutate:  func(req *model.BookingRequest) { req.StartTime = "tomorrow at ten" },
			wantMsg: "Invalid start_time format",
		},
		{
			name:    "unparseable end time",
			mutate:  func(req *model.BookingRequest) { req.EndTime = "2026-13-45 10:00" },
			wantMsg: "Invalid end_time format",
		},
		{
			name:    "start minute off grid",
			mutate:  func(req *model.BookingRequest) { req.StartTime = tomorrowAt(10, 5) },
			wantMsg: "Start time minutes must be in 10 minute increments",
		},
		{
			name:    "end minute off grid",
			mutate:  func(req *model.BookingRequest) { req.EndTime = tomorrowAt(11, 15) },
			wantMsg: "End time minutes must be in 10 minute increments",
		},
		{
			name: "end equals start",
			mutate: func(req *model.BookingRequest) {
				req.EndTime = req.StartTime
			},
			wantMsg: "End time must be after start time",
		},
		{
			name: "end before start",
			mutate: func(req *model.BookingRequest) {
				req.StartTime = tomorrowAt(11, 0)
				req.EndTime = tomorrowAt(10, 0)
			},
			wantMsg: "End time must be after start time",
		},
		{
			name: "start in the past",
			mutate: func(req *model.BookingRequest) {
				req.StartTime = time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 10, 0, 0, 0, time.Local).Format(model.TimeLayout)
				req.EndTime = time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 11, 0, 0, 0, time.Local).Format(model.TimeLayout)
			},
			wantMsg: "past",
		},
		{
			name: "start beyond one year",
			mutate: func(req *model.BookingRequest) {
				req.StartTime = time.Date(farFuture.Year(), farFuture.Month(), farFuture.Day(), 10, 0, 0, 0, time.Local).Format(model.TimeLayout)
				req.EndTime = time.Date(farFuture.Year(), farFuture.Month(), farFuture.Day(), 11, 0, 0, 0, time.Local).Format(model.TimeLayout)
			},
			wantMsg: "1 year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			booking, err := v.ValidateCreate(req)
			if err == nil {
				t.Fatalf("expected rejection, got booking %+v", booking)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateCreate_CheckOrderIsFixed(t *testing.T) {
	v := NewBookingValidator(testLogger())

	// Every field is invalid; the room emptiness check must win.
	req := &model.BookingRequest{Room: " ", User: "", StartTime: "bogus", EndTime: "bogus"}
	_, err := v.ValidateCreate(req)
	if err == nil || !strings.Contains(err.Error(), "Room cannot be empty") {
		t.Errorf("expected room emptiness to be reported first, got %v", err)
	}

	// Case check precedes the charset check.
	req = validRequest()
	req.Room = "everest123"
	_, err = v.ValidateCreate(req)
	if err == nil || !strings.Contains(err.Error(), "MACRO_CASE") {
		t.Errorf("expected case check before charset check, got %v", err)
	}

	// Bad room precedes bad minutes.
	req = validRequest()
	req.Room = "everest"
	req.StartTime = tomorrowAt(10, 5)
	_, err = v.ValidateCreate(req)
	if err == nil || !strings.Contains(err.Error(), "MACRO_CASE") {
		t.Errorf("expected room check before minute check, got %v", err)
	}
}

func TestValidateCreate_IdempotentRejection(t *testing.T) {
	v := NewBookingValidator(testLogger())

	req := validRequest()
	req.StartTime = tomorrowAt(10, 5)

	_, first := v.ValidateCreate(req)
	_, second := v.ValidateCreate(req)
	if first == nil || second == nil {
		t.Fatal("expected both attempts to be rejected")
	}
	if first.Error() != second.Error() {
		t.Errorf("rejection not idempotent: %q vs %q", first.Error(), second.Error())
	}
}

func TestValidateCreate_MinuteIncrementBoundary(t *testing.T) {
	v := NewBookingValidator(testLogger())

	for minute := 0; minute < 60; minute += 10 {
		t.Run(fmt.Sprintf("minute %02d accepted", minute), func(t *testing.T) {
			req := validRequest()
			req.StartTime = tomorrowAt(10, minute)
			req.EndTime = tomorrowAt(12, minute)
			if _, err := v.ValidateCreate(req); err != nil {
				t.Errorf("minute %d should be accepted: %v", minute, err)
			}
		})
	}

	for _, minute := range []int{1, 5, 15, 29, 59} {
		t.Run(fmt.Sprintf("minute %02d rejected", minute), func(t *testing.T) {
			req := validRequest()
			req.StartTime = tomorrowAt(10, minute)
			if _, err := v.ValidateCreate(req); err == nil {
				t.Errorf("minute %d should be rejected", minute)
			}
		})
	}
}

func TestValidateCreate_UnderscoreOnlyRoom(t *testing.T) {
	v := NewBookingValidator(testLogger())

	req := validRequest()
	req.Room = "___"
	if _, err := v.ValidateCreate(req); err != nil {
		t.Errorf("underscore-only room should pass both case and charset checks: %v", err)
	}
}

func TestValidateQuery(t *testing.T) {
	v := NewBookingValidator(testLogger())

	tests := []struct {
		name    string
		date    string
		room    string
		user    string
		wantMsg string
	}{
		{"both filters", "2026-12-10", "EVEREST", "john", "exactly one filter"},
		{"no filter", "2026-12-10", "", "", "exactly one filter"},
		{"bad date", "12/10/2026", "EVEREST", "", "Invalid date format"},
		{"lowercase room", "2026-12-10", "everest", "", "MACRO_CASE"},
		{"valid room filter", "2026-12-10", "EVEREST", "", ""},
		{"valid user filter", "2026-12-10", "", "john_doe", ""},
		// Query filters skip the creation-time charset rule.
		{"room with digits allowed here", "2026-12-10", "EVEREST123", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dayStart, dayEnd, err := v.ValidateQuery(tt.date, tt.room, tt.user)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !dayEnd.Equal(dayStart.AddDate(0, 0, 1)) {
					t.Errorf("window [%v, %v) is not one day", dayStart, dayEnd)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %v does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseCivilTime(t *testing.T) {
	want := time.Date(2026, 12, 10, 14, 30, 0, 0, time.Local)

	for _, input := range []string{
		"2026-12-10 14:30",
		"2026-12-10T14:30",
		"2026-12-10%2014:30",
	} {
		got, err := ParseCivilTime(input)
		if err != nil {
			t.Errorf("ParseCivilTime(%q) failed: %v", input, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseCivilTime(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseCivilTime("2026-12-10 14:30:00"); err == nil {
		t.Error("seconds should not be accepted")
	}
}

func TestValidateBooking_StructGuard(t *testing.T) {
	v := NewBookingValidator(testLogger())

	start := time.Now().AddDate(0, 0, 1)
	good := &model.Booking{
		Room:      "EVEREST",
		User:      "john_doe",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
	if err := v.ValidateBooking(good); err != nil {
		t.Errorf("valid booking rejected by struct guard: %v", err)
	}

	bad := &model.Booking{
		Room:      "everest",
		User:      "john_doe",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
	if err := v.ValidateBooking(bad); err == nil {
		t.Error("room_name tag should reject lowercase rooms")
	}
}
