package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/PrathamRanjan/meeting-booking-app/pkg/errors"
	"github.com/PrathamRanjan/meeting-booking-app/pkg/logger"
	"github.com/PrathamRanjan/meeting-booking-app/pkg/model"
)

const (
	maxRoomNameLength = 50

	// Bookings may start at most a year out and must land on 10-minute
	// boundaries.
	maxAdvance      = 365 * 24 * time.Hour
	minuteIncrement = 10
)

var roomNameRegex = regexp.MustCompile(`^[A-Z_]+$`)

type BookingValidator struct {
	validate *validator.Validate
	log      *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("room_name", validateRoomName); err != nil {
		log.Fatal("Failed to register 'room_name' validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		log:      log,
	}
}

func validateRoomName(fl validator.FieldLevel) bool {
	room := fl.Field().String()
	return len(room) <= maxRoomNameLength && roomNameRegex.MatchString(room)
}

// ValidateCreate checks a candidate booking in a fixed order, stopping at the
// first failure so rejection reasons stay deterministic. On success it
// returns the fully typed candidate; it performs no I/O either way.
func (v *BookingValidator) ValidateCreate(req *model.BookingRequest) (*model.Booking, error) {
	if strings.TrimSpace(req.Room) == "" {
		return nil, apperrors.InvalidInput("Room cannot be empty")
	}
	if strings.TrimSpace(req.User) == "" {
		return nil, apperrors.InvalidInput("User cannot be empty")
	}

	if req.Room != strings.ToUpper(req.Room) {
		return nil, apperrors.InvalidInput("Room must be in MACRO_CASE")
	}
	if len(req.Room) > maxRoomNameLength {
		return nil, apperrors.InvalidInput("Room name must be 50 characters or less")
	}
	if !roomNameRegex.MatchString(req.Room) {
		return nil, apperrors.InvalidInput("Room name must contain only uppercase letters and underscores")
	}

	start, err := ParseCivilTime(req.StartTime)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid start_time format, use YYYY-MM-DD HH:MM")
	}
	end, err := ParseCivilTime(req.EndTime)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid end_time format, use YYYY-MM-DD HH:MM")
	}

	if start.Minute()%minuteIncrement != 0 {
		return nil, apperrors.InvalidInput("Start time minutes must be in 10 minute increments")
	}
	if end.Minute()%minuteIncrement != 0 {
		return nil, apperrors.InvalidInput("End time minutes must be in 10 minute increments")
	}

	if !end.After(start) {
		return nil, apperrors.InvalidInput("End time must be after start time")
	}

	now := time.Now()
	if start.Before(now) {
		return nil, apperrors.InvalidInput("Cannot book meetings in the past")
	}
	if start.After(now.Add(maxAdvance)) {
		return nil, apperrors.InvalidInput("Cannot book more than 1 year in advance")
	}

	return &model.Booking{
		Room:      req.Room,
		User:      req.User,
		StartTime: start,
		EndTime:   end,
	}, nil
}

// ValidateQuery checks the day-listing filters and returns the half-open day
// window to query. Exactly one of room or user must be set. The room check
// here is only the MACRO_CASE comparison; the creation-time charset and
// length rules deliberately do not apply to query filters.
func (v *BookingValidator) ValidateQuery(date, room, user string) (time.Time, time.Time, error) {
	if (room != "" && user != "") || (room == "" && user == "") {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("Provide exactly one filter, either room or user")
	}

	day, err := time.ParseInLocation(model.DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("Invalid date format, use YYYY-MM-DD")
	}

	if room != "" && room != strings.ToUpper(room) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("Room must be in MACRO_CASE")
	}

	dayStart, dayEnd := model.DayWindow(day)
	return dayStart, dayEnd, nil
}

// ValidateBooking is the struct-tag guard applied to an assembled Booking
// just before persistence.
func (v *BookingValidator) ValidateBooking(booking *model.Booking) error {
	err := v.validate.Struct(booking)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fieldErr.Field(), fieldErr.Tag()))
		}
		return fmt.Errorf("booking failed validation: %s", strings.Join(fields, "; "))
	}
	return err
}

// ParseCivilTime parses a civil timestamp in the YYYY-MM-DD HH:MM layout,
// normalizing the "T" and URL-encoded-space separator variants first. The
// result is in the server's local clock, matching how bookings are stored.
func ParseCivilTime(value string) (time.Time, error) {
	cleaned := strings.ReplaceAll(value, "T", " ")
	cleaned = strings.ReplaceAll(cleaned, "%20", " ")
	return time.ParseInLocation(model.TimeLayout, cleaned, time.Local)
}
