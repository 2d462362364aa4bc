package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "github.com/PrathamRanjan/meeting-booking-app/internal/bookings/errors"
	"github.com/PrathamRanjan/meeting-booking-app/internal/bookings/repository"
	"github.com/PrathamRanjan/meeting-booking-app/internal/bookings/validator"
	"github.com/PrathamRanjan/meeting-booking-app/pkg/config"
	apperrors "github.com/PrathamRanjan/meeting-booking-app/pkg/errors"
	"github.com/PrathamRanjan/meeting-booking-app/pkg/events"
	"github.com/PrathamRanjan/meeting-booking-app/pkg/model"
)

const (
	lockRetryAttempts = 5
	lockRetryDelay    = 100 * time.Millisecond
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetForDay(ctx context.Context, date, room, user string) ([]*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	bookingValidator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: bookingValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Create runs the full accept path: validation, advisory locks, and the
// transactional overlap/quota checks. The overlap check always runs before
// the quota check so a conflicting room never surfaces a quota error. A
// rejection at any step leaves the store unchanged.
func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	booking, err := s.validator.ValidateCreate(req)
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "room", req.Room, "user", req.User, "error", err)
		return nil, err
	}

	if err := s.validator.ValidateBooking(booking); err != nil {
		return nil, apperrors.Internal("Booking failed final validation", err)
	}

	// Serialize per room and per user-day; requests on disjoint keys
	// proceed concurrently.
	lockKeys := []string{
		"room::" + booking.Room,
		"user::" + booking.User + "::" + booking.StartTime.Format(model.DateLayout),
	}
	acquired, err := s.acquireLocks(ctx, lockKeys)
	defer s.releaseLocks(ctx, acquired)
	if err != nil {
		return nil, err
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.checkRoomOverlap(txCtx, booking); err != nil {
			return err
		}
		if err := s.checkUserQuota(txCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.AsAppError(err).Code == apperrors.CodeInternal {
			s.cfg.Log.Error("Failed to create booking", "error", err)
		}
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room", booking.Room,
		"user", booking.User,
		"start_time", booking.StartTime,
	)

	s.publishCreated(ctx, booking)
	return booking, nil
}

// GetForDay lists bookings whose start falls inside the requested calendar
// day, filtered by exactly one of room or user.
func (s *bookingService) GetForDay(ctx context.Context, date, room, user string) ([]*model.Booking, error) {
	dayStart, dayEnd, err := s.validator.ValidateQuery(date, room, user)
	if err != nil {
		return nil, err
	}

	var bookings []*model.Booking
	if room != "" {
		bookings, err = s.repo.FindForRoomOnDay(ctx, room, dayStart, dayEnd)
	} else {
		bookings, err = s.repo.FindForUserOnDay(ctx, user, dayStart, dayEnd)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to query bookings", "date", date, "room", room, "user", user, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	s.cfg.Log.Debug("Booking query completed", "date", date, "room", room, "user", user, "count", len(bookings))
	return bookings, nil
}

func (s *bookingService) checkRoomOverlap(ctx context.Context, booking *model.Booking) error {
	existing, err := s.repo.FindOverlapping(ctx, booking.Room, booking.StartTime, booking.EndTime)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}
	if len(existing) > 0 {
		s.cfg.Log.Warn("Booking conflict detected", "room", booking.Room, "start_time", booking.StartTime)
		return apperrors.Conflict("Booking conflict, room already booked for this time")
	}
	return nil
}

func (s *bookingService) checkUserQuota(ctx context.Context, booking *model.Booking) error {
	dayStart, dayEnd := model.DayWindow(booking.StartTime)

	count, err := s.repo.CountForUserOnDay(ctx, booking.User, dayStart, dayEnd)
	if err != nil {
		return apperrors.Internal("Failed to count user bookings", err)
	}

	limit := s.cfg.MaxBookingsPerUserPerDay
	if count >= int64(limit) {
		s.cfg.Log.Warn("User exceeded daily booking limit", "user", booking.User, "limit", limit)
		return apperrors.InvalidInput(fmt.Sprintf("User cannot have more than %d bookings per day", limit))
	}
	return nil
}

// acquireLocks takes the advisory locks in a fixed order, retrying briefly
// when one is held. It returns the keys actually acquired so the caller can
// release them even on partial failure.
func (s *bookingService) acquireLocks(ctx context.Context, keys []string) ([]string, error) {
	acquired := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := s.acquireLock(ctx, key); err != nil {
			return acquired, err
		}
		acquired = append(acquired, key)
	}
	return acquired, nil
}

func (s *bookingService) acquireLock(ctx context.Context, key string) error {
	for attempt := 1; ; attempt++ {
		err := s.lockRepo.Acquire(ctx, key, s.cfg.LockTTL)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return apperrors.Internal("Failed to acquire booking lock", err)
		}
		if attempt >= lockRetryAttempts {
			return apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}

		select {
		case <-time.After(lockRetryDelay):
		case <-ctx.Done():
			return apperrors.Internal("Request cancelled while waiting for booking lock", ctx.Err())
		}
	}
}

func (s *bookingService) releaseLocks(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.lockRepo.Release(ctx, key); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_key", key, "error", err)
		}
	}
}

func (s *bookingService) publishCreated(ctx context.Context, booking *model.Booking) {
	if s.publisher == nil {
		return
	}
	event := events.NewBookingCreated("bookings", booking)
	if err := s.publisher.Publish(ctx, event); err != nil {
		// The booking is already committed; the event is best effort.
		s.cfg.Log.Error("Failed to publish booking event", "event_id", event.EventID, "error", err)
	}
}
