package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "github.com/PrathamRanjan/meeting-booking-app/internal/bookings/errors"
	"github.com/PrathamRanjan/meeting-booking-app/pkg/config"
	"github.com/PrathamRanjan/meeting-booking-app/pkg/model"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository provides advisory locks serializing check-then-insert
// sequences per room and per user-day. The lock document's _id is the lock
// key; a duplicate key on insert means the lock is held. A TTL index on
// expires_at reclaims locks left behind by abandoned requests.
type BookingLockRepository interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type mongoBookingLockRepository struct {
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	now := time.Now()
	lock := &model.BookingLock{
		ID:        key,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return err
	}
	return nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, key string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
