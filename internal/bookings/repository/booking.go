package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PrathamRanjan/meeting-booking-app/pkg/config"
	mongotx "github.com/PrathamRanjan/meeting-booking-app/pkg/db/mongo"
	"github.com/PrathamRanjan/meeting-booking-app/pkg/model"
)

const (
	CollectionName = "Bookings"
)

// BookingRepository is the storage contract consumed by the conflict checker
// and the query path. Implementations never cache across calls; every read
// reflects the latest committed state.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindOverlapping(ctx context.Context, room string, start, end time.Time) ([]*model.Booking, error)
	CountForUserOnDay(ctx context.Context, user string, dayStart, dayEnd time.Time) (int64, error)
	FindForRoomOnDay(ctx context.Context, room string, dayStart, dayEnd time.Time) ([]*model.Booking, error)
	FindForUserOnDay(ctx context.Context, user string, dayStart, dayEnd time.Time) ([]*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a per-call timeout unless the call is
// already running inside a transaction; a SessionContext cannot be wrapped
// without breaking transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindOverlapping(ctx context.Context, room string, start, end time.Time) ([]*model.Booking, error) {
	// Half-open interval semantics: back-to-back bookings do not overlap.
	filter := bson.M{
		"room":       room,
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}
	return r.find(ctx, filter)
}

func (r *mongoBookingRepository) CountForUserOnDay(ctx context.Context, user string, dayStart, dayEnd time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"user":       user,
		"start_time": bson.M{"$gte": dayStart, "$lt": dayEnd},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings for user: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) FindForRoomOnDay(ctx context.Context, room string, dayStart, dayEnd time.Time) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{
		"room":       room,
		"start_time": bson.M{"$gte": dayStart, "$lt": dayEnd},
	})
}

func (r *mongoBookingRepository) FindForUserOnDay(ctx context.Context, user string, dayStart, dayEnd time.Time) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{
		"user":       user,
		"start_time": bson.M{"$gte": dayStart, "$lt": dayEnd},
	})
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
