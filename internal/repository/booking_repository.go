package repository

import (
	"context"
	"fmt"

	"event-booking-seeder/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	InsertMany(ctx context.Context, bookings []*model.Booking) ([]primitive.ObjectID, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	// List 依 created_at 由舊到新
	List(ctx context.Context) ([]*model.Booking, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*model.Booking, error)
}

type BookingRepositoryImpl struct {
	coll *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) BookingRepository {
	return &BookingRepositoryImpl{
		coll: db.Collection(CollectionBookings),
	}
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return booking, nil
}

func (r *BookingRepositoryImpl) InsertMany(ctx context.Context, bookings []*model.Booking) ([]primitive.ObjectID, error) {
	return insertMany(ctx, r.coll, bookings, func(b *model.Booking) *primitive.ObjectID { return &b.ID })
}

func (r *BookingRepositoryImpl) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.coll)
}

func (r *BookingRepositoryImpl) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll)
}

func byCreatedAt() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *BookingRepositoryImpl) List(ctx context.Context) ([]*model.Booking, error) {
	return findAll[model.Booking](ctx, r.coll, bson.D{}, byCreatedAt())
}

func (r *BookingRepositoryImpl) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*model.Booking, error) {
	return findAll[model.Booking](ctx, r.coll, bson.D{{Key: "user_id", Value: userID}}, byCreatedAt())
}
