package repository

import (
	"context"

	"event-booking-seeder/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type OrganizerRepository interface {
	InsertMany(ctx context.Context, organizers []*model.Organizer) ([]primitive.ObjectID, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

type OrganizerRepositoryImpl struct {
	coll *mongo.Collection
}

func NewOrganizerRepository(db *mongo.Database) OrganizerRepository {
	return &OrganizerRepositoryImpl{coll: db.Collection(CollectionOrganizers)}
}

func (r *OrganizerRepositoryImpl) InsertMany(ctx context.Context, organizers []*model.Organizer) ([]primitive.ObjectID, error) {
	return insertMany(ctx, r.coll, organizers, func(o *model.Organizer) *primitive.ObjectID { return &o.ID })
}

func (r *OrganizerRepositoryImpl) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.coll)
}

func (r *OrganizerRepositoryImpl) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll)
}

type VenueRepository interface {
	InsertMany(ctx context.Context, venues []*model.Venue) ([]primitive.ObjectID, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

type VenueRepositoryImpl struct {
	coll *mongo.Collection
}

func NewVenueRepository(db *mongo.Database) VenueRepository {
	return &VenueRepositoryImpl{coll: db.Collection(CollectionVenues)}
}

func (r *VenueRepositoryImpl) InsertMany(ctx context.Context, venues []*model.Venue) ([]primitive.ObjectID, error) {
	return insertMany(ctx, r.coll, venues, func(v *model.Venue) *primitive.ObjectID { return &v.ID })
}

func (r *VenueRepositoryImpl) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.coll)
}

func (r *VenueRepositoryImpl) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll)
}

type ReviewRepository interface {
	InsertMany(ctx context.Context, reviews []*model.Review) ([]primitive.ObjectID, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

type ReviewRepositoryImpl struct {
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &ReviewRepositoryImpl{coll: db.Collection(CollectionReviews)}
}

func (r *ReviewRepositoryImpl) InsertMany(ctx context.Context, reviews []*model.Review) ([]primitive.ObjectID, error) {
	return insertMany(ctx, r.coll, reviews, func(rv *model.Review) *primitive.ObjectID { return &rv.ID })
}

func (r *ReviewRepositoryImpl) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.coll)
}

func (r *ReviewRepositoryImpl) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll)
}
