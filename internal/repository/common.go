package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names in the event_booking_system database.
const (
	CollectionOrganizers   = "organizers"
	CollectionVenues       = "venues"
	CollectionUsers        = "users"
	CollectionEvents       = "events"
	CollectionBookings     = "bookings"
	CollectionReviews      = "reviews"
	CollectionActivityLogs = "user_activity_logs"
)

// insertMany 補上缺少的 _id 後一次 bulk insert，回傳依輸入順序的 id
func insertMany[T any](ctx context.Context, coll *mongo.Collection, docs []*T, idOf func(*T) *primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(docs) == 0 {
		return []primitive.ObjectID{}, nil
	}

	payload := make([]interface{}, len(docs))
	ids := make([]primitive.ObjectID, len(docs))
	for i, doc := range docs {
		id := idOf(doc)
		if id.IsZero() {
			*id = primitive.NewObjectID()
		}
		ids[i] = *id
		payload[i] = doc
	}

	if _, err := coll.InsertMany(ctx, payload); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	return ids, nil
}

func deleteAll(ctx context.Context, coll *mongo.Collection) error {
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear %s: %w", coll.Name(), err)
	}
	return nil
}

func count(ctx context.Context, coll *mongo.Collection) (int64, error) {
	return coll.CountDocuments(ctx, bson.D{})
}

// findOne 將 mongo.ErrNoDocuments 轉成呼叫端指定的 not found 錯誤
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, notFound error) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]*T, 0)
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func listIDs(ctx context.Context, coll *mongo.Collection, filter interface{}) ([]primitive.ObjectID, error) {
	type idOnly struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	docs, err := findAll[idOnly](ctx, coll, filter, projectIDs())
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func projectIDs() *options.FindOptions {
	return options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
}

// Repositories 一次產生資料會用到的所有 repository
type Repositories struct {
	Organizers OrganizerRepository
	Venues     VenueRepository
	Users      UserRepository
	Events     EventRepository
	Bookings   BookingRepository
	Reviews    ReviewRepository
	Schema     SchemaRepository
}

func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Organizers: NewOrganizerRepository(db),
		Venues:     NewVenueRepository(db),
		Users:      NewUserRepository(db),
		Events:     NewEventRepository(db),
		Bookings:   NewBookingRepository(db),
		Reviews:    NewReviewRepository(db),
		Schema:     NewSchemaRepository(db),
	}
}
