package repository_test

import (
	"context"
	"testing"
	"time"

	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestBookingRepository_Create(t *testing.T) {
	mt := newMockT(t)

	mt.Run("Success - assigns id", func(mt *mtest.T) {
		repo := repository.NewBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		booking := &model.Booking{
			UserID:        primitive.NewObjectID(),
			EventID:       primitive.NewObjectID(),
			TicketType:    "VIP",
			Quantity:      2,
			TotalAmount:   10000,
			Status:        model.BookingStatusConfirmed,
			PaymentMethod: model.PaymentOnline,
			TransactionID: "TXN123456",
			Seats:         []string{"A3", "C12"},
		}
		created, err := repo.Create(context.Background(), booking)
		require.NoError(mt, err)
		assert.False(mt, created.ID.IsZero())

		doc := mt.GetStartedEvent().Command.Lookup("documents", "0").Document()
		assert.Equal(mt, created.ID, doc.Lookup("_id").ObjectID())
		assert.Equal(mt, "TXN123456", doc.Lookup("transaction_id").StringValue())
		assert.Equal(mt, "confirmed", doc.Lookup("status").StringValue())
	})

	mt.Run("Failed - write error", func(mt *mtest.T) {
		repo := repository.NewBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "validation failed"}))

		_, err := repo.Create(context.Background(), &model.Booking{})
		assert.Error(mt, err)
	})
}

func TestBookingRepository_FindByUserID(t *testing.T) {
	mt := newMockT(t)

	mt.Run("Success - sorted by created_at", func(mt *mtest.T) {
		repo := repository.NewBookingRepository(mt.DB)
		userID := primitive.NewObjectID()
		first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.bookings", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "user_id", Value: userID}, {Key: "created_at", Value: first}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "user_id", Value: userID}, {Key: "created_at", Value: first.Add(time.Hour)}},
		))

		bookings, err := repo.FindByUserID(context.Background(), userID)
		require.NoError(mt, err)
		require.Len(mt, bookings, 2)
		assert.True(mt, bookings[0].CreatedAt.Before(bookings[1].CreatedAt))

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, userID, cmd.Lookup("filter", "user_id").ObjectID())
		assert.Equal(mt, int64(1), cmd.Lookup("sort", "created_at").AsInt64())
	})

	mt.Run("Success - empty", func(mt *mtest.T) {
		repo := repository.NewBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.bookings", mtest.FirstBatch))

		bookings, err := repo.FindByUserID(context.Background(), primitive.NewObjectID())
		require.NoError(mt, err)
		assert.NotNil(mt, bookings)
		assert.Empty(mt, bookings)
	})
}

func TestBookingRepository_Count(t *testing.T) {
	mt := newMockT(t)

	mt.Run("Success", func(mt *mtest.T) {
		repo := repository.NewBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.bookings", mtest.FirstBatch, bson.D{{Key: "n", Value: int64(42)}}))

		n, err := repo.Count(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, int64(42), n)
	})
}

func TestSchemaRepository_EnsureIndexes(t *testing.T) {
	mt := newMockT(t)

	mt.Run("Success", func(mt *mtest.T) {
		repo := repository.NewSchemaRepository(mt.DB)
		responses := make([]bson.D, len(repository.Indexes))
		for i := range responses {
			responses[i] = mtest.CreateSuccessResponse()
		}
		mt.AddMockResponses(responses...)

		require.NoError(mt, repo.EnsureIndexes(context.Background()))
	})

	mt.Run("Failed - stops at first error", func(mt *mtest.T) {
		repo := repository.NewSchemaRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 85, Name: "IndexOptionsConflict", Message: "index conflict"}),
		)

		err := repo.EnsureIndexes(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "events.status")
	})
}

func TestSchemaRepository_EnsureCollections(t *testing.T) {
	mt := newMockT(t)

	successes := func(n int) []bson.D {
		responses := make([]bson.D, n)
		for i := range responses {
			responses[i] = mtest.CreateSuccessResponse()
		}
		return responses
	}

	mt.Run("Success - creates with validators", func(mt *mtest.T) {
		repo := repository.NewSchemaRepository(mt.DB)
		mt.AddMockResponses(successes(len(repository.Collections))...)

		require.NoError(mt, repo.EnsureCollections(context.Background()))

		started := mt.GetStartedEvent()
		assert.Equal(mt, "create", started.CommandName)
		cmd := started.Command
		assert.Equal(mt, repository.CollectionEvents, cmd.Lookup("create").StringValue())
		schema := cmd.Lookup("validator", "$jsonSchema").Document()
		assert.Equal(mt, int64(0), schema.Lookup("properties", "available_seats", "minimum").AsInt64())
		assert.Equal(mt, int64(0), schema.Lookup("properties", "ticket_types", "items", "properties", "sold", "minimum").AsInt64())
		assert.Equal(mt, "double", schema.Lookup("properties", "ticket_types", "items", "properties", "price", "bsonType").StringValue())

		var logs bson.Raw
		for e := mt.GetStartedEvent(); e != nil; e = mt.GetStartedEvent() {
			logs = e.Command
		}
		assert.Equal(mt, repository.CollectionActivityLogs, logs.Lookup("create").StringValue())
		assert.Equal(mt, "timestamp", logs.Lookup("timeseries", "timeField").StringValue())
	})

	mt.Run("Success - existing collection gets collMod", func(mt *mtest.T) {
		repo := repository.NewSchemaRepository(mt.DB)
		responses := []bson.D{
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 48, Name: "NamespaceExists", Message: "collection already exists"}),
			mtest.CreateSuccessResponse(),
		}
		mt.AddMockResponses(append(responses, successes(len(repository.Collections)-1)...)...)

		require.NoError(mt, repo.EnsureCollections(context.Background()))

		assert.Equal(mt, "create", mt.GetStartedEvent().CommandName)
		collMod := mt.GetStartedEvent()
		assert.Equal(mt, "collMod", collMod.CommandName)
		assert.Equal(mt, repository.CollectionEvents, collMod.Command.Lookup("collMod").StringValue())
		assert.Equal(mt, int64(0), collMod.Command.Lookup("validator", "$jsonSchema", "properties", "available_seats", "minimum").AsInt64())
	})

	mt.Run("Failed - other command error", func(mt *mtest.T) {
		repo := repository.NewSchemaRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))

		err := repo.EnsureCollections(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "create collection events")
	})
}
