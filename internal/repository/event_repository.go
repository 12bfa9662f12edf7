package repository

import (
	"context"
	"fmt"
	"time"

	"event-booking-seeder/internal/model"
	apperrors "event-booking-seeder/pkg/app_errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository interface {
	InsertMany(ctx context.Context, events []*model.Event) ([]primitive.ObjectID, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	// List 依 status 篩選；status 為空字串時回傳全部
	List(ctx context.Context, status model.EventStatus) ([]*model.Event, error)
	ListIDs(ctx context.Context, status model.EventStatus) ([]primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Event, error)

	// ReserveTickets 原子性的「檢查剩餘量再扣減」：票種 sold 增加、available_seats 減少。
	// 庫存不足時回傳 false 且不做任何修改。ticket.Quantity 取自快照（建立後不會變）。
	ReserveTickets(ctx context.Context, id primitive.ObjectID, ticket model.TicketType, quantity int) (bool, error)
	// ReleaseTickets 回滾 ReserveTickets
	ReleaseTickets(ctx context.Context, id primitive.ObjectID, ticketType string, quantity int) error
}

type EventRepositoryImpl struct {
	coll *mongo.Collection
}

func NewEventRepository(db *mongo.Database) EventRepository {
	return &EventRepositoryImpl{
		coll: db.Collection(CollectionEvents),
	}
}

func (r *EventRepositoryImpl) InsertMany(ctx context.Context, events []*model.Event) ([]primitive.ObjectID, error) {
	return insertMany(ctx, r.coll, events, func(e *model.Event) *primitive.ObjectID { return &e.ID })
}

func (r *EventRepositoryImpl) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.coll)
}

func (r *EventRepositoryImpl) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll)
}

func statusFilter(status model.EventStatus) bson.D {
	if status == "" {
		return bson.D{}
	}
	return bson.D{{Key: "status", Value: status}}
}

func (r *EventRepositoryImpl) List(ctx context.Context, status model.EventStatus) ([]*model.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findAll[model.Event](ctx, r.coll, statusFilter(status), opts)
}

func (r *EventRepositoryImpl) ListIDs(ctx context.Context, status model.EventStatus) ([]primitive.ObjectID, error) {
	return listIDs(ctx, r.coll, statusFilter(status))
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Event, error) {
	return findOne[model.Event](ctx, r.coll, bson.D{{Key: "_id", Value: id}}, apperrors.ErrEventNotFound)
}

func (r *EventRepositoryImpl) ReserveTickets(ctx context.Context, id primitive.ObjectID, ticket model.TicketType, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, apperrors.ErrInvalidInput
	}

	// 條件與扣減在同一個 UpdateOne 內，單一文件更新在 MongoDB 是原子的
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "available_seats", Value: bson.D{{Key: "$gte", Value: quantity}}},
		{Key: "ticket_types", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "type", Value: ticket.Type},
			{Key: "sold", Value: bson.D{{Key: "$lte", Value: ticket.Quantity - quantity}}},
		}}}},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{
			{Key: "ticket_types.$.sold", Value: quantity},
			{Key: "available_seats", Value: -quantity},
		}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("reserve tickets: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *EventRepositoryImpl) ReleaseTickets(ctx context.Context, id primitive.ObjectID, ticketType string, quantity int) error {
	if quantity <= 0 {
		return apperrors.ErrInvalidInput
	}

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "ticket_types", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "type", Value: ticketType},
			{Key: "sold", Value: bson.D{{Key: "$gte", Value: quantity}}},
		}}}},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{
			{Key: "ticket_types.$.sold", Value: -quantity},
			{Key: "available_seats", Value: quantity},
		}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("release tickets: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}
