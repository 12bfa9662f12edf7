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

type UserRepository interface {
	InsertMany(ctx context.Context, users []*model.User) ([]primitive.ObjectID, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*model.User, error)
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
	// ListEmails 目前已存在的所有 email，用來避開 users.email 唯一索引
	ListEmails(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)

	// ApplyBooking 把一筆訂票併入使用者統計：計數 +1、金額累加、
	// last_booking_date 取較晚者、booking_history 追加一筆
	ApplyBooking(ctx context.Context, userID primitive.ObjectID, entry model.BookingHistoryEntry) error
	// ResetStats 將所有使用者的統計與訂票紀錄歸零
	ResetStats(ctx context.Context) error
	SetEngagement(ctx context.Context, userID primitive.ObjectID, views []model.ViewEntry, favorites []primitive.ObjectID) error
}

type UserRepositoryImpl struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &UserRepositoryImpl{
		coll: db.Collection(CollectionUsers),
	}
}

func (r *UserRepositoryImpl) InsertMany(ctx context.Context, users []*model.User) ([]primitive.ObjectID, error) {
	return insertMany(ctx, r.coll, users, func(u *model.User) *primitive.ObjectID { return &u.ID })
}

func (r *UserRepositoryImpl) DeleteAll(ctx context.Context) error {
	return deleteAll(ctx, r.coll)
}

func (r *UserRepositoryImpl) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll)
}

func (r *UserRepositoryImpl) List(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findAll[model.User](ctx, r.coll, bson.D{}, opts)
}

func (r *UserRepositoryImpl) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	return listIDs(ctx, r.coll, bson.D{})
}

func (r *UserRepositoryImpl) ListEmails(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "email", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list user emails: %w", err)
	}
	emails := make([]string, 0, len(values))
	for _, v := range values {
		if email, ok := v.(string); ok {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return findOne[model.User](ctx, r.coll, bson.D{{Key: "_id", Value: id}}, apperrors.ErrUserNotFound)
}

func (r *UserRepositoryImpl) ApplyBooking(ctx context.Context, userID primitive.ObjectID, entry model.BookingHistoryEntry) error {
	update := bson.D{
		{Key: "$inc", Value: bson.D{
			{Key: "stats.total_bookings", Value: 1},
			{Key: "stats.total_spent", Value: entry.Amount},
		}},
		// $max：null 在 BSON 排序中小於任何日期，所以第一次也會寫入
		{Key: "$max", Value: bson.D{{Key: "stats.last_booking_date", Value: entry.Date}}},
		{Key: "$push", Value: bson.D{{Key: "booking_history", Value: entry}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}

	result, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID}}, update)
	if err != nil {
		return fmt.Errorf("apply booking to user: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) ResetStats(ctx context.Context) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "stats", Value: model.UserStats{}},
		{Key: "booking_history", Value: []model.BookingHistoryEntry{}},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	if _, err := r.coll.UpdateMany(ctx, bson.D{}, update); err != nil {
		return fmt.Errorf("reset user stats: %w", err)
	}
	return nil
}

func (r *UserRepositoryImpl) SetEngagement(ctx context.Context, userID primitive.ObjectID, views []model.ViewEntry, favorites []primitive.ObjectID) error {
	if views == nil {
		views = []model.ViewEntry{}
	}
	if favorites == nil {
		favorites = []primitive.ObjectID{}
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "view_history", Value: views},
		{Key: "favorites", Value: favorites},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}

	result, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID}}, update)
	if err != nil {
		return fmt.Errorf("set user engagement: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
