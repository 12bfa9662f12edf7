package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SchemaRepository 資料庫層級的維護動作：集合驗證規則、索引與不屬於任何產生器的集合
type SchemaRepository interface {
	// EnsureCollections 建立帶 $jsonSchema 驗證的集合；已存在的集合改用 collMod 更新驗證規則
	EnsureCollections(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error
	ClearActivityLogs(ctx context.Context) error
}

// IndexSpec 一個集合上的單欄位遞增索引
type IndexSpec struct {
	Collection string
	Field      string
	Unique     bool
}

// Indexes 查詢常用欄位的索引；users.email 唯一
var Indexes = []IndexSpec{
	{Collection: CollectionEvents, Field: "date"},
	{Collection: CollectionEvents, Field: "status"},
	{Collection: CollectionEvents, Field: "categories"},
	{Collection: CollectionUsers, Field: "email", Unique: true},
	{Collection: CollectionUsers, Field: "favorites"},
	{Collection: CollectionBookings, Field: "user_id"},
	{Collection: CollectionBookings, Field: "event_id"},
	{Collection: CollectionBookings, Field: "status"},
	{Collection: CollectionReviews, Field: "event_id"},
	{Collection: CollectionReviews, Field: "user_id"},
}

// CollectionSpec 一個集合的驗證規則；TimeSeries 不為 nil 時建立成時序集合
type CollectionSpec struct {
	Name       string
	Schema     bson.M
	TimeSeries *options.TimeSeriesOptions
}

var (
	intType    = bson.A{"int", "long"}
	idArray    = bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}}
	strArray   = bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}}
	ticketEnum = bson.A{"VIP", "Standard", "Student"}
)

// Collections 每個集合的 $jsonSchema。
// 金額一律是 double；sold 與 available_seats 不得小於 0，資料庫本身也擋住超賣
var Collections = []CollectionSpec{
	{
		Name: CollectionEvents,
		Schema: bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "date", "venue_id", "organizer_id", "status"},
			"properties": bson.M{
				"title":        bson.M{"bsonType": "string"},
				"description":  bson.M{"bsonType": "string"},
				"date":         bson.M{"bsonType": "date"},
				"venue_id":     bson.M{"bsonType": "objectId"},
				"organizer_id": bson.M{"bsonType": "objectId"},
				"categories":   strArray,
				"tags":         strArray,
				"ticket_types": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"type", "price", "quantity", "sold"},
						"properties": bson.M{
							"type":     bson.M{"bsonType": "string", "enum": ticketEnum},
							"price":    bson.M{"bsonType": "double", "minimum": 0},
							"quantity": bson.M{"bsonType": intType, "minimum": 0},
							"sold":     bson.M{"bsonType": intType, "minimum": 0},
						},
					},
				},
				"status":          bson.M{"bsonType": "string", "enum": bson.A{"draft", "published", "cancelled", "sold_out"}},
				"capacity":        bson.M{"bsonType": intType, "minimum": 0},
				"available_seats": bson.M{"bsonType": intType, "minimum": 0},
				"created_at":      bson.M{"bsonType": "date"},
				"updated_at":      bson.M{"bsonType": "date"},
			},
		},
	},
	{
		Name: CollectionUsers,
		Schema: bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "created_at"},
			"properties": bson.M{
				"email": bson.M{"bsonType": "string", "pattern": `^.+@.+\..+$`},
				"name":  bson.M{"bsonType": "string"},
				"phone": bson.M{"bsonType": "string"},
				"preferences": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"categories":    strArray,
						"notifications": bson.M{"bsonType": "bool"},
					},
				},
				"stats": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"total_bookings":    bson.M{"bsonType": intType, "minimum": 0},
						"total_spent":       bson.M{"bsonType": "double", "minimum": 0},
						"last_booking_date": bson.M{"bsonType": bson.A{"date", "null"}},
					},
				},
				"booking_history": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"properties": bson.M{
							"booking_id":  bson.M{"bsonType": "objectId"},
							"event_id":    bson.M{"bsonType": "objectId"},
							"event_title": bson.M{"bsonType": "string"},
							"date":        bson.M{"bsonType": "date"},
							"status":      bson.M{"bsonType": "string"},
							"amount":      bson.M{"bsonType": "double"},
						},
					},
				},
				"favorites": idArray,
				"view_history": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"properties": bson.M{
							"event_id":  bson.M{"bsonType": "objectId"},
							"viewed_at": bson.M{"bsonType": "date"},
						},
					},
				},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	},
	{
		Name: CollectionBookings,
		Schema: bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "event_id", "status", "created_at"},
			"properties": bson.M{
				"user_id":        bson.M{"bsonType": "objectId"},
				"event_id":       bson.M{"bsonType": "objectId"},
				"ticket_type":    bson.M{"bsonType": "string", "enum": ticketEnum},
				"quantity":       bson.M{"bsonType": intType, "minimum": 1},
				"total_amount":   bson.M{"bsonType": "double", "minimum": 0},
				"status":         bson.M{"bsonType": "string", "enum": bson.A{"pending", "confirmed", "cancelled", "refunded"}},
				"payment_method": bson.M{"bsonType": "string", "enum": bson.A{"cash", "card", "online"}},
				"transaction_id": bson.M{"bsonType": "string"},
				"seats":          strArray,
				"created_at":     bson.M{"bsonType": "date"},
				"updated_at":     bson.M{"bsonType": "date"},
			},
		},
	},
	{
		Name: CollectionReviews,
		Schema: bson.M{
			"bsonType": "object",
			"required": bson.A{"event_id", "user_id", "rating", "created_at"},
			"properties": bson.M{
				"event_id":      bson.M{"bsonType": "objectId"},
				"user_id":       bson.M{"bsonType": "objectId"},
				"rating":        bson.M{"bsonType": intType, "minimum": 1, "maximum": 5},
				"comment":       bson.M{"bsonType": "string"},
				"helpful_count": bson.M{"bsonType": intType, "minimum": 0},
				"created_at":    bson.M{"bsonType": "date"},
				"updated_at":    bson.M{"bsonType": "date"},
			},
		},
	},
	{
		Name: CollectionVenues,
		Schema: bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "location"},
			"properties": bson.M{
				"name": bson.M{"bsonType": "string"},
				"location": bson.M{
					"bsonType": "object",
					"required": bson.A{"type", "coordinates"},
					"properties": bson.M{
						"type":        bson.M{"bsonType": "string", "enum": bson.A{"Point"}},
						"coordinates": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "double"}},
					},
				},
				"address":  bson.M{"bsonType": "string"},
				"capacity": bson.M{"bsonType": intType},
				"sections": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"properties": bson.M{
							"name":          bson.M{"bsonType": "string"},
							"rows":          bson.M{"bsonType": intType},
							"seats_per_row": bson.M{"bsonType": intType},
						},
					},
				},
			},
		},
	},
	{
		Name: CollectionOrganizers,
		Schema: bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email"},
			"properties": bson.M{
				"name":         bson.M{"bsonType": "string"},
				"email":        bson.M{"bsonType": "string"},
				"phone":        bson.M{"bsonType": "string"},
				"description":  bson.M{"bsonType": "string"},
				"rating":       bson.M{"bsonType": "double", "minimum": 0, "maximum": 5},
				"total_events": bson.M{"bsonType": intType},
			},
		},
	},
	{
		Name: CollectionActivityLogs,
		Schema: bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "action", "timestamp"},
			"properties": bson.M{
				"user_id":     bson.M{"bsonType": "objectId"},
				"action":      bson.M{"bsonType": "string"},
				"entity_type": bson.M{"bsonType": "string", "enum": bson.A{"event", "booking", "review"}},
				"entity_id":   bson.M{"bsonType": "objectId"},
				"details":     bson.M{"bsonType": "object"},
				"timestamp":   bson.M{"bsonType": "date"},
				"ip_address":  bson.M{"bsonType": "string"},
			},
		},
		TimeSeries: options.TimeSeries().
			SetTimeField("timestamp").
			SetMetaField("user_id").
			SetGranularity("hours"),
	},
}

// codeNamespaceExists createCollection 遇到同名集合時的錯誤碼
const codeNamespaceExists = 48

type SchemaRepositoryImpl struct {
	db *mongo.Database
}

func NewSchemaRepository(db *mongo.Database) SchemaRepository {
	return &SchemaRepositoryImpl{db: db}
}

func (r *SchemaRepositoryImpl) EnsureCollections(ctx context.Context) error {
	for _, spec := range Collections {
		validator := bson.M{"$jsonSchema": spec.Schema}
		opts := options.CreateCollection().SetValidator(validator)
		if spec.TimeSeries != nil {
			opts.SetTimeSeriesOptions(spec.TimeSeries)
		}

		err := r.db.CreateCollection(ctx, spec.Name, opts)
		if err == nil {
			continue
		}
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != codeNamespaceExists {
			return fmt.Errorf("create collection %s: %w", spec.Name, err)
		}
		// 時序集合建立後無法改成其他型態，只有一般集合需要補上驗證規則
		if spec.TimeSeries != nil {
			continue
		}
		cmd := bson.D{
			{Key: "collMod", Value: spec.Name},
			{Key: "validator", Value: validator},
		}
		if err := r.db.RunCommand(ctx, cmd).Err(); err != nil {
			return fmt.Errorf("update validator %s: %w", spec.Name, err)
		}
	}
	return nil
}

// EnsureIndexes 已存在且定義相同的索引 CreateOne 不會報錯，可重複執行
func (r *SchemaRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	for _, spec := range Indexes {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: spec.Field, Value: 1}},
			Options: options.Index().SetUnique(spec.Unique),
		}
		if _, err := r.db.Collection(spec.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index %s.%s: %w", spec.Collection, spec.Field, err)
		}
	}
	return nil
}

func (r *SchemaRepositoryImpl) ClearActivityLogs(ctx context.Context) error {
	return deleteAll(ctx, r.db.Collection(CollectionActivityLogs))
}
