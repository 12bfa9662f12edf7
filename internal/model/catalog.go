package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Organizer struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Email       string             `json:"email" bson:"email"`
	Phone       string             `json:"phone" bson:"phone"`
	Description string             `json:"description" bson:"description"`
	Rating      float64            `json:"rating" bson:"rating"`
	TotalEvents int                `json:"total_events" bson:"total_events"`
}

// GeoPoint GeoJSON Point，座標順序為 [經度, 緯度]
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

type Section struct {
	Name        string `json:"name" bson:"name"`
	Rows        int    `json:"rows" bson:"rows"`
	SeatsPerRow int    `json:"seats_per_row" bson:"seats_per_row"`
}

type Venue struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name     string             `json:"name" bson:"name"`
	Location GeoPoint           `json:"location" bson:"location"`
	Address  string             `json:"address" bson:"address"`
	Capacity int                `json:"capacity" bson:"capacity"`
	Sections []Section          `json:"sections" bson:"sections"`
}

type Review struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EventID      primitive.ObjectID `json:"event_id" bson:"event_id"`
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id"`
	Rating       int                `json:"rating" bson:"rating"`
	Comment      string             `json:"comment" bson:"comment"`
	HelpfulCount int                `json:"helpful_count" bson:"helpful_count"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}
