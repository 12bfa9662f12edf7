package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventStatus 活動狀態類型
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished:
		return true
	}
	return false
}

// Event 活動模型，票種庫存內嵌在文件中
type Event struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title          string             `json:"title" bson:"title"`
	Description    string             `json:"description" bson:"description"`
	Date           time.Time          `json:"date" bson:"date"`
	VenueID        primitive.ObjectID `json:"venue_id" bson:"venue_id"`
	OrganizerID    primitive.ObjectID `json:"organizer_id" bson:"organizer_id"`
	Categories     []string           `json:"categories" bson:"categories"`
	Tags           []string           `json:"tags" bson:"tags"`
	TicketTypes    []TicketType       `json:"ticket_types" bson:"ticket_types"`
	Status         EventStatus        `json:"status" bson:"status"`
	Capacity       int                `json:"capacity" bson:"capacity"`
	AvailableSeats int                `json:"available_seats" bson:"available_seats"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

func (e *Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

// FindTicketType 依名稱找票種，找不到回傳 nil
func (e *Event) FindTicketType(name string) *TicketType {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].Type == name {
			return &e.TicketTypes[i]
		}
	}
	return nil
}

// TotalSold 所有票種已售出數量加總
func (e *Event) TotalSold() int {
	total := 0
	for _, t := range e.TicketTypes {
		total += t.Sold
	}
	return total
}
