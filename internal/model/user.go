package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Preferences struct {
	Categories    []string `json:"categories" bson:"categories"`
	Notifications bool     `json:"notifications" bson:"notifications"`
}

// UserStats 由訂票資料推導出的統計，不是獨立的事實來源
type UserStats struct {
	TotalBookings   int        `json:"total_bookings" bson:"total_bookings"`
	TotalSpent      float64    `json:"total_spent" bson:"total_spent"`
	LastBookingDate *time.Time `json:"last_booking_date" bson:"last_booking_date"`
}

type BookingHistoryEntry struct {
	BookingID  primitive.ObjectID `json:"booking_id" bson:"booking_id"`
	EventID    primitive.ObjectID `json:"event_id" bson:"event_id"`
	EventTitle string             `json:"event_title" bson:"event_title"`
	Date       time.Time          `json:"date" bson:"date"`
	Status     BookingStatus      `json:"status" bson:"status"`
	Amount     float64            `json:"amount" bson:"amount"`
}

type ViewEntry struct {
	EventID  primitive.ObjectID `json:"event_id" bson:"event_id"`
	ViewedAt time.Time          `json:"viewed_at" bson:"viewed_at"`
}

type User struct {
	ID             primitive.ObjectID    `json:"id" bson:"_id,omitempty"`
	Email          string                `json:"email" bson:"email"`
	Name           string                `json:"name" bson:"name"`
	Phone          string                `json:"phone" bson:"phone"`
	Preferences    Preferences           `json:"preferences" bson:"preferences"`
	Stats          UserStats             `json:"stats" bson:"stats"`
	BookingHistory []BookingHistoryEntry `json:"booking_history" bson:"booking_history"`
	Favorites      []primitive.ObjectID  `json:"favorites" bson:"favorites"`
	ViewHistory    []ViewEntry           `json:"view_history" bson:"view_history"`
	CreatedAt      time.Time             `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at" bson:"updated_at"`
}

// NewUser 建立統計歸零、陣列為空（非 nil）的使用者，避免寫進 store 變成 null
func NewUser() *User {
	return &User{
		BookingHistory: []BookingHistoryEntry{},
		Favorites:      []primitive.ObjectID{},
		ViewHistory:    []ViewEntry{},
	}
}

// HasViewed 檢查使用者是否瀏覽過該活動
func (u *User) HasViewed(eventID primitive.ObjectID) bool {
	for _, v := range u.ViewHistory {
		if v.EventID == eventID {
			return true
		}
	}
	return false
}
