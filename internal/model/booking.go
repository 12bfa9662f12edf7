package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus 訂票狀態類型
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsValid 驗證狀態是否有效
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

// Booking 訂票模型
type Booking struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"user_id" bson:"user_id"`
	EventID       primitive.ObjectID `json:"event_id" bson:"event_id"`
	TicketType    string             `json:"ticket_type" bson:"ticket_type"`
	Quantity      int                `json:"quantity" bson:"quantity"`
	TotalAmount   float64            `json:"total_amount" bson:"total_amount"`
	Status        BookingStatus      `json:"status" bson:"status"`
	PaymentMethod PaymentMethod      `json:"payment_method" bson:"payment_method"`
	TransactionID string             `json:"transaction_id" bson:"transaction_id"`
	Seats         []string           `json:"seats" bson:"seats"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// HistoryEntry 轉成寫入使用者 booking_history 的快照
func (b *Booking) HistoryEntry(eventTitle string) BookingHistoryEntry {
	return BookingHistoryEntry{
		BookingID:  b.ID,
		EventID:    b.EventID,
		EventTitle: eventTitle,
		Date:       b.CreatedAt,
		Status:     b.Status,
		Amount:     b.TotalAmount,
	}
}
