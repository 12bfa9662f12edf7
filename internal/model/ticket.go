package model

// TicketType 活動內的票種（價格與庫存層級）
type TicketType struct {
	Type     string  `json:"type" bson:"type"`
	Price    float64 `json:"price" bson:"price"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Sold     int     `json:"sold" bson:"sold"`
}

// Remaining 剩餘可售數量
func (t TicketType) Remaining() int {
	return t.Quantity - t.Sold
}

// CanSell 檢查是否還能賣出 quantity 張
func (t TicketType) CanSell(quantity int) bool {
	return quantity > 0 && t.Remaining() >= quantity
}
