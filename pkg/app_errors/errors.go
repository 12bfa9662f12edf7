package apperrors

import "errors"

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrTicketNotFound = errors.New("ticket type not found")

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSoldOut           = errors.New("event sold out")
	// 訂票結束後庫存帳對不起來：available_seats、已售數量或 Redis 閘門三者不一致
	ErrInventoryMismatch = errors.New("inventory mismatch")

	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidProfile   = errors.New("invalid generation profile")
	ErrSampleTooLarge   = errors.New("sample larger than population")
	ErrSeatPoolTooSmall = errors.New("seat label pool smaller than max booking quantity")

	// 階段前置條件：前一階段沒有產出任何資料
	ErrNoUsers      = errors.New("no users to book for")
	ErrNoEvents     = errors.New("no published events to book")
	ErrNoOrganizers = errors.New("no organizers to reference")
	ErrNoVenues     = errors.New("no venues to reference")
)

var ErrRunInProgress = errors.New("a generation run is already in progress")
