package config

import (
	"fmt"
	"time"

	apperrors "event-booking-seeder/pkg/app_errors"
)

const (
	ProfileSmall = "small"
	ProfileLarge = "large"
)

// IntRange 為閉區間 [Min, Max]
type IntRange struct {
	Min int
	Max int
}

// TicketTypeTemplate 產生活動票種時使用的價格與數量範圍
type TicketTypeTemplate struct {
	Type     string
	Price    IntRange
	Quantity IntRange
}

type SectionTemplate struct {
	Name        string
	Rows        int
	SeatsPerRow int
}

// Profile 一次產生資料的規模與數值範圍設定
type Profile struct {
	Name string

	Organizers      int
	Venues          int
	Users           int
	Events          int
	BookingAttempts int
	Reviews         int

	OrganizerTotalEvents IntRange
	VenueNames           []string
	VenueCapacities      []int
	VenueSections        []SectionTemplate

	UserCategories    []string
	UserCategoryCount IntRange
	UserCreatedWithin time.Duration

	EventKinds         []string
	EventCategories    []string
	EventCategoryCount IntRange
	EventTags          []string
	EventTagCount      IntRange
	EventCapacities    []int
	EventStatuses      []string
	EventDateWithin    time.Duration
	TicketTypes        []TicketTypeTemplate
	DescriptionMaxLen  int

	BookingQuantity IntRange
	SeatRows        []string
	SeatNumbers     int // 座位號碼 1..SeatNumbers

	ReviewHelpfulMax int
	ReviewCommentLen int

	Views     IntRange
	Favorites IntRange
}

var profiles = map[string]Profile{
	ProfileSmall: {
		Name:            ProfileSmall,
		Organizers:      3,
		Venues:          3,
		Users:           30,
		Events:          20,
		BookingAttempts: 80,
		Reviews:         40,

		OrganizerTotalEvents: IntRange{1, 20},
		VenueNames:           defaultVenueNames,
		VenueCapacities:      []int{100, 500, 1000},
		VenueSections:        []SectionTemplate{{Name: "Parterre", Rows: 10, SeatsPerRow: 20}},

		UserCategories:    []string{"concert", "theatre", "sport", "exhibition"},
		UserCategoryCount: IntRange{1, 2},
		UserCreatedWithin: 365 * 24 * time.Hour,

		EventKinds:         []string{"Rock Concert", "Ballet", "Exhibition", "Conference", "Match", "Jazz Evening", "Stand-up", "Festival"},
		EventCategories:    []string{"concert", "theatre", "sport", "exhibition"},
		EventCategoryCount: IntRange{1, 2},
		EventTags:          []string{"popular", "new"},
		EventTagCount:      IntRange{1, 2},
		EventCapacities:    []int{100, 200, 500},
		EventStatuses:      []string{"draft", "published", "published"},
		EventDateWithin:    30 * 24 * time.Hour,
		TicketTypes: []TicketTypeTemplate{
			{Type: "VIP", Price: IntRange{5000, 15000}, Quantity: IntRange{10, 30}},
			{Type: "Standard", Price: IntRange{1000, 5000}, Quantity: IntRange{50, 200}},
		},
		DescriptionMaxLen: 200,

		BookingQuantity: IntRange{1, 2},
		SeatRows:        []string{"A", "B", "C"},
		SeatNumbers:     19,

		ReviewHelpfulMax: 10,
		ReviewCommentLen: 100,

		Views:     IntRange{1, 10},
		Favorites: IntRange{0, 3},
	},
	ProfileLarge: {
		Name:            ProfileLarge,
		Organizers:      10,
		Venues:          15,
		Users:           200,
		Events:          100,
		BookingAttempts: 300,
		Reviews:         150,

		OrganizerTotalEvents: IntRange{1, 50},
		VenueNames:           defaultVenueNames,
		VenueCapacities:      []int{100, 500, 1000, 5000},
		VenueSections: []SectionTemplate{
			{Name: "Parterre", Rows: 20, SeatsPerRow: 25},
			{Name: "Balcony", Rows: 15, SeatsPerRow: 20},
		},

		UserCategories:    []string{"concert", "theatre", "sport", "exhibition"},
		UserCategoryCount: IntRange{1, 3},
		UserCreatedWithin: 2 * 365 * 24 * time.Hour,

		EventKinds:         []string{"Concert", "Play", "Match", "Exhibition"},
		EventCategories:    []string{"concert", "theatre", "sport", "exhibition", "festival"},
		EventCategoryCount: IntRange{1, 3},
		EventTags:          []string{"popular", "new", "recommended"},
		EventTagCount:      IntRange{1, 2},
		EventCapacities:    []int{100, 200, 500, 1000},
		EventStatuses:      []string{"draft", "published", "published", "published"},
		EventDateWithin:    90 * 24 * time.Hour,
		TicketTypes: []TicketTypeTemplate{
			{Type: "VIP", Price: IntRange{5000, 20000}, Quantity: IntRange{10, 50}},
			{Type: "Standard", Price: IntRange{1000, 5000}, Quantity: IntRange{100, 500}},
			{Type: "Student", Price: IntRange{500, 2000}, Quantity: IntRange{50, 200}},
		},
		DescriptionMaxLen: 500,

		BookingQuantity: IntRange{1, 4},
		SeatRows:        []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"},
		SeatNumbers:     29,

		ReviewHelpfulMax: 50,
		ReviewCommentLen: 200,

		Views:     IntRange{5, 20},
		Favorites: IntRange{2, 5},
	},
}

var defaultVenueNames = []string{
	"Kremlin Palace",
	"Luzhniki Stadium",
	"Vakhtangov Theatre",
	"Tchaikovsky Concert Hall",
}

func ProfileByName(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown profile %q", apperrors.ErrInvalidProfile, name)
	}
	return p, nil
}

// Validate 檢查設定是否能完成整個流程，尤其是座位標籤的抽樣不可超過母體
func (p Profile) Validate() error {
	counts := map[string]int{
		"organizers": p.Organizers, "venues": p.Venues, "users": p.Users,
		"events": p.Events, "booking attempts": p.BookingAttempts, "reviews": p.Reviews,
	}
	for name, n := range counts {
		if n < 0 {
			return fmt.Errorf("%w: negative %s count %d", apperrors.ErrInvalidProfile, name, n)
		}
	}
	if p.BookingQuantity.Min < 1 || p.BookingQuantity.Max < p.BookingQuantity.Min {
		return fmt.Errorf("%w: booking quantity range [%d,%d]", apperrors.ErrInvalidProfile, p.BookingQuantity.Min, p.BookingQuantity.Max)
	}
	if p.BookingQuantity.Max > len(p.SeatRows) || p.BookingQuantity.Max > p.SeatNumbers {
		return fmt.Errorf("%w: max quantity %d, rows %d, numbers %d",
			apperrors.ErrSeatPoolTooSmall, p.BookingQuantity.Max, len(p.SeatRows), p.SeatNumbers)
	}
	if len(p.TicketTypes) == 0 || len(p.EventCapacities) == 0 || len(p.EventStatuses) == 0 {
		return fmt.Errorf("%w: events need ticket types, capacities and statuses", apperrors.ErrInvalidProfile)
	}
	if p.Views.Min < 0 || p.Views.Max < p.Views.Min || p.Favorites.Min < 0 || p.Favorites.Max < p.Favorites.Min {
		return fmt.Errorf("%w: engagement ranges", apperrors.ErrInvalidProfile)
	}
	return nil
}
