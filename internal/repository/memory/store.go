// Package memory 以記憶體實作所有 repository，供測試與 -dry-run 使用。
// 每個讀寫都複製一份文件，呼叫端拿到的指標不會影響 store 內的資料。
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/repository"
	apperrors "event-booking-seeder/pkg/app_errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store 所有集合共用一把鎖，條件扣減因此天生是原子的
type Store struct {
	mu sync.RWMutex

	organizers []*model.Organizer
	venues     []*model.Venue
	users      []*model.User
	events     []*model.Event
	bookings   []*model.Booking
	reviews    []*model.Review

	schemaSteps []string
}

func NewStore() *Store {
	return &Store{}
}

// Repositories 回傳共用同一個 Store 的 repository 組合
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Organizers: &OrganizerRepository{s: s},
		Venues:     &VenueRepository{s: s},
		Users:      &UserRepository{s: s},
		Events:     &EventRepository{s: s},
		Bookings:   &BookingRepository{s: s},
		Reviews:    &ReviewRepository{s: s},
		Schema:     &SchemaRepository{s: s},
	}
}

func assignID(id *primitive.ObjectID) primitive.ObjectID {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	return *id
}

func indexByID[T any](docs []*T, id primitive.ObjectID, idOf func(*T) primitive.ObjectID) int {
	for i, d := range docs {
		if idOf(d) == id {
			return i
		}
	}
	return -1
}

// ---- organizers / venues / reviews ----

type OrganizerRepository struct{ s *Store }

func (r *OrganizerRepository) InsertMany(ctx context.Context, organizers []*model.Organizer) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]primitive.ObjectID, len(organizers))
	for i, o := range organizers {
		ids[i] = assignID(&o.ID)
		c := *o
		r.s.organizers = append(r.s.organizers, &c)
	}
	return ids, nil
}

func (r *OrganizerRepository) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.organizers = nil
	return nil
}

func (r *OrganizerRepository) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.organizers)), nil
}

type VenueRepository struct{ s *Store }

func (r *VenueRepository) InsertMany(ctx context.Context, venues []*model.Venue) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]primitive.ObjectID, len(venues))
	for i, v := range venues {
		ids[i] = assignID(&v.ID)
		c := *v
		c.Sections = append([]model.Section{}, v.Sections...)
		r.s.venues = append(r.s.venues, &c)
	}
	return ids, nil
}

func (r *VenueRepository) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.venues = nil
	return nil
}

func (r *VenueRepository) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.venues)), nil
}

type ReviewRepository struct{ s *Store }

func (r *ReviewRepository) InsertMany(ctx context.Context, reviews []*model.Review) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]primitive.ObjectID, len(reviews))
	for i, rv := range reviews {
		ids[i] = assignID(&rv.ID)
		c := *rv
		r.s.reviews = append(r.s.reviews, &c)
	}
	return ids, nil
}

func (r *ReviewRepository) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reviews = nil
	return nil
}

func (r *ReviewRepository) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.reviews)), nil
}

// ListReviews 測試用：回傳所有評論的複本
func (s *Store) ListReviews() []*model.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Review, len(s.reviews))
	for i, rv := range s.reviews {
		c := *rv
		out[i] = &c
	}
	return out
}

// ---- users ----

func copyUser(u *model.User) *model.User {
	c := *u
	c.Preferences.Categories = append([]string{}, u.Preferences.Categories...)
	c.BookingHistory = append([]model.BookingHistoryEntry{}, u.BookingHistory...)
	c.Favorites = append([]primitive.ObjectID{}, u.Favorites...)
	c.ViewHistory = append([]model.ViewEntry{}, u.ViewHistory...)
	if u.Stats.LastBookingDate != nil {
		t := *u.Stats.LastBookingDate
		c.Stats.LastBookingDate = &t
	}
	return &c
}

func userID(u *model.User) primitive.ObjectID { return u.ID }

type UserRepository struct{ s *Store }

// InsertMany 與 users.email 唯一索引相同：整批任一 email 重複就不寫入
func (r *UserRepository) InsertMany(ctx context.Context, users []*model.User) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := make(map[string]struct{}, len(r.s.users)+len(users))
	for _, u := range r.s.users {
		seen[u.Email] = struct{}{}
	}
	for _, u := range users {
		if _, dup := seen[u.Email]; dup {
			return nil, fmt.Errorf("insert into users: duplicate email %q", u.Email)
		}
		seen[u.Email] = struct{}{}
	}

	ids := make([]primitive.ObjectID, len(users))
	for i, u := range users {
		ids[i] = assignID(&u.ID)
		r.s.users = append(r.s.users, copyUser(u))
	}
	return ids, nil
}

func (r *UserRepository) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users = nil
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.User, len(r.s.users))
	for i, u := range r.s.users {
		out[i] = copyUser(u)
	}
	return out, nil
}

func (r *UserRepository) ListEmails(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	emails := make([]string, len(r.s.users))
	for i, u := range r.s.users {
		emails[i] = u.Email
	}
	return emails, nil
}

func (r *UserRepository) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]primitive.ObjectID, len(r.s.users))
	for i, u := range r.s.users {
		ids[i] = u.ID
	}
	return ids, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := indexByID(r.s.users, id, userID)
	if i < 0 {
		return nil, apperrors.ErrUserNotFound
	}
	return copyUser(r.s.users[i]), nil
}

func (r *UserRepository) ApplyBooking(ctx context.Context, id primitive.ObjectID, entry model.BookingHistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := indexByID(r.s.users, id, userID)
	if i < 0 {
		return apperrors.ErrUserNotFound
	}
	u := r.s.users[i]
	u.Stats.TotalBookings++
	u.Stats.TotalSpent += entry.Amount
	if u.Stats.LastBookingDate == nil || entry.Date.After(*u.Stats.LastBookingDate) {
		d := entry.Date
		u.Stats.LastBookingDate = &d
	}
	u.BookingHistory = append(u.BookingHistory, entry)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) ResetStats(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	for _, u := range r.s.users {
		u.Stats = model.UserStats{}
		u.BookingHistory = []model.BookingHistoryEntry{}
		u.UpdatedAt = now
	}
	return nil
}

func (r *UserRepository) SetEngagement(ctx context.Context, id primitive.ObjectID, views []model.ViewEntry, favorites []primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := indexByID(r.s.users, id, userID)
	if i < 0 {
		return apperrors.ErrUserNotFound
	}
	u := r.s.users[i]
	u.ViewHistory = append([]model.ViewEntry{}, views...)
	u.Favorites = append([]primitive.ObjectID{}, favorites...)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// ---- events ----

func copyEvent(e *model.Event) *model.Event {
	c := *e
	c.Categories = append([]string{}, e.Categories...)
	c.Tags = append([]string{}, e.Tags...)
	c.TicketTypes = append([]model.TicketType{}, e.TicketTypes...)
	return &c
}

func eventID(e *model.Event) primitive.ObjectID { return e.ID }

type EventRepository struct{ s *Store }

func (r *EventRepository) InsertMany(ctx context.Context, events []*model.Event) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]primitive.ObjectID, len(events))
	for i, e := range events {
		ids[i] = assignID(&e.ID)
		r.s.events = append(r.s.events, copyEvent(e))
	}
	return ids, nil
}

func (r *EventRepository) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events = nil
	return nil
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.events)), nil
}

func (r *EventRepository) List(ctx context.Context, status model.EventStatus) ([]*model.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		if status == "" || e.Status == status {
			out = append(out, copyEvent(e))
		}
	}
	return out, nil
}

func (r *EventRepository) ListIDs(ctx context.Context, status model.EventStatus) ([]primitive.ObjectID, error) {
	events, err := r.List(ctx, status)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := indexByID(r.s.events, id, eventID)
	if i < 0 {
		return nil, apperrors.ErrEventNotFound
	}
	return copyEvent(r.s.events[i]), nil
}

func (r *EventRepository) ReserveTickets(ctx context.Context, id primitive.ObjectID, ticket model.TicketType, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, apperrors.ErrInvalidInput
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := indexByID(r.s.events, id, eventID)
	if i < 0 {
		return false, nil
	}
	e := r.s.events[i]
	t := e.FindTicketType(ticket.Type)
	if t == nil || e.AvailableSeats < quantity || !t.CanSell(quantity) {
		return false, nil
	}
	t.Sold += quantity
	e.AvailableSeats -= quantity
	e.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *EventRepository) ReleaseTickets(ctx context.Context, id primitive.ObjectID, ticketType string, quantity int) error {
	if quantity <= 0 {
		return apperrors.ErrInvalidInput
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := indexByID(r.s.events, id, eventID)
	if i < 0 {
		return apperrors.ErrTicketNotFound
	}
	e := r.s.events[i]
	t := e.FindTicketType(ticketType)
	if t == nil || t.Sold < quantity {
		return apperrors.ErrTicketNotFound
	}
	t.Sold -= quantity
	e.AvailableSeats += quantity
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// ---- bookings ----

func copyBooking(b *model.Booking) *model.Booking {
	c := *b
	c.Seats = append([]string{}, b.Seats...)
	return &c
}

type BookingRepository struct{ s *Store }

func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assignID(&booking.ID)
	r.s.bookings = append(r.s.bookings, copyBooking(booking))
	return booking, nil
}

func (r *BookingRepository) InsertMany(ctx context.Context, bookings []*model.Booking) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]primitive.ObjectID, len(bookings))
	for i, b := range bookings {
		ids[i] = assignID(&b.ID)
		r.s.bookings = append(r.s.bookings, copyBooking(b))
	}
	return ids, nil
}

func (r *BookingRepository) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.bookings = nil
	return nil
}

func (r *BookingRepository) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.bookings)), nil
}

func (r *BookingRepository) filter(keep func(*model.Booking) bool) []*model.Booking {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Booking, 0, len(r.s.bookings))
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, copyBooking(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *BookingRepository) List(ctx context.Context) ([]*model.Booking, error) {
	return r.filter(func(*model.Booking) bool { return true }), nil
}

func (r *BookingRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

// ---- schema ----

type SchemaRepository struct{ s *Store }

// EnsureCollections 記憶體版沒有驗證規則，只記錄呼叫順序
func (r *SchemaRepository) EnsureCollections(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.schemaSteps = append(r.s.schemaSteps, SchemaStepCollections)
	return nil
}

func (r *SchemaRepository) EnsureIndexes(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.schemaSteps = append(r.s.schemaSteps, SchemaStepIndexes)
	return nil
}

// ClearActivityLogs 記憶體版不保存活動紀錄
func (r *SchemaRepository) ClearActivityLogs(ctx context.Context) error {
	return nil
}

const (
	SchemaStepCollections = "collections"
	SchemaStepIndexes     = "indexes"
)

// Indexed 測試用：EnsureIndexes 是否被呼叫過
func (s *Store) Indexed() bool {
	for _, step := range s.SchemaSteps() {
		if step == SchemaStepIndexes {
			return true
		}
	}
	return false
}

// SchemaSteps 測試用：EnsureCollections / EnsureIndexes 依呼叫順序的紀錄
func (s *Store) SchemaSteps() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.schemaSteps...)
}

var (
	_ repository.OrganizerRepository = (*OrganizerRepository)(nil)
	_ repository.VenueRepository     = (*VenueRepository)(nil)
	_ repository.UserRepository      = (*UserRepository)(nil)
	_ repository.EventRepository     = (*EventRepository)(nil)
	_ repository.BookingRepository   = (*BookingRepository)(nil)
	_ repository.ReviewRepository    = (*ReviewRepository)(nil)
	_ repository.SchemaRepository    = (*SchemaRepository)(nil)
)
