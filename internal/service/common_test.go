package service_test

import (
	"context"
	"errors"
	"testing"

	"event-booking-seeder/config"
	"event-booking-seeder/internal/cache"
	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/repository"
	"event-booking-seeder/internal/repository/memory"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func getTestProfile(t *testing.T) config.Profile {
	t.Helper()
	p, err := config.ProfileByName(config.ProfileSmall)
	require.NoError(t, err)
	return p
}

// withQuantity 固定每次訂票的張數範圍
func withQuantity(p config.Profile, min, max int) config.Profile {
	p.BookingQuantity = config.IntRange{Min: min, Max: max}
	return p
}

func setupStore() (*memory.Store, *repository.Repositories) {
	store := memory.NewStore()
	return store, store.Repositories()
}

func createTestUsers(t *testing.T, repos *repository.Repositories, n int) []primitive.ObjectID {
	t.Helper()
	users := make([]*model.User, n)
	for i := range users {
		u := model.NewUser()
		u.Email = primitive.NewObjectID().Hex() + "@test.com"
		u.Name = "User"
		users[i] = u
	}
	ids, err := repos.Users.InsertMany(context.Background(), users)
	require.NoError(t, err)
	return ids
}

func createTestEvent(t *testing.T, repos *repository.Repositories, capacity int, tickets ...model.TicketType) primitive.ObjectID {
	t.Helper()
	sold := 0
	for _, tt := range tickets {
		sold += tt.Sold
	}
	ids, err := repos.Events.InsertMany(context.Background(), []*model.Event{{
		Title:          "Popular Concert",
		Status:         model.EventStatusPublished,
		Capacity:       capacity,
		AvailableSeats: capacity - sold,
		TicketTypes:    tickets,
	}})
	require.NoError(t, err)
	return ids[0]
}

func getTestEvent(t *testing.T, repos *repository.Repositories, id primitive.ObjectID) *model.Event {
	t.Helper()
	event, err := repos.Events.FindByID(context.Background(), id)
	require.NoError(t, err)
	return event
}

// MockInventoryManager testify 版 Redis 庫存閘門
type MockInventoryManager struct {
	mock.Mock
}

var _ cache.RedisTicketInventoryManager = (*MockInventoryManager)(nil)

func (m *MockInventoryManager) WarmUpInventory(ctx context.Context, eventID primitive.ObjectID, ticketType string, remaining int, price float64, availableSeats int) error {
	args := m.Called(ctx, eventID, ticketType, remaining, price, availableSeats)
	return args.Error(0)
}

func (m *MockInventoryManager) GetStock(ctx context.Context, eventID primitive.ObjectID, ticketType string) (int, error) {
	args := m.Called(ctx, eventID, ticketType)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryManager) GetInfo(ctx context.Context, eventID primitive.ObjectID, ticketType string) (cache.RedisTicketInfo, error) {
	args := m.Called(ctx, eventID, ticketType)
	return args.Get(0).(cache.RedisTicketInfo), args.Error(1)
}

func (m *MockInventoryManager) GetSeats(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryManager) DecreStock(ctx context.Context, eventID primitive.ObjectID, ticketType string, quantity int) (float64, error) {
	args := m.Called(ctx, eventID, ticketType, quantity)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockInventoryManager) RollbackStock(ctx context.Context, eventID primitive.ObjectID, ticketType string, quantity int) error {
	args := m.Called(ctx, eventID, ticketType, quantity)
	return args.Error(0)
}

// contendedEvents 快照看起來有庫存，但條件扣減永遠失敗（模擬被其他嘗試搶先）
type contendedEvents struct {
	repository.EventRepository
}

func (contendedEvents) ReserveTickets(ctx context.Context, id primitive.ObjectID, ticket model.TicketType, quantity int) (bool, error) {
	return false, nil
}

var errBookingWrite = errors.New("booking write failed")

type failingBookings struct {
	repository.BookingRepository
}

func (failingBookings) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	return nil, errBookingWrite
}
