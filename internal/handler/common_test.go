package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/service"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	InvalidJSON = `{"invalid": json}`
)

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	if raw, ok := data.(string); ok {
		return bytes.NewBufferString(raw)
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create HTTP request with JSON body
func createJSONHTTPRequest(method, url string, data interface{}) *http.Request {
	req, err := http.NewRequest(method, url, createJSONRequest(data))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

type MockCatalogService struct {
	mock.Mock
}

var _ service.CatalogService = (*MockCatalogService)(nil)

func (m *MockCatalogService) CreateOrganizers(ctx context.Context, n int) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, n)
	return args.Get(0).([]primitive.ObjectID), args.Error(1)
}

func (m *MockCatalogService) CreateVenues(ctx context.Context, n int) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, n)
	return args.Get(0).([]primitive.ObjectID), args.Error(1)
}

func (m *MockCatalogService) CreateUsers(ctx context.Context, n int) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, n)
	return args.Get(0).([]primitive.ObjectID), args.Error(1)
}

func (m *MockCatalogService) CreateEvents(ctx context.Context, n int, organizerIDs, venueIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, n, organizerIDs, venueIDs)
	return args.Get(0).([]primitive.ObjectID), args.Error(1)
}

func (m *MockCatalogService) GetEvent(ctx context.Context, id primitive.ObjectID) (*model.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*model.Event)
	return event, args.Error(1)
}

func (m *MockCatalogService) GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

type MockBookingService struct {
	mock.Mock
}

var _ service.BookingService = (*MockBookingService)(nil)

func (m *MockBookingService) Generate(ctx context.Context, n int, userIDs, eventIDs []primitive.ObjectID) ([]*model.Booking, *service.BookingReport, error) {
	args := m.Called(ctx, n, userIDs, eventIDs)
	bookings, _ := args.Get(0).([]*model.Booking)
	report, _ := args.Get(1).(*service.BookingReport)
	return bookings, report, args.Error(2)
}

func (m *MockBookingService) OpenForSale(ctx context.Context, eventIDs []primitive.ObjectID) error {
	args := m.Called(ctx, eventIDs)
	return args.Error(0)
}

func (m *MockBookingService) AuditInventory(ctx context.Context, eventIDs []primitive.ObjectID) (*service.InventoryAudit, error) {
	args := m.Called(ctx, eventIDs)
	audit, _ := args.Get(0).(*service.InventoryAudit)
	return audit, args.Error(1)
}

func (m *MockBookingService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Booking, error) {
	args := m.Called(ctx, userID)
	bookings, _ := args.Get(0).([]*model.Booking)
	return bookings, args.Error(1)
}

type MockPipelineService struct {
	mock.Mock
}

var _ service.PipelineService = (*MockPipelineService)(nil)

func (m *MockPipelineService) Run(ctx context.Context, opts service.RunOptions) (*service.RunReport, error) {
	args := m.Called(ctx, opts)
	report, _ := args.Get(0).(*service.RunReport)
	return report, args.Error(1)
}

func (m *MockPipelineService) Summary(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}
