package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"event-booking-seeder/config"
	"event-booking-seeder/internal/fake"
	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/repository"
	apperrors "event-booking-seeder/pkg/app_errors"
	"event-booking-seeder/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CatalogService interface {
	CreateOrganizers(ctx context.Context, n int) ([]primitive.ObjectID, error)
	CreateVenues(ctx context.Context, n int) ([]primitive.ObjectID, error)
	// CreateUsers email 在同一批內不重複，統計歸零
	CreateUsers(ctx context.Context, n int) ([]primitive.ObjectID, error)
	// CreateEvents 每個活動引用一個主辦單位與一個場地
	CreateEvents(ctx context.Context, n int, organizerIDs, venueIDs []primitive.ObjectID) ([]primitive.ObjectID, error)

	GetEvent(ctx context.Context, id primitive.ObjectID) (*model.Event, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error)
}

type CatalogServiceImpl struct {
	repos   *repository.Repositories
	faker   fake.Provider
	profile config.Profile
	log     *zap.Logger
}

func NewCatalogService(repos *repository.Repositories, faker fake.Provider, profile config.Profile) CatalogService {
	return &CatalogServiceImpl{
		repos:   repos,
		faker:   faker,
		profile: profile,
		log:     logger.WithComponent("catalog"),
	}
}

func (s *CatalogServiceImpl) CreateOrganizers(ctx context.Context, n int) ([]primitive.ObjectID, error) {
	if err := checkCount("organizers", n); err != nil {
		return nil, err
	}
	organizers := make([]*model.Organizer, n)
	for i := range organizers {
		organizers[i] = &model.Organizer{
			Name:        s.faker.Company(),
			Email:       s.faker.Email(),
			Phone:       s.faker.Phone(),
			Description: s.faker.Text(200),
			Rating:      fake.Round(s.faker.Float64Range(3.5, 5.0), 1),
			TotalEvents: s.faker.IntRange(s.profile.OrganizerTotalEvents.Min, s.profile.OrganizerTotalEvents.Max),
		}
	}

	ids, err := s.repos.Organizers.InsertMany(ctx, organizers)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx, s.log).Info("organizers created", zap.Int("count", len(ids)))
	return ids, nil
}

func (s *CatalogServiceImpl) CreateVenues(ctx context.Context, n int) ([]primitive.ObjectID, error) {
	if err := checkCount("venues", n); err != nil {
		return nil, err
	}
	venues := make([]*model.Venue, n)
	for i := range venues {
		sections := make([]model.Section, len(s.profile.VenueSections))
		for j, t := range s.profile.VenueSections {
			sections[j] = model.Section{Name: t.Name, Rows: t.Rows, SeatsPerRow: t.SeatsPerRow}
		}
		venues[i] = &model.Venue{
			Name: fake.Choice(s.faker, s.profile.VenueNames),
			Location: model.NewGeoPoint(
				fake.Round(s.faker.Float64Range(37.0, 38.0), 6),
				fake.Round(s.faker.Float64Range(55.0, 56.0), 6),
			),
			Address:  s.faker.Address(),
			Capacity: fake.Choice(s.faker, s.profile.VenueCapacities),
			Sections: sections,
		}
	}

	ids, err := s.repos.Venues.InsertMany(ctx, venues)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx, s.log).Info("venues created", zap.Int("count", len(ids)))
	return ids, nil
}

// uniqueEmail 重抽直到不與已用的 email 重複；抽太多次就在帳號後加序號，序號遞增到不重複為止
func (s *CatalogServiceImpl) uniqueEmail(used map[string]struct{}, i int) string {
	for try := 0; try < 5; try++ {
		email := s.faker.Email()
		if _, dup := used[email]; !dup {
			used[email] = struct{}{}
			return email
		}
	}
	local, domain, _ := strings.Cut(s.faker.Email(), "@")
	for suffix := i; ; suffix++ {
		email := fmt.Sprintf("%s.%d@%s", local, suffix, domain)
		if _, dup := used[email]; !dup {
			used[email] = struct{}{}
			return email
		}
	}
}

func (s *CatalogServiceImpl) CreateUsers(ctx context.Context, n int) ([]primitive.ObjectID, error) {
	if err := checkCount("users", n); err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	// 不清空就追加時，新 email 也不能撞到 users.email 的唯一索引
	existing, err := s.repos.Users.ListEmails(ctx)
	if err != nil {
		return nil, err
	}
	used := make(map[string]struct{}, len(existing)+n)
	for _, email := range existing {
		used[email] = struct{}{}
	}

	users := make([]*model.User, n)
	for i := range users {
		categories, err := fake.Sample(s.faker, s.profile.UserCategories,
			min(s.faker.IntRange(s.profile.UserCategoryCount.Min, s.profile.UserCategoryCount.Max), len(s.profile.UserCategories)))
		if err != nil {
			return nil, err
		}

		u := model.NewUser()
		u.Email = s.uniqueEmail(used, i)
		u.Name = s.faker.Name()
		u.Phone = s.faker.Phone()
		u.Preferences = model.Preferences{Categories: categories, Notifications: s.faker.Bool()}
		u.CreatedAt = s.faker.DateBetween(now.Add(-s.profile.UserCreatedWithin), now)
		u.UpdatedAt = now.Truncate(time.Millisecond)
		users[i] = u
	}

	ids, err := s.repos.Users.InsertMany(ctx, users)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx, s.log).Info("users created", zap.Int("count", len(ids)))
	return ids, nil
}

func (s *CatalogServiceImpl) CreateEvents(ctx context.Context, n int, organizerIDs, venueIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if err := checkCount("events", n); err != nil {
		return nil, err
	}
	if len(organizerIDs) == 0 {
		return nil, apperrors.ErrNoOrganizers
	}
	if len(venueIDs) == 0 {
		return nil, apperrors.ErrNoVenues
	}

	p := s.profile
	now := time.Now().UTC()

	events := make([]*model.Event, n)
	for i := range events {
		categories, err := fake.Sample(s.faker, p.EventCategories,
			min(s.faker.IntRange(p.EventCategoryCount.Min, p.EventCategoryCount.Max), len(p.EventCategories)))
		if err != nil {
			return nil, err
		}
		tags, err := fake.Sample(s.faker, p.EventTags,
			min(s.faker.IntRange(p.EventTagCount.Min, p.EventTagCount.Max), len(p.EventTags)))
		if err != nil {
			return nil, err
		}

		ticketTypes := make([]model.TicketType, len(p.TicketTypes))
		for j, t := range p.TicketTypes {
			ticketTypes[j] = model.TicketType{
				Type:     t.Type,
				Price:    float64(s.faker.IntRange(t.Price.Min, t.Price.Max)),
				Quantity: s.faker.IntRange(t.Quantity.Min, t.Quantity.Max),
			}
		}

		capacity := fake.Choice(s.faker, p.EventCapacities)
		createdAt := s.faker.DateBetween(now.AddDate(0, 0, -30), now)
		events[i] = &model.Event{
			Title:          fmt.Sprintf("%s %s", fake.Choice(s.faker, p.EventKinds), capitalize(s.faker.Word())),
			Description:    s.faker.Text(p.DescriptionMaxLen),
			Date:           s.faker.DateBetween(now.AddDate(0, 0, 1), now.Add(p.EventDateWithin)),
			VenueID:        fake.Choice(s.faker, venueIDs),
			OrganizerID:    fake.Choice(s.faker, organizerIDs),
			Categories:     categories,
			Tags:           tags,
			TicketTypes:    ticketTypes,
			Status:         model.EventStatus(fake.Choice(s.faker, p.EventStatuses)),
			Capacity:       capacity,
			AvailableSeats: capacity,
			CreatedAt:      createdAt,
			UpdatedAt:      createdAt,
		}
	}

	ids, err := s.repos.Events.InsertMany(ctx, events)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx, s.log).Info("events created", zap.Int("count", len(ids)))
	return ids, nil
}

func (s *CatalogServiceImpl) GetEvent(ctx context.Context, id primitive.ObjectID) (*model.Event, error) {
	return s.repos.Events.FindByID(ctx, id)
}

func (s *CatalogServiceImpl) GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return s.repos.Users.FindByID(ctx, id)
}

func capitalize(w string) string {
	r, n := utf8.DecodeRuneInString(w)
	if n == 0 {
		return w
	}
	return string(unicode.ToUpper(r)) + w[n:]
}

// checkCount 產生數量不可為負
func checkCount(what string, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %s count %d", apperrors.ErrInvalidInput, what, n)
	}
	return nil
}
