package service

import (
	"context"
	"time"

	"event-booking-seeder/config"
	"event-booking-seeder/internal/fake"
	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/repository"
	apperrors "event-booking-seeder/pkg/app_errors"
	"event-booking-seeder/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type EngagementReport struct {
	Users     int `json:"users"`
	Views     int `json:"views"`
	Favorites int `json:"favorites"`
}

type EngagementService interface {
	CreateReviews(ctx context.Context, n int, userIDs, eventIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
	// CreateViewHistory 每位使用者抽一組瀏覽過的已發佈活動，收藏只從自己瀏覽過的活動中挑
	CreateViewHistory(ctx context.Context, userIDs, publishedEventIDs []primitive.ObjectID) (*EngagementReport, error)
}

type EngagementServiceImpl struct {
	userRepo   repository.UserRepository
	reviewRepo repository.ReviewRepository
	faker      fake.Provider
	profile    config.Profile
	log        *zap.Logger
}

func NewEngagementService(userRepo repository.UserRepository, reviewRepo repository.ReviewRepository, faker fake.Provider, profile config.Profile) EngagementService {
	return &EngagementServiceImpl{
		userRepo:   userRepo,
		reviewRepo: reviewRepo,
		faker:      faker,
		profile:    profile,
		log:        logger.WithComponent("engagement"),
	}
}

func (s *EngagementServiceImpl) CreateReviews(ctx context.Context, n int, userIDs, eventIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if err := checkCount("reviews", n); err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, apperrors.ErrNoUsers
	}
	if len(eventIDs) == 0 {
		return nil, apperrors.ErrNoEvents
	}

	now := time.Now().UTC()
	reviews := make([]*model.Review, n)
	for i := range reviews {
		createdAt := s.faker.DateBetween(now.AddDate(0, 0, -60), now)
		reviews[i] = &model.Review{
			EventID:      fake.Choice(s.faker, eventIDs),
			UserID:       fake.Choice(s.faker, userIDs),
			Rating:       s.faker.IntRange(1, 5),
			Comment:      s.faker.Text(s.profile.ReviewCommentLen),
			HelpfulCount: s.faker.IntRange(0, s.profile.ReviewHelpfulMax),
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}
	}

	ids, err := s.reviewRepo.InsertMany(ctx, reviews)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx, s.log).Info("reviews created", zap.Int("count", len(ids)))
	return ids, nil
}

func (s *EngagementServiceImpl) CreateViewHistory(ctx context.Context, userIDs, publishedEventIDs []primitive.ObjectID) (*EngagementReport, error) {
	report := &EngagementReport{}
	now := time.Now().UTC()

	for _, userID := range userIDs {
		// 活動數比設定的瀏覽數少時以活動數為上限
		k := min(s.faker.IntRange(s.profile.Views.Min, s.profile.Views.Max), len(publishedEventIDs))
		viewed, err := fake.Sample(s.faker, publishedEventIDs, k)
		if err != nil {
			return nil, err
		}

		views := make([]model.ViewEntry, len(viewed))
		for i, eventID := range viewed {
			views[i] = model.ViewEntry{
				EventID:  eventID,
				ViewedAt: s.faker.DateBetween(now.AddDate(0, 0, -30), now),
			}
		}

		f := min(s.faker.IntRange(s.profile.Favorites.Min, s.profile.Favorites.Max), len(viewed))
		favorites, err := fake.Sample(s.faker, viewed, f)
		if err != nil {
			return nil, err
		}

		if err := s.userRepo.SetEngagement(ctx, userID, views, favorites); err != nil {
			return nil, err
		}
		report.Users++
		report.Views += len(views)
		report.Favorites += len(favorites)
	}

	logger.Ctx(ctx, s.log).Info("view history created",
		zap.Int("users", report.Users),
		zap.Int("views", report.Views),
		zap.Int("favorites", report.Favorites),
	)
	return report, nil
}
