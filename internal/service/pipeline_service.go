package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"event-booking-seeder/config"
	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/repository"
	apperrors "event-booking-seeder/pkg/app_errors"
	"event-booking-seeder/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type RunOptions struct {
	// Clear 先清空所有集合再產生
	Clear bool
}

type RunReport struct {
	RunID      string             `json:"run_id"`
	Profile    string             `json:"profile"`
	Cleared    bool               `json:"cleared"`
	StartedAt  time.Time          `json:"started_at"`
	Duration   string             `json:"duration"`
	Booking    *BookingReport     `json:"booking"`
	Inventory  *InventoryAudit    `json:"inventory"`
	Stats      *PropagationReport `json:"stats"`
	Engagement *EngagementReport  `json:"engagement"`
	Counts     map[string]int64   `json:"counts"`
}

type PipelineService interface {
	// Run 依固定順序執行所有產生階段，任一階段失敗就中止
	Run(ctx context.Context, opts RunOptions) (*RunReport, error)
	// Summary 各集合目前的文件數
	Summary(ctx context.Context) (map[string]int64, error)
}

type PipelineServiceImpl struct {
	repos      *repository.Repositories
	catalog    CatalogService
	booking    BookingService
	stats      StatsService
	engagement EngagementService
	profile    config.Profile
	log        *zap.Logger

	// 同一時間只允許一次 Run
	running sync.Mutex
}

func NewPipelineService(
	repos *repository.Repositories,
	catalog CatalogService,
	booking BookingService,
	stats StatsService,
	engagement EngagementService,
	profile config.Profile,
) PipelineService {
	return &PipelineServiceImpl{
		repos:      repos,
		catalog:    catalog,
		booking:    booking,
		stats:      stats,
		engagement: engagement,
		profile:    profile,
		log:        logger.WithComponent("pipeline"),
	}
}

func (s *PipelineServiceImpl) clear(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{repository.CollectionBookings, s.repos.Bookings.DeleteAll},
		{repository.CollectionReviews, s.repos.Reviews.DeleteAll},
		{repository.CollectionEvents, s.repos.Events.DeleteAll},
		{repository.CollectionUsers, s.repos.Users.DeleteAll},
		{repository.CollectionVenues, s.repos.Venues.DeleteAll},
		{repository.CollectionOrganizers, s.repos.Organizers.DeleteAll},
		{repository.CollectionActivityLogs, s.repos.Schema.ClearActivityLogs},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("clear %s: %w", step.name, err)
		}
	}
	return nil
}

func (s *PipelineServiceImpl) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	if !s.running.TryLock() {
		return nil, apperrors.ErrRunInProgress
	}
	defer s.running.Unlock()

	// 設定有誤時什麼都不動
	if err := s.profile.Validate(); err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:     uuid.New().String(),
		Profile:   s.profile.Name,
		Cleared:   opts.Clear,
		StartedAt: time.Now().UTC(),
	}
	ctx = logger.ContextWithRunID(ctx, report.RunID)
	log := logger.Ctx(ctx, s.log)
	log.Info("run started", zap.String("profile", s.profile.Name), zap.Bool("clear", opts.Clear))

	// 0. 清空、集合驗證規則與索引
	if opts.Clear {
		if err := s.clear(ctx); err != nil {
			return nil, err
		}
		log.Info("collections cleared")
	}
	if err := s.repos.Schema.EnsureCollections(ctx); err != nil {
		return nil, err
	}
	if err := s.repos.Schema.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	// 1. 主辦單位與場地，互不相依
	organizerIDs, err := s.catalog.CreateOrganizers(ctx, s.profile.Organizers)
	if err != nil {
		return nil, fmt.Errorf("organizers phase: %w", err)
	}
	venueIDs, err := s.catalog.CreateVenues(ctx, s.profile.Venues)
	if err != nil {
		return nil, fmt.Errorf("venues phase: %w", err)
	}

	// 2. 使用者與活動
	userIDs, err := s.catalog.CreateUsers(ctx, s.profile.Users)
	if err != nil {
		return nil, fmt.Errorf("users phase: %w", err)
	}
	eventIDs, err := s.catalog.CreateEvents(ctx, s.profile.Events, organizerIDs, venueIDs)
	if err != nil {
		return nil, fmt.Errorf("events phase: %w", err)
	}

	// 3. 訂票只針對本次產生且已發佈的活動
	published, err := s.publishedAmong(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	if err := s.booking.OpenForSale(ctx, published); err != nil {
		return nil, fmt.Errorf("open for sale: %w", err)
	}
	bookings, bookingReport, err := s.booking.Generate(ctx, s.profile.BookingAttempts, userIDs, published)
	if err != nil {
		return nil, fmt.Errorf("bookings phase: %w", err)
	}
	report.Booking = bookingReport

	// 訂票後對帳，帳不平代表不變量被破壞，整次執行失敗
	audit, err := s.booking.AuditInventory(ctx, published)
	if err != nil {
		return nil, fmt.Errorf("inventory audit: %w", err)
	}
	report.Inventory = audit
	if len(audit.Mismatches) > 0 {
		return nil, fmt.Errorf("%w: %d problems, first: %s", apperrors.ErrInventoryMismatch, len(audit.Mismatches), audit.Mismatches[0])
	}

	// 4. 所有訂單都存在後才推導使用者統計
	statsReport, err := s.stats.Propagate(ctx, bookings)
	if err != nil {
		return nil, fmt.Errorf("stats phase: %w", err)
	}
	report.Stats = statsReport

	// 5. 評論與瀏覽紀錄
	if _, err := s.engagement.CreateReviews(ctx, s.profile.Reviews, userIDs, eventIDs); err != nil {
		return nil, fmt.Errorf("reviews phase: %w", err)
	}
	engagementReport, err := s.engagement.CreateViewHistory(ctx, userIDs, published)
	if err != nil {
		return nil, fmt.Errorf("view history phase: %w", err)
	}
	report.Engagement = engagementReport

	// 6. 總結
	counts, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}
	report.Counts = counts
	report.Duration = time.Since(report.StartedAt).Round(time.Millisecond).String()

	log.Info("run finished",
		zap.Any("counts", counts),
		zap.Int("bookings_created", bookingReport.Created),
		zap.Int("bookings_skipped", bookingReport.TotalSkipped()),
		zap.Any("skip_reasons", bookingReport.Skipped),
		zap.Int("stats_skipped", statsReport.SkippedMissingEvent+statsReport.SkippedMissingUser),
		zap.String("duration", report.Duration),
	)
	return report, nil
}

// publishedAmong 從本次建立的活動中挑出 status=published 的
func (s *PipelineServiceImpl) publishedAmong(ctx context.Context, eventIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	all, err := s.repos.Events.ListIDs(ctx, model.EventStatusPublished)
	if err != nil {
		return nil, err
	}
	created := make(map[primitive.ObjectID]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		created[id] = struct{}{}
	}
	published := make([]primitive.ObjectID, 0, len(eventIDs))
	for _, id := range all {
		if _, ok := created[id]; ok {
			published = append(published, id)
		}
	}
	return published, nil
}

func (s *PipelineServiceImpl) Summary(ctx context.Context) (map[string]int64, error) {
	counters := []struct {
		name string
		fn   func(context.Context) (int64, error)
	}{
		{repository.CollectionOrganizers, s.repos.Organizers.Count},
		{repository.CollectionVenues, s.repos.Venues.Count},
		{repository.CollectionUsers, s.repos.Users.Count},
		{repository.CollectionEvents, s.repos.Events.Count},
		{repository.CollectionBookings, s.repos.Bookings.Count},
		{repository.CollectionReviews, s.repos.Reviews.Count},
	}

	counts := make(map[string]int64, len(counters)+1)
	var total int64
	for _, c := range counters {
		n, err := c.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.name, err)
		}
		counts[c.name] = n
		total += n
	}
	counts["total"] = total
	return counts, nil
}
