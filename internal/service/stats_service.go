package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync/atomic"

	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/queue"
	"event-booking-seeder/internal/repository"
	"event-booking-seeder/internal/worker"
	apperrors "event-booking-seeder/pkg/app_errors"
	"event-booking-seeder/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type PropagationReport struct {
	Applied             int `json:"applied"`
	SkippedMissingEvent int `json:"skipped_missing_event"`
	SkippedMissingUser  int `json:"skipped_missing_user"`
}

type StatsService interface {
	// Propagate 依 created_at 順序把每筆訂單併入所屬使用者的統計與訂票紀錄
	Propagate(ctx context.Context, bookings []*model.Booking) (*PropagationReport, error)
	// Rebuild 先把所有使用者統計歸零再 Propagate，重跑結果相同
	Rebuild(ctx context.Context, bookings []*model.Booking) (*PropagationReport, error)
}

type StatsServiceImpl struct {
	userRepo  repository.UserRepository
	eventRepo repository.EventRepository
	workers   int
	queues    queue.Factory
	log       *zap.Logger
}

// NewStatsService queues 為 nil 時使用記憶體隊列
func NewStatsService(userRepo repository.UserRepository, eventRepo repository.EventRepository, workers int, queues queue.Factory) StatsService {
	if workers < 1 {
		workers = 1
	}
	if queues == nil {
		queues = queue.MemoryFactory(nil)
	}
	return &StatsServiceImpl{
		userRepo:  userRepo,
		eventRepo: eventRepo,
		workers:   workers,
		queues:    queues,
		log:       logger.WithComponent("stats"),
	}
}

// eventTitles 每個活動只查一次；找不到的活動不放進 map
func (s *StatsServiceImpl) eventTitles(ctx context.Context, bookings []*model.Booking) (map[primitive.ObjectID]string, error) {
	titles := make(map[primitive.ObjectID]string)
	missing := make(map[primitive.ObjectID]struct{})
	for _, b := range bookings {
		if _, ok := titles[b.EventID]; ok {
			continue
		}
		if _, ok := missing[b.EventID]; ok {
			continue
		}
		event, err := s.eventRepo.FindByID(ctx, b.EventID)
		if err != nil {
			if errors.Is(err, apperrors.ErrEventNotFound) {
				missing[b.EventID] = struct{}{}
				continue
			}
			return nil, err
		}
		titles[b.EventID] = event.Title
	}
	return titles, nil
}

func shardOf(userID primitive.ObjectID, shards int) int {
	h := fnv.New32a()
	_, _ = h.Write(userID[:])
	return int(h.Sum32() % uint32(shards))
}

func (s *StatsServiceImpl) Propagate(ctx context.Context, bookings []*model.Booking) (*PropagationReport, error) {
	ordered := make([]*model.Booking, len(bookings))
	copy(ordered, bookings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	titles, err := s.eventTitles(ctx, ordered)
	if err != nil {
		return nil, err
	}

	var applied, missingEvent, missingUser atomic.Int64
	handler := func(ctx context.Context, b *model.Booking) error {
		err := s.userRepo.ApplyBooking(ctx, b.UserID, b.HistoryEntry(titles[b.EventID]))
		if errors.Is(err, apperrors.ErrUserNotFound) {
			logger.Ctx(ctx, s.log).Warn("skip: booking references missing user",
				zap.String("booking_id", b.ID.Hex()),
				zap.String("user_id", b.UserID.Hex()),
			)
			missingUser.Add(1)
			return nil
		}
		if err != nil {
			return err
		}
		applied.Add(1)
		return nil
	}

	// 同一個使用者的訂單一定落在同一個 shard，由單一 worker 依序套用
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queues := make([]queue.BookingQueue, s.workers)
	workers := make([]worker.StatsWorker, s.workers)
	for i := range queues {
		q, err := s.queues(runCtx, i)
		if err != nil {
			return nil, fmt.Errorf("create stats queue: %w", err)
		}
		queues[i] = q
		workers[i] = worker.NewStatsWorker(fmt.Sprintf("stats-%d", i), handler, queues[i], false)
		if err := workers[i].Start(runCtx); err != nil {
			return nil, err
		}
	}

	var publishErr error
	for _, b := range ordered {
		if _, ok := titles[b.EventID]; !ok {
			logger.Ctx(ctx, s.log).Warn("skip: booking references missing event",
				zap.String("booking_id", b.ID.Hex()),
				zap.String("event_id", b.EventID.Hex()),
			)
			missingEvent.Add(1)
			continue
		}
		if publishErr = queues[shardOf(b.UserID, s.workers)].Publish(runCtx, b); publishErr != nil {
			break
		}
	}
	for _, q := range queues {
		q.Close()
	}

	var errs []error
	if publishErr != nil {
		errs = append(errs, publishErr)
	}
	for _, w := range workers {
		if err := w.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("propagate stats: %w", err)
	}

	report := &PropagationReport{
		Applied:             int(applied.Load()),
		SkippedMissingEvent: int(missingEvent.Load()),
		SkippedMissingUser:  int(missingUser.Load()),
	}
	logger.Ctx(ctx, s.log).Info("stats propagated",
		zap.Int("applied", report.Applied),
		zap.Int("skipped_missing_event", report.SkippedMissingEvent),
		zap.Int("skipped_missing_user", report.SkippedMissingUser),
	)
	return report, nil
}

func (s *StatsServiceImpl) Rebuild(ctx context.Context, bookings []*model.Booking) (*PropagationReport, error) {
	if err := s.userRepo.ResetStats(ctx); err != nil {
		return nil, err
	}
	return s.Propagate(ctx, bookings)
}
