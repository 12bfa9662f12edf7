// Package app 組裝 store、Redis 閘門與各 service，cmd/seeder 與 cmd/server 共用。
package app

import (
	"context"
	"fmt"

	"event-booking-seeder/config"
	"event-booking-seeder/internal/cache"
	"event-booking-seeder/internal/database"
	"event-booking-seeder/internal/fake"
	"event-booking-seeder/internal/queue"
	"event-booking-seeder/internal/repository"
	"event-booking-seeder/internal/repository/memory"
	"event-booking-seeder/internal/service"
	"event-booking-seeder/pkg/logger"

	"go.uber.org/zap"
)

type Options struct {
	// DryRun 使用記憶體 store，不連線 Mongo 與 Redis
	DryRun bool
}

type App struct {
	Profile    config.Profile
	Repos      *repository.Repositories
	Catalog    service.CatalogService
	Booking    service.BookingService
	Stats      service.StatsService
	Engagement service.EngagementService
	Pipeline   service.PipelineService

	closers []func()
}

// Close 依建立的相反順序釋放連線
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New 連不上 store（或有用到的 Redis）時回傳錯誤，由呼叫端決定結束程序
func New(cfg *config.Config, opts Options) (*App, error) {
	profile, err := config.ProfileByName(cfg.Generation.Profile)
	if err != nil {
		return nil, err
	}
	log := logger.WithComponent("app")

	a := &App{Profile: profile}

	var (
		gate        cache.RedisTicketInventoryManager
		statsQueues queue.Factory
	)
	if opts.DryRun {
		a.Repos = memory.NewStore().Repositories()
		log.Info("using in-memory store")
	} else {
		client, db, err := database.InitMongo(&cfg.Mongo)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("failed to disconnect mongo", zap.Error(err))
			}
		})
		a.Repos = repository.NewRepositories(db)
		log.Info("connected to mongo", zap.String("database", cfg.Mongo.Database))

		if cfg.Generation.InventoryGate == config.InventoryGateRedis || cfg.Generation.StatsQueue == config.StatsQueueRedis {
			rdb, err := database.InitRedis(&cfg.Redis)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("redis: %w", err)
			}
			a.closers = append(a.closers, func() { _ = rdb.Close() })

			if cfg.Generation.InventoryGate == config.InventoryGateRedis {
				gate = cache.NewRedisTicketInventoryManager(rdb)
				log.Info("redis inventory gate enabled")
			}
			if cfg.Generation.StatsQueue == config.StatsQueueRedis {
				statsQueues = queue.RedisStreamFactory(rdb, nil)
				log.Info("redis stream stats queues enabled")
			}
		}
	}

	faker := fake.New(cfg.Generation.RandomSeed)
	a.Catalog = service.NewCatalogService(a.Repos, faker, profile)
	a.Booking = service.NewBookingService(a.Repos.Events, a.Repos.Bookings, gate, faker, profile, service.BookingOptions{
		Workers:          cfg.Generation.Workers,
		ReleaseCancelled: cfg.Generation.ReleaseCancelled,
	})
	a.Stats = service.NewStatsService(a.Repos.Users, a.Repos.Events, cfg.Generation.Workers, statsQueues)
	a.Engagement = service.NewEngagementService(a.Repos.Users, a.Repos.Reviews, faker, profile)
	a.Pipeline = service.NewPipelineService(a.Repos, a.Catalog, a.Booking, a.Stats, a.Engagement, profile)
	return a, nil
}
