package queue

import (
	"context"

	"event-booking-seeder/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Factory 為第 shard 個 worker 建立一條隊列
type Factory func(ctx context.Context, shard int) (BookingQueue, error)

func MemoryFactory(config *BookingQueueConfig) Factory {
	return func(ctx context.Context, shard int) (BookingQueue, error) {
		return NewBookingQueue(config), nil
	}
}

// RedisStreamFactory stream key 以 context 中的 run_id 區分，沒有時用新的 uuid
func RedisStreamFactory(client *redis.Client, config *RedisStreamBookingQueueConfig) Factory {
	return func(ctx context.Context, shard int) (BookingQueue, error) {
		runID := logger.RunID(ctx)
		if runID == "" {
			runID = uuid.New().String()
		}
		return NewRedisStreamBookingQueue(ctx, client, StreamKey(runID, shard), "", config)
	}
}
