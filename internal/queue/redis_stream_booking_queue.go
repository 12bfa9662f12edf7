package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"event-booking-seeder/internal/model"
	"event-booking-seeder/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StreamKeyPrefix    = "bookings:stats"
	ConsumerGroupName  = "stats-workers"
	ConsumerNamePrefix = "worker"

	fieldBooking = "booking"
	// Close 時寫入的結束標記，讀到後訂閱端關閉 channel
	fieldEOF = "eof"
)

// RedisStreamBookingQueueConfig 可注入的逾時與重試設定；nil 或零值時使用預設。
type RedisStreamBookingQueueConfig struct {
	ClaimMinIdleTime   time.Duration // PEL 中超過此時間才被 XAUTOCLAIM 領取
	MaxRetryCount      int           // 超過此次數視為毒藥消息並丟棄
	ReadGroupBlockTime time.Duration // XReadGroup 阻塞時間
	StreamTTL          time.Duration // Close 後 stream 保留多久
}

func defaultRedisStreamConfig() RedisStreamBookingQueueConfig {
	return RedisStreamBookingQueueConfig{
		ClaimMinIdleTime:   5 * time.Second,
		MaxRetryCount:      5,
		ReadGroupBlockTime: 2 * time.Second,
		StreamTTL:          time.Hour,
	}
}

type RedisStreamBookingQueueImpl struct {
	client       *redis.Client
	streamKey    string
	groupName    string
	consumerName string
	cfg          RedisStreamBookingQueueConfig
}

// StreamKey 一次執行的一個 shard 一條 stream
func StreamKey(runID string, shard int) string {
	return fmt.Sprintf("%s:%s:%d", StreamKeyPrefix, runID, shard)
}

// NewRedisStreamBookingQueue 建立 Redis Stream 版 BookingQueue。config 可為 nil，則使用預設逾時與重試次數。
func NewRedisStreamBookingQueue(ctx context.Context, client *redis.Client, streamKey string, consumerID string, config *RedisStreamBookingQueueConfig) (BookingQueue, error) {
	if consumerID == "" {
		consumerID = uuid.New().String()
	}
	cfg := defaultRedisStreamConfig()
	if config != nil {
		if config.ClaimMinIdleTime > 0 {
			cfg.ClaimMinIdleTime = config.ClaimMinIdleTime
		}
		if config.MaxRetryCount > 0 {
			cfg.MaxRetryCount = config.MaxRetryCount
		}
		if config.ReadGroupBlockTime > 0 {
			cfg.ReadGroupBlockTime = config.ReadGroupBlockTime
		}
		if config.StreamTTL > 0 {
			cfg.StreamTTL = config.StreamTTL
		}
	}
	q := &RedisStreamBookingQueueImpl{
		client:       client,
		streamKey:    streamKey,
		groupName:    ConsumerGroupName,
		consumerName: fmt.Sprintf("%s:%s", ConsumerNamePrefix, consumerID),
		cfg:          cfg,
	}
	if err := q.ensureConsumerGroup(ctx); err != nil {
		return nil, fmt.Errorf("ensure consumer group: %w", err)
	}
	return q, nil
}

func (q *RedisStreamBookingQueueImpl) ensureConsumerGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.streamKey, q.groupName, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}
	return nil
}

func (q *RedisStreamBookingQueueImpl) Publish(ctx context.Context, booking *model.Booking) error {
	bookingJSON, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("marshal booking: %w", err)
	}
	_, err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey,
		ID:     "*",
		Values: map[string]interface{}{fieldBooking: string(bookingJSON)},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

// Close 寫入結束標記並設定 stream 過期；Close 本身沒有 context，用 Background 確保標記一定寫入
func (q *RedisStreamBookingQueueImpl) Close() {
	ctx := context.Background()
	log := logger.WithComponent("mq")
	if err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey,
		ID:     "*",
		Values: map[string]interface{}{fieldEOF: "1"},
	}).Err(); err != nil {
		log.Error("XAdd eof failed", zap.String("stream", q.streamKey), zap.Error(err))
	}
	if err := q.client.Expire(ctx, q.streamKey, q.cfg.StreamTTL).Err(); err != nil {
		log.Warn("Expire stream failed", zap.String("stream", q.streamKey), zap.Error(err))
	}
}

func (q *RedisStreamBookingQueueImpl) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	loopCtx, cancel := context.WithCancel(ctx)

	go func() {
		var wg sync.WaitGroup
		defer func() {
			cancel()
			wg.Wait()
			close(out)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			q.runAutoClaim(loopCtx, out)
		}()
		q.runReadLoop(loopCtx, out)
	}()
	return out, nil
}

// runReadLoop 主讀取循環，讀到結束標記或 context 取消時返回
func (q *RedisStreamBookingQueueImpl) runReadLoop(ctx context.Context, out chan<- Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if done := q.readAndDeliver(ctx, out); done {
				return
			}
		}
	}
}

// readAndDeliver 執行一輪讀取並投遞到 out，回傳是否已讀到結束標記
// 只讀 ">"（新訊息）；Pending 的訊息改由 XAUTOCLAIM 超時後領回重試。
func (q *RedisStreamBookingQueueImpl) readAndDeliver(ctx context.Context, out chan<- Delivery) bool {
	log := logger.Ctx(ctx, logger.WithComponent("mq"))
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: q.consumerName,
		Streams:  []string{q.streamKey, ">"},
		Count:    10,
		Block:    q.cfg.ReadGroupBlockTime,
	}).Result()

	if err == redis.Nil {
		return false
	}
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		log.Error("XReadGroup failed", zap.Error(err))
		time.Sleep(time.Second)
		return false
	}

	for _, stream := range streams {
		if stream.Stream != q.streamKey {
			continue
		}
		for _, msg := range stream.Messages {
			if _, eof := msg.Values[fieldEOF]; eof {
				_ = q.client.XAck(ctx, q.streamKey, q.groupName, msg.ID).Err()
				return true
			}
			d := q.newDelivery(ctx, msg, 1)
			if d != nil {
				select {
				case out <- *d:
				case <-ctx.Done():
					return true
				}
			}
		}
	}
	return false
}

// shouldProcessMessage 檢查是否應處理（含毒藥消息判斷）
func (q *RedisStreamBookingQueueImpl) shouldProcessMessage(ctx context.Context, messageID string) (int, bool) {
	log := logger.Ctx(ctx, logger.WithComponent("mq"))
	n, err := q.getMessageRetryCount(ctx, messageID)
	if err != nil {
		log.Warn("getMessageRetryCount failed", zap.String("message_id", messageID), zap.Error(err))
		return 1, true
	}
	if n >= q.cfg.MaxRetryCount {
		log.Warn("discard poison message", zap.String("message_id", messageID), zap.Int("retries", n), zap.Int("max_retries", q.cfg.MaxRetryCount))
		_ = q.client.XAck(ctx, q.streamKey, q.groupName, messageID).Err()
		return n, false
	}
	return n, true
}

func (q *RedisStreamBookingQueueImpl) getMessageRetryCount(ctx context.Context, messageID string) (int, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.streamKey,
		Group:  q.groupName,
		Start:  messageID,
		End:    messageID,
		Count:  1,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return int(pending[0].RetryCount), nil
}

// runAutoClaim 定時用 XAUTOCLAIM 領取超時未處理的消息
func (q *RedisStreamBookingQueueImpl) runAutoClaim(ctx context.Context, out chan<- Delivery) {
	log := logger.Ctx(ctx, logger.WithComponent("mq"))
	ticker := time.NewTicker(q.cfg.ClaimMinIdleTime)
	defer ticker.Stop()
	startID := "0-0"

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			claimed, nextID, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
				Stream:   q.streamKey,
				Group:    q.groupName,
				Consumer: q.consumerName,
				MinIdle:  q.cfg.ClaimMinIdleTime,
				Count:    10,
				Start:    startID,
			}).Result()

			if err != nil && err != redis.Nil {
				if ctx.Err() == nil {
					log.Error("XAutoClaim failed", zap.Error(err))
				}
				continue
			}
			if nextID != "" && nextID != "0-0" {
				startID = nextID
			} else {
				startID = "0-0"
			}

			for _, msg := range claimed {
				attempt, ok := q.shouldProcessMessage(ctx, msg.ID)
				if !ok {
					continue
				}
				d := q.newDelivery(ctx, msg, attempt)
				if d != nil {
					select {
					case out <- *d:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}
}

// newDelivery 從 Redis 消息組裝 Delivery（含 Ack/Nack）
func (q *RedisStreamBookingQueueImpl) newDelivery(ctx context.Context, msg redis.XMessage, attempt int) *Delivery {
	log := logger.Ctx(ctx, logger.WithComponent("mq"))
	bookingJSON, ok := msg.Values[fieldBooking].(string)
	if !ok {
		log.Warn("invalid message: missing booking field", zap.String("message_id", msg.ID))
		_ = q.client.XAck(ctx, q.streamKey, q.groupName, msg.ID).Err()
		return nil
	}
	var booking model.Booking
	if err := json.Unmarshal([]byte(bookingJSON), &booking); err != nil {
		log.Warn("unmarshal booking failed", zap.String("message_id", msg.ID), zap.Error(err))
		_ = q.client.XAck(ctx, q.streamKey, q.groupName, msg.ID).Err()
		return nil
	}
	msgID := msg.ID
	// Ack 用 Background：worker 處理完時讀取迴圈可能已經結束
	return &Delivery{
		Data:    &booking,
		Attempt: attempt,
		Ack: func() {
			if err := q.client.XAck(context.Background(), q.streamKey, q.groupName, msgID).Err(); err != nil {
				log.Error("XAck failed", zap.String("message_id", msgID), zap.Error(err))
			}
		},
		Nack: func(requeue bool) {
			if requeue {
				// 不做任何事：消息留在 PEL，等 ClaimMinIdleTime 後由 XAUTOCLAIM 領取，形成延遲重試
				log.Info("message nack(requeue), will retry", zap.String("message_id", msgID), zap.Duration("claim_min_idle", q.cfg.ClaimMinIdleTime))
				return
			}
			if err := q.client.XAck(context.Background(), q.streamKey, q.groupName, msgID).Err(); err != nil {
				log.Error("XAck discard failed", zap.String("message_id", msgID), zap.Error(err))
			}
		},
	}
}
