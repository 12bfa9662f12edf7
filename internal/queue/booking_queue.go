package queue

import (
	"context"
	"sync"

	"event-booking-seeder/internal/model"
	"event-booking-seeder/pkg/logger"

	"go.uber.org/zap"
)

type Delivery struct {
	Data    *model.Booking
	Attempt int // 第幾次投遞，從 1 開始
	Ack     func()
	Nack    func(requeue bool)
}

type BookingQueue interface {
	// 發送訂單到隊列
	Publish(ctx context.Context, booking *model.Booking) error
	// 訂閱訂單隊列；一次只投遞一筆，等 Ack/Nack 後才投遞下一筆
	Subscribe(ctx context.Context) (<-chan Delivery, error)
	// 不再接受新訊息；訂閱端把剩下的處理完後 channel 會關閉
	Close()
}

// BookingQueueConfig 零值時使用預設
type BookingQueueConfig struct {
	BufferSize    int
	MaxRedelivery int // Nack(true) 後最多重新投遞幾次，超過就丟棄
}

func defaultBookingQueueConfig() BookingQueueConfig {
	return BookingQueueConfig{
		BufferSize:    256,
		MaxRedelivery: 3,
	}
}

type BookingQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch  chan *model.Booking
	cfg BookingQueueConfig

	closeOnce sync.Once
}

func NewBookingQueue(config *BookingQueueConfig) BookingQueue {
	cfg := defaultBookingQueueConfig()
	if config != nil {
		if config.BufferSize > 0 {
			cfg.BufferSize = config.BufferSize
		}
		if config.MaxRedelivery > 0 {
			cfg.MaxRedelivery = config.MaxRedelivery
		}
	}
	return &BookingQueueImpl{
		ch:  make(chan *model.Booking, cfg.BufferSize),
		cfg: cfg,
	}
}

func (q *BookingQueueImpl) Publish(ctx context.Context, booking *model.Booking) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- booking:
		return nil
	}
}

func (q *BookingQueueImpl) Close() {
	q.closeOnce.Do(func() { close(q.ch) })
}

func (q *BookingQueueImpl) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	log := logger.Ctx(ctx, logger.WithComponent("booking_queue"))

	go func() {
		defer close(out)
		for {
			var booking *model.Booking
			select {
			case <-ctx.Done():
				return
			case b, ok := <-q.ch:
				if !ok {
					return
				}
				booking = b
			}

			for attempt := 1; ; attempt++ {
				requeue, ok := q.deliver(ctx, out, booking, attempt)
				if !ok {
					return
				}
				if !requeue {
					break
				}
				if attempt > q.cfg.MaxRedelivery {
					log.Warn("dropping booking after max redelivery",
						zap.String("booking_id", booking.ID.Hex()),
						zap.Int("attempts", attempt),
					)
					break
				}
			}
		}
	}()

	return out, nil
}

// deliver 投遞一次並等待結果；ok=false 表示 context 已取消
func (q *BookingQueueImpl) deliver(ctx context.Context, out chan<- Delivery, booking *model.Booking, attempt int) (requeue bool, ok bool) {
	done := make(chan bool, 1)
	var once sync.Once
	d := Delivery{
		Data:    booking,
		Attempt: attempt,
		Ack:     func() { once.Do(func() { done <- false }) },
		Nack:    func(requeue bool) { once.Do(func() { done <- requeue }) },
	}

	select {
	case <-ctx.Done():
		return false, false
	case out <- d:
	}

	select {
	case <-ctx.Done():
		return false, false
	case requeue = <-done:
		return requeue, true
	}
}
