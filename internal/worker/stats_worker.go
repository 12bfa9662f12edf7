package worker

import (
	"context"
	"errors"
	"sync"

	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/queue"
	"event-booking-seeder/pkg/logger"

	"go.uber.org/zap"
)

// Handler 處理一筆訂單；回傳 error 代表這筆沒有套用成功
type Handler func(ctx context.Context, booking *model.Booking) error

type StatsWorker interface {
	// 訂閱隊列並在背景處理
	Start(ctx context.Context) error
	// 等待隊列處理完，回傳處理過程中所有失敗
	Wait() error
}

type StatsWorkerImpl struct {
	name    string
	handler Handler
	queue   queue.BookingQueue
	// retry 為 true 時失敗的訊息 Nack(true) 重新投遞
	retry bool

	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func NewStatsWorker(name string, handler Handler, queue queue.BookingQueue, retry bool) StatsWorker {
	return &StatsWorkerImpl{
		name:    name,
		handler: handler,
		queue:   queue,
		retry:   retry,
	}
}

func (w *StatsWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}
	log := logger.Ctx(ctx, logger.WithComponent("stats_worker")).With(zap.String("worker", w.name))

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for msg := range msgs {
			err := w.handler(ctx, msg.Data)
			if err == nil {
				msg.Ack()
				continue
			}

			log.Error("failed to apply booking",
				zap.String("booking_id", msg.Data.ID.Hex()),
				zap.Int("attempt", msg.Attempt),
				zap.Error(err),
			)
			if w.retry {
				msg.Nack(true)
				continue
			}
			w.mu.Lock()
			w.errs = append(w.errs, err)
			w.mu.Unlock()
			msg.Nack(false)
		}
	}()
	return nil
}

func (w *StatsWorkerImpl) Wait() error {
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}
