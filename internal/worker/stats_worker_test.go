package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/queue"
	"event-booking-seeder/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBooking(txn string) *model.Booking {
	return &model.Booking{
		ID:            primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		EventID:       primitive.NewObjectID(),
		Quantity:      1,
		TotalAmount:   100,
		Status:        model.BookingStatusConfirmed,
		TransactionID: txn,
	}
}

func TestStatsWorker_ProcessesAll(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// 1. 準備：記憶體隊列與記錄呼叫順序的 handler
	q := queue.NewBookingQueue(nil)
	var mu sync.Mutex
	var handled []string
	handler := func(ctx context.Context, b *model.Booking) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, b.TransactionID)
		return nil
	}

	// 2. 啟動 Worker
	w := worker.NewStatsWorker("stats-test", handler, q, false)
	require.NoError(t, w.Start(ctx))

	// 3. 發送並關閉隊列
	for _, txn := range []string{"TXN1", "TXN2", "TXN3"} {
		require.NoError(t, q.Publish(ctx, newBooking(txn)))
	}
	q.Close()

	// 4. 驗證：依發送順序處理完畢
	require.NoError(t, w.Wait())
	assert.Equal(t, []string{"TXN1", "TXN2", "TXN3"}, handled)
}

func TestStatsWorker_CollectsErrorsWithoutRetry(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errApply := errors.New("apply failed")
	q := queue.NewBookingQueue(nil)
	calls := 0
	handler := func(ctx context.Context, b *model.Booking) error {
		calls++
		if b.TransactionID == "TXN-BAD" {
			return errApply
		}
		return nil
	}

	w := worker.NewStatsWorker("stats-no-retry", handler, q, false)
	require.NoError(t, w.Start(ctx))
	require.NoError(t, q.Publish(ctx, newBooking("TXN-BAD")))
	require.NoError(t, q.Publish(ctx, newBooking("TXN-OK")))
	q.Close()

	err := w.Wait()
	assert.ErrorIs(t, err, errApply)
	assert.Equal(t, 2, calls, "失敗的訊息不應重新投遞")
}

func TestStatsWorker_RetriesUntilSuccess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewBookingQueue(&queue.BookingQueueConfig{MaxRedelivery: 3})
	attempts := 0
	handler := func(ctx context.Context, b *model.Booking) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}

	w := worker.NewStatsWorker("stats-retry", handler, q, true)
	require.NoError(t, w.Start(ctx))
	require.NoError(t, q.Publish(ctx, newBooking("TXN-FLAKY")))
	q.Close()

	assert.NoError(t, w.Wait())
	assert.Equal(t, 3, attempts)
}
