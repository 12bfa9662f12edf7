package cache_test

import (
	"context"
	"testing"

	"event-booking-seeder/internal/cache"
	apperrors "event-booking-seeder/pkg/app_errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setupInventory(t *testing.T) (cache.RedisTicketInventoryManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewRedisTicketInventoryManager(rdb), mr
}

func verifyStock(t *testing.T, ctx context.Context, inventory cache.RedisTicketInventoryManager, eventID primitive.ObjectID, ticketType string, expectedStock, expectedSeats int) {
	t.Helper()
	stock, err := inventory.GetStock(ctx, eventID, ticketType)
	assert.NoError(t, err)
	assert.Equal(t, expectedStock, stock)

	seats, err := inventory.GetSeats(ctx, eventID)
	assert.NoError(t, err)
	assert.Equal(t, expectedSeats, seats)
}

func TestTicketInventory_WarmUpInventory(t *testing.T) {
	ctx := context.Background()
	inventory, _ := setupInventory(t)
	eventID := primitive.NewObjectID()

	t.Run("Success", func(t *testing.T) {
		err := inventory.WarmUpInventory(ctx, eventID, "VIP", 20, 5000, 100)
		require.NoError(t, err)

		info, err := inventory.GetInfo(ctx, eventID, "VIP")
		require.NoError(t, err)
		assert.Equal(t, 20, info.Stock)
		assert.Equal(t, 5000.0, info.Price)
		verifyStock(t, ctx, inventory, eventID, "VIP", 20, 100)
	})

	t.Run("Success - second ticket type shares seats", func(t *testing.T) {
		err := inventory.WarmUpInventory(ctx, eventID, "Standard", 80, 1500, 100)
		require.NoError(t, err)
		verifyStock(t, ctx, inventory, eventID, "Standard", 80, 100)
		verifyStock(t, ctx, inventory, eventID, "VIP", 20, 100)
	})
}

func TestTicketInventory_GetStock(t *testing.T) {
	ctx := context.Background()
	inventory, _ := setupInventory(t)

	t.Run("Failed - NotFound", func(t *testing.T) {
		stock, err := inventory.GetStock(ctx, primitive.NewObjectID(), "VIP")
		assert.Equal(t, apperrors.ErrTicketNotFound, err)
		assert.Equal(t, -1, stock)
	})

	t.Run("Failed - seats NotFound", func(t *testing.T) {
		seats, err := inventory.GetSeats(ctx, primitive.NewObjectID())
		assert.Equal(t, apperrors.ErrEventNotFound, err)
		assert.Equal(t, -1, seats)
	})

	t.Run("Failed - info NotFound", func(t *testing.T) {
		info, err := inventory.GetInfo(ctx, primitive.NewObjectID(), "VIP")
		assert.Equal(t, apperrors.ErrTicketNotFound, err)
		assert.Equal(t, cache.RedisTicketInfo{}, info)
	})
}

func TestTicketInventory_DecreStock(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		inventory, _ := setupInventory(t)
		eventID := primitive.NewObjectID()
		require.NoError(t, inventory.WarmUpInventory(ctx, eventID, "VIP", 10, 2500, 50))

		price, err := inventory.DecreStock(ctx, eventID, "VIP", 3)
		require.NoError(t, err)
		assert.Equal(t, 2500.0, price)

		// 票種與座位同時扣減
		verifyStock(t, ctx, inventory, eventID, "VIP", 7, 47)
	})

	t.Run("Failed - InsufficientStock", func(t *testing.T) {
		inventory, _ := setupInventory(t)
		eventID := primitive.NewObjectID()
		require.NoError(t, inventory.WarmUpInventory(ctx, eventID, "VIP", 1, 2500, 50))

		price, err := inventory.DecreStock(ctx, eventID, "VIP", 2)
		assert.Equal(t, apperrors.ErrInsufficientStock, err)
		assert.Equal(t, 0.0, price)
		verifyStock(t, ctx, inventory, eventID, "VIP", 1, 50)
	})

	t.Run("Failed - InsufficientSeats", func(t *testing.T) {
		inventory, _ := setupInventory(t)
		eventID := primitive.NewObjectID()
		require.NoError(t, inventory.WarmUpInventory(ctx, eventID, "VIP", 10, 2500, 2))

		_, err := inventory.DecreStock(ctx, eventID, "VIP", 3)
		assert.Equal(t, apperrors.ErrInsufficientStock, err)
		verifyStock(t, ctx, inventory, eventID, "VIP", 10, 2)
	})

	t.Run("Failed - SoldOut", func(t *testing.T) {
		inventory, _ := setupInventory(t)
		eventID := primitive.NewObjectID()
		require.NoError(t, inventory.WarmUpInventory(ctx, eventID, "VIP", 10, 2500, 0))

		_, err := inventory.DecreStock(ctx, eventID, "VIP", 1)
		assert.Equal(t, apperrors.ErrSoldOut, err)
	})

	t.Run("Failed - TicketNotFound", func(t *testing.T) {
		inventory, _ := setupInventory(t)
		eventID := primitive.NewObjectID()
		require.NoError(t, inventory.WarmUpInventory(ctx, eventID, "VIP", 10, 2500, 50))

		_, err := inventory.DecreStock(ctx, eventID, "Student", 1)
		assert.Equal(t, apperrors.ErrTicketNotFound, err)
	})

	t.Run("Failed - InvalidInput", func(t *testing.T) {
		inventory, _ := setupInventory(t)
		_, err := inventory.DecreStock(ctx, primitive.NewObjectID(), "VIP", 0)
		assert.Equal(t, apperrors.ErrInvalidInput, err)
	})

	t.Run("Failed - redis down", func(t *testing.T) {
		inventory, mr := setupInventory(t)
		mr.Close()
		_, err := inventory.DecreStock(ctx, primitive.NewObjectID(), "VIP", 1)
		assert.Error(t, err)
	})
}

func TestTicketInventory_RollbackStock(t *testing.T) {
	ctx := context.Background()
	inventory, _ := setupInventory(t)
	eventID := primitive.NewObjectID()
	require.NoError(t, inventory.WarmUpInventory(ctx, eventID, "Standard", 5, 1000, 5))

	_, err := inventory.DecreStock(ctx, eventID, "Standard", 5)
	require.NoError(t, err)
	verifyStock(t, ctx, inventory, eventID, "Standard", 0, 0)

	require.NoError(t, inventory.RollbackStock(ctx, eventID, "Standard", 2))
	verifyStock(t, ctx, inventory, eventID, "Standard", 2, 2)

	_, err = inventory.DecreStock(ctx, eventID, "Standard", 2)
	assert.NoError(t, err)
}
