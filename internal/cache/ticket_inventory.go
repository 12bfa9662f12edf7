package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	apperrors "event-booking-seeder/pkg/app_errors"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RedisTicketInfo struct {
	Stock int
	Price float64
}

type RedisTicketInventoryManager interface {
	// 預熱：把活動剩餘座位與某個票種的剩餘庫存載入 Redis
	WarmUpInventory(ctx context.Context, eventID primitive.ObjectID, ticketType string, remaining int, price float64, availableSeats int) error
	// 獲取：票種剩餘庫存
	GetStock(ctx context.Context, eventID primitive.ObjectID, ticketType string) (int, error)
	// 獲取：票種庫存與價格
	GetInfo(ctx context.Context, eventID primitive.ObjectID, ticketType string) (RedisTicketInfo, error)
	// 獲取：活動剩餘座位
	GetSeats(ctx context.Context, eventID primitive.ObjectID) (int, error)
	// 減少：同時扣減票種庫存與活動座位 (使用Lua腳本確保原子性)
	DecreStock(ctx context.Context, eventID primitive.ObjectID, ticketType string, quantity int) (float64, error)
	// 回滾：歸還票種庫存與活動座位 (使用Lua腳本確保原子性)
	RollbackStock(ctx context.Context, eventID primitive.ObjectID, ticketType string, quantity int) error
}

type RedisTicketInventoryManagerImpl struct {
	client *redis.Client
}

func NewRedisTicketInventoryManager(client *redis.Client) RedisTicketInventoryManager {
	return &RedisTicketInventoryManagerImpl{
		client: client,
	}
}

// 活動庫存 key，一個活動一個 hash
func (m *RedisTicketInventoryManagerImpl) getInventoryKey(eventID primitive.ObjectID) string {
	return fmt.Sprintf("event:%s:inventory", eventID.Hex())
}

func stockField(ticketType string) string {
	return "ticket:" + ticketType + ":stock"
}

func priceField(ticketType string) string {
	return "ticket:" + ticketType + ":price"
}

func (m *RedisTicketInventoryManagerImpl) WarmUpInventory(ctx context.Context, eventID primitive.ObjectID, ticketType string, remaining int, price float64, availableSeats int) error {
	key := m.getInventoryKey(eventID)
	return m.client.HSet(ctx, key, map[string]interface{}{
		"seats":                availableSeats,
		stockField(ticketType): remaining,
		priceField(ticketType): price,
	}).Err()
}

func (m *RedisTicketInventoryManagerImpl) GetStock(ctx context.Context, eventID primitive.ObjectID, ticketType string) (int, error) {
	val, err := m.client.HGet(ctx, m.getInventoryKey(eventID), stockField(ticketType)).Int()
	if err == redis.Nil {
		return -1, apperrors.ErrTicketNotFound
	}
	return val, err
}

func (m *RedisTicketInventoryManagerImpl) GetSeats(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	val, err := m.client.HGet(ctx, m.getInventoryKey(eventID), "seats").Int()
	if err == redis.Nil {
		return -1, apperrors.ErrEventNotFound
	}
	return val, err
}

func (m *RedisTicketInventoryManagerImpl) GetInfo(ctx context.Context, eventID primitive.ObjectID, ticketType string) (RedisTicketInfo, error) {
	vals, err := m.client.HMGet(ctx, m.getInventoryKey(eventID), stockField(ticketType), priceField(ticketType)).Result()
	if err != nil {
		return RedisTicketInfo{}, err
	}
	if vals[0] == nil || vals[1] == nil {
		return RedisTicketInfo{}, apperrors.ErrTicketNotFound
	}

	stock, err := strconv.Atoi(vals[0].(string))
	if err != nil {
		return RedisTicketInfo{}, fmt.Errorf("invalid stock: %v", err)
	}
	price, err := strconv.ParseFloat(vals[1].(string), 64)
	if err != nil {
		return RedisTicketInfo{}, fmt.Errorf("invalid price: %v", err)
	}

	return RedisTicketInfo{Stock: stock, Price: price}, nil
}

var decreStockScript = redis.NewScript(`
	local key = KEYS[1]
	local stock_field = ARGV[1]
	local price_field = ARGV[2]
	local request_qty = tonumber(ARGV[3])

	local info = redis.call('HMGET', key, 'seats', stock_field, price_field)
	local seats = info[1]
	local stock = info[2]
	local price = info[3]

	-- 票券資訊未預熱
	if not seats or not stock or not price then
		return {-3, '0.0'}
	end

	-- 活動已無座位
	if tonumber(seats) <= 0 then
		return {-2, '0.0'}
	end

	-- 票種或座位不足
	if tonumber(stock) < request_qty or tonumber(seats) < request_qty then
		return {-1, '0.0'}
	end

	redis.call('HINCRBY', key, stock_field, -request_qty)
	redis.call('HINCRBY', key, 'seats', -request_qty)

	return {1, tostring(price)}
`)

/*
*

	減少票種庫存與活動座位 (使用Lua腳本確保原子性)
	1. 檢查是否預熱
	2. 檢查活動是否已售完
	3. 檢查票種與座位是否足夠
	4. 兩者同時扣減
*/
func (m *RedisTicketInventoryManagerImpl) DecreStock(ctx context.Context, eventID primitive.ObjectID, ticketType string, quantity int) (float64, error) {
	if quantity <= 0 {
		return 0, apperrors.ErrInvalidInput
	}

	result, err := decreStockScript.Run(ctx, m.client,
		[]string{m.getInventoryKey(eventID)},
		stockField(ticketType), priceField(ticketType), quantity,
	).Result()
	if err != nil {
		return 0, err
	}

	resSlice := result.([]interface{})
	code := resSlice[0].(int64)

	switch code {
	case 1:
		price, _ := strconv.ParseFloat(resSlice[1].(string), 64)
		return price, nil
	case -1:
		return 0, apperrors.ErrInsufficientStock
	case -2:
		return 0, apperrors.ErrSoldOut
	case -3:
		return 0, apperrors.ErrTicketNotFound
	default:
		return 0, errors.New("unexpected result")
	}
}

var rollbackStockScript = redis.NewScript(`
	local key = KEYS[1]
	local stock_field = ARGV[1]
	local rollback_qty = tonumber(ARGV[2])

	redis.call('HINCRBY', key, stock_field, rollback_qty)
	redis.call('HINCRBY', key, 'seats', rollback_qty)

	return "OK"
`)

func (m *RedisTicketInventoryManagerImpl) RollbackStock(ctx context.Context, eventID primitive.ObjectID, ticketType string, quantity int) error {
	return rollbackStockScript.Run(ctx, m.client,
		[]string{m.getInventoryKey(eventID)},
		stockField(ticketType), quantity,
	).Err()
}
