package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Mongo      MongoConfig
	Redis      RedisConfig
	Generation GenerationConfig
	HTTP       HTTPConfig
}

type MongoConfig struct {
	URI            string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database       string        `envconfig:"MONGO_DB" default:"event_booking_system"`
	ConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
	MaxPoolSize    uint64        `envconfig:"MONGO_MAX_POOL_SIZE" default:"25"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// 庫存閘門：store 只靠 Mongo 條件更新；redis 在多 worker 時先經過 Lua 腳本扣減
const (
	InventoryGateStore = "store"
	InventoryGateRedis = "redis"
)

// 統計推導的 shard 隊列：memory 為 channel；redis 為每個 shard 一條 Redis Stream
const (
	StatsQueueMemory = "memory"
	StatsQueueRedis  = "redis"
)

type GenerationConfig struct {
	Profile          string `envconfig:"SEED_PROFILE" default:"small"`
	RandomSeed       int64  `envconfig:"SEED_RANDOM_SEED" default:"0"`
	Workers          int    `envconfig:"SEED_WORKERS" default:"1"`
	InventoryGate    string `envconfig:"INVENTORY_GATE" default:"store"`
	StatsQueue       string `envconfig:"STATS_QUEUE" default:"memory"`
	ReleaseCancelled bool   `envconfig:"SEED_RELEASE_CANCELLED" default:"false"`
}

type HTTPConfig struct {
	Addr string `envconfig:"HTTP_ADDR" default:":8080"`
}

var AppConfig *Config

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Generation.Validate(); err != nil {
		return nil, err
	}

	AppConfig = &cfg
	return AppConfig, nil
}

func LoadTestConfig() *Config {
	return &Config{
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27018", // 測試 Mongo 用 27018 port
			Database:       "event_booking_test",
			ConnectTimeout: 2 * time.Second,
			MaxPoolSize:    5,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     "6380", // 測試 Redis 用 6380 port
			Password: "",
			DB:       1,
		},
		Generation: GenerationConfig{
			Profile:       ProfileSmall,
			RandomSeed:    42,
			Workers:       1,
			InventoryGate: InventoryGateStore,
			StatsQueue:    StatsQueueMemory,
		},
		HTTP: HTTPConfig{Addr: ":0"},
	}
}

func (g GenerationConfig) Validate() error {
	p, err := ProfileByName(g.Profile)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if g.Workers < 1 {
		return fmt.Errorf("SEED_WORKERS must be >= 1, got %d", g.Workers)
	}
	switch g.InventoryGate {
	case InventoryGateStore, InventoryGateRedis:
	default:
		return fmt.Errorf("INVENTORY_GATE must be %q or %q, got %q", InventoryGateStore, InventoryGateRedis, g.InventoryGate)
	}
	switch g.StatsQueue {
	case StatsQueueMemory, StatsQueueRedis:
	default:
		return fmt.Errorf("STATS_QUEUE must be %q or %q, got %q", StatsQueueMemory, StatsQueueRedis, g.StatsQueue)
	}
	return nil
}
