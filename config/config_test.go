package config_test

import (
	"testing"

	"event-booking-seeder/config"
	apperrors "event-booking-seeder/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, config.ProfileSmall, cfg.Generation.Profile)
		assert.Equal(t, 1, cfg.Generation.Workers)
		assert.Equal(t, config.InventoryGateStore, cfg.Generation.InventoryGate)
		assert.Equal(t, config.StatsQueueMemory, cfg.Generation.StatsQueue)
		assert.False(t, cfg.Generation.ReleaseCancelled)
		assert.Equal(t, "event_booking_system", cfg.Mongo.Database)
		assert.Same(t, cfg, config.AppConfig)
	})

	t.Run("from env", func(t *testing.T) {
		t.Setenv("SEED_PROFILE", config.ProfileLarge)
		t.Setenv("SEED_WORKERS", "8")
		t.Setenv("INVENTORY_GATE", config.InventoryGateRedis)
		t.Setenv("STATS_QUEUE", config.StatsQueueRedis)
		t.Setenv("MONGO_DB", "seed_test")

		cfg, err := config.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, config.ProfileLarge, cfg.Generation.Profile)
		assert.Equal(t, 8, cfg.Generation.Workers)
		assert.Equal(t, config.InventoryGateRedis, cfg.Generation.InventoryGate)
		assert.Equal(t, config.StatsQueueRedis, cfg.Generation.StatsQueue)
		assert.Equal(t, "seed_test", cfg.Mongo.Database)
	})

	t.Run("Failed - unknown profile", func(t *testing.T) {
		t.Setenv("SEED_PROFILE", "huge")
		_, err := config.LoadConfig()
		assert.ErrorIs(t, err, apperrors.ErrInvalidProfile)
	})

	t.Run("Failed - malformed workers", func(t *testing.T) {
		t.Setenv("SEED_WORKERS", "many")
		_, err := config.LoadConfig()
		assert.Error(t, err)
	})
}

func TestGenerationConfigValidate(t *testing.T) {
	valid := config.LoadTestConfig().Generation
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(g *config.GenerationConfig)
		errMsg string
	}{
		{"zero workers", func(g *config.GenerationConfig) { g.Workers = 0 }, "SEED_WORKERS"},
		{"unknown gate", func(g *config.GenerationConfig) { g.InventoryGate = "etcd" }, "INVENTORY_GATE"},
		{"unknown stats queue", func(g *config.GenerationConfig) { g.StatsQueue = "kafka" }, "STATS_QUEUE"},
		{"unknown profile", func(g *config.GenerationConfig) { g.Profile = "medium" }, "unknown profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid
			tt.mutate(&g)
			err := g.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProfileValidate(t *testing.T) {
	for _, name := range []string{config.ProfileSmall, config.ProfileLarge} {
		t.Run(name, func(t *testing.T) {
			p, err := config.ProfileByName(name)
			require.NoError(t, err)
			assert.NoError(t, p.Validate())
		})
	}

	t.Run("Failed - seat pool too small", func(t *testing.T) {
		p, err := config.ProfileByName(config.ProfileSmall)
		require.NoError(t, err)
		p.BookingQuantity = config.IntRange{Min: 1, Max: len(p.SeatRows) + 1}
		assert.ErrorIs(t, p.Validate(), apperrors.ErrSeatPoolTooSmall)
	})

	t.Run("Failed - quantity below one", func(t *testing.T) {
		p, err := config.ProfileByName(config.ProfileSmall)
		require.NoError(t, err)
		p.BookingQuantity = config.IntRange{Min: 0, Max: 2}
		assert.ErrorIs(t, p.Validate(), apperrors.ErrInvalidProfile)
	})

	t.Run("Failed - no ticket types", func(t *testing.T) {
		p, err := config.ProfileByName(config.ProfileSmall)
		require.NoError(t, err)
		p.TicketTypes = nil
		assert.ErrorIs(t, p.Validate(), apperrors.ErrInvalidProfile)
	})

	t.Run("Failed - negative count", func(t *testing.T) {
		p, err := config.ProfileByName(config.ProfileSmall)
		require.NoError(t, err)
		p.BookingAttempts = -1
		err = p.Validate()
		assert.ErrorIs(t, err, apperrors.ErrInvalidProfile)
		assert.Contains(t, err.Error(), "booking attempts")
	})

	t.Run("Failed - inverted favorites range", func(t *testing.T) {
		p, err := config.ProfileByName(config.ProfileSmall)
		require.NoError(t, err)
		p.Favorites = config.IntRange{Min: 3, Max: 1}
		assert.ErrorIs(t, p.Validate(), apperrors.ErrInvalidProfile)
	})
}
