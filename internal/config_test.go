package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/scriptly_test")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 31.5, cfg.ExchangeRateTWD)
	assert.Equal(t, 2, cfg.GuestDailyLimit)
	assert.Equal(t, "mock", cfg.AIProvider)
	assert.Equal(t, "gpt-4o", cfg.AIModel)
	assert.Equal(t, 120*time.Second, cfg.AIRequestTimeout)
	assert.Equal(t, 2, cfg.RecorderWorkers)
	assert.Equal(t, 256, cfg.RecorderQueueSize)
}

func TestNewConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative exchange rate", "EXCHANGE_RATE_TWD", "-1"},
		{"zero exchange rate", "EXCHANGE_RATE_TWD", "0"},
		{"negative guest limit", "GUEST_DAILY_LIMIT", "-1"},
		{"unknown ai provider", "AI_PROVIDER", "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost:5432/scriptly_test")
			t.Setenv(tt.key, tt.value)

			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/scriptly_test")
	t.Setenv("EXCHANGE_RATE_TWD", "32.1")
	t.Setenv("GUEST_DAILY_LIMIT", "5")
	t.Setenv("AI_REQUEST_TIMEOUT", "30s")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 32.1, cfg.ExchangeRateTWD)
	assert.Equal(t, 5, cfg.GuestDailyLimit)
	assert.Equal(t, 30*time.Second, cfg.AIRequestTimeout)
}
