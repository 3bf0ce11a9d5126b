package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.StorageMode)
	assert.Equal(t, 168*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, time.UTC, cfg.BookingTimezone)
	assert.Equal(t, "@every 1h", cfg.RequestExpirySchedule)
	assert.Equal(t, 2, cfg.ConflictRetries)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STORAGE_MODE", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_TOPIC_PREFIX", "stage.")
	t.Setenv("BOOKING_TIMEZONE", "Europe/Moscow")
	t.Setenv("RETRY_BACKOFF", "2s")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, StorageMongo, cfg.StorageMode)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "stage.", cfg.KafkaTopicPrefix)
	assert.Equal(t, "Europe/Moscow", cfg.BookingTimezone.String())
	assert.Equal(t, []time.Duration{2 * time.Second}, cfg.RetryBackoff)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"mongo mode without uri", map[string]string{"STORAGE_MODE": "mongo", "KAFKA_BROKERS": "k:9092"}},
		{"mongo mode without brokers", map[string]string{"STORAGE_MODE": "mongo", "MONGO_URI": "mongodb://x"}},
		{"unknown storage", map[string]string{"STORAGE_MODE": "redis"}},
		{"bad duration", map[string]string{"IDEMP_TTL": "forever"}},
		{"bad backoff", map[string]string{"RETRY_BACKOFF": "1s,soon"}},
		{"bad timezone", map[string]string{"BOOKING_TIMEZONE": "Mars/Olympus"}},
		{"negative retries", map[string]string{"CONFLICT_RETRIES": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(New())
			assert.Error(t, err)
		})
	}
}
