package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                   string
	HTTPAddr              string
	LogLevel              string
	StorageMode           string
	MongoURI              string
	MongoDB               string
	KafkaBrokers          []string
	KafkaTopicPrefix      string
	KafkaGroupID          string
	IdempotencyTTL        time.Duration
	OutboxPollInterval    time.Duration
	RetryBackoff          []time.Duration
	CarsFixtures          string
	BookingTimezone       *time.Location
	RequestExpirySchedule string
	// ConflictRetries is how many times a command is rerun after an
	// optimistic concurrency conflict.
	ConflictRetries int
}

// Defaults registers the fallback value of every key on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "")
	v.SetDefault("storage_mode", StorageMemory)
	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_db", "luxrent")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic_prefix", "")
	v.SetDefault("kafka_group_id", "luxrent-calendar")
	v.SetDefault("idemp_ttl", "168h")
	v.SetDefault("outbox_poll_interval", "500ms")
	v.SetDefault("retry_backoff", "1s,5s,30s")
	v.SetDefault("cars_fixtures", "")
	v.SetDefault("booking_timezone", "UTC")
	v.SetDefault("request_expiry_schedule", "@every 1h")
	v.SetDefault("conflict_retries", 2)
}

// New returns a viper instance reading the environment with all defaults set.
func New() *viper.Viper {
	v := viper.New()
	Defaults(v)
	v.AutomaticEnv()
	return v
}

// Load parses configuration from v. Mongo and Kafka settings are only
// required in mongo storage mode.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = New()
	}
	cfg := Config{
		Env:                   strings.TrimSpace(v.GetString("app_env")),
		HTTPAddr:              strings.TrimSpace(v.GetString("http_addr")),
		LogLevel:              strings.TrimSpace(v.GetString("log_level")),
		StorageMode:           strings.ToLower(strings.TrimSpace(v.GetString("storage_mode"))),
		MongoURI:              strings.TrimSpace(v.GetString("mongo_uri")),
		MongoDB:               strings.TrimSpace(v.GetString("mongo_db")),
		KafkaTopicPrefix:      v.GetString("kafka_topic_prefix"),
		KafkaGroupID:          strings.TrimSpace(v.GetString("kafka_group_id")),
		CarsFixtures:          strings.TrimSpace(v.GetString("cars_fixtures")),
		RequestExpirySchedule: strings.TrimSpace(v.GetString("request_expiry_schedule")),
		ConflictRetries:       v.GetInt("conflict_retries"),
	}
	if cfg.ConflictRetries < 0 {
		return Config{}, fmt.Errorf("invalid CONFLICT_RETRIES %d", cfg.ConflictRetries)
	}
	cfg.KafkaBrokers = splitList(v.GetString("kafka_brokers"))

	var err error
	if cfg.IdempotencyTTL, err = parseDuration("IDEMP_TTL", v.GetString("idemp_ttl")); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDuration("OUTBOX_POLL_INTERVAL", v.GetString("outbox_poll_interval")); err != nil {
		return Config{}, err
	}
	for _, raw := range splitList(v.GetString("retry_backoff")) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	tz := strings.TrimSpace(v.GetString("booking_timezone"))
	if tz == "" {
		tz = "UTC"
	}
	cfg.BookingTimezone, err = time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BOOKING_TIMEZONE %q: %w", tz, err)
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	switch cfg.StorageMode {
	case "":
		cfg.StorageMode = StorageMemory
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required")
		}
		if len(cfg.KafkaBrokers) == 0 {
			return Config{}, fmt.Errorf("KAFKA_BROKERS is required")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE %q", cfg.StorageMode)
	}
	return cfg, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if val := strings.TrimSpace(part); val != "" {
			out = append(out, val)
		}
	}
	return out
}
