// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Kafka holds the broker connection and topic-provisioning settings shared by
// every binary that touches the bus.
type Kafka struct {
	Brokers           string
	GroupID           string
	SSLEnabled        bool
	SASLUsername      string
	SASLPassword      string
	EnableIdempotence bool
	Partitions        int32
	ReplicationFactor int16
}

// Config is the full environment-derived configuration.
type Config struct {
	Port     string
	LogLevel string

	DatabaseURI  string
	DatabaseName string
	RedisURL     string

	FirebaseCredentialsPath string

	SendConcurrency int
	RateLimitWindow time.Duration

	Kafka Kafka
}

// Load reads the environment, applying defaults where a variable is unset and
// failing on missing required values.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                    envOr("PORT", "8080"),
		LogLevel:                envOr("LOG_LEVEL", "info"),
		DatabaseURI:             os.Getenv("DATABASE_URI"),
		DatabaseName:            os.Getenv("DATABASE_NAME"),
		RedisURL:                os.Getenv("REDIS_URL"),
		FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		Kafka: Kafka{
			Brokers:      os.Getenv("KAFKA_BROKERS"),
			GroupID:      os.Getenv("KAFKA_GROUP_ID"),
			SASLUsername: os.Getenv("KAFKA_SASL_USERNAME"),
			SASLPassword: os.Getenv("KAFKA_SASL_PASSWORD"),
		},
	}

	required := map[string]string{
		"KAFKA_BROKERS":  cfg.Kafka.Brokers,
		"KAFKA_GROUP_ID": cfg.Kafka.GroupID,
		"REDIS_URL":      cfg.RedisURL,
		"DATABASE_URI":   cfg.DatabaseURI,
		"DATABASE_NAME":  cfg.DatabaseName,
	}
	for name, value := range required {
		if value == "" {
			return nil, fmt.Errorf("missing required environment variable %s", name)
		}
	}

	var err error
	if cfg.Kafka.SSLEnabled, err = envBool("KAFKA_SSL_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.Kafka.EnableIdempotence, err = envBool("ENABLE_IDEMPOTENCE", true); err != nil {
		return nil, err
	}

	partitions, err := envInt("KAFKA_NUMBER_OF_USER_PARTITIONS", 1)
	if err != nil {
		return nil, err
	}
	cfg.Kafka.Partitions = int32(partitions)

	replication, err := envInt("KAFKA_REPLICATION_FACTOR", 1)
	if err != nil {
		return nil, err
	}
	cfg.Kafka.ReplicationFactor = int16(replication)

	if cfg.SendConcurrency, err = envInt("FCM_SEND_CONCURRENCY", 8); err != nil {
		return nil, err
	}

	windowSeconds, err := envInt("RATE_LIMIT_DURATION_SECONDS", 2)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWindow = time.Duration(windowSeconds) * time.Second

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envBool(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %q", name, v)
	}
	return b, nil
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", name, v)
	}
	return n, nil
}
