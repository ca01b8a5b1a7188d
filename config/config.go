package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the subscription service
type Config struct {
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Logging  LoggingConfig
	Service  ServiceConfig
	Tiers    TiersConfig
	Catalog  CatalogConfig
	Bulk     BulkConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
}

// TiersConfig describes where user privilege levels come from.
// Owner and moderators are static; supporters live in a Redis set
// maintained by the role synchronisation job.
type TiersConfig struct {
	OwnerID         int64
	ModeratorIDs    []int64
	SupporterSetKey string
}

// CatalogConfig holds the species/location catalog source.
// An empty Path selects the built-in catalog.
type CatalogConfig struct {
	Path string
}

// BulkConfig holds bulk operation settings
type BulkConfig struct {
	ConfirmTimeout time.Duration
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config   *Config
	Database *DatabaseConfig
	Kafka    *KafkaConfig
	Redis    *RedisConfig
	Logging  *LoggingConfig
	Service  *ServiceConfig
	Tiers    *TiersConfig
	Catalog  *CatalogConfig
	Bulk     *BulkConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   cfg,
		Database: &cfg.Database,
		Kafka:    &cfg.Kafka,
		Redis:    &cfg.Redis,
		Logging:  &cfg.Logging,
		Service:  &cfg.Service,
		Tiers:    &cfg.Tiers,
		Catalog:  &cfg.Catalog,
		Bulk:     &cfg.Bulk,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	ownerID, err := getEnvInt64("TIER_OWNER_ID", 0)
	if err != nil {
		return nil, err
	}

	moderators, err := getEnvInt64List("TIER_MODERATOR_IDS")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "subscriptions_user"),
			Password: getEnv("DATABASE_PASSWORD", "subscriptions_pass"),
			DBName:   getEnv("DATABASE_NAME", "subscriptions_db"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9093"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "subscription-service-group"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "subscription-service"),
			Port: getEnv("SERVICE_PORT", "8082"),
		},
		Tiers: TiersConfig{
			OwnerID:         ownerID,
			ModeratorIDs:    moderators,
			SupporterSetKey: getEnv("TIER_SUPPORTER_SET_KEY", "tiers:supporters"),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
		Bulk: BulkConfig{
			ConfirmTimeout: getEnvDuration("BULK_CONFIRM_TIMEOUT", 60*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DATABASE_HOST is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DATABASE_USER is required")
	}

	if c.Database.DBName == "" {
		return fmt.Errorf("DATABASE_NAME is required")
	}

	if len(c.Kafka.Brokers) == 0 || c.Kafka.Brokers[0] == "" {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Bulk.ConfirmTimeout <= 0 {
		return fmt.Errorf("BULK_CONFIRM_TIMEOUT must be positive")
	}

	return nil
}

// GetDSN returns database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration gets environment variable as duration with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// getEnvInt64List parses a comma separated list of ids
func getEnvInt64List(key string) ([]int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
