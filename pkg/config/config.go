package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Application settings
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Ingest   IngestConfig
	External ExternalConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Ranking  RankingConfig
}

// Server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type IngestConfig struct {
	WorkerPoolSize     int
	RequestTimeout     time.Duration
	MaxRetries         int
	RetryBackoff       time.Duration
	RateLimitPerSecond int
}

type ExternalConfig struct {
	CampaignsAPIURL  string
	BusinessesAPIURL string
	SinkURL          string
	SinkSecret       string
}

// empty URL selects the in-memory repositories
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// empty Addr disables ranking caching
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type RankingConfig struct {
	DefaultTimeBasis string
	DefaultNormalize bool
}

// Logging settings
type LoggingConfig struct {
	Level string
}

// Load reads an optional .env file, then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: getDurationEnv("HTTP_TIMEOUT", "30s"),
		},
		Ingest: IngestConfig{
			WorkerPoolSize:     getIntEnv("WORKER_POOL_SIZE", 10),
			RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT", "30s"),
			MaxRetries:         getIntEnv("MAX_RETRIES", 3),
			RetryBackoff:       getDurationEnv("RETRY_BACKOFF", "2s"),
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 100),
		},
		External: ExternalConfig{
			CampaignsAPIURL:  getEnv("CAMPAIGNS_API_URL", ""),
			BusinessesAPIURL: getEnv("BUSINESSES_API_URL", ""),
			SinkURL:          getEnv("SINK_URL", ""),
			SinkSecret:       getEnv("SINK_SECRET", ""),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			CacheTTL: getDurationEnv("RANKING_CACHE_TTL", "5m"),
		},
		Ranking: RankingConfig{
			DefaultTimeBasis: strings.ToLower(getEnv("DEFAULT_TIME_BASIS", "monthly")),
			DefaultNormalize: getBoolEnv("DEFAULT_NORMALIZE", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch c.Ranking.DefaultTimeBasis {
	case "daily", "weekly", "monthly", "all":
	default:
		return fmt.Errorf("DEFAULT_TIME_BASIS must be daily, weekly, monthly or all, got %q", c.Ranking.DefaultTimeBasis)
	}
	if c.Ingest.WorkerPoolSize <= 0 {
		return errors.New("WORKER_POOL_SIZE must be positive")
	}
	if c.Ingest.RateLimitPerSecond <= 0 {
		return errors.New("RATE_LIMIT_PER_SECOND must be positive")
	}
	return nil
}

// existing variables win over .env entries; a missing file is not an error
func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
