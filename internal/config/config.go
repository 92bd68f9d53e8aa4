package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	Indicators IndicatorsConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	API        APIConfig
}

// IndicatorsConfig holds the batch pipeline configuration
type IndicatorsConfig struct {
	InputPath        string
	OutputPath       string
	OutputFormat     string // "csv" or "json"
	Symbol           string
	DateLayouts      []string
	OutputDateLayout string
	StrictInput      bool
	Parallel         bool
	DBEnabled        bool
	RedisEnabled     bool
}

// DatabaseConfig holds TimescaleDB configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	SnapshotTTL  time.Duration
	RunStream    string
}

// APIConfig holds REST API configuration
type APIConfig struct {
	Port            int
	HealthCheckPort int
	MaxBodyBytes    int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Indicators: IndicatorsConfig{
			InputPath:        getEnv("INDICATORS_INPUT", "input.csv"),
			OutputPath:       getEnv("INDICATORS_OUTPUT", "output.csv"),
			OutputFormat:     getEnv("INDICATORS_OUTPUT_FORMAT", "csv"),
			Symbol:           getEnv("INDICATORS_SYMBOL", "NQ=F"),
			DateLayouts:      getEnvAsStringSlice("INDICATORS_DATE_LAYOUTS", []string{"2006/01/02", "2006-01-02"}),
			OutputDateLayout: getEnv("INDICATORS_OUTPUT_DATE_LAYOUT", "2006-01-02"),
			StrictInput:      getEnvAsBool("INDICATORS_STRICT_INPUT", true),
			Parallel:         getEnvAsBool("INDICATORS_PARALLEL", true),
			DBEnabled:        getEnvAsBool("INDICATORS_DB_ENABLED", false),
			RedisEnabled:     getEnvAsBool("INDICATORS_REDIS_ENABLED", false),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "indicators"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MaxRetries:      getEnvAsInt("DB_MAX_RETRIES", 3),
			RetryDelay:      getEnvAsDuration("DB_RETRY_DELAY", 100*time.Millisecond),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
			SnapshotTTL:  getEnvAsDuration("REDIS_SNAPSHOT_TTL", 0),
			RunStream:    getEnv("REDIS_RUN_STREAM", "indicators.runs"),
		},
		API: APIConfig{
			Port:            getEnvAsInt("API_PORT", 8090),
			HealthCheckPort: getEnvAsInt("API_HEALTH_PORT", 8091),
			MaxBodyBytes:    int64(getEnvAsInt("API_MAX_BODY_BYTES", 10<<20)),
			ReadTimeout:     getEnvAsDuration("API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("API_WRITE_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Indicators.OutputFormat {
	case "csv", "json":
	default:
		return fmt.Errorf("INDICATORS_OUTPUT_FORMAT must be csv or json, got %q", c.Indicators.OutputFormat)
	}
	if len(c.Indicators.DateLayouts) == 0 {
		return fmt.Errorf("INDICATORS_DATE_LAYOUTS must contain at least one layout")
	}
	if c.Indicators.Symbol == "" {
		return fmt.Errorf("INDICATORS_SYMBOL is required")
	}
	if c.Indicators.DBEnabled && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required when INDICATORS_DB_ENABLED is set")
	}
	if c.Indicators.RedisEnabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when INDICATORS_REDIS_ENABLED is set")
	}
	if c.API.MaxBodyBytes <= 0 {
		return fmt.Errorf("API_MAX_BODY_BYTES must be positive")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
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

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
