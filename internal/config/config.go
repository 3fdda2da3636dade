// Package config provides configuration management for the savings tracker.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Scheduler  SchedulerConfig
	Valuation  ValuationConfig
	Collectors CollectorsConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// URL returns the connection URL used by the migration runner.
func (c *PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig holds Redis configuration. The cache is optional: with
// Enabled=false every query recomputes from the ledger.
type RedisConfig struct {
	Enabled        bool
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// CacheConfig holds query cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// SchedulerConfig holds the save-cycle scheduler configuration.
// CronSpec uses standard five-field cron syntax (the SAVE_TIME variable
// carried over from the original deployment).
type SchedulerConfig struct {
	Enabled  bool
	CronSpec string
}

// ValuationConfig holds valuation parameters. Timezone is the canonical
// day-bucketing zone; every computation in a single query must use the same
// zone.
type ValuationConfig struct {
	Timezone string
}

// Location resolves the canonical timezone.
func (c *ValuationConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid valuation timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CollectorsConfig holds per-platform balance collector configuration
type CollectorsConfig struct {
	RequestTimeout time.Duration
	RatePerSecond  int
	InvestNow      InvestNowConfig
	Akahu          AkahuConfig
}

// InvestNowConfig holds InvestNow collector credentials
type InvestNowConfig struct {
	Enabled   bool
	TokenURL  string
	APIURL    string
	Username  string
	Password  string
	ManagerID string
}

// AkahuConfig holds Akahu bank-feed collector credentials
type AkahuConfig struct {
	Enabled bool
	BaseURL string
	AppID   string
	Token   string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "savings"),
				User:           getEnv("POSTGRES_USER", "savings"),
				Password:       getEnv("POSTGRES_PW", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			Redis: RedisConfig{
				Enabled:        getEnvAsBool("REDIS_ENABLED", false),
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 60*time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getEnvAsBool("SCHEDULER_ENABLED", true),
			CronSpec: getEnv("SAVE_TIME", "0 18 * * *"),
		},
		Valuation: ValuationConfig{
			Timezone: getEnv("VALUATION_TIMEZONE", "Pacific/Auckland"),
		},
		Collectors: CollectorsConfig{
			RequestTimeout: getEnvAsDuration("COLLECTOR_REQUEST_TIMEOUT", 10*time.Second),
			RatePerSecond:  getEnvAsInt("COLLECTOR_RATE_PER_SECOND", 2),
			InvestNow: InvestNowConfig{
				Enabled:   getEnvAsBool("INVESTNOW_ENABLED", false),
				TokenURL:  getEnv("INVESTNOW_TOKEN_URL", "https://loginapi.adminis.co.nz/connect/token"),
				APIURL:    getEnv("INVESTNOW_API_URL", "https://webapi.adminis.co.nz/api"),
				Username:  getEnv("INVESTNOW_USER", ""),
				Password:  getEnv("INVESTNOW_PASS", ""),
				ManagerID: getEnv("INVESTNOW_MANAGER_ID", "4542"),
			},
			Akahu: AkahuConfig{
				Enabled: getEnvAsBool("AKAHU_ENABLED", false),
				BaseURL: getEnv("AKAHU_BASE_URL", "https://api.akahu.io/v1"),
				AppID:   getEnv("AKAHU_ID", ""),
				Token:   getEnv("AKAHU_TOKEN", ""),
			},
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks cross-field constraints that getEnv defaults cannot catch
func (c *Config) validate() error {
	if c.Database.Postgres.MaxConnections <= 0 {
		return fmt.Errorf("POSTGRES_MAX_CONNECTIONS must be positive, got %d", c.Database.Postgres.MaxConnections)
	}
	if _, err := c.Valuation.Location(); err != nil {
		return err
	}
	if c.Collectors.InvestNow.Enabled && c.Collectors.InvestNow.Username == "" {
		return fmt.Errorf("INVESTNOW_USER is required when the InvestNow collector is enabled")
	}
	if c.Collectors.Akahu.Enabled && (c.Collectors.Akahu.AppID == "" || c.Collectors.Akahu.Token == "") {
		return fmt.Errorf("AKAHU_ID and AKAHU_TOKEN are required when the Akahu collector is enabled")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
