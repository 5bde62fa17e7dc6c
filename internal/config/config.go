// Package config provides configuration management for the cache subsystem.
// It handles loading configuration from environment variables with sensible
// defaults and validates the configuration so the cache layer starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - LOG_LEVEL: Logging level (default: info)
//   - METRICS_ADDRESS: Listen address for the metrics/health endpoint (default: :9090)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Cache Defaults:
//   - CACHE_LOCAL_CAPACITY: Max entries held by the in-process tier (default: 10000)
//   - CACHE_LOCAL_TTL: Cap on in-process entry lifetime (default: 5m)
//   - CACHE_DEFAULT_TTL: Default TTL for namespaces that do not set one (default: 10m)
//   - CACHE_STAMPEDE_PROTECTION: Enable miss-path locking by default (default: true)
//   - CACHE_LOCK_WAIT_TIMEOUT: Bounded wait for the miss-path lock (default: 3s)
//
// A .env file in the working directory is loaded first when present.
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the cache subsystem.
// All fields correspond to environment variables that can be set to
// override the default values.
//
// The configuration is loaded using the Load() function and should be
// validated using the Validate() method before use.
type Config struct {
	// Application settings
	LogLevel       string // Logging level (debug, info, warn, error)
	MetricsAddress string // Listen address for the metrics/health endpoint

	// Redis configuration for the shared L2 tier and distributed locks
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       int    // Redis database number (0-15)
	RedisPoolSize int    // Redis connection pool size

	// Cache defaults applied to namespaces that do not override them
	LocalCapacity      int           // Max entry count for the in-process tier
	LocalTTL           time.Duration // Cap on in-process entry lifetime
	DefaultTTL         time.Duration // Default entry TTL
	StampedeProtection bool          // Whether miss-path locking is on by default
	LockWaitTimeout    time.Duration // Bounded wait for miss-path lock acquisition
}

// Load reads configuration from the environment, applying defaults for
// anything unset. A .env file is honored when present; a missing file is
// not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MetricsAddress: getEnv("METRICS_ADDRESS", ":9090"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPoolSize: getEnvInt("REDIS_POOL_SIZE", 10),

		LocalCapacity:      getEnvInt("CACHE_LOCAL_CAPACITY", 10000),
		LocalTTL:           getEnvDuration("CACHE_LOCAL_TTL", 5*time.Minute),
		DefaultTTL:         getEnvDuration("CACHE_DEFAULT_TTL", 10*time.Minute),
		StampedeProtection: getEnvBool("CACHE_STAMPEDE_PROTECTION", true),
		LockWaitTimeout:    getEnvDuration("CACHE_LOCK_WAIT_TIMEOUT", 3*time.Second),
	}
}

// Validate checks the configuration for values that would prevent the cache
// subsystem from operating.
func (c *Config) Validate() error {
	if c.RedisAddress == "" {
		return fmt.Errorf("REDIS_ADDRESS must not be empty")
	}
	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15, got %d", c.RedisDB)
	}
	if c.RedisPoolSize <= 0 {
		return fmt.Errorf("REDIS_POOL_SIZE must be positive, got %d", c.RedisPoolSize)
	}
	if c.LocalCapacity <= 0 {
		return fmt.Errorf("CACHE_LOCAL_CAPACITY must be positive, got %d", c.LocalCapacity)
	}
	if c.LocalTTL <= 0 {
		return fmt.Errorf("CACHE_LOCAL_TTL must be positive, got %v", c.LocalTTL)
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("CACHE_DEFAULT_TTL must not be negative, got %v", c.DefaultTTL)
	}
	if c.LockWaitTimeout <= 0 {
		return fmt.Errorf("CACHE_LOCK_WAIT_TIMEOUT must be positive, got %v", c.LockWaitTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
