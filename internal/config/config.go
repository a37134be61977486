package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache drivers accepted by CACHE_DRIVER.
const (
	CacheDriverRedis    = "redis"
	CacheDriverPostgres = "postgres"
	CacheDriverNone     = "none"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port          string
	Environment   string
	LogLevel      string
	PublicBaseURL string

	// Database
	DatabaseURL string

	// JWT
	JWTSecret string

	// Cache
	CacheDriver string
	RedisURL    string

	// Insight service
	InsightServiceURL   string
	InsightServiceToken string
	InsightTimeout      time.Duration

	// Exports and reports
	StoragePath     string
	ExportRetention time.Duration

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Email (Resend)
	ResendAPIKey string
	FromEmail    string

	// Sentry
	SentryDSN string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		PublicBaseURL:       strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		InsightServiceURL:   strings.TrimRight(getEnv("INSIGHT_SERVICE_URL", ""), "/"),
		InsightServiceToken: getEnv("INSIGHT_SERVICE_TOKEN", ""),
		InsightTimeout:      time.Duration(getEnvAsInt("INSIGHT_TIMEOUT_SECONDS", 20)) * time.Second,
		StoragePath:         getEnv("STORAGE_PATH", "./storage"),
		ExportRetention:     time.Duration(getEnvAsInt("EXPORT_RETENTION_HOURS", 24)) * time.Hour,
		WorkerCount:         getEnvAsInt("WORKER_COUNT", 5),
		AllowedOrigins:      getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		ResendAPIKey:        getEnv("RESEND_API_KEY", ""),
		FromEmail:           getEnv("FROM_EMAIL", "reports@agrosync.app"),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
	}

	defaultDriver := CacheDriverPostgres
	if cfg.RedisURL != "" {
		defaultDriver = CacheDriverRedis
	}
	cfg.CacheDriver = defaultDriver
	if driver := strings.TrimSpace(getEnv("CACHE_DRIVER", "")); driver != "" {
		cfg.CacheDriver = strings.ToLower(driver)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET is required in production")
	}

	switch c.CacheDriver {
	case CacheDriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_DRIVER=redis")
		}
	case CacheDriverPostgres, CacheDriverNone:
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.CacheDriver)
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}

	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
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

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
