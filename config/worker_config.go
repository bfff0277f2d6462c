package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	// MaxScanChunkSize bounds message detail fetches in flight.
	MaxScanChunkSize = 10
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Stores
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// Auth
	JWTSecret     string
	EncryptionKey string

	// OpenAI
	OpenAIAPIKey string
	LLMModel     string

	// OAuth - Google
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Cache
	CacheBackend       string
	CacheSweepInterval time.Duration
	ScanCacheTTL       time.Duration

	// Scan
	ScanServerBatchSize    int
	ScanChunkSize          int
	ScanPageDelay          time.Duration
	ScanChunkDelay         time.Duration
	ScanDefaultMaxMessages int
	ScanExcludedDomains    []string

	// Retry
	RetryMaxRetries int
	RetryBaseDelay  time.Duration

	// Token
	TokenRefreshThreshold time.Duration

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Stores
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "inboxit"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Auth
		JWTSecret:     getEnv("JWT_SECRET", ""),
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),

		// OpenAI
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		LLMModel:     getEnv("LLM_MODEL", "gpt-4o-mini"),

		// OAuth - Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		// Cache
		CacheBackend:       strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
		CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", 5*time.Minute),
		ScanCacheTTL:       getEnvDuration("SCAN_CACHE_TTL", time.Hour),

		// Scan
		ScanServerBatchSize:    getEnvInt("SCAN_SERVER_BATCH_SIZE", 100),
		ScanChunkSize:          getEnvInt("SCAN_CHUNK_SIZE", 10),
		ScanPageDelay:          getEnvDuration("SCAN_PAGE_DELAY", 200*time.Millisecond),
		ScanChunkDelay:         getEnvDuration("SCAN_CHUNK_DELAY", 100*time.Millisecond),
		ScanDefaultMaxMessages: getEnvInt("SCAN_DEFAULT_MAX_MESSAGES", 200),
		ScanExcludedDomains:    getEnvSlice("SCAN_EXCLUDED_DOMAINS", nil),

		// Retry
		RetryMaxRetries: getEnvInt("RETRY_MAX_RETRIES", 3),
		RetryBaseDelay:  getEnvDuration("RETRY_BASE_DELAY", time.Second),

		// Token
		TokenRefreshThreshold: getEnvDuration("TOKEN_REFRESH_THRESHOLD", 10*time.Minute),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.RetryMaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES must not be negative")
	}
	if c.ScanChunkSize <= 0 || c.ScanServerBatchSize <= 0 {
		return fmt.Errorf("SCAN_CHUNK_SIZE and SCAN_SERVER_BATCH_SIZE must be positive")
	}
	if c.ScanChunkSize > MaxScanChunkSize {
		return fmt.Errorf("SCAN_CHUNK_SIZE must be at most %d", MaxScanChunkSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
