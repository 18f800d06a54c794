package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	ContentAPI ContentAPIConfig
	Cache      CacheConfig
	Feed       FeedConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string
}

// ContentAPIConfig holds settings for the upstream content platform API
type ContentAPIConfig struct {
	BaseURL      string
	APIKey       string
	SiteID       string
	Timeout      time.Duration
	UserAgent    string
	RateLimitDur time.Duration
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	TTL       time.Duration
	RedisAddr string
}

// FeedConfig holds feed paging defaults
type FeedConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Load parses flags and environment variables to build configuration
func Load() *Config {
	cfg := &Config{}

	httpAddr := flag.String("http", ":8080", "HTTP server address")
	apiBaseURL := flag.String("content-api-url", "https://api.inkhosted.com", "Content platform API base URL")
	apiTimeout := flag.Duration("content-api-timeout", 30*time.Second, "Content platform request timeout")
	rateLimitDur := flag.Duration("rate-limit", 200*time.Millisecond, "Minimum delay between requests to same host")
	cacheBackend := flag.String("cache-backend", "memory", "Cache backend: memory or redis")
	cacheTTL := flag.Duration("cache-ttl", 5*time.Minute, "Cache TTL for slug and media lookups")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	pageSize := flag.Int("page-size", 10, "Default feed page size")
	maxPageSize := flag.Int("max-page-size", 100, "Maximum feed page size")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	applyEnvOverrides(httpAddr, apiBaseURL, apiTimeout, rateLimitDur, cacheBackend, cacheTTL, redisAddr, pageSize, maxPageSize, logLevel)

	cfg.Server = ServerConfig{
		HTTPAddr: *httpAddr,
	}

	cfg.ContentAPI = ContentAPIConfig{
		BaseURL:      *apiBaseURL,
		APIKey:       os.Getenv("CONTENT_API_KEY"),
		SiteID:       os.Getenv("CONTENT_API_SITE_ID"),
		Timeout:      *apiTimeout,
		UserAgent:    getEnvOrDefault("CONTENT_API_USER_AGENT", "inkfeed/1.0"),
		RateLimitDur: *rateLimitDur,
	}

	cfg.Cache = CacheConfig{
		Backend:   *cacheBackend,
		TTL:       *cacheTTL,
		RedisAddr: *redisAddr,
	}

	cfg.Feed = FeedConfig{
		DefaultPageSize: *pageSize,
		MaxPageSize:     *maxPageSize,
	}

	cfg.Logging = LoggingConfig{
		Level: *logLevel,
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func applyEnvOverrides(
	httpAddr *string,
	apiBaseURL *string,
	apiTimeout *time.Duration,
	rateLimitDur *time.Duration,
	cacheBackend *string,
	cacheTTL *time.Duration,
	redisAddr *string,
	pageSize *int,
	maxPageSize *int,
	logLevel *string,
) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		*httpAddr = v
	}
	if v := os.Getenv("CONTENT_API_URL"); v != "" {
		*apiBaseURL = v
	}
	if v := os.Getenv("CONTENT_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*apiTimeout = d
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*rateLimitDur = d
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		*cacheBackend = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*cacheTTL = d
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("FEED_PAGE_SIZE"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			*pageSize = p
		}
	}
	if v := os.Getenv("FEED_MAX_PAGE_SIZE"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			*maxPageSize = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}
}
