package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	LogLevel    string
	ServiceName string
	// Origins allowed to call the API from a browser (the marketing site)
	AllowedOrigins []string
	// Upper bound on a request body, in bytes
	MaxBodyBytes int64
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Contact form rate limiting
	ContactRateLimitMaxAttempts     int
	ContactRateLimitWindow          time.Duration
	ContactRateLimitCleanupInterval time.Duration
	ContactRateLimitFailClosed      bool
	ContactRateLimitKeyPrefix       string
}

func LoadConfig() (*Config, error) {
	// .env is only present locally; missing file is fine in production
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ServiceName: getEnv("SERVICE_NAME", "agency-contact-backend"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS",
			"http://localhost:3000,http://127.0.0.1:3000")),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 64*1024)),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Contact rate limiting (5 submissions per 15 minutes, swept every 30 minutes)
		ContactRateLimitMaxAttempts:     getEnvInt("CONTACT_RATE_LIMIT_MAX_ATTEMPTS", 5),
		ContactRateLimitWindow:          getEnvDuration("CONTACT_RATE_LIMIT_WINDOW", 15*time.Minute),
		ContactRateLimitCleanupInterval: getEnvDuration("CONTACT_RATE_LIMIT_CLEANUP_INTERVAL", 30*time.Minute),
		ContactRateLimitFailClosed:      getEnvBool("CONTACT_RATE_LIMIT_FAIL_CLOSED", false),
		ContactRateLimitKeyPrefix:       getEnv("CONTACT_RATE_LIMIT_KEY_PREFIX", "rl:contact:"),
	}

	if cfg.ContactRateLimitMaxAttempts <= 0 {
		log.Printf("WARNING: CONTACT_RATE_LIMIT_MAX_ATTEMPTS=%d is invalid, using 5", cfg.ContactRateLimitMaxAttempts)
		cfg.ContactRateLimitMaxAttempts = 5
	}
	if cfg.ContactRateLimitWindow <= 0 {
		log.Println("WARNING: CONTACT_RATE_LIMIT_WINDOW must be positive, using 15m")
		cfg.ContactRateLimitWindow = 15 * time.Minute
	}

	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory store.")
	}

	return cfg, nil
}

// IsProduction reports whether gin runs in release mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("15m") or a bare number of seconds
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
