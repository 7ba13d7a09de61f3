package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"agency-contact-backend/internal/delivery/http/response"
	"agency-contact-backend/internal/domain"
	"agency-contact-backend/pkg/logger"
	"agency-contact-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Counter backend (in-memory or Redis)
	Store domain.RateLimitStore
	// Custom key extractor (default: forwarded client identifier)
	KeyFunc func(*gin.Context) string
	// Whether to fail closed (reject) when the store errors
	FailClosed bool
	// Message returned with 429
	Message string
	// Security event sink
	SecurityLogger *security.SecurityLogger
}

// ContactRateLimitConfig returns the settings for the public contact form
func ContactRateLimitConfig(store domain.RateLimitStore, failClosed bool, secLog *security.SecurityLogger) RateLimitConfig {
	return RateLimitConfig{
		Store:          store,
		KeyFunc:        clientIDFrom,
		FailClosed:     failClosed,
		Message:        "Too many requests. Please try again later.",
		SecurityLogger: secLog,
	}
}

// RateLimitMiddleware counts each request against its client key and
// answers 429 once the window is full
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = clientIDFrom
	}
	if config.Message == "" {
		config.Message = "Rate limit exceeded. Please try again later."
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		decision, err := config.Store.Hit(c.Request.Context(), key)
		if err != nil {
			logRateLimitError(c, config.SecurityLogger, key, err)
			if config.FailClosed {
				response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", decision.ResetAt.UTC().Format(time.RFC3339))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			logRateLimitTriggered(c, config.SecurityLogger, key)

			response.Error(c, http.StatusTooManyRequests, config.Message, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// logRateLimitTriggered logs when rate limiting is triggered
func logRateLimitTriggered(c *gin.Context, sl *security.SecurityLogger, key string) {
	if sl == nil {
		return
	}
	sl.LogRateLimitTriggered(
		c.Request.Context(),
		key,
		c.GetHeader("User-Agent"),
		c.GetString("RequestID"),
		c.FullPath(),
	)
}

// logRateLimitError logs store errors
func logRateLimitError(c *gin.Context, sl *security.SecurityLogger, key string, err error) {
	logger.Log.Error("Rate limit store failed", "client_id", key, "error", err)
	if sl == nil {
		return
	}
	sl.Log(c.Request.Context(), security.SecurityEvent{
		Event:     security.EventRateLimitError,
		Stage:     security.StageRateLimit,
		IP:        key,
		RequestID: c.GetString("RequestID"),
		Details: map[string]interface{}{
			"error": err.Error(),
		},
	})
}
