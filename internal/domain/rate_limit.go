package domain

import (
	"context"
	"time"
)

// RateLimitEntry is the fixed-window counter for one client identifier
type RateLimitEntry struct {
	Key           string    `json:"key"`
	Count         int       `json:"count"`
	WindowResetAt time.Time `json:"window_reset_at"`
}

// RateLimitDecision is the outcome of counting one request against a key
type RateLimitDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimitStore counts requests per key in fixed windows.
// Hit must be atomic per key: concurrent hits never admit more than the limit.
type RateLimitStore interface {
	Hit(ctx context.Context, key string) (RateLimitDecision, error)
	// Cleanup removes entries whose window has elapsed and returns how many went
	Cleanup(ctx context.Context) (int, error)
}
