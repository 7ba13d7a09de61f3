package memory

import (
	"context"
	"sync"
	"time"

	"agency-contact-backend/internal/domain"
)

// RateLimitStore is a fixed-window counter kept in process memory.
// Entries are lost on restart; use the Redis store for multi-instance deployments.
type RateLimitStore struct {
	mu      sync.Mutex
	entries map[string]*domain.RateLimitEntry
	limit   int
	window  time.Duration
	now     func() time.Time
}

type Option func(*RateLimitStore)

// WithClock overrides time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(s *RateLimitStore) { s.now = now }
}

// NewRateLimitStore admits at most limit hits per key in each window
func NewRateLimitStore(limit int, window time.Duration, opts ...Option) *RateLimitStore {
	s := &RateLimitStore{
		entries: make(map[string]*domain.RateLimitEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit counts one request for key.
// A missing or elapsed window starts over at 1; a full window rejects without counting.
func (s *RateLimitStore) Hit(_ context.Context, key string) (domain.RateLimitDecision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.After(entry.WindowResetAt) {
		entry = &domain.RateLimitEntry{
			Key:           key,
			Count:         1,
			WindowResetAt: now.Add(s.window),
		}
		s.entries[key] = entry
		return s.decision(entry, true, now), nil
	}

	if entry.Count >= s.limit {
		return s.decision(entry, false, now), nil
	}

	entry.Count++
	return s.decision(entry, true, now), nil
}

// Cleanup drops every entry whose window has elapsed
func (s *RateLimitStore) Cleanup(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.WindowResetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Entry returns a copy of the current entry for key
func (s *RateLimitStore) Entry(key string) (domain.RateLimitEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return domain.RateLimitEntry{}, false
	}
	return *entry, true
}

// Len returns the number of tracked keys
func (s *RateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *RateLimitStore) decision(entry *domain.RateLimitEntry, allowed bool, now time.Time) domain.RateLimitDecision {
	remaining := s.limit - entry.Count
	if remaining < 0 {
		remaining = 0
	}
	d := domain.RateLimitDecision{
		Allowed:   allowed,
		Limit:     s.limit,
		Remaining: remaining,
		ResetAt:   entry.WindowResetAt,
	}
	if !allowed {
		d.RetryAfter = entry.WindowResetAt.Sub(now)
	}
	return d
}
