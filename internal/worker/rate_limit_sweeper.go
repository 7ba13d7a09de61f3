package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"agency-contact-backend/internal/domain"
)

// RateLimitSweeper periodically removes expired rate-limit windows so the
// table does not grow with every distinct client seen.
type RateLimitSweeper struct {
	store    domain.RateLimitStore
	interval time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRateLimitSweeper(store domain.RateLimitStore, interval time.Duration, log *slog.Logger) *RateLimitSweeper {
	return &RateLimitSweeper{
		store:    store,
		interval: interval,
		log:      log,
	}
}

// Start launches the sweep loop. It stops when ctx is cancelled or Stop is called.
// Calling Start on a running sweeper does nothing.
func (s *RateLimitSweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Warn("Rate limit sweeper disabled", "interval", s.interval)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
}

// Stop cancels the loop and waits for it to exit
func (s *RateLimitSweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SweepOnce runs a single cleanup pass
func (s *RateLimitSweeper) SweepOnce(ctx context.Context) {
	removed, err := s.store.Cleanup(ctx)
	if err != nil {
		s.log.Error("Rate limit cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		s.log.Debug("Rate limit cleanup", "removed", removed)
	}
}

func (s *RateLimitSweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}
