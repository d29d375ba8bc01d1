package quota

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is the per-account flood control in front of the send paths.
// It is advisory, not billing-accurate; the Ledger is the billing control.
type RateLimiter interface {
	// Allow reports whether the account may initiate another send-triggering
	// request right now.
	Allow(ctx context.Context, accountID string) (bool, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter tracks a (count, resetAt) pair per account in process
// memory. State is lost on restart, which is acceptable for a UX throttle.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

func NewMemoryRateLimiter(limit int) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		entries: make(map[string]*window),
		limit:   limit,
		period:  time.Minute,
		now:     time.Now,
	}
}

// WithClock overrides the limiter's clock for tests.
func (l *MemoryRateLimiter) WithClock(now func() time.Time) *MemoryRateLimiter {
	l.now = now
	return l
}

func (l *MemoryRateLimiter) Allow(ctx context.Context, accountID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[accountID]
	if !ok || now.After(entry.resetAt) {
		// Window expired; reset lazily.
		l.entries[accountID] = &window{count: 1, resetAt: now.Add(l.period)}
		return true, nil
	}
	if entry.count >= l.limit {
		rateLimitRejectionsTotal.Inc()
		return false, nil
	}
	entry.count++
	return true, nil
}
