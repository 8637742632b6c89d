package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps one token bucket per user in process memory. Buckets
// refill at limit per Window with a burst of limit.
type LocalLimiter struct {
	mu       sync.Mutex
	entries  map[string]*localEntry
	observer Observer
	now      func() time.Time
	idleTTL  time.Duration
}

func NewLocalLimiter(observer Observer) *LocalLimiter {
	return &LocalLimiter{
		entries:  make(map[string]*localEntry),
		observer: observer,
		now:      time.Now,
		idleTTL:  10 * Window,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, userID string, limit int) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	e, ok := l.entries[userID]
	if !ok || e.limiter.Burst() != limit {
		e = &localEntry{limiter: rate.NewLimiter(rate.Limit(float64(limit)/Window.Seconds()), limit)}
		l.entries[userID] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)
	remaining := int(e.limiter.TokensAt(now))
	l.evictLocked(now)
	l.mu.Unlock()

	d := Decision{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(remaining, 0),
		ResetAt:   now.Add(Window),
	}
	if !allowed && l.observer != nil {
		l.observer.ObserveRateLimitRejection()
	}
	return d, nil
}

// Len reports how many users currently hold a bucket.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *LocalLimiter) evictLocked(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.entries, k)
		}
	}
}
