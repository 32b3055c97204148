package ratelimit

import (
	"context"
	"sync"
	"time"

	"currency-conversion-service/internal/domain/ports"
	"currency-conversion-service/pkg/logger"
)

const DefaultCleanupInterval = 5 * time.Minute

type clientUsage struct {
	count     int
	lastReset time.Time
}

// MemoryLimiter allows each client a fixed number of requests per UTC day.
type MemoryLimiter struct {
	mu              sync.Mutex
	clients         map[string]*clientUsage
	dailyLimit      int
	cleanupInterval time.Duration
	lastCleanup     time.Time
	now             func() time.Time
	log             *logger.Logger
}

type MemoryOption func(*MemoryLimiter)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		l.now = now
		l.lastCleanup = now()
	}
}

func NewMemoryLimiter(dailyLimit int, log *logger.Logger, opts ...MemoryOption) *MemoryLimiter {
	if log == nil {
		log = logger.NewNop()
	}
	l := &MemoryLimiter{
		clients:         make(map[string]*clientUsage),
		dailyLimit:      dailyLimit,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		log:             log,
	}
	l.lastCleanup = l.now()
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLimiter) Allow(ctx context.Context, clientID string) (ports.RateLimitDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	l.cleanupLocked(now)

	usage, ok := l.clients[clientID]
	if !ok {
		usage = &clientUsage{lastReset: now}
		l.clients[clientID] = usage
	}
	if day(usage.lastReset).Before(day(now)) {
		usage.count = 0
		usage.lastReset = now
	}

	decision := ports.RateLimitDecision{
		Limit:   l.dailyLimit,
		ResetAt: day(now).AddDate(0, 0, 1),
	}
	if usage.count >= l.dailyLimit {
		l.log.Warn("Rate limit exceeded", "client", clientID, "daily_count", usage.count)
		return decision, nil
	}

	usage.count++
	decision.Allowed = true
	decision.Remaining = l.dailyLimit - usage.count
	return decision, nil
}

// Remaining reports how many requests clientID has left today.
func (l *MemoryLimiter) Remaining(clientID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	usage, ok := l.clients[clientID]
	if !ok || day(usage.lastReset).Before(day(l.now().UTC())) {
		return l.dailyLimit
	}
	return max(l.dailyLimit-usage.count, 0)
}

func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// cleanupLocked drops clients last reset before yesterday.
func (l *MemoryLimiter) cleanupLocked(now time.Time) {
	if now.Sub(l.lastCleanup) <= l.cleanupInterval {
		return
	}

	cutoff := day(now).AddDate(0, 0, -1)
	removed := 0
	for id, usage := range l.clients {
		if day(usage.lastReset).Before(cutoff) {
			delete(l.clients, id)
			removed++
		}
	}
	l.lastCleanup = now
	if removed > 0 {
		l.log.Debug("Removed stale rate limit entries", "count", removed)
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
