package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/pkg/logger"
)

const (
	RateCacheTTL     = 60 * time.Minute
	RateCacheSize    = 1000
	CountryCacheTTL  = 24 * time.Hour
	CountryCacheSize = 500
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// MemoryCache is a bounded TTL cache. When full, Set evicts the entry that
// expires first.
type MemoryCache[V any] struct {
	name     string
	cacheMap map[string]entry[V]
	mutex    sync.RWMutex
	cacheTTL time.Duration
	maxSize  int
	hits     atomic.Uint64
	misses   atomic.Uint64
	now      func() time.Time
	log      *logger.Logger
}

type Option[V any] func(*MemoryCache[V])

// WithClock replaces time.Now, mostly for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *MemoryCache[V]) {
		c.now = now
	}
}

func NewMemoryCache[V any](name string, cacheTTL time.Duration, maxSize int, log *logger.Logger, opts ...Option[V]) *MemoryCache[V] {
	if log == nil {
		log = logger.NewNop()
	}
	c := &MemoryCache[V]{
		name:     name,
		cacheMap: make(map[string]entry[V]),
		cacheTTL: cacheTTL,
		maxSize:  maxSize,
		now:      time.Now,
		log:      log.With("cache", name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTTL overrides the entry lifetime of a preset.
func WithTTL[V any](ttl time.Duration) Option[V] {
	return func(c *MemoryCache[V]) {
		c.cacheTTL = ttl
	}
}

func WithMaxSize[V any](size int) Option[V] {
	return func(c *MemoryCache[V]) {
		c.maxSize = size
	}
}

// NewRateCache holds one rate per currency pair, 60 minutes and 1000 pairs
// unless overridden.
func NewRateCache(log *logger.Logger, opts ...Option[model.ExchangeRateData]) *MemoryCache[model.ExchangeRateData] {
	return NewMemoryCache[model.ExchangeRateData]("exchange_rates", RateCacheTTL, RateCacheSize, log, opts...)
}

// NewCountryCache holds directory lookups, 24 hours and 500 countries unless
// overridden.
func NewCountryCache(log *logger.Logger, opts ...Option[model.CountryInfo]) *MemoryCache[model.CountryInfo] {
	return NewMemoryCache[model.CountryInfo]("countries", CountryCacheTTL, CountryCacheSize, log, opts...)
}

func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, found := c.cacheMap[key]
	if found && item.expiresAt.After(c.now()) {
		c.hits.Add(1)
		c.log.Debug("Cache hit", "key", key)
		return item.value, true
	}

	// stale entries stay until ClearExpired or eviction
	c.misses.Add(1)
	if found {
		c.log.Debug("Cache entry expired", "key", key)
	} else {
		c.log.Debug("Cache miss", "key", key)
	}
	var zero V
	return zero, false
}

// Set stores value under key. At capacity the earliest-expiring entry is
// evicted first, even when key is already present.
func (c *MemoryCache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize > 0 && len(c.cacheMap) >= c.maxSize {
		c.evictOldest()
	}

	c.cacheMap[key] = entry[V]{value: value, expiresAt: c.now().Add(c.cacheTTL)}
	c.log.Debug("Cache set", "key", key)
}

func (c *MemoryCache[V]) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		first     = true
	)
	for key, item := range c.cacheMap {
		if first || item.expiresAt.Before(oldest) {
			oldestKey, oldest, first = key, item.expiresAt, false
		}
	}
	if !first {
		delete(c.cacheMap, oldestKey)
		c.log.Debug("Evicted cache entry", "key", oldestKey)
	}
}

func (c *MemoryCache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cacheMap = make(map[string]entry[V])
}

// ClearExpired drops every entry whose expiry is at or before now and
// returns how many were removed.
func (c *MemoryCache[V]) ClearExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	expiredKeys := make([]string, 0)

	for key, item := range c.cacheMap {
		if !item.expiresAt.After(now) {
			expiredKeys = append(expiredKeys, key)
		}
	}

	for _, key := range expiredKeys {
		delete(c.cacheMap, key)
		c.log.Debug("Removed expired cache entry", "key", key)
	}

	c.log.Info("Cleared expired cache entries", "count", len(expiredKeys))
	return len(expiredKeys)
}

func (c *MemoryCache[V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cacheMap)
}

func (c *MemoryCache[V]) Stats() model.CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return model.CacheStats{
		Name:    c.name,
		Size:    c.Len(),
		MaxSize: c.maxSize,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
	}
}
