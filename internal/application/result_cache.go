package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ResultCache stores encoded analytics results until they expire or the
// underlying data changes.
//
// Invalidate starts a new generation. SetAt stores a value computed while
// generation was current and discards it when an invalidation happened since.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Generation(ctx context.Context) (int64, error)
	SetAt(ctx context.Context, generation int64, key string, value []byte) error
	Invalidate(ctx context.Context) error
}

// MemoryResultCache is a process local ResultCache with a TTL and a bounded
// number of entries.
type MemoryResultCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	generation int64
	entries    map[string]resultCacheEntry
}

type resultCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryResultCache constructs a cache. Non-positive ttl and maxEntries fall
// back to 5 minutes and 256 entries.
func NewMemoryResultCache(ttl time.Duration, maxEntries int, now func() time.Time) *MemoryResultCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryResultCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]resultCacheEntry),
	}
}

// Get returns a copy of the cached value.
func (c *MemoryResultCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return cloneBytes(entry.value), true, nil
}

// Set stores a copy of value in the current generation.
func (c *MemoryResultCache) Set(_ context.Context, key string, value []byte) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
	return nil
}

// Generation returns the number of invalidations so far.
func (c *MemoryResultCache) Generation(context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, nil
}

// SetAt stores a copy of value unless the cache was invalidated after
// generation was read.
func (c *MemoryResultCache) SetAt(_ context.Context, generation int64, key string, value []byte) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.setLocked(key, value)
	return nil
}

func (c *MemoryResultCache) setLocked(key string, value []byte) {
	cloned := cloneBytes(value)
	expiry := c.now().Add(c.ttl)

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = resultCacheEntry{value: cloned, expiresAt: expiry}
}

// Invalidate drops every entry and starts a new generation.
func (c *MemoryResultCache) Invalidate(context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	c.generation++
	c.entries = make(map[string]resultCacheEntry)
	c.mu.Unlock()
	return nil
}

// Len reports how many entries are stored, expired ones included.
func (c *MemoryResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryResultCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryResultCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}

func buildResultCacheKey(kind string, parts ...string) string {
	builder := strings.Builder{}
	builder.WriteString(kind)
	for _, part := range parts {
		builder.WriteString("|")
		builder.WriteString(part)
	}
	return builder.String()
}

// cachedResult returns the cached value for key or computes and stores it.
// A result computed across an invalidation is returned but not stored.
// Cache failures are logged and never fail the request.
func cachedResult[T any](ctx context.Context, cache ResultCache, logger *slog.Logger, key string, compute func() (T, error)) (T, error) {
	var generation int64
	if cache != nil {
		var err error
		if generation, err = cache.Generation(ctx); err != nil {
			logger.WarnContext(ctx, "result cache generation read failed", "error", err, "cache_key", key)
			cache = nil
		}
	}
	if cache != nil {
		raw, ok, err := cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "result cache read failed", "error", err, "cache_key", key)
		case ok:
			var value T
			if err := json.Unmarshal(raw, &value); err == nil {
				return value, nil
			}
		}
	}

	value, err := compute()
	if err != nil || cache == nil {
		return value, err
	}

	raw, encodeErr := json.Marshal(value)
	if encodeErr != nil {
		logger.WarnContext(ctx, "result cache encode failed", "error", encodeErr, "cache_key", key)
		return value, nil
	}
	if setErr := cache.SetAt(ctx, generation, key, raw); setErr != nil {
		logger.WarnContext(ctx, "result cache write failed", "error", setErr, "cache_key", key)
	}
	return value, nil
}

func invalidateCache(ctx context.Context, cache ResultCache, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.WarnContext(ctx, "result cache invalidation failed", "error", err)
	}
}
