package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrUnsupported is returned by maintenance calls on a store without Admin support.
var ErrUnsupported = errors.New("cache store does not support this operation")

// Cache is the content-addressed cache in front of a Store. Every store failure is
// logged and degrades to a miss (read) or a dropped write; nothing here fails a request.
type Cache struct {
	store       Store
	invalidator *Invalidator
	hits        atomic.Int64
	misses      atomic.Int64
	stale       atomic.Int64
	now         func() time.Time
}

// New creates a cache over store. invalidator may be nil, which disables drift checks.
func New(store Store, invalidator *Invalidator) *Cache {
	c := &Cache{store: store, invalidator: invalidator, now: time.Now}
	if invalidator != nil {
		c.now = invalidator.now
	}
	return c
}

// Invalidator returns the cache's invalidator, or nil.
func (c *Cache) Invalidator() *Invalidator {
	return c.invalidator
}

// Get returns the entry for k. A missing entry, a store error, a fingerprint mismatch
// (32-bit key collision) and a stale entry are all misses.
func (c *Cache) Get(ctx context.Context, k Key) (*Entry, bool) {
	e, err := c.store.Get(ctx, k.Key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("cache read failed, treating as miss", "key", k.Key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	if e.Fingerprint != k.Fingerprint {
		slog.Debug("cache key collision, treating as miss", "key", k.Key)
		c.misses.Add(1)
		return nil, false
	}
	if c.invalidator != nil && c.invalidator.IsStale(e) {
		c.stale.Add(1)
		c.misses.Add(1)
		if admin, ok := c.store.(Admin); ok {
			if err := admin.Delete(ctx, k.Key); err != nil {
				slog.Debug("stale entry delete failed", "key", k.Key, "error", err)
			}
		}
		return nil, false
	}
	if err := c.store.Touch(ctx, k.Key); err != nil {
		slog.Debug("cache hit not recorded", "key", k.Key, "error", err)
	} else {
		e.Hits++
	}
	c.hits.Add(1)
	return e, true
}

// Put stores e, stamping CreatedAt when unset. Failures are logged and dropped.
func (c *Cache) Put(ctx context.Context, e *Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now().UTC()
	}
	if err := c.store.Put(ctx, e); err != nil {
		slog.Warn("cache write failed, dropping entry", "key", e.Key, "error", err)
	}
}

// Stats combines this process's lookup counters with the store's own summary.
type Stats struct {
	StoreStats
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	StaleMisses int64   `json:"stale_misses"`
	HitRate     float64 `json:"hit_rate"`
	Generation  int     `json:"generation"`
}

// Stats returns cache statistics. Store counts are omitted when the store has no Admin support.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	st := Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		StaleMisses: c.stale.Load(),
	}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	if c.invalidator != nil {
		st.Generation = c.invalidator.Snapshot().Generation
	}
	if admin, ok := c.store.(Admin); ok {
		ss, err := admin.Stats(ctx)
		if err != nil {
			return st, fmt.Errorf("store stats: %w", err)
		}
		st.StoreStats = ss
	}
	return st, nil
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	admin, ok := c.store.(Admin)
	if !ok {
		return ErrUnsupported
	}
	return admin.Clear(ctx)
}

// Prune removes entries older than maxAge and returns how many were removed.
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	admin, ok := c.store.(Admin)
	if !ok {
		return 0, ErrUnsupported
	}
	return admin.Prune(ctx, c.now().Add(-maxAge))
}
