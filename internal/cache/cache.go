// Package cache provides ListCache, a keyed cache of fetched collections.
//
// A ListCache belongs to whichever component owns the resource (for example
// one per open project); it is never a package-level table.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/zjrosen/stackline/internal/log"
)

// Fetcher loads the value for a key on a cache miss.
type Fetcher[V any] func(ctx context.Context, key string) (V, error)

// Options configures a ListCache.
type Options struct {
	// TTL is how long an entry lives. Zero keeps entries until invalidated.
	TTL time.Duration
	// CleanupInterval is how often expired entries are purged. Zero disables
	// the janitor.
	CleanupInterval time.Duration
}

// ListCache maps a resource key to its fetched value. Each key is fetched
// once and reused; concurrent misses on the same key share a single fetch.
//
// A fetch that overlaps a write to its key (Invalidate, Flush, Upsert or
// Update) returns its result to the caller but does not store it.
type ListCache[V any] struct {
	name  string
	items *gocache.Cache
	group singleflight.Group

	// mu serialises writes and guards the generation counters.
	mu    sync.Mutex
	gens  map[string]uint64
	epoch uint64 // bumped by Flush
}

// New creates a ListCache. name is used in log lines.
func New[V any](name string, opts Options) *ListCache[V] {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &ListCache[V]{
		name:  name,
		items: gocache.New(ttl, opts.CleanupInterval),
		gens:  make(map[string]uint64),
	}
}

// Get returns the cached value for key, fetching it on a miss.
// Fetch errors are returned and not cached.
func (c *ListCache[V]) Get(ctx context.Context, key string, fetch Fetcher[V]) (V, error) {
	if v, ok := c.Peek(key); ok {
		return v, nil
	}

	gen := c.generation(key)
	flight := key + "#" + strconv.FormatUint(gen, 10)
	res, err, shared := c.group.Do(flight, func() (any, error) {
		if v, ok := c.Peek(key); ok {
			return v, nil
		}
		log.Debug(log.CatCache, "Cache miss", "cache", c.name, "key", key)
		v, err := fetch(ctx, key)
		if err != nil {
			return v, err
		}
		c.storeIfCurrent(key, gen, v)
		return v, nil
	})
	if err != nil {
		var zero V
		log.Debug(log.CatCache, "Fetch failed", "cache", c.name, "key", key, "error", err, "shared", shared)
		return zero, err
	}
	return res.(V), nil
}

// generation identifies the current contents of key. Any write changes it.
func (c *ListCache[V]) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch + c.gens[key]
}

// bumpLocked must be called with mu held.
func (c *ListCache[V]) bumpLocked(key string) {
	c.gens[key]++
}

func (c *ListCache[V]) storeIfCurrent(key string, gen uint64, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch+c.gens[key] != gen {
		log.Debug(log.CatCache, "Discarding stale fetch", "cache", c.name, "key", key)
		return
	}
	c.items.SetDefault(key, v)
}

// Peek returns the cached value without fetching.
func (c *ListCache[V]) Peek(key string) (V, bool) {
	if v, ok := c.items.Get(key); ok {
		return v.(V), true
	}
	var zero V
	return zero, false
}

// Upsert stores value for key, replacing any cached value.
func (c *ListCache[V]) Upsert(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumpLocked(key)
	c.items.SetDefault(key, value)
}

// Update applies fn to the cached value for key. It does nothing on a miss,
// so a later Get still fetches the full value.
func (c *ListCache[V]) Update(key string, fn func(V) V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.Peek(key)
	if !ok {
		return false
	}
	c.bumpLocked(key)
	c.items.SetDefault(key, fn(v))
	return true
}

// Invalidate drops the cached value for key.
func (c *ListCache[V]) Invalidate(key string) {
	c.mu.Lock()
	c.bumpLocked(key)
	c.items.Delete(key)
	c.mu.Unlock()
	log.Debug(log.CatCache, "Invalidated", "cache", c.name, "key", key)
}

// Flush drops every cached value.
func (c *ListCache[V]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.items.Flush()
}

// Len returns the number of cached keys, including expired ones not yet purged.
func (c *ListCache[V]) Len() int {
	return c.items.ItemCount()
}
