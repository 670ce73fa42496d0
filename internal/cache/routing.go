// Package cache implements the routing-data cache (§6 "RoutingDataCache
// with get-or-load semantics keyed by id per user"): shared, read-only-
// after-build network/egress/opportunity data kept warm across requests.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultExpiration keeps entries alive indefinitely by default; routing
// data does not go stale on its own, only on explicit Invalidate.
const DefaultExpiration = gocache.NoExpiration

// Loader produces the value for a cache miss. Errors are not cached: a
// failing load is retried on the next Get.
type Loader func(id string) (any, error)

// RoutingDataCache is a get-or-load cache keyed by id, safe for concurrent
// use by many one-to-many processors (§3: "the sparse egress table and
// opportunity grid are shared (read-only after build) by many concurrent
// processors via a routing-data cache").
type RoutingDataCache struct {
	c      *gocache.Cache
	loader Loader
}

// New creates a RoutingDataCache. cleanupInterval controls how often
// expired entries are purged; pass 0 to disable expiration entirely
// (typical for routing data, which is invalidated explicitly rather than
// timing out).
func New(cleanupInterval time.Duration, loader Loader) *RoutingDataCache {
	return &RoutingDataCache{
		c:      gocache.New(DefaultExpiration, cleanupInterval),
		loader: loader,
	}
}

// Get returns the cached value for id, loading it via Loader on a miss.
// Concurrent misses for the same id may each invoke Loader once (no
// single-flight dedup): routing-data builds are expected to be rare and
// idempotent, so the simpler behavior is preferred over added locking.
func (r *RoutingDataCache) Get(id string) (any, error) {
	if v, ok := r.c.Get(id); ok {
		return v, nil
	}
	v, err := r.loader(id)
	if err != nil {
		return nil, err
	}
	r.c.Set(id, v, DefaultExpiration)
	return v, nil
}

// Invalidate evicts id, forcing the next Get to reload it.
func (r *RoutingDataCache) Invalidate(id string) {
	r.c.Delete(id)
}

// Len returns the number of cached entries.
func (r *RoutingDataCache) Len() int {
	return r.c.ItemCount()
}
