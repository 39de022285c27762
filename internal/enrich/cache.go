package enrich

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ufwatch/internal/clock"
	"ufwatch/internal/docker"
	"ufwatch/internal/events"
	"ufwatch/internal/logging"
)

// SnapshotLoader is the slice of docker.Loader the cache needs.
type SnapshotLoader interface {
	Load(ctx context.Context) (*docker.Snapshot, error)
}

// DefaultTTL is how long a snapshot is served before a reload is
// attempted. TTL zero reloads on every call, matching the original
// per-event behavior at the cost of one CLI invocation per block.
const DefaultTTL = 10 * time.Second

// Cache serves Docker network snapshots with bounded staleness.
//
// Reloads are collapsed through singleflight so concurrent callers
// share one in-flight CLI invocation. When a reload fails the previous
// snapshot is retained and served stale: a transient docker failure
// shows up as staleness, never as an enrichment gap. The worst-case
// staleness is TTL plus the loader's timeout.
type Cache struct {
	loader SnapshotLoader
	ttl    time.Duration
	clock  clock.Clock
	log    *logging.Logger
	hub    *events.Hub

	group singleflight.Group

	mu   sync.RWMutex
	snap *docker.Snapshot
}

// NewCache wraps loader with a TTL-bounded snapshot cache.
func NewCache(loader SnapshotLoader, ttl time.Duration, c clock.Clock) *Cache {
	if c == nil {
		c = &clock.RealClock{}
	}
	if ttl < 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		loader: loader,
		ttl:    ttl,
		clock:  c,
		log:    logging.WithComponent("enrich"),
	}
}

// Notify publishes snapshot lifecycle events to hub. Optional.
func (c *Cache) Notify(hub *events.Hub) {
	c.hub = hub
}

// Snapshot returns the current snapshot, reloading when the cached one
// is older than the TTL. The returned snapshot may be nil when no load
// has ever succeeded; the error reports the most recent load failure.
func (c *Cache) Snapshot(ctx context.Context) (*docker.Snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()

	if snap != nil && snap.Age(c.clock.Now()) <= c.ttl {
		return snap, nil
	}

	fresh, err, _ := c.group.Do("load", func() (any, error) {
		// Re-check under the flight: another caller may have
		// refreshed while we waited.
		c.mu.RLock()
		cur := c.snap
		c.mu.RUnlock()
		if cur != nil && cur.Age(c.clock.Now()) <= c.ttl {
			return cur, nil
		}

		loaded, err := c.loader.Load(ctx)
		if err != nil {
			if c.hub != nil {
				c.hub.EmitSnapshotFailed(err)
			}
			return nil, err
		}
		c.mu.Lock()
		c.snap = loaded
		c.mu.Unlock()
		if c.hub != nil {
			c.hub.EmitSnapshotLoaded(len(loaded.Networks))
		}
		return loaded, nil
	})
	if err != nil {
		c.log.Warn("Snapshot reload failed, keeping previous snapshot", "error", err)
		return snap, err
	}
	return fresh.(*docker.Snapshot), nil
}

// Current returns the cached snapshot without triggering a reload.
func (c *Cache) Current() *docker.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}
