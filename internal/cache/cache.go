// Package cache is a tag-versioned read-through cache. Every entry records
// the version of each of its tags when it was filled; bumping a tag makes all
// entries bound to it stale at once. A TTL bounds staleness if an
// invalidation is ever missed.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/erazemk/inventar/internal/logfields"
	"github.com/erazemk/inventar/internal/metrics"
)

// DefaultTTL is the entry lifetime used when none is configured.
const DefaultTTL = 30 * time.Second

type entry struct {
	value    any
	tags     []string
	versions []uint64
	expires  time.Time
}

// Cache holds query results keyed by query shape.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	versions map[string]uint64

	ttl         time.Duration
	now         func() time.Time
	group       singleflight.Group
	broadcaster Broadcaster
	logger      *slog.Logger
	recorder    metrics.Recorder

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithBroadcaster publishes every local invalidation to other replicas.
func WithBroadcaster(b Broadcaster) Option {
	return func(c *Cache) { c.broadcaster = b }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Cache) { c.recorder = metrics.OrNoop(r) }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*entry),
		versions: make(map[string]uint64),
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result under tags. Concurrent misses on the same key share one load. A load
// that races with an invalidation of one of its tags is returned to its
// callers but is already stale for the next reader.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, tags []string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			c.hits.Add(1)
			c.recorder.IncCacheLookup(true)
			return typed, nil
		}
	}
	c.misses.Add(1)
	c.recorder.IncCacheLookup(false)

	snapshot := c.snapshot(tags)
	flightKey := key + "@" + versionKey(snapshot)

	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		loadCtx, cancel := detach(ctx)
		defer cancel()
		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, tags, snapshot, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// detach returns a context for a shared load. Other callers may be waiting on
// the same load, so it ignores the first caller's cancellation but keeps its
// deadline and values.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return detached, func() {}
}

// Invalidate bumps the version of every tag, so all entries bound to any of
// them miss on the next read, and publishes the tags to other replicas.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) {
	if len(tags) == 0 {
		return
	}
	c.bump(tags)
	c.recorder.AddCacheInvalidations(len(tags))

	if c.broadcaster == nil {
		return
	}
	if err := c.broadcaster.Publish(ctx, tags); err != nil {
		c.logger.WarnContext(ctx, "Failed to broadcast cache invalidation",
			logfields.Tags(tags),
			logfields.Error(err),
		)
	}
}

// InvalidateLocal bumps tags without broadcasting. It applies invalidations
// received from other replicas.
func (c *Cache) InvalidateLocal(tags ...string) {
	c.bump(tags)
}

// Sweep removes expired and stale entries and reports how many it removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expires) || !c.currentLocked(e) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Entries int    `json:"entries"`
	Tags    int    `json:"tags"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries: len(c.entries),
		Tags:    len(c.versions),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

func (c *Cache) lookup(key string) (any, bool) {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !now.Before(e.expires) || !c.currentLocked(e) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) snapshot(tags []string) []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	versions := make([]uint64, len(tags))
	for i, tag := range tags {
		versions[i] = c.versions[tag]
	}
	return versions
}

func (c *Cache) store(key string, tags []string, versions []uint64, value any) {
	e := &entry{
		value:    value,
		tags:     append([]string(nil), tags...),
		versions: versions,
		expires:  c.now().Add(c.ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

func (c *Cache) bump(tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		c.versions[tag]++
	}
}

// currentLocked reports whether none of e's tags has been bumped since e was
// filled. The caller holds c.mu.
func (c *Cache) currentLocked(e *entry) bool {
	for i, tag := range e.tags {
		if c.versions[tag] != e.versions[i] {
			return false
		}
	}
	return true
}

func versionKey(versions []uint64) string {
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, ".")
}
