package cache

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// entry stores a cached value and its absolute expiration timestamp.
type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Options controls construction of a Cache. Zero or negative fields fall back
// to the package defaults.
type Options struct {
	DefaultTTL      time.Duration
	MaxEntries      int
	CleanupInterval time.Duration
	Clock           Clock
	Logger          *zap.Logger
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evictions  int64   `json:"evictions"`
	Expired    int64   `json:"expired"`
	HitRate    float64 `json:"hit_rate"`
}

// Cache is a bounded in-memory cache where every entry carries its own expiry.
//
// Expired entries are removed lazily when read, by a throttled sweep piggybacked
// on Set, or by an explicit ClearExpired. When the store is full, Set first
// evicts the quarter of entries closest to expiry. Eviction order between
// entries with identical expiry is unspecified.
//
// A single mutex guards the whole store; every method is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	items     map[string]entry
	lastSweep time.Time

	defaultTTL      time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	clock           Clock
	log             *zap.Logger

	hits, misses, evictions, expired int64

	loads   singleflight.Group
	loading map[string]*pendingLoad
}

// pendingLoad tracks Remember loads in progress for one key. gen moves on every
// write to the key so a load that started earlier does not overwrite it.
type pendingLoad struct {
	refs int
	gen  uint64
}

// New constructs an empty cache. New never returns a nil Cache.
func New(opts Options) *Cache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Cache{
		items:           make(map[string]entry, opts.MaxEntries),
		loading:         make(map[string]*pendingLoad),
		lastSweep:       opts.Clock.Now(),
		defaultTTL:      opts.DefaultTTL,
		maxEntries:      opts.MaxEntries,
		cleanupInterval: opts.CleanupInterval,
		clock:           opts.Clock,
		log:             opts.Logger.Named("cache"),
	}
}

// Set stores value under key until now+ttl, replacing any previous entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl < 0 {
		return ErrNegativeTTL
	}

	c.mu.Lock()
	c.invalidateLocked(key)
	c.setLocked(key, value, ttl)
	c.mu.Unlock()

	c.loads.Forget(key)
	return nil
}

func (c *Cache) setLocked(key string, value any, ttl time.Duration) {
	now := c.clock.Now()

	if len(c.items) >= c.maxEntries {
		c.enforceLimitLocked()
	}

	c.items[key] = entry{value: value, expiresAt: now.Add(ttl)}

	if now.Sub(c.lastSweep) >= c.cleanupInterval {
		c.clearExpiredLocked(now)
	}
}

// SetDefault is Set with the configured default TTL.
func (c *Cache) SetDefault(key string, value any) error {
	return c.Set(key, value, c.defaultTTL)
}

// Get returns the live value for key. An expired entry is deleted and
// reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookupLocked(key)
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Has reports whether key holds a live value, with the same lazy eviction as Get.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.lookupLocked(key)
	return ok
}

// Delete removes key and reports whether an entry, live or expired, was present.
// A Remember load for key that is still running will not store its result.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	c.invalidateLocked(key)
	_, ok := c.items[key]
	delete(c.items, key)
	c.mu.Unlock()

	c.loads.Forget(key)
	return ok
}

// Len includes expired entries that have not been purged yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes every entry and returns how many were dropped, expired ones included.
func (c *Cache) Clear() int {
	c.mu.Lock()
	n := len(c.items)
	c.items = make(map[string]entry, c.maxEntries)
	pending := make([]string, 0, len(c.loading))
	for k, p := range c.loading {
		p.gen++
		pending = append(pending, k)
	}
	c.mu.Unlock()

	for _, k := range pending {
		c.loads.Forget(k)
	}
	c.log.Debug("cleared", zap.Int("entries", n))
	return n
}

// ClearExpired removes every entry whose expiry has passed and returns the count.
func (c *Cache) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearExpiredLocked(c.clock.Now())
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Entries:    len(c.items),
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
		Expired:    c.expired,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

func (c *Cache) invalidateLocked(key string) {
	if p, ok := c.loading[key]; ok {
		p.gen++
	}
}

func (c *Cache) lookupLocked(key string) (entry, bool) {
	e, ok := c.items[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(c.clock.Now()) {
		delete(c.items, key)
		c.expired++
		return entry{}, false
	}
	return e, true
}

// clearExpiredLocked collects victims before deleting so the map is never
// mutated while it is being ranged over.
func (c *Cache) clearExpiredLocked(now time.Time) int {
	c.lastSweep = now

	var victims []string
	for k, e := range c.items {
		if e.expired(now) {
			victims = append(victims, k)
		}
	}
	for _, k := range victims {
		delete(c.items, k)
	}

	if n := len(victims); n > 0 {
		c.expired += int64(n)
		c.log.Debug("swept expired entries", zap.Int("removed", n), zap.Int("remaining", len(c.items)))
	}
	return len(victims)
}

// enforceLimitLocked drops the quarter of entries (rounded up) that expire soonest.
func (c *Cache) enforceLimitLocked() {
	n := len(c.items)
	if n == 0 {
		return
	}

	keys := make([]string, 0, n)
	for k := range c.items {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return c.items[a].expiresAt.Compare(c.items[b].expiresAt)
	})

	remove := (n + 3) / 4
	for _, k := range keys[:remove] {
		delete(c.items, k)
	}
	c.evictions += int64(remove)
	c.log.Debug("capacity reached, evicted soonest-expiring entries",
		zap.Int("evicted", remove), zap.Int("max_entries", c.maxEntries))
}
