package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Remember returns the cached T stored under key, or calls load, caches its
// result for ttl and returns it. Concurrent callers missing the same key share
// a single load, which runs with the first caller's context. Errors from load
// are returned and nothing is cached.
//
// A load that is overtaken by Set, Delete or Clear on the same key still
// returns its result to the callers waiting on it, but does not store it.
//
// An entry holding a value of a different type is treated as a miss and replaced.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if key == "" {
		return zero, ErrInvalidKey
	}
	if ttl < 0 {
		return zero, ErrNegativeTTL
	}

	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	v, err, _ := c.loads.Do(key, func() (any, error) {
		// A flight that finished just before this one may have filled the key.
		if v, ok := c.peek(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
		t, err := loadAndStore(ctx, c, key, ttl, load)
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		return zero, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}

	// The flight was started by a caller expecting another type under the same key.
	c.log.Warn("shared load returned a different type, loading again", zap.String("key", key))
	return loadAndStore(ctx, c, key, ttl, load)
}

func loadAndStore[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	gen := c.beginLoad(key)
	defer c.endLoad(key)

	t, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.storeLoaded(key, t, ttl, gen)
	return t, nil
}

// peek is Get without touching the hit/miss counters.
func (c *Cache) peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookupLocked(key)
	return e.value, ok
}

func (c *Cache) beginLoad(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.loading[key]
	if !ok {
		p = &pendingLoad{}
		c.loading[key] = p
	}
	p.refs++
	return p.gen
}

func (c *Cache) endLoad(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.loading[key]
	if !ok {
		return
	}
	if p.refs--; p.refs <= 0 {
		delete(c.loading, key)
	}
}

// storeLoaded writes a loaded value unless key was written or removed after
// the load began.
func (c *Cache) storeLoaded(key string, value any, ttl time.Duration, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.loading[key]; !ok || p.gen != gen {
		c.log.Debug("discarding stale load", zap.String("key", key))
		return false
	}
	c.setLocked(key, value, ttl)
	return true
}
