// Package timecache provides a coarse, cheap clock for the hot path: calling
// time.Now() on every announce is a measurable cost at high request rates, so
// components that only need second-resolution timestamps (last_seen,
// observed_at) read from a value refreshed by a single background ticker
// instead.
package timecache

import (
	"sync/atomic"
	"time"
)

// Cache holds the last-observed wall-clock time, refreshed periodically.
type Cache struct {
	now atomic.Int64
}

// New creates a Cache refreshed every 500ms and primed with the current time.
func New() *Cache {
	c := &Cache{}
	c.now.Store(time.Now().UnixNano())
	go c.run(500 * time.Millisecond)
	return c
}

func (c *Cache) run(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for range t.C {
		c.now.Store(time.Now().UnixNano())
	}
}

// Now returns the cache's current approximation of time.Now().
func (c *Cache) Now() time.Time {
	return time.Unix(0, c.now.Load())
}
