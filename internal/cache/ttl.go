package cache

import (
	"sync"
	"time"
)

// TTL is a small in-memory cache with expiry. Keys are strings, values are []byte (JSON of a response).
// A zero or negative ttl disables it: Get always misses and Set is a no-op.
//
// gen goes up on every Delete. A reader takes Generation before loading from the
// database and fills with SetIfUnchanged, so a value read before a write never lands
// after that write's Delete.
type TTL struct {
	mu    sync.RWMutex
	items map[string]item
	gen   uint64
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type item struct {
	data []byte
	exp  time.Time
}

// New returns a cache whose entries expire after ttl. Close stops the janitor goroutine.
func New(ttl time.Duration) *TTL {
	c := &TTL{items: make(map[string]item), ttl: ttl, now: time.Now, stop: make(chan struct{})}
	if ttl > 0 {
		go c.cleanup()
	}
	return c
}

func (c *TTL) cleanup() {
	tick := time.NewTicker(c.ttl / 2)
	defer tick.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-tick.C:
			c.mu.Lock()
			now := c.now()
			for k, v := range c.items {
				if v.exp.Before(now) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Get returns the value for key if present and not expired. Otherwise nil.
func (c *TTL) Get(key string) []byte {
	if c == nil || c.ttl <= 0 {
		return nil
	}
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || it.exp.Before(c.now()) {
		return nil
	}
	return it.data
}

// Generation is the current invalidation counter.
func (c *TTL) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// SetIfUnchanged stores value only if no Delete happened since gen was read.
func (c *TTL) SetIfUnchanged(key string, value []byte, gen uint64) bool {
	if c == nil || c.ttl <= 0 {
		return false
	}
	exp := c.now().Add(c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.items[key] = item{data: value, exp: exp}
	return true
}

func (c *TTL) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.gen++
	c.mu.Unlock()
}

func (c *TTL) Close() {
	c.once.Do(func() { close(c.stop) })
}
