package gbfs

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// feedCache keeps fetched payload bodies keyed by feed URL. A nil cache stores nothing.
type feedCache struct {
	store      *cache.Cache
	defaultTTL time.Duration
}

func newFeedCache(defaultTTL time.Duration) *feedCache {
	if defaultTTL <= 0 {
		return nil
	}
	// No janitor goroutine: expired entries are skipped by Get and
	// overwritten on the next fetch of the same URL.
	return &feedCache{
		store:      cache.New(defaultTTL, 0),
		defaultTTL: defaultTTL,
	}
}

func (c *feedCache) get(url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.store.Get(url)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

// set stores body for the payload's own ttl when it declares one
func (c *feedCache) set(url string, body []byte, ttlSeconds int) {
	if c == nil {
		return
	}
	ttl := c.defaultTTL
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	c.store.Set(url, body, ttl)
}
