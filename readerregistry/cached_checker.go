package readerregistry

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Lookuper is implemented by checkers that can tell a negative answer from a failed lookup.
type Lookuper interface {
	Lookup(ctx context.Context, readerID string) (bool, error)
}

// CachedChecker decorates an ActivityChecker with an expiring LRU cache.
//
// Both answers are cached for ttl. When the wrapped checker implements Lookuper, failed
// lookups answer false without being cached, so a store outage does not lock readers out for ttl.
type CachedChecker struct {
	settings
	next  lending.ActivityChecker
	cache *expirable.LRU[string, bool]
}

// NewCachedChecker wraps next with a cache of at most size readers kept for ttl.
func NewCachedChecker(next lending.ActivityChecker, size int, ttl time.Duration, options ...Option) (*CachedChecker, error) {
	if next == nil {
		return nil, ErrNilActivityChecker
	}

	if size <= 0 {
		return nil, ErrInvalidCacheSize
	}

	c := &CachedChecker{
		settings: defaultSettings(),
		next:     next,
		cache:    expirable.NewLRU[string, bool](size, nil, ttl),
	}

	if err := c.apply(options); err != nil {
		return nil, err
	}

	return c, nil
}

// IsActive implements lending.ActivityChecker.
func (c *CachedChecker) IsActive(ctx context.Context, readerID string) bool {
	if active, ok := c.cache.Get(readerID); ok {
		c.logDebug(ctx, logMsgCacheHit, logAttrReaderID, readerID)
		return active
	}

	lookuper, ok := c.next.(Lookuper)
	if !ok {
		active := c.next.IsActive(ctx, readerID)
		c.cache.Add(readerID, active)

		return active
	}

	active, err := lookuper.Lookup(ctx, readerID)
	if err != nil {
		c.reportFailure(ctx, backendCache, readerID, err)
		return false
	}

	c.cache.Add(readerID, active)

	return active
}

// Invalidate drops the cached answer for one reader, e.g. right after registering or canceling it.
func (c *CachedChecker) Invalidate(readerID string) {
	c.cache.Remove(readerID)
}

// Purge drops every cached answer.
func (c *CachedChecker) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached answers, expired ones included until they are evicted.
func (c *CachedChecker) Len() int {
	return c.cache.Len()
}

var _ lending.ActivityChecker = (*CachedChecker)(nil)
