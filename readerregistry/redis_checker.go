package readerregistry

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const activeValue = "1"

// RedisChecker answers reader activity from one redis key per reader.
// The key <prefix><readerID> holding "1" means active; a missing key or any other value means inactive.
type RedisChecker struct {
	settings
	client redis.UniversalClient
}

// NewRedisChecker creates a RedisChecker. Client ownership stays with the caller.
func NewRedisChecker(client redis.UniversalClient, options ...Option) (*RedisChecker, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}

	c := &RedisChecker{settings: defaultSettings(), client: client}

	if err := c.apply(options); err != nil {
		return nil, err
	}

	return c, nil
}

// IsActive implements lending.ActivityChecker. Lookup failures answer false.
func (c *RedisChecker) IsActive(ctx context.Context, readerID string) bool {
	active, err := c.Lookup(ctx, readerID)
	if err != nil {
		c.reportFailure(ctx, backendRedis, readerID, err)
		return false
	}

	return active
}

// Lookup reports whether the reader's key holds the active marker.
func (c *RedisChecker) Lookup(ctx context.Context, readerID string) (bool, error) {
	var active bool

	err := c.retryLookup(ctx, backendRedis, func(ctx context.Context) error {
		var lookupErr error
		active, lookupErr = c.lookupOnce(ctx, readerID)

		return lookupErr
	})

	return active, err
}

func (c *RedisChecker) lookupOnce(ctx context.Context, readerID string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	value, err := c.client.Get(ctx, c.key(readerID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("get reader key: %w", err)
	}

	return value == activeValue, nil
}

// Register marks the reader as active.
func (c *RedisChecker) Register(ctx context.Context, readerID string) error {
	if readerID == "" {
		return ErrEmptyReaderID
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.Set(ctx, c.key(readerID), activeValue, 0).Err(); err != nil {
		return fmt.Errorf("set reader key: %w", err)
	}

	return nil
}

// Cancel removes the reader's key.
func (c *RedisChecker) Cancel(ctx context.Context, readerID string) error {
	if readerID == "" {
		return ErrEmptyReaderID
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.Del(ctx, c.key(readerID)).Err(); err != nil {
		return fmt.Errorf("delete reader key: %w", err)
	}

	return nil
}

func (c *RedisChecker) key(readerID string) string {
	return c.keyPrefix + readerID
}

var _ lending.ActivityChecker = (*RedisChecker)(nil)
