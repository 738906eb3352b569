package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
)

// Cache is a TTL cache whose loads are coalesced per key.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, key string)
	// Refresh always loads, sharing a single in-flight load between concurrent callers.
	Refresh(ctx context.Context, key string, ttl time.Duration, loader func() (any, error)) (any, error)
}

var _ Cache = (*RistrettoCache)(nil)

type RistrettoCache struct {
	store       *ristretto.Cache
	singleGroup singleflight.Group
}

type CacheConfig struct {
	// MaxItems bounds the number of entries; every entry costs 1.
	MaxItems int64
	// BufferItems is the number of keys per ristretto Get buffer.
	BufferItems int64
}

func DefaultConfig() *CacheConfig {
	return &CacheConfig{
		MaxItems:    1 << 10,
		BufferItems: 64,
	}
}

func New(config *CacheConfig) (*RistrettoCache, error) {
	if config == nil {
		config = DefaultConfig()
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.MaxItems * 10,
		MaxCost:     config.MaxItems,
		BufferItems: config.BufferItems,
		// Entries are counted, not sized.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoCache{store: store}, nil
}

func (c *RistrettoCache) Get(ctx context.Context, key string) (any, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	return c.store.Get(key)
}

// Set stores value and waits for ristretto's write buffer, so a Get issued
// right after Set observes the value. A zero ttl never expires.
func (c *RistrettoCache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	ok := c.store.SetWithTTL(key, value, 1, ttl)
	c.store.Wait()
	return ok
}

func (c *RistrettoCache) Delete(ctx context.Context, key string) {
	if ctx.Err() != nil {
		return
	}
	c.store.Del(key)
}

func (c *RistrettoCache) Refresh(ctx context.Context, key string, ttl time.Duration, loader func() (any, error)) (any, error) {
	value, err, _ := c.singleGroup.Do(key, func() (any, error) {
		return c.load(ctx, key, ttl, loader)
	})

	return value, err
}

func (c *RistrettoCache) load(ctx context.Context, key string, ttl time.Duration, loader func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, err := loader()
	if err != nil {
		return nil, err
	}

	c.Set(ctx, key, value, ttl)
	return value, nil
}

func (c *RistrettoCache) Close() {
	c.store.Close()
}
