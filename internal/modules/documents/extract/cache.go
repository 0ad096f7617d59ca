package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	goredis "github.com/redis/go-redis/v9"
)

// Cache stores extracted text by key. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, text string) error
}

type NopCache struct{}

func (NopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopCache) Set(context.Context, string, string) error         { return nil }

// MemoryCache is an in-process cache bounded by total text bytes.
type MemoryCache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

func NewMemoryCache(maxBytes int64, ttl time.Duration) (*MemoryCache, error) {
	if maxBytes <= 0 {
		maxBytes = 256 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	return &MemoryCache{c: c, ttl: ttl}, nil
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key, text string) error {
	m.c.SetWithTTL(key, text, int64(len(text)), m.ttl)
	// Make the entry visible to the next Get.
	m.c.Wait()
	return nil
}

func (m *MemoryCache) Close() { m.c.Close() }

// RedisCache shares extracted text across processes.
type RedisCache struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisCache(rdb goredis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "docintel:"}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, text string) error {
	return r.rdb.Set(ctx, r.prefix+key, text, r.ttl).Err()
}
