package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache stores serialized quotes for a short time.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type MemoryCache struct {
	cache *cache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{cache: cache.New(defaultTTL, 2*defaultTTL)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	if x, found := m.cache.Get(key); found {
		return x.([]byte), true
	}
	return nil, false
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.cache.Set(key, value, ttl)
}

// RedisCache shares quotes between replicas. Redis errors degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "marketdata:"}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

// CachedProvider serves repeated lookups from Cache.
type CachedProvider struct {
	next  Provider
	cache Cache
	ttl   time.Duration
}

var _ Provider = &CachedProvider{}

func NewCachedProvider(next Provider, c Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: c, ttl: ttl}
}

func (p *CachedProvider) LatestClose(ctx context.Context, ticker, period, interval string) (*Close, error) {
	key := fmt.Sprintf("close:%s:%s:%s", strings.ToUpper(ticker), period, interval)
	var out Close
	if p.load(ctx, key, &out) {
		return &out, nil
	}
	res, err := p.next.LatestClose(ctx, ticker, period, interval)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, res)
	return res, nil
}

func (p *CachedProvider) Valuation(ctx context.Context, ticker string) (*Valuation, error) {
	key := "valuation:" + strings.ToUpper(ticker)
	var out Valuation
	if p.load(ctx, key, &out) {
		return &out, nil
	}
	res, err := p.next.Valuation(ctx, ticker)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, res)
	return res, nil
}

func (p *CachedProvider) load(ctx context.Context, key string, out any) bool {
	raw, ok := p.cache.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (p *CachedProvider) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	p.cache.Set(ctx, key, raw, p.ttl)
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

