package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

// Get returns nil, nil on a cache miss.
func (r *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCache) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// cachedService caches single-product reads. Cache failures are logged and
// the call falls through to the wrapped service.
type cachedService struct {
	next     Service
	cache    Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewCachedService(next Service, cache Cache, ttl time.Duration, log *zap.Logger) Service {
	return &cachedService{next: next, cache: cache, cacheTTL: ttl, log: log}
}

func productKey(idOrSlug string) string {
	return "catalog:product:" + idOrSlug
}

func (s *cachedService) List(ctx context.Context, f ListFilter) ([]Product, error) {
	return s.next.List(ctx, f)
}

func (s *cachedService) Get(ctx context.Context, idOrSlug string) (Product, error) {
	key := productKey(idOrSlug)

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, s.log, "catalog cache read failed", zap.String("key", key), zap.Error(err))
	}
	if len(data) > 0 {
		var p Product
		if err := json.Unmarshal(data, &p); err == nil {
			return p, nil
		}
	}

	p, err := s.next.Get(ctx, idOrSlug)
	if err != nil {
		return Product{}, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			logger.Warn(ctx, s.log, "catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return p, nil
}

func (s *cachedService) Create(ctx context.Context, in NewProduct) (Product, error) {
	return s.next.Create(ctx, in)
}

func (s *cachedService) Update(ctx context.Context, id string, patch Patch) (Product, error) {
	var oldSlug string
	if before, err := s.next.Get(ctx, id); err == nil {
		oldSlug = before.Slug
	}

	p, err := s.next.Update(ctx, id, patch)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx, id, oldSlug, p.Slug)
	return p, nil
}

func (s *cachedService) Delete(ctx context.Context, id string) error {
	var slug string
	if before, err := s.next.Get(ctx, id); err == nil {
		slug = before.Slug
	}

	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id, slug)
	return nil
}

func (s *cachedService) invalidate(ctx context.Context, idsOrSlugs ...string) {
	keys := make([]string, 0, len(idsOrSlugs))
	for _, v := range idsOrSlugs {
		if v != "" {
			keys = append(keys, productKey(v))
		}
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		logger.Warn(ctx, s.log, "catalog cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
