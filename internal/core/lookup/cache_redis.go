// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/crate/internal/platform/constants"
	"github.com/taibuivan/crate/internal/platform/tenant"
)

// NameCache holds display names keyed by (kind, tenant, id).
type NameCache interface {
	GetNames(ctx context.Context, kind Kind, tenantID tenant.ID, ids []int64) (map[int64]string, error)
	SetNames(ctx context.Context, kind Kind, tenantID tenant.ID, names map[int64]string) error
	Invalidate(ctx context.Context, kind Kind, tenantID tenant.ID, id int64) error
}

// RedisNameCache stores names as plain string keys with a TTL.
type RedisNameCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisNameCache(client redis.UniversalClient, ttl time.Duration) *RedisNameCache {
	return &RedisNameCache{client: client, ttl: ttl}
}

func nameKey(kind Kind, tenantID tenant.ID, id int64) string {
	return fmt.Sprintf("%s%s:%d:%d", constants.RedisPrefixLookupName, kind, tenantID.Int64(), id)
}

func (c *RedisNameCache) GetNames(ctx context.Context, kind Kind, tenantID tenant.ID, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = nameKey(kind, tenantID, id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: mget names: %w", err)
	}

	for i, value := range values {
		if name, ok := value.(string); ok {
			names[ids[i]] = name
		}
	}
	return names, nil
}

func (c *RedisNameCache) SetNames(ctx context.Context, kind Kind, tenantID tenant.ID, names map[int64]string) error {
	if len(names) == 0 {
		return nil
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, name := range names {
			pipe.Set(ctx, nameKey(kind, tenantID, id), name, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: set names: %w", err)
	}
	return nil
}

func (c *RedisNameCache) Invalidate(ctx context.Context, kind Kind, tenantID tenant.ID, id int64) error {
	if err := c.client.Del(ctx, nameKey(kind, tenantID, id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis: invalidate name: %w", err)
	}
	return nil
}

// NameSource answers id-to-name queries for display, consulting the cache
// first. Cache failures are logged and fall through to the repository.
type NameSource struct {
	repo   Repository
	cache  NameCache
	logger *slog.Logger
}

// NewNameSource creates a NameSource. cache may be nil.
func NewNameSource(repo Repository, cache NameCache, logger *slog.Logger) *NameSource {
	return &NameSource{repo: repo, cache: cache, logger: logger}
}

// Names returns the current names of ids. Unknown ids are absent.
func (s *NameSource) Names(ctx context.Context, kind Kind, tenantID tenant.ID, ids []int64) (map[int64]string, error) {
	if s.cache == nil || len(ids) == 0 {
		return s.repo.NamesByIDs(ctx, kind, tenantID, ids)
	}

	names, err := s.cache.GetNames(ctx, kind, tenantID, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "name_cache_read_failed", slog.String("kind", string(kind)), slog.Any("error", err))
		names = make(map[int64]string, len(ids))
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return names, nil
	}

	loaded, err := s.repo.NamesByIDs(ctx, kind, tenantID, missing)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetNames(ctx, kind, tenantID, loaded); err != nil {
		s.logger.WarnContext(ctx, "name_cache_write_failed", slog.String("kind", string(kind)), slog.Any("error", err))
	}

	for id, name := range loaded {
		names[id] = name
	}
	return names, nil
}
