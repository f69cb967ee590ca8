package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	rankingKeyPrefix     = "adtrack:ranking:"
	// outside the prefix so Invalidate's SCAN never deletes it
	rankingGenerationKey = "adtrack:ranking-gen"
)

// implements domain.RankingCache on Redis
type RedisRankingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewRedisRankingCache(client *redis.Client, ttl time.Duration, logger *logger.Logger) *RedisRankingCache {
	return &RedisRankingCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisRankingCache) Get(ctx context.Context, key string) (*domain.RankingResult, bool, error) {
	raw, err := c.client.Get(ctx, rankingKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET: %w", err)
	}

	var result domain.RankingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached ranking: %w", err)
	}
	return &result, true, nil
}

func (c *RedisRankingCache) Set(ctx context.Context, key string, result *domain.RankingResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode ranking: %w", err)
	}
	if err := c.client.Set(ctx, rankingKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	return nil
}

// Generation returns the current cache generation, 0 before the first Invalidate.
func (c *RedisRankingCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, rankingGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis GET generation: %w", err)
	}
	return gen, nil
}

// Invalidate bumps the generation, then drops every cached ranking using SCAN + DEL.
func (c *RedisRankingCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, rankingGenerationKey).Result()
	if err != nil {
		return fmt.Errorf("redis INCR generation: %w", err)
	}

	pattern := rankingKeyPrefix + "*"
	deleted := 0

	iter := c.client.Scan(ctx, 0, pattern, 200).Iterator()
	pipe := c.client.Pipeline()
	batch := 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		batch++
		deleted++

		if batch >= 500 {
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("redis invalidate pipeline exec: %w", err)
			}
			pipe = c.client.Pipeline()
			batch = 0
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis SCAN %s: %w", pattern, err)
	}

	if batch > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis invalidate pipeline exec: %w", err)
		}
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"deleted":    deleted,
		"generation": gen,
	}).Info("Invalidated ranking cache")
	return nil
}

// NoopRankingCache never stores anything; used when Redis is not configured.
type NoopRankingCache struct{}

func (NoopRankingCache) Get(context.Context, string) (*domain.RankingResult, bool, error) {
	return nil, false, nil
}

func (NoopRankingCache) Set(context.Context, string, *domain.RankingResult) error { return nil }

func (NoopRankingCache) Generation(context.Context) (int64, error) { return 0, nil }

func (NoopRankingCache) Invalidate(context.Context) error { return nil }
