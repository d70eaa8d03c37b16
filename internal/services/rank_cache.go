package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rankCacheKey     = "sitters:overall_rank"
	rankCacheTimeout = 500 * time.Millisecond
)

// ErrRankCacheDisabled is returned by caches that hold nothing
var ErrRankCacheDisabled = errors.New("rank cache disabled")

// RankCache mirrors every sitter's overall rank so the top of the ranking
// can be read without touching the database.
type RankCache interface {
	SetRank(ctx context.Context, sitterID string, rank float64) error
	Remove(ctx context.Context, sitterID string) error
	// Reset drops every cached rank
	Reset(ctx context.Context) error
	// Top returns up to limit sitter IDs, best rank first
	Top(ctx context.Context, limit int) ([]string, error)
}

// NoopRankCache is used when no redis address is configured
type NoopRankCache struct{}

// SetRank does nothing
func (NoopRankCache) SetRank(context.Context, string, float64) error { return nil }

// Remove does nothing
func (NoopRankCache) Remove(context.Context, string) error { return nil }

// Reset does nothing
func (NoopRankCache) Reset(context.Context) error { return nil }

// Top always reports ErrRankCacheDisabled so callers read the database
func (NoopRankCache) Top(context.Context, int) ([]string, error) {
	return nil, ErrRankCacheDisabled
}

type redisZSet interface {
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	ZRevRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRankCache keeps ranks in a sorted set
type RedisRankCache struct {
	client redisZSet
	key    string
}

// NewRedisRankCache creates a rank cache backed by the given redis client
func NewRedisRankCache(client *redis.Client) *RedisRankCache {
	return &RedisRankCache{client: client, key: rankCacheKey}
}

// SetRank adds or updates a sitter's rank
func (c *RedisRankCache) SetRank(ctx context.Context, sitterID string, rank float64) error {
	ctx, cancel := context.WithTimeout(ctx, rankCacheTimeout)
	defer cancel()

	return c.client.ZAdd(ctx, c.key, redis.Z{Score: rank, Member: sitterID}).Err()
}

// Remove drops a sitter from the sorted set
func (c *RedisRankCache) Remove(ctx context.Context, sitterID string) error {
	ctx, cancel := context.WithTimeout(ctx, rankCacheTimeout)
	defer cancel()

	return c.client.ZRem(ctx, c.key, sitterID).Err()
}

// Reset deletes the sorted set
func (c *RedisRankCache) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, rankCacheTimeout)
	defer cancel()

	return c.client.Del(ctx, c.key).Err()
}

// Top returns up to limit sitter IDs, highest rank first
func (c *RedisRankCache) Top(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, rankCacheTimeout)
	defer cancel()

	return c.client.ZRevRange(ctx, c.key, 0, int64(limit-1)).Result()
}
