// Package cache redis 缓存
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blues/fundmagic/internal/config"
	"github.com/redis/go-redis/v9"
)

const categoryCountsKey = "categories:counts"

// NewClient 连接 redis，地址为空时返回 nil
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// CategoryCache 分类项目数缓存
type CategoryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCategoryCache 创建分类缓存
func NewCategoryCache(rdb *redis.Client, ttl time.Duration) *CategoryCache {
	return &CategoryCache{rdb: rdb, ttl: ttl}
}

// GetCounts 读取缓存，未命中时 ok 为 false
func (c *CategoryCache) GetCounts(ctx context.Context) (map[string]int64, bool, error) {
	raw, err := c.rdb.Get(ctx, categoryCountsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var counts map[string]int64
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, false, fmt.Errorf("decode category counts: %w", err)
	}
	return counts, true, nil
}

// SetCounts 写入缓存
func (c *CategoryCache) SetCounts(ctx context.Context, counts map[string]int64) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, categoryCountsKey, raw, c.ttl).Err()
}

// Invalidate 删除缓存
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, categoryCountsKey).Err()
}
