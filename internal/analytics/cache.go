package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ordermgmt/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const typeCountsKey = "ordermgmt:analytics:count_by_type"

// CachedAggregator 用 Redis 缓存按类型计数，其余查询直接透传。
// Redis 不可用时回退到底层统计，不返回缓存错误。
type CachedAggregator struct {
	Reader
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewCachedAggregator rdb 为 nil 或 ttl <= 0 时不缓存
func NewCachedAggregator(inner Reader, rdb redis.UniversalClient, ttl time.Duration) *CachedAggregator {
	return &CachedAggregator{Reader: inner, rdb: rdb, ttl: ttl}
}

// CountByType 优先读取缓存
func (c *CachedAggregator) CountByType(ctx context.Context) (map[string]int64, error) {
	if c.rdb == nil || c.ttl <= 0 {
		return c.Reader.CountByType(ctx)
	}

	raw, err := c.rdb.Get(ctx, typeCountsKey).Bytes()
	switch {
	case err == nil:
		var counts map[string]int64
		if err := json.Unmarshal(raw, &counts); err == nil {
			return counts, nil
		}
		logger.Warn("统计缓存内容无效", zap.String("key", typeCountsKey))
	case !errors.Is(err, redis.Nil):
		logger.Warn("读取统计缓存失败", zap.Error(err))
		return c.Reader.CountByType(ctx)
	}

	counts, err := c.Reader.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(counts); err == nil {
		if err := c.rdb.Set(ctx, typeCountsKey, data, c.ttl).Err(); err != nil {
			logger.Warn("写入统计缓存失败", zap.Error(err))
		}
	}
	return counts, nil
}

// Invalidate 清除缓存，审计写入成功后调用
func (c *CachedAggregator) Invalidate(ctx context.Context) error {
	if c.rdb == nil || c.ttl <= 0 {
		return nil
	}
	return c.rdb.Del(ctx, typeCountsKey).Err()
}
