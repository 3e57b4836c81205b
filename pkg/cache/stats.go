// Package cache 提供基于Redis的统计结果缓存。
// Redis未配置或不可用时所有操作退化为未命中，不影响主流程。
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
)

const (
	statsKey = "miciudadsv:reports:stats"
	statsTTL = 60 * time.Second
)

// StatsCache 报告统计缓存
type StatsCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewStatsCache 创建统计缓存。redisURL为空时返回nil，
// nil接收者上的所有方法都是安全的未命中。
func NewStatsCache(redisURL string, logger zerolog.Logger) *StatsCache {
	if redisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid REDIS_URL, stats cache disabled")
		return nil
	}

	return &StatsCache{
		client: redis.NewClient(opts),
		logger: logger,
	}
}

// Get 读取缓存的统计结果
func (c *StatsCache) Get(ctx context.Context) (*models.ReportStats, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, statsKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("stats cache read failed")
		return nil, false
	}

	var stats models.ReportStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false
	}

	return &stats, true
}

// Set 写入统计结果，60秒过期
func (c *StatsCache) Set(ctx context.Context, stats *models.ReportStats) {
	if c == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, statsKey, data, statsTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("stats cache write failed")
	}
}

// Close 关闭Redis连接
func (c *StatsCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
