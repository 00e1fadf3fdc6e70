package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/moimene/time-control-hub-sub002/config"
)

// Client Redis 客户端封装
// 当前用于合规评估的公司级运行锁与打卡接口限流；后续可扩展缓存等场景
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 公司级评估运行锁 ──
//
// 同一公司的合规评估批次需要串行执行：违规去重与"仅升级一次"守卫
// 都存在读后写窗口，并发批次下可能产生重复行。锁 TTL 兜底异常退出。

const runLockPrefix = "compliance:run_lock:"

// AcquireRunLock 尝试获取某公司的评估运行锁
// 返回 false 表示已有批次持有锁，调用方应放弃本次执行
func (c *Client) AcquireRunLock(ctx context.Context, companyID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, runLockPrefix+companyID, "1", ttl).Result()
}

// ReleaseRunLock 释放某公司的评估运行锁
func (c *Client) ReleaseRunLock(ctx context.Context, companyID string) error {
	return c.rdb.Del(ctx, runLockPrefix+companyID).Err()
}

// ── 限流 ──

// CheckRateLimit 固定窗口限流：窗口内请求数超过 limit 时返回 false
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
