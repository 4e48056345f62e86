package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client 限流所需的 Redis 方法，*redis.Client 直接滿足
type Client interface {
	redis.Scripter
	PTTL(ctx context.Context, key string) *redis.DurationCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// redisNewClient 用來建立 redis client，測試可覆寫此變數。
var redisNewClient = func(opt *redis.Options) Client {
	return redis.NewClient(opt)
}

// NewRedisClient 建立連線並確認 Redis 可用
func NewRedisClient(ctx context.Context, addr, password string, db int) (Client, error) {
	client := redisNewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("NewRedisClient: %w", err)
	}
	return client, nil
}

// 原子地遞增計數，第一次建立 key 時設定過期時間
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Counter 固定視窗計數器
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisCounter 以 Redis 保存計數，多個服務實例共用同一個視窗
type RedisCounter struct {
	client Client
}

func NewRedisCounter(client Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr 回傳目前計數與視窗剩餘時間
func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := incrExpireScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, 0, fmt.Errorf("RedisCounter.Incr: %w", err)
	}
	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return count, ttl, nil
}
