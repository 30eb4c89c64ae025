package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	executedKeyPrefix = "proposal:executed:"
	executedKeyTTL    = 30 * 24 * time.Hour
)

// RedisAdapter holds the one-shot execution claims that keep a proposal
// from being applied twice by concurrent requests. The marker flag on
// the stored message is the durable record; these keys only guard the
// race window, hence the TTL.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) AcquireExecution(ctx context.Context, messageID int64) (bool, error) {
	key := fmt.Sprintf("%s%d", executedKeyPrefix, messageID)
	return r.client.SetNX(ctx, key, 1, executedKeyTTL).Result()
}
