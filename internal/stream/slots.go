package stream

import (
	"context"
	"time"

	"sms-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// SlotLimiter caps concurrent streams per account across instances.
type SlotLimiter interface {
	Acquire(ctx context.Context, accountID string) (bool, error)
	Refresh(ctx context.Context, accountID string) error
	Release(ctx context.Context, accountID string) error
}

// RedisSlots keeps the per-account counter in Redis. TTL must outlive the
// heartbeat so a live stream refreshes it before it lapses.
type RedisSlots struct {
	rdb   redis.Scripter
	limit int
	ttl   time.Duration
}

func NewRedisSlots(rdb redis.Scripter, limit int, ttl time.Duration) *RedisSlots {
	return &RedisSlots{rdb: rdb, limit: limit, ttl: ttl}
}

func (s *RedisSlots) Acquire(ctx context.Context, accountID string) (bool, error) {
	return utils.AcquireSlot(ctx, s.rdb, utils.StreamSlotKey(accountID), s.limit, s.ttl)
}

func (s *RedisSlots) Refresh(ctx context.Context, accountID string) error {
	return utils.RefreshSlot(ctx, s.rdb, utils.StreamSlotKey(accountID), s.ttl)
}

func (s *RedisSlots) Release(ctx context.Context, accountID string) error {
	return utils.ReleaseSlot(ctx, s.rdb, utils.StreamSlotKey(accountID))
}
