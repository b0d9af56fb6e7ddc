package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RichGutz/Scraper.Neoauto/pkg/utils"
)

const blockWindowKey = "harvester:blocked_window"

// RedisStore tracks short-lived coordination state: which URLs were
// harvested recently and how many bot-detection blocks landed inside the
// current window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MarkHarvested records a successful harvest with a TTL so the same listing
// is not re-navigated within the dedup window.
func (s *RedisStore) MarkHarvested(ctx context.Context, url string, ttl time.Duration) error {
	key := fmt.Sprintf("harvested:%s", utils.HashURL(url))
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRecentlyHarvested checks whether the URL was harvested within the TTL.
func (s *RedisStore) IsRecentlyHarvested(ctx context.Context, url string) (bool, error) {
	key := fmt.Sprintf("harvested:%s", utils.HashURL(url))
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// RecordBlocked increments the pool-wide blocked counter and returns the
// count inside the current window. The key expires with the window, so the
// counter resets on its own once blocks stop arriving.
func (s *RedisStore) RecordBlocked(ctx context.Context, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, blockWindowKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		s.client.Expire(ctx, blockWindowKey, window)
	}
	return count, nil
}
