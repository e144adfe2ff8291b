package captcha

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"joingate/internal/verification/models"
)

const defaultKeyPrefix = "joingate:captcha:"

// consumeScript deletes the key only when the stored code matches ARGV[1],
// so a successful match is single-use even across concurrent submissions.
var consumeScript = redis.NewScript(`
  local v = redis.call('GET', KEYS[1])
  if not v then
    return 0
  end
  if v == ARGV[1] then
    redis.call('DEL', KEYS[1])
    return 1
  end
  return 0
`)

// RedisStore keeps codes in Redis with a server-side TTL, so expiry needs no
// sweeping.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: defaultKeyPrefix}
}

func (s *RedisStore) key(k models.Key) string {
	return s.prefix + k.String()
}

func (s *RedisStore) Set(ctx context.Context, key models.Key, code string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	if err := s.client.Set(ctx, s.key(key), code, ttl).Err(); err != nil {
		return fmt.Errorf("set captcha code: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, key models.Key, code string, _ time.Time) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{s.key(key)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("consume captcha code: %w", err)
	}
	return n == 1, nil
}

// RemoveExpiredAt is a no-op: Redis expires keys itself.
func (s *RedisStore) RemoveExpiredAt(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Clear removes every code under this store's prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan captcha codes: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear captcha codes: %w", err)
	}
	return nil
}
