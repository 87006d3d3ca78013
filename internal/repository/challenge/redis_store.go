package challenge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

const redisKeyPrefix = "otp:"

// verifyScript returns 0 verified, 1 not found, 2 expired, 3 exhausted, 4 mismatch.
// KEYS[1] challenge hash, ARGV[1] submitted code hash, ARGV[2] now in unix ms.
var verifyScript = redis.NewScript(`
local f = redis.call('HMGET', KEYS[1], 'h', 'a', 'm', 'e')
if not f[1] then
  return 1
end
if tonumber(ARGV[2]) >= tonumber(f[4]) then
  redis.call('DEL', KEYS[1])
  return 2
end
if f[1] == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 0
end
local attempts = redis.call('HINCRBY', KEYS[1], 'a', 1)
if attempts >= tonumber(f[3]) then
  redis.call('DEL', KEYS[1])
  return 3
end
return 4
`)

// deleteIfHashScript deletes KEYS[1] when its code hash equals ARGV[1].
var deleteIfHashScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'h') == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

var scriptOutcomes = map[int]Outcome{
	0: OutcomeVerified,
	1: OutcomeNotFound,
	2: OutcomeExpired,
	3: OutcomeExhausted,
	4: OutcomeMismatch,
}

// RedisStore keeps each challenge in a redis hash. Verification runs as a Lua
// script so the compare and the attempt update happen in one server-side step.
type RedisStore struct {
	client    redis.UniversalClient
	retention time.Duration
}

// NewRedisStore keeps expired challenges for retention before redis evicts them,
// so late verifications still report "expired".
func NewRedisStore(client redis.UniversalClient, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func redisKey(email string, purpose domain.OTPPurpose) string {
	return redisKeyPrefix + storeKey(email, purpose)
}

func (s *RedisStore) Put(ctx context.Context, c *domain.OTPChallenge) error {
	if err := validate(c); err != nil {
		return err
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	ttl := c.ExpiresAt.Sub(created) + s.retention
	if ttl <= 0 {
		ttl = s.retention + time.Second
	}

	key := redisKey(c.Email, c.Purpose)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"h", c.CodeHash,
			"a", 0,
			"m", c.MaxAttempts,
			"e", c.ExpiresAt.UnixMilli(),
			"c", created.UnixMilli(),
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Verify(ctx context.Context, email string, purpose domain.OTPPurpose, codeHash string, now time.Time) (Outcome, error) {
	code, err := verifyScript.Run(ctx, s.client, []string{redisKey(email, purpose)}, codeHash, now.UnixMilli()).Int()
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("redis verify challenge: %w", err)
	}
	outcome, ok := scriptOutcomes[code]
	if !ok {
		return OutcomeNotFound, fmt.Errorf("redis verify challenge: unexpected result %d", code)
	}
	return outcome, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	if err := s.client.Del(ctx, redisKey(email, purpose)).Err(); err != nil {
		return fmt.Errorf("redis delete challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteIfHash(ctx context.Context, email string, purpose domain.OTPPurpose, codeHash string) error {
	if err := deleteIfHashScript.Run(ctx, s.client, []string{redisKey(email, purpose)}, codeHash).Err(); err != nil {
		return fmt.Errorf("redis delete challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var st Stats
	nowMs := now.UnixMilli()
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.HGet(ctx, iter.Val(), "e").Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return st, fmt.Errorf("redis challenge stats: %w", err)
		}
		expires, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		st.Total++
		if nowMs >= expires {
			st.Expired++
		} else {
			st.Active++
		}
	}
	if err := iter.Err(); err != nil {
		return st, fmt.Errorf("redis challenge stats: %w", err)
	}
	return st, nil
}

// PurgeExpired is a no-op: keys carry their own TTL.
func (s *RedisStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}
