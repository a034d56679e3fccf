// Package cache holds Redis-backed helpers. Redis is optional; nothing in
// RMS depends on it for correctness.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultSequencePrefix = "rms:rma_seq:"

	// A monthly counter outlives its month by a comfortable margin
	defaultSequenceTTL = 62 * 24 * time.Hour
)

// counterClient is the subset of the Redis API the sequence needs
type counterClient interface {
	redis.Scripter
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// raiseScript sets KEYS[1] to ARGV[1] unless it already holds at least that
// much, refreshing the TTL (ARGV[2], ms) when it writes. Returns the value
// the counter holds afterwards.
var raiseScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if floor > current then
	redis.call('SET', KEYS[1], floor, 'PX', ARGV[2])
	return floor
end
return current
`)

// RedisNumberSequence allocates monthly RMA sequence numbers with INCR.
// A missing counter is seeded with SETNX from the caller's floor, so numbers
// continue from rows created while Redis was unavailable.
type RedisNumberSequence struct {
	client    counterClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisNumberSequence creates a sequence on client
func NewRedisNumberSequence(client *redis.Client) *RedisNumberSequence {
	return newRedisNumberSequence(client)
}

func newRedisNumberSequence(client counterClient) *RedisNumberSequence {
	return &RedisNumberSequence{
		client:    client,
		keyPrefix: defaultSequencePrefix,
		ttl:       defaultSequenceTTL,
	}
}

func (s *RedisNumberSequence) key(period string) string {
	return s.keyPrefix + period
}

// Next returns the next sequence number for period (YYYYMM)
func (s *RedisNumberSequence) Next(ctx context.Context, period string, floor func(ctx context.Context) (int64, error)) (int64, error) {
	key := s.key(period)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check rma sequence: %w", err)
	}
	if exists == 0 {
		seed, err := floor(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to compute rma sequence floor: %w", err)
		}
		// Losing the SETNX race is fine; the winner seeded the same floor
		if err := s.client.SetNX(ctx, key, seed, s.ttl).Err(); err != nil {
			return 0, fmt.Errorf("failed to seed rma sequence: %w", err)
		}
	}

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rma sequence: %w", err)
	}
	return n, nil
}

// Raise lifts the counter for period to at least floor. It repairs a counter
// that fell behind while numbers were allocated by count.
func (s *RedisNumberSequence) Raise(ctx context.Context, period string, floor int64) (int64, error) {
	n, err := raiseScript.Run(ctx, s.client, []string{s.key(period)}, floor, s.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to raise rma sequence: %w", err)
	}
	return n, nil
}
