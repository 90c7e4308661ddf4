package reservations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ticketing/internal/shared/constants"
)

const pendingMarker = "PENDING"

// IdempotencyStore remembers which reservation a client key produced.
// Claim returns the stored reservation id, pendingMarker while the first
// call is still running, or "" when the caller now owns the key.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (string, error)
	Complete(ctx context.Context, key, reservationID string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// claim and release must see the same value they change, hence Lua
var (
	claimScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
    return current
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return ""
`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)
)

type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (string, error) {
	res, err := claimScript.Run(ctx, s.client, []string{redisKey(key)}, pendingMarker, ttl.Milliseconds()).Text()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return res, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, reservationID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisKey(key), reservationID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency result: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{redisKey(key)}, pendingMarker).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return constants.KEY_RESERVATION_IDEMPOTENCY + key
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryIdempotencyStore is the single-process store used without Redis
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expires) {
		return e.value, nil
	}
	s.entries[key] = memoryEntry{value: pendingMarker, expires: now.Add(ttl)}
	return "", nil
}

func (s *MemoryIdempotencyStore) Complete(ctx context.Context, key, reservationID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{value: reservationID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && e.value == pendingMarker {
		delete(s.entries, key)
	}
	return nil
}
