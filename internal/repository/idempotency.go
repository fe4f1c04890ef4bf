package repository

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const IdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers submission keys for IdempotencyTTL.
type IdempotencyStore interface {
	// Claim returns false when the key was already claimed.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets a key so a failed submission can be retried.
	Release(ctx context.Context, key string) error
}

type MemoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{keys: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryIdempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, ok := s.keys[key]; ok && now.Before(expires) {
		return false, nil
	}
	s.keys[key] = now.Add(IdempotencyTTL)
	return true, nil
}

func (s *MemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, key)
	return nil
}

type RedisIdempotencyStore struct {
	rdb *redis.Client
}

func NewRedisIdempotencyStore(rdb *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb}
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, idempotencyKey(key), "exists", IdempotencyTTL).Result()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, idempotencyKey(key)).Err()
}

func idempotencyKey(key string) string {
	return "idempotent-key:" + key
}
