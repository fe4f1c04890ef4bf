package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
)

type NewsletterRepository interface {
	// Subscribe adds email and reports whether it was newly added.
	Subscribe(ctx context.Context, email string) (bool, error)
}

type MemoryNewsletterRepository struct {
	mu     sync.Mutex
	emails map[string]struct{}
}

func NewMemoryNewsletterRepository() *MemoryNewsletterRepository {
	return &MemoryNewsletterRepository{emails: make(map[string]struct{})}
}

func (r *MemoryNewsletterRepository) Subscribe(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(email)
	if _, ok := r.emails[email]; ok {
		return false, nil
	}
	r.emails[email] = struct{}{}
	return true, nil
}

type RedisNewsletterRepository struct {
	rdb *redis.Client
}

func NewRedisNewsletterRepository(rdb *redis.Client) *RedisNewsletterRepository {
	return &RedisNewsletterRepository{rdb: rdb}
}

func (r *RedisNewsletterRepository) Subscribe(ctx context.Context, email string) (bool, error) {
	added, err := r.rdb.SAdd(ctx, "newsletter:subscribers", strings.ToLower(email)).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}
