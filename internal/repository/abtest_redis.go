package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
)

const (
	abTestsKey      = "abtest:tests"
	abTestSeqKey    = "abtest:seq"
	abResultsSetFmt = "abtest:results:%d"
)

// RedisABTestRepository keeps A/B state in redis so counters survive
// restarts and are shared between instances. Counter updates are single
// MULTI/EXEC transactions of HINCRBY/HSETNX.
type RedisABTestRepository struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisABTestRepository(rdb *redis.Client) *RedisABTestRepository {
	return &RedisABTestRepository{rdb: rdb, now: time.Now}
}

func (r *RedisABTestRepository) GetTestByName(ctx context.Context, name string) (*entity.ABTest, error) {
	raw, err := r.rdb.HGet(ctx, abTestsKey, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.NotFound("A/B test", nil)
		}
		return nil, err
	}

	var test entity.ABTest
	if err := json.Unmarshal([]byte(raw), &test); err != nil {
		return nil, fmt.Errorf("decode A/B test %q: %w", name, err)
	}
	return &test, nil
}

func (r *RedisABTestRepository) GetOrCreateTest(ctx context.Context, name, variant string) (*entity.ABTest, error) {
	test, err := r.GetTestByName(ctx, name)
	if err == nil {
		return test, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	id, err := r.rdb.Incr(ctx, abTestSeqKey).Result()
	if err != nil {
		return nil, err
	}
	created := entity.ABTest{
		ID:        int(id),
		TestName:  name,
		Variants:  []string{variant},
		StartDate: r.now().UTC(),
		IsActive:  true,
	}
	payload, err := json.Marshal(created)
	if err != nil {
		return nil, err
	}

	// A concurrent creator may win; its test is the one that stands.
	ok, err := r.rdb.HSetNX(ctx, abTestsKey, name, payload).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return r.GetTestByName(ctx, name)
	}
	return &created, nil
}

func (r *RedisABTestRepository) RecordImpression(ctx context.Context, testID int, variant, sessionID string) error {
	key := resultKeyFor(testID, variant, sessionID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "variant", variant, "session", sessionID)
		pipe.HSetNX(ctx, key, "conversions", 0)
		pipe.HIncrBy(ctx, key, "impressions", 1)
		pipe.SAdd(ctx, fmt.Sprintf(abResultsSetFmt, testID), key)
		return nil
	})
	return err
}

func (r *RedisABTestRepository) RecordConversion(ctx context.Context, testID int, variant, sessionID string) error {
	key := resultKeyFor(testID, variant, sessionID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "variant", variant, "session", sessionID)
		pipe.HSetNX(ctx, key, "impressions", 1)
		pipe.HIncrBy(ctx, key, "conversions", 1)
		pipe.SAdd(ctx, fmt.Sprintf(abResultsSetFmt, testID), key)
		return nil
	})
	return err
}

func (r *RedisABTestRepository) ListResults(ctx context.Context, testID int) ([]entity.ABTestResult, error) {
	keys, err := r.rdb.SMembers(ctx, fmt.Sprintf(abResultsSetFmt, testID)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]entity.ABTestResult, 0, len(keys))
	for _, key := range keys {
		fields, err := r.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		impressions, _ := strconv.Atoi(fields["impressions"])
		conversions, _ := strconv.Atoi(fields["conversions"])
		results = append(results, entity.ABTestResult{
			TestID:      testID,
			VariantName: fields["variant"],
			SessionID:   fields["session"],
			Impressions: impressions,
			Conversions: conversions,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].VariantName != results[j].VariantName {
			return results[i].VariantName < results[j].VariantName
		}
		return results[i].SessionID < results[j].SessionID
	})
	return results, nil
}

func (r *RedisABTestRepository) GetAssignment(ctx context.Context, sessionID string) (entity.Assignment, bool, error) {
	raw, err := r.rdb.Get(ctx, assignmentKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var a entity.Assignment
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, false, fmt.Errorf("decode assignment: %w", err)
	}
	return a, true, nil
}

func (r *RedisABTestRepository) SaveAssignment(ctx context.Context, sessionID string, a entity.Assignment) (entity.Assignment, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	ok, err := r.rdb.SetNX(ctx, assignmentKey(sessionID), payload, 0).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return a, nil
	}

	stored, _, err := r.GetAssignment(ctx, sessionID)
	return stored, err
}

// resultKeyFor length-prefixes the variant so that ':' inside labels cannot
// make two keys collide.
func resultKeyFor(testID int, variant, sessionID string) string {
	return fmt.Sprintf("abtest:result:%d:%d:%s:%s", testID, len(variant), variant, sessionID)
}

func assignmentKey(sessionID string) string {
	return "abtest:assignment:" + sessionID
}
