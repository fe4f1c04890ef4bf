package sharding

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

type ShardRouter struct {
	ShardCount int // Number of shards
}

func NewShardRouter(shardCount int) *ShardRouter {
	if shardCount <= 0 {
		shardCount = 1
	}
	return &ShardRouter{ShardCount: shardCount}
}

func (r *ShardRouter) GetShard(id int) int {
	shardIndex := id % r.ShardCount
	if shardIndex < 0 {
		shardIndex += r.ShardCount
	}
	return shardIndex
}

// GetShardForKey routes an opaque string key such as a session id.
func (r *ShardRouter) GetShardForKey(key string) int {
	return int(xxhash.Sum64String(key) % uint64(r.ShardCount))
}

// KeyedLocker serializes work per key using a fixed set of striped mutexes.
type KeyedLocker struct {
	router *ShardRouter
	locks  []sync.Mutex
}

func NewKeyedLocker(router *ShardRouter) *KeyedLocker {
	return &KeyedLocker{
		router: router,
		locks:  make([]sync.Mutex, router.ShardCount),
	}
}

// LockIDs locks the stripes of every id and returns the matching unlock.
// Stripes are taken in ascending order so overlapping callers cannot deadlock.
func (l *KeyedLocker) LockIDs(ids ...int) func() {
	shards := make([]int, 0, len(ids))
	for _, id := range ids {
		shards = append(shards, l.router.GetShard(id))
	}
	return l.lockShards(shards)
}

// LockKey locks the stripe of a single string key.
func (l *KeyedLocker) LockKey(key string) func() {
	return l.lockShards([]int{l.router.GetShardForKey(key)})
}

func (l *KeyedLocker) lockShards(shards []int) func() {
	sort.Ints(shards)
	uniq := shards[:0]
	for i, s := range shards {
		if i == 0 || s != shards[i-1] {
			uniq = append(uniq, s)
		}
	}
	for _, s := range uniq {
		l.locks[s].Lock()
	}
	return func() {
		for i := len(uniq) - 1; i >= 0; i-- {
			l.locks[uniq[i]].Unlock()
		}
	}
}
