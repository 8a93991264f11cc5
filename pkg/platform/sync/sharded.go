// Package sync provides concurrency primitives shared by the in-memory
// stores.
package sync

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// ShardedMutex spreads key-based locking across a fixed set of mutexes so
// unrelated keys rarely contend. The same key always maps to the same
// shard; distinct keys may share one, so a shard lock is coarser than a
// per-key lock but never wrong.
type ShardedMutex struct {
	shards [shardCount]sync.Mutex
}

// NewShardedMutex returns a ready-to-use sharded mutex.
func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

// Lock acquires the shard owning key.
func (m *ShardedMutex) Lock(key string) {
	m.shards[shardIndex(key)].Lock()
}

// Unlock releases the shard owning key.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[shardIndex(key)].Unlock()
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key)) //nolint:errcheck // fnv never fails
	return h.Sum32() % shardCount
}
