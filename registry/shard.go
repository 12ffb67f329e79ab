// Package registry holds the two in-memory registries at the heart of the
// server: the peer registry (connection -> room + delivery handle) and the
// room registry (room -> member -> latest state). Both are sharded so
// contention stays per-key; no single lock serializes all connections.
package registry

import "github.com/cespare/xxhash/v2"

// shardCount must stay a power of two so the mask below is a modulo.
const shardCount = 32

func shardIndex(key string) uint64 {
	return xxhash.Sum64String(key) & (shardCount - 1)
}
