package cache

import (
	"context"
)

// QueryCache memoizes list-query results (matching ID sets and row counts)
// per cache group. Each group carries a monotonic stamp; any write to the
// group's tables bumps the stamp, which implicitly orphans every entry
// built under the previous stamp. Orphaned entries age out via TTL instead
// of being deleted one by one.
type QueryCache interface {
	// Stamp returns the group's current invalidation stamp.
	Stamp(ctx context.Context, group string) (uint64, error)

	// Bump advances the group's stamp, invalidating all cached queries.
	Bump(ctx context.Context, group string) error

	// GetIDs returns the cached ID set for a fingerprint, with ok=false
	// on a miss. A cache failure is reported as a miss, never an error.
	GetIDs(ctx context.Context, group string, stamp uint64, fingerprint string) ([]uint, bool)

	SetIDs(ctx context.Context, group string, stamp uint64, fingerprint string, ids []uint)

	// GetCount returns the cached row count for a fingerprint.
	GetCount(ctx context.Context, group string, stamp uint64, fingerprint string) (int64, bool)

	SetCount(ctx context.Context, group string, stamp uint64, fingerprint string, count int64)
}

// Cache group names, one per aggregate whose list queries are memoized.
const (
	GroupKeys        = "license:keys"
	GroupActivations = "license:activations"
	GroupGenerators  = "license:generators"
)
