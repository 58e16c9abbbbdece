// Package kv provides the shared key/value store the bancho core uses
// to persist sessions, channels, matches and outbound queues, plus the
// scoped distributed lock that guards every mutation of shared state.
package kv

import (
	"context"
	"time"
)

// Store is the subset of Redis-shaped operations the bancho core
// issues against the shared key/value store: hash fields for the
// session/channel/match tables, a byte-append/get/del triad for
// per-session outbound queues, and a list for the global session-id
// index.
type Store interface {
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key, field string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	Get(ctx context.Context, key string) (string, bool, error)
	Append(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error

	LPush(ctx context.Context, key string, value string) error
	LRem(ctx context.Context, key string, value string) error
	LRange(ctx context.Context, key string) ([]string, error)

	// SetNX sets key to value with ttl only if key does not already
	// exist, returning whether it acquired.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// ZRevRank returns the zero-based rank of member in the sorted set
	// key ordered from highest to lowest score, or found=false if the
	// set or member is absent.
	ZRevRank(ctx context.Context, key, member string) (rank int64, found bool, err error)
}
