package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// defaultLockTTL bounds how long a lock can be held before it expires
// on its own, guarding against a crashed holder wedging a key forever.
const defaultLockTTL = 10 * time.Second

// Lock is a scoped SET-NX/expire/DEL distributed lock, recovered from
// the upstream RedisLock helper: acquire blocks (with backoff) until
// the key is free, and Unlock only clears the key if this holder still
// owns it.
type Lock struct {
	store Store
	key   string
	token string
}

// Acquire blocks until key is free or ctx is done, then holds it.
// Callers release with defer lock.Unlock(ctx).
func Acquire(ctx context.Context, store Store, key string) (*Lock, error) {
	token := uuid.NewString()
	backoff := 5 * time.Millisecond

	for {
		ok, err := store.SetNX(ctx, key, token, defaultLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return &Lock{store: store, key: key, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-time.After(backoff):
		}

		if backoff < 100*time.Millisecond {
			backoff *= 2
		}
	}
}

// Unlock releases the lock if it is still held by this token.
func (l *Lock) Unlock(ctx context.Context) {
	v, ok, err := l.store.Get(ctx, l.key)
	if err != nil || !ok || v != l.token {
		return
	}
	_ = l.store.Del(ctx, l.key)
}
