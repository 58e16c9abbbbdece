package session

import (
	"context"
	"fmt"

	"banchogate/pkg/kv"
)

// queueKey is the per-user outbound byte-string key.
func queueKey(userID int32) string {
	return fmt.Sprintf("queues:%d", userID)
}

// EnqueueData appends bytes to user's outbound queue.
func (s *Store) EnqueueData(ctx context.Context, userID int32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := s.kv.Append(ctx, queueKey(userID), string(data)); err != nil {
		return fmt.Errorf("enqueue to user %d: %w", userID, err)
	}
	return nil
}

// DequeueData destructively drains user's outbound queue: GET then
// DELETE, guarded by the queue's own lock key so a concurrent enqueue
// between the GET and DELETE can't be silently dropped.
func (s *Store) DequeueData(ctx context.Context, userID int32) ([]byte, error) {
	lock, err := kv.Acquire(ctx, s.kv, fmt.Sprintf("locks:queues:%d", userID))
	if err != nil {
		return nil, err
	}
	defer lock.Unlock(ctx)

	v, ok, err := s.kv.Get(ctx, queueKey(userID))
	if err != nil {
		return nil, fmt.Errorf("dequeue user %d: %w", userID, err)
	}
	if !ok {
		return nil, nil
	}

	if err := s.kv.Del(ctx, queueKey(userID)); err != nil {
		return nil, fmt.Errorf("clear queue for user %d: %w", userID, err)
	}

	return []byte(v), nil
}

// EnqueueGlobal appends bytes to every currently logged-in session's
// queue.
func (s *Store) EnqueueGlobal(ctx context.Context, data []byte) error {
	sessions, err := s.FetchAll(ctx)
	if err != nil {
		return err
	}

	for _, sess := range sessions {
		if err := s.EnqueueData(ctx, sess.Account.ID, data); err != nil {
			return err
		}
	}

	return nil
}
