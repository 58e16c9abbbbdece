// Package fanout implements the primitives that enqueue bytes to sets
// of sessions derived from channels, matches, and spectator groups.
// It depends only on the session store and a list of target ids, so
// channel/match/spectate can each compute their own member-id sets and
// still share one enqueue implementation.
package fanout

import (
	"context"
	"fmt"

	"banchogate/internal/bancho/session"
)

// ToSession enqueues data to one session by account id.
func ToSession(ctx context.Context, sessions *session.Store, id int32, data []byte) error {
	if err := sessions.EnqueueData(ctx, id, data); err != nil {
		return fmt.Errorf("fanout to session %d: %w", id, err)
	}
	return nil
}

// ToSessions enqueues data to every id in ids, skipping exclude if set.
func ToSessions(ctx context.Context, sessions *session.Store, ids []int32, data []byte, exclude *int32) error {
	for _, id := range ids {
		if exclude != nil && id == *exclude {
			continue
		}
		if err := ToSession(ctx, sessions, id, data); err != nil {
			return err
		}
	}
	return nil
}

// ToGlobal enqueues data to every currently logged-in session, except
// any id present in immune.
func ToGlobal(ctx context.Context, sessions *session.Store, data []byte, immune map[int32]struct{}) error {
	all, err := sessions.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fanout to global: %w", err)
	}

	for _, sess := range all {
		if _, skip := immune[sess.Account.ID]; skip {
			continue
		}
		if err := ToSession(ctx, sessions, sess.Account.ID, data); err != nil {
			return err
		}
	}

	return nil
}
