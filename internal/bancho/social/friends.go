// Package social implements the friend list and private-message
// delivery rules layered on top of sessions and the external account
// repository.
package social

import (
	"context"
	"log/slog"
	"sort"

	"banchogate/internal/account"
	"banchogate/internal/bancho/session"
)

// AddFriend records target as a friend of sess: updates the in-memory
// account, writes through the external repository, and persists the
// session. Silently rejected (logged, no error) if already friends.
func AddFriend(ctx context.Context, accounts account.Repository, sessions *session.Store, sess, target *session.Session) error {
	if _, already := sess.Account.Friends[target.Account.ID]; already {
		slog.WarnContext(ctx, "friend add of existing friend", "user", sess.Account.ID, "target", target.Account.ID)
		return nil
	}

	if sess.Account.Friends == nil {
		sess.Account.Friends = make(map[int32]struct{})
	}
	sess.Account.Friends[target.Account.ID] = struct{}{}

	if err := accounts.AddFriend(ctx, sess.Account.ID, target.Account.ID); err != nil {
		return err
	}
	return sessions.Update(ctx, sess)
}

// RemoveFriend undoes AddFriend. Silently rejected if not a friend.
func RemoveFriend(ctx context.Context, accounts account.Repository, sessions *session.Store, sess, target *session.Session) error {
	if _, ok := sess.Account.Friends[target.Account.ID]; !ok {
		slog.WarnContext(ctx, "friend remove of non-friend", "user", sess.Account.ID, "target", target.Account.ID)
		return nil
	}

	delete(sess.Account.Friends, target.Account.ID)

	if err := accounts.RemoveFriend(ctx, sess.Account.ID, target.Account.ID); err != nil {
		return err
	}
	return sessions.Update(ctx, sess)
}

// FriendIDs returns sess's friends as the sorted-for-determinism slice
// the FRIENDS_LIST packet serialises.
func FriendIDs(sess *session.Session) []int32 {
	ids := make([]int32, 0, len(sess.Account.Friends))
	for id := range sess.Account.Friends {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetFriendOnlyDMs toggles sess's friend-only-DMs flag and persists it.
func SetFriendOnlyDMs(ctx context.Context, sessions *session.Store, sess *session.Session, on bool) error {
	sess.FriendOnlyDMs = on
	return sessions.Update(ctx, sess)
}
