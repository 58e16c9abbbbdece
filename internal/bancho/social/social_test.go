package social

import (
	"context"
	"testing"

	"banchogate/internal/account"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
	"banchogate/pkg/kv"
)

type fakeAccounts struct {
	byID map[int32]account.Account
}

func (f *fakeAccounts) FetchByID(_ context.Context, id int32) (account.Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}
func (f *fakeAccounts) FetchByName(_ context.Context, name string) (account.Account, error) {
	return account.Account{}, account.ErrNotFound
}
func (f *fakeAccounts) UpdatePrivileges(_ context.Context, a account.Account) error { return nil }

func (f *fakeAccounts) AddFriend(_ context.Context, userID, friendID int32) error {
	a := f.byID[userID]
	if a.Friends == nil {
		a.Friends = make(map[int32]struct{})
	}
	a.Friends[friendID] = struct{}{}
	f.byID[userID] = a
	return nil
}

func (f *fakeAccounts) RemoveFriend(_ context.Context, userID, friendID int32) error {
	a := f.byID[userID]
	delete(a.Friends, friendID)
	f.byID[userID] = a
	return nil
}

func newFixture(t *testing.T) (*session.Store, *fakeAccounts, *session.Session, *session.Session) {
	t.Helper()
	store := kv.NewMemoryStore()
	accounts := &fakeAccounts{byID: map[int32]account.Account{
		1: {ID: 1, Name: "Alice", Privileges: account.PrivUserPublic | account.PrivUserNormal},
		2: {ID: 2, Name: "Bob", Privileges: account.PrivUserPublic | account.PrivUserNormal},
	}}

	sessions := session.NewStore(store, accounts)
	alice, err := sessions.Create(context.Background(), accounts.byID[1], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := sessions.Create(context.Background(), accounts.byID[2], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	return sessions, accounts, alice, bob
}

func TestAddFriendWritesThroughAndIsIdempotentSafe(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, alice, bob := newFixture(t)

	if err := AddFriend(ctx, accounts, sessions, alice, bob); err != nil {
		t.Fatalf("add friend: %v", err)
	}
	if _, ok := alice.Account.Friends[bob.Account.ID]; !ok {
		t.Fatal("expected bob recorded as alice's friend")
	}
	if _, ok := accounts.byID[1].Friends[2]; !ok {
		t.Fatal("expected write-through to the account repository")
	}

	// Repeating the add is a silent no-op, not an error.
	if err := AddFriend(ctx, accounts, sessions, alice, bob); err != nil {
		t.Fatalf("repeat add friend: %v", err)
	}
}

func TestRemoveFriendRequiresExistingFriendship(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, alice, bob := newFixture(t)

	if err := RemoveFriend(ctx, accounts, sessions, alice, bob); err != nil {
		t.Fatalf("remove non-friend should be a silent no-op: %v", err)
	}

	if err := AddFriend(ctx, accounts, sessions, alice, bob); err != nil {
		t.Fatalf("add friend: %v", err)
	}
	if err := RemoveFriend(ctx, accounts, sessions, alice, bob); err != nil {
		t.Fatalf("remove friend: %v", err)
	}
	if _, ok := alice.Account.Friends[bob.Account.ID]; ok {
		t.Fatal("expected bob removed from alice's friends")
	}
}

func TestSendPrivateMessageDelivers(t *testing.T) {
	ctx := context.Background()
	sessions, _, alice, bob := newFixture(t)

	if err := SendPrivateMessage(ctx, sessions, alice, "Bob", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}

	data, err := sessions.DequeueData(ctx, bob.Account.ID)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected bob to receive the message packet")
	}
}

func TestSendPrivateMessageToOfflineRecipientDrops(t *testing.T) {
	ctx := context.Background()
	sessions, _, alice, _ := newFixture(t)

	if err := SendPrivateMessage(ctx, sessions, alice, "Nobody", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}

	data, err := sessions.DequeueData(ctx, alice.Account.ID)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(data) != 0 {
		t.Fatal("expected no compensating packet for an offline recipient")
	}
}

func TestSendPrivateMessageBlockedByFriendOnlyDMs(t *testing.T) {
	ctx := context.Background()
	sessions, _, alice, bob := newFixture(t)

	bob.FriendOnlyDMs = true
	if err := sessions.Update(ctx, bob); err != nil {
		t.Fatalf("update bob: %v", err)
	}

	if err := SendPrivateMessage(ctx, sessions, alice, "Bob", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}

	aliceData, err := sessions.DequeueData(ctx, alice.Account.ID)
	if err != nil {
		t.Fatalf("dequeue alice: %v", err)
	}
	if len(aliceData) == 0 {
		t.Fatal("expected USER_DM_BLOCKED enqueued to alice")
	}

	bobData, err := sessions.DequeueData(ctx, bob.Account.ID)
	if err != nil {
		t.Fatalf("dequeue bob: %v", err)
	}
	if len(bobData) != 0 {
		t.Fatal("expected bob to never receive a blocked message")
	}
}

func TestSendPrivateMessageIgnoredRecipientAcceptsAndDrops(t *testing.T) {
	ctx := context.Background()
	sessions, _, alice, _ := newFixture(t)

	if err := SendPrivateMessage(ctx, sessions, alice, "#highlight", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}

	data, err := sessions.DequeueData(ctx, alice.Account.ID)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(data) != 0 {
		t.Fatal("expected no packet for an ignored pseudo-recipient")
	}
}

func TestFriendIDsReflectsAccountFriends(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, alice, bob := newFixture(t)

	if err := AddFriend(ctx, accounts, sessions, alice, bob); err != nil {
		t.Fatalf("add friend: %v", err)
	}

	ids := FriendIDs(alice)
	if len(ids) != 1 || ids[0] != bob.Account.ID {
		t.Fatalf("expected [%d], got %v", bob.Account.ID, ids)
	}

	w := wire.NewWriter()
	w.WriteI32List(ids)
	if len(w.Bytes()) == 0 {
		t.Fatal("expected FRIENDS_LIST payload to serialise")
	}
}
