package session

import (
	"context"
	"testing"

	"banchogate/internal/account"
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
	for _, a := range f.byID {
		if account.SafeName(a.Name) == SafeName(name) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (f *fakeAccounts) UpdatePrivileges(_ context.Context, a account.Account) error {
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAccounts) AddFriend(_ context.Context, userID, friendID int32) error    { return nil }
func (f *fakeAccounts) RemoveFriend(_ context.Context, userID, friendID int32) error { return nil }

func newTestStore() (*Store, *fakeAccounts) {
	accounts := &fakeAccounts{byID: map[int32]account.Account{
		1: {ID: 1, Name: "Alice", Privileges: account.PrivUserPublic | account.PrivUserNormal},
	}}
	return NewStore(kv.NewMemoryStore(), accounts), accounts
}

func TestCreateFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, accounts := newTestStore()

	sess, err := store.Create(ctx, accounts.byID[1], Geolocation{CountryCode: "US"}, 0, false, ClientVersion{}, Hardware{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected a generated token")
	}

	byID, err := store.FetchByID(ctx, 1)
	if err != nil || byID == nil {
		t.Fatalf("FetchByID: %v, %v", byID, err)
	}
	if byID.Token != sess.Token {
		t.Errorf("token mismatch: got %q want %q", byID.Token, sess.Token)
	}

	byName, err := store.FetchByName(ctx, "Alice")
	if err != nil || byName == nil {
		t.Fatalf("FetchByName: %v, %v", byName, err)
	}

	byToken, err := store.FetchByToken(ctx, sess.Token)
	if err != nil || byToken == nil {
		t.Fatalf("FetchByToken: %v, %v", byToken, err)
	}
}

func TestFetchMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore()
	sess, err := store.FetchByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess != nil {
		t.Fatal("expected nil session for unknown id")
	}
}

func TestQueueEnqueueDequeueIsDestructive(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	if err := store.EnqueueData(ctx, 1, []byte("hello")); err != nil {
		t.Fatalf("EnqueueData: %v", err)
	}
	if err := store.EnqueueData(ctx, 1, []byte(" world")); err != nil {
		t.Fatalf("EnqueueData: %v", err)
	}

	got, err := store.DequeueData(ctx, 1)
	if err != nil {
		t.Fatalf("DequeueData: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}

	again, err := store.DequeueData(ctx, 1)
	if err != nil {
		t.Fatalf("DequeueData: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("expected empty queue after drain, got %q", again)
	}
}

func TestSessionListAddRemove(t *testing.T) {
	ctx := context.Background()
	store, accounts := newTestStore()

	sess, err := store.Create(ctx, accounts.byID[1], Geolocation{}, 0, false, ClientVersion{}, Hardware{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.AddToSessionList(ctx, sess); err != nil {
		t.Fatalf("AddToSessionList: %v", err)
	}

	all, err := store.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 session, got %d", len(all))
	}

	if err := store.RemoveFromSessionList(ctx, sess); err != nil {
		t.Fatalf("RemoveFromSessionList: %v", err)
	}
}
