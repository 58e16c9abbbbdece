package channel

import (
	"context"
	"testing"

	"banchogate/internal/account"
	"banchogate/internal/bancho/session"
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
func (f *fakeAccounts) AddFriend(_ context.Context, userID, friendID int32) error { return nil }
func (f *fakeAccounts) RemoveFriend(_ context.Context, userID, friendID int32) error { return nil }

func newFixture() (*session.Store, *Store, *session.Session) {
	store := kv.NewMemoryStore()
	accounts := &fakeAccounts{byID: map[int32]account.Account{
		1: {ID: 1, Name: "Alice", Privileges: account.PrivUserPublic | account.PrivUserNormal},
	}}
	sessions := session.NewStore(store, accounts)
	sess, _ := sessions.Create(context.Background(), accounts.byID[1], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	return sessions, NewStore(store), sess
}

func TestJoinIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sessions, chStore, sess := newFixture()
	c := New("#osu", "main channel", true, true, false)

	ok, err := Join(ctx, sessions, chStore, sess, c)
	if err != nil || !ok {
		t.Fatalf("first join: ok=%v err=%v", ok, err)
	}

	ok, err = Join(ctx, sessions, chStore, sess, c)
	if err != nil || ok {
		t.Fatalf("second join should return false for an existing member: ok=%v err=%v", ok, err)
	}
	if len(c.Members) != 1 {
		t.Errorf("expected 1 member, got %d", len(c.Members))
	}
}

func TestJoinDeniesWithoutReadAccess(t *testing.T) {
	ctx := context.Background()
	sessions, chStore, sess := newFixture()
	c := New("#admin", "staff only", false, false, true)

	ok, err := Join(ctx, sessions, chStore, sess, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected join to be denied for non-admin on non-public-read channel")
	}
}

func TestJoinLobbyRequiresInLobby(t *testing.T) {
	ctx := context.Background()
	sessions, chStore, sess := newFixture()
	c := New("#lobby", "multiplayer lobby", true, true, false)

	ok, err := Join(ctx, sessions, chStore, sess, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected #lobby join to be denied when not in_lobby")
	}

	sess.InLobby = true
	ok, err = Join(ctx, sessions, chStore, sess, c)
	if err != nil || !ok {
		t.Fatalf("expected #lobby join to succeed once in_lobby: ok=%v err=%v", ok, err)
	}
}

func TestLeaveDisposesEmptyTempChannel(t *testing.T) {
	ctx := context.Background()
	sessions, chStore, sess := newFixture()
	c := NewMatchChannel(42)

	if _, err := Join(ctx, sessions, chStore, sess, c); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := Leave(ctx, sessions, chStore, sess, c); err != nil {
		t.Fatalf("leave: %v", err)
	}

	fetched, err := chStore.FetchByName(ctx, c.Name)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fetched != nil {
		t.Fatal("expected temp channel to be disposed once empty")
	}
}

func TestWireNameRewrite(t *testing.T) {
	cases := map[string]string{
		"#multi_5":  "#multiplayer",
		"#spec_7":   "#spectator",
		"#osu":      "#osu",
	}
	for in, want := range cases {
		if got := WireName(in); got != want {
			t.Errorf("WireName(%q) = %q, want %q", in, got, want)
		}
	}
}
