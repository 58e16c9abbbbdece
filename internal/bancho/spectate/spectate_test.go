package spectate

import (
	"bytes"
	"context"
	"testing"

	"banchogate/internal/account"
	"banchogate/internal/bancho/channel"
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

func newFixture(t *testing.T) (*session.Store, *channel.Store, *session.Session, *session.Session, *session.Session) {
	t.Helper()
	store := kv.NewMemoryStore()
	accounts := &fakeAccounts{byID: map[int32]account.Account{
		1: {ID: 1, Name: "Host", Privileges: account.PrivUserPublic | account.PrivUserNormal},
		2: {ID: 2, Name: "Alice", Privileges: account.PrivUserPublic | account.PrivUserNormal},
		3: {ID: 3, Name: "Carol", Privileges: account.PrivUserPublic | account.PrivUserNormal},
	}}

	sessions := session.NewStore(store, accounts)
	host, err := sessions.Create(context.Background(), accounts.byID[1], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create host: %v", err)
	}
	alice, err := sessions.Create(context.Background(), accounts.byID[2], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	carol, err := sessions.Create(context.Background(), accounts.byID[3], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create carol: %v", err)
	}

	return sessions, channel.NewStore(store), host, alice, carol
}

func TestAddSpectatorOpensChannelAndLinksState(t *testing.T) {
	ctx := context.Background()
	sessions, channels, host, alice, _ := newFixture(t)

	if err := Add(ctx, sessions, channels, host, alice); err != nil {
		t.Fatalf("add spectator: %v", err)
	}

	c, err := channels.FetchByName(ctx, channel.SpectatorChannelName(host.Account.ID))
	if err != nil {
		t.Fatalf("fetch spec channel: %v", err)
	}
	if c == nil {
		t.Fatal("expected #spec_<host.id> channel to exist")
	}
	if _, ok := c.Members[host.Account.ID]; !ok {
		t.Fatal("expected host to be a member of the spectator channel")
	}
	if _, ok := c.Members[alice.Account.ID]; !ok {
		t.Fatal("expected alice to be a member of the spectator channel")
	}
	if _, ok := host.Spectators[alice.Account.ID]; !ok {
		t.Fatal("expected alice recorded as host's spectator")
	}
	if alice.Spectating == nil || *alice.Spectating != host.Account.ID {
		t.Fatal("expected alice.Spectating == host.id")
	}
}

func TestRemoveLastSpectatorDisposesChannel(t *testing.T) {
	ctx := context.Background()
	sessions, channels, host, alice, _ := newFixture(t)

	if err := Add(ctx, sessions, channels, host, alice); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := Remove(ctx, sessions, channels, host, alice); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, ok := host.Spectators[alice.Account.ID]; ok {
		t.Fatal("expected alice removed from host's spectators")
	}
	if alice.Spectating != nil {
		t.Fatal("expected alice.Spectating cleared")
	}

	c, err := channels.FetchByName(ctx, channel.SpectatorChannelName(host.Account.ID))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if c != nil {
		t.Fatal("expected spectator channel disposed once empty")
	}
}

func TestRemoveKeepsChannelWithRemainingSpectators(t *testing.T) {
	ctx := context.Background()
	sessions, channels, host, alice, carol := newFixture(t)

	if err := Add(ctx, sessions, channels, host, alice); err != nil {
		t.Fatalf("add alice: %v", err)
	}
	if err := Add(ctx, sessions, channels, host, carol); err != nil {
		t.Fatalf("add carol: %v", err)
	}
	if err := Remove(ctx, sessions, channels, host, alice); err != nil {
		t.Fatalf("remove alice: %v", err)
	}

	c, err := channels.FetchByName(ctx, channel.SpectatorChannelName(host.Account.ID))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if c == nil {
		t.Fatal("expected spectator channel to survive while carol remains")
	}
	if _, ok := host.Spectators[carol.Account.ID]; !ok {
		t.Fatal("expected carol to remain a spectator")
	}
}

func TestFramesForwardsToEverySpectator(t *testing.T) {
	ctx := context.Background()
	sessions, channels, host, alice, carol := newFixture(t)

	if err := Add(ctx, sessions, channels, host, alice); err != nil {
		t.Fatalf("add alice: %v", err)
	}
	if err := Add(ctx, sessions, channels, host, carol); err != nil {
		t.Fatalf("add carol: %v", err)
	}

	if err := Frames(ctx, sessions, host, []byte("raw-frame-bytes")); err != nil {
		t.Fatalf("frames: %v", err)
	}

	for _, spec := range []*session.Session{alice, carol} {
		data, err := sessions.DequeueData(ctx, spec.Account.ID)
		if err != nil {
			t.Fatalf("dequeue %s: %v", spec.Account.Name, err)
		}
		if !bytes.Contains(data, []byte("raw-frame-bytes")) {
			t.Fatalf("expected %s to receive the forwarded frames", spec.Account.Name)
		}
	}
}
