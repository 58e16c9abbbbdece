package logout

import (
	"context"
	"testing"

	"banchogate/internal/account"
	"banchogate/internal/bancho/channel"
	"banchogate/internal/bancho/match"
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
func (f *fakeAccounts) AddFriend(_ context.Context, userID, friendID int32) error   { return nil }
func (f *fakeAccounts) RemoveFriend(_ context.Context, userID, friendID int32) error {
	return nil
}

func newFixture(t *testing.T) (*session.Store, *channel.Store, *match.Store, *session.Session, *session.Session) {
	t.Helper()
	store := kv.NewMemoryStore()
	accounts := &fakeAccounts{byID: map[int32]account.Account{
		1: {ID: 1, Name: "Leaver", Privileges: account.PrivUserPublic | account.PrivUserNormal},
		2: {ID: 2, Name: "Bystander", Privileges: account.PrivUserPublic | account.PrivUserNormal},
	}}

	sessions := session.NewStore(store, accounts)
	leaver, err := sessions.Create(context.Background(), accounts.byID[1], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create leaver: %v", err)
	}
	// backdate login so the debounce in Handle doesn't swallow it.
	leaver.LoginTime -= 10
	if err := sessions.Update(context.Background(), leaver); err != nil {
		t.Fatalf("backdate leaver login time: %v", err)
	}

	bystander, err := sessions.Create(context.Background(), accounts.byID[2], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create bystander: %v", err)
	}

	channels := channel.NewStore(store)
	osu := channel.New("#osu", "general chat", true, true, false)
	if err := channels.Update(context.Background(), osu); err != nil {
		t.Fatalf("seed #osu: %v", err)
	}
	if _, err := channel.Join(context.Background(), sessions, channels, leaver, osu); err != nil {
		t.Fatalf("join #osu: %v", err)
	}

	matches := match.NewStore(store, sessions, channels)

	return sessions, channels, matches, leaver, bystander
}

func TestHandleRemovesSessionAndBroadcastsLogout(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, leaver, bystander := newFixture(t)

	if err := Handle(ctx, sessions, channels, matches, leaver); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if got, err := sessions.FetchByID(ctx, leaver.Account.ID); err != nil {
		t.Fatalf("FetchByID: %v", err)
	} else if got != nil {
		t.Fatalf("leaver still present in session store after logout")
	}

	osu, err := channels.FetchByName(ctx, "#osu")
	if err != nil {
		t.Fatalf("FetchByName #osu: %v", err)
	}
	if _, stillMember := osu.Members[leaver.Account.ID]; stillMember {
		t.Fatalf("leaver still a member of #osu after logout")
	}

	queued, err := sessions.DequeueData(ctx, bystander.Account.ID)
	if err != nil {
		t.Fatalf("DequeueData: %v", err)
	}
	if len(queued) == 0 {
		t.Fatalf("expected bystander to receive the LOGOUT broadcast")
	}
}

func TestHandleDebouncesImmediatelyAfterLogin(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, leaver, _ := newFixture(t)

	// undo the fixture's backdating: simulate a LOGOUT sent in the same
	// instant as login, which Handle should ignore.
	leaver.LoginTime += 10
	if err := sessions.Update(ctx, leaver); err != nil {
		t.Fatalf("restore login time: %v", err)
	}

	if err := Handle(ctx, sessions, channels, matches, leaver); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if got, err := sessions.FetchByID(ctx, leaver.Account.ID); err != nil {
		t.Fatalf("FetchByID: %v", err)
	} else if got == nil {
		t.Fatalf("debounced logout should not have removed the session")
	}
}
