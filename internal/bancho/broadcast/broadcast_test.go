package broadcast

import (
	"context"
	"io"
	"log/slog"
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
func (f *fakeAccounts) AddFriend(_ context.Context, userID, friendID int32) error   { return nil }
func (f *fakeAccounts) RemoveFriend(_ context.Context, userID, friendID int32) error {
	return nil
}

func newFixture(t *testing.T) (*session.Store, *fakeAccounts, Deps) {
	t.Helper()
	store := kv.NewMemoryStore()
	accounts := &fakeAccounts{byID: map[int32]account.Account{
		1: {ID: 1, Name: "Target", Privileges: account.PrivUserPublic | account.PrivUserNormal},
		2: {ID: 2, Name: "Bystander", Privileges: account.PrivUserPublic | account.PrivUserNormal},
	}}
	sessions := session.NewStore(store, accounts)

	deps := Deps{
		Sessions:          sessions,
		Accounts:          accounts,
		RestrictedMessage: "Your account is currently restricted.",
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return sessions, accounts, deps
}

func TestHandleAnnounceFansOutToEveryone(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, deps := newFixture(t)

	target, err := sessions.Create(ctx, accounts.byID[1], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create target: %v", err)
	}

	if err := deps.handleAnnounce(ctx, "server restarting in 5 minutes"); err != nil {
		t.Fatalf("handleAnnounce: %v", err)
	}

	queued, err := sessions.DequeueData(ctx, target.Account.ID)
	if err != nil {
		t.Fatalf("DequeueData: %v", err)
	}
	if len(queued) == 0 {
		t.Fatal("expected target to receive the announcement")
	}
}

func TestHandleAnnounceIgnoresBlankPayload(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, deps := newFixture(t)

	target, err := sessions.Create(ctx, accounts.byID[1], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create target: %v", err)
	}

	if err := deps.handleAnnounce(ctx, "   "); err != nil {
		t.Fatalf("handleAnnounce: %v", err)
	}

	queued, err := sessions.DequeueData(ctx, target.Account.ID)
	if err != nil {
		t.Fatalf("DequeueData: %v", err)
	}
	if len(queued) != 0 {
		t.Fatal("blank announcement should not have queued anything")
	}
}

func TestHandleRestrictNotifiesOnlineSession(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, deps := newFixture(t)

	target, err := sessions.Create(ctx, accounts.byID[1], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create target: %v", err)
	}

	// simulate the admin action: the account row loses USER_PUBLIC.
	accounts.byID[1] = account.Account{ID: 1, Name: "Target", Privileges: account.PrivUserNormal}

	if err := deps.handleRestrict(ctx, "1"); err != nil {
		t.Fatalf("handleRestrict: %v", err)
	}

	queued, err := sessions.DequeueData(ctx, target.Account.ID)
	if err != nil {
		t.Fatalf("DequeueData: %v", err)
	}
	if len(queued) == 0 {
		t.Fatal("expected the restricted session to receive a notification")
	}

	got, err := sessions.FetchByID(ctx, target.Account.ID)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if got.IsPublic() {
		t.Fatal("session's cached account should no longer be public")
	}
}

func TestHandleRestrictIsNoopForOfflineAccount(t *testing.T) {
	ctx := context.Background()
	_, _, deps := newFixture(t)

	if err := deps.handleRestrict(ctx, "99"); err != nil {
		t.Fatalf("handleRestrict: %v", err)
	}
}

func TestHandleRestrictIgnoresMalformedPayload(t *testing.T) {
	ctx := context.Background()
	_, _, deps := newFixture(t)

	if err := deps.handleRestrict(ctx, "not-an-id"); err != nil {
		t.Fatalf("handleRestrict: %v", err)
	}
}
