package match

import (
	"context"
	"testing"

	"banchogate/internal/account"
	"banchogate/internal/bancho/channel"
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
func (f *fakeAccounts) AddFriend(_ context.Context, userID, friendID int32) error { return nil }
func (f *fakeAccounts) RemoveFriend(_ context.Context, userID, friendID int32) error { return nil }

func newFixture(t *testing.T) (*session.Store, *channel.Store, *Store, *session.Session, *session.Session) {
	t.Helper()
	store := kv.NewMemoryStore()
	accounts := &fakeAccounts{byID: map[int32]account.Account{
		1: {ID: 1, Name: "Host", Privileges: account.PrivUserPublic | account.PrivUserNormal},
		2: {ID: 2, Name: "Guest", Privileges: account.PrivUserPublic | account.PrivUserNormal},
	}}

	sessions := session.NewStore(store, accounts)
	host, err := sessions.Create(context.Background(), accounts.byID[1], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create host session: %v", err)
	}
	guest, err := sessions.Create(context.Background(), accounts.byID[2], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create guest session: %v", err)
	}

	channels := channel.NewStore(store)
	lobby := channel.New("#lobby", "multiplayer lobby", true, true, false)
	if err := channels.Update(context.Background(), lobby); err != nil {
		t.Fatalf("seed lobby: %v", err)
	}

	matches := NewStore(store, sessions, channels)
	return sessions, channels, matches, host, guest
}

func TestJoinAndLeaveLifecycle(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, guest := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "test match", 0, 0, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.GetSlotIndex(host.Account.ID) != 0 {
		t.Fatalf("expected host to occupy slot 0")
	}

	if err := Join(ctx, matches, channels, sessions, m, guest, ""); err != nil {
		t.Fatalf("guest join: %v", err)
	}
	if idx := m.GetSlotIndex(guest.Account.ID); idx != 1 {
		t.Fatalf("expected guest in slot 1, got %d", idx)
	}

	if err := Leave(ctx, matches, channels, sessions, m, guest); err != nil {
		t.Fatalf("guest leave: %v", err)
	}
	if m.Contains(guest.Account.ID) {
		t.Fatal("expected guest to have vacated their slot")
	}

	if err := Leave(ctx, matches, channels, sessions, m, host); err != nil {
		t.Fatalf("host leave: %v", err)
	}
	disposed, err := matches.FetchByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if disposed != nil {
		t.Fatal("expected match to be disposed once empty")
	}
}

func TestJoinRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, guest := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "locked match", 0, 0, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m.Password = "hunter2"
	if err := matches.Update(ctx, m, true); err != nil {
		t.Fatalf("set password: %v", err)
	}

	if err := Join(ctx, matches, channels, sessions, m, guest, "wrong"); err != ErrMatchFull {
		t.Fatalf("expected ErrMatchFull, got %v", err)
	}
}

func TestHostTransferOnLeave(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, guest := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "test match", 0, 0, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Join(ctx, matches, channels, sessions, m, guest, ""); err != nil {
		t.Fatalf("guest join: %v", err)
	}

	if err := Leave(ctx, matches, channels, sessions, m, host); err != nil {
		t.Fatalf("host leave: %v", err)
	}
	if m.HostID != guest.Account.ID {
		t.Fatalf("expected host to transfer to guest, got host=%d", m.HostID)
	}
}

func TestStartMarksMissingMapImmune(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, guest := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "test match", 0, 0, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Join(ctx, matches, channels, sessions, m, guest, ""); err != nil {
		t.Fatalf("guest join: %v", err)
	}
	m.Slots[1].Status = SlotNoMap

	missing := Start(m)
	if len(missing) != 1 || missing[0] != guest.Account.ID {
		t.Fatalf("expected guest in missing-map set, got %v", missing)
	}
	if m.Slots[0].Status != SlotPlaying {
		t.Fatalf("expected host slot PLAYING, got %v", m.Slots[0].Status)
	}
	if !m.InProgress {
		t.Fatal("expected match marked in progress")
	}
}

func TestChangeSlotMovesOccupant(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, _ := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "test match", 0, 0, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ChangeSlot(ctx, matches, m, host, 4); err != nil {
		t.Fatalf("change slot: %v", err)
	}
	if m.GetSlotIndex(host.Account.ID) != 4 {
		t.Fatalf("expected host in slot 4")
	}
	if m.Slots[0].Status != SlotOpen {
		t.Fatalf("expected vacated slot 0 to be OPEN, got %v", m.Slots[0].Status)
	}
}

func TestLockPreventsHostLockingOwnSlot(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, _ := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "test match", 0, 0, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := Lock(ctx, matches, m, host, 0); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if m.Slots[0].Status == SlotLocked {
		t.Fatal("expected host unable to lock their own occupied slot")
	}
}

func TestTransferHostRequiresHost(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, guest := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "test match", 0, 0, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Join(ctx, matches, channels, sessions, m, guest, ""); err != nil {
		t.Fatalf("guest join: %v", err)
	}

	if err := TransferHost(ctx, matches, sessions, m, guest, 0); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}

	if err := TransferHost(ctx, matches, sessions, m, host, 1); err != nil {
		t.Fatalf("transfer host: %v", err)
	}
	if m.HostID != guest.Account.ID {
		t.Fatalf("expected host transferred to guest, got %d", m.HostID)
	}
}

func TestChangeSettingsFreemodTransitions(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, guest := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "test match", 0, SpeedMods|1, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Join(ctx, matches, channels, sessions, m, guest, ""); err != nil {
		t.Fatalf("guest join: %v", err)
	}

	if err := ChangeSettings(ctx, matches, m, host, Settings{Name: m.Name, Freemod: true}); err != nil {
		t.Fatalf("enable freemod: %v", err)
	}
	if m.Mods != SpeedMods {
		t.Fatalf("expected match mods reduced to SpeedMods, got %d", m.Mods)
	}
	if m.Slots[1].Mods != 1 {
		t.Fatalf("expected guest slot to inherit host's non-speed mods, got %d", m.Slots[1].Mods)
	}

	m.Slots[0].Mods = 4
	if err := ChangeSettings(ctx, matches, m, host, Settings{Name: m.Name, Freemod: false}); err != nil {
		t.Fatalf("disable freemod: %v", err)
	}
	if m.Mods&4 == 0 {
		t.Fatalf("expected host's slot mods folded back into match mods, got %d", m.Mods)
	}
	if m.Slots[0].Mods != 0 || m.Slots[1].Mods != 0 {
		t.Fatal("expected per-slot mods cleared once freemod is disabled")
	}
}

func TestChangeSettingsTeamTypeReassignsTeams(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, guest := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "test match", 0, 0, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Join(ctx, matches, channels, sessions, m, guest, ""); err != nil {
		t.Fatalf("guest join: %v", err)
	}

	if err := ChangeSettings(ctx, matches, m, host, Settings{Name: m.Name, TeamType: TeamTypeTeamVs}); err != nil {
		t.Fatalf("switch to team vs: %v", err)
	}
	if m.Slots[0].Team != TeamRed || m.Slots[1].Team != TeamRed {
		t.Fatalf("expected occupied slots assigned RED under team vs")
	}

	if err := ChangeSettings(ctx, matches, m, host, Settings{Name: m.Name, TeamType: TeamTypeHeadToHead}); err != nil {
		t.Fatalf("switch to head to head: %v", err)
	}
	if m.Slots[0].Team != TeamNeutral || m.Slots[1].Team != TeamNeutral {
		t.Fatal("expected occupied slots reset to NEUTRAL under head to head")
	}
}

func TestScoreUpdatePatchesSlotByteAndTargetsPlayingSlots(t *testing.T) {
	ctx := context.Background()
	sessions, channels, matches, host, guest := newFixture(t)

	m, err := Create(ctx, matches, channels, sessions, New(0, "test match", 0, 0, 0), host)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Join(ctx, matches, channels, sessions, m, guest, ""); err != nil {
		t.Fatalf("guest join: %v", err)
	}
	m.Slots[1].Status = SlotPlaying

	if _, err := sessions.DequeueData(ctx, host.Account.ID); err != nil {
		t.Fatalf("drain host: %v", err)
	}
	if _, err := sessions.DequeueData(ctx, guest.Account.ID); err != nil {
		t.Fatalf("drain guest: %v", err)
	}

	raw := make([]byte, 20)
	if err := ScoreUpdate(ctx, sessions, m, raw, guest); err != nil {
		t.Fatalf("score update: %v", err)
	}

	got, err := sessions.DequeueData(ctx, guest.Account.ID)
	if err != nil {
		t.Fatalf("dequeue guest: %v", err)
	}
	if len(got) != wire.HeaderSize+len(raw) {
		t.Fatalf("expected one framed score update for the playing guest, got %d bytes", len(got))
	}
	if got[wire.HeaderSize+4] != 1 {
		t.Fatalf("expected slot id byte patched to 1, got %d", got[wire.HeaderSize+4])
	}

	hostData, err := sessions.DequeueData(ctx, host.Account.ID)
	if err != nil {
		t.Fatalf("dequeue host: %v", err)
	}
	if len(hostData) != 0 {
		t.Fatalf("expected nothing for the non-playing host slot, got %d bytes", len(hostData))
	}
}

func TestWireRoundTrip(t *testing.T) {
	m := New(12, "round trip cup", 1, 0, 0)
	id := int32(1)
	m.Slots[0].SessionID = &id
	m.Slots[0].Status = SlotNotReady
	m.Password = "secret"
	m.MapID = 999
	m.MapMD5 = "deadbeef"
	m.MapTitle = "Some Song"
	m.Seed = 42

	w := wire.NewWriter()
	m.Serialise(w, false)
	decoded := Deserialise(wire.NewReader(w.Bytes()))

	if decoded.ID != m.ID || decoded.Name != m.Name || decoded.Password != m.Password {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, m)
	}
	if decoded.MapID != m.MapID || decoded.MapMD5 != m.MapMD5 || decoded.MapTitle != m.MapTitle {
		t.Fatalf("map fields mismatch: %+v vs %+v", decoded, m)
	}
	if decoded.Seed != m.Seed {
		t.Fatalf("seed mismatch: got %d want %d", decoded.Seed, m.Seed)
	}
	if decoded.GetSlotIndex(1) != 0 {
		t.Fatal("expected slot 0 occupant preserved")
	}
}

func TestWireRoundTripSuppressesPassword(t *testing.T) {
	m := New(12, "locked cup", 1, 0, 0)
	m.Password = "secret"

	w := wire.NewWriter()
	m.Serialise(w, true)
	decoded := Deserialise(wire.NewReader(w.Bytes()))

	if decoded.Password == "secret" {
		t.Fatal("expected password to be suppressed on the wire")
	}
}
