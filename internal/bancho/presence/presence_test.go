package presence

import (
	"context"
	"testing"

	"banchogate/internal/account"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
	"banchogate/pkg/kv"
)

func TestModeFromModsRelaxAndAutopilot(t *testing.T) {
	const relax = 1 << 7
	const autopilot = 1 << 13

	cases := []struct {
		mode int8
		mods int32
		want int8
	}{
		{0, 0, 0},
		{1, relax, 5},
		{2, relax, 6},
		{0, autopilot, 7},
		{3, relax, 3}, // mania has no relax variant
	}
	for _, c := range cases {
		if got := ModeFromMods(c.mode, c.mods); got != c.want {
			t.Errorf("ModeFromMods(%d, %d) = %d, want %d", c.mode, c.mods, got, c.want)
		}
	}
}

func TestApplyWritesStatus(t *testing.T) {
	sess := &session.Session{}
	Apply(sess, Update{
		PresenceFilter: 1,
		Action:         2,
		ActionText:     "Playing a map",
		MapMD5:         "abc",
		Mods:           1 << 7,
		MapID:          42,
		Mode:           1,
	})

	if sess.Status.Mode != 5 {
		t.Fatalf("expected relax taiko (5), got %d", sess.Status.Mode)
	}
	if sess.Status.ActionText != "Playing a map" {
		t.Fatalf("expected action text carried through, got %q", sess.Status.ActionText)
	}
}

type fakeStats struct {
	byUser map[int32]account.Stats
}

func (f *fakeStats) Fetch(_ context.Context, userID int32, _ int8) (account.Stats, error) {
	return f.byUser[userID], nil
}

func TestStatsPacketSwapsOverflowingPP(t *testing.T) {
	ctx := context.Background()
	sess := &session.Session{Account: account.Account{ID: 1}}
	stats := &fakeStats{byUser: map[int32]account.Stats{
		1: {RankedScore: 100, PP: 0x8000},
	}}

	packet, err := StatsPacket(ctx, stats, sess)
	if err != nil {
		t.Fatalf("stats packet: %v", err)
	}

	header := wire.ParseHeader(packet)
	r := wire.NewReader(packet[wire.HeaderSize : wire.HeaderSize+int(header.Length)])
	r.ReadI32()    // id
	r.ReadI8()     // action
	r.ReadString() // action text
	r.ReadString() // map md5
	r.ReadI32()    // mods
	r.ReadU8()     // mode
	r.ReadI32()    // map id
	rankedScore := r.ReadI64()
	r.ReadF32() // accuracy
	r.ReadI32() // play count
	r.ReadI64() // total score
	r.ReadI32() // rank
	pp := r.ReadI16()

	if rankedScore != 0x8000 {
		t.Fatalf("expected overflowing pp swapped into ranked_score slot, got %d", rankedScore)
	}
	if pp != 0 {
		t.Fatalf("expected pp field zeroed when overflowing, got %d", pp)
	}
}

func TestPresenceRequestSkipsRestrictedOtherUsers(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	accounts := &fakeAccounts{byID: map[int32]account.Account{
		1: {ID: 1, Name: "Caller", Privileges: account.PrivUserPublic},
		2: {ID: 2, Name: "Restricted", Privileges: 0},
	}}
	sessions := session.NewStore(store, accounts)

	caller, err := sessions.Create(ctx, accounts.byID[1], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{})
	if err != nil {
		t.Fatalf("create caller: %v", err)
	}
	if _, err := sessions.Create(ctx, accounts.byID[2], session.Geolocation{}, 0, false, session.ClientVersion{}, session.Hardware{}); err != nil {
		t.Fatalf("create restricted: %v", err)
	}
	if _, err := sessions.DequeueData(ctx, caller.Account.ID); err != nil {
		t.Fatalf("drain caller: %v", err)
	}

	if err := PresenceRequest(ctx, sessions, caller, []int32{1, 2}); err != nil {
		t.Fatalf("presence request: %v", err)
	}

	data, err := sessions.DequeueData(ctx, caller.Account.ID)
	if err != nil {
		t.Fatalf("dequeue caller: %v", err)
	}
	pkts := wire.Split(data)
	if len(pkts) != 1 {
		t.Fatalf("expected only the caller's own presence, got %d packets", len(pkts))
	}
	if id := wire.NewReader(pkts[0].Payload).ReadI32(); id != 1 {
		t.Fatalf("expected presence for user 1, got %d", id)
	}
}

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
