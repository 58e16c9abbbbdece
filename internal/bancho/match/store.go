package match

import (
	"context"
	"encoding/json"
	"fmt"

	"banchogate/internal/bancho/channel"
	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
	"banchogate/pkg/kv"
)

const matchesKey = "matches"

type slotRecord struct {
	SessionID *int32 `json:"session_id"`
	Status    int32  `json:"status"`
	Team      int8   `json:"team"`
	Mods      int32  `json:"mods"`
	Loaded    bool   `json:"loaded"`
	Skipped   bool   `json:"skipped"`
}

type record struct {
	ID     int32  `json:"id"`
	Name   string `json:"name"`
	HostID int32  `json:"host_id"`
	Mods   int32  `json:"mods"`
	Mode   int8   `json:"mode"`

	MapID     int32  `json:"map_id"`
	MapMD5    string `json:"map_md5"`
	MapTitle  string `json:"map_title"`
	LastMapID int32  `json:"last_map_id"`

	Freemod bool `json:"freemod"`

	Slots [NumSlots]slotRecord `json:"slots"`

	Password string  `json:"password"`
	Refs     []int32 `json:"refs"`

	TeamType     int8 `json:"team_type"`
	WinCondition int8 `json:"win_condition"`

	InProgress bool  `json:"in_progress"`
	Seed       int32 `json:"seed"`

	TourneyClients []int32 `json:"tourney_clients"`
}

func toRecord(m *Match) record {
	r := record{
		ID: m.ID, Name: m.Name, HostID: m.HostID, Mods: m.Mods, Mode: m.Mode,
		MapID: m.MapID, MapMD5: m.MapMD5, MapTitle: m.MapTitle, LastMapID: m.LastMapID,
		Freemod: m.Freemod, Password: m.Password, Refs: m.Refs,
		TeamType: int8(m.TeamType), WinCondition: int8(m.WinCondition),
		InProgress: m.InProgress, Seed: m.Seed, TourneyClients: m.TourneyClients,
	}
	for i := range m.Slots {
		r.Slots[i] = slotRecord{
			SessionID: m.Slots[i].SessionID, Status: int32(m.Slots[i].Status),
			Team: int8(m.Slots[i].Team), Mods: m.Slots[i].Mods,
			Loaded: m.Slots[i].Loaded, Skipped: m.Slots[i].Skipped,
		}
	}
	return r
}

func (r record) toMatch() *Match {
	m := &Match{
		ID: r.ID, Name: r.Name, HostID: r.HostID, Mods: r.Mods, Mode: r.Mode,
		MapID: r.MapID, MapMD5: r.MapMD5, MapTitle: r.MapTitle, LastMapID: r.LastMapID,
		Freemod: r.Freemod, Password: r.Password, Refs: r.Refs,
		TeamType: MatchTeamType(r.TeamType), WinCondition: MatchWinCondition(r.WinCondition),
		InProgress: r.InProgress, Seed: r.Seed, TourneyClients: r.TourneyClients,
	}
	for i := range r.Slots {
		m.Slots[i] = Slot{
			SessionID: r.Slots[i].SessionID, Status: SlotStatus(r.Slots[i].Status),
			Team: MatchTeam(r.Slots[i].Team), Mods: r.Slots[i].Mods,
			Loaded: r.Slots[i].Loaded, Skipped: r.Slots[i].Skipped,
		}
	}
	return m
}

// Store owns the match-store operations of the spec: fetch by id/
// name/all, update (fanning out UPDATE_MATCH), and delete.
type Store struct {
	kv       kv.Store
	sessions *session.Store
	channels *channel.Store
}

// NewStore wires the shared KV store and the collaborators update
// needs to fan out match-change notifications.
func NewStore(store kv.Store, sessions *session.Store, channels *channel.Store) *Store {
	return &Store{kv: store, sessions: sessions, channels: channels}
}

func (s *Store) FetchByID(ctx context.Context, id int32) (*Match, error) {
	return s.fetch(ctx, fmt.Sprintf("id_%d", id))
}

func (s *Store) FetchByName(ctx context.Context, name string) (*Match, error) {
	return s.fetch(ctx, fmt.Sprintf("name_%s", session.SafeName(name)))
}

func (s *Store) fetch(ctx context.Context, field string) (*Match, error) {
	raw, ok, err := s.kv.HGet(ctx, matchesKey, field)
	if err != nil {
		return nil, fmt.Errorf("fetch match %s: %w", field, err)
	}
	if !ok {
		return nil, nil
	}

	var r record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", field, err)
	}
	return r.toMatch(), nil
}

func (s *Store) FetchAll(ctx context.Context) ([]*Match, error) {
	all, err := s.kv.HGetAll(ctx, matchesKey)
	if err != nil {
		return nil, fmt.Errorf("fetch all matches: %w", err)
	}

	seen := make(map[int32]struct{})
	var matches []*Match
	for field, raw := range all {
		if len(field) < 3 || field[:3] != "id_" {
			continue
		}
		var r record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode match %s: %w", field, err)
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		matches = append(matches, r.toMatch())
	}
	return matches, nil
}

// NextID returns one more than the highest existing match id, the
// allocation rule creation uses.
func (s *Store) NextID(ctx context.Context) (int32, error) {
	all, err := s.FetchAll(ctx)
	if err != nil {
		return 0, err
	}
	var max int32
	for _, m := range all {
		if m.ID > max {
			max = m.ID
		}
	}
	return max + 1, nil
}

// Update persists m under both its id and name keys, then fans out
// UPDATE_MATCH to `#multi_<id>` (with password) and, when lobby is
// true, to `#lobby` (without password).
func (s *Store) Update(ctx context.Context, m *Match, lobby bool) error {
	lock, err := kv.Acquire(ctx, s.kv, fmt.Sprintf("locks:matches:%d", m.ID))
	if err != nil {
		return err
	}
	defer lock.Unlock(ctx)

	raw, err := json.Marshal(toRecord(m))
	if err != nil {
		return fmt.Errorf("encode match %d: %w", m.ID, err)
	}

	for _, field := range []string{
		fmt.Sprintf("id_%d", m.ID),
		fmt.Sprintf("name_%s", session.SafeName(m.Name)),
	} {
		if err := s.kv.HSet(ctx, matchesKey, field, string(raw)); err != nil {
			return fmt.Errorf("persist match %d: %w", m.ID, err)
		}
	}

	if err := s.broadcastUpdate(ctx, m, channel.MatchChannelName(m.ID), true); err != nil {
		return err
	}
	if lobby {
		if err := s.broadcastUpdate(ctx, m, "#lobby", false); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) broadcastUpdate(ctx context.Context, m *Match, channelName string, withPassword bool) error {
	c, err := s.channels.FetchByName(ctx, channelName)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}

	w := wire.NewWriter()
	m.Serialise(w, !withPassword)
	packet := wire.Frame(uint16(packets.UpdateMatch), w.Bytes())

	ids := make([]int32, 0, len(c.Members))
	for id := range c.Members {
		ids = append(ids, id)
	}
	return fanout.ToSessions(ctx, s.sessions, ids, packet, nil)
}

// Delete removes the match and broadcasts DISPOSE_MATCH(id) to
// `#lobby`.
func (s *Store) Delete(ctx context.Context, m *Match) error {
	lock, err := kv.Acquire(ctx, s.kv, fmt.Sprintf("locks:matches:%d", m.ID))
	if err != nil {
		return err
	}
	defer lock.Unlock(ctx)

	for _, field := range []string{
		fmt.Sprintf("id_%d", m.ID),
		fmt.Sprintf("name_%s", session.SafeName(m.Name)),
	} {
		if err := s.kv.HDel(ctx, matchesKey, field); err != nil {
			return fmt.Errorf("delete match %d: %w", m.ID, err)
		}
	}

	w := wire.NewWriter()
	w.WriteI32(m.ID)
	packet := wire.Frame(uint16(packets.DisposeMatch), w.Bytes())

	lobby, err := s.channels.FetchByName(ctx, "#lobby")
	if err != nil || lobby == nil {
		return err
	}
	ids := make([]int32, 0, len(lobby.Members))
	for id := range lobby.Members {
		ids = append(ids, id)
	}
	return fanout.ToSessions(ctx, s.sessions, ids, packet, nil)
}
