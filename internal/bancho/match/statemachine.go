package match

import (
	"context"
	"errors"

	"banchogate/internal/bancho/channel"
	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
)

// ErrAlreadyInMatch is returned by Join when the session is already
// seated in a match.
var ErrAlreadyInMatch = errors.New("match: session already in a match")

// ErrMatchFull is returned by Join when no slot is available (wrong
// password also routes here, per the spec's single MATCH_JOIN_FAIL
// sentinel).
var ErrMatchFull = errors.New("match: no open slot or bad password")

// Create allocates the next free match id, builds its `#multi_<id>`
// channel, seeds the new match from template (the CREATE_MATCH client
// payload), and routes the host through Join.
func Create(ctx context.Context, store *Store, channels *channel.Store, sessions *session.Store, template *Match, hostSess *session.Session) (*Match, error) {
	id, err := store.NextID(ctx)
	if err != nil {
		return nil, err
	}

	m := New(id, template.Name, hostSess.Account.ID, template.Mods, template.Mode)
	m.Password = template.Password
	m.MapID = template.MapID
	m.MapMD5 = template.MapMD5
	m.MapTitle = template.MapTitle
	m.TeamType = template.TeamType
	m.WinCondition = template.WinCondition
	m.Freemod = template.Freemod

	c := channel.NewMatchChannel(id)
	if err := channels.Update(ctx, c); err != nil {
		return nil, err
	}

	if err := Join(ctx, store, channels, sessions, m, hostSess, ""); err != nil {
		return nil, err
	}

	if err := broadcastNewMatch(ctx, channels, sessions, m); err != nil {
		return nil, err
	}

	return m, nil
}

// broadcastNewMatch announces m to every session in `#lobby`, separate
// from the UPDATE_MATCH fan-out Join's persistence already performs.
func broadcastNewMatch(ctx context.Context, channels *channel.Store, sessions *session.Store, m *Match) error {
	lobby, err := channels.FetchByName(ctx, "#lobby")
	if err != nil || lobby == nil {
		return err
	}

	w := wire.NewWriter()
	m.Serialise(w, true)
	packet := wire.Frame(uint16(packets.NewMatch), w.Bytes())

	ids := make([]int32, 0, len(lobby.Members))
	for id := range lobby.Members {
		ids = append(ids, id)
	}
	return fanout.ToSessions(ctx, sessions, ids, packet, nil)
}

// Join seats sess into m: the host always takes slot 0; anyone else
// must supply the correct password (if set) and land in the lowest
// free slot.
func Join(ctx context.Context, store *Store, channels *channel.Store, sessions *session.Store, m *Match, sess *session.Session, password string) error {
	if sess.Match != nil {
		return ErrAlreadyInMatch
	}
	for _, id := range m.TourneyClients {
		if id == sess.Account.ID {
			return ErrAlreadyInMatch
		}
	}

	var idx int
	if sess.Account.ID == m.HostID {
		idx = 0
	} else {
		if m.Password != "" && password != m.Password {
			return ErrMatchFull
		}
		idx = m.GetNextFreeSlotIndex()
		if idx < 0 {
			return ErrMatchFull
		}
	}

	matchChannel, err := channels.FetchByName(ctx, channel.MatchChannelName(m.ID))
	if err != nil {
		return err
	}
	if matchChannel == nil {
		matchChannel = channel.NewMatchChannel(m.ID)
	}
	if ok, err := channel.Join(ctx, sessions, channels, sess, matchChannel); err != nil {
		return err
	} else if !ok {
		return ErrMatchFull
	}

	if lobby, err := channels.FetchByName(ctx, "#lobby"); err == nil && lobby != nil {
		if _, member := lobby.Members[sess.Account.ID]; member {
			if err := channel.Leave(ctx, sessions, channels, sess, lobby); err != nil {
				return err
			}
		}
	}

	slot := &m.Slots[idx]
	id := sess.Account.ID
	slot.SessionID = &id
	slot.Status = SlotNotReady
	if m.TeamType == TeamTypeTeamVs || m.TeamType == TeamTypeTagTeamVs {
		slot.Team = TeamRed
	} else {
		slot.Team = TeamNeutral
	}

	sess.Match = &m.ID
	if err := sessions.Update(ctx, sess); err != nil {
		return err
	}

	if err := store.Update(ctx, m, true); err != nil {
		return err
	}

	w := wire.NewWriter()
	m.Serialise(w, false)
	return fanout.ToSession(ctx, sessions, sess.Account.ID, wire.Frame(uint16(packets.MatchJoinSuccess), w.Bytes()))
}

// Leave removes sess from m: the vacated slot resets to OPEN unless it
// was LOCKED, host duties transfer to the first occupied slot if the
// host left, and an emptied match is disposed.
func Leave(ctx context.Context, store *Store, channels *channel.Store, sessions *session.Store, m *Match, sess *session.Session) error {
	idx := m.GetSlotIndex(sess.Account.ID)
	if idx < 0 {
		return nil
	}

	wasHost := sess.Account.ID == m.HostID

	if m.Slots[idx].Status == SlotLocked {
		m.Slots[idx].Reset(SlotLocked)
	} else {
		m.Slots[idx].Reset(SlotOpen)
	}

	if c, err := channels.FetchByName(ctx, channel.MatchChannelName(m.ID)); err == nil && c != nil {
		if err := channel.Leave(ctx, sessions, channels, sess, c); err != nil {
			return err
		}
	}

	sess.Match = nil
	if err := sessions.Update(ctx, sess); err != nil {
		return err
	}

	m.Refs = removeID(m.Refs, sess.Account.ID)

	empty := true
	for i := range m.Slots {
		if m.Slots[i].Status.HasUser() {
			empty = false
			break
		}
	}
	if empty {
		return store.Delete(ctx, m)
	}

	if wasHost {
		for i := range m.Slots {
			if m.Slots[i].Status.HasUser() {
				m.HostID = *m.Slots[i].SessionID
				break
			}
		}
		if err := store.Update(ctx, m, false); err != nil {
			return err
		}
		return fanout.ToSession(ctx, sessions, m.HostID, wire.Frame(uint16(packets.MatchTransferHostOut), nil))
	}

	return store.Update(ctx, m, false)
}

// Start flips every occupied slot with a map to PLAYING, marks the
// match in progress, and returns the ids of the slots without the map.
// It sends nothing itself: the caller broadcasts MATCH_START with that
// missing-map set marked immune.
func Start(m *Match) (missingMap []int32) {
	for i := range m.Slots {
		if !m.Slots[i].Status.HasUser() {
			continue
		}
		if m.Slots[i].Status == SlotNoMap {
			missingMap = append(missingMap, *m.Slots[i].SessionID)
			continue
		}
		m.Slots[i].Status = SlotPlaying
	}
	m.InProgress = true
	return missingMap
}

func removeID(ids []int32, id int32) []int32 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
