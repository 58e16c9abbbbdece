package match

import (
	"context"
	"errors"

	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
)

// ErrNotHost is returned by host-only operations when the caller does
// not hold the host slot.
var ErrNotHost = errors.New("match: caller is not the host")

// ErrSlotTaken is returned by ChangeSlot when the target slot is not
// OPEN.
var ErrSlotTaken = errors.New("match: target slot is not open")

func broadcast(ctx context.Context, sessions *session.Store, m *Match, packet []byte, immune map[int32]struct{}) error {
	ids := make([]int32, 0, NumSlots)
	for i := range m.Slots {
		if id := m.Slots[i].SessionID; id != nil {
			if _, skip := immune[*id]; skip {
				continue
			}
			ids = append(ids, *id)
		}
	}
	return fanout.ToSessions(ctx, sessions, ids, packet, nil)
}

// ChangeSlot moves sess from its current slot into target, copying its
// occupant state across and resetting the vacated slot to OPEN.
func ChangeSlot(ctx context.Context, store *Store, m *Match, sess *session.Session, target int) error {
	if target < 0 || target >= NumSlots {
		return nil
	}
	if m.Slots[target].Status != SlotOpen {
		return ErrSlotTaken
	}

	from := m.GetSlotIndex(sess.Account.ID)
	if from < 0 {
		return nil
	}

	m.Slots[target].CopyFrom(&m.Slots[from])
	m.Slots[from].Reset(SlotOpen)

	return store.Update(ctx, m, false)
}

// SetSlotStatus sets the caller's own slot to status (READY, NOT_READY,
// HAS_BEATMAP, or NO_BEATMAP).
func SetSlotStatus(ctx context.Context, store *Store, m *Match, sess *session.Session, status SlotStatus) error {
	slot := m.GetSlot(sess.Account.ID)
	if slot == nil {
		return nil
	}
	slot.Status = status
	return store.Update(ctx, m, false)
}

// Lock toggles slotIdx between OPEN and LOCKED. Host-only; a host may
// not lock the slot they themselves occupy.
func Lock(ctx context.Context, store *Store, m *Match, sess *session.Session, slotIdx int) error {
	if sess.Account.ID != m.HostID {
		return ErrNotHost
	}
	if slotIdx < 0 || slotIdx >= NumSlots {
		return nil
	}
	slot := &m.Slots[slotIdx]
	if slot.Status.HasUser() && slot.SessionID != nil && *slot.SessionID == m.HostID {
		return nil
	}

	if slot.Status == SlotLocked {
		slot.Status = SlotOpen
	} else if slot.Status == SlotOpen {
		slot.Status = SlotLocked
	}
	return store.Update(ctx, m, true)
}

// Settings is the host-editable subset of match state CHANGE_SETTINGS
// replaces in one shot.
type Settings struct {
	Name         string
	Password     string
	Freemod      bool
	MapID        int32
	MapMD5       string
	MapTitle     string
	TeamType     MatchTeamType
	WinCondition MatchWinCondition
}

// ChangeSettings applies s to m. Host-only.
//
// Freemod transitions: enabling moves host.mods minus SpeedMods into
// every HAS_USER slot and leaves only SpeedMods on the match; disabling
// folds the host's own slot mods back into match.mods and clears every
// slot's mods. Unsetting the
// map (MapID == -1) clears the map fields and unreadies every READY
// slot. A team-type change to HEAD_TO_HEAD or TAG_COOP resets every
// HAS_USER slot to NEUTRAL; any other team type sets them RED.
func ChangeSettings(ctx context.Context, store *Store, m *Match, sess *session.Session, s Settings) error {
	if sess.Account.ID != m.HostID {
		return ErrNotHost
	}

	m.Name = s.Name
	m.Password = s.Password

	if s.MapID == -1 {
		m.LastMapID = m.MapID
		m.MapID = -1
		m.MapMD5 = ""
		m.MapTitle = ""
		m.UnreadyUsers(SlotReady)
	} else if s.MapID != m.MapID {
		m.MapID = s.MapID
		m.MapMD5 = s.MapMD5
		m.MapTitle = s.MapTitle
		m.UnreadyUsers(SlotReady)
	}

	wasFree := m.Freemod
	m.Freemod = s.Freemod
	if !wasFree && m.Freemod {
		hostMods := m.Mods &^ SpeedMods
		for i := range m.Slots {
			if m.Slots[i].Status.HasUser() {
				m.Slots[i].Mods = hostMods
			}
		}
		m.Mods &= SpeedMods
	} else if wasFree && !m.Freemod {
		if hostSlot := m.GetHostSlot(); hostSlot != nil {
			m.Mods |= hostSlot.Mods
		}
		for i := range m.Slots {
			m.Slots[i].Mods = 0
		}
	}

	if s.TeamType != m.TeamType {
		m.TeamType = s.TeamType
		newTeam := TeamRed
		if m.TeamType == TeamTypeHeadToHead || m.TeamType == TeamTypeTagCoop {
			newTeam = TeamNeutral
		}
		for i := range m.Slots {
			if m.Slots[i].Status.HasUser() {
				m.Slots[i].Team = newTeam
			}
		}
	}
	m.WinCondition = s.WinCondition

	return store.Update(ctx, m, true)
}

// ScoreUpdate re-broadcasts the raw SCORE_UPDATE payload, with payload
// byte 4 (the score frame's ID field, byte 11 of the framed packet)
// patched to the sender's slot index, to every still-PLAYING slot. The
// broadcast is framed under packet id 0 — bancho re-streams the
// client's own payload rather than re-encoding a distinct server
// packet for this one.
func ScoreUpdate(ctx context.Context, sessions *session.Store, m *Match, rawPayload []byte, sess *session.Session) error {
	idx := m.GetSlotIndex(sess.Account.ID)
	if idx < 0 {
		return nil
	}

	payload := append([]byte(nil), rawPayload...)
	if len(payload) > 4 {
		payload[4] = byte(idx)
	}
	packet := wire.Frame(0, payload)

	ids := make([]int32, 0, NumSlots)
	for i := range m.Slots {
		if m.Slots[i].Status == SlotPlaying && m.Slots[i].SessionID != nil {
			ids = append(ids, *m.Slots[i].SessionID)
		}
	}
	return fanout.ToSessions(ctx, sessions, ids, packet, nil)
}

// LoadComplete marks sess's slot Loaded; once every PLAYING slot has
// loaded it broadcasts MATCH_ALL_PLAYERS_LOADED.
func LoadComplete(ctx context.Context, store *Store, sessions *session.Store, m *Match, sess *session.Session) error {
	if slot := m.GetSlot(sess.Account.ID); slot != nil {
		slot.Loaded = true
	}

	for i := range m.Slots {
		if m.Slots[i].Status == SlotPlaying && !m.Slots[i].Loaded {
			return store.Update(ctx, m, false)
		}
	}

	if err := store.Update(ctx, m, false); err != nil {
		return err
	}
	return broadcast(ctx, sessions, m, wire.Frame(uint16(packets.MatchAllPlayersLoaded), nil), nil)
}

// SkipRequest marks sess's slot Skipped; once every PLAYING slot has
// skipped it broadcasts MATCH_SKIP.
func SkipRequest(ctx context.Context, store *Store, sessions *session.Store, m *Match, sess *session.Session) error {
	if slot := m.GetSlot(sess.Account.ID); slot != nil {
		slot.Skipped = true
	}

	for i := range m.Slots {
		if m.Slots[i].Status == SlotPlaying && !m.Slots[i].Skipped {
			return store.Update(ctx, m, false)
		}
	}

	if err := store.Update(ctx, m, false); err != nil {
		return err
	}
	return broadcast(ctx, sessions, m, wire.Frame(uint16(packets.MatchSkip), nil), nil)
}

// PlayerFinish marks sess COMPLETE (or FAILED, broadcasting
// MATCH_PLAYER_FAILED with its slot index immediately); once no slot
// remains PLAYING the match is marked no-longer-in-progress, every
// slot resets to NOT_READY, and MATCH_COMPLETE is broadcast.
func PlayerFinish(ctx context.Context, store *Store, sessions *session.Store, m *Match, sess *session.Session, failed bool) error {
	idx := m.GetSlotIndex(sess.Account.ID)
	if idx < 0 {
		return nil
	}
	slot := &m.Slots[idx]
	if failed {
		slot.Status = SlotQuit
	} else {
		slot.Status = SlotComplete
	}

	if failed {
		w := wire.NewWriter()
		w.WriteI32(int32(idx))
		if err := broadcast(ctx, sessions, m, wire.Frame(uint16(packets.MatchPlayerFailed), w.Bytes()), nil); err != nil {
			return err
		}
	}

	for i := range m.Slots {
		if m.Slots[i].Status == SlotPlaying {
			return store.Update(ctx, m, false)
		}
	}

	m.InProgress = false
	for i := range m.Slots {
		if m.Slots[i].Status.HasUser() {
			m.Slots[i].Status = SlotNotReady
			m.Slots[i].Loaded = false
			m.Slots[i].Skipped = false
		}
	}
	if err := store.Update(ctx, m, true); err != nil {
		return err
	}
	return broadcast(ctx, sessions, m, wire.Frame(uint16(packets.MatchComplete_), nil), nil)
}

// TransferHost reassigns m's host to the occupant of targetSlot.
// Host-only; the target slot must be occupied.
func TransferHost(ctx context.Context, store *Store, sessions *session.Store, m *Match, sess *session.Session, targetSlot int) error {
	if sess.Account.ID != m.HostID {
		return ErrNotHost
	}
	if targetSlot < 0 || targetSlot >= NumSlots {
		return nil
	}
	slot := &m.Slots[targetSlot]
	if !slot.Status.HasUser() || slot.SessionID == nil {
		return nil
	}

	m.HostID = *slot.SessionID
	if err := store.Update(ctx, m, true); err != nil {
		return err
	}
	return fanout.ToSession(ctx, sessions, m.HostID, wire.Frame(uint16(packets.MatchTransferHostOut), nil))
}

// ChangeTeam toggles the caller's own slot between RED and BLUE.
func ChangeTeam(ctx context.Context, store *Store, m *Match, sess *session.Session) error {
	slot := m.GetSlot(sess.Account.ID)
	if slot == nil {
		return nil
	}
	if slot.Team == TeamRed {
		slot.Team = TeamBlue
	} else {
		slot.Team = TeamRed
	}
	return store.Update(ctx, m, true)
}

// ChangePassword sets m's password. Host-only.
func ChangePassword(ctx context.Context, store *Store, m *Match, sess *session.Session, password string) error {
	if sess.Account.ID != m.HostID {
		return ErrNotHost
	}
	m.Password = password
	return store.Update(ctx, m, true)
}

// Invite sends target a private message carrying m's invite embed.
func Invite(ctx context.Context, sessions *session.Store, m *Match, sender *session.Session, targetID int32) error {
	target, err := sessions.FetchByID(ctx, targetID)
	if err != nil || target == nil {
		return err
	}

	w := wire.NewWriter()
	wire.Message{
		SenderName: sender.Account.Name,
		Content:    m.InviteEmbed(),
		Target:     target.Account.Name,
		SenderID:   sender.Account.ID,
	}.Serialise(w)
	packet := wire.Frame(uint16(packets.SendMessage), w.Bytes())

	return fanout.ToSession(ctx, sessions, targetID, packet)
}
