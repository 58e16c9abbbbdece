// Package match owns multiplayer matches: their 16-slot arrays,
// host/team/mods/map state, the match store, and the match state
// machine (join/leave/start and the slot/settings packet handlers).
package match

import "fmt"

// SlotStatus is a bitmask status; NOT_READY, READY, NO_MAP, PLAYING
// and COMPLETE ORed together form HAS_USER.
type SlotStatus int32

const (
	SlotOpen      SlotStatus = 1
	SlotLocked    SlotStatus = 2
	SlotNotReady  SlotStatus = 4
	SlotReady     SlotStatus = 8
	SlotNoMap     SlotStatus = 16
	SlotPlaying   SlotStatus = 32
	SlotComplete  SlotStatus = 64
	SlotQuit      SlotStatus = 128

	SlotHasUser = SlotNotReady | SlotReady | SlotNoMap | SlotPlaying | SlotComplete
)

// HasUser reports whether s represents an occupied slot.
func (s SlotStatus) HasUser() bool { return s&SlotHasUser != 0 }

// MatchTeam is a slot's team assignment.
type MatchTeam int8

const (
	TeamNeutral MatchTeam = 0
	TeamBlue    MatchTeam = 1
	TeamRed     MatchTeam = 2
)

// MatchWinCondition is the scoring rule a match uses to rank players.
type MatchWinCondition int8

const (
	WinScore    MatchWinCondition = 0
	WinAccuracy MatchWinCondition = 1
	WinCombo    MatchWinCondition = 2
	WinScoreV2  MatchWinCondition = 3
)

// MatchTeamType controls whether slots are paired into teams.
type MatchTeamType int8

const (
	TeamTypeHeadToHead MatchTeamType = 0
	TeamTypeTagCoop    MatchTeamType = 1
	TeamTypeTeamVs     MatchTeamType = 2
	TeamTypeTagTeamVs  MatchTeamType = 3
)

// NumSlots is the fixed slot-array size every match carries.
const NumSlots = 16

// SpeedMods is the bitmask of the mods that always apply match-wide
// even under freemod (DoubleTime | HalfTime | Nightcore) — freemod
// only frees the remaining, non-speed-affecting mods to vary per slot.
const SpeedMods int32 = 64 | 256 | 512

// Slot is one of a match's 16 player slots.
type Slot struct {
	SessionID *int32
	Status    SlotStatus
	Team      MatchTeam
	Mods      int32
	Loaded    bool
	Skipped   bool
}

// Empty reports whether the slot has no occupant.
func (s *Slot) Empty() bool { return s.SessionID == nil }

// CopyFrom copies identity/status/team/mods from other into s, used
// when a player changes slots.
func (s *Slot) CopyFrom(other *Slot) {
	s.SessionID = other.SessionID
	s.Status = other.Status
	s.Team = other.Team
	s.Mods = other.Mods
}

// Reset clears the slot back to newStatus (OPEN by default).
func (s *Slot) Reset(newStatus SlotStatus) {
	s.SessionID = nil
	s.Status = newStatus
	s.Team = TeamNeutral
	s.Mods = 0
	s.Loaded = false
	s.Skipped = false
}

// Match is a multiplayer match: its identity, map/mods state, 16
// slots, and state-machine flags.
type Match struct {
	ID     int32
	Name   string
	HostID int32
	Mods   int32
	Mode   int8

	MapID      int32
	MapMD5     string
	MapTitle   string
	LastMapID  int32

	Freemod bool

	Slots [NumSlots]Slot

	Password string

	Refs []int32

	TeamType     MatchTeamType
	WinCondition MatchWinCondition

	InProgress bool
	Seed       int32

	TourneyClients []int32
}

// New constructs a match with all slots OPEN.
func New(id int32, name string, hostID int32, mods int32, mode int8) *Match {
	m := &Match{ID: id, Name: name, HostID: hostID, Mods: mods, Mode: mode}
	for i := range m.Slots {
		m.Slots[i].Status = SlotOpen
	}
	return m
}

// Contains reports whether sessionID occupies any slot.
func (m *Match) Contains(sessionID int32) bool {
	return m.GetSlot(sessionID) != nil
}

// InviteURL is the osump:// deep link to this match.
func (m *Match) InviteURL() string {
	return fmt.Sprintf("osump://%d/%s", m.ID, m.Password)
}

// InviteEmbed is the `[url name]` embed used by INVITE.
func (m *Match) InviteEmbed() string {
	return fmt.Sprintf("[%s %s]", m.InviteURL(), m.Name)
}

// GetSlot returns the slot occupied by sessionID, or nil.
func (m *Match) GetSlot(sessionID int32) *Slot {
	for i := range m.Slots {
		if m.Slots[i].SessionID != nil && *m.Slots[i].SessionID == sessionID {
			return &m.Slots[i]
		}
	}
	return nil
}

// GetSlotIndex returns the index of the slot occupied by sessionID, or
// -1.
func (m *Match) GetSlotIndex(sessionID int32) int {
	for i := range m.Slots {
		if m.Slots[i].SessionID != nil && *m.Slots[i].SessionID == sessionID {
			return i
		}
	}
	return -1
}

// GetNextFreeSlotIndex returns the lowest-index OPEN slot, or -1.
func (m *Match) GetNextFreeSlotIndex() int {
	for i := range m.Slots {
		if m.Slots[i].Status == SlotOpen {
			return i
		}
	}
	return -1
}

// GetHostSlot returns the occupied slot belonging to the host, or nil.
func (m *Match) GetHostSlot() *Slot {
	for i := range m.Slots {
		if m.Slots[i].Status.HasUser() && m.Slots[i].SessionID != nil && *m.Slots[i].SessionID == m.HostID {
			return &m.Slots[i]
		}
	}
	return nil
}

// UnreadyUsers resets every slot matching expected (READY by default)
// back to NOT_READY — used after a settings change invalidates
// readiness.
func (m *Match) UnreadyUsers(expected SlotStatus) {
	for i := range m.Slots {
		if m.Slots[i].Status == expected {
			m.Slots[i].Status = SlotNotReady
		}
	}
}
