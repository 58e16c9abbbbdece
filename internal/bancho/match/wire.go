package match

import "banchogate/internal/bancho/wire"

// Serialise writes m's wire encoding into w. When suppressPassword is
// true, a `0x0b 0x00` placeholder string replaces the real password
// whenever one is set (so a lobby listing can report "has a password"
// without leaking it); an unset password is always encoded as the
// empty string regardless of suppression.
func (m *Match) Serialise(w *wire.Writer, suppressPassword bool) {
	w.WriteU16(uint16(m.ID))
	w.WriteI8(boolToI8(m.InProgress))
	w.WriteI8(0) // powerplay, always 0
	w.WriteI32(m.Mods)
	w.WriteString(m.Name)

	if suppressPassword && m.Password != "" {
		w.WriteU8(0x0b)
		w.WriteU8(0x00)
	} else {
		w.WriteString(m.Password)
	}

	w.WriteString(m.MapTitle)
	w.WriteI32(m.MapID)
	w.WriteString(m.MapMD5)

	for i := range m.Slots {
		w.WriteI8(int8(m.Slots[i].Status))
	}
	for i := range m.Slots {
		w.WriteI8(int8(m.Slots[i].Team))
	}

	for i := range m.Slots {
		slot := &m.Slots[i]
		if !slot.Status.HasUser() {
			continue
		}
		w.WriteI32(*slot.SessionID)
		w.WriteI32(m.HostID)
		w.WriteI8(m.Mode)
		w.WriteI8(int8(m.WinCondition))
		w.WriteI8(int8(m.TeamType))
		w.WriteI8(boolToI8(m.Freemod))
		if m.Freemod {
			for j := range m.Slots {
				w.WriteI32(m.Slots[j].Mods)
			}
		}
	}

	w.WriteI32(m.Seed)
}

// Deserialise reads a Match from r, matching Serialise byte-for-byte.
func Deserialise(r *wire.Reader) *Match {
	m := &Match{}

	id := r.ReadU16()
	m.ID = int32(id)
	m.InProgress = r.ReadI8() != 0
	_ = r.ReadI8() // powerplay, unused
	m.Mods = r.ReadI32()
	m.Name = r.ReadString()
	m.Password = r.ReadString()
	m.MapTitle = r.ReadString()
	m.MapID = r.ReadI32()
	m.MapMD5 = r.ReadString()

	var hasUser [NumSlots]bool
	for i := 0; i < NumSlots; i++ {
		m.Slots[i].Status = SlotStatus(r.ReadI8())
		hasUser[i] = m.Slots[i].Status.HasUser()
	}
	for i := 0; i < NumSlots; i++ {
		m.Slots[i].Team = MatchTeam(r.ReadI8())
	}

	for i := 0; i < NumSlots; i++ {
		if !hasUser[i] {
			continue
		}
		sessionID := r.ReadI32()
		m.Slots[i].SessionID = &sessionID
		m.HostID = r.ReadI32()
		m.Mode = r.ReadI8()
		m.WinCondition = MatchWinCondition(r.ReadI8())
		m.TeamType = MatchTeamType(r.ReadI8())
		m.Freemod = r.ReadI8() != 0
		if m.Freemod {
			for j := 0; j < NumSlots; j++ {
				m.Slots[j].Mods = r.ReadI32()
			}
		}
	}

	m.Seed = r.ReadI32()

	return m
}

func boolToI8(v bool) int8 {
	if v {
		return 1
	}
	return 0
}
